package catalog

import (
	"os"
	"strings"

	"github.com/notefold/notefold/pkg/types"
)

// Probe checks live process configuration for provider credentials. Lookups
// are never cached: the environment may change mid-process (credential
// rotation, .env reload), and availability must always reflect the current
// state.
type Probe struct {
	// getenv resolves an environment key. Injected for tests; defaults to
	// os.Getenv.
	getenv func(string) string
}

// NewProbe creates a probe reading from the process environment.
func NewProbe() *Probe {
	return &Probe{getenv: os.Getenv}
}

// NewProbeWithEnv creates a probe with a custom environment lookup.
func NewProbeWithEnv(getenv func(string) string) *Probe {
	if getenv == nil {
		getenv = os.Getenv
	}
	return &Probe{getenv: getenv}
}

// IsAvailable reports whether every credential key for the provider resolves
// to a non-empty value right now.
func (p *Probe) IsAvailable(provider types.Provider) bool {
	keys := CredentialKeys(provider)
	if keys == nil {
		return false
	}
	for _, key := range keys {
		if strings.TrimSpace(p.getenv(key)) == "" {
			return false
		}
	}
	return true
}

// MissingKeys returns the credential keys that are currently unset for the
// provider. An empty result means the provider is available.
func (p *Probe) MissingKeys(provider types.Provider) []string {
	var missing []string
	for _, key := range CredentialKeys(provider) {
		if strings.TrimSpace(p.getenv(key)) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

// Credentials returns the resolved credential values for the provider,
// keyed by environment key name. ok is false when any key is unset.
func (p *Probe) Credentials(provider types.Provider) (map[string]string, bool) {
	keys := CredentialKeys(provider)
	if keys == nil {
		return nil, false
	}
	values := make(map[string]string, len(keys))
	for _, key := range keys {
		v := strings.TrimSpace(p.getenv(key))
		if v == "" {
			return nil, false
		}
		values[key] = v
	}
	return values, true
}

// Available returns the providers whose credentials are all present.
func (p *Probe) Available() []types.Provider {
	var out []types.Provider
	for _, provider := range Providers() {
		if p.IsAvailable(provider) {
			out = append(out, provider)
		}
	}
	return out
}

// AvailableFor returns the providers that can serve the given model type and
// whose credentials are all present.
func (p *Probe) AvailableFor(t types.ModelType) []types.Provider {
	var out []types.Provider
	for _, provider := range ProvidersFor(t) {
		if p.IsAvailable(provider) {
			out = append(out, provider)
		}
	}
	return out
}

// Status splits the catalog into available and unavailable providers, for
// the provider status endpoint.
func (p *Probe) Status() (available, unavailable []types.Provider) {
	for _, provider := range Providers() {
		if p.IsAvailable(provider) {
			available = append(available, provider)
		} else {
			unavailable = append(unavailable, provider)
		}
	}
	return available, unavailable
}
