package handlers

import (
	"net/http"

	"github.com/notefold/notefold/internal/catalog"
	"github.com/notefold/notefold/pkg/types"
)

// ProviderHandlers serves the provider catalog and availability endpoints.
type ProviderHandlers struct {
	probe *catalog.Probe
}

// NewProviderHandlers creates the provider handlers.
func NewProviderHandlers(probe *catalog.Probe) *ProviderHandlers {
	return &ProviderHandlers{probe: probe}
}

// providerStatus describes one provider in the status listing.
type providerStatus struct {
	Provider       types.Provider    `json:"provider"`
	Available      bool              `json:"available"`
	ModelTypes     []types.ModelType `json:"model_types"`
	CredentialKeys []string          `json:"credential_keys"`
	MissingKeys    []string          `json:"missing_keys,omitempty"`
}

// List handles GET /api/providers. Availability reflects the live
// environment, so the answer changes when credentials are rotated. The
// optional type query parameter restricts the listing to providers able to
// serve that model type.
func (h *ProviderHandlers) List(w http.ResponseWriter, r *http.Request) {
	var providers []types.Provider
	if q := r.URL.Query().Get("type"); q != "" {
		modelType := types.ModelType(q)
		if !modelType.IsValid() {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error: "unknown model type " + q,
				Code:  "INVALID_INPUT",
			})
			return
		}
		providers = catalog.ProvidersFor(modelType)
	} else {
		providers = catalog.Providers()
	}

	statuses := make([]providerStatus, 0, len(providers))
	for _, p := range providers {
		statuses = append(statuses, providerStatus{
			Provider:       p,
			Available:      h.probe.IsAvailable(p),
			ModelTypes:     providerModelTypes(p),
			CredentialKeys: catalog.CredentialKeys(p),
			MissingKeys:    h.probe.MissingKeys(p),
		})
	}
	writeJSON(w, http.StatusOK, statuses)
}

func providerModelTypes(p types.Provider) []types.ModelType {
	var out []types.ModelType
	for _, t := range types.ValidModelTypes {
		if catalog.SupportsType(p, t) {
			out = append(out, t)
		}
	}
	return out
}
