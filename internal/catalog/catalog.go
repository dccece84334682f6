// Package catalog holds the static provider capability table and the live
// credential probe built on top of it.
//
// The catalog is pure data: which providers exist, which model types each
// can serve, and which environment keys hold its credentials. It is
// immutable after process start. Availability (credential presence) is a
// separate, live concern handled by Probe.
package catalog

import (
	"sort"

	"github.com/notefold/notefold/pkg/types"
)

// capability describes one provider's entry in the catalog.
type capability struct {
	// modelTypes the provider can serve.
	modelTypes []types.ModelType

	// credentialKeys are the environment keys that must all be non-empty
	// for the provider to be usable. Most providers need a single API key;
	// vertexai, azure, and openrouter need several values.
	credentialKeys []string
}

// providerTable is the authoritative capability table. Validation functions
// consult this table rather than scattering provider conditionals across
// call sites.
var providerTable = map[types.Provider]capability{
	types.ProviderOpenAI: {
		modelTypes: []types.ModelType{
			types.ModelTypeLanguage, types.ModelTypeEmbedding,
			types.ModelTypeTextToSpeech, types.ModelTypeSpeechToText,
		},
		credentialKeys: []string{"OPENAI_API_KEY"},
	},
	types.ProviderAnthropic: {
		modelTypes:     []types.ModelType{types.ModelTypeLanguage},
		credentialKeys: []string{"ANTHROPIC_API_KEY"},
	},
	types.ProviderGroq: {
		modelTypes:     []types.ModelType{types.ModelTypeLanguage, types.ModelTypeSpeechToText},
		credentialKeys: []string{"GROQ_API_KEY"},
	},
	types.ProviderGemini: {
		modelTypes:     []types.ModelType{types.ModelTypeLanguage, types.ModelTypeEmbedding},
		credentialKeys: []string{"GOOGLE_API_KEY"},
	},
	types.ProviderVertexAI: {
		modelTypes: []types.ModelType{types.ModelTypeLanguage, types.ModelTypeEmbedding},
		credentialKeys: []string{
			"VERTEX_PROJECT", "VERTEX_LOCATION", "GOOGLE_APPLICATION_CREDENTIALS",
		},
	},
	types.ProviderXAI: {
		modelTypes:     []types.ModelType{types.ModelTypeLanguage},
		credentialKeys: []string{"XAI_API_KEY"},
	},
	types.ProviderOpenRouter: {
		modelTypes: []types.ModelType{types.ModelTypeLanguage},
		credentialKeys: []string{
			"OPENROUTER_API_KEY", "OPENROUTER_BASE_URL",
		},
	},
	types.ProviderElevenLabs: {
		modelTypes:     []types.ModelType{types.ModelTypeTextToSpeech, types.ModelTypeSpeechToText},
		credentialKeys: []string{"ELEVENLABS_API_KEY"},
	},
	types.ProviderOllama: {
		modelTypes:     []types.ModelType{types.ModelTypeLanguage, types.ModelTypeEmbedding},
		credentialKeys: []string{"OLLAMA_API_BASE"},
	},
	types.ProviderAzure: {
		modelTypes: []types.ModelType{
			types.ModelTypeLanguage, types.ModelTypeEmbedding,
			types.ModelTypeTextToSpeech, types.ModelTypeSpeechToText,
		},
		credentialKeys: []string{
			"AZURE_OPENAI_API_KEY", "AZURE_OPENAI_ENDPOINT",
			"AZURE_OPENAI_DEPLOYMENT_NAME", "AZURE_OPENAI_API_VERSION",
		},
	},
	types.ProviderMistral: {
		modelTypes:     []types.ModelType{types.ModelTypeLanguage, types.ModelTypeEmbedding},
		credentialKeys: []string{"MISTRAL_API_KEY"},
	},
	types.ProviderVoyage: {
		modelTypes:     []types.ModelType{types.ModelTypeEmbedding},
		credentialKeys: []string{"VOYAGE_API_KEY"},
	},
	types.ProviderDeepSeek: {
		modelTypes:     []types.ModelType{types.ModelTypeLanguage},
		credentialKeys: []string{"DEEPSEEK_API_KEY"},
	},
}

// Known reports whether the provider identifier exists in the catalog.
func Known(p types.Provider) bool {
	_, ok := providerTable[p]
	return ok
}

// Providers returns every provider in the catalog, sorted by identifier.
func Providers() []types.Provider {
	out := make([]types.Provider, 0, len(providerTable))
	for p := range providerTable {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ProvidersFor returns the providers able to serve the given model type,
// sorted by identifier. The result ignores credential availability; combine
// with Probe.AvailableFor for the live view.
func ProvidersFor(t types.ModelType) []types.Provider {
	var out []types.Provider
	for p, cap := range providerTable {
		for _, mt := range cap.modelTypes {
			if mt == t {
				out = append(out, p)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SupportsType reports whether the provider can serve the given model type.
func SupportsType(p types.Provider, t types.ModelType) bool {
	cap, ok := providerTable[p]
	if !ok {
		return false
	}
	for _, mt := range cap.modelTypes {
		if mt == t {
			return true
		}
	}
	return false
}

// CredentialKeys returns the environment keys that must all be set for the
// provider to be usable. Returns nil for unknown providers.
func CredentialKeys(p types.Provider) []string {
	cap, ok := providerTable[p]
	if !ok {
		return nil
	}
	keys := make([]string, len(cap.credentialKeys))
	copy(keys, cap.credentialKeys)
	return keys
}
