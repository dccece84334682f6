package llm

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/notefold/notefold/pkg/types"
)

// NewClient constructs the provider client for the given model. creds maps
// credential environment keys to their current values, as returned by the
// catalog probe. The returned Client satisfies the capability interface
// matching model.Type (TextGenerator, EmbeddingGenerator, SpeechSynthesizer,
// or Transcriber).
func NewClient(model types.Model, creds map[string]string) (Client, error) {
	switch model.Type {
	case types.ModelTypeLanguage:
		return NewTextGenerator(model, creds)
	case types.ModelTypeEmbedding:
		return NewEmbeddingGenerator(model, creds)
	case types.ModelTypeTextToSpeech:
		return NewSpeechSynthesizer(model, creds)
	case types.ModelTypeSpeechToText:
		return NewTranscriber(model, creds)
	default:
		return nil, fmt.Errorf("unsupported model type: %q", model.Type)
	}
}

// NewTextGenerator creates the appropriate TextGenerator for the model's provider.
func NewTextGenerator(model types.Model, creds map[string]string) (TextGenerator, error) {
	switch model.Provider {
	case types.ProviderAnthropic:
		return NewAnthropicClient(AnthropicConfig{
			APIKey: creds["ANTHROPIC_API_KEY"],
			Model:  model.Name,
		}), nil
	case types.ProviderOllama:
		return NewOllamaClient(OllamaConfig{
			BaseURL: creds["OLLAMA_API_BASE"],
			Model:   model.Name,
		}), nil
	default:
		cfg, err := openAICompatConfig(model, creds)
		if err != nil {
			return nil, err
		}
		return NewOpenAIClient(cfg), nil
	}
}

// NewEmbeddingGenerator creates the appropriate EmbeddingGenerator for the
// model's provider.
func NewEmbeddingGenerator(model types.Model, creds map[string]string) (EmbeddingGenerator, error) {
	switch model.Provider {
	case types.ProviderOllama:
		return NewOllamaClient(OllamaConfig{
			BaseURL: creds["OLLAMA_API_BASE"],
			Model:   model.Name,
		}), nil
	default:
		cfg, err := openAICompatConfig(model, creds)
		if err != nil {
			return nil, err
		}
		return NewOpenAIEmbeddingClient(cfg), nil
	}
}

// NewSpeechSynthesizer creates the appropriate SpeechSynthesizer for the
// model's provider.
func NewSpeechSynthesizer(model types.Model, creds map[string]string) (SpeechSynthesizer, error) {
	switch model.Provider {
	case types.ProviderElevenLabs:
		return NewElevenLabsClient(ElevenLabsConfig{
			APIKey: creds["ELEVENLABS_API_KEY"],
			Model:  model.Name,
		}), nil
	default:
		cfg, err := openAICompatConfig(model, creds)
		if err != nil {
			return nil, err
		}
		return NewOpenAISpeechClient(cfg, ""), nil
	}
}

// NewTranscriber creates the appropriate Transcriber for the model's provider.
func NewTranscriber(model types.Model, creds map[string]string) (Transcriber, error) {
	switch model.Provider {
	case types.ProviderElevenLabs:
		return NewElevenLabsClient(ElevenLabsConfig{
			APIKey: creds["ELEVENLABS_API_KEY"],
			Model:  model.Name,
		}), nil
	default:
		cfg, err := openAICompatConfig(model, creds)
		if err != nil {
			return nil, err
		}
		return NewOpenAITranscriptionClient(cfg), nil
	}
}

// openAICompatConfig builds the OpenAIConfig for providers that speak the
// OpenAI wire format. Anthropic, ollama, and elevenlabs are handled by their
// native clients and never reach here.
func openAICompatConfig(model types.Model, creds map[string]string) (OpenAIConfig, error) {
	cfg := OpenAIConfig{Model: model.Name}

	switch model.Provider {
	case types.ProviderOpenAI:
		cfg.APIKey = creds["OPENAI_API_KEY"]
	case types.ProviderGroq:
		cfg.APIKey = creds["GROQ_API_KEY"]
		cfg.BaseURL = "https://api.groq.com/openai/v1"
	case types.ProviderGemini:
		cfg.APIKey = creds["GOOGLE_API_KEY"]
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	case types.ProviderXAI:
		cfg.APIKey = creds["XAI_API_KEY"]
		cfg.BaseURL = "https://api.x.ai/v1"
	case types.ProviderOpenRouter:
		cfg.APIKey = creds["OPENROUTER_API_KEY"]
		cfg.BaseURL = strings.TrimSuffix(creds["OPENROUTER_BASE_URL"], "/")
	case types.ProviderMistral:
		cfg.APIKey = creds["MISTRAL_API_KEY"]
		cfg.BaseURL = "https://api.mistral.ai/v1"
	case types.ProviderVoyage:
		cfg.APIKey = creds["VOYAGE_API_KEY"]
		cfg.BaseURL = "https://api.voyageai.com/v1"
	case types.ProviderDeepSeek:
		cfg.APIKey = creds["DEEPSEEK_API_KEY"]
		cfg.BaseURL = "https://api.deepseek.com/v1"
	case types.ProviderAzure:
		// Azure routes by deployment, authenticates via the api-key header,
		// and pins the API version in the query string.
		cfg.APIKey = creds["AZURE_OPENAI_API_KEY"]
		cfg.BaseURL = strings.TrimSuffix(creds["AZURE_OPENAI_ENDPOINT"], "/") +
			"/openai/deployments/" + creds["AZURE_OPENAI_DEPLOYMENT_NAME"]
		cfg.AuthHeader = "api-key"
		cfg.Query = url.Values{"api-version": {creds["AZURE_OPENAI_API_VERSION"]}}
	case types.ProviderVertexAI:
		// Vertex exposes an OpenAI-compatible endpoint per project/location.
		// The credential value is used as the bearer token; minting access
		// tokens from a service account file is the deployment's concern.
		project := creds["VERTEX_PROJECT"]
		location := creds["VERTEX_LOCATION"]
		cfg.APIKey = creds["GOOGLE_APPLICATION_CREDENTIALS"]
		cfg.BaseURL = fmt.Sprintf(
			"https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/endpoints/openapi",
			location, project, location,
		)
	default:
		return OpenAIConfig{}, fmt.Errorf("unsupported provider: %q", model.Provider)
	}

	return cfg, nil
}
