// Package types defines the core data structures for the Notefold backend:
// AI model records, the default-model configuration, notebooks, and the
// artifacts (sources and notes) linked into them.
package types

import "time"

// ModelType classifies what capability a registered model provides.
type ModelType string

// Model type constants
const (
	// ModelTypeLanguage indicates a chat/completion model
	ModelTypeLanguage ModelType = "language"

	// ModelTypeEmbedding indicates a vector embedding model
	ModelTypeEmbedding ModelType = "embedding"

	// ModelTypeTextToSpeech indicates a speech synthesis model
	ModelTypeTextToSpeech ModelType = "text_to_speech"

	// ModelTypeSpeechToText indicates a transcription model
	ModelTypeSpeechToText ModelType = "speech_to_text"
)

// ValidModelTypes lists every model type accepted by the registry, in the
// order they are presented to clients.
var ValidModelTypes = []ModelType{
	ModelTypeLanguage,
	ModelTypeEmbedding,
	ModelTypeTextToSpeech,
	ModelTypeSpeechToText,
}

// IsValid reports whether t is one of the known model types.
func (t ModelType) IsValid() bool {
	switch t {
	case ModelTypeLanguage, ModelTypeEmbedding, ModelTypeTextToSpeech, ModelTypeSpeechToText:
		return true
	}
	return false
}

// Provider identifies an external AI vendor.
type Provider string

// Supported provider identifiers
const (
	ProviderOpenAI     Provider = "openai"
	ProviderAnthropic  Provider = "anthropic"
	ProviderGroq       Provider = "groq"
	ProviderGemini     Provider = "gemini"
	ProviderVertexAI   Provider = "vertexai"
	ProviderXAI        Provider = "xai"
	ProviderOpenRouter Provider = "openrouter"
	ProviderElevenLabs Provider = "elevenlabs"
	ProviderOllama     Provider = "ollama"
	ProviderAzure      Provider = "azure"
	ProviderMistral    Provider = "mistral"
	ProviderVoyage     Provider = "voyage"
	ProviderDeepSeek   Provider = "deepseek"
)

// Model is a named, provider-scoped, typed AI capability record. It is the
// persisted description of a model, not the running client; clients are
// constructed on demand by the model manager.
type Model struct {
	// ID is the unique identifier (e.g. "model:4f3a...").
	ID string `json:"id"`

	// Name is the provider-side model name (e.g. "gpt-4o-mini").
	Name string `json:"name"`

	// Provider identifies the vendor serving this model.
	Provider Provider `json:"provider"`

	// Type is the capability this model provides.
	Type ModelType `json:"type"`

	// Created is when the record was registered.
	Created time.Time `json:"created"`

	// Updated is when the record was last modified.
	Updated time.Time `json:"updated"`
}

// DefaultsField names one slot of the DefaultModels record.
type DefaultsField string

// Defaults record field names. These match the persisted column names.
const (
	FieldDefaultChatModel           DefaultsField = "default_chat_model"
	FieldDefaultTransformationModel DefaultsField = "default_transformation_model"
	FieldLargeContextModel          DefaultsField = "large_context_model"
	FieldDefaultTextToSpeechModel   DefaultsField = "default_text_to_speech_model"
	FieldDefaultSpeechToTextModel   DefaultsField = "default_speech_to_text_model"
	FieldDefaultEmbeddingModel      DefaultsField = "default_embedding_model"
	FieldDefaultToolsModel          DefaultsField = "default_tools_model"
)

// RequiredType returns the model type a model must have to be assigned to
// this defaults field.
func (f DefaultsField) RequiredType() ModelType {
	switch f {
	case FieldDefaultEmbeddingModel:
		return ModelTypeEmbedding
	case FieldDefaultTextToSpeechModel:
		return ModelTypeTextToSpeech
	case FieldDefaultSpeechToTextModel:
		return ModelTypeSpeechToText
	default:
		// Chat, transformation, large-context, and tools slots all hold
		// language models.
		return ModelTypeLanguage
	}
}

// DefaultsFields lists every slot of the defaults record.
var DefaultsFields = []DefaultsField{
	FieldDefaultChatModel,
	FieldDefaultTransformationModel,
	FieldLargeContextModel,
	FieldDefaultTextToSpeechModel,
	FieldDefaultSpeechToTextModel,
	FieldDefaultEmbeddingModel,
	FieldDefaultToolsModel,
}

// DefaultModels is the singleton record holding the current default model id
// per capability slot. Empty string means the slot is unset.
type DefaultModels struct {
	DefaultChatModel           string `json:"default_chat_model,omitempty"`
	DefaultTransformationModel string `json:"default_transformation_model,omitempty"`
	LargeContextModel          string `json:"large_context_model,omitempty"`
	DefaultTextToSpeechModel   string `json:"default_text_to_speech_model,omitempty"`
	DefaultSpeechToTextModel   string `json:"default_speech_to_text_model,omitempty"`
	DefaultEmbeddingModel      string `json:"default_embedding_model,omitempty"`
	DefaultToolsModel          string `json:"default_tools_model,omitempty"`
}

// Field returns the value of the named slot.
func (d *DefaultModels) Field(f DefaultsField) string {
	switch f {
	case FieldDefaultChatModel:
		return d.DefaultChatModel
	case FieldDefaultTransformationModel:
		return d.DefaultTransformationModel
	case FieldLargeContextModel:
		return d.LargeContextModel
	case FieldDefaultTextToSpeechModel:
		return d.DefaultTextToSpeechModel
	case FieldDefaultSpeechToTextModel:
		return d.DefaultSpeechToTextModel
	case FieldDefaultEmbeddingModel:
		return d.DefaultEmbeddingModel
	case FieldDefaultToolsModel:
		return d.DefaultToolsModel
	}
	return ""
}

// SetField assigns the named slot. Unknown fields are ignored.
func (d *DefaultModels) SetField(f DefaultsField, modelID string) {
	switch f {
	case FieldDefaultChatModel:
		d.DefaultChatModel = modelID
	case FieldDefaultTransformationModel:
		d.DefaultTransformationModel = modelID
	case FieldLargeContextModel:
		d.LargeContextModel = modelID
	case FieldDefaultTextToSpeechModel:
		d.DefaultTextToSpeechModel = modelID
	case FieldDefaultSpeechToTextModel:
		d.DefaultSpeechToTextModel = modelID
	case FieldDefaultEmbeddingModel:
		d.DefaultEmbeddingModel = modelID
	case FieldDefaultToolsModel:
		d.DefaultToolsModel = modelID
	}
}

// ReferencedBy returns the slots currently holding the given model id.
func (d *DefaultModels) ReferencedBy(modelID string) []DefaultsField {
	if modelID == "" {
		return nil
	}
	var fields []DefaultsField
	for _, f := range DefaultsFields {
		if d.Field(f) == modelID {
			fields = append(fields, f)
		}
	}
	return fields
}
