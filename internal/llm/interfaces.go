package llm

import "context"

// Client is the minimal surface shared by every provider client.
// The capability interfaces below extend it per model type.
type Client interface {
	GetModel() string
}

// TextGenerator is the interface for language model completion.
// Chat, transformation, and tool prompts all use single-string completion style.
type TextGenerator interface {
	Client
	Complete(ctx context.Context, prompt string) (string, error)
}

// EmbeddingGenerator is the interface for generating vector embeddings.
type EmbeddingGenerator interface {
	Client
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SpeechSynthesizer is the interface for text-to-speech rendering.
// Synthesize returns encoded audio bytes (mp3 unless the provider says otherwise).
type SpeechSynthesizer interface {
	Client
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Transcriber is the interface for speech-to-text transcription.
type Transcriber interface {
	Client
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}
