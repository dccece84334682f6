package types

import "time"

// ArtifactKind distinguishes the two artifact entities that can be linked
// into a notebook.
type ArtifactKind string

// Artifact kind constants
const (
	ArtifactKindSource ArtifactKind = "source"
	ArtifactKindNote   ArtifactKind = "note"
)

// IsValid reports whether k is a known artifact kind.
func (k ArtifactKind) IsValid() bool {
	return k == ArtifactKindSource || k == ArtifactKindNote
}

// NoteType records whether a note was written by a human or generated by a
// model.
type NoteType string

// Note type constants
const (
	NoteTypeHuman NoteType = "human"
	NoteTypeAI    NoteType = "ai"
)

// IsValid reports whether t is a known note type.
func (t NoteType) IsValid() bool {
	return t == NoteTypeHuman || t == NoteTypeAI
}

// Notebook groups sources and notes. Artifacts are shared: the same artifact
// may be linked into several notebooks, so a notebook never exclusively owns
// its artifacts.
type Notebook struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Archived    bool      `json:"archived"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
}

// Artifact is a source or note that can be linked into notebooks. The two
// kinds share a single shape; NoteType is only set for notes.
type Artifact struct {
	ID    string       `json:"id"`
	Kind  ArtifactKind `json:"kind"`
	Title string       `json:"title"`

	// Content is the full text of the artifact. Required for notes,
	// optional for sources that have not been fetched yet.
	Content string `json:"content,omitempty"`

	// NoteType is set only when Kind is ArtifactKindNote.
	NoteType NoteType `json:"note_type,omitempty"`

	// Embedding is the vector representation of Content, or empty when the
	// artifact has not been embedded.
	Embedding []float32 `json:"embedding,omitempty"`

	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// IsNote reports whether the artifact is a note.
func (a *Artifact) IsNote() bool { return a.Kind == ArtifactKindNote }

// Link is the edge connecting a notebook to an artifact. The pair
// (NotebookID, ArtifactID) is unique; the edge is removed when either
// endpoint is deleted.
type Link struct {
	NotebookID string    `json:"notebook_id"`
	ArtifactID string    `json:"artifact_id"`
	Created    time.Time `json:"created"`
	Updated    time.Time `json:"updated"`
}
