// Package sqlite implements storage.Store on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/notefold/notefold/internal/storage"
	"github.com/notefold/notefold/pkg/types"
)

// Store implements storage.Store using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at the given DSN, configures WAL mode,
// and creates the schema.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Using a single open
	// connection serialises writes and avoids SQLITE_BUSY errors under
	// concurrent load. WAL mode lets readers proceed without blocking the
	// writer. Serialised writes are also what makes link/unlink/delete on
	// the same entity deterministic under concurrency.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Wait instead of failing immediately when the connection is held by
	// another goroutine.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// Foreign keys drive the edge cascade on notebook/artifact deletion.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// GetDB exposes the underlying connection for server wiring.
func (s *Store) GetDB() *sql.DB {
	return s.db
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// isUniqueViolation reports whether err is a SQLite unique constraint error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// --- ModelStore ---

// CreateModel persists a new model record.
func (s *Store) CreateModel(ctx context.Context, model *types.Model) error {
	if model == nil || model.ID == "" {
		return fmt.Errorf("%w: model ID is required", storage.ErrInvalidInput)
	}
	if model.Name == "" {
		return fmt.Errorf("%w: model name is required", storage.ErrInvalidInput)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO models (id, name, provider, type, created, updated)
		VALUES (?, ?, ?, ?, ?, ?)`,
		model.ID, model.Name, string(model.Provider), string(model.Type),
		model.Created, model.Updated,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: model %q (%s, %s)", storage.ErrDuplicate,
			model.Name, model.Provider, model.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to insert model: %w", err)
	}
	return nil
}

// GetModel retrieves a model by ID.
func (s *Store) GetModel(ctx context.Context, id string) (*types.Model, error) {
	var m types.Model
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, provider, type, created, updated
		FROM models WHERE id = ?`, id,
	).Scan(&m.ID, &m.Name, &m.Provider, &m.Type, &m.Created, &m.Updated)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: model %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get model: %w", err)
	}
	return &m, nil
}

// ListModels retrieves models matching the filter in registration order.
func (s *Store) ListModels(ctx context.Context, filter storage.ModelFilter) ([]*types.Model, error) {
	query := `SELECT id, name, provider, type, created, updated FROM models`
	var conds []string
	var args []interface{}

	if filter.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Provider != "" {
		conds = append(conds, "provider = ?")
		args = append(args, string(filter.Provider))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer rows.Close()

	var models []*types.Model
	for rows.Next() {
		var m types.Model
		if err := rows.Scan(&m.ID, &m.Name, &m.Provider, &m.Type, &m.Created, &m.Updated); err != nil {
			return nil, fmt.Errorf("failed to scan model: %w", err)
		}
		models = append(models, &m)
	}
	return models, rows.Err()
}

// RenameModel changes a model's name.
func (s *Store) RenameModel(ctx context.Context, id, name string) (*types.Model, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: model name is required", storage.ErrInvalidInput)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE models SET name = ?, updated = ? WHERE id = ?`,
		name, time.Now().UTC(), id,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: renaming model %s to %q", storage.ErrDuplicate, id, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to rename model: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rename result: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: model %s", storage.ErrNotFound, id)
	}
	return s.GetModel(ctx, id)
}

// DeleteModel removes a model record.
func (s *Store) DeleteModel(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM models WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete model: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: model %s", storage.ErrNotFound, id)
	}
	return nil
}

// --- DefaultsStore ---

const defaultsColumns = `default_chat_model, default_transformation_model,
	large_context_model, default_text_to_speech_model,
	default_speech_to_text_model, default_embedding_model,
	default_tools_model`

// GetDefaults returns the defaults record, creating an all-empty one on
// first read.
func (s *Store) GetDefaults(ctx context.Context) (*types.DefaultModels, error) {
	var d types.DefaultModels
	err := s.db.QueryRowContext(ctx,
		`SELECT `+defaultsColumns+` FROM default_models WHERE id = 1`,
	).Scan(
		&d.DefaultChatModel, &d.DefaultTransformationModel,
		&d.LargeContextModel, &d.DefaultTextToSpeechModel,
		&d.DefaultSpeechToTextModel, &d.DefaultEmbeddingModel,
		&d.DefaultToolsModel,
	)
	if err == sql.ErrNoRows {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO default_models (id, updated) VALUES (1, ?)
			 ON CONFLICT(id) DO NOTHING`, time.Now().UTC(),
		); err != nil {
			return nil, fmt.Errorf("failed to initialise defaults record: %w", err)
		}
		return &types.DefaultModels{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get defaults record: %w", err)
	}
	return &d, nil
}

// PutDefaults replaces the whole defaults record in one write.
func (s *Store) PutDefaults(ctx context.Context, defaults *types.DefaultModels) error {
	if defaults == nil {
		return fmt.Errorf("%w: defaults record is required", storage.ErrInvalidInput)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO default_models (id, `+defaultsColumns+`, updated)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			default_chat_model           = excluded.default_chat_model,
			default_transformation_model = excluded.default_transformation_model,
			large_context_model          = excluded.large_context_model,
			default_text_to_speech_model = excluded.default_text_to_speech_model,
			default_speech_to_text_model = excluded.default_speech_to_text_model,
			default_embedding_model      = excluded.default_embedding_model,
			default_tools_model          = excluded.default_tools_model,
			updated                      = excluded.updated`,
		defaults.DefaultChatModel, defaults.DefaultTransformationModel,
		defaults.LargeContextModel, defaults.DefaultTextToSpeechModel,
		defaults.DefaultSpeechToTextModel, defaults.DefaultEmbeddingModel,
		defaults.DefaultToolsModel, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to write defaults record: %w", err)
	}
	return nil
}

// --- NotebookStore ---

// CreateNotebook persists a new notebook.
func (s *Store) CreateNotebook(ctx context.Context, nb *types.Notebook) error {
	if nb == nil || nb.ID == "" {
		return fmt.Errorf("%w: notebook ID is required", storage.ErrInvalidInput)
	}
	if nb.Name == "" {
		return fmt.Errorf("%w: notebook name is required", storage.ErrInvalidInput)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notebooks (id, name, description, archived, created, updated)
		VALUES (?, ?, ?, ?, ?, ?)`,
		nb.ID, nb.Name, nb.Description, nb.Archived, nb.Created, nb.Updated,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notebook: %w", err)
	}
	return nil
}

// GetNotebook retrieves a notebook by ID.
func (s *Store) GetNotebook(ctx context.Context, id string) (*types.Notebook, error) {
	var nb types.Notebook
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, archived, created, updated
		FROM notebooks WHERE id = ?`, id,
	).Scan(&nb.ID, &nb.Name, &nb.Description, &nb.Archived, &nb.Created, &nb.Updated)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: notebook %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notebook: %w", err)
	}
	return &nb, nil
}

// ListNotebooks returns all notebooks ordered by updated descending.
func (s *Store) ListNotebooks(ctx context.Context) ([]*types.Notebook, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, archived, created, updated
		FROM notebooks ORDER BY updated DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list notebooks: %w", err)
	}
	defer rows.Close()

	var notebooks []*types.Notebook
	for rows.Next() {
		var nb types.Notebook
		if err := rows.Scan(&nb.ID, &nb.Name, &nb.Description, &nb.Archived, &nb.Created, &nb.Updated); err != nil {
			return nil, fmt.Errorf("failed to scan notebook: %w", err)
		}
		notebooks = append(notebooks, &nb)
	}
	return notebooks, rows.Err()
}

// UpdateNotebook updates name, description, and archived flag.
func (s *Store) UpdateNotebook(ctx context.Context, nb *types.Notebook) error {
	if nb == nil || nb.ID == "" {
		return fmt.Errorf("%w: notebook ID is required", storage.ErrInvalidInput)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE notebooks SET name = ?, description = ?, archived = ?, updated = ?
		WHERE id = ?`,
		nb.Name, nb.Description, nb.Archived, time.Now().UTC(), nb.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update notebook: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: notebook %s", storage.ErrNotFound, nb.ID)
	}
	return nil
}

// DeleteNotebook removes the notebook; the FK cascade removes its edges in
// the same statement.
func (s *Store) DeleteNotebook(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notebooks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete notebook: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: notebook %s", storage.ErrNotFound, id)
	}
	return nil
}

// --- ArtifactStore ---

// CreateArtifact persists a new artifact.
func (s *Store) CreateArtifact(ctx context.Context, a *types.Artifact) error {
	if a == nil || a.ID == "" {
		return fmt.Errorf("%w: artifact ID is required", storage.ErrInvalidInput)
	}
	if !a.Kind.IsValid() {
		return fmt.Errorf("%w: artifact kind %q", storage.ErrInvalidInput, a.Kind)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts (id, kind, title, content, note_type, embedding, created, updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Kind), a.Title, a.Content, string(a.NoteType),
		encodeEmbedding(a.Embedding), a.Created, a.Updated,
	)
	if err != nil {
		return fmt.Errorf("failed to insert artifact: %w", err)
	}
	return nil
}

// GetArtifact retrieves an artifact by ID.
func (s *Store) GetArtifact(ctx context.Context, id string) (*types.Artifact, error) {
	var a types.Artifact
	var embedding []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, kind, title, content, note_type, embedding, created, updated
		FROM artifacts WHERE id = ?`, id,
	).Scan(&a.ID, &a.Kind, &a.Title, &a.Content, &a.NoteType, &embedding, &a.Created, &a.Updated)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: artifact %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}
	a.Embedding = decodeEmbedding(embedding)
	return &a, nil
}

// UpdateArtifact updates title, content, and embedding.
func (s *Store) UpdateArtifact(ctx context.Context, a *types.Artifact) error {
	if a == nil || a.ID == "" {
		return fmt.Errorf("%w: artifact ID is required", storage.ErrInvalidInput)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE artifacts SET title = ?, content = ?, embedding = ?, updated = ?
		WHERE id = ?`,
		a.Title, a.Content, encodeEmbedding(a.Embedding), time.Now().UTC(), a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update artifact: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: artifact %s", storage.ErrNotFound, a.ID)
	}
	return nil
}

// DeleteArtifact removes the artifact; the FK cascade removes its edges.
func (s *Store) DeleteArtifact(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM artifacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: artifact %s", storage.ErrNotFound, id)
	}
	return nil
}

// --- LinkStore ---

// Link creates the edge between a notebook and an artifact. Both endpoint
// checks and the insert run in one transaction, so a concurrent delete of
// either endpoint deterministically fails the link with not-found rather
// than producing a dangling edge.
func (s *Store) Link(ctx context.Context, notebookID, artifactID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin link transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notebooks WHERE id = ?`, notebookID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check notebook: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: notebook %s", storage.ErrNotFound, notebookID)
	}

	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM artifacts WHERE id = ?`, artifactID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check artifact: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: artifact %s", storage.ErrNotFound, artifactID)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO links (notebook_id, artifact_id, created, updated)
		VALUES (?, ?, ?, ?)`,
		notebookID, artifactID, now, now,
	); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s -> %s", storage.ErrDuplicateEdge, notebookID, artifactID)
		}
		return fmt.Errorf("failed to insert link: %w", err)
	}

	return tx.Commit()
}

// Unlink removes the edge if present. No-op when absent.
func (s *Store) Unlink(ctx context.Context, notebookID, artifactID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM links WHERE notebook_id = ? AND artifact_id = ?`,
		notebookID, artifactID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}
	return nil
}

// ArtifactsOf returns the artifacts linked to the notebook, newest first.
func (s *Store) ArtifactsOf(ctx context.Context, notebookID string, filter storage.ArtifactFilter) ([]*types.Artifact, error) {
	if _, err := s.GetNotebook(ctx, notebookID); err != nil {
		return nil, err
	}

	query := `
		SELECT a.id, a.kind, a.title, a.content, a.note_type, a.embedding, a.created, a.updated
		FROM artifacts a
		JOIN links l ON l.artifact_id = a.id
		WHERE l.notebook_id = ?`
	args := []interface{}{notebookID}

	if filter.Kind != "" {
		query += " AND a.kind = ?"
		args = append(args, string(filter.Kind))
	}
	query += " ORDER BY a.created DESC, a.id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notebook artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []*types.Artifact
	for rows.Next() {
		var a types.Artifact
		var embedding []byte
		if err := rows.Scan(&a.ID, &a.Kind, &a.Title, &a.Content, &a.NoteType, &embedding, &a.Created, &a.Updated); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		a.Embedding = decodeEmbedding(embedding)
		artifacts = append(artifacts, &a)
	}
	return artifacts, rows.Err()
}

// NotebooksOf returns the notebooks the artifact is linked into.
func (s *Store) NotebooksOf(ctx context.Context, artifactID string) ([]*types.Notebook, error) {
	if _, err := s.GetArtifact(ctx, artifactID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT n.id, n.name, n.description, n.archived, n.created, n.updated
		FROM notebooks n
		JOIN links l ON l.notebook_id = n.id
		WHERE l.artifact_id = ?
		ORDER BY n.created DESC, n.id ASC`, artifactID)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifact notebooks: %w", err)
	}
	defer rows.Close()

	var notebooks []*types.Notebook
	for rows.Next() {
		var nb types.Notebook
		if err := rows.Scan(&nb.ID, &nb.Name, &nb.Description, &nb.Archived, &nb.Created, &nb.Updated); err != nil {
			return nil, fmt.Errorf("failed to scan notebook: %w", err)
		}
		notebooks = append(notebooks, &nb)
	}
	return notebooks, rows.Err()
}

// --- embedding serialization ---

// encodeEmbedding serialises a vector as little-endian float32 values.
// Returns nil for an empty vector so the column stays NULL.
func encodeEmbedding(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeEmbedding deserialises a little-endian float32 vector.
func decodeEmbedding(data []byte) []float32 {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec
}

// Compile-time assertion.
var _ storage.Store = (*Store)(nil)
