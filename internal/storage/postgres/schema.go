package postgres

// Schema is the base PostgreSQL schema. All statements are idempotent.
// Embeddings are stored as BYTEA; when pgvector is available the
// MigrationPgvector column is added alongside for distance queries.
const Schema = `
CREATE TABLE IF NOT EXISTS models (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	provider TEXT NOT NULL,
	type     TEXT NOT NULL,
	created  TIMESTAMPTZ NOT NULL,
	updated  TIMESTAMPTZ NOT NULL,
	UNIQUE (name, provider, type)
);

CREATE INDEX IF NOT EXISTS idx_models_type ON models(type);
CREATE INDEX IF NOT EXISTS idx_models_provider ON models(provider);

CREATE TABLE IF NOT EXISTS default_models (
	id                           INTEGER PRIMARY KEY CHECK (id = 1),
	default_chat_model           TEXT NOT NULL DEFAULT '',
	default_transformation_model TEXT NOT NULL DEFAULT '',
	large_context_model          TEXT NOT NULL DEFAULT '',
	default_text_to_speech_model TEXT NOT NULL DEFAULT '',
	default_speech_to_text_model TEXT NOT NULL DEFAULT '',
	default_embedding_model      TEXT NOT NULL DEFAULT '',
	default_tools_model          TEXT NOT NULL DEFAULT '',
	updated                      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS notebooks (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	archived    BOOLEAN NOT NULL DEFAULT FALSE,
	created     TIMESTAMPTZ NOT NULL,
	updated     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS artifacts (
	id        TEXT PRIMARY KEY,
	kind      TEXT NOT NULL,
	title     TEXT NOT NULL DEFAULT '',
	content   TEXT NOT NULL DEFAULT '',
	note_type TEXT NOT NULL DEFAULT '',
	embedding BYTEA,
	created   TIMESTAMPTZ NOT NULL,
	updated   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS links (
	notebook_id TEXT NOT NULL REFERENCES notebooks(id) ON DELETE CASCADE,
	artifact_id TEXT NOT NULL REFERENCES artifacts(id) ON DELETE CASCADE,
	created     TIMESTAMPTZ NOT NULL,
	updated     TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (notebook_id, artifact_id)
);

CREATE INDEX IF NOT EXISTS idx_links_artifact ON links(artifact_id);
`

// MigrationPgvector adds the vector column used for similarity queries.
// 1536 matches the common embedding width; narrower vectors are padded by
// the caller or stored only in the BYTEA column.
const MigrationPgvector = `
ALTER TABLE artifacts ADD COLUMN IF NOT EXISTS embedding_vec vector(1536);
`
