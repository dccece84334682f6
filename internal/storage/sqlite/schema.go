package sqlite

// Schema is the complete SQLite schema. The links table owns the
// notebook-artifact relationship; ON DELETE CASCADE on both endpoints keeps
// edge removal atomic with entity deletion.
const Schema = `
CREATE TABLE IF NOT EXISTS models (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	provider TEXT NOT NULL,
	type     TEXT NOT NULL,
	created  TIMESTAMP NOT NULL,
	updated  TIMESTAMP NOT NULL,
	UNIQUE (name, provider, type)
);

CREATE INDEX IF NOT EXISTS idx_models_type ON models(type);
CREATE INDEX IF NOT EXISTS idx_models_provider ON models(provider);

-- Singleton: the CHECK pins the row id so there is exactly one record.
CREATE TABLE IF NOT EXISTS default_models (
	id                           INTEGER PRIMARY KEY CHECK (id = 1),
	default_chat_model           TEXT NOT NULL DEFAULT '',
	default_transformation_model TEXT NOT NULL DEFAULT '',
	large_context_model          TEXT NOT NULL DEFAULT '',
	default_text_to_speech_model TEXT NOT NULL DEFAULT '',
	default_speech_to_text_model TEXT NOT NULL DEFAULT '',
	default_embedding_model      TEXT NOT NULL DEFAULT '',
	default_tools_model          TEXT NOT NULL DEFAULT '',
	updated                      TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS notebooks (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	archived    INTEGER NOT NULL DEFAULT 0,
	created     TIMESTAMP NOT NULL,
	updated     TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS artifacts (
	id        TEXT PRIMARY KEY,
	kind      TEXT NOT NULL,
	title     TEXT NOT NULL DEFAULT '',
	content   TEXT NOT NULL DEFAULT '',
	note_type TEXT NOT NULL DEFAULT '',
	embedding BLOB,
	created   TIMESTAMP NOT NULL,
	updated   TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS links (
	notebook_id TEXT NOT NULL REFERENCES notebooks(id) ON DELETE CASCADE,
	artifact_id TEXT NOT NULL REFERENCES artifacts(id) ON DELETE CASCADE,
	created     TIMESTAMP NOT NULL,
	updated     TIMESTAMP NOT NULL,
	PRIMARY KEY (notebook_id, artifact_id)
);

CREATE INDEX IF NOT EXISTS idx_links_artifact ON links(artifact_id);
`
