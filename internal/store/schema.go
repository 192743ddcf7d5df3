package store

// SchemaVersion is the on-disk schema version this build reads and writes.
const SchemaVersion = 1

// Schema is the logical schema of spec.md §6: meta, docs, terms, postings.
const Schema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT
);

CREATE TABLE IF NOT EXISTS docs (
	doc_id INTEGER PRIMARY KEY AUTOINCREMENT,
	path   TEXT UNIQUE NOT NULL,
	mtime  REAL NOT NULL,
	size   INTEGER NOT NULL,
	length INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS terms (
	term_id INTEGER PRIMARY KEY AUTOINCREMENT,
	term    TEXT UNIQUE NOT NULL,
	df      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS postings (
	term_id INTEGER NOT NULL,
	doc_id  INTEGER NOT NULL,
	tf      INTEGER NOT NULL,
	PRIMARY KEY (term_id, doc_id)
);

CREATE INDEX IF NOT EXISTS idx_postings_doc ON postings(doc_id);
CREATE INDEX IF NOT EXISTS idx_postings_term ON postings(term_id);
`

// initMeta seeds the meta singletons on first creation.
const initMeta = `
INSERT OR IGNORE INTO meta (key, value) VALUES ('schema_version', ?);
INSERT OR IGNORE INTO meta (key, value) VALUES ('indexed_root', '');
INSERT OR IGNORE INTO meta (key, value) VALUES ('n', '0');
INSERT OR IGNORE INTO meta (key, value) VALUES ('sum_len', '0');
INSERT OR IGNORE INTO meta (key, value) VALUES ('stem', 'false');
INSERT OR IGNORE INTO meta (key, value) VALUES ('stopwords', 'true');
`
