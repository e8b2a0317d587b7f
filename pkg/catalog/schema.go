package catalog

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;

-- Documents table: every scanned document
CREATE TABLE IF NOT EXISTS documents (
    doc_id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    stem TEXT NOT NULL,
    ref_count INTEGER DEFAULT 0,
    last_scanned_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_documents_stem ON documents(stem);

-- References table: de-duplicated (name, url) pairs per document
CREATE TABLE IF NOT EXISTS refs (
    ref_id INTEGER PRIMARY KEY AUTOINCREMENT,
    doc_id INTEGER NOT NULL,
    name TEXT NOT NULL,
    url TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (doc_id) REFERENCES documents(doc_id) ON DELETE CASCADE,
    UNIQUE(doc_id, name)
);

CREATE INDEX IF NOT EXISTS idx_refs_doc ON refs(doc_id);

-- Fetches table: every fetch outcome tracked
CREATE TABLE IF NOT EXISTS fetches (
    fetch_id INTEGER PRIMARY KEY AUTOINCREMENT,
    ref_id INTEGER NOT NULL,
    outcome TEXT NOT NULL,        -- success, status, exhausted, write_error
    status_code INTEGER DEFAULT 0,
    attempts INTEGER DEFAULT 0,
    size_bytes INTEGER DEFAULT 0,
    error TEXT,
    fetched_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (ref_id) REFERENCES refs(ref_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_fetches_ref ON fetches(ref_id);
CREATE INDEX IF NOT EXISTS idx_fetches_outcome ON fetches(outcome);
`
