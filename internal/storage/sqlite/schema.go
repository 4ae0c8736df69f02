// ABOUTME: SQLite database schema for phrase memory storage
// ABOUTME: Collections, per-user sequence counters, and phrase rows with vector blobs
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Collection configuration; a collection's dimension and metric never change
CREATE TABLE IF NOT EXISTS collections (
    name TEXT PRIMARY KEY,
    dimension INTEGER NOT NULL,
    metric TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Next sequence number to hand out per user, used to derive record ids
CREATE TABLE IF NOT EXISTS user_sequences (
    collection TEXT NOT NULL REFERENCES collections(name),
    user_id TEXT NOT NULL,
    next_seq INTEGER NOT NULL,
    PRIMARY KEY (collection, user_id)
);

-- Phrase selections with their embedded context
CREATE TABLE IF NOT EXISTS phrases (
    collection TEXT NOT NULL REFERENCES collections(name),
    user_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    id INTEGER NOT NULL,
    category TEXT NOT NULL,
    phrase TEXT NOT NULL,
    time_of_day TEXT NOT NULL,
    day_of_week TEXT NOT NULL,
    location TEXT NOT NULL,
    context_summary TEXT NOT NULL,
    embedding BLOB NOT NULL,
    degraded INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    PRIMARY KEY (collection, user_id, seq),
    UNIQUE (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_phrases_user_category ON phrases(collection, user_id, category);
`
