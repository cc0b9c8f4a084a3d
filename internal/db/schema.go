package db

const schema = `
-- Job postings
CREATE TABLE IF NOT EXISTS cases (
    id TEXT PRIMARY KEY,
    owner TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL DEFAULT '',
    skills TEXT NOT NULL DEFAULT '[]',  -- JSON array, ordered
    key_technologies TEXT NOT NULL DEFAULT '',
    location TEXT NOT NULL DEFAULT '',
    budget TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'recruiting',
    company TEXT NOT NULL DEFAULT '',
    legacy_sender TEXT NOT NULL DEFAULT '',       -- pre-multi-sender records
    legacy_sender_email TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    source_path TEXT UNIQUE,                     -- .eml the case was ingested from
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    registered_at DATETIME
);

-- Sender contacts, ordered by position within their case
CREATE TABLE IF NOT EXISTS case_senders (
    case_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (case_id, position),
    FOREIGN KEY(case_id) REFERENCES cases(id) ON DELETE CASCADE
);

-- Candidates used as template placeholder sources
CREATE TABLE IF NOT EXISTS engineers (
    id TEXT PRIMARY KEY,
    owner TEXT NOT NULL DEFAULT '',
    name TEXT NOT NULL,
    skills TEXT NOT NULL DEFAULT '[]',
    experience TEXT NOT NULL DEFAULT '',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Messages accepted by the sender
CREATE TABLE IF NOT EXISTS outbox (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    batch_id TEXT NOT NULL,
    owner TEXT NOT NULL DEFAULT '',
    case_id TEXT NOT NULL DEFAULT '',
    recipient TEXT NOT NULL,
    recipient_name TEXT NOT NULL DEFAULT '',
    subject TEXT NOT NULL,
    body TEXT NOT NULL,
    raw BLOB,                -- full RFC 5322 message
    is_test BOOLEAN DEFAULT 0,
    sent_at DATETIME
);

-- Settings table
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_cases_owner_created ON cases(owner, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_cases_company ON cases(company);
CREATE INDEX IF NOT EXISTS idx_engineers_owner ON engineers(owner);
CREATE INDEX IF NOT EXISTS idx_outbox_batch ON outbox(batch_id);
CREATE INDEX IF NOT EXISTS idx_outbox_owner_sent ON outbox(owner, sent_at DESC);
`
