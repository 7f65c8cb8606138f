package database

// migrationsSQL contains all database migrations, applied in order by
// version number.
var migrationsSQL = map[int]string{
	1: migrationV1DatasetSchema,
	2: migrationV2ImportLog,
}

// migrationV1DatasetSchema holds one curated dataset at a time. Every
// import replaces all rows, so nothing here is keyed across versions.
// Nested lists that are only ever read whole are stored as JSON text.
const migrationV1DatasetSchema = `
-- Migration 001: curated dataset

-- Key/value metadata: version, introduction and conclusion templates.
CREATE TABLE IF NOT EXISTS dataset_meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

-- Festival table for calendar correlation. month is the Hebrew month
-- number (Nisan = 1, Adar II = 13).
CREATE TABLE IF NOT EXISTS festivals (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    month INTEGER NOT NULL CHECK (month BETWEEN 1 AND 13),
    day INTEGER NOT NULL CHECK (day BETWEEN 1 AND 30),
    first_adar INTEGER NOT NULL DEFAULT 0,
    emphasis TEXT NOT NULL DEFAULT '',
    ord INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS congregations (
    id TEXT PRIMARY KEY,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    location TEXT NOT NULL DEFAULT '',
    core_values TEXT NOT NULL DEFAULT '[]', -- JSON array of strings
    events TEXT NOT NULL DEFAULT '[]'       -- JSON array of events
);

CREATE TABLE IF NOT EXISTS topics (
    key TEXT PRIMARY KEY,
    position INTEGER NOT NULL,
    reference TEXT NOT NULL,
    hebrew_focus TEXT NOT NULL,
    translation TEXT NOT NULL DEFAULT '',
    aliases TEXT NOT NULL DEFAULT '[]',     -- JSON array of strings
    themes TEXT NOT NULL DEFAULT '[]',      -- JSON array of strings
    morphology TEXT NOT NULL DEFAULT '{}',  -- JSON object
    fragments TEXT NOT NULL DEFAULT '[]'    -- JSON array of fragments
);

-- Source registry: citation entries grouped by lookup key.
CREATE TABLE IF NOT EXISTS sources (
    registry_key TEXT NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    path TEXT NOT NULL DEFAULT '',
    html_url TEXT NOT NULL,
    repository TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (registry_key, position)
);

-- Curated section titles per lesson type.
CREATE TABLE IF NOT EXISTS section_titles (
    lesson_type TEXT NOT NULL CHECK (lesson_type IN ('sermon', 'bible_study', 'discipleship')),
    position INTEGER NOT NULL,
    title TEXT NOT NULL,
    PRIMARY KEY (lesson_type, position)
);
`

// migrationV2ImportLog records every import attempt for auditing.
const migrationV2ImportLog = `
-- Migration 002: import log

CREATE TABLE IF NOT EXISTS import_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    version TEXT NOT NULL DEFAULT '',
    source TEXT NOT NULL DEFAULT '',
    success INTEGER NOT NULL,
    error_message TEXT,
    festivals INTEGER NOT NULL DEFAULT 0,
    congregations INTEGER NOT NULL DEFAULT 0,
    topics INTEGER NOT NULL DEFAULT 0,
    imported_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_import_log_imported_at ON import_log(imported_at DESC);
`
