package db

import "time"

// URLRecord represents a submitted, normalized URL
type URLRecord struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CheckRecord is the outcome of one successful page check
type CheckRecord struct {
	ID          int64     `db:"id" json:"id"`
	URLID       int64     `db:"url_id" json:"url_id"`
	StatusCode  int       `db:"status_code" json:"status_code"`
	H1          string    `db:"h1" json:"h1"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// URLSummary is a URL together with its most recent check, if any
type URLSummary struct {
	URLRecord
	LastCheckAt    *time.Time `db:"last_check_at" json:"last_check_at,omitempty"`
	LastStatusCode *int       `db:"last_status_code" json:"last_status_code,omitempty"`
}

// Schema is the Postgres schema for the urls and url_checks tables
const Schema = `
CREATE TABLE IF NOT EXISTS urls (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) UNIQUE NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS url_checks (
    id BIGSERIAL PRIMARY KEY,
    url_id BIGINT NOT NULL REFERENCES urls(id) ON DELETE CASCADE,
    status_code INTEGER,
    h1 VARCHAR(255),
    title VARCHAR(255),
    description TEXT,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_url_checks_url_id ON url_checks(url_id);
`

// SQLiteSchema is the same layout for the embedded SQLite store
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS urls (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name VARCHAR(255) UNIQUE NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS url_checks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    url_id INTEGER NOT NULL REFERENCES urls(id) ON DELETE CASCADE,
    status_code INTEGER,
    h1 VARCHAR(255),
    title VARCHAR(255),
    description TEXT,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_url_checks_url_id ON url_checks(url_id);
`

// ListURLsQuery selects every URL with the status and date of its latest check
const ListURLsQuery = `
SELECT
    u.id AS id,
    u.name AS name,
    u.created_at AS created_at,
    uc.created_at AS last_check_at,
    uc.status_code AS last_status_code
FROM urls u
LEFT JOIN url_checks uc ON uc.url_id = u.id
    AND uc.id = (SELECT MAX(id) FROM url_checks WHERE url_id = u.id)
ORDER BY u.id DESC
`
