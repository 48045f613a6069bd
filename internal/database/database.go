package database

import (
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// New creates a new database connection pool.
func New(dataSourceName string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite3", dataSourceName+"?_foreign_keys=on&_loc=UTC")
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
func Migrate(db *sqlx.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS containers (
		id TEXT NOT NULL PRIMARY KEY,
		header TEXT NOT NULL,
		header_color TEXT NOT NULL DEFAULT 'white',
		user_id TEXT NOT NULL REFERENCES users(id),
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cards (
		id TEXT NOT NULL PRIMARY KEY,
		client_id TEXT NOT NULL,
		title TEXT NOT NULL,
		secondary_title TEXT NOT NULL DEFAULT '',
		main_text TEXT NOT NULL DEFAULT '',
		card_color TEXT NOT NULL DEFAULT 'white',
		tags TEXT NOT NULL DEFAULT '',
		version_text TEXT NOT NULL DEFAULT '',
		parent_container_id TEXT NOT NULL REFERENCES containers(id),
		user_id TEXT NOT NULL REFERENCES users(id),
		position INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		estimated_time TEXT NOT NULL DEFAULT '',
		actual_time TEXT NOT NULL DEFAULT 'insert',
		-- Store the embedded comment list as JSON text
		comments_json TEXT NOT NULL DEFAULT '[]',
		UNIQUE(user_id, client_id)
	);

	CREATE INDEX IF NOT EXISTS idx_containers_user ON containers(user_id);
	CREATE INDEX IF NOT EXISTS idx_cards_user ON cards(user_id);
	CREATE INDEX IF NOT EXISTS idx_cards_container ON cards(parent_container_id);
	`
	_, err := db.Exec(sqlStmt)
	return err
}
