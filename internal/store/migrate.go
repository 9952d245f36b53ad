package store

import "database/sql"

func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= 1 {
		return tx.Commit()
	}

	// ---- Schema v1 ----

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS sources (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  url TEXT NOT NULL,
  domain TEXT NOT NULL,
  fetch_strategy TEXT NOT NULL DEFAULT 'static',
  custom_backend TEXT NOT NULL DEFAULT '',
  source_type TEXT NOT NULL DEFAULT 'Dealer',
  search_url_template TEXT NOT NULL DEFAULT '',
  listing_selector TEXT NOT NULL DEFAULT '',
  title_selector TEXT NOT NULL DEFAULT '',
  price_selector TEXT NOT NULL DEFAULT '',
  link_selector TEXT NOT NULL DEFAULT '',
  image_selector TEXT NOT NULL DEFAULT '',
  wait_selector TEXT NOT NULL DEFAULT '',
  rate_limit_seconds REAL NOT NULL DEFAULT 2,
  active INTEGER NOT NULL DEFAULT 1,
  error_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT NOT NULL DEFAULT '',
  last_success_at TEXT
);`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS search_criteria (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  manufacturer TEXT NOT NULL,
  model TEXT NOT NULL,
  reference_number TEXT NOT NULL DEFAULT '',
  year INTEGER NOT NULL DEFAULT 0,
  allowed_countries TEXT NOT NULL DEFAULT '[]',
  active INTEGER NOT NULL DEFAULT 1
);`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS listings (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  manufacturer TEXT NOT NULL,
  model TEXT NOT NULL,
  reference_number TEXT NOT NULL DEFAULT '',
  year INTEGER NOT NULL DEFAULT 0,
  condition TEXT NOT NULL DEFAULT 'Unknown',
  price REAL NOT NULL DEFAULT 0,
  currency TEXT NOT NULL DEFAULT 'EUR',
  location TEXT NOT NULL DEFAULT '',
  country TEXT NOT NULL DEFAULT '',
  seller_name TEXT NOT NULL DEFAULT '',
  seller_url TEXT NOT NULL DEFAULT '',
  link TEXT NOT NULL,
  image_url TEXT NOT NULL DEFAULT '',
  fingerprint TEXT NOT NULL UNIQUE,
  source_name TEXT NOT NULL,
  source_type TEXT NOT NULL DEFAULT '',
  criterion_id INTEGER NOT NULL DEFAULT 0,
  availability TEXT NOT NULL DEFAULT 'Available',
  discovered_at TEXT NOT NULL,
  last_checked_at TEXT NOT NULL,
  sold_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_listings_availability ON listings(availability);
CREATE INDEX IF NOT EXISTS idx_listings_discovered_at ON listings(discovered_at DESC);`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS run_logs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  started_at TEXT NOT NULL,
  duration_seconds INTEGER NOT NULL DEFAULT 0,
  sources_checked INTEGER NOT NULL DEFAULT 0,
  sources_failed INTEGER NOT NULL DEFAULT 0,
  candidates_found INTEGER NOT NULL DEFAULT 0,
  listings_saved INTEGER NOT NULL DEFAULT 0,
  duplicates_skipped INTEGER NOT NULL DEFAULT 0,
  oracle_errors INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'Success',
  error_message TEXT NOT NULL DEFAULT ''
);`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS availability_logs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  run_at TEXT NOT NULL,
  checked INTEGER NOT NULL DEFAULT 0,
  still_available INTEGER NOT NULL DEFAULT 0,
  marked_sold INTEGER NOT NULL DEFAULT 0,
  errors INTEGER NOT NULL DEFAULT 0
);`); err != nil {
		return err
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}

	return tx.Commit()
}
