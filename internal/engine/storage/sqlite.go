// Package storage persists the business catalog and user signals in SQLite.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("business not found")

const defaultInteractionCap = 200

type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	logger zerolog.Logger
	maxLog int
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithInteractionCap bounds the interaction log; older entries are evicted.
func WithInteractionCap(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxLog = n
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock sets the clock used to timestamp interactions and bookmarks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// connPragmas apply to every pooled connection, so they travel in the DSN.
var connPragmas = []string{
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"synchronous(NORMAL)",
	"cache_size(-64000)",
}

func dsn(dbPath string) string {
	return dbPath + "?_pragma=" + strings.Join(connPragmas, "&_pragma=")
}

func NewStore(dbPath string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	// WAL is persistent in the database file
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{
		db:     db,
		logger: zerolog.Nop(),
		maxLog: defaultInteractionCap,
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS businesses (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT,
		phone TEXT,
		website TEXT,
		category TEXT,
		rating REAL,
		review_count INTEGER NOT NULL DEFAULT 0,
		price_range INTEGER NOT NULL DEFAULT 0,
		opened_date TEXT,
		description TEXT,
		tags TEXT NOT NULL DEFAULT '[]',
		deal_description TEXT,
		deal_expires TEXT,
		has_deal INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS reviews (
		business_id TEXT NOT NULL REFERENCES businesses(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		review_id TEXT,
		user_name TEXT,
		rating REAL,
		text TEXT,
		date TEXT,
		PRIMARY KEY (business_id, seq)
	);
	CREATE TABLE IF NOT EXISTS bookmarks (
		business_id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS view_counts (
		business_id TEXT PRIMARY KEY,
		count INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS interactions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		business_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_businesses_category ON businesses(category);
	CREATE INDEX IF NOT EXISTS idx_interactions_business ON interactions(business_id);
	`
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

func (s *Store) Count() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM businesses").Scan(&count)
	return count, err
}

func (s *Store) Close() error {
	return s.db.Close()
}
