package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rendis/locallink/internal/model"
)

// SetBookmark adds or removes id from the bookmark set. Adding also appends a
// bookmark interaction.
func (s *Store) SetBookmark(id string, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.exists(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bookmarking %s: %w", id, ErrNotFound)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	if on {
		_, err = tx.Exec(`INSERT OR IGNORE INTO bookmarks (business_id, created_at) VALUES (?, ?)`, id, s.now().UTC())
		if err == nil {
			err = s.appendInteraction(tx, id, model.KindBookmark)
		}
	} else {
		_, err = tx.Exec(`DELETE FROM bookmarks WHERE business_id = ?`, id)
	}
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("updating bookmark %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing tx: %w", err)
	}
	return nil
}

func (s *Store) BookmarkedIDs() (map[string]bool, error) {
	rows, err := s.db.Query(`SELECT business_id FROM bookmarks`)
	if err != nil {
		return nil, fmt.Errorf("querying bookmarks: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning bookmark: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// RecordView increments the view counter for id and appends a view
// interaction.
func (s *Store) RecordView(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.exists(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("recording view of %s: %w", id, ErrNotFound)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	_, err = tx.Exec(`
		INSERT INTO view_counts (business_id, count) VALUES (?, 1)
		ON CONFLICT(business_id) DO UPDATE SET count = count + 1
	`, id)
	if err == nil {
		err = s.appendInteraction(tx, id, model.KindView)
	}
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("recording view of %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing tx: %w", err)
	}
	return nil
}

// ViewCount returns 0 for ids never viewed.
func (s *Store) ViewCount(id string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT count FROM view_counts WHERE business_id = ?`, id).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying view count: %w", err)
	}
	return n, nil
}

// RecordInteraction appends an entry to the bounded interaction log.
func (s *Store) RecordInteraction(id, kind string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	if err := s.appendInteraction(tx, id, kind); err != nil {
		tx.Rollback()
		return fmt.Errorf("recording %s interaction: %w", kind, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing tx: %w", err)
	}
	return nil
}

// Interactions returns the log oldest first.
func (s *Store) Interactions() ([]model.Interaction, error) {
	rows, err := s.db.Query(`SELECT id, business_id, kind, created_at FROM interactions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying interactions: %w", err)
	}
	defer rows.Close()

	var out []model.Interaction
	for rows.Next() {
		var (
			in    model.Interaction
			nanos int64
		)
		if err := rows.Scan(&in.ID, &in.BusinessID, &in.Kind, &nanos); err != nil {
			return nil, fmt.Errorf("scanning interaction: %w", err)
		}
		in.Timestamp = time.Unix(0, nanos).UTC()
		out = append(out, in)
	}
	return out, rows.Err()
}

// appendInteraction must be called with s.mu held.
func (s *Store) appendInteraction(tx *sql.Tx, id, kind string) error {
	if _, err := tx.Exec(
		`INSERT INTO interactions (id, business_id, kind, created_at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), id, kind, s.now().UnixNano(),
	); err != nil {
		return err
	}
	_, err := tx.Exec(`
		DELETE FROM interactions WHERE seq NOT IN (
			SELECT seq FROM interactions ORDER BY seq DESC LIMIT ?
		)
	`, s.maxLog)
	return err
}

// SignalReader exposes the store through the scorer's read accessors.
// Failures are logged and reported as empty signals.
type SignalReader struct {
	store  *Store
	logger zerolog.Logger
}

func (s *Store) Signals() *SignalReader {
	return &SignalReader{store: s, logger: s.logger}
}

func (r *SignalReader) BookmarkedIDs() map[string]bool {
	ids, err := r.store.BookmarkedIDs()
	if err != nil {
		r.logger.Warn().Err(err).Msg("reading bookmarks")
		return map[string]bool{}
	}
	return ids
}

func (r *SignalReader) ViewCount(id string) int {
	n, err := r.store.ViewCount(id)
	if err != nil {
		r.logger.Warn().Err(err).Str("business_id", id).Msg("reading view count")
		return 0
	}
	return n
}

func (r *SignalReader) InteractionLog() []model.Interaction {
	log, err := r.store.Interactions()
	if err != nil {
		r.logger.Warn().Err(err).Msg("reading interaction log")
		return nil
	}
	return log
}

// Record matches recommend.Recorder.
func (r *SignalReader) Record(id, kind string) {
	if err := r.store.RecordInteraction(id, kind); err != nil {
		r.logger.Warn().Err(err).Str("business_id", id).Str("kind", kind).Msg("recording interaction")
	}
}
