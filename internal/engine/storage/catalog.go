package storage

import (
	"database/sql"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/rendis/locallink/internal/model"
)

// InsertBatch upserts businesses and replaces their reviews. It returns the
// number of records written.
func (s *Store) InsertBatch(businesses []model.Business) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning tx: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO businesses
		(id, name, address, phone, website, category, rating, review_count,
		 price_range, opened_date, description, tags,
		 deal_description, deal_expires, has_deal)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, address=excluded.address, phone=excluded.phone,
			website=excluded.website, category=excluded.category,
			rating=excluded.rating, review_count=excluded.review_count,
			price_range=excluded.price_range, opened_date=excluded.opened_date,
			description=excluded.description, tags=excluded.tags,
			deal_description=excluded.deal_description,
			deal_expires=excluded.deal_expires, has_deal=excluded.has_deal
	`)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("preparing stmt: %w", err)
	}
	defer stmt.Close()

	delReviews, err := tx.Prepare(`DELETE FROM reviews WHERE business_id = ?`)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("preparing stmt: %w", err)
	}
	defer delReviews.Close()

	insReview, err := tx.Prepare(`
		INSERT INTO reviews (business_id, seq, review_id, user_name, rating, text, date)
		VALUES (?,?,?,?,?,?,?)
	`)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("preparing stmt: %w", err)
	}
	defer insReview.Close()

	written := 0
	for _, b := range businesses {
		if b.ID == "" {
			continue
		}
		tags, err := json.Marshal(nonNilTags(b.Tags))
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("encoding tags for %s: %w", b.ID, err)
		}
		var dealDesc, dealExp string
		if b.Deal != nil {
			dealDesc, dealExp = b.Deal.Description, b.Deal.Expires
		}
		if _, err := stmt.Exec(
			b.ID, b.Name, b.Address, b.Phone, b.Website, b.Category,
			nullFloat(b.Rating), b.ReviewCount, b.PriceRange, b.OpenedDate, b.Description,
			string(tags), dealDesc, dealExp, b.Deal != nil,
		); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("inserting %s: %w", b.ID, err)
		}
		if _, err := delReviews.Exec(b.ID); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("clearing reviews for %s: %w", b.ID, err)
		}
		for i, r := range b.Reviews {
			if _, err := insReview.Exec(b.ID, i, r.ID, r.UserName, nullFloat(r.Rating), r.Text, r.Date); err != nil {
				tx.Rollback()
				return 0, fmt.Errorf("inserting review for %s: %w", b.ID, err)
			}
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing tx: %w", err)
	}

	s.logger.Debug().Int("written", written).Msg("catalog batch stored")
	return written, nil
}

// LoadCatalog returns every stored business in id order, with reviews
// attached and the Bookmarked projection set.
func (s *Store) LoadCatalog() ([]model.Business, error) {
	rows, err := s.db.Query(`
		SELECT b.id, b.name, b.address, b.phone, b.website, b.category, b.rating,
		       b.review_count, b.price_range, b.opened_date, b.description, b.tags,
		       b.deal_description, b.deal_expires, b.has_deal,
		       bm.business_id IS NOT NULL
		FROM businesses b
		LEFT JOIN bookmarks bm ON bm.business_id = b.id
		ORDER BY b.id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying businesses: %w", err)
	}
	defer rows.Close()

	var out []model.Business
	index := make(map[string]int)
	for rows.Next() {
		var (
			b                 model.Business
			address, phone    sql.NullString
			website, category sql.NullString
			opened, desc      sql.NullString
			dealDesc, dealExp sql.NullString
			rating            sql.NullFloat64
			tags              string
			hasDeal           bool
		)
		if err := rows.Scan(
			&b.ID, &b.Name, &address, &phone, &website, &category, &rating,
			&b.ReviewCount, &b.PriceRange, &opened, &desc, &tags,
			&dealDesc, &dealExp, &hasDeal, &b.Bookmarked,
		); err != nil {
			return nil, fmt.Errorf("scanning business: %w", err)
		}
		b.Address, b.Phone, b.Website = address.String, phone.String, website.String
		b.Category, b.OpenedDate, b.Description = category.String, opened.String, desc.String
		if rating.Valid {
			b.Rating = model.Float(rating.Float64)
		}
		if err := json.Unmarshal([]byte(tags), &b.Tags); err != nil {
			return nil, fmt.Errorf("decoding tags for %s: %w", b.ID, err)
		}
		if hasDeal {
			b.Deal = &model.Deal{Description: dealDesc.String, Expires: dealExp.String}
		}
		index[b.ID] = len(out)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating businesses: %w", err)
	}

	if err := s.attachReviews(out, index); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) attachReviews(businesses []model.Business, index map[string]int) error {
	rows, err := s.db.Query(`
		SELECT business_id, review_id, user_name, rating, text, date
		FROM reviews
		ORDER BY business_id, seq
	`)
	if err != nil {
		return fmt.Errorf("querying reviews: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			businessID           string
			id, user, text, date sql.NullString
			rating               sql.NullFloat64
		)
		if err := rows.Scan(&businessID, &id, &user, &rating, &text, &date); err != nil {
			return fmt.Errorf("scanning review: %w", err)
		}
		i, ok := index[businessID]
		if !ok {
			continue
		}
		r := model.Review{ID: id.String, UserName: user.String, Text: text.String, Date: date.String}
		if rating.Valid {
			r.Rating = model.Float(rating.Float64)
		}
		businesses[i].Reviews = append(businesses[i].Reviews, r)
	}
	return rows.Err()
}

func (s *Store) exists(id string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM businesses WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("looking up %s: %w", id, err)
	}
	return n > 0, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
