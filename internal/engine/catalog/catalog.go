// Package catalog loads business listings and searches them.
package catalog

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/goccy/go-json"

	"github.com/rendis/locallink/internal/model"
)

//go:embed sample_listings.json
var sampleFS embed.FS

// Sample returns the bundled demo listings.
func Sample() ([]model.Business, error) {
	data, err := sampleFS.ReadFile("sample_listings.json")
	if err != nil {
		return nil, fmt.Errorf("reading embedded listings: %w", err)
	}
	businesses, _, err := Load(bytes.NewReader(data))
	return businesses, err
}

// Issue is a listing, or one field of a listing, that could not be decoded.
// Field is empty when the whole entry was skipped.
type Issue struct {
	Index int
	ID    string
	Field string
	Err   error
}

func (i Issue) String() string {
	if i.Field == "" {
		return fmt.Sprintf("entry %d skipped: %v", i.Index, i.Err)
	}
	return fmt.Sprintf("entry %d (%s): field %q reset: %v", i.Index, i.ID, i.Field, i.Err)
}

// LoadFile reads a JSON array of listings from path.
func LoadFile(path string) ([]model.Business, []Issue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a JSON array of listings. Records without an id are skipped
// and the first record wins when ids repeat. A field with the wrong type is
// reset to its zero value and reported as an Issue, and out-of-range
// optional fields are reset to "absent". Only a document that is not a JSON
// array is an error.
func Load(r io.Reader) ([]model.Business, []Issue, error) {
	var entries []json.RawMessage
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, nil, fmt.Errorf("parsing catalog: %w", err)
	}

	var issues []Issue
	seen := make(map[string]bool, len(entries))
	out := make([]model.Business, 0, len(entries))
	for i, entry := range entries {
		b, entryIssues, err := decodeEntry(entry)
		if err != nil {
			issues = append(issues, Issue{Index: i, Err: err})
			continue
		}
		b.ID = strings.TrimSpace(b.ID)
		for _, is := range entryIssues {
			is.Index, is.ID = i, b.ID
			issues = append(issues, is)
		}
		if b.ID == "" || seen[b.ID] {
			continue
		}
		seen[b.ID] = true
		out = append(out, sanitize(b))
	}
	return out, issues, nil
}

// decodeEntry decodes one listing. When the entry as a whole does not fit
// model.Business it is decoded field by field, keeping every field that
// does.
func decodeEntry(entry json.RawMessage) (model.Business, []Issue, error) {
	var b model.Business
	if err := json.Unmarshal(entry, &b); err == nil {
		return b, nil, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(entry, &fields); err != nil {
		return model.Business{}, nil, fmt.Errorf("listing is not an object: %w", err)
	}

	b = model.Business{}
	var issues []Issue
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		single, err := json.Marshal(map[string]json.RawMessage{key: fields[key]})
		if err != nil {
			issues = append(issues, Issue{Field: key, Err: err})
			continue
		}
		next := b
		if err := json.Unmarshal(single, &next); err != nil {
			issues = append(issues, Issue{Field: key, Err: err})
			continue
		}
		b = next
	}
	return b, issues, nil
}

func sanitize(b model.Business) model.Business {
	if b.Rating != nil && (*b.Rating < 0 || *b.Rating > 5) {
		b.Rating = nil
	}
	if !b.HasPriceRange() {
		b.PriceRange = 0
	}
	if b.ReviewCount < 0 {
		b.ReviewCount = 0
	}
	for i, rv := range b.Reviews {
		if rv.Rating != nil && (*rv.Rating < 0 || *rv.Rating > 5) {
			b.Reviews[i].Rating = nil
		}
	}
	b.Bookmarked = false
	return b
}

// Find returns the business with the given id.
func Find(businesses []model.Business, id string) (model.Business, bool) {
	for _, b := range businesses {
		if b.ID == id {
			return b, true
		}
	}
	return model.Business{}, false
}

// ApplyBookmarks returns a copy of businesses with the Bookmarked flag set
// from ids.
func ApplyBookmarks(businesses []model.Business, ids map[string]bool) []model.Business {
	out := make([]model.Business, len(businesses))
	for i, b := range businesses {
		b.Bookmarked = ids[b.ID]
		out[i] = b
	}
	return out
}

// Bookmarked returns the businesses whose Bookmarked flag is set.
func Bookmarked(businesses []model.Business) []model.Business {
	var out []model.Business
	for _, b := range businesses {
		if b.Bookmarked {
			out = append(out, b)
		}
	}
	return out
}
