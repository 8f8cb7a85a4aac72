package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rendis/locallink/internal/model"
)

var csvHeader = []string{
	"id", "name", "category", "rating", "review_count", "price_range",
	"address", "phone", "website", "opened_date", "tags",
	"deal", "deal_expires", "bookmarked", "description",
}

// WriteCSV writes one row per business after a header row.
func WriteCSV(w io.Writer, businesses []model.Business) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, b := range businesses {
		rating := ""
		if b.Rating != nil {
			rating = strconv.FormatFloat(*b.Rating, 'f', 1, 64)
		}
		var deal, expires string
		if b.Deal != nil {
			deal, expires = b.Deal.Description, b.Deal.Expires
		}
		row := []string{
			b.ID,
			b.Name,
			b.Category,
			rating,
			strconv.Itoa(b.ReviewCount),
			strings.Repeat("$", b.PriceRange),
			b.Address,
			b.Phone,
			b.Website,
			b.OpenedDate,
			strings.Join(b.Tags, "; "),
			deal,
			expires,
			strconv.FormatBool(b.Bookmarked),
			b.Description,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing %s: %w", b.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
