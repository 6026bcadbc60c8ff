package stockfolio

import (
	"fmt"
	"strings"
	"time"
)

const dateOnlyLayout = "2006-01-02"

// Accepted acquisition timestamp layouts, most specific first.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	dateOnlyLayout,
}

// Accepted purchase date layouts for CSV rows. Slash and dash forms try
// month-first before day-first, so ambiguous dates resolve month-first.
var csvDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	dateOnlyLayout,
	"01/02/2006",
	"02/01/2006",
	"01-02-2006",
	"02-01-2006",
}

func parseTimestamp(value string) (time.Time, error) {
	return parseWithLayouts(value, timestampLayouts)
}

func parseCSVDate(value string) (time.Time, error) {
	return parseWithLayouts(value, csvDateLayouts)
}

func parseWithLayouts(value string, layouts []string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

// validDateOnly reports whether value is a strict YYYY-MM-DD calendar date.
// The round trip rejects inputs time.Parse would silently normalize.
func validDateOnly(value string) bool {
	t, err := time.Parse(dateOnlyLayout, value)
	return err == nil && t.Format(dateOnlyLayout) == value
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func dayString(t time.Time) string {
	return t.UTC().Format(dateOnlyLayout)
}
