package parsing

import (
	"strings"

	"github.com/araddon/dateparse"
)

// NormalizeReleaseDate parses whatever date format a site reports and
// returns it as yyyy-mm-dd. The input is returned unchanged when it
// cannot be parsed.
func NormalizeReleaseDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return raw
	}
	return t.Format("2006-01-02")
}
