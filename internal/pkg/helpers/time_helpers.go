package helpers

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DisplayDateLayout is the DD-MM-YYYY form used at every user boundary.
	DisplayDateLayout = "02-01-2006"
	// StoredDateLayout is the YYYY-MM-DD form persisted in the store.
	StoredDateLayout = "2006-01-02"

	// accepts single digit day and month as well
	displayParseLayout = "2-1-2006"
)

// ParseDisplayDate converts DD-MM-YYYY into the stored YYYY-MM-DD form.
func ParseDisplayDate(s string) (string, error) {
	t, err := time.Parse(displayParseLayout, strings.TrimSpace(s))
	if err != nil {
		return "", err
	}
	return t.Format(StoredDateLayout), nil
}

// FormatDisplayDate converts a stored date back to DD-MM-YYYY.
// Values that do not parse are returned untouched.
func FormatDisplayDate(stored string) string {
	t, err := time.Parse(StoredDateLayout, stored)
	if err != nil {
		return stored
	}
	return t.Format(DisplayDateLayout)
}

// FormatOptionalDisplayDate is FormatDisplayDate for nullable columns.
func FormatOptionalDisplayDate(stored *string) string {
	if stored == nil {
		return ""
	}
	return FormatDisplayDate(*stored)
}

// CompactDate turns a stored date into YYYYMMDD for file names.
func CompactDate(stored string) string {
	return strings.ReplaceAll(stored, "-", "")
}

// ParseDuration parses a duration string and falls back to def on error.
func ParseDuration(durationStr string, def time.Duration) time.Duration {
	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		log.Warn().Err(err).Str("duration", durationStr).Dur("default", def).Msg("Unparsable duration, using default")
		return def
	}
	return duration
}
