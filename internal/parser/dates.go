package parser

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

var log = zap.NewNop()

// SetLogger routes parser diagnostics (skipped records, date failures) to l.
func SetLogger(l *zap.Logger) {
	log = l
}

// monthlyModes holds the accepted spellings of the monthly payment frequency.
var monthlyModes = map[string]bool{
	"m":            true,
	"mly":          true,
	"monthly":      true,
	"month":        true,
	"monthly mode": true,
}

// FormatDate converts an 8-digit numeric date to DD/MM/YYYY display form.
// Registers normally emit YYYYMMDD, but some exports carry day-first digits;
// whichever reading is a real calendar date wins, year-first checked first.
// Anything else (already formatted, malformed, empty) is returned unchanged.
func FormatDate(raw string) string {
	if len(raw) != 8 || !allDigits(raw) {
		return raw
	}
	if t, err := time.Parse("20060102", raw); err == nil {
		return t.Format("02/01/2006")
	}
	if t, err := time.Parse("02012006", raw); err == nil {
		return t.Format("02/01/2006")
	}
	return raw
}

// ENachDay maps a completion date onto its scheduled monthly debit-day bucket.
// Only monthly-mode policies get a debit day; every other mode yields "".
func ENachDay(doc, mode string) string {
	if doc == "" || !monthlyModes[strings.ToLower(strings.TrimSpace(mode))] {
		return ""
	}
	t, err := time.Parse("02/01/2006", doc)
	if err != nil {
		log.Warn("unparseable DOC for ENACH derivation",
			zap.String("doc", doc),
			zap.String("mode", mode),
			zap.Error(err))
		return ""
	}
	switch day := t.Day(); {
	case day <= 7:
		return "7"
	case day <= 15:
		return "15"
	case day <= 22:
		return "22"
	default:
		return "28"
	}
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
