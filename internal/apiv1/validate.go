package apiv1

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// ValidateDate checks that date is a calendar day in DateLayout. Dates are
// used as storage keys, so anything else is rejected.
func ValidateDate(date string) error {
	if date == "" {
		return fmt.Errorf("date is required")
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("date %q must be formatted as YYYY-MM-DD", date)
	}
	return nil
}

func ValidTranslationStatus(status string) bool {
	switch status {
	case TranslationDraft, TranslationCompleted, TranslationApproved:
		return true
	}
	return false
}

// TranslationDone reports whether a translation status counts as finished.
func TranslationDone(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case TranslationCompleted, TranslationApproved:
		return true
	}
	return false
}

// NormalizeStatus maps the accepted status spellings onto the persisted
// values. ok is false for anything unrecognised.
func NormalizeStatus(status string) (string, bool) {
	switch status {
	case StatusPending, StatusActive, StatusCompleted:
		return status, true
	case "in_progress":
		return StatusActive, true
	}
	return "", false
}
