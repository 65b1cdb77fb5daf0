package dto

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"
)

const dateLayout = "2006-01-02"

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	d, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a YYYY-MM-DD date", field)
	}
	return d, nil
}

// checkText rejects control characters and values longer than limit bytes.
// Names end up in mail subjects.
func checkText(field, value string, limit int) error {
	if len(value) > limit {
		return fmt.Errorf("%s must be at most %d characters", field, limit)
	}
	if strings.IndexFunc(value, unicode.IsControl) >= 0 {
		return fmt.Errorf("%s must not contain control characters", field)
	}
	return nil
}
