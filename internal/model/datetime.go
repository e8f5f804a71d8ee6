package model

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DatetimeLayout is the accepted input layout. Up to six fractional
	// second digits may follow the seconds.
	DatetimeLayout = "2006-01-02 15:04:05"

	// StorageLayout is the normalized layout written to the database.
	StorageLayout = "2006-01-02 15:04:05.000000"

	maxFractionDigits = 6
)

// ErrInvalidDatetime is returned for timestamps that do not match DatetimeLayout.
var ErrInvalidDatetime = errors.New("invalid datetime")

// ParseDatetime parses a caller supplied timestamp.
// Accepts "YYYY-MM-DD HH:MM:SS" optionally followed by '.' and one to six
// digits. The result is in UTC; inputs carry no zone.
func ParseDatetime(s string) (time.Time, error) {
	base := len(DatetimeLayout)
	if len(s) < base {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDatetime, s)
	}
	if len(s) > base {
		frac := s[base:]
		if frac[0] != '.' || len(frac) < 2 || len(frac)-1 > maxFractionDigits {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDatetime, s)
		}
		for _, r := range frac[1:] {
			if r < '0' || r > '9' {
				return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDatetime, s)
			}
		}
	}

	// time.Parse accepts a fractional second after the seconds field even
	// when the layout has none; the checks above bound its shape.
	t, err := time.Parse(DatetimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDatetime, s)
	}
	return t, nil
}

// NormalizeDatetime parses s and formats it in StorageLayout.
func NormalizeDatetime(s string) (string, error) {
	t, err := ParseDatetime(s)
	if err != nil {
		return "", err
	}
	return FormatDatetime(t), nil
}

// FormatDatetime formats t in StorageLayout.
func FormatDatetime(t time.Time) string {
	return t.Format(StorageLayout)
}
