package model

import (
	"fmt"
	"time"
)

// Item represents a stock-keeping unit (a product type, not a physical
// unit). Prices are stored in currency minor units to avoid floating
// point errors.
type Item struct {
	Barcode           string `json:"barcode"`
	Name              string `json:"name"`
	UnitPriceCents    int    `json:"unitPriceCents"`
	ExpiresOn         *Date  `json:"expiresOn"`
	ExpiryWarningDays *int   `json:"expiryWarningDays"`
}

// ExpiringSoon reports whether the item is expired or within its
// warning window relative to today. Items without an expiry date never
// expire; without a warning threshold only the expiry date itself counts.
func (i Item) ExpiringSoon(today time.Time) bool {
	if i.ExpiresOn == nil {
		return false
	}
	warn := 0
	if i.ExpiryWarningDays != nil {
		warn = *i.ExpiryWarningDays
	}
	threshold := i.ExpiresOn.Time().AddDate(0, 0, -warn)
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(threshold)
}

// Date is a calendar date (day granularity, no time component).
// It marshals to and from YYYY-MM-DD.
type Date struct {
	year  int
	month time.Month
	day   int
}

// DateFormat is the wire format for dates.
const DateFormat = "2006-01-02"

// NewDate creates a date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{year: year, month: month, day: day}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return Date{year: t.Year(), month: t.Month(), day: t.Day()}, nil
}

// Time returns the date as a UTC midnight time.Time.
func (d Date) Time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return d.Time().Format(DateFormat)
}

// MarshalJSON encodes the date as a "YYYY-MM-DD" JSON string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a "YYYY-MM-DD" JSON string.
func (d *Date) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("date must be a JSON string, got %s", data)
	}
	parsed, err := ParseDate(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
