package ledger

import (
	"fmt"
	"time"
)

// MonthKey identifies a calendar month, the unit a ledger is evaluated against.
type MonthKey struct {
	Year  int
	Month time.Month
}

// NewMonthKey returns the month key for year and month, normalizing
// out-of-range months (month 13 of 2024 is January 2025).
func NewMonthKey(year int, month time.Month) MonthKey {
	return MonthOf(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
}

// MonthOf returns the month containing t. The calendar fields of t are used
// as-is; no timezone conversion is applied.
func MonthOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses "2006-01" or a full "2006-01-02" date. The day component
// of a full date is ignored, so "2024-03-01" and "2024-03" are the same month.
func ParseMonth(s string) (MonthKey, error) {
	for _, layout := range []string{"2006-01", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return MonthOf(t), nil
		}
	}
	return MonthKey{}, fmt.Errorf("invalid month %q: want YYYY-MM or YYYY-MM-DD", s)
}

// String formats the month as "2006-01".
func (m MonthKey) String() string {
	if m.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// IsZero reports whether m is the zero MonthKey.
func (m MonthKey) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// Contains reports whether the calendar date t falls within m.
func (m MonthKey) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Month
}

// AddMonths returns the month n months after m (n may be negative).
func (m MonthKey) AddMonths(n int) MonthKey {
	return NewMonthKey(m.Year, m.Month+time.Month(n))
}

// Next returns the following month.
func (m MonthKey) Next() MonthKey { return m.AddMonths(1) }

// Prev returns the preceding month.
func (m MonthKey) Prev() MonthKey { return m.AddMonths(-1) }

// Before reports whether m is earlier than other.
func (m MonthKey) Before(other MonthKey) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

// Start returns the first day of the month (UTC midnight).
func (m MonthKey) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of the month (UTC midnight).
func (m MonthKey) End() time.Time {
	return m.Next().Start().AddDate(0, 0, -1)
}

// MarshalText implements encoding.TextMarshaler.
func (m MonthKey) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty text yields the
// zero MonthKey.
func (m *MonthKey) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*m = MonthKey{}
		return nil
	}
	parsed, err := ParseMonth(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
