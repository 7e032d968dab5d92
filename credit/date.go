package credit

import (
	"time"
)

// =============================================================================
// DUE DATE - Date-only time abstraction
// =============================================================================
// All schedule dates are date-only. Any timestamp component is normalized
// to UTC midnight so day boundaries never drift across time zones, and the
// persisted form is always "YYYY-MM-DD".

type DueDate struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) DueDate {
	return DueDate{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DateOf(t time.Time) DueDate {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() DueDate {
	return DateOf(time.Now())
}

// ParseDate parses the persisted "YYYY-MM-DD" form.
func ParseDate(s string) (DueDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return DueDate{}, err
	}
	return DateOf(t), nil
}

// Comparison
func (d DueDate) Before(other DueDate) bool        { return d.normalize().Before(other.normalize()) }
func (d DueDate) After(other DueDate) bool         { return d.normalize().After(other.normalize()) }
func (d DueDate) Equal(other DueDate) bool         { return d.normalize().Equal(other.normalize()) }
func (d DueDate) BeforeOrEqual(other DueDate) bool { return d.Before(other) || d.Equal(other) }
func (d DueDate) AfterOrEqual(other DueDate) bool  { return d.After(other) || d.Equal(other) }

func (d DueDate) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d DueDate) AddDays(n int) DueDate   { return DueDate{Time: d.normalize().AddDate(0, 0, n)} }
func (d DueDate) AddMonths(n int) DueDate { return DueDate{Time: d.normalize().AddDate(0, n, 0)} }

// Properties
func (d DueDate) Year() int             { return d.Time.Year() }
func (d DueDate) Month() time.Month     { return d.Time.Month() }
func (d DueDate) Day() int              { return d.Time.Day() }
func (d DueDate) Weekday() time.Weekday { return d.normalize().Weekday() }
func (d DueDate) IsZero() bool          { return d.Time.IsZero() }

func (d DueDate) String() string { return d.normalize().Format("2006-01-02") }

// DaysBetween returns the signed day count from one date to another.
func DaysBetween(from, to DueDate) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

// withDay pins a date to a specific day of the same month.
func withDay(d DueDate, day int) DueDate {
	return NewDate(d.Year(), d.Month(), day)
}

// firstOfNextMonth returns day 1 of the month after d.
func firstOfNextMonth(d DueDate) DueDate {
	return NewDate(d.Year(), d.Month(), 1).AddMonths(1)
}
