// Package kpi holds the period windows, safe arithmetic, ranking and seasonality
// primitives shared by every hospital KPI calculator.
package kpi

import (
	"errors"
	"strings"
	"time"
)

// Period selects the calendar window a calculator reports on.
type Period string

// Supported periods.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ErrInvalidPeriod indicates an unsupported period selector.
var ErrInvalidPeriod = errors.New("kpi: invalid period")

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParsePeriod normalises the selector. Blank input defaults to month.
func ParsePeriod(value string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(value))) {
	case "", PeriodMonth:
		return PeriodMonth, nil
	case PeriodDay:
		return PeriodDay, nil
	default:
		return "", ErrInvalidPeriod
	}
}

// ParseDate converts a record date string into an instant in loc. RFC3339 values are
// converted to loc so calendar comparisons use the caller's local day.
func ParseDate(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Window pairs a period with the reference instant it is resolved against.
type Window struct {
	Period Period
	Ref    time.Time
}

// NewWindow builds a Window, defaulting unknown periods to month.
func NewWindow(period Period, ref time.Time) Window {
	if period != PeriodDay {
		period = PeriodMonth
	}
	return Window{Period: period, Ref: ref}
}

// Location returns the reference location used to read record dates.
func (w Window) Location() *time.Location {
	if w.Ref.IsZero() {
		return time.UTC
	}
	return w.Ref.Location()
}

// Contains reports whether t falls in the window.
func (w Window) Contains(t time.Time) bool {
	if w.Period == PeriodDay {
		return IsInDay(t, w.Ref)
	}
	return IsInMonth(t, w.Ref)
}

// ContainsDate parses value and reports whether it falls in the window.
func (w Window) ContainsDate(value string) bool {
	t, ok := ParseDate(value, w.Location())
	if !ok {
		return false
	}
	return w.Contains(t)
}

// Days returns the number of calendar days covered by the window.
func (w Window) Days() int {
	if w.Period == PeriodDay {
		return 1
	}
	return DaysInMonth(w.Ref.Year(), w.Ref.Month())
}

// Parse reads value in the window's location.
func (w Window) Parse(value string) (time.Time, bool) {
	return ParseDate(value, w.Location())
}

// IsInDay compares calendar dates, not elapsed hours.
func IsInDay(t, ref time.Time) bool {
	if t.IsZero() {
		return false
	}
	t = t.In(ref.Location())
	ty, tm, td := t.Date()
	ry, rm, rd := ref.Date()
	return ty == ry && tm == rm && td == rd
}

// IsInMonth compares (year, month) pairs.
func IsInMonth(t, ref time.Time) bool {
	if t.IsZero() {
		return false
	}
	t = t.In(ref.Location())
	return t.Year() == ref.Year() && t.Month() == ref.Month()
}

// IsInTrailingDays reports whether t is within the n calendar days ending on ref.
func IsInTrailingDays(t, ref time.Time, days int) bool {
	if t.IsZero() || days <= 0 {
		return false
	}
	diff := dayNumber(ref) - dayNumber(t.In(ref.Location()))
	return diff >= 0 && diff < days
}

// IsInTrailingMonths reports whether t is within the n calendar months ending on ref's month.
func IsInTrailingMonths(t, ref time.Time, months int) bool {
	if t.IsZero() || months <= 0 {
		return false
	}
	diff := monthIndex(ref) - monthIndex(t.In(ref.Location()))
	return diff >= 0 && diff < months
}

// TrailingStart returns the first (year, month) of an n-month window ending at ref.
func TrailingStart(ref time.Time, months int) (int, time.Month) {
	if months <= 0 {
		months = 1
	}
	year := ref.Year()
	month := int(ref.Month()) - (months - 1)
	for month < 1 {
		month += 12
		year--
	}
	return year, time.Month(month)
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthKey formats t as YYYY-MM.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// DayKey formats t as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// DaysBetween counts whole calendar days from a to b, ignoring clock time.
func DaysBetween(a, b time.Time) int {
	return dayNumber(b.In(a.Location())) - dayNumber(a)
}

// Filter keeps records whose date satisfies keep. The input slice is never modified.
func Filter[T any](records []T, date func(T) string, keep func(time.Time) bool, loc *time.Location) []T {
	out := make([]T, 0, len(records))
	for _, record := range records {
		t, ok := ParseDate(date(record), loc)
		if !ok || !keep(t) {
			continue
		}
		out = append(out, record)
	}
	return out
}

// InWindow filters records to the window using their date accessor.
func InWindow[T any](records []T, date func(T) string, w Window) []T {
	return Filter(records, date, w.Contains, w.Location())
}

// Dates parses every record date that can be read, dropping the rest.
func Dates[T any](records []T, date func(T) string, loc *time.Location) []time.Time {
	out := make([]time.Time, 0, len(records))
	for _, record := range records {
		if t, ok := ParseDate(date(record), loc); ok {
			out = append(out, t)
		}
	}
	return out
}

func dayNumber(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}
