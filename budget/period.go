package budget

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// PERIOD - The display window records are fetched and totalled for
// =============================================================================

// Granularity is the unit a period spans.
type Granularity string

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
)

// Label layouts used for period display strings.
const (
	DayLabelLayout   = "Jan 2, 2006"
	MonthLabelLayout = "January, 2006"
	DateLayout       = "2006-01-02"
)

func (g Granularity) Valid() bool {
	return g == Day || g == Week || g == Month
}

// ParseGranularity accepts day/week/month and the daily/weekly/monthly
// filter names, case-insensitively.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "daily":
		return Day, nil
	case "week", "weekly":
		return Week, nil
	case "month", "monthly":
		return Month, nil
	default:
		return "", &InvalidPeriodError{Input: s, Reason: "granularity must be day, week or month"}
	}
}

// Period is an inclusive range of calendar days.
//
// Start and End are midnight of the first and last day, in the location
// of Reference. Reference is the date the period was resolved from; Step
// advances it so month clamping never accumulates.
type Period struct {
	Granularity Granularity
	Reference   time.Time
	Start       time.Time
	End         time.Time
	Label       string
}

// Resolve returns the period of the given granularity containing reference.
//
//	Day:   start = end = reference's calendar day
//	Week:  Sunday..Saturday around reference
//	Month: first..last calendar day of reference's month
func Resolve(reference time.Time, g Granularity) (Period, error) {
	day := startOfDay(reference)

	var start, end time.Time
	switch g {
	case Day:
		start, end = day, day
	case Week:
		start = day.AddDate(0, 0, -int(day.Weekday()))
		end = start.AddDate(0, 0, 6)
	case Month:
		start = time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		end = time.Date(day.Year(), day.Month(), daysIn(day.Year(), day.Month()), 0, 0, 0, 0, day.Location())
	default:
		return Period{}, &InvalidPeriodError{Input: string(g), Reason: "granularity must be day, week or month"}
	}

	p := Period{Granularity: g, Reference: reference, Start: start, End: end}
	p.Label = p.label()
	return p, nil
}

// ResolveString parses a YYYY-MM-DD date and a granularity name.
func ResolveString(date, granularity string) (Period, error) {
	g, err := ParseGranularity(granularity)
	if err != nil {
		return Period{}, err
	}
	ref, err := ParseDate(date)
	if err != nil {
		return Period{}, err
	}
	return Resolve(ref, g)
}

// MonthPeriod is the month period for a budget plan's (year, month).
func MonthPeriod(year int, month time.Month) (Period, error) {
	ref, err := DateFromParts(year, int(month), 1)
	if err != nil {
		return Period{}, err
	}
	return Resolve(ref, Month)
}

// Step moves the reference date by delta units of the period's granularity
// and resolves again. Month steps clamp to the last day of the target
// month: Jan 31 + 1 month is Feb 29 (leap year), never March.
func Step(p Period, delta int) Period {
	var ref time.Time
	switch p.Granularity {
	case Day:
		ref = p.Reference.AddDate(0, 0, delta)
	case Week:
		ref = p.Reference.AddDate(0, 0, 7*delta)
	case Month:
		ref = AddMonthsClamped(p.Reference, delta)
	default:
		return p
	}
	next, _ := Resolve(ref, p.Granularity)
	return next
}

// Next returns the period following this one.
func (p Period) Next() Period { return Step(p, 1) }

// Previous returns the period before this one.
func (p Period) Previous() Period { return Step(p, -1) }

// EndExclusive is midnight after the last day, for half-open range queries.
func (p Period) EndExclusive() time.Time {
	return p.End.AddDate(0, 0, 1)
}

// Contains returns true if t falls on any day in [Start, End].
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.EndExclusive())
}

// Days returns every day in the period.
func (p Period) Days() []time.Time {
	var days []time.Time
	for d := p.Start; !d.After(p.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Equal compares periods by instant rather than by time.Time representation.
func (p Period) Equal(other Period) bool {
	return p.Granularity == other.Granularity &&
		p.Reference.Equal(other.Reference) &&
		p.Start.Equal(other.Start) &&
		p.End.Equal(other.End) &&
		p.Label == other.Label
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.Format(DateLayout) + ", " + p.End.Format(DateLayout) + "]"
}

func (p Period) label() string {
	switch p.Granularity {
	case Day:
		return p.Start.Format(DayLabelLayout)
	case Week:
		return p.Start.Format(DayLabelLayout) + " - " + p.End.Format(DayLabelLayout)
	case Month:
		return p.Start.Format(MonthLabelLayout)
	default:
		return p.String()
	}
}

// =============================================================================
// DATE UTILITIES
// =============================================================================

// ParseDate parses YYYY-MM-DD (or RFC3339) in local time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(DateLayout, s, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, &InvalidPeriodError{Input: s, Reason: "date must be YYYY-MM-DD"}
}

// DateFromParts builds a local date and rejects values time.Date would
// silently normalize (e.g. Feb 30).
func DateFromParts(year, month, day int) (time.Time, error) {
	input := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, &InvalidPeriodError{Input: input, Reason: "no such calendar date"}
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, &InvalidPeriodError{Input: input, Reason: "no such calendar date"}
	}
	return t, nil
}

// AddMonthsClamped adds n months, keeping the time of day and clamping the
// day-of-month to the target month's length.
func AddMonthsClamped(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	day := t.Day()
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
