package domain

import (
	"fmt"
	"time"
)

// DateRange is an inclusive calendar-day range. Both bounds are UTC
// midnights; time-of-day is never significant.
type DateRange struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required"`
}

// NewDateRange builds a range from calendar dates, truncating any
// time-of-day component to UTC midnight.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{
		Start: TruncateToDay(start),
		End:   TruncateToDay(end),
	}
	if r.End.Before(r.Start) {
		return DateRange{}, fmt.Errorf("invalid date range: end %s before start %s",
			r.End.Format("2006-01-02"), r.Start.Format("2006-01-02"))
	}
	return r, nil
}

// StartMillis returns the inclusive lower bound as epoch milliseconds,
// the unit the log provider expects for report queries.
func (r DateRange) StartMillis() int64 {
	return r.Start.UnixMilli()
}

// EndMillis returns the exclusive upper bound (midnight after End) as
// epoch milliseconds so reports started any time on End are included.
func (r DateRange) EndMillis() int64 {
	return r.End.Add(24 * time.Hour).UnixMilli()
}

// Contains reports whether the given calendar day falls inside the range.
func (r DateRange) Contains(day time.Time) bool {
	d := TruncateToDay(day)
	return !d.Before(r.Start) && !d.After(r.End)
}

// TruncateToDay drops the time-of-day component, keeping the UTC calendar
// date. Provider start timestamps are bucketed with this.
func TruncateToDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ReportCandidate is one report returned by the provider for the guild,
// annotated with its boss-scoped death count. Candidates only live for
// the duration of per-day selection.
type ReportCandidate struct {
	Code       string    `json:"code" validate:"required"`
	Title      string    `json:"title,omitempty"`
	StartTime  time.Time `json:"start_time"`
	Date       time.Time `json:"date"`
	DeathCount int       `json:"death_count"`
}

// SelectedReport is the single report kept for one calendar day: the
// candidate with the highest death count for the targeted boss.
type SelectedReport struct {
	Code       string    `json:"code"`
	Title      string    `json:"title,omitempty"`
	StartTime  time.Time `json:"start_time"`
	Date       time.Time `json:"date"`
	DeathCount int       `json:"death_count"`
}

// Selected converts a winning candidate into a SelectedReport.
func (c ReportCandidate) Selected() SelectedReport {
	return SelectedReport{
		Code:       c.Code,
		Title:      c.Title,
		StartTime:  c.StartTime,
		Date:       c.Date,
		DeathCount: c.DeathCount,
	}
}

// DateString renders the report's calendar day in ISO form, the format
// used for table column headers.
func (s SelectedReport) DateString() string {
	return s.Date.Format("2006-01-02")
}
