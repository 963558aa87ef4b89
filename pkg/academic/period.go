// Package academic maps calendar dates to school periods.
//
// All functions are total and evaluate the date in its own location, so callers convert to the
// school time zone first.
package academic

import (
	"strconv"
	"time"
)

// Semester labels one half of an academic year.
type Semester string

const (
	SemesterFirst  Semester = "FIRST"
	SemesterSecond Semester = "SECOND"
)

// Valid reports whether s is a known semester label.
func (s Semester) Valid() bool {
	return s == SemesterFirst || s == SemesterSecond
}

// Period identifies the bucket key derived from a date.
type Period struct {
	Semester     Semester `json:"semester"`
	AcademicYear string   `json:"academicYear"`
}

// DateRange is a half-open interval [Start, End).
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// LastDay returns midnight of the final calendar day covered by the range.
func (r DateRange) LastDay() time.Time {
	return r.End.AddDate(0, 0, -1)
}

// ResolveSemester classifies t: July through December is FIRST, January through June is SECOND.
// The academic year is the calendar year of t.
func ResolveSemester(t time.Time) Period {
	semester := SemesterSecond
	if t.Month() >= time.July {
		semester = SemesterFirst
	}
	return Period{Semester: semester, AcademicYear: strconv.Itoa(t.Year())}
}

// SemesterDateRange returns the semester containing t: Jul 1 to Dec 31 for FIRST and Jan 1 to
// Jun 30 for SECOND, both of t's calendar year.
func SemesterDateRange(t time.Time) DateRange {
	loc := t.Location()
	year := t.Year()
	if ResolveSemester(t).Semester == SemesterFirst {
		return DateRange{
			Start: time.Date(year, time.July, 1, 0, 0, 0, 0, loc),
			End:   time.Date(year+1, time.January, 1, 0, 0, 0, 0, loc),
		}
	}
	return DateRange{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, loc),
		End:   time.Date(year, time.July, 1, 0, 0, 0, 0, loc),
	}
}

// PeriodRange returns the date range of an explicit period.
func PeriodRange(p Period, loc *time.Location) (DateRange, bool) {
	year, err := strconv.Atoi(p.AcademicYear)
	if err != nil || !p.Semester.Valid() {
		return DateRange{}, false
	}
	month := time.January
	if p.Semester == SemesterFirst {
		month = time.July
	}
	return SemesterDateRange(time.Date(year, month, 1, 0, 0, 0, 0, loc)), true
}

// DayBounds returns the local calendar day containing t, from midnight up to the next midnight.
func DayBounds(t time.Time) DateRange {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return DateRange{Start: start, End: start.AddDate(0, 0, 1)}
}
