package academic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSemesterEveryMonth(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	for m := time.January; m <= time.December; m++ {
		date := time.Date(2024, m, 15, 10, 0, 0, 0, loc)
		p := ResolveSemester(date)

		want := SemesterSecond
		if m >= time.July {
			want = SemesterFirst
		}
		assert.Equal(t, want, p.Semester, "month %s", m)
		assert.Equal(t, "2024", p.AcademicYear)
		assert.True(t, SemesterDateRange(date).Contains(date), "month %s", m)
	}
}

func TestSemesterDateRangeRoundTrip(t *testing.T) {
	dates := []time.Time{
		time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.June, 30, 23, 59, 59, 999999999, time.UTC),
		time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.December, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2023, time.February, 28, 12, 0, 0, 0, time.UTC),
	}

	for _, d := range dates {
		want := ResolveSemester(d)
		r := SemesterDateRange(d)

		assert.Equal(t, r, SemesterDateRange(r.Start), d.String())
		assert.Equal(t, want, ResolveSemester(r.Start), d.String())
		assert.Equal(t, want, ResolveSemester(r.End.Add(-time.Nanosecond)), d.String())
		assert.NotEqual(t, want.Semester, ResolveSemester(r.End).Semester, d.String())
	}
}

func TestSemesterDateRangeBoundaries(t *testing.T) {
	first := SemesterDateRange(time.Date(2024, time.September, 5, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC), first.Start)
	assert.Equal(t, time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC), first.LastDay())

	second := SemesterDateRange(time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), second.Start)
	assert.Equal(t, time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC), second.LastDay())
}

func TestPeriodRange(t *testing.T) {
	r, ok := PeriodRange(Period{Semester: SemesterFirst, AcademicYear: "2025"}, time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), r.Start)

	_, ok = PeriodRange(Period{Semester: "THIRD", AcademicYear: "2025"}, time.UTC)
	assert.False(t, ok)
	_, ok = PeriodRange(Period{Semester: SemesterFirst, AcademicYear: "next"}, time.UTC)
	assert.False(t, ok)
}

func TestDayBounds(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	day := DayBounds(time.Date(2024, time.March, 10, 15, 30, 0, 0, loc))
	lastMoment := time.Date(2024, time.March, 10, 23, 59, 59, 0, loc)
	nextDay := time.Date(2024, time.March, 11, 0, 0, 0, 1000000, loc)

	assert.True(t, day.Contains(lastMoment))
	assert.False(t, day.Contains(nextDay))
	assert.Equal(t, 24*time.Hour, day.End.Sub(day.Start))
}
