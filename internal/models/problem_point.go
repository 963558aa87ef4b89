package models

import "time"

// ProblemCategory enumerates disciplinary categories.
type ProblemCategory string

const (
	ProblemLate       ProblemCategory = "LATE"
	ProblemUniform    ProblemCategory = "UNIFORM"
	ProblemAbsent     ProblemCategory = "ABSENT"
	ProblemBullying   ProblemCategory = "BULLYING"
	ProblemCheating   ProblemCategory = "CHEATING"
	ProblemDisruption ProblemCategory = "DISRUPTION"
	ProblemOther      ProblemCategory = "OTHER"
)

// SinglePerDayCategories may be recorded at most once per student per day.
var SinglePerDayCategories = map[ProblemCategory]struct{}{
	ProblemLate:    {},
	ProblemUniform: {},
}

// Valid reports whether c is a supported category.
func (c ProblemCategory) Valid() bool {
	switch c {
	case ProblemLate, ProblemUniform, ProblemAbsent, ProblemBullying, ProblemCheating, ProblemDisruption, ProblemOther:
		return true
	default:
		return false
	}
}

// SinglePerDay reports whether c is limited to one record per day.
func (c ProblemCategory) SinglePerDay() bool {
	_, ok := SinglePerDayCategories[c]
	return ok
}

// ProblemPoint is a disciplinary record.
type ProblemPoint struct {
	ID          string          `db:"id" json:"id"`
	StudentID   string          `db:"student_id" json:"student_id"`
	TeacherID   string          `db:"teacher_id" json:"teacher_id"`
	Category    ProblemCategory `db:"category" json:"category"`
	Point       int             `db:"point" json:"point"`
	Description string          `db:"description" json:"description"`
	Date        time.Time       `db:"date" json:"date"`
	Day         time.Time       `db:"day" json:"day"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// ProblemPointSummary totals a student's points.
type ProblemPointSummary struct {
	StudentID   string                  `json:"student_id"`
	TotalPoints int                     `json:"total_points"`
	Count       int                     `json:"count"`
	ByCategory  map[ProblemCategory]int `json:"by_category"`
}

// ProblemPointCategoryTotal is one grouped row of a summary query.
type ProblemPointCategoryTotal struct {
	Category ProblemCategory `db:"category"`
	Count    int             `db:"count"`
	Points   int             `db:"points"`
}
