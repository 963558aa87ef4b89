package models

import "time"

// Subject is a catalog entry, unique by name.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CurriculumSubject places a subject in the curriculum of a grade and major.
type CurriculumSubject struct {
	ID          string `db:"id" json:"id"`
	SubjectID   string `db:"subject_id" json:"subject_id"`
	SubjectName string `db:"subject_name" json:"subject_name"`
	Grade       string `db:"grade" json:"grade"`
	Major       string `db:"major" json:"major"`
}
