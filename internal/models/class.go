package models

import "fmt"

// ClassSelector identifies one class by grade, major and class number.
type ClassSelector struct {
	Grade       string `json:"grade" form:"grade" db:"grade" validate:"required,max=8"`
	Major       string `json:"major" form:"major" db:"major" validate:"required,max=32"`
	ClassNumber int    `json:"class_number" form:"classNumber" db:"class_number" validate:"required,min=1,max=99"`
}

// String renders the selector as "10 IPA 1".
func (s ClassSelector) String() string {
	return fmt.Sprintf("%s %s %d", s.Grade, s.Major, s.ClassNumber)
}

// HomeroomClass binds a teacher to the single class they are responsible for.
type HomeroomClass struct {
	ID        string `db:"id" json:"id"`
	TeacherID string `db:"teacher_id" json:"teacher_id"`
	ClassSelector
}
