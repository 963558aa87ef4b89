package dto

import "github.com/responsainveniree/student-info-api/internal/models"

// AssignSubjectsRequest places subjects in the curriculum of a grade and major.
type AssignSubjectsRequest struct {
	Grade    string   `json:"grade" validate:"required,max=8"`
	Major    string   `json:"major" validate:"required,max=32"`
	Subjects []string `json:"subjects" validate:"required,min=1,dive,required,max=100"`
}

// CurriculumScope names a grade and major.
type CurriculumScope struct {
	Grade string `json:"grade" form:"grade" validate:"required,max=8"`
	Major string `json:"major" form:"major" validate:"required,max=32"`
}

// CurriculumResult lists the curriculum and the buckets ensured for the current period.
type CurriculumResult struct {
	Subjects       []models.CurriculumSubject `json:"subjects"`
	BucketsEnsured int                        `json:"buckets_ensured"`
}
