package dto

import (
	"time"

	"github.com/responsainveniree/student-info-api/internal/models"
)

// RecordProblemPointRequest records the same problem for one or more students.
type RecordProblemPointRequest struct {
	StudentIDs  []string               `json:"student_ids" validate:"required,min=1,dive,required"`
	Category    models.ProblemCategory `json:"category" validate:"required"`
	Point       int                    `json:"point" validate:"required,min=1,max=100"`
	Description string                 `json:"description" validate:"max=500"`
	Date        *time.Time             `json:"date"`
}

// RecordProblemPointResult lists the created records and any single-per-day warnings.
type RecordProblemPointResult struct {
	Created  []models.ProblemPoint `json:"created"`
	Warnings []string              `json:"warnings,omitempty"`
}
