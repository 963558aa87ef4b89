package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/responsainveniree/student-info-api/internal/dto"
	"github.com/responsainveniree/student-info-api/internal/models"
	"github.com/responsainveniree/student-info-api/pkg/response"
)

type curriculumService interface {
	AssignSubjects(ctx context.Context, req dto.AssignSubjectsRequest, actor *models.JWTClaims) (*dto.CurriculumResult, error)
	ListSubjects(ctx context.Context, scope dto.CurriculumScope, actor *models.JWTClaims) ([]models.CurriculumSubject, error)
	SyncPeriod(ctx context.Context, scope dto.CurriculumScope, actor *models.JWTClaims) (*dto.CurriculumResult, error)
}

// CurriculumHandler manages which subjects a grade and major study.
type CurriculumHandler struct {
	service curriculumService
}

// NewCurriculumHandler builds a new handler.
func NewCurriculumHandler(service curriculumService) *CurriculumHandler {
	return &CurriculumHandler{service: service}
}

// Assign godoc
// @Summary Add subjects to a curriculum
// @Description Creates missing subjects and opens current-period mark buckets for every enrolled student.
// @Tags Curriculum
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body dto.AssignSubjectsRequest true "Curriculum payload"
// @Success 200 {object} response.Envelope
// @Router /curriculum [post]
func (h *CurriculumHandler) Assign(c *gin.Context) {
	var req dto.AssignSubjectsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid curriculum payload"))
		return
	}
	result, err := h.service.AssignSubjects(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List the subjects of a grade and major
// @Tags Curriculum
// @Security BearerAuth
// @Produce json
// @Param grade query string true "Grade"
// @Param major query string true "Major"
// @Success 200 {object} response.Envelope
// @Router /curriculum [get]
func (h *CurriculumHandler) List(c *gin.Context) {
	var scope dto.CurriculumScope
	if err := c.ShouldBindQuery(&scope); err != nil {
		response.Error(c, invalidPayload(err, "invalid curriculum query"))
		return
	}
	subjects, err := h.service.ListSubjects(c.Request.Context(), scope, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// Sync godoc
// @Summary Open mark buckets for the current period
// @Description Run after a semester roll-over so every student has a bucket per curriculum subject.
// @Tags Curriculum
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body dto.CurriculumScope true "Grade and major"
// @Success 200 {object} response.Envelope
// @Router /curriculum/sync [post]
func (h *CurriculumHandler) Sync(c *gin.Context) {
	var scope dto.CurriculumScope
	if err := c.ShouldBindJSON(&scope); err != nil {
		response.Error(c, invalidPayload(err, "invalid curriculum payload"))
		return
	}
	result, err := h.service.SyncPeriod(c.Request.Context(), scope, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
