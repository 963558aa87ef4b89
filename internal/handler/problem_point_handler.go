package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/responsainveniree/student-info-api/internal/dto"
	"github.com/responsainveniree/student-info-api/internal/models"
	"github.com/responsainveniree/student-info-api/pkg/pagination"
	"github.com/responsainveniree/student-info-api/pkg/response"
)

type problemPointService interface {
	Record(ctx context.Context, req dto.RecordProblemPointRequest, actor *models.JWTClaims) (*dto.RecordProblemPointResult, error)
	ListByStudent(ctx context.Context, studentID string, params pagination.Params, actor *models.JWTClaims) ([]models.ProblemPoint, int, error)
	Summary(ctx context.Context, studentID string, actor *models.JWTClaims) (*models.ProblemPointSummary, error)
}

// ProblemPointHandler exposes disciplinary records.
type ProblemPointHandler struct {
	service         problemPointService
	defaultPageSize int
	maxPageSize     int
}

// NewProblemPointHandler builds a new handler.
func NewProblemPointHandler(service problemPointService, defaultPageSize, maxPageSize int) *ProblemPointHandler {
	return &ProblemPointHandler{service: service, defaultPageSize: defaultPageSize, maxPageSize: maxPageSize}
}

// Record godoc
// @Summary Record a problem point for one or more students
// @Description LATE and UNIFORM are limited to one per student per day; depending on configuration a repeat is rejected or reported in warnings.
// @Tags Problem Points
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body dto.RecordProblemPointRequest true "Problem point payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /problem-points [post]
func (h *ProblemPointHandler) Record(c *gin.Context) {
	var req dto.RecordProblemPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid problem point payload"))
		return
	}
	result, err := h.service.Record(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	var meta map[string]interface{}
	if len(result.Warnings) > 0 {
		meta = map[string]interface{}{"warnings": result.Warnings}
	}
	response.Created(c, result.Created, meta)
}

// ListByStudent godoc
// @Summary List a student's problem points, newest first
// @Tags Problem Points
// @Security BearerAuth
// @Produce json
// @Param id path string true "Student ID"
// @Param page query int false "0-based page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /problem-points/students/{id} [get]
func (h *ProblemPointHandler) ListByStudent(c *gin.Context) {
	var params pagination.Params
	if err := c.ShouldBindQuery(&params); err != nil {
		response.Error(c, invalidPayload(err, "invalid paging parameters"))
		return
	}
	params = params.Normalize(h.defaultPageSize, h.maxPageSize)
	points, total, err := h.service.ListByStudent(c.Request.Context(), c.Param("id"), params, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, points, &response.Pagination{Page: params.Page, PageSize: params.PageSize, TotalCount: total})
}

// Summary godoc
// @Summary Total a student's problem points per category
// @Tags Problem Points
// @Security BearerAuth
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /problem-points/students/{id}/summary [get]
func (h *ProblemPointHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
