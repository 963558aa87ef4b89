package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/responsainveniree/student-info-api/internal/dto"
	"github.com/responsainveniree/student-info-api/internal/models"
	"github.com/responsainveniree/student-info-api/pkg/response"
)

type markService interface {
	OpenColumnForClass(ctx context.Context, req dto.OpenColumnRequest, actor *models.JWTClaims) (*dto.OpenColumnResult, error)
	AppendMarkForStudent(ctx context.Context, req dto.AppendMarkRequest, actor *models.JWTClaims) (*models.Mark, error)
	GradeColumn(ctx context.Context, req dto.GradeColumnRequest, actor *models.JWTClaims) (int, error)
	ListMarksForStudentSubject(ctx context.Context, q dto.MarkListQuery, actor *models.JWTClaims) (*dto.MarkListResult, error)
	ListTeachingAssignments(ctx context.Context, teacherID string, actor *models.JWTClaims) ([]models.TeachingAssignment, error)
}

// MarkHandler exposes the mark ledger.
type MarkHandler struct {
	service markService
}

// NewMarkHandler builds a new handler.
func NewMarkHandler(service markService) *MarkHandler {
	return &MarkHandler{service: service}
}

// OpenColumn godoc
// @Summary Open an assessment column for a class
// @Description Creates one mark per student of the class with the next assessment number of each student's bucket. All or nothing.
// @Tags Marks
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body dto.OpenColumnRequest true "Column payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /marks/columns [post]
func (h *MarkHandler) OpenColumn(c *gin.Context) {
	var req dto.OpenColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid mark column payload"))
		return
	}
	result, err := h.service.OpenColumnForClass(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// AppendForStudent godoc
// @Summary Open an assessment column for one student
// @Tags Marks
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.AppendMarkRequest true "Column payload"
// @Success 201 {object} response.Envelope
// @Router /marks/students/{id} [post]
func (h *MarkHandler) AppendForStudent(c *gin.Context) {
	var req dto.AppendMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid mark payload"))
		return
	}
	req.StudentID = c.Param("id")
	mark, err := h.service.AppendMarkForStudent(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, mark)
}

// GradeColumn godoc
// @Summary Score the marks of a column
// @Tags Marks
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param descriptionId path string true "Column description ID"
// @Param payload body dto.GradeColumnRequest true "Scores"
// @Success 200 {object} response.Envelope
// @Router /marks/columns/{descriptionId}/scores [put]
func (h *MarkHandler) GradeColumn(c *gin.Context) {
	var req dto.GradeColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid scores payload"))
		return
	}
	req.DescriptionID = c.Param("descriptionId")
	updated, err := h.service.GradeColumn(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"updated": updated}, nil)
}

// ListForStudent godoc
// @Summary List a student's marks in one subject
// @Tags Marks
// @Security BearerAuth
// @Produce json
// @Param id path string true "Student ID"
// @Param subject query string true "Subject name"
// @Param academicYear query string false "Academic year, with semester"
// @Param semester query string false "FIRST or SECOND, with academicYear"
// @Param page query int false "0-based page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /marks/students/{id} [get]
func (h *MarkHandler) ListForStudent(c *gin.Context) {
	var q dto.MarkListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, invalidPayload(err, "invalid mark query"))
		return
	}
	q.StudentID = c.Param("id")
	result, err := h.service.ListMarksForStudentSubject(c.Request.Context(), q, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result.Marks, &response.Pagination{
		Page:       result.Paging.Page,
		PageSize:   result.Paging.PageSize,
		TotalCount: result.TotalCount,
	}, map[string]interface{}{"period": result.Period})
}

// Assignments godoc
// @Summary List teaching assignments
// @Description Teachers get their own classes and subjects; staff pass teacher_id.
// @Tags Marks
// @Security BearerAuth
// @Produce json
// @Param teacher_id query string false "Teacher ID, staff only"
// @Success 200 {object} response.Envelope
// @Router /marks/assignments [get]
func (h *MarkHandler) Assignments(c *gin.Context) {
	items, err := h.service.ListTeachingAssignments(c.Request.Context(), c.Query("teacher_id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
