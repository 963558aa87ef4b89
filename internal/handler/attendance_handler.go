package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/responsainveniree/student-info-api/internal/dto"
	"github.com/responsainveniree/student-info-api/internal/models"
	appErrors "github.com/responsainveniree/student-info-api/pkg/errors"
	"github.com/responsainveniree/student-info-api/pkg/export"
	"github.com/responsainveniree/student-info-api/pkg/pagination"
	"github.com/responsainveniree/student-info-api/pkg/response"
)

type attendanceService interface {
	SummarizeByStudent(ctx context.Context, studentID string, actor *models.JWTClaims) (models.AttendanceCounts, error)
	SummarizeByClassOnDate(ctx context.Context, q dto.ClassDayQuery, actor *models.JWTClaims) (*models.ClassDaySummary, error)
	RecordClassAttendance(ctx context.Context, req dto.RecordAttendanceRequest, actor *models.JWTClaims) ([]models.StudentAttendance, error)
	ExportClassRecap(ctx context.Context, q dto.RecapQuery, actor *models.JWTClaims) (*dto.ExportFile, error)
}

// AttendanceHandler exposes daily attendance recording and summaries.
type AttendanceHandler struct {
	service attendanceService
	loc     *time.Location
}

// NewAttendanceHandler builds a new handler. Query dates are read in loc.
func NewAttendanceHandler(service attendanceService, loc *time.Location) *AttendanceHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AttendanceHandler{service: service, loc: loc}
}

// Record godoc
// @Summary Record a class's attendance for a day
// @Description Recording a student again on the same day replaces the earlier record.
// @Tags Attendance
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body dto.RecordAttendanceRequest true "Attendance payload"
// @Success 201 {object} response.Envelope
// @Router /attendance/classes [post]
func (h *AttendanceHandler) Record(c *gin.Context) {
	var req dto.RecordAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid attendance payload"))
		return
	}
	records, err := h.service.RecordClassAttendance(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, records)
}

// ClassOnDate godoc
// @Summary Page through a class with each student's attendance on a day
// @Tags Attendance
// @Security BearerAuth
// @Produce json
// @Param grade query string true "Grade"
// @Param major query string true "Major"
// @Param classNumber query int true "Class number"
// @Param date query string true "YYYY-MM-DD"
// @Param page query int false "0-based page"
// @Param pageSize query int false "Page size"
// @Param search query string false "Student name filter"
// @Param sort query string false "ASC or DESC by name"
// @Success 200 {object} response.Envelope
// @Router /attendance/classes [get]
func (h *AttendanceHandler) ClassOnDate(c *gin.Context) {
	var class models.ClassSelector
	if err := c.ShouldBindQuery(&class); err != nil {
		response.Error(c, invalidPayload(err, "invalid class selector"))
		return
	}
	var paging pagination.Params
	if err := c.ShouldBindQuery(&paging); err != nil {
		response.Error(c, invalidPayload(err, "invalid paging parameters"))
		return
	}
	date, err := queryDate(c, "date", h.loc)
	if err != nil {
		response.Error(c, err)
		return
	}
	if date == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date is required"))
		return
	}

	summary, err := h.service.SummarizeByClassOnDate(c.Request.Context(), dto.ClassDayQuery{Class: class, Date: *date, Paging: paging}, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, &response.Pagination{
		Page:       summary.Paging.Page,
		PageSize:   summary.Paging.PageSize,
		TotalCount: summary.TotalCount,
	})
}

// StudentSummary godoc
// @Summary Count a student's attendance records per type
// @Tags Attendance
// @Security BearerAuth
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/students/{id}/summary [get]
func (h *AttendanceHandler) StudentSummary(c *gin.Context) {
	counts, err := h.service.SummarizeByStudent(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil)
}

// ExportRecap godoc
// @Summary Download per-student attendance counts for a class
// @Tags Attendance
// @Security BearerAuth
// @Produce text/csv,application/pdf,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param grade query string true "Grade"
// @Param major query string true "Major"
// @Param classNumber query int true "Class number"
// @Param from query string false "YYYY-MM-DD, with to"
// @Param to query string false "YYYY-MM-DD inclusive, with from"
// @Param format query string false "csv, xlsx or pdf"
// @Success 200 {file} file
// @Router /attendance/classes/export [get]
func (h *AttendanceHandler) ExportRecap(c *gin.Context) {
	var class models.ClassSelector
	if err := c.ShouldBindQuery(&class); err != nil {
		response.Error(c, invalidPayload(err, "invalid class selector"))
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, invalidPayload(err, err.Error()))
		return
	}
	from, err := queryDate(c, "from", h.loc)
	if err != nil {
		response.Error(c, err)
		return
	}
	to, err := queryDate(c, "to", h.loc)
	if err != nil {
		response.Error(c, err)
		return
	}

	file, err := h.service.ExportClassRecap(c.Request.Context(), dto.RecapQuery{Class: class, From: from, To: to, Format: format}, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Body)
}
