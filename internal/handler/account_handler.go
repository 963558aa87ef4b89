package handler

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/responsainveniree/student-info-api/internal/dto"
	"github.com/responsainveniree/student-info-api/internal/models"
	"github.com/responsainveniree/student-info-api/pkg/response"
)

type accountService interface {
	CreateStudent(ctx context.Context, req dto.CreateStudentRequest, actor *models.JWTClaims) (*models.Student, error)
	CreateTeacher(ctx context.Context, req dto.CreateTeacherRequest, actor *models.JWTClaims) (*dto.CreatedTeacher, error)
	CreateParent(ctx context.Context, req dto.CreateParentRequest, actor *models.JWTClaims) (*models.Parent, error)
	ImportStudents(ctx context.Context, r io.Reader, actor *models.JWTClaims) (*dto.ImportStudentsResult, error)
}

// AccountHandler exposes staff account provisioning.
type AccountHandler struct {
	service accountService
}

// NewAccountHandler builds a new handler.
func NewAccountHandler(service accountService) *AccountHandler {
	return &AccountHandler{service: service}
}

// CreateStudent godoc
// @Summary Register a student
// @Tags Accounts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body dto.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /accounts/students [post]
func (h *AccountHandler) CreateStudent(c *gin.Context) {
	var req dto.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid student payload"))
		return
	}
	student, err := h.service.CreateStudent(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// CreateTeacher godoc
// @Summary Register a teacher with assignments and an optional homeroom
// @Tags Accounts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body dto.CreateTeacherRequest true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Router /accounts/teachers [post]
func (h *AccountHandler) CreateTeacher(c *gin.Context) {
	var req dto.CreateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid teacher payload"))
		return
	}
	created, err := h.service.CreateTeacher(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// CreateParent godoc
// @Summary Register a parent linked to a student
// @Tags Accounts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body dto.CreateParentRequest true "Parent payload"
// @Success 201 {object} response.Envelope
// @Router /accounts/parents [post]
func (h *AccountHandler) CreateParent(c *gin.Context) {
	var req dto.CreateParentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid parent payload"))
		return
	}
	parent, err := h.service.CreateParent(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, parent)
}

// ImportStudents godoc
// @Summary Import students from a spreadsheet
// @Description Imports every row or none. Columns: name, email, grade, major, class_number, password, student_role.
// @Tags Accounts
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "XLSX roster"
// @Success 201 {object} response.Envelope
// @Router /accounts/students/import [post]
func (h *AccountHandler) ImportStudents(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, invalidPayload(err, "file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, invalidPayload(err, "cannot read uploaded file"))
		return
	}
	defer file.Close()

	result, err := h.service.ImportStudents(c.Request.Context(), file, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
