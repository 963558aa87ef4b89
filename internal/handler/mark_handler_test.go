package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/responsainveniree/student-info-api/internal/dto"
	"github.com/responsainveniree/student-info-api/internal/models"
	"github.com/responsainveniree/student-info-api/pkg/academic"
	appErrors "github.com/responsainveniree/student-info-api/pkg/errors"
	"github.com/responsainveniree/student-info-api/pkg/pagination"
)

type markServiceMock struct {
	openReq   dto.OpenColumnRequest
	openResp  *dto.OpenColumnResult
	openErr   error
	appendReq dto.AppendMarkRequest
	gradeReq  dto.GradeColumnRequest
	listQuery dto.MarkListQuery
	listResp  *dto.MarkListResult
	teacherID string
	called    bool
}

func (m *markServiceMock) OpenColumnForClass(_ context.Context, req dto.OpenColumnRequest, _ *models.JWTClaims) (*dto.OpenColumnResult, error) {
	m.called = true
	m.openReq = req
	return m.openResp, m.openErr
}

func (m *markServiceMock) AppendMarkForStudent(_ context.Context, req dto.AppendMarkRequest, _ *models.JWTClaims) (*models.Mark, error) {
	m.called = true
	m.appendReq = req
	return &models.Mark{ID: "m-1"}, nil
}

func (m *markServiceMock) GradeColumn(_ context.Context, req dto.GradeColumnRequest, _ *models.JWTClaims) (int, error) {
	m.called = true
	m.gradeReq = req
	return len(req.Scores), nil
}

func (m *markServiceMock) ListMarksForStudentSubject(_ context.Context, q dto.MarkListQuery, _ *models.JWTClaims) (*dto.MarkListResult, error) {
	m.called = true
	m.listQuery = q
	return m.listResp, nil
}

func (m *markServiceMock) ListTeachingAssignments(_ context.Context, teacherID string, _ *models.JWTClaims) ([]models.TeachingAssignment, error) {
	m.called = true
	m.teacherID = teacherID
	return []models.TeachingAssignment{{ID: "ta-1", SubjectName: "Mathematics", TotalAssignmentsAssigned: 3}}, nil
}

func TestMarkHandlerOpenColumn(t *testing.T) {
	svc := &markServiceMock{openResp: &dto.OpenColumnResult{DescriptionID: "d-1", AcademicYear: "2024", Semester: academic.SemesterFirst, MarkCount: 30}}
	h := NewMarkHandler(svc)

	body := `{"class":{"grade":"10","major":"IPA","class_number":1},"subject_name":"Mathematics","assessment_type":"QUIZ",
		"description":{"detail":"Quiz 1","given_at":"2024-09-02T08:00:00+07:00","due_at":"2024-09-02T09:00:00+07:00"}}`
	c, w := newTestContext(http.MethodPost, "/marks/columns", body, teacherClaims)
	h.OpenColumn(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, svc.openReq.Class.ClassNumber)
	assert.Equal(t, models.AssessmentType("QUIZ"), svc.openReq.AssessmentType)
	assert.Contains(t, string(decode(t, w).Data), `"mark_count":30`)
}

func TestMarkHandlerOpenColumnErrors(t *testing.T) {
	t.Run("malformed body", func(t *testing.T) {
		svc := &markServiceMock{}
		c, w := newTestContext(http.MethodPost, "/marks/columns", `{"class":`, teacherClaims)
		NewMarkHandler(svc).OpenColumn(c)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, svc.called)
	})
	t.Run("empty class", func(t *testing.T) {
		svc := &markServiceMock{openErr: appErrors.Clone(appErrors.ErrNotFound, "class has no students")}
		c, w := newTestContext(http.MethodPost, "/marks/columns", `{}`, teacherClaims)
		NewMarkHandler(svc).OpenColumn(c)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", decode(t, w).Error.Code)
	})
}

func TestMarkHandlerPathParams(t *testing.T) {
	svc := &markServiceMock{}
	h := NewMarkHandler(svc)

	c, w := newTestContext(http.MethodPost, "/marks/students/s-9", `{"subject_name":"Physics"}`, teacherClaims)
	c.Params = gin.Params{{Key: "id", Value: "s-9"}}
	h.AppendForStudent(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "s-9", svc.appendReq.StudentID)

	c, w = newTestContext(http.MethodPut, "/marks/columns/d-1/scores", `{"scores":[{"student_id":"s-1","score":88.5}]}`, teacherClaims)
	c.Params = gin.Params{{Key: "descriptionId", Value: "d-1"}}
	h.GradeColumn(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "d-1", svc.gradeReq.DescriptionID)
	assert.Equal(t, 88.5, svc.gradeReq.Scores[0].Score)
	assert.JSONEq(t, `{"updated":1}`, string(decode(t, w).Data))
}

func TestMarkHandlerListForStudent(t *testing.T) {
	svc := &markServiceMock{listResp: &dto.MarkListResult{
		Period:     academic.Period{Semester: academic.SemesterSecond, AcademicYear: "2025"},
		Marks:      []models.MarkEntry{{Mark: models.Mark{ID: "m-1", AssessmentNumber: 0}}},
		TotalCount: 7,
		Paging:     pagination.Params{Page: 1, PageSize: 5},
	}}
	c, w := newTestContext(http.MethodGet, "/marks/students/s-1?subject=Mathematics&page=1&pageSize=5&academicYear=2025&semester=SECOND", "", teacherClaims)
	c.Params = gin.Params{{Key: "id", Value: "s-1"}}
	NewMarkHandler(svc).ListForStudent(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.MarkListQuery{StudentID: "s-1", SubjectName: "Mathematics", AcademicYear: "2025", Semester: academic.SemesterSecond, Page: 1, PageSize: 5}, svc.listQuery)
	env := decode(t, w)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 7, env.Pagination.TotalCount)
	assert.Equal(t, 5, env.Pagination.PageSize)
	assert.JSONEq(t, `{"semester":"SECOND","academicYear":"2025"}`, string(env.Meta["period"]))
}

func TestMarkHandlerAssignments(t *testing.T) {
	svc := &markServiceMock{}
	c, w := newTestContext(http.MethodGet, "/marks/assignments?teacher_id=t-9", "", teacherClaims)
	NewMarkHandler(svc).Assignments(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "t-9", svc.teacherID)
	assert.Contains(t, string(decode(t, w).Data), `"total_assignments_assigned":3`)
}
