package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/responsainveniree/student-info-api/internal/dto"
	"github.com/responsainveniree/student-info-api/internal/models"
	appErrors "github.com/responsainveniree/student-info-api/pkg/errors"
)

type stubTokens map[string]*models.JWTClaims

func (s stubTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.ErrUnauthorized
}

type authServiceMock struct{}

func (authServiceMock) Login(_ context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	if req.Password != "rahasia123" {
		return nil, appErrors.ErrInvalidCredentials
	}
	return &dto.LoginResponse{AccessToken: "tok", ExpiresIn: 3600}, nil
}

type resetServiceMock struct{ requested, confirmed int }

func (m *resetServiceMock) RequestOTP(context.Context, dto.PasswordResetRequest) error {
	m.requested++
	return nil
}

func (m *resetServiceMock) ConfirmOTP(context.Context, dto.PasswordResetConfirm) error {
	m.confirmed++
	return appErrors.ErrTooManyRequests
}

type accountServiceMock struct{ changed int }

func (m *accountServiceMock) CreateStudent(context.Context, dto.CreateStudentRequest, *models.JWTClaims) (*models.Student, error) {
	return &models.Student{ID: "s-1"}, nil
}

func (m *accountServiceMock) CreateTeacher(context.Context, dto.CreateTeacherRequest, *models.JWTClaims) (*dto.CreatedTeacher, error) {
	return &dto.CreatedTeacher{}, nil
}

func (m *accountServiceMock) CreateParent(context.Context, dto.CreateParentRequest, *models.JWTClaims) (*models.Parent, error) {
	return &models.Parent{}, nil
}

func (m *accountServiceMock) ImportStudents(context.Context, io.Reader, *models.JWTClaims) (*dto.ImportStudentsResult, error) {
	return &dto.ImportStudentsResult{}, nil
}

func (m *accountServiceMock) ChangePassword(_ context.Context, _ dto.ChangePasswordRequest, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	m.changed++
	return nil
}

func newTestRouter(t *testing.T, ready Check) (*gin.Engine, *resetServiceMock, *accountServiceMock) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reset := &resetServiceMock{}
	accounts := &accountServiceMock{}
	h := Handlers{
		Auth:         NewAuthHandler(authServiceMock{}, reset, accounts),
		Account:      NewAccountHandler(accounts),
		Curriculum:   NewCurriculumHandler(nil),
		Period:       NewPeriodHandler(wib),
		Mark:         NewMarkHandler(&markServiceMock{}),
		Attendance:   NewAttendanceHandler(&attendanceServiceMock{}, wib),
		ProblemPoint: NewProblemPointHandler(nil, 10, 100),
		Health:       NewHealthHandler(map[string]Check{"postgres": ready}, nil, nil),
	}
	r := gin.New()
	Register(r, "/api/v1", h, stubTokens{
		"staff":   {UserID: "a-1", Role: models.RoleStaff},
		"student": {UserID: "s-1", Role: models.RoleStudent},
	})
	return r, reset, accounts
}

func serve(r *gin.Engine, method, target, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouterPublicAuthRoutes(t *testing.T) {
	r, reset, _ := newTestRouter(t, func(context.Context) error { return nil })

	w := serve(r, http.MethodPost, "/api/v1/auth/login", "", `{"email":"budi@school.id","password":"rahasia123"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodPost, "/api/v1/auth/login", "", `{"email":"budi@school.id","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodPost, "/api/v1/auth/password-reset/request", "", `{"email":"ani@school.id"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 1, reset.requested)

	w = serve(r, http.MethodPost, "/api/v1/auth/password-reset/confirm", "", `{"email":"ani@school.id","otp":"123456","new_password":"baru12345"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRouterRoleGates(t *testing.T) {
	r, _, accounts := newTestRouter(t, func(context.Context) error { return nil })

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/api/v1/accounts/students", "", `{}`).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodPost, "/api/v1/accounts/students", "student", `{}`).Code)
	assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/api/v1/accounts/students", "staff", `{}`).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodPost, "/api/v1/marks/columns", "student", `{}`).Code)

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodPost, "/api/v1/auth/password", "student", `{"old_password":"a","new_password":"b"}`).Code)
	assert.Equal(t, 1, accounts.changed)
}

func TestRouterPeriodAndHealth(t *testing.T) {
	r, _, _ := newTestRouter(t, func(context.Context) error { return errors.New("connection refused") })

	w := serve(r, http.MethodGet, "/api/v1/period?date=2024-07-01", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"semester":"FIRST"`)
	assert.Contains(t, w.Body.String(), `"academicYear":"2024"`)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health", "", "").Code)
	w = serve(r, http.MethodGet, "/ready", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"postgres":"unavailable"`)
	assert.Equal(t, http.StatusServiceUnavailable, serve(r, http.MethodGet, "/metrics", "", "").Code)
}

func TestPeriodHandlerDefaultsToToday(t *testing.T) {
	h := NewPeriodHandler(wib)
	h.now = func() time.Time { return time.Date(2025, 1, 15, 20, 0, 0, 0, time.UTC) }
	c, w := newTestContext(http.MethodGet, "/period", "", nil)
	h.Resolve(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"date":"2025-01-16"`)
	assert.Contains(t, w.Body.String(), `"semester":"SECOND"`)
}
