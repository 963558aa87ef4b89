package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/responsainveniree/student-info-api/internal/middleware"
	"github.com/responsainveniree/student-info-api/internal/models"
)

// Handlers groups every HTTP handler mounted by Register.
type Handlers struct {
	Auth         *AuthHandler
	Account      *AccountHandler
	Curriculum   *CurriculumHandler
	Period       *PeriodHandler
	Mark         *MarkHandler
	Attendance   *AttendanceHandler
	ProblemPoint *ProblemPointHandler
	Health       *HealthHandler
}

// Register mounts the API under prefix. Route-level role gates are coarse; services make the
// ownership decisions.
func Register(r *gin.Engine, prefix string, h Handlers, tokens middleware.TokenValidator) {
	r.GET("/health", h.Health.Health)
	r.GET("/ready", h.Health.Ready)
	r.GET("/metrics", h.Health.Prometheus)

	api := r.Group(prefix)
	api.GET("/period", h.Period.Resolve)

	auth := api.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/password-reset/request", h.Auth.RequestPasswordReset)
	auth.POST("/password-reset/confirm", h.Auth.ConfirmPasswordReset)

	secured := api.Group("")
	secured.Use(middleware.JWT(tokens))
	secured.POST("/auth/password", h.Auth.ChangePassword)

	staff := middleware.RequireRoles(models.RoleStaff)
	teaching := middleware.RequireRoles(models.RoleTeacher, models.RoleStaff)
	classKeepers := middleware.RequireRoles(models.RoleTeacher, models.RoleStaff, models.RoleClassSecretary)

	accounts := secured.Group("/accounts", staff)
	accounts.POST("/students", h.Account.CreateStudent)
	accounts.POST("/students/import", h.Account.ImportStudents)
	accounts.POST("/teachers", h.Account.CreateTeacher)
	accounts.POST("/parents", h.Account.CreateParent)

	curriculum := secured.Group("/curriculum")
	curriculum.GET("", h.Curriculum.List)
	curriculum.POST("", staff, h.Curriculum.Assign)
	curriculum.POST("/sync", staff, h.Curriculum.Sync)

	marks := secured.Group("/marks")
	marks.POST("/columns", teaching, h.Mark.OpenColumn)
	marks.PUT("/columns/:descriptionId/scores", teaching, h.Mark.GradeColumn)
	marks.POST("/students/:id", teaching, h.Mark.AppendForStudent)
	marks.GET("/students/:id", h.Mark.ListForStudent)
	marks.GET("/assignments", teaching, h.Mark.Assignments)

	attendance := secured.Group("/attendance")
	attendance.POST("/classes", classKeepers, h.Attendance.Record)
	attendance.GET("/classes", classKeepers, h.Attendance.ClassOnDate)
	attendance.GET("/classes/export", teaching, h.Attendance.ExportRecap)
	attendance.GET("/students/:id/summary", h.Attendance.StudentSummary)

	problems := secured.Group("/problem-points")
	problems.POST("", teaching, h.ProblemPoint.Record)
	problems.GET("/students/:id", h.ProblemPoint.ListByStudent)
	problems.GET("/students/:id/summary", h.ProblemPoint.Summary)
}
