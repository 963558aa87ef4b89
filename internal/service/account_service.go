package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/responsainveniree/student-info-api/internal/authz"
	"github.com/responsainveniree/student-info-api/internal/dto"
	"github.com/responsainveniree/student-info-api/internal/models"
	"github.com/responsainveniree/student-info-api/internal/repository"
	"github.com/responsainveniree/student-info-api/pkg/academic"
	appErrors "github.com/responsainveniree/student-info-api/pkg/errors"
	"github.com/responsainveniree/student-info-api/pkg/export"
)

type accountStore interface {
	FindCredentialByID(ctx context.Context, kind repository.AccountKind, id string) (*repository.Credential, error)
	UpdatePassword(ctx context.Context, kind repository.AccountKind, id, hash string) error
	WithinTx(ctx context.Context, fn func(tx repository.AccountTx) error) error
}

// AccountConfig tunes provisioning.
type AccountConfig struct {
	BCryptCost            int
	DefaultImportPassword string
}

// AccountService provisions student, teacher and parent accounts.
type AccountService struct {
	store      accountStore
	authorizer authz.Authorizer
	validator  *validator.Validate
	logger     *zap.Logger
	config     AccountConfig
	loc        *time.Location
	now        func() time.Time
}

// NewAccountService constructs the service.
func NewAccountService(store accountStore, authorizer authz.Authorizer, validate *validator.Validate, logger *zap.Logger, cfg AccountConfig, loc *time.Location) *AccountService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BCryptCost == 0 {
		cfg.BCryptCost = bcrypt.DefaultCost
	}
	return &AccountService{
		store:      store,
		authorizer: authorizer,
		validator:  validate,
		logger:     logger,
		config:     cfg,
		loc:        schoolLocation(loc),
		now:        time.Now,
	}
}

// KindForRole maps a token role to the table holding the account.
func KindForRole(role models.Role) (repository.AccountKind, bool) {
	switch role {
	case models.RoleStudent, models.RoleClassSecretary:
		return repository.AccountStudent, true
	case models.RoleTeacher, models.RoleStaff:
		return repository.AccountTeacher, true
	case models.RoleParent:
		return repository.AccountParent, true
	default:
		return "", false
	}
}

func (s *AccountService) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BCryptCost)
	if err != nil {
		return "", appErrors.Internal(err, "failed to hash password")
	}
	return string(hashed), nil
}

func duplicateOr(err error, message string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, message)
	}
	return err
}

// CreateStudent registers a student and opens the current period's buckets for every subject in
// the student's curriculum.
func (s *AccountService) CreateStudent(ctx context.Context, req dto.CreateStudentRequest, actor *models.JWTClaims) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	if err := s.authorizer.Authorize(ctx, actor, authz.ActionManageAccounts, authz.Resource{}); err != nil {
		return nil, err
	}
	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}
	student := newStudent(req, hash)
	period := academic.ResolveSemester(s.now().In(s.loc))

	err = s.store.WithinTx(ctx, func(tx repository.AccountTx) error {
		return provisionStudent(ctx, tx, student, period)
	})
	if err != nil {
		return nil, txError(err, "failed to create student")
	}
	s.logger.Info("student created", zap.String("student_id", student.ID), zap.String("class", student.Class().String()))
	return student, nil
}

func newStudent(req dto.CreateStudentRequest, hash string) *models.Student {
	role := req.StudentRole
	if role == "" {
		role = models.StudentRoleRegular
	}
	return &models.Student{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Grade:        req.Class.Grade,
		Major:        req.Class.Major,
		ClassNumber:  req.Class.ClassNumber,
		StudentRole:  role,
	}
}

func provisionStudent(ctx context.Context, tx repository.AccountTx, student *models.Student, period academic.Period) error {
	homeroom, err := tx.HomeroomTeacherID(ctx, student.Class())
	if err != nil {
		return err
	}
	student.HomeroomTeacherID = homeroom
	if err := tx.InsertStudent(ctx, student); err != nil {
		return duplicateOr(err, fmt.Sprintf("email %s is already registered", student.Email))
	}
	subjects, err := tx.CurriculumSubjects(ctx, student.Grade, student.Major)
	if err != nil {
		return err
	}
	for _, cs := range subjects {
		if _, err := tx.EnsureBucket(ctx, student.ID, models.Subject{ID: cs.SubjectID, Name: cs.SubjectName}, period); err != nil {
			return err
		}
	}
	return nil
}

// CreateTeacher registers a teacher with teaching assignments and an optional homeroom class.
func (s *AccountService) CreateTeacher(ctx context.Context, req dto.CreateTeacherRequest, actor *models.JWTClaims) (*dto.CreatedTeacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid teacher payload")
	}
	if err := s.authorizer.Authorize(ctx, actor, authz.ActionManageAccounts, authz.Resource{}); err != nil {
		return nil, err
	}
	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = models.TeacherRoleTeacher
	}
	created := &dto.CreatedTeacher{
		Teacher: models.Teacher{
			Name:         strings.TrimSpace(req.Name),
			Email:        strings.ToLower(strings.TrimSpace(req.Email)),
			PasswordHash: hash,
			Role:         role,
		},
		Assignments: make([]models.TeachingAssignment, 0, len(req.Assignments)),
	}

	err = s.store.WithinTx(ctx, func(tx repository.AccountTx) error {
		if err := tx.InsertTeacher(ctx, &created.Teacher); err != nil {
			return duplicateOr(err, fmt.Sprintf("email %s is already registered", created.Teacher.Email))
		}
		for _, in := range req.Assignments {
			subject, err := tx.FindSubject(ctx, in.SubjectName)
			if err != nil {
				return lookupError(err, fmt.Sprintf("subject %s not found", in.SubjectName), "failed to load subject")
			}
			assignment := models.TeachingAssignment{
				TeacherID:   created.Teacher.ID,
				SubjectID:   subject.ID,
				SubjectName: subject.Name,
				Grade:       in.Class.Grade,
				Major:       in.Class.Major,
				ClassNumber: in.Class.ClassNumber,
			}
			if err := tx.InsertTeachingAssignment(ctx, &assignment); err != nil {
				return duplicateOr(err, fmt.Sprintf("%s in %s is assigned twice", in.SubjectName, in.Class))
			}
			created.Assignments = append(created.Assignments, assignment)
		}
		if req.Homeroom != nil {
			homeroom := models.HomeroomClass{TeacherID: created.Teacher.ID, ClassSelector: *req.Homeroom}
			if err := tx.InsertHomeroom(ctx, &homeroom); err != nil {
				return duplicateOr(err, fmt.Sprintf("class %s already has a homeroom teacher", req.Homeroom))
			}
			created.Homeroom = &homeroom
		}
		return nil
	})
	if err != nil {
		return nil, txError(err, "failed to create teacher")
	}
	s.logger.Info("teacher created", zap.String("teacher_id", created.Teacher.ID), zap.Int("assignments", len(created.Assignments)))
	return created, nil
}

// CreateParent registers a parent linked to an existing student.
func (s *AccountService) CreateParent(ctx context.Context, req dto.CreateParentRequest, actor *models.JWTClaims) (*models.Parent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid parent payload")
	}
	if err := s.authorizer.Authorize(ctx, actor, authz.ActionManageAccounts, authz.Resource{}); err != nil {
		return nil, err
	}
	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}
	parent := &models.Parent{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		StudentID:    req.StudentID,
	}
	err = s.store.WithinTx(ctx, func(tx repository.AccountTx) error {
		exists, err := tx.StudentExists(ctx, req.StudentID)
		if err != nil {
			return err
		}
		if !exists {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return duplicateOr(tx.InsertParent(ctx, parent), fmt.Sprintf("email %s is already registered", parent.Email))
	})
	if err != nil {
		return nil, txError(err, "failed to create parent")
	}
	return parent, nil
}

var importColumns = []string{"name", "email", "grade", "major", "class_number", "password", "student_role"}

// ImportStudents registers every student of an XLSX roster or none of them. The first row names
// the columns; name, email, grade, major and class_number are required.
func (s *AccountService) ImportStudents(ctx context.Context, r io.Reader, actor *models.JWTClaims) (*dto.ImportStudentsResult, error) {
	if err := s.authorizer.Authorize(ctx, actor, authz.ActionManageAccounts, authz.Resource{}); err != nil {
		return nil, err
	}
	rows, err := export.ReadRows(r)
	if err != nil {
		return nil, validationError(err, "unreadable roster file")
	}
	requests, err := s.parseRoster(rows)
	if err != nil {
		return nil, err
	}

	students := make([]*models.Student, 0, len(requests))
	for _, req := range requests {
		hash, err := s.hash(req.Password)
		if err != nil {
			return nil, err
		}
		students = append(students, newStudent(req, hash))
	}
	period := academic.ResolveSemester(s.now().In(s.loc))

	err = s.store.WithinTx(ctx, func(tx repository.AccountTx) error {
		for i, student := range students {
			if err := provisionStudent(ctx, tx, student, period); err != nil {
				var appErr *appErrors.Error
				if errors.As(err, &appErr) {
					return appErrors.Clone(appErr, fmt.Sprintf("row %d: %s", i+2, appErr.Message))
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, txError(err, "failed to import students")
	}

	result := &dto.ImportStudentsResult{Imported: len(students), Students: make([]models.Student, 0, len(students))}
	for _, st := range students {
		result.Students = append(result.Students, *st)
	}
	s.logger.Info("students imported", zap.Int("count", len(students)))
	return result, nil
}

func (s *AccountService) parseRoster(rows [][]string) ([]dto.CreateStudentRequest, error) {
	if len(rows) < 2 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "roster has no students")
	}
	index := map[string]int{}
	for i, cell := range rows[0] {
		index[strings.ToLower(strings.ReplaceAll(strings.TrimSpace(cell), " ", "_"))] = i
	}
	for _, col := range importColumns[:5] {
		if _, ok := index[col]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("roster is missing the %s column", col))
		}
	}
	cell := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	seen := map[string]int{}
	requests := make([]dto.CreateStudentRequest, 0, len(rows)-1)
	for n, row := range rows[1:] {
		line := n + 2
		classNumber, err := strconv.Atoi(cell(row, "class_number"))
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("row %d: class_number must be a number", line))
		}
		req := dto.CreateStudentRequest{
			Name:        cell(row, "name"),
			Email:       strings.ToLower(cell(row, "email")),
			Password:    cell(row, "password"),
			Class:       models.ClassSelector{Grade: cell(row, "grade"), Major: cell(row, "major"), ClassNumber: classNumber},
			StudentRole: models.StudentRole(strings.ToUpper(cell(row, "student_role"))),
		}
		if req.Password == "" {
			req.Password = s.config.DefaultImportPassword
		}
		if err := s.validator.Struct(req); err != nil {
			return nil, validationError(err, fmt.Sprintf("row %d: invalid student", line))
		}
		if first, dup := seen[req.Email]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("row %d: email %s already used on row %d", line, req.Email, first))
		}
		seen[req.Email] = line
		requests = append(requests, req)
	}
	return requests, nil
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *AccountService) ChangePassword(ctx context.Context, req dto.ChangePasswordRequest, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid password payload")
	}
	kind, ok := KindForRole(actor.Role)
	if !ok {
		return appErrors.Clone(appErrors.ErrForbidden, "unknown account role")
	}
	cred, err := s.store.FindCredentialByID(ctx, kind, actor.UserID)
	if err != nil {
		return lookupError(err, "account not found", "failed to load account")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(req.OldPassword)); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "current password is incorrect")
	}
	hash, err := s.hash(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePassword(ctx, kind, actor.UserID, hash); err != nil {
		return lookupError(err, "account not found", "failed to update password")
	}
	return nil
}
