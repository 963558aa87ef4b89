package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/responsainveniree/student-info-api/internal/authz"
	"github.com/responsainveniree/student-info-api/internal/dto"
	"github.com/responsainveniree/student-info-api/internal/models"
	"github.com/responsainveniree/student-info-api/internal/repository"
	"github.com/responsainveniree/student-info-api/pkg/academic"
	appErrors "github.com/responsainveniree/student-info-api/pkg/errors"
	"github.com/responsainveniree/student-info-api/pkg/pagination"
)

type markLedgerStore interface {
	EnsureBucket(ctx context.Context, studentID string, subject models.Subject, period academic.Period) (*models.SubjectMark, error)
	FindBucket(ctx context.Context, studentID, subjectName string, period academic.Period) (*models.SubjectMark, error)
	ListMarks(ctx context.Context, bucketID string, offset, limit int) ([]models.MarkEntry, error)
	CountMarks(ctx context.Context, bucketID string) (int, error)
	FindColumnOwner(ctx context.Context, descriptionID string) (*repository.ColumnOwner, error)
	WithinTx(ctx context.Context, fn func(tx repository.MarkLedgerTx) error) error
}

type markCurriculumReader interface {
	FindSubject(ctx context.Context, grade, major, subjectName string) (*models.Subject, error)
}

type markRosterReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ClassStudentIDs(ctx context.Context, class models.ClassSelector) ([]string, error)
}

type teachingAssignmentReader interface {
	FindTeachingAssignment(ctx context.Context, teacherID, subjectName string, class models.ClassSelector) (*models.TeachingAssignment, error)
	ListAssignments(ctx context.Context, teacherID string) ([]models.TeachingAssignment, error)
}

// LedgerMetrics records ledger activity.
type LedgerMetrics interface {
	ObserveColumnOpened(marks int)
}

// PagingConfig bounds list endpoints.
type PagingConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

// MarkService opens assessment columns and reads student marks.
type MarkService struct {
	store       markLedgerStore
	curriculum  markCurriculumReader
	students    markRosterReader
	assignments teachingAssignmentReader
	authorizer  authz.Authorizer
	metrics     LedgerMetrics
	validator   *validator.Validate
	logger      *zap.Logger
	paging      PagingConfig
	loc         *time.Location
	now         func() time.Time
}

// NewMarkService constructs the ledger service.
func NewMarkService(
	store markLedgerStore,
	curriculum markCurriculumReader,
	students markRosterReader,
	assignments teachingAssignmentReader,
	authorizer authz.Authorizer,
	metrics LedgerMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	paging PagingConfig,
	loc *time.Location,
) *MarkService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarkService{
		store:       store,
		curriculum:  curriculum,
		students:    students,
		assignments: assignments,
		authorizer:  authorizer,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		paging:      paging,
		loc:         schoolLocation(loc),
		now:         time.Now,
	}
}

func (s *MarkService) currentPeriod() academic.Period {
	return academic.ResolveSemester(s.now().In(s.loc))
}

// OpenColumnForClass creates one mark per student of the class under a shared description and
// bumps the teaching assignment counter. Nothing is written unless every student has a bucket for
// the current period.
func (s *MarkService) OpenColumnForClass(ctx context.Context, req dto.OpenColumnRequest, actor *models.JWTClaims) (*dto.OpenColumnResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid mark column payload")
	}
	if err := s.authorizer.Authorize(ctx, actor, authz.ActionOpenMarkColumn, authz.Resource{Class: &req.Class, SubjectName: req.SubjectName}); err != nil {
		return nil, err
	}

	teacherID := req.TeacherID
	if actor.Role == models.RoleTeacher {
		teacherID = actor.UserID
	}
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher_id is required")
	}

	if _, err := s.curriculum.FindSubject(ctx, req.Class.Grade, req.Class.Major, req.SubjectName); err != nil {
		return nil, lookupError(err,
			fmt.Sprintf("subject %s is not part of the %s %s curriculum", req.SubjectName, req.Class.Grade, req.Class.Major),
			"failed to load subject")
	}
	assignment, err := s.assignments.FindTeachingAssignment(ctx, teacherID, req.SubjectName, req.Class)
	if err != nil {
		return nil, lookupError(err, "teaching assignment not found", "failed to load teaching assignment")
	}
	studentIDs, err := s.students.ClassStudentIDs(ctx, req.Class)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load class roster")
	}
	if len(studentIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("class %s has no students", req.Class))
	}

	period := s.currentPeriod()
	description := models.MarkDescription{
		Detail:  req.Description.Detail,
		GivenAt: req.Description.GivenAt,
		DueAt:   req.Description.DueAt,
	}

	err = s.store.WithinTx(ctx, func(tx repository.MarkLedgerTx) error {
		if err := tx.CreateDescription(ctx, &description); err != nil {
			return err
		}
		for _, studentID := range studentIDs {
			if _, err := appendMark(ctx, tx, studentID, req.SubjectName, period, description.ID, req.AssessmentType); err != nil {
				return err
			}
		}
		if err := tx.IncrementAssignmentCounter(ctx, assignment.ID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "teaching assignment not found")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, txError(err, "failed to open mark column")
	}

	if s.metrics != nil {
		s.metrics.ObserveColumnOpened(len(studentIDs))
	}
	s.logger.Info("mark column opened",
		zap.String("description_id", description.ID),
		zap.String("class", req.Class.String()),
		zap.String("subject", req.SubjectName),
		zap.String("academic_year", period.AcademicYear),
		zap.String("semester", string(period.Semester)),
		zap.Int("marks", len(studentIDs)),
	)

	return &dto.OpenColumnResult{
		DescriptionID: description.ID,
		AcademicYear:  period.AcademicYear,
		Semester:      period.Semester,
		MarkCount:     len(studentIDs),
	}, nil
}

// AppendMarkForStudent opens a column for one student. The teaching assignment counter only tracks
// whole-class columns and is left untouched.
func (s *MarkService) AppendMarkForStudent(ctx context.Context, req dto.AppendMarkRequest, actor *models.JWTClaims) (*models.Mark, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid mark payload")
	}
	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		return nil, lookupError(err, "student not found", "failed to load student")
	}
	class := student.Class()
	if err := s.authorizer.Authorize(ctx, actor, authz.ActionOpenMarkColumn, authz.Resource{StudentID: student.ID, Class: &class, SubjectName: req.SubjectName}); err != nil {
		return nil, err
	}
	if _, err := s.curriculum.FindSubject(ctx, class.Grade, class.Major, req.SubjectName); err != nil {
		return nil, lookupError(err,
			fmt.Sprintf("subject %s is not part of the %s %s curriculum", req.SubjectName, class.Grade, class.Major),
			"failed to load subject")
	}

	period := s.currentPeriod()
	var mark *models.Mark
	err = s.store.WithinTx(ctx, func(tx repository.MarkLedgerTx) error {
		description := models.MarkDescription{
			Detail:  req.Description.Detail,
			GivenAt: req.Description.GivenAt,
			DueAt:   req.Description.DueAt,
		}
		if err := tx.CreateDescription(ctx, &description); err != nil {
			return err
		}
		created, err := appendMark(ctx, tx, student.ID, req.SubjectName, period, description.ID, req.AssessmentType)
		if err != nil {
			return err
		}
		mark = created
		return nil
	})
	if err != nil {
		return nil, txError(err, "failed to append mark")
	}
	if s.metrics != nil {
		s.metrics.ObserveColumnOpened(1)
	}
	return mark, nil
}

// appendMark locks the student's bucket, reserves the next assessment number and inserts the mark.
func appendMark(ctx context.Context, tx repository.MarkLedgerTx, studentID, subjectName string, period academic.Period, descriptionID string, kind models.AssessmentType) (*models.Mark, error) {
	bucket, err := tx.FindBucketForUpdate(ctx, studentID, subjectName, period)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf(
				"student %s has no %s marks for %s semester %s", studentID, subjectName, period.Semester, period.AcademicYear))
		}
		return nil, err
	}
	number, err := tx.ReserveAssessmentNumber(ctx, bucket.ID)
	if err != nil {
		return nil, err
	}
	mark := &models.Mark{
		SubjectMarkID:    bucket.ID,
		DescriptionID:    descriptionID,
		AssessmentNumber: number,
		Type:             kind,
	}
	if err := tx.InsertMark(ctx, mark); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "assessment number already taken")
		}
		return nil, err
	}
	return mark, nil
}

// GradeColumn scores the marks of one column. The batch is applied atomically.
func (s *MarkService) GradeColumn(ctx context.Context, req dto.GradeColumnRequest, actor *models.JWTClaims) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, validationError(err, "invalid score payload")
	}
	seen := make(map[string]struct{}, len(req.Scores))
	for _, entry := range req.Scores {
		if _, dup := seen[entry.StudentID]; dup {
			return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s scored twice", entry.StudentID))
		}
		seen[entry.StudentID] = struct{}{}
	}

	owner, err := s.store.FindColumnOwner(ctx, req.DescriptionID)
	if err != nil {
		return 0, lookupError(err, "mark column not found", "failed to load mark column")
	}
	if err := s.authorizer.Authorize(ctx, actor, authz.ActionGradeMarkColumn, authz.Resource{Class: &owner.ClassSelector, SubjectName: owner.SubjectName}); err != nil {
		return 0, err
	}

	err = s.store.WithinTx(ctx, func(tx repository.MarkLedgerTx) error {
		for _, entry := range req.Scores {
			if err := tx.SetScore(ctx, req.DescriptionID, entry.StudentID, entry.Score); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s has no mark in this column", entry.StudentID))
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, txError(err, "failed to grade mark column")
	}
	return len(req.Scores), nil
}

// ListTeachingAssignments returns the classes and subjects a teacher is assigned to, with the
// number of columns opened so far. Teachers always see their own list; staff must name a teacher.
func (s *MarkService) ListTeachingAssignments(ctx context.Context, teacherID string, actor *models.JWTClaims) ([]models.TeachingAssignment, error) {
	switch {
	case actor == nil:
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing credentials")
	case actor.Role == models.RoleTeacher:
		teacherID = actor.UserID
	case actor.Role != models.RoleStaff:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only teachers and staff can list teaching assignments")
	}
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher_id is required")
	}
	items, err := s.assignments.ListAssignments(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list teaching assignments")
	}
	if items == nil {
		items = []models.TeachingAssignment{}
	}
	return items, nil
}

// ListMarksForStudentSubject pages through the marks of one bucket in assessment order.
func (s *MarkService) ListMarksForStudentSubject(ctx context.Context, q dto.MarkListQuery, actor *models.JWTClaims) (*dto.MarkListResult, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, validationError(err, "invalid mark query")
	}
	if err := s.authorizer.Authorize(ctx, actor, authz.ActionViewStudentMarks, authz.Resource{StudentID: q.StudentID, SubjectName: q.SubjectName}); err != nil {
		return nil, err
	}

	period := s.currentPeriod()
	switch {
	case q.AcademicYear != "" && q.Semester != "":
		period = academic.Period{Semester: q.Semester, AcademicYear: q.AcademicYear}
	case q.AcademicYear != "" || q.Semester != "":
		return nil, appErrors.Clone(appErrors.ErrValidation, "academicYear and semester must be given together")
	}

	bucket, err := s.store.FindBucket(ctx, q.StudentID, q.SubjectName, period)
	if err != nil {
		return nil, lookupError(err, "no marks recorded for this subject and period", "failed to load marks")
	}

	params := pagination.Params{Page: q.Page, PageSize: q.PageSize}.Normalize(s.paging.DefaultPageSize, s.paging.MaxPageSize)
	marks, err := s.store.ListMarks(ctx, bucket.ID, params.Skip(), params.Take())
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list marks")
	}
	total, err := s.store.CountMarks(ctx, bucket.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count marks")
	}
	if marks == nil {
		marks = []models.MarkEntry{}
	}
	return &dto.MarkListResult{Period: period, Marks: marks, TotalCount: total, Paging: params}, nil
}

// EnsureBucket returns the student's bucket for the subject and period, creating it once.
func (s *MarkService) EnsureBucket(ctx context.Context, studentID string, subject models.Subject, period academic.Period) (*models.SubjectMark, error) {
	if studentID == "" || subject.ID == "" || !period.Semester.Valid() || period.AcademicYear == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student, subject and period are required")
	}
	bucket, err := s.store.EnsureBucket(ctx, studentID, subject, period)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to ensure mark bucket")
	}
	return bucket, nil
}
