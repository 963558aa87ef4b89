package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/responsainveniree/student-info-api/internal/authz"
	"github.com/responsainveniree/student-info-api/internal/dto"
	"github.com/responsainveniree/student-info-api/internal/models"
	"github.com/responsainveniree/student-info-api/internal/repository"
	"github.com/responsainveniree/student-info-api/pkg/academic"
	appErrors "github.com/responsainveniree/student-info-api/pkg/errors"
)

type curriculumStore interface {
	ListSubjects(ctx context.Context, grade, major string) ([]models.CurriculumSubject, error)
	WithinTx(ctx context.Context, fn func(tx repository.CurriculumTx) error) error
}

// CurriculumService manages which subjects a grade and major study and keeps mark buckets ready.
type CurriculumService struct {
	store      curriculumStore
	authorizer authz.Authorizer
	validator  *validator.Validate
	logger     *zap.Logger
	loc        *time.Location
	now        func() time.Time
}

// NewCurriculumService constructs the service.
func NewCurriculumService(store curriculumStore, authorizer authz.Authorizer, validate *validator.Validate, logger *zap.Logger, loc *time.Location) *CurriculumService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CurriculumService{
		store:      store,
		authorizer: authorizer,
		validator:  validate,
		logger:     logger,
		loc:        schoolLocation(loc),
		now:        time.Now,
	}
}

// AssignSubjects adds subjects to a curriculum, creating catalog entries on first use, and opens
// the current period's buckets for every student of the grade and major.
func (s *CurriculumService) AssignSubjects(ctx context.Context, req dto.AssignSubjectsRequest, actor *models.JWTClaims) (*dto.CurriculumResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid curriculum payload")
	}
	if err := s.authorizer.Authorize(ctx, actor, authz.ActionManageCurriculum, authz.Resource{}); err != nil {
		return nil, err
	}

	names := uniqueNames(req.Subjects)
	if len(names) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one subject is required")
	}
	period := academic.ResolveSemester(s.now().In(s.loc))

	result := &dto.CurriculumResult{}
	err := s.store.WithinTx(ctx, func(tx repository.CurriculumTx) error {
		for _, name := range names {
			subject, err := tx.UpsertSubject(ctx, name)
			if err != nil {
				return err
			}
			if err := tx.AddToCurriculum(ctx, subject.ID, req.Grade, req.Major); err != nil {
				return err
			}
		}
		ensured, err := ensureCurriculumBuckets(ctx, tx, req.Grade, req.Major, period)
		if err != nil {
			return err
		}
		result.BucketsEnsured = ensured
		result.Subjects, err = tx.ListCurriculum(ctx, req.Grade, req.Major)
		return err
	})
	if err != nil {
		return nil, txError(err, "failed to assign subjects")
	}

	s.logger.Info("curriculum updated",
		zap.String("grade", req.Grade),
		zap.String("major", req.Major),
		zap.Strings("subjects", names),
		zap.Int("buckets", result.BucketsEnsured),
	)
	return result, nil
}

// ListSubjects returns the curriculum of a grade and major.
func (s *CurriculumService) ListSubjects(ctx context.Context, scope dto.CurriculumScope, actor *models.JWTClaims) ([]models.CurriculumSubject, error) {
	if err := s.validator.Struct(scope); err != nil {
		return nil, validationError(err, "grade and major are required")
	}
	if err := s.authorizer.Authorize(ctx, actor, authz.ActionViewCurriculum, authz.Resource{}); err != nil {
		return nil, err
	}
	subjects, err := s.store.ListSubjects(ctx, scope.Grade, scope.Major)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list curriculum")
	}
	if subjects == nil {
		subjects = []models.CurriculumSubject{}
	}
	return subjects, nil
}

// SyncPeriod opens the current period's buckets for an existing curriculum. Run it after a
// semester roll-over.
func (s *CurriculumService) SyncPeriod(ctx context.Context, scope dto.CurriculumScope, actor *models.JWTClaims) (*dto.CurriculumResult, error) {
	if err := s.validator.Struct(scope); err != nil {
		return nil, validationError(err, "grade and major are required")
	}
	if err := s.authorizer.Authorize(ctx, actor, authz.ActionManageCurriculum, authz.Resource{}); err != nil {
		return nil, err
	}
	period := academic.ResolveSemester(s.now().In(s.loc))

	result := &dto.CurriculumResult{}
	err := s.store.WithinTx(ctx, func(tx repository.CurriculumTx) error {
		ensured, err := ensureCurriculumBuckets(ctx, tx, scope.Grade, scope.Major, period)
		if err != nil {
			return err
		}
		result.BucketsEnsured = ensured
		result.Subjects, err = tx.ListCurriculum(ctx, scope.Grade, scope.Major)
		return err
	})
	if err != nil {
		return nil, txError(err, "failed to sync curriculum period")
	}
	return result, nil
}

func ensureCurriculumBuckets(ctx context.Context, tx repository.CurriculumTx, grade, major string, period academic.Period) (int, error) {
	subjects, err := tx.ListCurriculum(ctx, grade, major)
	if err != nil {
		return 0, err
	}
	studentIDs, err := tx.StudentIDs(ctx, grade, major)
	if err != nil {
		return 0, err
	}
	ensured := 0
	for _, studentID := range studentIDs {
		for _, cs := range subjects {
			if _, err := tx.EnsureBucket(ctx, studentID, models.Subject{ID: cs.SubjectID, Name: cs.SubjectName}, period); err != nil {
				return 0, err
			}
			ensured++
		}
	}
	return ensured, nil
}

func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[strings.ToLower(name)]; ok {
			continue
		}
		seen[strings.ToLower(name)] = struct{}{}
		out = append(out, name)
	}
	return out
}
