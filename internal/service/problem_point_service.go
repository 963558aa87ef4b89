package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/responsainveniree/student-info-api/internal/authz"
	"github.com/responsainveniree/student-info-api/internal/dto"
	"github.com/responsainveniree/student-info-api/internal/models"
	"github.com/responsainveniree/student-info-api/internal/repository"
	"github.com/responsainveniree/student-info-api/pkg/academic"
	"github.com/responsainveniree/student-info-api/pkg/config"
	appErrors "github.com/responsainveniree/student-info-api/pkg/errors"
	"github.com/responsainveniree/student-info-api/pkg/pagination"
)

type problemPointStore interface {
	ListByStudent(ctx context.Context, studentID string, offset, limit int) ([]models.ProblemPoint, error)
	CountByStudent(ctx context.Context, studentID string) (int, error)
	CategoryTotals(ctx context.Context, studentID string) ([]models.ProblemPointCategoryTotal, error)
	WithinTx(ctx context.Context, fn func(tx repository.ProblemPointTx) error) error
}

// ProblemPointService records disciplinary points.
type ProblemPointService struct {
	store      problemPointStore
	authorizer authz.Authorizer
	validator  *validator.Validate
	logger     *zap.Logger
	policy     string
	paging     PagingConfig
	loc        *time.Location
	now        func() time.Time
}

// NewProblemPointService constructs the service. policy is one of config.PolicyReject,
// config.PolicyWarn or config.PolicyOff and governs single-per-day categories.
func NewProblemPointService(store problemPointStore, authorizer authz.Authorizer, validate *validator.Validate, logger *zap.Logger, policy string, paging PagingConfig, loc *time.Location) *ProblemPointService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	switch policy {
	case config.PolicyReject, config.PolicyOff:
	default:
		policy = config.PolicyWarn
	}
	return &ProblemPointService{
		store:      store,
		authorizer: authorizer,
		validator:  validate,
		logger:     logger,
		policy:     policy,
		paging:     paging,
		loc:        schoolLocation(loc),
		now:        time.Now,
	}
}

// Record writes the same problem for every listed student in one transaction.
func (s *ProblemPointService) Record(ctx context.Context, req dto.RecordProblemPointRequest, actor *models.JWTClaims) (*dto.RecordProblemPointResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid problem point payload")
	}
	if !req.Category.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown category %s", req.Category))
	}
	if err := s.authorizer.Authorize(ctx, actor, authz.ActionRecordProblemPoint, authz.Resource{}); err != nil {
		return nil, err
	}

	studentIDs := uniqueNames(req.StudentIDs)
	at := s.now()
	if req.Date != nil {
		at = *req.Date
	}
	at = at.In(s.loc)
	day := academic.DayBounds(at).Start
	checkDay := req.Category.SinglePerDay() && s.policy != config.PolicyOff

	result := &dto.RecordProblemPointResult{Created: make([]models.ProblemPoint, 0, len(studentIDs))}
	err := s.store.WithinTx(ctx, func(tx repository.ProblemPointTx) error {
		existing, err := tx.ExistingStudents(ctx, studentIDs)
		if err != nil {
			return err
		}
		known := make(map[string]struct{}, len(existing))
		for _, id := range existing {
			known[id] = struct{}{}
		}
		for _, id := range studentIDs {
			if _, ok := known[id]; !ok {
				return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s not found", id))
			}
		}

		for _, id := range studentIDs {
			if checkDay {
				n, err := tx.CountSameDay(ctx, id, req.Category, day)
				if err != nil {
					return err
				}
				if n > 0 {
					msg := fmt.Sprintf("student %s already has a %s record on %s", id, req.Category, day.Format("2006-01-02"))
					if s.policy == config.PolicyReject {
						return appErrors.Clone(appErrors.ErrConflict, msg)
					}
					result.Warnings = append(result.Warnings, msg)
				}
			}
			point := models.ProblemPoint{
				StudentID:   id,
				TeacherID:   actor.UserID,
				Category:    req.Category,
				Point:       req.Point,
				Description: req.Description,
				Date:        at,
				Day:         day,
			}
			if err := tx.Insert(ctx, &point); err != nil {
				return err
			}
			result.Created = append(result.Created, point)
		}
		return nil
	})
	if err != nil {
		return nil, txError(err, "failed to record problem points")
	}

	if len(result.Warnings) > 0 {
		s.logger.Warn("single-per-day category recorded again",
			zap.String("category", string(req.Category)),
			zap.Strings("warnings", result.Warnings),
		)
	}
	return result, nil
}

// ListByStudent pages through a student's records, newest first.
func (s *ProblemPointService) ListByStudent(ctx context.Context, studentID string, params pagination.Params, actor *models.JWTClaims) ([]models.ProblemPoint, int, error) {
	if err := s.authorizer.Authorize(ctx, actor, authz.ActionViewStudentProblemInfo, authz.Resource{StudentID: studentID}); err != nil {
		return nil, 0, err
	}
	params = params.Normalize(s.paging.DefaultPageSize, s.paging.MaxPageSize)
	points, err := s.store.ListByStudent(ctx, studentID, params.Skip(), params.Take())
	if err != nil {
		return nil, 0, appErrors.Internal(err, "failed to list problem points")
	}
	total, err := s.store.CountByStudent(ctx, studentID)
	if err != nil {
		return nil, 0, appErrors.Internal(err, "failed to count problem points")
	}
	if points == nil {
		points = []models.ProblemPoint{}
	}
	return points, total, nil
}

// Summary totals a student's points and counts records per category.
func (s *ProblemPointService) Summary(ctx context.Context, studentID string, actor *models.JWTClaims) (*models.ProblemPointSummary, error) {
	if err := s.authorizer.Authorize(ctx, actor, authz.ActionViewStudentProblemInfo, authz.Resource{StudentID: studentID}); err != nil {
		return nil, err
	}
	totals, err := s.store.CategoryTotals(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to summarize problem points")
	}
	summary := &models.ProblemPointSummary{StudentID: studentID, ByCategory: map[models.ProblemCategory]int{}}
	for _, row := range totals {
		summary.TotalPoints += row.Points
		summary.Count += row.Count
		summary.ByCategory[row.Category] = row.Count
	}
	return summary, nil
}
