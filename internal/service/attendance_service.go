package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/responsainveniree/student-info-api/internal/authz"
	"github.com/responsainveniree/student-info-api/internal/dto"
	"github.com/responsainveniree/student-info-api/internal/models"
	"github.com/responsainveniree/student-info-api/internal/repository"
	"github.com/responsainveniree/student-info-api/pkg/academic"
	appErrors "github.com/responsainveniree/student-info-api/pkg/errors"
	"github.com/responsainveniree/student-info-api/pkg/export"
	"github.com/responsainveniree/student-info-api/pkg/pagination"
)

type attendanceStore interface {
	CountByStudent(ctx context.Context, studentID string) ([]repository.TypeCount, error)
	ClassStats(ctx context.Context, class models.ClassSelector, window academic.DateRange) (models.AttendanceStats, error)
	ForStudents(ctx context.Context, studentIDs []string, window academic.DateRange) ([]models.StudentAttendance, error)
	Recap(ctx context.Context, class models.ClassSelector, window academic.DateRange) ([]models.AttendanceRecapRow, error)
	WithinTx(ctx context.Context, fn func(tx repository.AttendanceTx) error) error
}

type classRosterPager interface {
	ListClassPage(ctx context.Context, class models.ClassSelector, plan pagination.Plan) ([]models.Student, error)
	CountClass(ctx context.Context, class models.ClassSelector, plan pagination.Plan) (int, error)
}

// ListingConfig controls paging and name search on class listings.
type ListingConfig struct {
	PagingConfig
	MinSearchLength int
	Mode            pagination.Mode
}

// AttendanceService records and aggregates daily attendance.
type AttendanceService struct {
	store      attendanceStore
	roster     classRosterPager
	authorizer authz.Authorizer
	validator  *validator.Validate
	logger     *zap.Logger
	listing    ListingConfig
	loc        *time.Location
	now        func() time.Time
}

// NewAttendanceService constructs the service.
func NewAttendanceService(store attendanceStore, roster classRosterPager, authorizer authz.Authorizer, validate *validator.Validate, logger *zap.Logger, listing ListingConfig, loc *time.Location) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		store:      store,
		roster:     roster,
		authorizer: authorizer,
		validator:  validate,
		logger:     logger,
		listing:    listing,
		loc:        schoolLocation(loc),
		now:        time.Now,
	}
}

// SummarizeByStudent counts a student's full attendance history per type. Types never recorded
// are reported as zero.
func (s *AttendanceService) SummarizeByStudent(ctx context.Context, studentID string, actor *models.JWTClaims) (models.AttendanceCounts, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	if err := s.authorizer.Authorize(ctx, actor, authz.ActionViewStudentAttendance, authz.Resource{StudentID: studentID}); err != nil {
		return nil, err
	}
	rows, err := s.store.CountByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to summarize attendance")
	}
	counts := models.NewAttendanceCounts()
	for _, row := range rows {
		counts[row.Type] += row.Count
	}
	return counts, nil
}

// SummarizeByClassOnDate lists one page of a class with each student's records for the local day
// of q.Date, plus per-type totals across the whole class for that day.
func (s *AttendanceService) SummarizeByClassOnDate(ctx context.Context, q dto.ClassDayQuery, actor *models.JWTClaims) (*models.ClassDaySummary, error) {
	if err := s.validator.Struct(q.Class); err != nil {
		return nil, validationError(err, "invalid class selector")
	}
	if q.Date.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date is required")
	}
	class := q.Class
	if err := s.authorizer.Authorize(ctx, actor, authz.ActionViewClassAttendance, authz.Resource{Class: &class}); err != nil {
		return nil, err
	}

	window := academic.DayBounds(q.Date.In(s.loc))
	params := q.Paging.Normalize(s.listing.DefaultPageSize, s.listing.MaxPageSize)
	plan := pagination.Resolve(params, s.listing.Mode, s.listing.MinSearchLength)

	var (
		students []models.Student
		total    int
		stats    models.AttendanceStats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		students, err = s.roster.ListClassPage(gctx, class, plan)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.roster.CountClass(gctx, class, plan)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = s.store.ClassStats(gctx, class, window)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, appErrors.Internal(err, "failed to load class attendance")
	}

	ids := make([]string, 0, len(students))
	for _, st := range students {
		ids = append(ids, st.ID)
	}
	records, err := s.store.ForStudents(ctx, ids, window)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load class attendance")
	}
	byStudent := make(map[string][]models.StudentAttendance, len(ids))
	for _, rec := range records {
		byStudent[rec.StudentID] = append(byStudent[rec.StudentID], rec)
	}

	summary := &models.ClassDaySummary{
		Students:   make([]models.StudentDayAttendance, 0, len(students)),
		TotalCount: total,
		Stats:      stats,
		Paging:     params,
	}
	for _, st := range students {
		rows := byStudent[st.ID]
		if rows == nil {
			rows = []models.StudentAttendance{}
		}
		summary.Students = append(summary.Students, models.StudentDayAttendance{
			ID:          st.ID,
			Name:        st.Name,
			StudentRole: st.StudentRole,
			Attendance:  rows,
		})
	}
	return summary, nil
}

// RecordClassAttendance stores one record per listed student for the day. Recording the same
// student and day again replaces the earlier record.
func (s *AttendanceService) RecordClassAttendance(ctx context.Context, req dto.RecordAttendanceRequest, actor *models.JWTClaims) ([]models.StudentAttendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid attendance payload")
	}
	class := req.Class
	if err := s.authorizer.Authorize(ctx, actor, authz.ActionRecordClassAttendance, authz.Resource{Class: &class}); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(req.Entries))
	for _, entry := range req.Entries {
		if _, dup := seen[entry.StudentID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s listed twice", entry.StudentID))
		}
		seen[entry.StudentID] = struct{}{}
	}

	at := s.now()
	if req.Date != nil {
		at = *req.Date
	}
	at = at.In(s.loc)
	day := academic.DayBounds(at).Start
	recordedBy := actor.UserID

	records := make([]models.StudentAttendance, 0, len(req.Entries))
	err := s.store.WithinTx(ctx, func(tx repository.AttendanceTx) error {
		ids, err := tx.ClassStudentIDs(ctx, class)
		if err != nil {
			return err
		}
		members := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			members[id] = struct{}{}
		}
		for _, entry := range req.Entries {
			if _, ok := members[entry.StudentID]; !ok {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s is not in class %s", entry.StudentID, class))
			}
			record := models.StudentAttendance{
				StudentID:   entry.StudentID,
				Date:        at,
				Day:         day,
				Type:        entry.Type,
				Description: entry.Description,
				RecordedBy:  &recordedBy,
			}
			if err := tx.Upsert(ctx, &record); err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, txError(err, "failed to record attendance")
	}

	s.logger.Info("class attendance recorded",
		zap.String("class", class.String()),
		zap.Time("day", day),
		zap.Int("records", len(records)),
		zap.String("recorded_by", recordedBy),
	)
	return records, nil
}

var recapHeaders = []string{"No", "Student", "Sick", "Permission", "Alpha", "Late"}

// ExportClassRecap renders per-student attendance counts for a class. Without a range the current
// semester is used; a range covers whole local days from From through To.
func (s *AttendanceService) ExportClassRecap(ctx context.Context, q dto.RecapQuery, actor *models.JWTClaims) (*dto.ExportFile, error) {
	if err := s.validator.Struct(q.Class); err != nil {
		return nil, validationError(err, "invalid class selector")
	}
	class := q.Class
	if err := s.authorizer.Authorize(ctx, actor, authz.ActionExportClassAttendance, authz.Resource{Class: &class}); err != nil {
		return nil, err
	}

	window, err := s.recapWindow(q.From, q.To)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.Recap(ctx, class, window)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to build attendance recap")
	}

	data := export.Dataset{
		Title:   fmt.Sprintf("Attendance %s %s to %s", class, window.Start.Format("2006-01-02"), window.LastDay().Format("2006-01-02")),
		Headers: recapHeaders,
		Rows:    make([][]string, 0, len(rows)),
	}
	for i, row := range rows {
		data.Rows = append(data.Rows, []string{
			strconv.Itoa(i + 1),
			row.StudentName,
			strconv.Itoa(row.Sick),
			strconv.Itoa(row.Permission),
			strconv.Itoa(row.Alpha),
			strconv.Itoa(row.Late),
		})
	}

	format := q.Format
	if format == "" {
		format = export.FormatCSV
	}
	body, err := export.NewRenderer(format).Render(data)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render attendance recap")
	}
	return &dto.ExportFile{
		Filename:    export.Filename(format, "attendance", class.String(), window.Start.Format("20060102")),
		ContentType: format.ContentType(),
		Body:        body,
	}, nil
}

func (s *AttendanceService) recapWindow(from, to *time.Time) (academic.DateRange, error) {
	if from == nil && to == nil {
		return academic.SemesterDateRange(s.now().In(s.loc)), nil
	}
	if from == nil || to == nil {
		return academic.DateRange{}, appErrors.Clone(appErrors.ErrValidation, "from and to must be given together")
	}
	window := academic.DateRange{
		Start: academic.DayBounds(from.In(s.loc)).Start,
		End:   academic.DayBounds(to.In(s.loc)).End,
	}
	if !window.Start.Before(window.End) {
		return academic.DateRange{}, appErrors.Clone(appErrors.ErrValidation, "from must not be after to")
	}
	return window, nil
}
