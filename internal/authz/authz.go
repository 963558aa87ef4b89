// Package authz decides whether an authenticated account may perform an action on a resource.
// Every rule lives in one table keyed by action.
package authz

import (
	"context"

	"github.com/responsainveniree/student-info-api/internal/models"
	appErrors "github.com/responsainveniree/student-info-api/pkg/errors"
)

// Action names a protected operation.
type Action string

const (
	ActionManageAccounts         Action = "accounts:manage"
	ActionManageCurriculum       Action = "curriculum:manage"
	ActionViewCurriculum         Action = "curriculum:view"
	ActionOpenMarkColumn         Action = "marks:open_column"
	ActionGradeMarkColumn        Action = "marks:grade"
	ActionViewStudentMarks       Action = "marks:view_student"
	ActionViewClassAttendance    Action = "attendance:view_class"
	ActionRecordClassAttendance  Action = "attendance:record_class"
	ActionExportClassAttendance  Action = "attendance:export_class"
	ActionViewStudentAttendance  Action = "attendance:view_student"
	ActionRecordProblemPoint     Action = "problem_points:record"
	ActionViewStudentProblemInfo Action = "problem_points:view_student"
)

// Resource describes what an action targets. Unused fields stay zero.
type Resource struct {
	StudentID   string
	Class       *models.ClassSelector
	SubjectName string
}

// Directory answers ownership lookups.
type Directory interface {
	HomeroomClass(ctx context.Context, teacherID string) (*models.ClassSelector, error)
	StudentClass(ctx context.Context, studentID string) (*models.ClassSelector, error)
	TeachesClass(ctx context.Context, teacherID string, class models.ClassSelector, subjectName string) (bool, error)
	IsParentOf(ctx context.Context, parentID, studentID string) (bool, error)
}

// Authorizer is the single capability check used by services.
type Authorizer interface {
	Authorize(ctx context.Context, actor *models.JWTClaims, action Action, res Resource) error
}

// rule returns true when the actor may proceed. STAFF bypasses rules entirely.
type rule func(ctx context.Context, dir Directory, actor *models.JWTClaims, res Resource) (bool, error)

// Policy evaluates the rule table against a Directory.
type Policy struct {
	dir   Directory
	rules map[Action]rule
}

// NewPolicy builds the policy with the default rule table.
func NewPolicy(dir Directory) *Policy {
	return &Policy{
		dir: dir,
		rules: map[Action]rule{
			ActionManageAccounts:         staffOnly,
			ActionManageCurriculum:       staffOnly,
			ActionViewCurriculum:         anyAccount,
			ActionOpenMarkColumn:         teachesSubject,
			ActionGradeMarkColumn:        teachesSubject,
			ActionViewStudentMarks:       anyOf(self, parentOf, teachesStudent, homeroomOfStudent),
			ActionViewClassAttendance:    anyOf(homeroomOfClass, secretaryOfClass),
			ActionRecordClassAttendance:  anyOf(homeroomOfClass, secretaryOfClass),
			ActionExportClassAttendance:  homeroomOfClass,
			ActionViewStudentAttendance:  anyOf(self, parentOf, homeroomOfStudent),
			ActionRecordProblemPoint:     roleIs(models.RoleTeacher),
			ActionViewStudentProblemInfo: anyOf(self, parentOf, homeroomOfStudent, teachesStudent),
		},
	}
}

// Authorize returns nil when allowed, ErrUnauthorized without an actor and ErrForbidden otherwise.
func (p *Policy) Authorize(ctx context.Context, actor *models.JWTClaims, action Action, res Resource) error {
	if actor == nil || actor.UserID == "" {
		return appErrors.ErrUnauthorized
	}
	if actor.Role == models.RoleStaff {
		return nil
	}
	check, ok := p.rules[action]
	if !ok {
		return appErrors.Clone(appErrors.ErrForbidden, "action is not permitted")
	}
	allowed, err := check(ctx, p.dir, actor, res)
	if err != nil {
		return appErrors.Internal(err, "failed to evaluate permissions")
	}
	if !allowed {
		return appErrors.Clone(appErrors.ErrForbidden, "insufficient permissions for this resource")
	}
	return nil
}

func staffOnly(context.Context, Directory, *models.JWTClaims, Resource) (bool, error) {
	return false, nil
}

func anyAccount(_ context.Context, _ Directory, actor *models.JWTClaims, _ Resource) (bool, error) {
	return actor.Role.Valid(), nil
}

func roleIs(roles ...models.Role) rule {
	return func(_ context.Context, _ Directory, actor *models.JWTClaims, _ Resource) (bool, error) {
		for _, r := range roles {
			if actor.Role == r {
				return true, nil
			}
		}
		return false, nil
	}
}

func anyOf(rules ...rule) rule {
	return func(ctx context.Context, dir Directory, actor *models.JWTClaims, res Resource) (bool, error) {
		for _, r := range rules {
			ok, err := r(ctx, dir, actor, res)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
}

func self(_ context.Context, _ Directory, actor *models.JWTClaims, res Resource) (bool, error) {
	isStudent := actor.Role == models.RoleStudent || actor.Role == models.RoleClassSecretary
	return isStudent && res.StudentID != "" && actor.UserID == res.StudentID, nil
}

func parentOf(ctx context.Context, dir Directory, actor *models.JWTClaims, res Resource) (bool, error) {
	if actor.Role != models.RoleParent || res.StudentID == "" {
		return false, nil
	}
	return dir.IsParentOf(ctx, actor.UserID, res.StudentID)
}

func teachesSubject(ctx context.Context, dir Directory, actor *models.JWTClaims, res Resource) (bool, error) {
	if actor.Role != models.RoleTeacher || res.Class == nil || res.SubjectName == "" {
		return false, nil
	}
	return dir.TeachesClass(ctx, actor.UserID, *res.Class, res.SubjectName)
}

func teachesStudent(ctx context.Context, dir Directory, actor *models.JWTClaims, res Resource) (bool, error) {
	if actor.Role != models.RoleTeacher || res.StudentID == "" {
		return false, nil
	}
	class, err := dir.StudentClass(ctx, res.StudentID)
	if err != nil || class == nil {
		return false, err
	}
	return dir.TeachesClass(ctx, actor.UserID, *class, res.SubjectName)
}

func homeroomOfStudent(ctx context.Context, dir Directory, actor *models.JWTClaims, res Resource) (bool, error) {
	if actor.Role != models.RoleTeacher || res.StudentID == "" {
		return false, nil
	}
	class, err := dir.StudentClass(ctx, res.StudentID)
	if err != nil || class == nil {
		return false, err
	}
	return homeroomOfClass(ctx, dir, actor, Resource{Class: class})
}

func homeroomOfClass(ctx context.Context, dir Directory, actor *models.JWTClaims, res Resource) (bool, error) {
	if actor.Role != models.RoleTeacher || res.Class == nil {
		return false, nil
	}
	homeroom, err := dir.HomeroomClass(ctx, actor.UserID)
	if err != nil || homeroom == nil {
		return false, err
	}
	return *homeroom == *res.Class, nil
}

func secretaryOfClass(ctx context.Context, dir Directory, actor *models.JWTClaims, res Resource) (bool, error) {
	if actor.Role != models.RoleClassSecretary || res.Class == nil {
		return false, nil
	}
	class, err := dir.StudentClass(ctx, actor.UserID)
	if err != nil || class == nil {
		return false, err
	}
	return *class == *res.Class, nil
}
