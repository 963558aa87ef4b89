package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/responsainveniree/student-info-api/internal/models"
	appErrors "github.com/responsainveniree/student-info-api/pkg/errors"
)

type fakeDirectory struct {
	homerooms map[string]models.ClassSelector
	students  map[string]models.ClassSelector
	teaches   map[string][]string // teacherID -> "class|subject"
	parents   map[string]string
	err       error
}

func (f *fakeDirectory) HomeroomClass(_ context.Context, teacherID string) (*models.ClassSelector, error) {
	if f.err != nil {
		return nil, f.err
	}
	if c, ok := f.homerooms[teacherID]; ok {
		return &c, nil
	}
	return nil, nil
}

func (f *fakeDirectory) StudentClass(_ context.Context, studentID string) (*models.ClassSelector, error) {
	if c, ok := f.students[studentID]; ok {
		return &c, nil
	}
	return nil, nil
}

func (f *fakeDirectory) TeachesClass(_ context.Context, teacherID string, class models.ClassSelector, subject string) (bool, error) {
	for _, entry := range f.teaches[teacherID] {
		if entry == class.String()+"|"+subject || (subject == "" && len(entry) > len(class.String()) && entry[:len(class.String())] == class.String()) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDirectory) IsParentOf(_ context.Context, parentID, studentID string) (bool, error) {
	return f.parents[parentID] == studentID, nil
}

var (
	classA = models.ClassSelector{Grade: "10", Major: "IPA", ClassNumber: 1}
	classB = models.ClassSelector{Grade: "10", Major: "IPA", ClassNumber: 2}
)

func newDirectory() *fakeDirectory {
	return &fakeDirectory{
		homerooms: map[string]models.ClassSelector{"t-home": classA},
		students:  map[string]models.ClassSelector{"s-1": classA, "sec-1": classA, "s-2": classB},
		teaches:   map[string][]string{"t-math": {classA.String() + "|Mathematics"}},
		parents:   map[string]string{"p-1": "s-1"},
	}
}

func actor(id string, role models.Role) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: role}
}

func assertForbidden(t *testing.T, err error) {
	t.Helper()
	assert.True(t, errors.Is(err, appErrors.ErrForbidden), "want forbidden, got %v", err)
}

func TestAuthorizeRequiresActor(t *testing.T) {
	p := NewPolicy(newDirectory())
	err := p.Authorize(context.Background(), nil, ActionViewCurriculum, Resource{})
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestStaffBypassesRules(t *testing.T) {
	p := NewPolicy(newDirectory())
	assert.NoError(t, p.Authorize(context.Background(), actor("staff", models.RoleStaff), ActionManageAccounts, Resource{}))
	assert.NoError(t, p.Authorize(context.Background(), actor("staff", models.RoleStaff), Action("unknown"), Resource{}))
}

func TestManageActionsAreStaffOnly(t *testing.T) {
	p := NewPolicy(newDirectory())
	assertForbidden(t, p.Authorize(context.Background(), actor("t-home", models.RoleTeacher), ActionManageAccounts, Resource{}))
	assertForbidden(t, p.Authorize(context.Background(), actor("s-1", models.RoleStudent), ActionManageCurriculum, Resource{}))
}

func TestOpenColumnRequiresTeachingAssignment(t *testing.T) {
	p := NewPolicy(newDirectory())
	res := Resource{Class: &classA, SubjectName: "Mathematics"}
	assert.NoError(t, p.Authorize(context.Background(), actor("t-math", models.RoleTeacher), ActionOpenMarkColumn, res))
	assertForbidden(t, p.Authorize(context.Background(), actor("t-home", models.RoleTeacher), ActionOpenMarkColumn, res))
	assertForbidden(t, p.Authorize(context.Background(), actor("t-math", models.RoleTeacher), ActionOpenMarkColumn, Resource{Class: &classB, SubjectName: "Mathematics"}))
}

func TestClassAttendanceHomeroomOrSecretary(t *testing.T) {
	p := NewPolicy(newDirectory())
	res := Resource{Class: &classA}
	assert.NoError(t, p.Authorize(context.Background(), actor("t-home", models.RoleTeacher), ActionViewClassAttendance, res))
	assert.NoError(t, p.Authorize(context.Background(), actor("sec-1", models.RoleClassSecretary), ActionRecordClassAttendance, res))
	assertForbidden(t, p.Authorize(context.Background(), actor("t-home", models.RoleTeacher), ActionViewClassAttendance, Resource{Class: &classB}))
	assertForbidden(t, p.Authorize(context.Background(), actor("s-1", models.RoleStudent), ActionRecordClassAttendance, res))
	assertForbidden(t, p.Authorize(context.Background(), actor("sec-1", models.RoleClassSecretary), ActionExportClassAttendance, res))
}

func TestStudentRecordsVisibility(t *testing.T) {
	p := NewPolicy(newDirectory())
	res := Resource{StudentID: "s-1"}
	assert.NoError(t, p.Authorize(context.Background(), actor("s-1", models.RoleStudent), ActionViewStudentMarks, res))
	assert.NoError(t, p.Authorize(context.Background(), actor("p-1", models.RoleParent), ActionViewStudentAttendance, res))
	assert.NoError(t, p.Authorize(context.Background(), actor("t-home", models.RoleTeacher), ActionViewStudentAttendance, res))
	assert.NoError(t, p.Authorize(context.Background(), actor("t-math", models.RoleTeacher), ActionViewStudentMarks, Resource{StudentID: "s-1", SubjectName: "Mathematics"}))

	assertForbidden(t, p.Authorize(context.Background(), actor("s-2", models.RoleStudent), ActionViewStudentMarks, res))
	assertForbidden(t, p.Authorize(context.Background(), actor("p-1", models.RoleParent), ActionViewStudentMarks, Resource{StudentID: "s-2"}))
	assertForbidden(t, p.Authorize(context.Background(), actor("t-math", models.RoleTeacher), ActionViewStudentAttendance, res))
}

func TestDirectoryFailureIsInternal(t *testing.T) {
	dir := newDirectory()
	dir.err = errors.New("db down")
	p := NewPolicy(dir)

	err := p.Authorize(context.Background(), actor("t-home", models.RoleTeacher), ActionViewClassAttendance, Resource{Class: &classA})
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}
