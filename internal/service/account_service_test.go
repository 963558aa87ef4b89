package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/responsainveniree/student-info-api/internal/dto"
	"github.com/responsainveniree/student-info-api/internal/models"
	"github.com/responsainveniree/student-info-api/internal/repository"
	"github.com/responsainveniree/student-info-api/pkg/academic"
	appErrors "github.com/responsainveniree/student-info-api/pkg/errors"
	"github.com/responsainveniree/student-info-api/pkg/export"
)

type fakeAccounts struct {
	students    []models.Student
	teachers    []models.Teacher
	parents     []models.Parent
	assignments []models.TeachingAssignment
	homerooms   []models.HomeroomClass
	subjects    map[string]models.Subject
	curriculum  []models.CurriculumSubject
	buckets     map[string]bool
	emails      map[string]bool
	passwords   map[string]string
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		subjects: map[string]models.Subject{"Mathematics": mathSubject},
		curriculum: []models.CurriculumSubject{
			{SubjectID: mathSubject.ID, SubjectName: mathSubject.Name, Grade: "10", Major: "IPA"},
			{SubjectID: "subj-phys", SubjectName: "Physics", Grade: "10", Major: "IPA"},
		},
		buckets:   map[string]bool{},
		emails:    map[string]bool{},
		passwords: map[string]string{},
	}
}

type accountsSnapshot struct {
	students    []models.Student
	teachers    []models.Teacher
	parents     []models.Parent
	assignments []models.TeachingAssignment
	homerooms   []models.HomeroomClass
	buckets     map[string]bool
	emails      map[string]bool
}

func (f *fakeAccounts) WithinTx(_ context.Context, fn func(tx repository.AccountTx) error) error {
	snap := accountsSnapshot{
		students:    append([]models.Student(nil), f.students...),
		teachers:    append([]models.Teacher(nil), f.teachers...),
		parents:     append([]models.Parent(nil), f.parents...),
		assignments: append([]models.TeachingAssignment(nil), f.assignments...),
		homerooms:   append([]models.HomeroomClass(nil), f.homerooms...),
		buckets:     map[string]bool{},
		emails:      map[string]bool{},
	}
	for k, v := range f.buckets {
		snap.buckets[k] = v
	}
	for k, v := range f.emails {
		snap.emails[k] = v
	}
	if err := fn(f); err != nil {
		f.students, f.teachers, f.parents = snap.students, snap.teachers, snap.parents
		f.assignments, f.homerooms = snap.assignments, snap.homerooms
		f.buckets, f.emails = snap.buckets, snap.emails
		return err
	}
	return nil
}

func (f *fakeAccounts) claimEmail(email string) error {
	if f.emails[email] {
		return fmt.Errorf("insert %s: %w", email, repository.ErrDuplicate)
	}
	f.emails[email] = true
	return nil
}

func (f *fakeAccounts) InsertStudent(_ context.Context, st *models.Student) error {
	if err := f.claimEmail(st.Email); err != nil {
		return err
	}
	st.ID = fmt.Sprintf("s-%d", len(f.students)+1)
	f.students = append(f.students, *st)
	f.passwords[st.ID] = st.PasswordHash
	return nil
}

func (f *fakeAccounts) InsertTeacher(_ context.Context, t *models.Teacher) error {
	if err := f.claimEmail(t.Email); err != nil {
		return err
	}
	t.ID = fmt.Sprintf("t-%d", len(f.teachers)+1)
	f.teachers = append(f.teachers, *t)
	f.passwords[t.ID] = t.PasswordHash
	return nil
}

func (f *fakeAccounts) InsertParent(_ context.Context, p *models.Parent) error {
	if err := f.claimEmail(p.Email); err != nil {
		return err
	}
	p.ID = fmt.Sprintf("p-%d", len(f.parents)+1)
	f.parents = append(f.parents, *p)
	return nil
}

func (f *fakeAccounts) InsertTeachingAssignment(_ context.Context, a *models.TeachingAssignment) error {
	for _, existing := range f.assignments {
		if existing.TeacherID == a.TeacherID && existing.SubjectID == a.SubjectID && existing.Grade == a.Grade &&
			existing.Major == a.Major && existing.ClassNumber == a.ClassNumber {
			return fmt.Errorf("insert teaching assignment: %w", repository.ErrDuplicate)
		}
	}
	a.ID = fmt.Sprintf("ta-%d", len(f.assignments)+1)
	f.assignments = append(f.assignments, *a)
	return nil
}

func (f *fakeAccounts) InsertHomeroom(_ context.Context, h *models.HomeroomClass) error {
	for _, existing := range f.homerooms {
		if existing.ClassSelector == h.ClassSelector {
			return fmt.Errorf("insert homeroom: %w", repository.ErrDuplicate)
		}
	}
	h.ID = fmt.Sprintf("hr-%d", len(f.homerooms)+1)
	f.homerooms = append(f.homerooms, *h)
	return nil
}

func (f *fakeAccounts) HomeroomTeacherID(_ context.Context, class models.ClassSelector) (*string, error) {
	for _, h := range f.homerooms {
		if h.ClassSelector == class {
			id := h.TeacherID
			return &id, nil
		}
	}
	return nil, nil
}

func (f *fakeAccounts) FindSubject(_ context.Context, name string) (*models.Subject, error) {
	s, ok := f.subjects[name]
	if !ok {
		return nil, fmt.Errorf("find subject: %w", sql.ErrNoRows)
	}
	return &s, nil
}

func (f *fakeAccounts) CurriculumSubjects(_ context.Context, grade, major string) ([]models.CurriculumSubject, error) {
	var out []models.CurriculumSubject
	for _, cs := range f.curriculum {
		if cs.Grade == grade && cs.Major == major {
			out = append(out, cs)
		}
	}
	return out, nil
}

func (f *fakeAccounts) EnsureBucket(_ context.Context, studentID string, subject models.Subject, period academic.Period) (*models.SubjectMark, error) {
	f.buckets[bucketKey(studentID, subject.Name, period)] = true
	return &models.SubjectMark{StudentID: studentID, SubjectName: subject.Name}, nil
}

func (f *fakeAccounts) StudentExists(_ context.Context, id string) (bool, error) {
	for _, st := range f.students {
		if st.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAccounts) FindCredentialByID(_ context.Context, kind repository.AccountKind, id string) (*repository.Credential, error) {
	hash, ok := f.passwords[id]
	if !ok {
		return nil, fmt.Errorf("find credential: %w", sql.ErrNoRows)
	}
	return &repository.Credential{ID: id, PasswordHash: hash, Kind: kind}, nil
}

func (f *fakeAccounts) UpdatePassword(_ context.Context, _ repository.AccountKind, id, hash string) error {
	if _, ok := f.passwords[id]; !ok {
		return fmt.Errorf("update password: %w", sql.ErrNoRows)
	}
	f.passwords[id] = hash
	return nil
}

func newAccountFixture() (*fakeAccounts, *AccountService) {
	store := newFakeAccounts()
	svc := NewAccountService(store, allowAll{}, nil, nil, AccountConfig{BCryptCost: bcrypt.MinCost, DefaultImportPassword: "changeme123"}, time.UTC)
	svc.now = func() time.Time { return septemberAt }
	return store, svc
}

func studentRequest(email string) dto.CreateStudentRequest {
	return dto.CreateStudentRequest{Name: "Budi", Email: email, Password: "secret123", Class: class10IPA1}
}

func TestCreateStudentProvisionsBuckets(t *testing.T) {
	store, svc := newAccountFixture()
	store.homerooms = append(store.homerooms, models.HomeroomClass{TeacherID: "t-9", ClassSelector: class10IPA1})

	student, err := svc.CreateStudent(context.Background(), studentRequest("Budi@School.id"), staffSari)
	require.NoError(t, err)

	assert.Equal(t, "budi@school.id", student.Email)
	assert.Equal(t, models.StudentRoleRegular, student.StudentRole)
	require.NotNil(t, student.HomeroomTeacherID)
	assert.Equal(t, "t-9", *student.HomeroomTeacherID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte("secret123")))
	assert.True(t, store.buckets[bucketKey(student.ID, "Mathematics", firstSem)])
	assert.True(t, store.buckets[bucketKey(student.ID, "Physics", firstSem)])

	_, err = svc.CreateStudent(context.Background(), studentRequest("budi@school.id"), staffSari)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Len(t, store.students, 1)

	_, err = NewAccountService(store, denyAll{}, nil, nil, AccountConfig{}, nil).CreateStudent(context.Background(), studentRequest("x@school.id"), teacherBudi)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestCreateTeacherWithAssignmentsAndHomeroom(t *testing.T) {
	store, svc := newAccountFixture()
	homeroom := class10IPA1

	created, err := svc.CreateTeacher(context.Background(), dto.CreateTeacherRequest{
		Name: "Bu Sari", Email: "sari@school.id", Password: "secret123",
		Assignments: []dto.TeachingAssignmentInput{{SubjectName: "Mathematics", Class: class10IPA1}},
		Homeroom:    &homeroom,
	}, staffSari)
	require.NoError(t, err)
	assert.Equal(t, models.TeacherRoleTeacher, created.Teacher.Role)
	require.Len(t, created.Assignments, 1)
	assert.Equal(t, mathSubject.ID, created.Assignments[0].SubjectID)
	require.NotNil(t, created.Homeroom)

	_, err = svc.CreateTeacher(context.Background(), dto.CreateTeacherRequest{
		Name: "Pak Joko", Email: "joko@school.id", Password: "secret123",
		Assignments: []dto.TeachingAssignmentInput{{SubjectName: "Mathematics", Class: class10IPA1}},
		Homeroom:    &homeroom,
	}, staffSari)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Len(t, store.teachers, 1)
	assert.Len(t, store.assignments, 1)

	_, err = svc.CreateTeacher(context.Background(), dto.CreateTeacherRequest{
		Name: "Pak Joko", Email: "joko@school.id", Password: "secret123",
		Assignments: []dto.TeachingAssignmentInput{{SubjectName: "Alchemy", Class: class10IPA1}},
	}, staffSari)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Len(t, store.teachers, 1)
}

func TestCreateParentRequiresStudent(t *testing.T) {
	store, svc := newAccountFixture()
	student, err := svc.CreateStudent(context.Background(), studentRequest("budi@school.id"), staffSari)
	require.NoError(t, err)

	parent, err := svc.CreateParent(context.Background(), dto.CreateParentRequest{
		Name: "Ibu Budi", Email: "ibu@school.id", Password: "secret123", StudentID: student.ID,
	}, staffSari)
	require.NoError(t, err)
	assert.Equal(t, student.ID, parent.StudentID)

	_, err = svc.CreateParent(context.Background(), dto.CreateParentRequest{
		Name: "Ayah", Email: "ayah@school.id", Password: "secret123", StudentID: "s-404",
	}, staffSari)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Len(t, store.parents, 1)
}

func rosterFile(t *testing.T, rows ...[]string) *bytes.Reader {
	t.Helper()
	body, err := export.BuildWorkbook([]string{"Name", "Email", "Grade", "Major", "Class Number", "Password"}, rows)
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func TestImportStudentsAllOrNothing(t *testing.T) {
	store, svc := newAccountFixture()

	res, err := svc.ImportStudents(context.Background(), rosterFile(t,
		[]string{"Ani", "ani@school.id", "10", "IPA", "1", ""},
		[]string{"Budi", "budi@school.id", "10", "IPA", "1", "budipass1"},
	), staffSari)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(store.students[0].PasswordHash), []byte("changeme123")))
	assert.Len(t, store.buckets, 4)

	_, err = svc.ImportStudents(context.Background(), rosterFile(t,
		[]string{"Citra", "citra@school.id", "10", "IPA", "1", ""},
		[]string{"Budi Again", "budi@school.id", "10", "IPA", "1", ""},
	), staffSari)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Contains(t, err.Error(), "row 3")
	assert.Len(t, store.students, 2)
}

func TestImportStudentsRejectsBadRows(t *testing.T) {
	store, svc := newAccountFixture()

	_, err := svc.ImportStudents(context.Background(), rosterFile(t,
		[]string{"Citra", "citra@school.id", "10", "IPA", "one", ""},
	), staffSari)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.ImportStudents(context.Background(), rosterFile(t,
		[]string{"Citra", "citra@school.id", "10", "IPA", "1", ""},
		[]string{"Citra Twin", "CITRA@school.id", "10", "IPA", "1", ""},
	), staffSari)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.ImportStudents(context.Background(), rosterFile(t), staffSari)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.ImportStudents(context.Background(), bytes.NewReader([]byte("not a workbook")), staffSari)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, store.students)
}

func TestChangePassword(t *testing.T) {
	_, svc := newAccountFixture()
	student, err := svc.CreateStudent(context.Background(), studentRequest("budi@school.id"), staffSari)
	require.NoError(t, err)
	actor := &models.JWTClaims{UserID: student.ID, Role: models.RoleStudent}

	err = svc.ChangePassword(context.Background(), dto.ChangePasswordRequest{OldPassword: "wrong-one", NewPassword: "newsecret1"}, actor)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	err = svc.ChangePassword(context.Background(), dto.ChangePasswordRequest{OldPassword: "secret123", NewPassword: "newsecret1"}, actor)
	require.NoError(t, err)
	err = svc.ChangePassword(context.Background(), dto.ChangePasswordRequest{OldPassword: "newsecret1", NewPassword: "another12"}, actor)
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), dto.ChangePasswordRequest{OldPassword: "x", NewPassword: "y"}, nil)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestKindForRole(t *testing.T) {
	kind, ok := KindForRole(models.RoleClassSecretary)
	assert.True(t, ok)
	assert.Equal(t, repository.AccountStudent, kind)
	kind, _ = KindForRole(models.RoleStaff)
	assert.Equal(t, repository.AccountTeacher, kind)
	_, ok = KindForRole("ADMIN")
	assert.False(t, ok)
}
