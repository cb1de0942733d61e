package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnplatform/internal/domain"
)

func TestRegisterValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cases := []RegisterInput{
		{Email: "a@example.com", Password: "secret1"},
		{Name: "A", Password: "secret1"},
		{Name: "A", Email: "not-an-email", Password: "secret1"},
		{Name: "A", Email: "a@example.com", Password: "short"},
		{Name: "A", Email: "a@example.com", Password: "secret1", Role: domain.RoleAdmin},
		{Name: "A", Email: "a@example.com", Password: "secret1", Role: "tutor"},
		{Name: "A", Email: "a@example.com", Password: strings.Repeat("a", 80)},
		{Name: "A", Email: "a@example.com", Password: strings.Repeat("é", 40)},
	}
	for _, in := range cases {
		_, err := e.auth.Register(ctx, in)
		assert.Equal(t, domain.KindValidation, kindOf(err), "%+v", in)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	res, err := e.auth.Register(ctx, RegisterInput{
		Name:      "  Ada ",
		Email:     "Ada@Example.com",
		Password:  "secret1",
		Interests: []string{"ai", " ai ", "go"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", res.User.Name)
	assert.Equal(t, "ada@example.com", res.User.Email)
	assert.Equal(t, domain.RoleStudent, res.User.Role)
	assert.NotEmpty(t, res.Token)

	id, err := e.auth.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, id.UserID)
	assert.Equal(t, domain.RoleStudent, id.Role)

	stored, err := e.users.GetByID(ctx, res.User.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.Password)
	assert.Equal(t, []string{"ai", "go"}, []string(stored.Interests))

	_, err = e.auth.Register(ctx, RegisterInput{Name: "Other", Email: "ADA@example.com", Password: "secret2"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	login, err := e.auth.Login(ctx, LoginInput{Email: "ADA@EXAMPLE.COM", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	_, err = e.auth.Login(ctx, LoginInput{Email: "ada@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = e.auth.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = e.auth.Login(ctx, LoginInput{Email: "ada@example.com"})
	assert.Equal(t, domain.KindValidation, kindOf(err))
}

func TestVerifyRejectsGarbage(t *testing.T) {
	e := newEnv(t)
	_, err := e.auth.Verify("")
	assert.Equal(t, domain.KindAuth, kindOf(err))
	_, err = e.auth.Verify("abc.def.ghi")
	assert.Equal(t, domain.KindAuth, kindOf(err))
}

func TestCurrentUserIncludesEnrollments(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	inst := e.register(t, "inst", domain.RoleInstructor)
	student := e.register(t, "stud", domain.RoleStudent)
	c := e.newCourse(t, inst, "Go", 1)

	_, err := e.enrollment.Enroll(ctx, student, c.ID, domain.RoleStudent)
	require.NoError(t, err)

	p, err := e.auth.CurrentUser(ctx, student)
	require.NoError(t, err)
	require.Len(t, p.EnrolledCourses, 1)
	assert.Equal(t, c.ID, p.EnrolledCourses[0].Course.ID)
	assert.Equal(t, "Go", p.EnrolledCourses[0].Course.Title)
	assert.Equal(t, 0.0, p.EnrolledCourses[0].Progress)

	_, err = e.auth.CurrentUser(ctx, inst)
	require.NoError(t, err)
}

func TestProfileListsEnrollmentsInEnrollmentOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	inst := e.register(t, "inst", domain.RoleInstructor)
	student := e.register(t, "stud", domain.RoleStudent)
	first := e.newCourse(t, inst, "First", 1)
	second := e.newCourse(t, inst, "Second", 1)

	_, err := e.enrollment.Enroll(ctx, student, first.ID, domain.RoleStudent)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = e.enrollment.Enroll(ctx, student, second.ID, domain.RoleStudent)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = e.tracking.RecordVideo(ctx, student, first.ID, VideoInput{LessonID: first.Lessons[0].ID.String(), WatchedSeconds: 30})
	require.NoError(t, err)

	p, err := e.profile.Profile(ctx, student)
	require.NoError(t, err)
	require.Len(t, p.EnrolledCourses, 2)
	assert.Equal(t, first.ID, p.EnrolledCourses[0].Course.ID)
	assert.Equal(t, second.ID, p.EnrolledCourses[1].Course.ID)

	time.Sleep(5 * time.Millisecond)
	_, err = e.tracking.RecordVideo(ctx, student, second.ID, VideoInput{LessonID: second.Lessons[0].ID.String(), WatchedSeconds: 30})
	require.NoError(t, err)

	cur, err := e.auth.CurrentUser(ctx, student)
	require.NoError(t, err)
	require.Len(t, cur.EnrolledCourses, 2)
	assert.Equal(t, first.ID, cur.EnrolledCourses[0].Course.ID)
	assert.Equal(t, second.ID, cur.EnrolledCourses[1].Course.ID)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.auth.EnsureAdmin(ctx, "Root@Example.com", "rootpass"))
	require.NoError(t, e.auth.EnsureAdmin(ctx, "root@example.com", "other"))
	require.NoError(t, e.auth.EnsureAdmin(ctx, "", ""))

	res, err := e.auth.Login(ctx, LoginInput{Email: "root@example.com", Password: "rootpass"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, res.User.Role)
}
