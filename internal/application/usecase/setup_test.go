package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"learnplatform/internal/domain"
	"learnplatform/internal/infrastructure/cache"
	"learnplatform/internal/infrastructure/repository"
	"learnplatform/internal/infrastructure/repository/repotest"
	"learnplatform/internal/infrastructure/security"
	"learnplatform/internal/platform/logger"
)

type env struct {
	users    *repository.UserRepository
	courses  *repository.CourseRepository
	progress *repository.ProgressRepository
	cache    *cache.CourseCache
	tokens   *security.TokenManager

	auth       *AuthUseCase
	course     *CourseUseCase
	enrollment *EnrollmentUseCase
	tracking   *ProgressUseCase
	profile    *UserUseCase
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := repotest.NewDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := logger.NewNop()
	e := &env{
		users:    repository.NewUserRepository(db),
		courses:  repository.NewCourseRepository(db),
		progress: repository.NewProgressRepository(db),
		cache:    cache.NewCourseCache(rdb),
		tokens:   security.NewTokenManager("test-secret", time.Hour),
	}
	e.auth = NewAuthUseCase(e.users, e.progress, security.NewPasswordHasherWithCost(bcrypt.MinCost), e.tokens, log)
	e.course = NewCourseUseCase(e.courses, e.progress, e.cache, log)
	e.enrollment = NewEnrollmentUseCase(e.users, e.courses, e.progress, e.cache, log)
	e.tracking = NewProgressUseCase(e.courses, e.progress, log)
	e.profile = NewUserUseCase(e.users, e.progress)
	return e
}

func (e *env) register(t *testing.T, name string, role domain.Role) uuid.UUID {
	t.Helper()
	res, err := e.auth.Register(context.Background(), RegisterInput{
		Name:     name,
		Email:    name + "@example.com",
		Password: "secret1",
		Role:     role,
	})
	require.NoError(t, err)
	return res.User.ID
}

func (e *env) newCourse(t *testing.T, owner uuid.UUID, title string, lessons int) *domain.Course {
	t.Helper()
	in := CourseInput{Title: title, Description: "About " + title, Category: "AI"}
	for i := 0; i < lessons; i++ {
		in.Lessons = append(in.Lessons, LessonInput{Title: "Lesson", Duration: 300})
	}
	c, err := e.course.Create(context.Background(), owner, domain.RoleInstructor, in)
	require.NoError(t, err)
	return c
}

func kindOf(err error) domain.ErrorKind {
	k, _ := domain.KindOf(err)
	return k
}
