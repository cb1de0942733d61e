package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"learnplatform/internal/domain"
	"learnplatform/internal/infrastructure/cache"
	"learnplatform/internal/infrastructure/repository"
	"learnplatform/internal/metrics"
	"learnplatform/internal/platform/logger"
)

// EnrollmentUseCase creates enrollments. An enrollment is exactly one progress row; the
// user's course list and the course roster are both read from that table.
type EnrollmentUseCase struct {
	userRepo     *repository.UserRepository
	courseRepo   *repository.CourseRepository
	progressRepo *repository.ProgressRepository
	cache        *cache.CourseCache
	log          *logger.Logger
	now          func() time.Time
}

func NewEnrollmentUseCase(
	ur *repository.UserRepository,
	cr *repository.CourseRepository,
	pr *repository.ProgressRepository,
	cc *cache.CourseCache,
	log *logger.Logger,
) *EnrollmentUseCase {
	return &EnrollmentUseCase{
		userRepo:     ur,
		courseRepo:   cr,
		progressRepo: pr,
		cache:        cc,
		log:          log,
		now:          time.Now,
	}
}

type UserCourses struct {
	Role            domain.Role     `json:"role"`
	CreatedCourses  []domain.Course `json:"createdCourses"`
	EnrolledCourses []domain.Course `json:"enrolledCourses"`
}

func (uc *EnrollmentUseCase) Enroll(ctx context.Context, userID, courseID uuid.UUID, role domain.Role) (*domain.Progress, error) {
	course, err := uc.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.VisibleTo(role) {
		return nil, domain.ErrCourseUnavailable
	}
	if ok, err := uc.userRepo.Exists(ctx, userID); err != nil {
		return nil, err
	} else if !ok {
		return nil, domain.ErrUserNotFound
	}

	progress := domain.NewProgress(userID, courseID, uc.now())
	if err := uc.progressRepo.Create(ctx, progress); err != nil {
		if errors.Is(err, domain.ErrAlreadyEnrolled) {
			metrics.EnrollmentsTotal.WithLabelValues("conflict").Inc()
			return nil, err
		}
		metrics.EnrollmentsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.EnrollmentsTotal.WithLabelValues("created").Inc()

	if err := uc.cache.Invalidate(ctx, courseID); err != nil {
		uc.log.Warn("course cache invalidation failed", "course_id", courseID, "error", err)
	}
	uc.log.Info("user enrolled", "user_id", userID, "course_id", courseID)

	progress.CompletedLessons = []domain.CompletedLesson{}
	return progress, nil
}

// ListUserCourses returns what GET /users/courses shows: authored courses for instructors
// and admins, enrolled courses for everyone.
func (uc *EnrollmentUseCase) ListUserCourses(ctx context.Context, userID uuid.UUID, role domain.Role) (*UserCourses, error) {
	out := &UserCourses{Role: role, CreatedCourses: []domain.Course{}, EnrolledCourses: []domain.Course{}}

	if role.CanAuthor() {
		created, err := uc.courseRepo.ListByInstructor(ctx, userID)
		if err != nil {
			return nil, err
		}
		out.CreatedCourses = append(out.CreatedCourses, created...)
	}

	enrolled, err := uc.courseRepo.ListEnrolled(ctx, userID)
	if err != nil {
		return nil, err
	}
	out.EnrolledCourses = append(out.EnrolledCourses, enrolled...)
	return out, nil
}
