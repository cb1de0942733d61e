package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"learnplatform/internal/domain"
	"learnplatform/internal/infrastructure/repository"
	"learnplatform/internal/platform/logger"
)

type ProgressUseCase struct {
	courseRepo   *repository.CourseRepository
	progressRepo *repository.ProgressRepository
	log          *logger.Logger
	now          func() time.Time
}

func NewProgressUseCase(cr *repository.CourseRepository, pr *repository.ProgressRepository, log *logger.Logger) *ProgressUseCase {
	return &ProgressUseCase{courseRepo: cr, progressRepo: pr, log: log, now: time.Now}
}

type VideoInput struct {
	LessonID       string
	WatchedSeconds int
	Completed      bool
}

// RecordVideo applies a playback heartbeat for a lesson of a course the user is enrolled in.
func (uc *ProgressUseCase) RecordVideo(ctx context.Context, userID, courseID uuid.UUID, in VideoInput) (*domain.Progress, error) {
	if in.WatchedSeconds < 0 {
		return nil, domain.Validation("watchedSeconds must not be negative")
	}
	lessonID, err := uuid.Parse(in.LessonID)
	if err != nil {
		return nil, domain.Validation("invalid lessonId")
	}

	if _, err := uc.progressRepo.Get(ctx, userID, courseID); err != nil {
		return nil, err
	}
	lessons, err := uc.courseRepo.LessonIDs(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !containsID(lessons, lessonID) {
		return nil, domain.ErrLessonNotFound
	}

	p, err := uc.progressRepo.RecordVideo(ctx, domain.VideoEvent{
		UserID:         userID,
		CourseID:       courseID,
		LessonID:       lessonID,
		WatchedSeconds: in.WatchedSeconds,
		Completed:      in.Completed,
	}, uc.now())
	if err != nil {
		return nil, err
	}
	if in.Completed && p.Completed {
		uc.log.Info("course completed", "user_id", userID, "course_id", courseID)
	}
	return p, nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (uc *ProgressUseCase) CourseProgress(ctx context.Context, userID, courseID uuid.UUID) (*domain.Progress, error) {
	return uc.progressRepo.Get(ctx, userID, courseID)
}

func (uc *ProgressUseCase) Overview(ctx context.Context, userID uuid.UUID) (*domain.Overview, error) {
	records, err := uc.progressRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.Progress{}
	}
	return &domain.Overview{Progress: records, Stats: domain.Summarize(records)}, nil
}
