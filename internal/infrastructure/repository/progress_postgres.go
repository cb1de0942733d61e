package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"learnplatform/internal/domain"
)

// ProgressRepository owns the progresses table, which is also the enrollment relation.
type ProgressRepository struct {
	db *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Create inserts a fresh enrollment. The unique (user_id, course_id) index turns a
// second attempt, concurrent or not, into ErrAlreadyEnrolled.
func (r *ProgressRepository) Create(ctx context.Context, p *domain.Progress) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).Omit("Course", "CompletedLessons").Create(p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrAlreadyEnrolled
		}
		return err
	}
	return nil
}

func (r *ProgressRepository) Get(ctx context.Context, userID, courseID uuid.UUID) (*domain.Progress, error) {
	return r.get(r.db.WithContext(ctx), userID, courseID)
}

func (r *ProgressRepository) get(db *gorm.DB, userID, courseID uuid.UUID) (*domain.Progress, error) {
	var p domain.Progress
	err := db.
		Preload("CompletedLessons", func(db *gorm.DB) *gorm.DB { return db.Order("completed_at asc") }).
		Preload("Course").
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProgressNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListByUser returns the user's records, most recently accessed first.
func (r *ProgressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Progress, error) {
	var records []domain.Progress
	err := r.db.WithContext(ctx).
		Preload("CompletedLessons").
		Preload("Course").
		Where("user_id = ?", userID).
		Order("last_accessed desc").
		Find(&records).Error
	return records, err
}

// Roster returns the enrolled users of each course, in enrollment order.
func (r *ProgressRepository) Roster(ctx context.Context, courseIDs []uuid.UUID) (map[uuid.UUID][]domain.UserSummary, error) {
	out := make(map[uuid.UUID][]domain.UserSummary, len(courseIDs))
	if len(courseIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		CourseID uuid.UUID
		ID       uuid.UUID
		Name     string
		Email    string
		Role     domain.Role
	}
	err := r.db.WithContext(ctx).
		Table("progresses").
		Select("progresses.course_id, users.id, users.name, users.email, users.role").
		Joins("JOIN users ON users.id = progresses.user_id").
		Where("progresses.course_id IN ?", courseIDs).
		Order("progresses.created_at asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.CourseID] = append(out[row.CourseID], domain.UserSummary{
			ID: row.ID, Name: row.Name, Email: row.Email, Role: row.Role,
		})
	}
	return out, nil
}

// RecordVideo applies one playback heartbeat in a single transaction and returns the
// updated record. The lesson must already be known to belong to the course.
func (r *ProgressRepository) RecordVideo(ctx context.Context, ev domain.VideoEvent, now time.Time) (*domain.Progress, error) {
	var result *domain.Progress
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p domain.Progress
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND course_id = ?", ev.UserID, ev.CourseID).
			First(&p).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrProgressNotFound
			}
			return err
		}

		if ev.Completed {
			done := domain.CompletedLesson{ProgressID: p.ID, LessonID: ev.LessonID, CompletedAt: now}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&done).Error; err != nil {
				return err
			}
		}

		var total, completed int64
		if err := tx.Model(&domain.Lesson{}).Where("course_id = ?", ev.CourseID).Count(&total).Error; err != nil {
			return err
		}
		err = tx.Model(&domain.CompletedLesson{}).
			Where("progress_id = ?", p.ID).
			Where("lesson_id IN (?)", tx.Model(&domain.Lesson{}).Select("id").Where("course_id = ?", ev.CourseID)).
			Count(&completed).Error
		if err != nil {
			return err
		}
		pct := domain.CompletionPercentage(int(completed), int(total))

		err = tx.Model(&domain.Progress{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
			"current_lesson_id":   ev.LessonID,
			"current_position":    ev.WatchedSeconds,
			"last_accessed":       now,
			"total_time_spent":    gorm.Expr("total_time_spent + ?", ev.WatchedSeconds),
			"progress_percentage": pct,
			"completed":           pct >= 100,
		}).Error
		if err != nil {
			return err
		}

		result, err = r.get(tx, ev.UserID, ev.CourseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
