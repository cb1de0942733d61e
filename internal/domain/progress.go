package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Progress is the single record of a user's enrollment in a course.
// (UserID, CourseID) is unique, which is what keeps enrollment at-most-once.
type Progress struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_course" json:"userId"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_course;index" json:"courseId"`
	Course   *Course   `gorm:"foreignKey:CourseID" json:"course,omitempty"`

	CompletedLessons   []CompletedLesson `gorm:"foreignKey:ProgressID;constraint:OnDelete:CASCADE;" json:"completedLessons"`
	ProgressPercentage float64           `gorm:"not null" json:"progressPercentage"`
	Completed          bool              `gorm:"not null" json:"completed"`
	LastAccessed       time.Time         `gorm:"index" json:"lastAccessed"`
	TotalTimeSpent     int64             `gorm:"not null" json:"totalTimeSpent"`

	CurrentLessonID *uuid.UUID `gorm:"type:uuid" json:"currentLessonId,omitempty"`
	CurrentPosition int        `json:"currentPosition"`

	CreatedAt time.Time `json:"enrolledAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Progress) TableName() string {
	return "progresses"
}

type CompletedLesson struct {
	ProgressID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	LessonID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"lessonId"`
	CompletedAt time.Time `json:"completedAt"`
}

func (CompletedLesson) TableName() string {
	return "completed_lessons"
}

// NewProgress is the zero-progress record created on enrollment.
func NewProgress(userID, courseID uuid.UUID, now time.Time) *Progress {
	return &Progress{
		ID:           uuid.New(),
		UserID:       userID,
		CourseID:     courseID,
		LastAccessed: now,
	}
}

// CompletionPercentage is completed/total*100 clamped to [0,100]; 0 when the course has no lessons.
func CompletionPercentage(completed, total int) float64 {
	if total <= 0 || completed <= 0 {
		return 0
	}
	pct := float64(completed) / float64(total) * 100
	return math.Min(100, pct)
}

// VideoEvent is one playback heartbeat for a lesson.
type VideoEvent struct {
	UserID         uuid.UUID
	CourseID       uuid.UUID
	LessonID       uuid.UUID
	WatchedSeconds int
	Completed      bool
}

type OverviewStats struct {
	TotalCourses      int     `json:"totalCourses"`
	CompletedCourses  int     `json:"completedCourses"`
	InProgressCourses int     `json:"inProgressCourses"`
	TotalTimeSpent    int64   `json:"totalTimeSpent"`
	AverageProgress   float64 `json:"averageProgress"`
}

// Summarize folds a user's progress records into overview statistics.
func Summarize(records []Progress) OverviewStats {
	stats := OverviewStats{TotalCourses: len(records)}
	if len(records) == 0 {
		return stats
	}
	var sum float64
	for _, p := range records {
		if p.Completed {
			stats.CompletedCourses++
		}
		if p.ProgressPercentage > 0 && p.ProgressPercentage < 100 {
			stats.InProgressCourses++
		}
		stats.TotalTimeSpent += p.TotalTimeSpent
		sum += p.ProgressPercentage
	}
	stats.AverageProgress = sum / float64(len(records))
	return stats
}

type Overview struct {
	Progress []Progress    `json:"progress"`
	Stats    OverviewStats `json:"stats"`
}
