package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Category string

var Categories = []Category{
	"AI",
	"Machine Learning",
	"Deep Learning",
	"Data Science",
	"Web Development",
	"Cybersecurity",
	"Cloud Computing",
	"Mobile Development",
	"Software Engineering",
	"Other",
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

type Course struct {
	ID            uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Title         string                      `gorm:"not null;index" json:"title"`
	Description   string                      `gorm:"not null" json:"description"`
	InstructorID  uuid.UUID                   `gorm:"type:uuid;not null;index" json:"instructorId"`
	Instructor    *User                       `gorm:"foreignKey:InstructorID" json:"instructor,omitempty"`
	Category      Category                    `gorm:"size:64;not null;index" json:"category"`
	Difficulty    Difficulty                  `gorm:"size:20;not null" json:"difficulty"`
	Price         float64                     `gorm:"not null" json:"price"`
	Thumbnail     string                      `json:"thumbnail"`
	Tags          datatypes.JSONSlice[string] `json:"tags"`
	IsPublished   bool                        `gorm:"not null;index" json:"isPublished"`
	AverageRating float64                     `gorm:"not null" json:"averageRating"`

	Lessons []Lesson `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE;" json:"lessons"`
	Ratings []Rating `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE;" json:"ratings"`

	// Filled from the progress table, never stored on the course row.
	EnrolledStudents []uuid.UUID `gorm:"-" json:"enrolledStudents"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Lesson struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID    uuid.UUID `gorm:"type:uuid;index;not null" json:"courseId"`
	Title       string    `gorm:"not null" json:"title"`
	MediaURL    string    `json:"url"`
	Duration    int       `json:"duration"`
	Description string    `json:"description"`
	Order       int       `gorm:"column:lesson_order" json:"order"`
	CreatedAt   time.Time `json:"-"`
}

type Rating struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rating_course_user" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rating_course_user" json:"user"`
	Rating    int       `gorm:"not null" json:"rating"`
	Review    string    `json:"review,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Rating) TableName() string {
	return "course_ratings"
}

const (
	MinRating = 1
	MaxRating = 5
)

// AverageRating is the arithmetic mean of the rating values, 0 for an empty list.
func AverageRating(ratings []Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	total := 0
	for _, r := range ratings {
		total += r.Rating
	}
	return float64(total) / float64(len(ratings))
}

// ApplyRating adds or replaces userID's rating and recomputes AverageRating.
// A blank review keeps the previous one. It returns the stored rating.
func (c *Course) ApplyRating(userID uuid.UUID, value int, review string) (Rating, error) {
	if value < MinRating || value > MaxRating {
		return Rating{}, Validation("rating must be between %d and %d", MinRating, MaxRating)
	}
	review = strings.TrimSpace(review)

	idx := -1
	for i := range c.Ratings {
		if c.Ratings[i].UserID == userID {
			idx = i
			break
		}
	}
	if idx >= 0 {
		c.Ratings[idx].Rating = value
		if review != "" {
			c.Ratings[idx].Review = review
		}
	} else {
		c.Ratings = append(c.Ratings, Rating{CourseID: c.ID, UserID: userID, Rating: value, Review: review})
		idx = len(c.Ratings) - 1
	}

	c.AverageRating = AverageRating(c.Ratings)
	return c.Ratings[idx], nil
}

// VisibleTo applies the publication rule: unpublished courses are hidden from students and anonymous callers.
func (c *Course) VisibleTo(role Role) bool {
	return c.IsPublished || role.CanAuthor()
}

type CourseSummary struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Category     Category   `json:"category"`
	Difficulty   Difficulty `json:"difficulty"`
	Thumbnail    string     `json:"thumbnail,omitempty"`
	InstructorID uuid.UUID  `json:"instructorId"`
}

func (c *Course) Summary() CourseSummary {
	return CourseSummary{
		ID:           c.ID,
		Title:        c.Title,
		Category:     c.Category,
		Difficulty:   c.Difficulty,
		Thumbnail:    c.Thumbnail,
		InstructorID: c.InstructorID,
	}
}

// CourseFilter narrows ListCourses. Role is the requester's role, empty for anonymous.
type CourseFilter struct {
	Category   Category
	Difficulty Difficulty
	Search     string
	Role       Role
}

// InstructorCourse is a course together with its roster, as shown on the instructor dashboard.
type InstructorCourse struct {
	Course
	Roster []UserSummary `json:"roster"`
}

type Pagination struct {
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
	Limit       int   `json:"limit"`
}

func NewPagination(total int64, page, limit int) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Total: total, TotalPages: pages, CurrentPage: page, Limit: limit}
}

type CoursePage struct {
	Courses    []Course   `json:"courses"`
	Pagination Pagination `json:"pagination"`
}
