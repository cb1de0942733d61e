package repository

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"learnplatform/internal/domain"
)

type CourseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func orderedLessons(db *gorm.DB) *gorm.DB {
	return db.Order("lesson_order asc")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func courseFilter(f domain.CourseFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !f.Role.CanAuthor() {
			db = db.Where("is_published = ?", true)
		}
		if f.Category != "" {
			db = db.Where("category = ?", f.Category)
		}
		if f.Difficulty != "" {
			db = db.Where("difficulty = ?", f.Difficulty)
		}
		if s := strings.TrimSpace(f.Search); s != "" {
			like := "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
			// tags are stored as a JSON array; JSON syntax in the term would match its punctuation
			if strings.ContainsAny(s, `"[],\`) {
				db = db.Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`, like, like)
			} else {
				db = db.Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(CAST(tags AS TEXT)) LIKE ? ESCAPE '\'`, like, like, like)
			}
		}
		return db
	}
}

func prepareLessons(courseID uuid.UUID, lessons []domain.Lesson) {
	for i := range lessons {
		if lessons[i].ID == uuid.Nil {
			lessons[i].ID = uuid.New()
		}
		lessons[i].CourseID = courseID
		if lessons[i].Order == 0 {
			lessons[i].Order = i + 1
		}
	}
}

func (r *CourseRepository) Create(ctx context.Context, c *domain.Course) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	prepareLessons(c.ID, c.Lessons)
	return r.db.WithContext(ctx).Omit("Instructor", "Ratings").Create(c).Error
}

func (r *CourseRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Course{}).Count(&count).Error
	return count, err
}

// GetByID loads the course with ordered lessons, ratings, instructor and enrolled student ids.
func (r *CourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	var course domain.Course
	err := r.db.WithContext(ctx).
		Preload("Lessons", orderedLessons).
		Preload("Ratings", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Preload("Instructor").
		First(&course, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, err
	}

	if err := r.attachStudents(ctx, []*domain.Course{&course}); err != nil {
		return nil, err
	}
	return &course, nil
}

// LessonIDs returns the lesson ids of a course, ErrCourseNotFound if it does not exist.
func (r *CourseRepository) LessonIDs(ctx context.Context, courseID uuid.UUID) ([]uuid.UUID, error) {
	var exists int64
	if err := r.db.WithContext(ctx).Model(&domain.Course{}).Where("id = ?", courseID).Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, domain.ErrCourseNotFound
	}
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&domain.Lesson{}).
		Where("course_id = ?", courseID).
		Order("lesson_order asc").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *CourseRepository) List(ctx context.Context, f domain.CourseFilter, limit, offset int) ([]domain.Course, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Course{}).Scopes(courseFilter(f)).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var courses []domain.Course
	err := r.db.WithContext(ctx).
		Scopes(courseFilter(f)).
		Preload("Lessons", orderedLessons).
		Preload("Instructor").
		Order("created_at desc").
		Order("id").
		Limit(limit).
		Offset(offset).
		Find(&courses).Error
	if err != nil {
		return nil, 0, err
	}

	ptrs := make([]*domain.Course, len(courses))
	for i := range courses {
		ptrs[i] = &courses[i]
	}
	if err := r.attachStudents(ctx, ptrs); err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

func (r *CourseRepository) ListByInstructor(ctx context.Context, instructorID uuid.UUID) ([]domain.Course, error) {
	var courses []domain.Course
	err := r.db.WithContext(ctx).
		Preload("Lessons", orderedLessons).
		Where("instructor_id = ?", instructorID).
		Order("created_at desc").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}
	ptrs := make([]*domain.Course, len(courses))
	for i := range courses {
		ptrs[i] = &courses[i]
	}
	return courses, r.attachStudents(ctx, ptrs)
}

// ListEnrolled returns the courses userID has a progress record for, newest first.
func (r *CourseRepository) ListEnrolled(ctx context.Context, userID uuid.UUID) ([]domain.Course, error) {
	enrolled := r.db.Model(&domain.Progress{}).Select("course_id").Where("user_id = ?", userID)

	var courses []domain.Course
	err := r.db.WithContext(ctx).
		Preload("Lessons", orderedLessons).
		Preload("Instructor").
		Where("id IN (?)", enrolled).
		Order("created_at desc").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}
	ptrs := make([]*domain.Course, len(courses))
	for i := range courses {
		ptrs[i] = &courses[i]
	}
	return courses, r.attachStudents(ctx, ptrs)
}

// attachStudents fills EnrolledStudents from the progress table.
func (r *CourseRepository) attachStudents(ctx context.Context, courses []*domain.Course) error {
	if len(courses) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(courses))
	for i, c := range courses {
		ids[i] = c.ID
		c.EnrolledStudents = []uuid.UUID{}
	}

	var rows []struct {
		CourseID uuid.UUID
		UserID   uuid.UUID
	}
	err := r.db.WithContext(ctx).Model(&domain.Progress{}).
		Select("course_id, user_id").
		Where("course_id IN ?", ids).
		Order("created_at asc").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	byID := make(map[uuid.UUID]*domain.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}
	for _, row := range rows {
		if c, ok := byID[row.CourseID]; ok {
			c.EnrolledStudents = append(c.EnrolledStudents, row.UserID)
		}
	}
	return nil
}

// Update writes the editable columns of c. average_rating is owned by Rate and never written here.
// When replaceLessons is set the lesson list is replaced by c.Lessons.
func (r *CourseRepository) Update(ctx context.Context, c *domain.Course, replaceLessons bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Course{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
			"title":         c.Title,
			"description":   c.Description,
			"instructor_id": c.InstructorID,
			"category":      c.Category,
			"difficulty":    c.Difficulty,
			"price":         c.Price,
			"thumbnail":     c.Thumbnail,
			"tags":          c.Tags,
			"is_published":  c.IsPublished,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrCourseNotFound
		}

		if !replaceLessons {
			return nil
		}
		if err := tx.Where("course_id = ?", c.ID).Delete(&domain.Lesson{}).Error; err != nil {
			return err
		}
		if len(c.Lessons) == 0 {
			return nil
		}
		prepareLessons(c.ID, c.Lessons)
		return tx.Create(&c.Lessons).Error
	})
}

// Rate adds or replaces userID's rating. The course row is locked for the duration so
// concurrent raters see each other's writes before the average is recomputed.
func (r *CourseRepository) Rate(ctx context.Context, courseID, userID uuid.UUID, value int, review string) (*domain.Course, domain.Rating, error) {
	var (
		course domain.Course
		stored domain.Rating
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&course, "id = ?", courseID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrCourseNotFound
			}
			return err
		}
		if err := tx.Where("course_id = ?", courseID).Order("created_at asc").Find(&course.Ratings).Error; err != nil {
			return err
		}

		stored, err = course.ApplyRating(userID, value, review)
		if err != nil {
			return err
		}

		if stored.ID == 0 {
			if err := tx.Create(&stored).Error; err != nil {
				return err
			}
			course.Ratings[len(course.Ratings)-1].ID = stored.ID
		} else {
			err := tx.Model(&domain.Rating{}).Where("id = ?", stored.ID).Updates(map[string]interface{}{
				"rating": stored.Rating,
				"review": stored.Review,
			}).Error
			if err != nil {
				return err
			}
		}

		return tx.Model(&domain.Course{}).Where("id = ?", courseID).
			Update("average_rating", course.AverageRating).Error
	})
	if err != nil {
		return nil, domain.Rating{}, err
	}
	return &course, stored, nil
}

// AuditRatings recomputes every course average from its stored ratings and fixes the ones
// that drifted by more than tolerance. It returns the ids it corrected.
func (r *CourseRepository) AuditRatings(ctx context.Context, tolerance float64) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&domain.Course{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}

	var fixed []uuid.UUID
	for _, id := range ids {
		corrected, err := r.auditCourse(ctx, id, tolerance)
		if err != nil {
			return fixed, err
		}
		if corrected {
			fixed = append(fixed, id)
		}
	}
	return fixed, nil
}

// auditCourse holds the same row lock as Rate, so the ratings it averages are the committed ones.
func (r *CourseRepository) auditCourse(ctx context.Context, id uuid.UUID, tolerance float64) (bool, error) {
	corrected := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course domain.Course
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "average_rating").
			First(&course, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		var ratings []domain.Rating
		if err := tx.Where("course_id = ?", id).Find(&ratings).Error; err != nil {
			return err
		}

		want := domain.AverageRating(ratings)
		if math.Abs(want-course.AverageRating) <= tolerance {
			return nil
		}
		corrected = true
		return tx.Model(&domain.Course{}).
			Where("id = ?", id).
			UpdateColumns(map[string]interface{}{"average_rating": want, "updated_at": time.Now()}).Error
	})
	return corrected, err
}
