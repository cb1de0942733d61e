package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"learnplatform/internal/domain"
	"learnplatform/internal/infrastructure/cache"
	"learnplatform/internal/infrastructure/repository"
	"learnplatform/internal/metrics"
	"learnplatform/internal/platform/logger"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

type CourseUseCase struct {
	courseRepo   *repository.CourseRepository
	progressRepo *repository.ProgressRepository
	cache        *cache.CourseCache
	log          *logger.Logger
}

func NewCourseUseCase(
	cr *repository.CourseRepository,
	pr *repository.ProgressRepository,
	cc *cache.CourseCache,
	log *logger.Logger,
) *CourseUseCase {
	return &CourseUseCase{courseRepo: cr, progressRepo: pr, cache: cc, log: log}
}

type LessonInput struct {
	ID          string `json:"id"`
	Title       string `json:"title" validate:"required,max=200"`
	URL         string `json:"url"`
	Duration    int    `json:"duration" validate:"min=0"`
	Description string `json:"description"`
	Order       int    `json:"order" validate:"min=0"`
}

type CourseInput struct {
	Title       string        `json:"title" validate:"required,max=200"`
	Description string        `json:"description" validate:"required"`
	Category    string        `json:"category" validate:"required"`
	Difficulty  string        `json:"difficulty"`
	Price       float64       `json:"price" validate:"min=0"`
	Thumbnail   string        `json:"thumbnail"`
	Tags        []string      `json:"tags"`
	IsPublished *bool         `json:"isPublished"`
	Lessons     []LessonInput `json:"lessons" validate:"dive"`
}

// CoursePatch carries only the fields the caller sent.
type CoursePatch struct {
	Title        *string        `json:"title" validate:"omitempty,max=200"`
	Description  *string        `json:"description"`
	Category     *string        `json:"category"`
	Difficulty   *string        `json:"difficulty"`
	Price        *float64       `json:"price" validate:"omitempty,min=0"`
	Thumbnail    *string        `json:"thumbnail"`
	Tags         *[]string      `json:"tags"`
	IsPublished  *bool          `json:"isPublished"`
	InstructorID *string        `json:"instructorId"`
	Lessons      *[]LessonInput `json:"lessons" validate:"omitempty,dive"`
}

// NormalizePage validates page and clamps limit; limit 0 means the default.
func NormalizePage(page, limit int) (int, int, error) {
	if page < 1 {
		return 0, 0, domain.Validation("page must be a positive integer")
	}
	switch {
	case limit == 0:
		limit = DefaultPageLimit
	case limit < 1:
		limit = 1
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}
	return page, limit, nil
}

func (uc *CourseUseCase) List(ctx context.Context, f domain.CourseFilter, page, limit int) (*domain.CoursePage, error) {
	page, limit, err := NormalizePage(page, limit)
	if err != nil {
		return nil, err
	}
	f.Search = strings.TrimSpace(f.Search)

	cached, snap, ok := uc.cache.GetList(ctx, f, page, limit)
	if ok {
		return cached, nil
	}

	courses, total, err := uc.courseRepo.List(ctx, f, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []domain.Course{}
	}
	result := &domain.CoursePage{Courses: courses, Pagination: domain.NewPagination(total, page, limit)}
	uc.cache.SetList(ctx, snap, result)
	return result, nil
}

func (uc *CourseUseCase) Get(ctx context.Context, id uuid.UUID, role domain.Role) (*domain.Course, error) {
	course, snap, ok := uc.cache.GetCourse(ctx, id)
	if !ok {
		var err error
		course, err = uc.courseRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		uc.cache.SetCourse(ctx, snap, course)
	}
	if !course.VisibleTo(role) {
		return nil, domain.ErrCourseUnavailable
	}
	return course, nil
}

func parseCategory(s string) (domain.Category, error) {
	c := domain.Category(strings.TrimSpace(s))
	if !c.Valid() {
		return "", domain.Validation("invalid category %q", s)
	}
	return c, nil
}

func parseDifficulty(s string) (domain.Difficulty, error) {
	d := domain.Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if d == "" {
		return domain.DifficultyBeginner, nil
	}
	if !d.Valid() {
		return "", domain.Validation("invalid difficulty %q", s)
	}
	return d, nil
}

func buildLessons(in []LessonInput) ([]domain.Lesson, error) {
	lessons := make([]domain.Lesson, 0, len(in))
	for i, l := range in {
		lesson := domain.Lesson{
			Title:       strings.TrimSpace(l.Title),
			MediaURL:    l.URL,
			Duration:    l.Duration,
			Description: l.Description,
			Order:       l.Order,
		}
		if lesson.Order == 0 {
			lesson.Order = i + 1
		}
		if l.ID != "" {
			id, err := uuid.Parse(l.ID)
			if err != nil {
				return nil, domain.Validation("invalid lesson id %q", l.ID)
			}
			lesson.ID = id
		}
		lessons = append(lessons, lesson)
	}
	return lessons, nil
}

func (uc *CourseUseCase) Create(ctx context.Context, instructorID uuid.UUID, role domain.Role, in CourseInput) (*domain.Course, error) {
	if !role.CanAuthor() {
		return nil, domain.ErrAuthorsOnly
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := check(in); err != nil {
		return nil, err
	}
	category, err := parseCategory(in.Category)
	if err != nil {
		return nil, err
	}
	difficulty, err := parseDifficulty(in.Difficulty)
	if err != nil {
		return nil, err
	}
	lessons, err := buildLessons(in.Lessons)
	if err != nil {
		return nil, err
	}

	published := true
	if in.IsPublished != nil {
		published = *in.IsPublished
	}

	course := &domain.Course{
		ID:           uuid.New(),
		Title:        in.Title,
		Description:  in.Description,
		InstructorID: instructorID,
		Category:     category,
		Difficulty:   difficulty,
		Price:        in.Price,
		Thumbnail:    in.Thumbnail,
		Tags:         domain.CleanTags(in.Tags),
		IsPublished:  published,
		Lessons:      lessons,
	}
	if err := uc.courseRepo.Create(ctx, course); err != nil {
		return nil, err
	}
	uc.invalidate(ctx, uuid.Nil)
	uc.log.Info("course created", "course_id", course.ID, "instructor_id", instructorID)

	course.EnrolledStudents = []uuid.UUID{}
	course.Ratings = []domain.Rating{}
	return course, nil
}

func (uc *CourseUseCase) Update(ctx context.Context, id, requesterID uuid.UUID, role domain.Role, patch CoursePatch) (*domain.Course, error) {
	if err := check(patch); err != nil {
		return nil, err
	}
	course, err := uc.courseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if course.InstructorID != requesterID && role != domain.RoleAdmin {
		return nil, domain.ErrNotCourseOwner
	}

	if patch.Title != nil {
		if course.Title = strings.TrimSpace(*patch.Title); course.Title == "" {
			return nil, domain.Validation("title is required")
		}
	}
	if patch.Description != nil {
		if course.Description = strings.TrimSpace(*patch.Description); course.Description == "" {
			return nil, domain.Validation("description is required")
		}
	}
	if patch.Category != nil {
		if course.Category, err = parseCategory(*patch.Category); err != nil {
			return nil, err
		}
	}
	if patch.Difficulty != nil {
		if course.Difficulty, err = parseDifficulty(*patch.Difficulty); err != nil {
			return nil, err
		}
	}
	if patch.Price != nil {
		course.Price = *patch.Price
	}
	if patch.Thumbnail != nil {
		course.Thumbnail = *patch.Thumbnail
	}
	if patch.Tags != nil {
		course.Tags = domain.CleanTags(*patch.Tags)
	}
	if patch.IsPublished != nil {
		course.IsPublished = *patch.IsPublished
	}
	if patch.InstructorID != nil {
		newOwner, err := uuid.Parse(*patch.InstructorID)
		if err != nil {
			return nil, domain.Validation("invalid instructorId")
		}
		if newOwner != course.InstructorID && role != domain.RoleAdmin {
			return nil, domain.Forbidden("only an admin can reassign a course")
		}
		course.InstructorID = newOwner
	}
	if patch.Lessons != nil {
		if course.Lessons, err = buildLessons(*patch.Lessons); err != nil {
			return nil, err
		}
	}

	if err := uc.courseRepo.Update(ctx, course, patch.Lessons != nil); err != nil {
		return nil, err
	}
	uc.invalidate(ctx, id)
	uc.log.Info("course updated", "course_id", id, "by", requesterID)

	return uc.courseRepo.GetByID(ctx, id)
}

// InstructorCourses lists the caller's own courses with the students enrolled in each.
func (uc *CourseUseCase) InstructorCourses(ctx context.Context, instructorID uuid.UUID, role domain.Role) ([]domain.InstructorCourse, error) {
	if !role.CanAuthor() {
		return nil, domain.ErrAuthorsOnly
	}
	courses, err := uc.courseRepo.ListByInstructor(ctx, instructorID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(courses))
	for i := range courses {
		ids[i] = courses[i].ID
	}
	rosters, err := uc.progressRepo.Roster(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.InstructorCourse, 0, len(courses))
	for _, c := range courses {
		roster := rosters[c.ID]
		if roster == nil {
			roster = []domain.UserSummary{}
		}
		out = append(out, domain.InstructorCourse{Course: c, Roster: roster})
	}
	return out, nil
}

// Rate records userID's rating; a repeat call replaces the previous one.
func (uc *CourseUseCase) Rate(ctx context.Context, courseID, userID uuid.UUID, rating int, review string) (*domain.Course, error) {
	if rating < domain.MinRating || rating > domain.MaxRating {
		return nil, domain.Validation("rating must be between %d and %d", domain.MinRating, domain.MaxRating)
	}
	course, _, err := uc.courseRepo.Rate(ctx, courseID, userID, rating, review)
	if err != nil {
		return nil, err
	}
	uc.invalidate(ctx, courseID)
	return course, nil
}

// AuditRatings recomputes stored averages and reports how many were wrong.
func (uc *CourseUseCase) AuditRatings(ctx context.Context) (int, error) {
	fixed, err := uc.courseRepo.AuditRatings(ctx, 1e-9)
	for _, id := range fixed {
		uc.invalidate(ctx, id)
	}
	if len(fixed) > 0 {
		metrics.RatingAuditCorrections.Add(float64(len(fixed)))
		uc.log.Warn("average rating drift corrected", "courses", len(fixed))
	}
	return len(fixed), err
}

func (uc *CourseUseCase) invalidate(ctx context.Context, id uuid.UUID) {
	if err := uc.cache.Invalidate(ctx, id); err != nil {
		uc.log.Warn("course cache invalidation failed", "course_id", id, "error", err)
	}
}

// SeedIfEmpty fills an empty catalog with sample courses owned by ownerID.
func (uc *CourseUseCase) SeedIfEmpty(ctx context.Context, ownerID uuid.UUID) (int, error) {
	count, err := uc.courseRepo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}
	for _, in := range sampleCourses() {
		if _, err := uc.Create(ctx, ownerID, domain.RoleAdmin, in); err != nil {
			return 0, err
		}
	}
	return len(sampleCourses()), nil
}

func sampleCourses() []CourseInput {
	return []CourseInput{
		{
			Title:       "Introduction to Machine Learning",
			Description: "Supervised and unsupervised learning with hands-on Python notebooks.",
			Category:    "Machine Learning",
			Difficulty:  "beginner",
			Tags:        []string{"python", "ml", "scikit-learn"},
			Lessons: []LessonInput{
				{Title: "What is machine learning?", Duration: 600},
				{Title: "Linear regression", Duration: 900},
				{Title: "Classification", Duration: 900},
			},
		},
		{
			Title:       "Deep Learning with Neural Networks",
			Description: "Build and train neural networks, from perceptrons to CNNs.",
			Category:    "Deep Learning",
			Difficulty:  "intermediate",
			Price:       49,
			Tags:        []string{"neural networks", "pytorch"},
			Lessons: []LessonInput{
				{Title: "Perceptrons", Duration: 700},
				{Title: "Backpropagation", Duration: 1200},
			},
		},
		{
			Title:       "Modern Web Development",
			Description: "Full-stack web apps with a REST API and a single-page front end.",
			Category:    "Web Development",
			Difficulty:  "beginner",
			Tags:        []string{"javascript", "react", "api"},
			Lessons: []LessonInput{
				{Title: "HTTP and REST", Duration: 800},
				{Title: "Components and state", Duration: 1000},
			},
		},
	}
}
