package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"learnplatform/internal/application/usecase"
	"learnplatform/internal/domain"
	"learnplatform/internal/platform/logger"
)

type CourseHandler struct {
	courses    *usecase.CourseUseCase
	enrollment *usecase.EnrollmentUseCase
	log        *logger.Logger
}

func NewCourseHandler(courses *usecase.CourseUseCase, enrollment *usecase.EnrollmentUseCase, log *logger.Logger) *CourseHandler {
	return &CourseHandler{courses: courses, enrollment: enrollment, log: log}
}

// GET /api/courses
func (h *CourseHandler) List(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		badRequest(c, "page must be a positive integer")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		badRequest(c, "limit must be an integer")
		return
	}

	filter := domain.CourseFilter{
		Category:   domain.Category(c.Query("category")),
		Difficulty: domain.Difficulty(c.Query("difficulty")),
		Search:     c.Query("search"),
		Role:       callerRole(c),
	}
	res, err := h.courses.List(c.Request.Context(), filter, page, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/courses/:id
func (h *CourseHandler) GetOne(c *gin.Context) {
	id, err := courseParam(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	course, err := h.courses.Get(c.Request.Context(), id, callerRole(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

// GET /api/courses/instructor
func (h *CourseHandler) Instructor(c *gin.Context) {
	who := identity(c)
	courses, err := h.courses.InstructorCourses(c.Request.Context(), who.UserID, who.Role)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "courses": courses})
}

// POST /api/courses
func (h *CourseHandler) Create(c *gin.Context) {
	var in usecase.CourseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	who := identity(c)
	course, err := h.courses.Create(c.Request.Context(), who.UserID, who.Role, in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Course created successfully",
		"course":  course,
	})
}

// PUT /api/courses/:id
func (h *CourseHandler) Update(c *gin.Context) {
	id, err := courseParam(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var patch usecase.CoursePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	who := identity(c)
	course, err := h.courses.Update(c.Request.Context(), id, who.UserID, who.Role, patch)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Course updated successfully",
		"course":  course,
	})
}

type ratingReq struct {
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

// POST /api/courses/:id/rating
func (h *CourseHandler) Rate(c *gin.Context) {
	id, err := courseParam(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var req ratingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	course, err := h.courses.Rate(c.Request.Context(), id, identity(c).UserID, req.Rating, req.Review)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       "Rating added successfully",
		"averageRating": course.AverageRating,
		"ratings":       course.Ratings,
	})
}

// POST /api/users/enroll/:courseId
func (h *CourseHandler) Enroll(c *gin.Context) {
	id, err := courseParam(c, "courseId")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	who := identity(c)
	progress, err := h.enrollment.Enroll(c.Request.Context(), who.UserID, id, who.Role)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Successfully enrolled in course",
		"progress": progress,
	})
}

// GET /api/users/courses
func (h *CourseHandler) UserCourses(c *gin.Context) {
	who := identity(c)
	res, err := h.enrollment.ListUserCourses(c.Request.Context(), who.UserID, who.Role)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
