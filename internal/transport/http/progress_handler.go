package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"learnplatform/internal/application/usecase"
	"learnplatform/internal/platform/logger"
)

type ProgressHandler struct {
	progress *usecase.ProgressUseCase
	log      *logger.Logger
}

func NewProgressHandler(progress *usecase.ProgressUseCase, log *logger.Logger) *ProgressHandler {
	return &ProgressHandler{progress: progress, log: log}
}

// videoReq also accepts the older videoId/timeWatched field names.
type videoReq struct {
	LessonID       string `json:"lessonId"`
	VideoID        string `json:"videoId"`
	WatchedSeconds *int   `json:"watchedSeconds"`
	TimeWatched    *int   `json:"timeWatched"`
	Completed      bool   `json:"completed"`
}

func (r videoReq) input() usecase.VideoInput {
	in := usecase.VideoInput{LessonID: r.LessonID, Completed: r.Completed}
	if in.LessonID == "" {
		in.LessonID = r.VideoID
	}
	switch {
	case r.WatchedSeconds != nil:
		in.WatchedSeconds = *r.WatchedSeconds
	case r.TimeWatched != nil:
		in.WatchedSeconds = *r.TimeWatched
	}
	return in
}

// GET /api/progress/course/:courseId
func (h *ProgressHandler) Course(c *gin.Context) {
	courseID, err := courseParam(c, "courseId")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	p, err := h.progress.CourseProgress(c.Request.Context(), identity(c).UserID, courseID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// POST /api/progress/video/:courseId
func (h *ProgressHandler) Video(c *gin.Context) {
	courseID, err := courseParam(c, "courseId")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var req videoReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	p, err := h.progress.RecordVideo(c.Request.Context(), identity(c).UserID, courseID, req.input())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /api/progress/overview
func (h *ProgressHandler) Overview(c *gin.Context) {
	overview, err := h.progress.Overview(c.Request.Context(), identity(c).UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}
