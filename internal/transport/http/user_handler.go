package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"learnplatform/internal/application/usecase"
	"learnplatform/internal/platform/logger"
)

type UserHandler struct {
	users           *usecase.UserUseCase
	recommendations *usecase.RecommendationUseCase
	log             *logger.Logger
}

func NewUserHandler(users *usecase.UserUseCase, recs *usecase.RecommendationUseCase, log *logger.Logger) *UserHandler {
	return &UserHandler{users: users, recommendations: recs, log: log}
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.users.Profile(c.Request.Context(), identity(c).UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req usecase.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	profile, err := h.users.UpdateProfile(c.Request.Context(), identity(c).UserID, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Recommendations never fails because of the scoring service; it falls back to static picks.
func (h *UserHandler) Recommendations(c *gin.Context) {
	recs, err := h.recommendations.Get(c.Request.Context(), identity(c).UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}
