package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"learnplatform/internal/domain"
	"learnplatform/internal/infrastructure/security"
	"learnplatform/internal/middleware"
	"learnplatform/internal/platform/logger"
)

var kindStatus = map[domain.ErrorKind]int{
	domain.KindValidation: http.StatusBadRequest,
	domain.KindAuth:       http.StatusUnauthorized,
	domain.KindForbidden:  http.StatusForbidden,
	domain.KindNotFound:   http.StatusNotFound,
	domain.KindConflict:   http.StatusConflict,
}

// respondError writes domain errors as {message, error} and hides everything else behind a 500.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	_ = c.Error(err)

	var de *domain.Error
	if errors.As(err, &de) {
		status, ok := kindStatus[de.Kind]
		if !ok {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"message": de.Message, "error": de.Kind})
		return
	}

	log.Error("request failed",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"error", err,
	)
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": message, "error": domain.KindValidation})
}

// identity is only called behind AuthMiddleware, so the identity is always present.
func identity(c *gin.Context) security.Identity {
	id, _ := middleware.Identity(c)
	return id
}

// callerRole is empty for anonymous requests on optional-auth routes.
func callerRole(c *gin.Context) domain.Role {
	if id, ok := middleware.Identity(c); ok {
		return id.Role
	}
	return ""
}

// courseParam parses a course id path parameter; a malformed id cannot name a course.
func courseParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, domain.ErrCourseNotFound
	}
	return id, nil
}
