package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"learnplatform/internal/domain"
	"learnplatform/internal/infrastructure/authz"
	"learnplatform/internal/infrastructure/security"
	"learnplatform/internal/platform/logger"
)

const (
	ctxIdentity = "identity"
	ctxUserID   = "userId"
)

type TokenVerifier interface {
	Verify(token string) (security.Identity, error)
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func abort(c *gin.Context, status int, kind domain.ErrorKind, message string) {
	body := gin.H{"message": message}
	if kind != "" {
		body["error"] = kind
	}
	c.AbortWithStatusJSON(status, body)
}

func setIdentity(c *gin.Context, id security.Identity) {
	c.Set(ctxIdentity, id)
	c.Set(ctxUserID, id.UserID.String())
}

// AuthMiddleware rejects requests without a valid bearer token with 401.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abort(c, http.StatusUnauthorized, domain.KindAuth, "Authorization token missing")
			return
		}
		id, err := verifier.Verify(token)
		if err != nil {
			abort(c, http.StatusUnauthorized, domain.KindAuth, "Invalid or expired token")
			return
		}
		setIdentity(c, id)
		c.Next()
	}
}

// OptionalAuth attaches the identity when a valid token is present and treats
// everything else as an anonymous request.
func OptionalAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if id, err := verifier.Verify(token); err == nil {
				setIdentity(c, id)
			}
		}
		c.Next()
	}
}

// Identity returns what the auth middleware stored, ok=false for anonymous requests.
func Identity(c *gin.Context) (security.Identity, bool) {
	v, ok := c.Get(ctxIdentity)
	if !ok {
		return security.Identity{}, false
	}
	id, ok := v.(security.Identity)
	return id, ok
}

// RequirePermission lets the request through only when the caller's role may perform act on obj.
func RequirePermission(enforcer *authz.Enforcer, log *logger.Logger, obj, act string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := Identity(c)
		if !ok {
			abort(c, http.StatusUnauthorized, domain.KindAuth, "Authorization token missing")
			return
		}
		allowed, err := enforcer.Allowed(id.Role, obj, act)
		if err != nil {
			log.Error("authorization check failed", "error", err, "object", obj, "action", act)
			abort(c, http.StatusInternalServerError, "", "Internal server error")
			return
		}
		if !allowed {
			abort(c, http.StatusForbidden, domain.KindForbidden, "Access denied")
			return
		}
		c.Next()
	}
}
