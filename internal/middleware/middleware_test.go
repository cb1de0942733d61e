package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"learnplatform/internal/domain"
	"learnplatform/internal/infrastructure/authz"
	"learnplatform/internal/infrastructure/security"
	"learnplatform/internal/platform/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func echoIdentity(c *gin.Context) {
	id, ok := Identity(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"anonymous": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": id.UserID, "role": id.Role})
}

func TestAuthMiddleware(t *testing.T) {
	tm := security.NewTokenManager("k", time.Hour)
	r := gin.New()
	r.GET("/private", AuthMiddleware(tm), echoIdentity)

	w := do(r, http.MethodGet, "/private", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"auth"`)

	w = do(r, http.MethodGet, "/private", "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Token abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	id := uuid.New()
	tok, err := tm.Generate(id, domain.RoleInstructor)
	require.NoError(t, err)
	w = do(r, http.MethodGet, "/private", tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), id.String())
}

func TestOptionalAuthTreatsBadTokenAsAnonymous(t *testing.T) {
	tm := security.NewTokenManager("k", time.Hour)
	r := gin.New()
	r.GET("/public", OptionalAuth(tm), echoIdentity)

	w := do(r, http.MethodGet, "/public", "garbage")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "anonymous")

	tok, err := tm.Generate(uuid.New(), domain.RoleStudent)
	require.NoError(t, err)
	w = do(r, http.MethodGet, "/public", tok)
	assert.Contains(t, w.Body.String(), `"role":"student"`)
}

func TestRequirePermission(t *testing.T) {
	tm := security.NewTokenManager("k", time.Hour)
	e, err := authz.NewEnforcer()
	require.NoError(t, err)

	r := gin.New()
	r.GET("/instructor", AuthMiddleware(tm), RequirePermission(e, logger.NewNop(), authz.ObjInstructorCourses, authz.ActRead), echoIdentity)

	student, _ := tm.Generate(uuid.New(), domain.RoleStudent)
	inst, _ := tm.Generate(uuid.New(), domain.RoleInstructor)
	admin, _ := tm.Generate(uuid.New(), domain.RoleAdmin)

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/instructor", student).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/instructor", inst).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/instructor", admin).Code)
}

func TestRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	r := gin.New()
	r.POST("/login", NewRateLimiter(client).Limit("login", 3, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, do(r, http.MethodPost, "/login", "").Code)
	}
	w := do(r, http.MethodPost, "/login", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	mr.FastForward(2 * time.Minute)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodPost, "/login", "").Code)
}

func TestRateLimiterWithoutRedis(t *testing.T) {
	r := gin.New()
	r.POST("/login", NewRateLimiter(nil).Limit("login", 1, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, do(r, http.MethodPost, "/login", "").Code)
	}
}

func TestRequestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(RequestLogger(logger.FromZap(zap.New(core))), Metrics())
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	do(r, http.MethodGet, "/ok", "")
	do(r, http.MethodGet, "/bad", "")
	do(r, http.MethodGet, "/boom", "")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "/boom", entries[2].ContextMap()["path"])
}
