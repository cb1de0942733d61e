package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"learnplatform/internal/infrastructure/authz"
	"learnplatform/internal/middleware"
	"learnplatform/internal/platform/logger"
)

type RouterDeps struct {
	Auth     *AuthHandler
	Courses  *CourseHandler
	Users    *UserHandler
	Progress *ProgressHandler

	// BreakerState reports the recommender circuit breaker, shown by /api/health when set.
	BreakerState func() string

	Verifier middleware.TokenVerifier
	Enforcer *authz.Enforcer
	Limiter  *middleware.RateLimiter
	Origins  []string
	Log      *logger.Logger
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Log), middleware.Metrics())

	config := cors.DefaultConfig()
	config.AllowOrigins = d.Origins
	if len(config.AllowOrigins) == 0 {
		config.AllowOrigins = []string{"http://localhost:3000"}
	}
	config.AllowCredentials = true
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"}
	r.Use(cors.New(config))

	authRequired := middleware.AuthMiddleware(d.Verifier)
	optionalAuth := middleware.OptionalAuth(d.Verifier)
	can := func(obj, act string) gin.HandlerFunc {
		return middleware.RequirePermission(d.Enforcer, d.Log, obj, act)
	}

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", d.Limiter.Limit("register", 10, time.Minute), d.Auth.Register)
			auth.POST("/login", d.Limiter.Limit("login", 5, time.Minute), d.Auth.Login)
			auth.GET("/me", authRequired, d.Auth.Me)
		}

		course := api.Group("/courses")
		{
			course.GET("", optionalAuth, d.Courses.List)
			course.GET("/instructor", authRequired, can(authz.ObjInstructorCourses, authz.ActRead), d.Courses.Instructor)
			course.GET("/:id", optionalAuth, d.Courses.GetOne)
			course.POST("", authRequired, can(authz.ObjCourses, authz.ActCreate), d.Courses.Create)
			course.PUT("/:id", authRequired, can(authz.ObjCourses, authz.ActUpdate), d.Courses.Update)
			course.POST("/:id/rating", authRequired, can(authz.ObjCourses, authz.ActRate), d.Courses.Rate)
		}

		user := api.Group("/users")
		user.Use(authRequired)
		{
			user.POST("/enroll/:courseId", can(authz.ObjEnrollments, authz.ActCreate), d.Courses.Enroll)
			user.GET("/courses", can(authz.ObjEnrollments, authz.ActRead), d.Courses.UserCourses)
			user.GET("/profile", can(authz.ObjProfile, authz.ActRead), d.Users.GetProfile)
			user.PUT("/profile", can(authz.ObjProfile, authz.ActWrite), d.Users.UpdateProfile)
			user.GET("/recommendations", can(authz.ObjRecommendations, authz.ActRead), d.Users.Recommendations)
		}

		progress := api.Group("/progress")
		progress.Use(authRequired)
		{
			progress.GET("/overview", can(authz.ObjProgress, authz.ActRead), d.Progress.Overview)
			progress.GET("/course/:courseId", can(authz.ObjProgress, authz.ActRead), d.Progress.Course)
			progress.POST("/video/:courseId", can(authz.ObjProgress, authz.ActWrite), d.Progress.Video)
		}

		api.GET("/health", func(c *gin.Context) {
			body := gin.H{"message": "learnplatform server is running", "status": "ok"}
			if d.BreakerState != nil {
				body["recommender"] = d.BreakerState()
			}
			c.JSON(http.StatusOK, body)
		})
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route not found"})
	})

	return r
}
