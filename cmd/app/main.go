package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"learnplatform/config"
	"learnplatform/internal/application/usecase"
	"learnplatform/internal/domain"
	"learnplatform/internal/infrastructure/authz"
	"learnplatform/internal/infrastructure/cache"
	"learnplatform/internal/infrastructure/recommend"
	"learnplatform/internal/infrastructure/repository"
	"learnplatform/internal/infrastructure/scheduler"
	"learnplatform/internal/infrastructure/security"
	"learnplatform/internal/middleware"
	"learnplatform/internal/platform/logger"
	grpc_server "learnplatform/internal/transport/grpc"
	handlers "learnplatform/internal/transport/http"
)

func main() {
	// .env is optional, app.env and the real environment still apply
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer log.Sync()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	db, err := repository.Open(cfg)
	if err != nil {
		log.Fatal("failed to connect to database", "driver", cfg.DBDriver, "error", err)
	}
	if err := repository.Migrate(db); err != nil {
		log.Fatal("failed to migrate database", "error", err)
	}
	log.Info("database ready", "driver", cfg.DBDriver)

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Fatal("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
		}
		defer rdb.Close()
		log.Info("connected to redis", "addr", cfg.RedisAddr)
	} else {
		log.Warn("REDIS_ADDR not set, course cache and rate limiting disabled")
	}

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	courseCache := cache.NewCourseCache(rdb)

	hasher := security.NewPasswordHasher()
	tokenManager := security.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	recommender := recommend.NewClient(recommend.Options{
		BaseURL: cfg.RecommenderURL,
		Timeout: cfg.RecommenderTimeout,
	}, log)

	authUseCase := usecase.NewAuthUseCase(userRepo, progressRepo, hasher, tokenManager, log)
	courseUseCase := usecase.NewCourseUseCase(courseRepo, progressRepo, courseCache, log)
	enrollmentUseCase := usecase.NewEnrollmentUseCase(userRepo, courseRepo, progressRepo, courseCache, log)
	progressUseCase := usecase.NewProgressUseCase(courseRepo, progressRepo, log)
	userUseCase := usecase.NewUserUseCase(userRepo, progressRepo)
	recommendationUseCase := usecase.NewRecommendationUseCase(userRepo, progressRepo, recommender, log)

	enforcer, err := authz.NewEnforcer()
	if err != nil {
		log.Fatal("failed to load access policy", "error", err)
	}

	bootstrap(context.Background(), cfg, log, authUseCase, courseUseCase, userRepo)

	audit := scheduler.NewRatingAudit(courseUseCase, log)
	if err := audit.Start(cfg.RatingAuditSchedule); err != nil {
		log.Fatal("failed to schedule rating audit", "schedule", cfg.RatingAuditSchedule, "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	healthServer := grpc_server.NewHealthServer(log)
	healthServer.AddCheck("database", grpc_server.DatabaseCheck(db))
	healthServer.AddCheck("redis", courseCache.Ping)
	go healthServer.Run(ctx, 15*time.Second)

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatal("failed to listen", "port", cfg.GRPCPort, "error", err)
	}
	go func() {
		log.Info("grpc health server running", "port", cfg.GRPCPort)
		if err := healthServer.Serve(lis); err != nil {
			log.Error("grpc server stopped", "error", err)
		}
	}()

	router := handlers.NewRouter(handlers.RouterDeps{
		Auth:     handlers.NewAuthHandler(authUseCase, log),
		Courses:  handlers.NewCourseHandler(courseUseCase, enrollmentUseCase, log),
		Users:    handlers.NewUserHandler(userUseCase, recommendationUseCase, log),
		Progress: handlers.NewProgressHandler(progressUseCase, log),

		BreakerState: recommender.State,

		Verifier: authUseCase,
		Enforcer: enforcer,
		Limiter:  middleware.NewRateLimiter(rdb),
		Origins:  cfg.Origins(),
		Log:      log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("http server running", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	audit.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "error", err)
	}
	healthServer.GracefulStop()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server exited")
}

// bootstrap creates the admin account and seeds an empty catalog when configured.
func bootstrap(ctx context.Context, cfg config.Config, log *logger.Logger, auth *usecase.AuthUseCase, courses *usecase.CourseUseCase, users *repository.UserRepository) {
	if cfg.AdminEmail == "" {
		if cfg.SeedCourses {
			log.Warn("SEED_COURSES needs ADMIN_EMAIL to own the sample courses, skipping seed")
		}
		return
	}
	if err := auth.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatal("failed to create admin", "error", err)
	}
	if !cfg.SeedCourses {
		return
	}

	admin, err := users.GetByEmail(ctx, cfg.AdminEmail)
	if err != nil {
		log.Fatal("failed to load admin", "error", err)
	}
	if admin.Role != domain.RoleAdmin {
		log.Warn("ADMIN_EMAIL belongs to a non-admin account, skipping seed", "role", admin.Role)
		return
	}
	n, err := courses.SeedIfEmpty(ctx, admin.ID)
	if err != nil {
		log.Fatal("failed to seed courses", "error", err)
	}
	if n > 0 {
		log.Info("catalog seeded", "courses", n)
	}
}
