package usecase

import (
	"context"

	"github.com/google/uuid"

	"learnplatform/internal/domain"
	"learnplatform/internal/infrastructure/recommend"
	"learnplatform/internal/infrastructure/repository"
	"learnplatform/internal/metrics"
	"learnplatform/internal/platform/logger"
)

// Recommender is the scoring service client.
type Recommender interface {
	Recommend(ctx context.Context, req domain.RecommendationRequest) ([]domain.Recommendation, error)
}

type RecommendationUseCase struct {
	userRepo     *repository.UserRepository
	progressRepo *repository.ProgressRepository
	client       Recommender
	log          *logger.Logger
}

func NewRecommendationUseCase(
	ur *repository.UserRepository,
	pr *repository.ProgressRepository,
	client Recommender,
	log *logger.Logger,
) *RecommendationUseCase {
	return &RecommendationUseCase{userRepo: ur, progressRepo: pr, client: client, log: log}
}

// Profile builds the request sent to the scoring service.
func (uc *RecommendationUseCase) Profile(ctx context.Context, userID uuid.UUID) (domain.RecommendationRequest, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return domain.RecommendationRequest{}, err
	}
	records, err := uc.progressRepo.ListByUser(ctx, userID)
	if err != nil {
		return domain.RecommendationRequest{}, err
	}

	req := domain.RecommendationRequest{
		UserID:           userID.String(),
		UserInterests:    append([]string{}, user.Interests...),
		CompletedCourses: []string{},
		EnrolledCourses:  []string{},
	}
	for _, p := range records {
		req.EnrolledCourses = append(req.EnrolledCourses, p.CourseID.String())
		if p.Completed {
			req.CompletedCourses = append(req.CompletedCourses, p.CourseID.String())
		}
	}
	return req, nil
}

// Get asks the scoring service and falls back to the static list on any failure.
// Failures never reach the caller; only an unknown user is an error.
func (uc *RecommendationUseCase) Get(ctx context.Context, userID uuid.UUID) (*domain.Recommendations, error) {
	req, err := uc.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	recs, err := uc.client.Recommend(ctx, req)
	if err != nil {
		if recommend.IsOpen(err) {
			uc.log.Debug("recommender circuit open, serving fallback", "user_id", userID)
		} else {
			uc.log.Warn("recommender unavailable, serving fallback", "user_id", userID, "error", err)
		}
		metrics.RecommendationRequests.WithLabelValues(domain.SourceFallback).Inc()
		fb := recommend.Fallback(req.UserID)
		return &fb, nil
	}

	metrics.RecommendationRequests.WithLabelValues(domain.SourceService).Inc()
	if recs == nil {
		recs = []domain.Recommendation{}
	}
	return &domain.Recommendations{UserID: req.UserID, Recommendations: recs, Source: domain.SourceService}, nil
}
