package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"learnplatform/internal/domain"
	"learnplatform/internal/infrastructure/repository"
)

type UserUseCase struct {
	userRepo     *repository.UserRepository
	progressRepo *repository.ProgressRepository
}

func NewUserUseCase(ur *repository.UserRepository, pr *repository.ProgressRepository) *UserUseCase {
	return &UserUseCase{userRepo: ur, progressRepo: pr}
}

type ProfileUpdate struct {
	Name      *string  `json:"name" validate:"omitempty,max=100"`
	Interests []string `json:"interests"`
}

func (uc *UserUseCase) Profile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	return buildProfile(ctx, uc.userRepo, uc.progressRepo, userID)
}

func (uc *UserUseCase) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileUpdate) (*domain.Profile, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.Validation("name cannot be empty")
		}
		in.Name = &name
	}
	var interests []string
	if in.Interests != nil {
		interests = domain.CleanTags(in.Interests)
	}
	if _, err := uc.userRepo.UpdateProfile(ctx, userID, in.Name, interests); err != nil {
		return nil, err
	}
	return uc.Profile(ctx, userID)
}
