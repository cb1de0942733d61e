package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"learnplatform/internal/domain"
	"learnplatform/internal/infrastructure/repository"
	"learnplatform/internal/infrastructure/security"
	"learnplatform/internal/platform/logger"
)

type AuthUseCase struct {
	userRepo     *repository.UserRepository
	progressRepo *repository.ProgressRepository
	hasher       *security.PasswordHasher
	tokenManager *security.TokenManager
	log          *logger.Logger
}

func NewAuthUseCase(
	ur *repository.UserRepository,
	pr *repository.ProgressRepository,
	h *security.PasswordHasher,
	tm *security.TokenManager,
	log *logger.Logger,
) *AuthUseCase {
	return &AuthUseCase{
		userRepo:     ur,
		progressRepo: pr,
		hasher:       h,
		tokenManager: tm,
		log:          log,
	}
}

type RegisterInput struct {
	Name      string      `validate:"required,max=100"`
	Email     string      `validate:"required,email,max=255"`
	Password  string      `validate:"required,min=6"`
	Role      domain.Role `validate:"omitempty,oneof=student instructor"`
	Interests []string
}

type LoginInput struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

type AuthResult struct {
	Token string             `json:"token"`
	User  domain.UserSummary `json:"user"`
}

func (uc *AuthUseCase) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = domain.NormalizeEmail(in.Email)
	if err := check(in); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = domain.RoleStudent
	}

	if _, err := uc.userRepo.GetByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := uc.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:        uuid.New(),
		Name:      in.Name,
		Email:     in.Email,
		Password:  hash,
		Role:      in.Role,
		Interests: domain.CleanTags(in.Interests),
	}
	// the unique index still catches a concurrent registration that slipped past the check
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	uc.log.Info("user registered", "user_id", user.ID, "role", user.Role)

	return uc.issue(user)
}

func (uc *AuthUseCase) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	user, err := uc.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := uc.hasher.Compare(user.Password, in.Password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return uc.issue(user)
}

func (uc *AuthUseCase) issue(user *domain.User) (*AuthResult, error) {
	token, err := uc.tokenManager.Generate(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &AuthResult{Token: token, User: user.Summary()}, nil
}

func (uc *AuthUseCase) Verify(token string) (security.Identity, error) {
	return uc.tokenManager.Validate(token)
}

// CurrentUser is the profile of the token's owner.
func (uc *AuthUseCase) CurrentUser(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	return buildProfile(ctx, uc.userRepo, uc.progressRepo, userID)
}

// EnsureAdmin creates the bootstrap admin account unless the email is already registered.
func (uc *AuthUseCase) EnsureAdmin(ctx context.Context, email, password string) error {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}
	if _, err := uc.userRepo.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	hash, err := uc.hasher.Hash(password)
	if err != nil {
		return err
	}
	admin := &domain.User{Name: "Administrator", Email: email, Password: hash, Role: domain.RoleAdmin}
	if err := uc.userRepo.Create(ctx, admin); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil
		}
		return err
	}
	uc.log.Info("admin account created", "user_id", admin.ID)
	return nil
}

func buildProfile(ctx context.Context, users *repository.UserRepository, progress *repository.ProgressRepository, userID uuid.UUID) (*domain.Profile, error) {
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	records, err := progress.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	// enrollment order, not recent activity
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	entries := make([]domain.EnrollmentEntry, 0, len(records))
	for _, p := range records {
		entry := domain.EnrollmentEntry{
			EnrolledAt: p.CreatedAt,
			Progress:   p.ProgressPercentage,
			Completed:  p.Completed,
		}
		if p.Course != nil {
			entry.Course = p.Course.Summary()
		} else {
			entry.Course = domain.CourseSummary{ID: p.CourseID}
		}
		entries = append(entries, entry)
	}
	return &domain.Profile{User: *user, EnrolledCourses: entries}, nil
}
