package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnplatform/internal/domain"
	"learnplatform/internal/infrastructure/recommend"
	"learnplatform/internal/platform/logger"
)

func TestRecommendationsFromService(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	inst := e.register(t, "inst", domain.RoleInstructor)
	student := e.register(t, "stud", domain.RoleStudent)
	name := "Stud"
	_, err := e.profile.UpdateProfile(ctx, student, ProfileUpdate{Name: &name, Interests: []string{"ai"}})
	require.NoError(t, err)

	c := e.newCourse(t, inst, "Enrolled", 1)
	_, err = e.enrollment.Enroll(ctx, student, c.ID, domain.RoleStudent)
	require.NoError(t, err)

	var seen domain.RecommendationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&seen)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user_id":"x","recommendations":[{"id":"r1","title":"Next step"}]}`))
	}))
	defer srv.Close()

	uc := NewRecommendationUseCase(e.users, e.progress, recommend.NewClient(recommend.Options{BaseURL: srv.URL}, nil), logger.NewNop())
	got, err := uc.Get(ctx, student)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceService, got.Source)
	require.Len(t, got.Recommendations, 1)
	assert.Equal(t, "r1", got.Recommendations[0].ID)

	assert.Equal(t, student.String(), seen.UserID)
	assert.Equal(t, []string{"ai"}, seen.UserInterests)
	assert.Equal(t, []string{c.ID.String()}, seen.EnrolledCourses)
	assert.Empty(t, seen.CompletedCourses)
}

func TestRecommendationsFallbackWhenUnreachable(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	student := e.register(t, "stud", domain.RoleStudent)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := recommend.NewClient(recommend.Options{BaseURL: url, Timeout: 200 * time.Millisecond}, nil)
	uc := NewRecommendationUseCase(e.users, e.progress, client, logger.NewNop())

	got, err := uc.Get(ctx, student)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceFallback, got.Source)
	assert.Equal(t, student.String(), got.UserID)
	assert.Len(t, got.Recommendations, 3)

	_, err = uc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUpdateProfile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	student := e.register(t, "stud", domain.RoleStudent)

	_, err := e.profile.UpdateProfile(ctx, student, ProfileUpdate{Name: ptr("   ")})
	assert.Equal(t, domain.KindValidation, kindOf(err))

	p, err := e.profile.UpdateProfile(ctx, student, ProfileUpdate{Interests: []string{"go", "Go", "rust"}})
	require.NoError(t, err)
	assert.Equal(t, "stud", p.Name)
	assert.Equal(t, []string{"go", "rust"}, []string(p.Interests))

	_, err = e.profile.UpdateProfile(ctx, uuid.New(), ProfileUpdate{Name: ptr("x")})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
