package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnplatform/internal/domain"
)

func newTestCache(t *testing.T) (*CourseCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCourseCache(client), mr
}

func TestCourseDetailRoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	course := &domain.Course{ID: uuid.New(), Title: "Cached", EnrolledStudents: []uuid.UUID{uuid.New()}}

	_, snap, ok := c.GetCourse(ctx, course.ID)
	assert.False(t, ok)

	c.SetCourse(ctx, snap, course)
	got, _, ok := c.GetCourse(ctx, course.ID)
	require.True(t, ok)
	assert.Equal(t, "Cached", got.Title)
	assert.Equal(t, course.EnrolledStudents, got.EnrolledStudents)
	assert.True(t, mr.TTL(snap.key) > 0)

	require.NoError(t, c.Invalidate(ctx, course.ID))
	_, _, ok = c.GetCourse(ctx, course.ID)
	assert.False(t, ok)
}

func TestInvalidateOnlyRetiresThatCourse(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	a := &domain.Course{ID: uuid.New(), Title: "A"}
	b := &domain.Course{ID: uuid.New(), Title: "B"}
	for _, course := range []*domain.Course{a, b} {
		_, snap, _ := c.GetCourse(ctx, course.ID)
		c.SetCourse(ctx, snap, course)
	}

	require.NoError(t, c.Invalidate(ctx, a.ID))
	_, _, ok := c.GetCourse(ctx, a.ID)
	assert.False(t, ok)
	_, _, ok = c.GetCourse(ctx, b.ID)
	assert.True(t, ok)
}

func TestStaleDetailNotStoredAfterInvalidate(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	id := uuid.New()

	// a reader misses, a writer invalidates, then the reader stores what it read earlier
	_, snap, ok := c.GetCourse(ctx, id)
	require.False(t, ok)
	require.NoError(t, c.Invalidate(ctx, id))
	c.SetCourse(ctx, snap, &domain.Course{ID: id, Title: "stale", IsPublished: true})

	_, _, ok = c.GetCourse(ctx, id)
	assert.False(t, ok)
}

func TestListPagesRetiredByInvalidate(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	f := domain.CourseFilter{Search: "Go"}
	page := &domain.CoursePage{
		Courses:    []domain.Course{{ID: uuid.New(), Title: "Go"}},
		Pagination: domain.NewPagination(1, 1, 10),
	}

	_, snap, ok := c.GetList(ctx, f, 1, 10)
	require.False(t, ok)
	c.SetList(ctx, snap, page)
	got, _, ok := c.GetList(ctx, f, 1, 10)
	require.True(t, ok)
	assert.Len(t, got.Courses, 1)

	_, _, ok = c.GetList(ctx, domain.CourseFilter{Search: "Go", Role: domain.RoleAdmin}, 1, 10)
	assert.False(t, ok, "authors get a separate key space")

	require.NoError(t, c.Invalidate(ctx, uuid.Nil))
	_, _, ok = c.GetList(ctx, f, 1, 10)
	assert.False(t, ok)
}

func TestStaleListNotStoredAfterInvalidate(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	f := domain.CourseFilter{}

	_, snap, ok := c.GetList(ctx, f, 1, 10)
	require.False(t, ok)
	require.NoError(t, c.Invalidate(ctx, uuid.New()))
	c.SetList(ctx, snap, &domain.CoursePage{
		Courses:    []domain.Course{{ID: uuid.New(), Title: "stale"}},
		Pagination: domain.NewPagination(1, 1, 10),
	})

	_, _, ok = c.GetList(ctx, f, 1, 10)
	assert.False(t, ok)
}

func TestNilCacheIsNoop(t *testing.T) {
	var c *CourseCache
	ctx := context.Background()
	_, snap, ok := c.GetCourse(ctx, uuid.New())
	assert.False(t, ok)
	c.SetCourse(ctx, snap, &domain.Course{ID: uuid.New()})
	_, snap, ok = c.GetList(ctx, domain.CourseFilter{}, 1, 10)
	assert.False(t, ok)
	c.SetList(ctx, snap, &domain.CoursePage{})
	assert.NoError(t, c.Invalidate(ctx, uuid.New()))
	assert.NoError(t, NewCourseCache(nil).Ping(ctx))
}
