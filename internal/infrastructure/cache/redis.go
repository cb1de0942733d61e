package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"learnplatform/internal/domain"
	"learnplatform/internal/metrics"
)

const (
	detailTTL  = time.Hour
	listTTL    = 10 * time.Minute
	versionKey = "courses:list:version"
)

// CourseCache is a read-through cache for course detail and list pages. Every key embeds a
// version counter (one per course for details, one shared by all list pages); Invalidate bumps
// the counters, which retires the old entries at once.
// A nil *CourseCache or one without a client is a no-op.
type CourseCache struct {
	client *redis.Client
}

func NewCourseCache(client *redis.Client) *CourseCache {
	return &CourseCache{client: client}
}

// Snapshot is the key a lookup missed on. Storing through it after the database read means a
// value read before a concurrent Invalidate lands under a retired version and is never served.
// The zero Snapshot stores nothing.
type Snapshot struct {
	key string
}

func (c *CourseCache) enabled() bool {
	return c != nil && c.client != nil
}

func courseVersionKey(id uuid.UUID) string {
	return "course:version:" + id.String()
}

func (c *CourseCache) version(ctx context.Context, key string) (int64, error) {
	v, err := c.client.Get(ctx, key).Int64()
	if err != nil && err != redis.Nil {
		return 0, err
	}
	return v, nil
}

func (c *CourseCache) detailKey(ctx context.Context, id uuid.UUID) (string, error) {
	v, err := c.version(ctx, courseVersionKey(id))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("course:detail:v%d:%s", v, id), nil
}

func (c *CourseCache) GetCourse(ctx context.Context, id uuid.UUID) (*domain.Course, Snapshot, bool) {
	if !c.enabled() {
		return nil, Snapshot{}, false
	}
	key, err := c.detailKey(ctx, id)
	if err != nil {
		return nil, Snapshot{}, false
	}
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		metrics.CacheMisses.WithLabelValues("detail").Inc()
		return nil, Snapshot{key: key}, false
	}
	var course domain.Course
	if json.Unmarshal(val, &course) != nil {
		metrics.CacheMisses.WithLabelValues("detail").Inc()
		return nil, Snapshot{key: key}, false
	}
	metrics.CacheHits.WithLabelValues("detail").Inc()
	return &course, Snapshot{}, true
}

// SetCourse stores course under the key GetCourse missed on.
func (c *CourseCache) SetCourse(ctx context.Context, snap Snapshot, course *domain.Course) {
	c.store(ctx, snap, course, detailTTL)
}

func (c *CourseCache) listKey(ctx context.Context, f domain.CourseFilter, page, limit int) (string, error) {
	version, err := c.version(ctx, versionKey)
	if err != nil {
		return "", err
	}
	scope := "published"
	if f.Role.CanAuthor() {
		scope = "all"
	}
	return fmt.Sprintf("courses:list:v%d:%s:%s:%s:%s:%d:%d",
		version, scope, f.Category, f.Difficulty, strings.ToLower(strings.TrimSpace(f.Search)), page, limit), nil
}

func (c *CourseCache) GetList(ctx context.Context, f domain.CourseFilter, page, limit int) (*domain.CoursePage, Snapshot, bool) {
	if !c.enabled() {
		return nil, Snapshot{}, false
	}
	key, err := c.listKey(ctx, f, page, limit)
	if err != nil {
		return nil, Snapshot{}, false
	}
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		metrics.CacheMisses.WithLabelValues("list").Inc()
		return nil, Snapshot{key: key}, false
	}
	var result domain.CoursePage
	if json.Unmarshal(val, &result) != nil {
		metrics.CacheMisses.WithLabelValues("list").Inc()
		return nil, Snapshot{key: key}, false
	}
	metrics.CacheHits.WithLabelValues("list").Inc()
	return &result, Snapshot{}, true
}

// SetList stores a page under the key GetList missed on.
func (c *CourseCache) SetList(ctx context.Context, snap Snapshot, result *domain.CoursePage) {
	c.store(ctx, snap, result, listTTL)
}

func (c *CourseCache) store(ctx context.Context, snap Snapshot, v any, ttl time.Duration) {
	if !c.enabled() || snap.key == "" {
		return
	}
	if data, err := json.Marshal(v); err == nil {
		c.client.Set(ctx, snap.key, data, ttl)
	}
}

// Invalidate retires the detail entry of id and every cached list page.
// uuid.Nil only retires the list pages.
func (c *CourseCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	if !c.enabled() {
		return nil
	}
	pipe := c.client.TxPipeline()
	if id != uuid.Nil {
		pipe.Incr(ctx, courseVersionKey(id))
	}
	pipe.Incr(ctx, versionKey)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *CourseCache) Ping(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Ping(ctx).Err()
}
