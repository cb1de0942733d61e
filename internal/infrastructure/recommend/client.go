package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	gobreaker "github.com/sony/gobreaker/v2"

	"learnplatform/internal/domain"
	"learnplatform/internal/metrics"
	"learnplatform/internal/platform/logger"
)

const breakerName = "recommender"

type Options struct {
	BaseURL string
	Timeout time.Duration
	// consecutive failures before the breaker opens
	FailureThreshold uint32
	// how long the breaker stays open before letting a trial call through
	OpenTimeout time.Duration
}

func (o *Options) defaults() {
	if o.Timeout <= 0 {
		o.Timeout = 3 * time.Second
	}
	if o.FailureThreshold == 0 {
		o.FailureThreshold = 5
	}
	if o.OpenTimeout <= 0 {
		o.OpenTimeout = 30 * time.Second
	}
}

// Client calls the external scoring service through a circuit breaker.
type Client struct {
	http *resty.Client
	cb   *gobreaker.CircuitBreaker[[]domain.Recommendation]
	log  *logger.Logger
}

func NewClient(opts Options, log *logger.Logger) *Client {
	opts.defaults()
	if log == nil {
		log = logger.NewNop()
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]domain.Recommendation](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		// a caller that went away says nothing about the service
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &Client{
		http: resty.New().
			SetBaseURL(opts.BaseURL).
			SetTimeout(opts.Timeout).
			SetHeader("Content-Type", "application/json"),
		cb:  cb,
		log: log,
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// State reports the breaker state, for health output.
func (c *Client) State() string {
	return c.cb.State().String()
}

// IsOpen tells whether err came from the breaker rejecting the call.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func (c *Client) Recommend(ctx context.Context, req domain.RecommendationRequest) ([]domain.Recommendation, error) {
	return c.cb.Execute(func() ([]domain.Recommendation, error) {
		return c.call(ctx, req)
	})
}

type wireRecommendation struct {
	ID               string          `json:"id"`
	MongoID          string          `json:"_id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Category         string          `json:"category"`
	Difficulty       string          `json:"difficulty"`
	AverageRating    float64         `json:"averageRating"`
	EnrolledStudents json.RawMessage `json:"enrolledStudents"`
	SimilarityScore  float64         `json:"similarity_score"`
	Reason           string          `json:"reason"`
	Tags             []string        `json:"tags"`
}

type wireResponse struct {
	UserID          string               `json:"user_id"`
	Recommendations []wireRecommendation `json:"recommendations"`
}

func (c *Client) call(ctx context.Context, req domain.RecommendationRequest) ([]domain.Recommendation, error) {
	var out wireResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/recommend")
	if err != nil {
		return nil, fmt.Errorf("recommender request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("recommender returned %d", resp.StatusCode())
	}
	if out.Recommendations == nil && len(resp.Body()) > 0 {
		// SetResult only decodes JSON content types
		if err := json.Unmarshal(resp.Body(), &out); err != nil {
			return nil, fmt.Errorf("decode recommender response: %w", err)
		}
	}

	recs := make([]domain.Recommendation, 0, len(out.Recommendations))
	for _, w := range out.Recommendations {
		id := w.ID
		if id == "" {
			id = w.MongoID
		}
		recs = append(recs, domain.Recommendation{
			ID:               id,
			Title:            w.Title,
			Description:      w.Description,
			Category:         w.Category,
			Difficulty:       w.Difficulty,
			AverageRating:    w.AverageRating,
			EnrolledStudents: countStudents(w.EnrolledStudents),
			SimilarityScore:  w.SimilarityScore,
			Reason:           w.Reason,
			Tags:             w.Tags,
		})
	}
	return recs, nil
}

// countStudents accepts either a number or a list of ids.
func countStudents(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n int
	if json.Unmarshal(raw, &n) == nil {
		return n
	}
	var list []json.RawMessage
	if json.Unmarshal(raw, &list) == nil {
		return len(list)
	}
	return 0
}
