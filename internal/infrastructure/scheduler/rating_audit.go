package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"learnplatform/internal/platform/logger"
)

// RatingAuditor recomputes stored course averages and returns how many it corrected.
type RatingAuditor interface {
	AuditRatings(ctx context.Context) (int, error)
}

type RatingAudit struct {
	cron    *cron.Cron
	auditor RatingAuditor
	log     *logger.Logger
	timeout time.Duration
}

func NewRatingAudit(auditor RatingAuditor, log *logger.Logger) *RatingAudit {
	return &RatingAudit{
		cron:    cron.New(),
		auditor: auditor,
		log:     log,
		timeout: 5 * time.Minute,
	}
}

// Start registers the job on schedule (standard five-field cron syntax) and starts the scheduler.
func (a *RatingAudit) Start(schedule string) error {
	if _, err := a.cron.AddFunc(schedule, a.RunOnce); err != nil {
		return fmt.Errorf("invalid rating audit schedule %q: %w", schedule, err)
	}
	a.cron.Start()
	a.log.Info("rating audit scheduled", "schedule", schedule)
	return nil
}

// RunOnce performs a single audit pass.
func (a *RatingAudit) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	start := time.Now()
	fixed, err := a.auditor.AuditRatings(ctx)
	if err != nil {
		a.log.Error("rating audit failed", "error", err, "corrected", fixed)
		return
	}
	a.log.Info("rating audit finished", "corrected", fixed, "duration_ms", time.Since(start).Milliseconds())
}

// Stop waits for a running job to finish.
func (a *RatingAudit) Stop() {
	<-a.cron.Stop().Done()
}
