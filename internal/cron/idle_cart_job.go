package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/foodcart-backend/pkg/logger"
)

type cartEvictor interface {
	EvictIdle(ctx context.Context, now time.Time) (int, error)
	Len() int
}

type IdleCartJobParams struct {
	Logger   *logger.Logger
	Sessions cartEvictor
}

// NewIdleCartJob releases carts whose sessions went quiet, after saving them.
func NewIdleCartJob(params IdleCartJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session registry required")
	}
	return &idleCartJob{logg: params.Logger, sessions: params.Sessions, now: time.Now}, nil
}

type idleCartJob struct {
	logg     *logger.Logger
	sessions cartEvictor
	now      func() time.Time
}

func (j *idleCartJob) Name() string { return "idle-cart-eviction" }

func (j *idleCartJob) Run(ctx context.Context) error {
	evicted, err := j.sessions.EvictIdle(ctx, j.now())
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"carts_evicted":   evicted,
		"carts_remaining": j.sessions.Len(),
	})
	if err != nil {
		return fmt.Errorf("idle cart eviction: %w", err)
	}
	if evicted > 0 {
		j.logg.Info(logCtx, "idle carts evicted")
	}
	return nil
}
