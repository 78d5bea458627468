package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/foodcart-backend/pkg/logger"
)

const defaultOrderRetention = 90 * 24 * time.Hour

type orderPurger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type OrderRetentionJobParams struct {
	Logger    *logger.Logger
	Orders    orderPurger
	Retention time.Duration
}

// NewOrderRetentionJob deletes orders older than the retention window.
func NewOrderRetentionJob(params OrderRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultOrderRetention
	}
	return &orderRetentionJob{
		logg:      params.Logger,
		orders:    params.Orders,
		retention: retention,
		now:       time.Now,
	}, nil
}

type orderRetentionJob struct {
	logg      *logger.Logger
	orders    orderPurger
	retention time.Duration
	now       func() time.Time
}

func (j *orderRetentionJob) Name() string { return "order-retention" }

func (j *orderRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.orders.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("order retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": int(j.retention / (24 * time.Hour)),
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "order retention cleanup complete")
	return nil
}
