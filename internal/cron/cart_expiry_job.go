package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/archfoundry/archcomp-backend/pkg/logger"
)

// CartExpiryJobParams configure the cart expiry sweep.
type CartExpiryJobParams struct {
	Logger *logger.Logger
	Carts  cartExpirer
}

type cartExpirer interface {
	ExpireActiveBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewCartExpiryJob builds the job that moves ACTIVE carts past their expiry
// to EXPIRED. Expired carts drop out of current-cart lookups immediately; the
// sweep keeps the table honest for reporting.
func NewCartExpiryJob(params CartExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	return &cartExpiryJob{
		logg:  params.Logger,
		carts: params.Carts,
		now:   time.Now,
	}, nil
}

type cartExpiryJob struct {
	logg  *logger.Logger
	carts cartExpirer
	now   func() time.Time
}

func (j *cartExpiryJob) Name() string { return "cart-expiry" }

func (j *cartExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC()
	expired, err := j.carts.ExpireActiveBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("expire carts: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":        cutoff,
		"carts_expired": expired,
	})
	j.logg.Info(logCtx, "cart expiry sweep complete")
	return nil
}
