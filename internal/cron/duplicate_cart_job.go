package cron

import (
	"context"
	"fmt"

	"github.com/archfoundry/archcomp-backend/pkg/logger"
)

// DuplicateCartJobParams configure the duplicate active cart corrective pass.
type DuplicateCartJobParams struct {
	Logger *logger.Logger
	Carts  cartReconciler
}

type cartReconciler interface {
	ReconcileDuplicates(ctx context.Context) (int64, error)
}

// NewDuplicateCartJob builds the job that resolves users holding more than
// one ACTIVE cart. The write path enforces the invariant; this pass cleans up
// anything that slipped through before the constraint existed.
func NewDuplicateCartJob(params DuplicateCartJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	return &duplicateCartJob{
		logg:  params.Logger,
		carts: params.Carts,
	}, nil
}

type duplicateCartJob struct {
	logg  *logger.Logger
	carts cartReconciler
}

func (j *duplicateCartJob) Name() string { return "duplicate-active-carts" }

func (j *duplicateCartJob) Run(ctx context.Context) error {
	abandoned, err := j.carts.ReconcileDuplicates(ctx)
	if err != nil {
		return fmt.Errorf("reconcile duplicate carts: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"carts_abandoned": abandoned})
	j.logg.Info(logCtx, "duplicate cart reconciliation complete")
	return nil
}
