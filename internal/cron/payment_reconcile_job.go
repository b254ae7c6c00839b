package cron

import (
	"context"
	"fmt"

	"github.com/archfoundry/archcomp-backend/internal/payments"
	"github.com/archfoundry/archcomp-backend/pkg/logger"
)

// PaymentReconcileJobParams configure the stuck-payment resolution pass.
type PaymentReconcileJobParams struct {
	Logger   *logger.Logger
	Payments paymentReconciler
}

type paymentReconciler interface {
	Reconcile(ctx context.Context) (payments.ReconcileReport, error)
}

// NewPaymentReconcileJob builds the job that resolves payments stuck in
// PENDING past the grace window by asking the gateway what happened.
func NewPaymentReconcileJob(params PaymentReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payments service required")
	}
	return &paymentReconcileJob{
		logg:     params.Logger,
		payments: params.Payments,
	}, nil
}

type paymentReconcileJob struct {
	logg     *logger.Logger
	payments paymentReconciler
}

func (j *paymentReconcileJob) Name() string { return "pending-payment-reconcile" }

func (j *paymentReconcileJob) Run(ctx context.Context) error {
	report, err := j.payments.Reconcile(ctx)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"checked":   report.Checked,
		"completed": report.Completed,
		"failed":    report.Failed,
		"unknown":   report.Unknown,
	})
	if err != nil {
		j.logg.Error(logCtx, "payment reconciliation finished with errors", err)
		return fmt.Errorf("reconcile pending payments: %w", err)
	}
	j.logg.Info(logCtx, "payment reconciliation complete")
	return nil
}
