package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/archfoundry/archcomp-backend/internal/payments"
	"github.com/archfoundry/archcomp-backend/pkg/logger"
)

func TestPaymentReconcileJobRunsPass(t *testing.T) {
	svc := &fakePaymentReconciler{report: payments.ReconcileReport{Checked: 3, Completed: 1, Failed: 1, Unknown: 1}}
	job, err := NewPaymentReconcileJob(PaymentReconcileJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Payments: svc,
	})
	if err != nil {
		t.Fatalf("NewPaymentReconcileJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if svc.called != 1 {
		t.Fatalf("expected one reconcile pass, got %d", svc.called)
	}
}

func TestPaymentReconcileJobPropagatesErrors(t *testing.T) {
	job, err := NewPaymentReconcileJob(PaymentReconcileJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Payments: &fakePaymentReconciler{err: errors.New("gateway down")},
	})
	if err != nil {
		t.Fatalf("NewPaymentReconcileJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

type fakePaymentReconciler struct {
	report payments.ReconcileReport
	err    error
	called int
}

func (f *fakePaymentReconciler) Reconcile(ctx context.Context) (payments.ReconcileReport, error) {
	f.called++
	return f.report, f.err
}
