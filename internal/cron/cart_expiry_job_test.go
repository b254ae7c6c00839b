package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/archfoundry/archcomp-backend/pkg/logger"
)

func TestCartExpiryJobUsesCurrentTimeAsCutoff(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeCartExpirer{expired: 3}
	job := newCartExpiryJob(t, repo)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !repo.lastCutoff.Equal(now) {
		t.Fatalf("expected cutoff %s, got %s", now, repo.lastCutoff)
	}
	if repo.called != 1 {
		t.Fatalf("expected repo called once, got %d", repo.called)
	}
}

func TestCartExpiryJobPropagatesErrors(t *testing.T) {
	repo := &fakeCartExpirer{err: errors.New("boom")}
	job := newCartExpiryJob(t, repo)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func newCartExpiryJob(t *testing.T, repo *fakeCartExpirer) *cartExpiryJob {
	t.Helper()
	jobIface, err := NewCartExpiryJob(CartExpiryJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		Carts:  repo,
	})
	if err != nil {
		t.Fatalf("NewCartExpiryJob: %v", err)
	}
	job, ok := jobIface.(*cartExpiryJob)
	if !ok {
		t.Fatalf("expected cartExpiryJob, got %T", jobIface)
	}
	return job
}

type fakeCartExpirer struct {
	lastCutoff time.Time
	expired    int64
	err        error
	called     int
}

func (f *fakeCartExpirer) ExpireActiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return f.expired, nil
}
