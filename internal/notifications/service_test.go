package notifications

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/archfoundry/archcomp-backend/pkg/db/models"
	"github.com/archfoundry/archcomp-backend/pkg/enums"
	pkgerrors "github.com/archfoundry/archcomp-backend/pkg/errors"
	"github.com/archfoundry/archcomp-backend/pkg/logger"
)

type stubRepo struct {
	rows      []*models.Notification
	createErr error
}

func (s *stubRepo) Create(ctx context.Context, notification *models.Notification) error {
	if s.createErr != nil {
		return s.createErr
	}
	notification.ID = uuid.New()
	s.rows = append(s.rows, notification)
	return nil
}

func (s *stubRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	var rows []models.Notification
	for _, row := range s.rows {
		if row.UserID == userID {
			rows = append(rows, *row)
		}
	}
	return rows, nil
}

func (s *stubRepo) MarkRead(ctx context.Context, userID, notificationID uuid.UUID, at time.Time) (int64, error) {
	for _, row := range s.rows {
		if row.ID == notificationID && row.UserID == userID && row.ReadAt == nil {
			stamped := at
			row.ReadAt = &stamped
			return 1, nil
		}
	}
	return 0, nil
}

func (s *stubRepo) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	var affected int64
	for _, row := range s.rows {
		if row.UserID == userID && row.ReadAt == nil {
			stamped := at
			row.ReadAt = &stamped
			affected++
		}
	}
	return affected, nil
}

func (s *stubRepo) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type stubSender struct {
	sent []enums.NotificationKind
	err  error
}

func (s *stubSender) Send(ctx context.Context, userID uuid.UUID, kind enums.NotificationKind, payload map[string]any) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, kind)
	return nil
}

func newTestService(t *testing.T, repo *stubRepo, sender Sender) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
	svc, err := NewService(ServiceParams{
		Repo:   repo,
		Sender: sender,
		Logger: logg,
		Now:    func() time.Time { return time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestNotifyRecordsRowAndSends(t *testing.T) {
	repo := &stubRepo{}
	sender := &stubSender{}
	svc := newTestService(t, repo, sender)
	userID := uuid.New()

	svc.Notify(context.Background(), userID, enums.NotificationPaymentCompleted, map[string]any{
		"order_id": "ORDER-2025-00030",
	})

	if len(repo.rows) != 1 {
		t.Fatalf("expected one row, got %d", len(repo.rows))
	}
	if repo.rows[0].Kind != enums.NotificationPaymentCompleted {
		t.Fatalf("unexpected kind %s", repo.rows[0].Kind)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one delivery, got %d", len(sender.sent))
	}
}

func TestNotifySwallowsFailures(t *testing.T) {
	// repo failure: nothing stored, nothing sent, no panic
	repo := &stubRepo{createErr: errors.New("db down")}
	sender := &stubSender{}
	svc := newTestService(t, repo, sender)
	svc.Notify(context.Background(), uuid.New(), enums.NotificationPaymentFailed, nil)
	if len(sender.sent) != 0 {
		t.Fatalf("send must not run after a store failure, got %v", sender.sent)
	}

	// sender failure: the row still exists
	repo = &stubRepo{}
	svc = newTestService(t, repo, &stubSender{err: errors.New("smtp down")})
	svc.Notify(context.Background(), uuid.New(), enums.NotificationPaymentFailed, nil)
	if len(repo.rows) != 1 {
		t.Fatalf("expected the row despite delivery failure, got %d", len(repo.rows))
	}
}

func TestMarkReadScopedToOwner(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo, nil)
	owner := uuid.New()

	svc.Notify(context.Background(), owner, enums.NotificationSubmissionPublished, nil)
	notificationID := repo.rows[0].ID

	err := svc.MarkRead(context.Background(), uuid.New(), notificationID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for stranger, got %v", err)
	}

	if err := svc.MarkRead(context.Background(), owner, notificationID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if repo.rows[0].ReadAt == nil {
		t.Fatal("expected read_at set")
	}

	// already read
	err = svc.MarkRead(context.Background(), owner, notificationID)
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found on second mark, got %v", err)
	}
}

func TestMarkAllRead(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo, nil)
	owner := uuid.New()

	svc.Notify(context.Background(), owner, enums.NotificationSubmissionPublished, nil)
	svc.Notify(context.Background(), owner, enums.NotificationPaymentCompleted, nil)
	svc.Notify(context.Background(), uuid.New(), enums.NotificationPaymentCompleted, nil)

	if err := svc.MarkAllRead(context.Background(), owner); err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	for _, row := range repo.rows {
		if row.UserID == owner && row.ReadAt == nil {
			t.Fatal("expected every owner notification read")
		}
		if row.UserID != owner && row.ReadAt != nil {
			t.Fatal("other users' notifications must be untouched")
		}
	}
}
