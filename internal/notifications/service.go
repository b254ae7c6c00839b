package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/archfoundry/archcomp-backend/pkg/db/models"
	"github.com/archfoundry/archcomp-backend/pkg/enums"
	pkgerrors "github.com/archfoundry/archcomp-backend/pkg/errors"
	"github.com/archfoundry/archcomp-backend/pkg/logger"
)

// NotificationRepository is the persistence surface the service depends on.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID, at time.Time) (int64, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sender delivers a notification out of band (email today). Delivery is best
// effort; failures are logged and never surfaced to the triggering workflow.
type Sender interface {
	Send(ctx context.Context, userID uuid.UUID, kind enums.NotificationKind, payload map[string]any) error
}

// Service records and serves in-app notifications.
type Service interface {
	Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationKind, payload map[string]any)
	List(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

// ServiceParams wires the notifications service dependencies.
type ServiceParams struct {
	Repo   NotificationRepository
	Sender Sender
	Logger *logger.Logger
	Now    func() time.Time
}

type service struct {
	repo   NotificationRepository
	sender Sender
	logg   *logger.Logger
	now    func() time.Time
}

// NewService builds the notifications service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("notification repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:   params.Repo,
		sender: params.Sender,
		logg:   params.Logger,
		now:    now,
	}, nil
}

// Notify records an in-app notification and hands it to the sender. Both
// steps are best effort: a notification must never fail the workflow that
// triggered it, so errors are logged and swallowed.
func (s *service) Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationKind, payload map[string]any) {
	if userID == uuid.Nil {
		return
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		s.logg.Error(ctx, "failed to encode notification payload", err)
		return
	}
	notification := &models.Notification{
		UserID:  userID,
		Kind:    kind,
		Payload: datatypes.JSON(encoded),
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		s.logg.Error(ctx, "failed to record notification", err)
		return
	}

	if s.sender == nil {
		return
	}
	if err := s.sender.Send(ctx, userID, kind, payload); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("notification delivery failed for kind %s", kind))
	}
}

// List returns the user's notifications.
func (s *service) List(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rows, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return rows, nil
}

// MarkRead stamps one notification.
func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil || notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and notification id are required")
	}
	affected, err := s.repo.MarkRead(ctx, userID, notificationID, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found or already read")
	}
	return nil
}

// MarkAllRead stamps every unread notification for the user.
func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if _, err := s.repo.MarkAllRead(ctx, userID, s.now().UTC()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return nil
}
