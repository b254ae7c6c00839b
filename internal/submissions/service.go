package submissions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/archfoundry/archcomp-backend/pkg/db/models"
	"github.com/archfoundry/archcomp-backend/pkg/enums"
	pkgerrors "github.com/archfoundry/archcomp-backend/pkg/errors"
	"github.com/archfoundry/archcomp-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SubmissionRepository is the persistence surface the service depends on.
type SubmissionRepository interface {
	WithTx(tx *gorm.DB) SubmissionRepository
	FindByNumber(ctx context.Context, registrationNumber string) (*models.Submission, error)
	ListPublished(ctx context.Context, limit int) ([]models.Submission, error)
	Transition(ctx context.Context, registrationNumber string, from []enums.SubmissionStatus, to enums.SubmissionStatus, updates map[string]any) (int64, error)
	UpdateContentIf(ctx context.Context, registrationNumber string, from []enums.SubmissionStatus, updates map[string]any) (int64, error)
	MarkRegistration(ctx context.Context, registrationNumber string, from, to enums.RegistrationStatus) (int64, error)
}

type registrationSource interface {
	GetByNumber(ctx context.Context, registrationNumber string) (*models.Registration, error)
}

type notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationKind, payload map[string]any)
}

// DraftInput is the registrant-editable content of a submission.
type DraftInput struct {
	Title       string
	Description string
	PanelURLs   []string
}

func (d DraftInput) validateForSubmit() error {
	if strings.TrimSpace(d.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "a title is required")
	}
	if len(d.PanelURLs) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one panel is required")
	}
	for _, url := range d.PanelURLs {
		if strings.TrimSpace(url) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "panel urls must not be empty")
		}
	}
	return nil
}

// Service runs the submission review workflow.
type Service interface {
	GetForViewer(ctx context.Context, registrationNumber string, viewerID uuid.UUID, role enums.MemberRole) (*models.Submission, error)
	ListPublished(ctx context.Context, limit int) ([]models.Submission, error)
	SaveDraft(ctx context.Context, userID uuid.UUID, registrationNumber string, input DraftInput) (*models.Submission, error)
	Submit(ctx context.Context, userID uuid.UUID, registrationNumber string, input DraftInput) error
	Validate(ctx context.Context, adminID uuid.UUID, registrationNumber, notes string) error
	Reject(ctx context.Context, adminID uuid.UUID, registrationNumber, reason string) error
	Publish(ctx context.Context, adminID uuid.UUID, registrationNumber string) error
	Unpublish(ctx context.Context, adminID uuid.UUID, registrationNumber string) error
}

// ServiceParams wires the submissions service dependencies.
type ServiceParams struct {
	Repo          SubmissionRepository
	Tx            txRunner
	Registrations registrationSource
	Notifier      notifier
	Logger        *logger.Logger
	Now           func() time.Time
}

type service struct {
	repo          SubmissionRepository
	tx            txRunner
	registrations registrationSource
	notifier      notifier
	logg          *logger.Logger
	now           func() time.Time
}

// NewService builds the submissions service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("submission repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Registrations == nil {
		return nil, fmt.Errorf("registration source required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:          params.Repo,
		tx:            params.Tx,
		registrations: params.Registrations,
		notifier:      params.Notifier,
		logg:          params.Logger,
		now:           now,
	}, nil
}

// GetForViewer loads a submission under the visibility rule: published
// submissions are public, everything else is owner-or-admin only. Anonymous
// callers asking for an unpublished submission get an authentication
// challenge, not a flat denial, since ownership cannot be checked yet.
func (s *service) GetForViewer(ctx context.Context, registrationNumber string, viewerID uuid.UUID, role enums.MemberRole) (*models.Submission, error) {
	submission, err := s.getByNumber(ctx, registrationNumber)
	if err != nil {
		return nil, err
	}
	if submission.Status == enums.SubmissionStatusPublished {
		return submission, nil
	}
	if viewerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to view this submission")
	}
	if role == enums.MemberRoleAdmin {
		return submission, nil
	}
	registration, err := s.registrations.GetByNumber(ctx, registrationNumber)
	if err != nil {
		return nil, err
	}
	if registration.UserID != viewerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "this submission is not published")
	}
	return submission, nil
}

// ListPublished returns the public gallery slice.
func (s *service) ListPublished(ctx context.Context, limit int) ([]models.Submission, error) {
	rows, err := s.repo.ListPublished(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list published submissions")
	}
	return rows, nil
}

// SaveDraft updates the content of a submission that is still a draft.
func (s *service) SaveDraft(ctx context.Context, userID uuid.UUID, registrationNumber string, input DraftInput) (*models.Submission, error) {
	if err := s.requireOwner(ctx, userID, registrationNumber); err != nil {
		return nil, err
	}
	affected, err := s.repo.UpdateContentIf(ctx, registrationNumber,
		[]enums.SubmissionStatus{enums.SubmissionStatusDraft},
		s.contentUpdates(input))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save draft")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only draft submissions can be edited")
	}
	return s.getByNumber(ctx, registrationNumber)
}

// Submit moves a draft to SUBMITTED and its confirmed registration to
// SUBMITTED alongside it, in one transaction.
func (s *service) Submit(ctx context.Context, userID uuid.UUID, registrationNumber string, input DraftInput) error {
	if err := input.validateForSubmit(); err != nil {
		return err
	}
	registration, err := s.registrations.GetByNumber(ctx, registrationNumber)
	if err != nil {
		return err
	}
	if registration.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the registrant can submit")
	}
	if registration.Status != enums.RegistrationStatusConfirmed {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "submissions require a confirmed registration")
	}

	ctx = s.logg.WithRegistrationNumber(ctx, registrationNumber)
	now := s.now().UTC()

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		updates := s.contentUpdates(input)
		updates["submitted_at"] = now
		affected, err := repo.Transition(ctx, registrationNumber,
			[]enums.SubmissionStatus{enums.SubmissionStatusDraft},
			enums.SubmissionStatusSubmitted, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "submit submission")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only draft submissions can be submitted")
		}

		affected, err = repo.MarkRegistration(ctx, registrationNumber,
			enums.RegistrationStatusConfirmed, enums.RegistrationStatusSubmitted)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark registration submitted")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "registration is no longer confirmed")
		}

		s.logg.Info(ctx, "submission received")
		return nil
	})
}

// Validate approves a submitted entry.
func (s *service) Validate(ctx context.Context, adminID uuid.UUID, registrationNumber, notes string) error {
	if adminID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "admin id is required")
	}
	now := s.now().UTC()
	updates := map[string]any{
		"is_validated": true,
		"validator_id": adminID,
		"validated_at": now,
	}
	if strings.TrimSpace(notes) != "" {
		updates["validation_notes"] = notes
	}
	affected, err := s.repo.Transition(ctx, registrationNumber,
		[]enums.SubmissionStatus{enums.SubmissionStatusSubmitted},
		enums.SubmissionStatusValidated, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate submission")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only submitted submissions can be validated")
	}
	return nil
}

// Reject turns down a submitted entry. The reason is mandatory and stored on
// the submission for the registrant to read.
func (s *service) Reject(ctx context.Context, adminID uuid.UUID, registrationNumber, reason string) error {
	if adminID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "admin id is required")
	}
	if strings.TrimSpace(reason) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "a rejection reason is required")
	}
	now := s.now().UTC()
	affected, err := s.repo.Transition(ctx, registrationNumber,
		[]enums.SubmissionStatus{enums.SubmissionStatusSubmitted},
		enums.SubmissionStatusRejected, map[string]any{
			"rejection_reason": reason,
			"validator_id":     adminID,
			"validated_at":     now,
		})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject submission")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only submitted submissions can be rejected")
	}

	s.notifyOwner(ctx, registrationNumber, enums.NotificationSubmissionRejected, map[string]any{
		"registration_number": registrationNumber,
		"reason":              reason,
	})
	return nil
}

// Publish makes a submission public. A still-SUBMITTED entry is validated
// implicitly in the same update, so a published submission is always
// validated. The registrant notification is best effort and runs after the
// state change commits.
func (s *service) Publish(ctx context.Context, adminID uuid.UUID, registrationNumber string) error {
	if adminID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "admin id is required")
	}
	submission, err := s.getByNumber(ctx, registrationNumber)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	updates := map[string]any{
		"is_validated": true,
		"published_at": now,
	}
	if !submission.IsValidated {
		updates["validator_id"] = adminID
		updates["validated_at"] = now
	}
	affected, err := s.repo.Transition(ctx, registrationNumber,
		[]enums.SubmissionStatus{enums.SubmissionStatusValidated, enums.SubmissionStatusSubmitted},
		enums.SubmissionStatusPublished, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish submission")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only validated or submitted submissions can be published")
	}

	s.notifyOwner(ctx, registrationNumber, enums.NotificationSubmissionPublished, map[string]any{
		"registration_number": registrationNumber,
	})
	return nil
}

// Unpublish pulls a submission back from public view. Validation state is
// preserved so it can be republished without another review.
func (s *service) Unpublish(ctx context.Context, adminID uuid.UUID, registrationNumber string) error {
	if adminID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "admin id is required")
	}
	affected, err := s.repo.Transition(ctx, registrationNumber,
		[]enums.SubmissionStatus{enums.SubmissionStatusPublished},
		enums.SubmissionStatusValidated, map[string]any{"published_at": nil})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unpublish submission")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only published submissions can be unpublished")
	}
	return nil
}

func (s *service) getByNumber(ctx context.Context, registrationNumber string) (*models.Submission, error) {
	if registrationNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "registration number is required")
	}
	submission, err := s.repo.FindByNumber(ctx, registrationNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "submission not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load submission")
	}
	return submission, nil
}

func (s *service) requireOwner(ctx context.Context, userID uuid.UUID, registrationNumber string) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	registration, err := s.registrations.GetByNumber(ctx, registrationNumber)
	if err != nil {
		return err
	}
	if registration.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not your submission")
	}
	return nil
}

func (s *service) contentUpdates(input DraftInput) map[string]any {
	return map[string]any{
		"title":       strings.TrimSpace(input.Title),
		"description": strings.TrimSpace(input.Description),
		"panel_urls":  pq.StringArray(input.PanelURLs),
	}
}

func (s *service) notifyOwner(ctx context.Context, registrationNumber string, kind enums.NotificationKind, payload map[string]any) {
	if s.notifier == nil {
		return
	}
	registration, err := s.registrations.GetByNumber(ctx, registrationNumber)
	if err != nil {
		s.logg.Warn(ctx, "could not resolve submission owner for notification")
		return
	}
	s.notifier.Notify(ctx, registration.UserID, kind, payload)
}
