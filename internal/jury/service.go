package jury

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/archfoundry/archcomp-backend/pkg/db"
	"github.com/archfoundry/archcomp-backend/pkg/db/models"
	pkgerrors "github.com/archfoundry/archcomp-backend/pkg/errors"
	"github.com/archfoundry/archcomp-backend/pkg/logger"
)

// JuryRepository is the persistence surface the service depends on.
type JuryRepository interface {
	UpsertScore(ctx context.Context, score *models.JuryScore) error
	CreateAssignment(ctx context.Context, assignment *models.JuryAssignment) error
	HasAssignment(ctx context.Context, juryMemberID uuid.UUID, registrationNumber string) (bool, error)
	ListAssignments(ctx context.Context, juryMemberID uuid.UUID) ([]models.JuryAssignment, error)
	ListScores(ctx context.Context, juryMemberID uuid.UUID) ([]models.JuryScore, error)
	ListMemberIDs(ctx context.Context) ([]uuid.UUID, error)
}

type registrationSource interface {
	GetByNumber(ctx context.Context, registrationNumber string) (*models.Registration, error)
}

// ScoreInput carries the nine rubric sub-scores. The total is never accepted
// from the caller. Pointers distinguish an absent sub-score from a zero: a
// rubric is only complete when every criterion is present.
type ScoreInput struct {
	SiteContext      *int `json:"site_context" validate:"required"`
	ConceptClarity   *int `json:"concept_clarity" validate:"required"`
	SpatialQuality   *int `json:"spatial_quality" validate:"required"`
	Functionality    *int `json:"functionality" validate:"required"`
	Sustainability   *int `json:"sustainability" validate:"required"`
	Materiality      *int `json:"materiality" validate:"required"`
	DesignResolution *int `json:"design_resolution" validate:"required"`
	Presentation     *int `json:"presentation" validate:"required"`
	Innovation       *int `json:"innovation" validate:"required"`
}

type criterion struct {
	name  string
	value *int
	max   int
}

func (s ScoreInput) criteria() []criterion {
	return []criterion{
		{"site_context", s.SiteContext, 10},
		{"concept_clarity", s.ConceptClarity, 15},
		{"spatial_quality", s.SpatialQuality, 10},
		{"functionality", s.Functionality, 10},
		{"sustainability", s.Sustainability, 10},
		{"materiality", s.Materiality, 10},
		{"design_resolution", s.DesignResolution, 20},
		{"presentation", s.Presentation, 10},
		{"innovation", s.Innovation, 5},
	}
}

func (s ScoreInput) validate() error {
	for _, c := range s.criteria() {
		if c.value == nil {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("%s is required", c.name))
		}
		if *c.value < 0 || *c.value > c.max {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("%s must be between 0 and %d", c.name, c.max))
		}
	}
	return nil
}

// Total sums the sub-scores out of 100. Absent sub-scores count as zero;
// validate rejects them before Total is ever used.
func (s ScoreInput) Total() int {
	total := 0
	for _, c := range s.criteria() {
		if c.value != nil {
			total += *c.value
		}
	}
	return total
}

// Progress is a derived view of one jury member's workload. It is recomputed
// from assignment and score rows on every call, never stored.
type Progress struct {
	JuryMemberID uuid.UUID `json:"jury_member_id"`
	Assigned     int       `json:"assigned"`
	Submitted    int       `json:"submitted"`
	CompletionPC float64   `json:"completion_pct"`
	AverageScore float64   `json:"average_score"`
}

// Service runs rubric scoring and progress reporting.
type Service interface {
	SubmitScore(ctx context.Context, juryMemberID uuid.UUID, registrationNumber string, input ScoreInput) (*models.JuryScore, error)
	Assign(ctx context.Context, juryMemberID uuid.UUID, registrationNumber string) error
	ListAssignments(ctx context.Context, juryMemberID uuid.UUID) ([]models.JuryAssignment, error)
	Progress(ctx context.Context, juryMemberID uuid.UUID) (Progress, error)
	Overview(ctx context.Context) ([]Progress, error)
}

// ServiceParams wires the jury service dependencies.
type ServiceParams struct {
	Repo          JuryRepository
	Registrations registrationSource
	Logger        *logger.Logger
	Now           func() time.Time
}

type service struct {
	repo          JuryRepository
	registrations registrationSource
	logg          *logger.Logger
	now           func() time.Time
}

// NewService builds the jury service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("jury repository required")
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
		registrations: params.Registrations,
		logg:          params.Logger,
		now:           now,
	}, nil
}

// SubmitScore records a member's rubric for an assigned registration.
// Re-submission overwrites the previous score in place.
func (s *service) SubmitScore(ctx context.Context, juryMemberID uuid.UUID, registrationNumber string, input ScoreInput) (*models.JuryScore, error) {
	if juryMemberID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "jury member id is required")
	}
	if registrationNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "registration number is required")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	assigned, err := s.repo.HasAssignment(ctx, juryMemberID, registrationNumber)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check assignment")
	}
	if !assigned {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "registration is not assigned to this jury member")
	}

	score := &models.JuryScore{
		JuryMemberID:       juryMemberID,
		RegistrationNumber: registrationNumber,
		SiteContext:        *input.SiteContext,
		ConceptClarity:     *input.ConceptClarity,
		SpatialQuality:     *input.SpatialQuality,
		Functionality:      *input.Functionality,
		Sustainability:     *input.Sustainability,
		Materiality:        *input.Materiality,
		DesignResolution:   *input.DesignResolution,
		Presentation:       *input.Presentation,
		Innovation:         *input.Innovation,
		TotalScore:         input.Total(),
		SubmittedAt:        s.now().UTC(),
	}
	if err := s.repo.UpsertScore(ctx, score); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store score")
	}

	ctx = s.logg.WithRegistrationNumber(ctx, registrationNumber)
	s.logg.Info(ctx, "jury score recorded")
	return score, nil
}

// Assign puts a registration on a jury member's queue.
func (s *service) Assign(ctx context.Context, juryMemberID uuid.UUID, registrationNumber string) error {
	if juryMemberID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "jury member id is required")
	}
	if _, err := s.registrations.GetByNumber(ctx, registrationNumber); err != nil {
		return err
	}
	err := s.repo.CreateAssignment(ctx, &models.JuryAssignment{
		JuryMemberID:       juryMemberID,
		RegistrationNumber: registrationNumber,
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return pkgerrors.New(pkgerrors.CodeConflict, "registration is already assigned to this jury member")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create assignment")
	}
	return nil
}

// ListAssignments returns the member's queue.
func (s *service) ListAssignments(ctx context.Context, juryMemberID uuid.UUID) ([]models.JuryAssignment, error) {
	if juryMemberID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "jury member id is required")
	}
	rows, err := s.repo.ListAssignments(ctx, juryMemberID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assignments")
	}
	return rows, nil
}

// Progress recomputes the member's completion stats from the underlying rows.
func (s *service) Progress(ctx context.Context, juryMemberID uuid.UUID) (Progress, error) {
	if juryMemberID == uuid.Nil {
		return Progress{}, pkgerrors.New(pkgerrors.CodeValidation, "jury member id is required")
	}
	assignments, err := s.repo.ListAssignments(ctx, juryMemberID)
	if err != nil {
		return Progress{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assignments")
	}
	scores, err := s.repo.ListScores(ctx, juryMemberID)
	if err != nil {
		return Progress{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list scores")
	}

	progress := Progress{
		JuryMemberID: juryMemberID,
		Assigned:     len(assignments),
		Submitted:    len(scores),
	}
	if progress.Assigned > 0 {
		progress.CompletionPC = float64(progress.Submitted) / float64(progress.Assigned) * 100
	}
	if progress.Submitted > 0 {
		total := 0
		for _, score := range scores {
			total += score.TotalScore
		}
		progress.AverageScore = float64(total) / float64(progress.Submitted)
	}
	return progress, nil
}

// Overview returns the progress table across every jury member with
// assignments.
func (s *service) Overview(ctx context.Context) ([]Progress, error) {
	memberIDs, err := s.repo.ListMemberIDs(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list jury members")
	}
	table := make([]Progress, 0, len(memberIDs))
	for _, memberID := range memberIDs {
		progress, err := s.Progress(ctx, memberID)
		if err != nil {
			return nil, err
		}
		table = append(table, progress)
	}
	return table, nil
}
