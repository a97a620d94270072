package projects

import (
	"context"
	"fmt"
	"strings"
	"time"

	"request-guard/middleware/guard/domain"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

var errNotAuthenticated = domain.NewError(domain.KindAuthRequired, "user not authenticated")

type Service struct {
	repo     Repository
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

type ServiceOption func(*Service)

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(fn func() string) ServiceOption {
	return func(s *Service) { s.newID = fn }
}

func NewService(repo Repository, opts ...ServiceOption) *Service {
	s := &Service{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func checkIdentity(id Identity) (Identity, error) {
	if strings.TrimSpace(id.UserID) == "" {
		return id, errNotAuthenticated
	}
	// equipe pessoal por padrão
	if id.TeamID == "" {
		id.TeamID = id.UserID
	}
	return id, nil
}

func (s *Service) List(ctx context.Context, id Identity, opts ListOptions) ([]Project, error) {
	id, err := checkIdentity(id)
	if err != nil {
		return nil, err
	}

	switch opts.Status {
	case "", StatusActive, StatusCompleted, StatusArchived:
	default:
		return nil, domain.Errorf(domain.KindValidation, "invalid status filter %q", opts.Status)
	}
	if opts.Limit < 0 || opts.Offset < 0 {
		return nil, domain.NewError(domain.KindValidation, "limit and offset must not be negative")
	}
	if opts.Limit == 0 {
		opts.Limit = DefaultListLimit
	}
	if opts.Limit > MaxListLimit {
		opts.Limit = MaxListLimit
	}

	ps, err := s.repo.List(ctx, Filter{
		TeamID: id.TeamID,
		Status: opts.Status,
		Search: SanitizeText(strings.TrimSpace(opts.Search)),
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %w", err)
	}
	return ps, nil
}

// Get só enxerga projetos da equipe do usuário; fora dela é "não encontrado".
func (s *Service) Get(ctx context.Context, id Identity, projectID string) (Project, error) {
	id, err := checkIdentity(id)
	if err != nil {
		return Project{}, err
	}

	p, err := s.repo.Get(ctx, projectID)
	if err != nil {
		return Project{}, err
	}
	if p.TeamID != id.TeamID {
		return Project{}, ErrNotFound
	}
	return p, nil
}

func (s *Service) GetWithStats(ctx context.Context, id Identity, projectID string) (WithStats, error) {
	p, err := s.Get(ctx, id, projectID)
	if err != nil {
		return WithStats{}, err
	}
	return ComputeStats(p, s.now()), nil
}

func (s *Service) Create(ctx context.Context, id Identity, in Input) (Project, error) {
	id, err := checkIdentity(id)
	if err != nil {
		return Project{}, err
	}
	if err := s.validate.StructCtx(ctx, in); err != nil {
		return Project{}, domain.Wrap(domain.KindValidation, "invalid project input", err)
	}

	name := SanitizeText(in.Name)
	if err := s.ensureUniqueName(ctx, id.TeamID, name, ""); err != nil {
		return Project{}, err
	}

	now := s.now().UTC()
	p := Project{
		ID:              s.newID(),
		Name:            name,
		Description:     sanitizePtr(in.Description),
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		EstimatedBudget: in.EstimatedBudget,
		Status:          StatusActive,
		TeamID:          id.TeamID,
		CreatedBy:       id.UserID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Insert(ctx, p); err != nil {
		return Project{}, fmt.Errorf("failed to create project: %w", err)
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, id Identity, projectID string, in UpdateInput) (Project, error) {
	if err := s.validate.StructCtx(ctx, in); err != nil {
		return Project{}, domain.Wrap(domain.KindValidation, "invalid project input", err)
	}

	p, err := s.owned(ctx, id, projectID, "update")
	if err != nil {
		return Project{}, err
	}

	if in.Name != nil {
		name := SanitizeText(*in.Name)
		if err := s.ensureUniqueName(ctx, p.TeamID, name, p.ID); err != nil {
			return Project{}, err
		}
		p.Name = name
	}
	if in.Description != nil {
		p.Description = sanitizePtr(in.Description)
	}
	if in.StartDate != nil {
		p.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		p.EndDate = *in.EndDate
	}
	if in.EstimatedBudget != nil {
		p.EstimatedBudget = *in.EstimatedBudget
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	p.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, p); err != nil {
		return Project{}, fmt.Errorf("failed to update project: %w", err)
	}
	return p, nil
}

func (s *Service) Archive(ctx context.Context, id Identity, projectID string) (Project, error) {
	archived := StatusArchived
	return s.Update(ctx, id, projectID, UpdateInput{Status: &archived})
}

func (s *Service) Delete(ctx context.Context, id Identity, projectID string) error {
	if _, err := s.owned(ctx, id, projectID, "delete"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

// CheckDuplicateName compara com o nome já sanitizado, como é gravado.
func (s *Service) CheckDuplicateName(ctx context.Context, id Identity, name, excludeID string) (bool, error) {
	id, err := checkIdentity(id)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(name) == "" {
		return false, domain.NewError(domain.KindValidation, "project name is required")
	}
	return s.isDuplicate(ctx, id.TeamID, SanitizeText(name), excludeID)
}

// Stats devolve contagem por status, o resumo e cada projeto com seus cálculos.
func (s *Service) Stats(ctx context.Context, id Identity) (Counts, Summary, []WithStats, error) {
	id, err := checkIdentity(id)
	if err != nil {
		return Counts{}, Summary{}, nil, err
	}

	ps, err := s.repo.List(ctx, Filter{TeamID: id.TeamID})
	if err != nil {
		return Counts{}, Summary{}, nil, fmt.Errorf("failed to fetch project stats: %w", err)
	}

	now := s.now()
	withStats := make([]WithStats, 0, len(ps))
	for _, p := range ps {
		withStats = append(withStats, ComputeStats(p, now))
	}
	return CountByStatus(ps), Summarize(withStats), withStats, nil
}

func (s *Service) owned(ctx context.Context, id Identity, projectID, action string) (Project, error) {
	p, err := s.Get(ctx, id, projectID)
	if err != nil {
		return Project{}, err
	}
	if p.CreatedBy != id.UserID {
		return Project{}, domain.NewError(domain.KindPermissionDenied,
			fmt.Sprintf("you do not have permission to %s this project", action))
	}
	return p, nil
}

func (s *Service) ensureUniqueName(ctx context.Context, teamID, name, excludeID string) error {
	dup, err := s.isDuplicate(ctx, teamID, name, excludeID)
	if err != nil {
		return err
	}
	if dup {
		return domain.NewError(domain.KindValidation,
			fmt.Sprintf("a project with the name %q already exists in your team", name))
	}
	return nil
}

func (s *Service) isDuplicate(ctx context.Context, teamID, name, excludeID string) (bool, error) {
	found, err := s.repo.FindByName(ctx, teamID, name)
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate project name: %w", err)
	}
	for _, p := range found {
		if p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := SanitizeText(*s)
	return &v
}
