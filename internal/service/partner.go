// internal/service/partner.go
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dangerclosesec/partnerhub/internal/authz"
	"github.com/dangerclosesec/partnerhub/internal/domain"
	"github.com/dangerclosesec/partnerhub/internal/metrics"
	"github.com/dangerclosesec/partnerhub/internal/model"
	"github.com/dangerclosesec/partnerhub/internal/repository"
	"github.com/dangerclosesec/partnerhub/internal/storage"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type PartnerService struct {
	partners    repository.PartnerRepositoryIface
	assignments repository.PartnerDepartmentRepositoryIface
	content     *repository.PartnerContentRepository
	files       storage.FileStore
	policy      *authz.Policy
	relations   *RelationSync
	notifier    StatusNotifier
	metrics     *metrics.Metrics
	validate    *validator.Validate
}

type PartnerOption func(*PartnerService)

// WithRelationSync mirrors department assignments into the relationship store.
func WithRelationSync(rs *RelationSync) PartnerOption {
	return func(s *PartnerService) {
		s.relations = rs
	}
}

// WithStatusNotifier announces status transitions.
func WithStatusNotifier(n StatusNotifier) PartnerOption {
	return func(s *PartnerService) {
		s.notifier = n
	}
}

// WithMetrics counts status and risk transitions.
func WithMetrics(m *metrics.Metrics) PartnerOption {
	return func(s *PartnerService) {
		s.metrics = m
	}
}

func NewPartnerService(
	partners repository.PartnerRepositoryIface,
	assignments repository.PartnerDepartmentRepositoryIface,
	content *repository.PartnerContentRepository,
	files storage.FileStore,
	policy *authz.Policy,
	opts ...PartnerOption,
) *PartnerService {
	s := &PartnerService{
		partners:    partners,
		assignments: assignments,
		content:     content,
		files:       files,
		policy:      policy,
		validate:    newValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// load runs the permission gate, fetches the partner and runs the object
// gate on it.
func (s *PartnerService) load(ctx context.Context, actor *model.User, id uuid.UUID, action authz.Action) (*model.Partner, error) {
	if err := s.policy.CheckPermission(ctx, actor, action); err != nil {
		return nil, err
	}
	partner, err := s.partners.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.ObjectGate(ctx, actor, action, partner); err != nil {
		return nil, err
	}
	return partner, nil
}

func actorID(actor *model.User) *uuid.UUID {
	if actor == nil {
		return nil
	}
	id := actor.ID
	return &id
}

type CreatePartnerInput struct {
	Name          string      `json:"name" validate:"required,max=255"`
	Type          string      `json:"type" validate:"required,oneof=NGO GOV EMBASSY CORPORATE OTHER"`
	DepartmentIDs []uuid.UUID `json:"department_ids"`
}

// Create records a new pending partner. A non-admin creator who names no
// departments has the partner assigned to their own departments, so they
// can see what they created.
func (s *PartnerService) Create(ctx context.Context, actor *model.User, input CreatePartnerInput) (*model.Partner, error) {
	if err := s.policy.CheckPermission(ctx, actor, authz.ActionCreate); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	departmentIDs := input.DepartmentIDs
	if len(departmentIDs) == 0 && !actor.SysAdmin() {
		departmentIDs = actor.DepartmentIDs()
	}

	partner := &model.Partner{
		Name:        input.Name,
		Type:        model.PartnerType(input.Type),
		Status:      model.PartnerStatusPending,
		RiskLevel:   model.RiskLevelLow,
		CreatedByID: actorID(actor),
	}
	for _, id := range departmentIDs {
		partner.Assignments = append(partner.Assignments, model.PartnerDepartment{DepartmentID: id})
	}

	if err := s.partners.Create(ctx, partner); err != nil {
		return nil, fmt.Errorf("creating partner: %w", err)
	}
	created, err := s.partners.FindByID(ctx, partner.ID)
	if err != nil {
		return nil, err
	}
	partner = created

	for _, a := range partner.Assignments {
		_ = s.relations.PartnerAssigned(ctx, partner.ID, a.DepartmentID)
	}

	slog.InfoContext(ctx, "partner created", "partner_id", partner.ID, "departments", len(partner.Assignments))
	return partner, nil
}

type ListPartnersInput struct {
	Type      string `json:"type" validate:"omitempty,oneof=NGO GOV EMBASSY CORPORATE OTHER"`
	Status    string `json:"status" validate:"omitempty,oneof=pending approved suspended blacklisted"`
	RiskLevel string `json:"risk_level" validate:"omitempty,oneof=low medium high critical"`
	Search    string `json:"search"`
	Ordering  string `json:"ordering"`
	Limit     int    `json:"limit" validate:"min=0"`
	Offset    int    `json:"offset" validate:"min=0"`
}

type ListPartnersOutput struct {
	Partners []model.Partner `json:"results"`
	Count    int64           `json:"count"`
}

func (s *PartnerService) List(ctx context.Context, actor *model.User, input ListPartnersInput) (*ListPartnersOutput, error) {
	if err := s.policy.CheckPermission(ctx, actor, authz.ActionList); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	if !repository.ValidPartnerOrdering(input.Ordering) {
		return nil, domain.Validationf("ordering must be one of created_at, -created_at, updated_at, -updated_at")
	}

	partners, count, err := s.partners.List(ctx, repository.PartnerListParams{
		Type:      model.PartnerType(input.Type),
		Status:    model.PartnerStatus(input.Status),
		RiskLevel: model.RiskLevel(input.RiskLevel),
		Search:    input.Search,
		Ordering:  input.Ordering,
		Page:      repository.Page{Limit: input.Limit, Offset: input.Offset},
	})
	if err != nil {
		return nil, fmt.Errorf("listing partners: %w", err)
	}

	return &ListPartnersOutput{Partners: partners, Count: count}, nil
}

// Get returns the partner with profile, documents, histories and
// departments loaded.
func (s *PartnerService) Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Partner, error) {
	if err := s.policy.CheckPermission(ctx, actor, authz.ActionRetrieve); err != nil {
		return nil, err
	}
	partner, err := s.partners.FindDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.ObjectGate(ctx, actor, authz.ActionRetrieve, partner); err != nil {
		return nil, err
	}
	return partner, nil
}

// UpdatePartnerInput carries a full or partial edit. Nil fields are kept.
type UpdatePartnerInput struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=255"`
	Type *string `json:"type" validate:"omitempty,oneof=NGO GOV EMBASSY CORPORATE OTHER"`
}

// Update edits name and type. Status and risk level only move through
// ChangeStatus and ChangeRisk.
func (s *PartnerService) Update(ctx context.Context, actor *model.User, id uuid.UUID, input UpdatePartnerInput, partial bool) (*model.Partner, error) {
	action := authz.ActionUpdate
	if partial {
		action = authz.ActionPartialUpdate
	}
	partner, err := s.load(ctx, actor, id, action)
	if err != nil {
		return nil, err
	}
	if !partial && (input.Name == nil || input.Type == nil) {
		return nil, domain.Validationf("name and type are required")
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	if input.Name != nil {
		partner.Name = *input.Name
	}
	if input.Type != nil {
		partner.Type = model.PartnerType(*input.Type)
	}

	if err := s.partners.UpdateFields(ctx, partner.ID, partner.Name, partner.Type); err != nil {
		return nil, fmt.Errorf("updating partner: %w", err)
	}
	return partner, nil
}

type ChangeStatusInput struct {
	Status string `json:"status"`
}

type ChangeStatusOutput struct {
	ID     uuid.UUID           `json:"id"`
	Status model.PartnerStatus `json:"status"`
}

// ChangeStatus moves the partner to a new status and records the
// transition. Moving to the current status is rejected.
func (s *PartnerService) ChangeStatus(ctx context.Context, actor *model.User, id uuid.UUID, input ChangeStatusInput) (*ChangeStatusOutput, error) {
	partner, err := s.load(ctx, actor, id, authz.ActionChangeStatus)
	if err != nil {
		return nil, err
	}

	to := model.PartnerStatus(input.Status)
	switch {
	case to == "":
		return nil, domain.ErrStatusRequired
	case !to.Valid():
		return nil, domain.ErrInvalidStatus
	case to == partner.Status:
		return nil, domain.ErrStatusUnchanged
	}

	if err := s.transitionStatus(ctx, actor, partner, to); err != nil {
		return nil, err
	}
	return &ChangeStatusOutput{ID: partner.ID, Status: partner.Status}, nil
}

func (s *PartnerService) transitionStatus(ctx context.Context, actor *model.User, partner *model.Partner, to model.PartnerStatus) error {
	from := partner.Status
	change, err := s.partners.TransitionStatus(ctx, partner.ID, from, to, actorID(actor))
	if err != nil {
		return fmt.Errorf("changing status: %w", err)
	}
	partner.Status = to

	s.metrics.RecordTransition("status", string(from), string(to))
	slog.InfoContext(ctx, "partner status changed",
		"partner_id", partner.ID, "from", from, "to", to, "actor", actor.String())

	if s.notifier != nil {
		if err := s.notifier.PartnerStatusChanged(ctx, partner, change, actor); err != nil {
			slog.WarnContext(ctx, "status change notification failed", "partner_id", partner.ID, "error", err)
		}
	}
	return nil
}

type ChangeRiskInput struct {
	RiskLevel string `json:"risk_level"`
}

type ChangeRiskOutput struct {
	ID        uuid.UUID       `json:"id"`
	RiskLevel model.RiskLevel `json:"risk_level"`
}

// ChangeRisk moves the partner to a new risk level. Unlike status, setting
// the current level again succeeds and writes nothing.
func (s *PartnerService) ChangeRisk(ctx context.Context, actor *model.User, id uuid.UUID, input ChangeRiskInput) (*ChangeRiskOutput, error) {
	partner, err := s.load(ctx, actor, id, authz.ActionChangeRisk)
	if err != nil {
		return nil, err
	}

	to := model.RiskLevel(input.RiskLevel)
	switch {
	case to == "":
		return nil, domain.ErrRiskLevelRequired
	case !to.Valid():
		return nil, domain.ErrInvalidRiskLevel
	}

	from := partner.RiskLevel
	if to == from {
		return &ChangeRiskOutput{ID: partner.ID, RiskLevel: to}, nil
	}

	if _, err := s.partners.TransitionRisk(ctx, partner.ID, from, to, actorID(actor)); err != nil {
		return nil, fmt.Errorf("changing risk level: %w", err)
	}
	partner.RiskLevel = to

	s.metrics.RecordTransition("risk_level", string(from), string(to))
	slog.InfoContext(ctx, "partner risk level changed",
		"partner_id", partner.ID, "from", from, "to", to, "actor", actor.String())

	return &ChangeRiskOutput{ID: partner.ID, RiskLevel: to}, nil
}

// Destroy suspends the partner instead of deleting it. The suspension is
// recorded like any other status transition; destroying an already
// suspended partner changes nothing.
func (s *PartnerService) Destroy(ctx context.Context, actor *model.User, id uuid.UUID) error {
	partner, err := s.load(ctx, actor, id, authz.ActionDestroy)
	if err != nil {
		return err
	}
	if partner.Status == model.PartnerStatusSuspended {
		return nil
	}
	return s.transitionStatus(ctx, actor, partner, model.PartnerStatusSuspended)
}

// StatusHistory returns the partner's status transitions, newest first.
func (s *PartnerService) StatusHistory(ctx context.Context, actor *model.User, id uuid.UUID) ([]model.StatusHistory, error) {
	partner, err := s.load(ctx, actor, id, authz.ActionStatusHistory)
	if err != nil {
		return nil, err
	}
	return s.partners.StatusHistory(ctx, partner.ID)
}

// RiskHistory returns the partner's risk transitions, newest first.
func (s *PartnerService) RiskHistory(ctx context.Context, actor *model.User, id uuid.UUID) ([]model.RiskLevelHistory, error) {
	partner, err := s.load(ctx, actor, id, authz.ActionRiskHistory)
	if err != nil {
		return nil, err
	}
	return s.partners.RiskHistory(ctx, partner.ID)
}

type AssignDepartmentsInput struct {
	DepartmentIDs []uuid.UUID `json:"department_ids" validate:"required,min=1"`
}

// AssignDepartments links the partner to the given departments and returns
// only the links this call created. Unknown departments and existing links
// are skipped.
func (s *PartnerService) AssignDepartments(ctx context.Context, actor *model.User, id uuid.UUID, input AssignDepartmentsInput) ([]model.PartnerDepartment, error) {
	partner, err := s.load(ctx, actor, id, authz.ActionAssignDepartments)
	if err != nil {
		return nil, err
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	created, err := s.assignments.Assign(ctx, partner.ID, input.DepartmentIDs)
	if err != nil {
		return nil, fmt.Errorf("assigning departments: %w", err)
	}
	for _, a := range created {
		_ = s.relations.PartnerAssigned(ctx, partner.ID, a.DepartmentID)
	}
	return created, nil
}

// UnassignDepartment removes one link. A missing link is
// domain.ErrAssignmentNotFound.
func (s *PartnerService) UnassignDepartment(ctx context.Context, actor *model.User, id, departmentID uuid.UUID) error {
	partner, err := s.load(ctx, actor, id, authz.ActionUnassignDepartment)
	if err != nil {
		return err
	}
	if err := s.assignments.Unassign(ctx, partner.ID, departmentID); err != nil {
		return err
	}
	_ = s.relations.PartnerUnassigned(ctx, partner.ID, departmentID)
	return nil
}

func (s *PartnerService) Departments(ctx context.Context, actor *model.User, id uuid.UUID) ([]model.PartnerDepartment, error) {
	partner, err := s.load(ctx, actor, id, authz.ActionListDepartments)
	if err != nil {
		return nil, err
	}
	return s.assignments.FindByPartner(ctx, partner.ID)
}

// Purge physically deletes the partner and everything it owns. It is an
// operator action with no principal.
func (s *PartnerService) Purge(ctx context.Context, id uuid.UUID) error {
	partner, err := s.partners.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.partners.Purge(ctx, partner.ID); err != nil {
		return fmt.Errorf("purging partner: %w", err)
	}
	for _, a := range partner.Assignments {
		_ = s.relations.PartnerUnassigned(ctx, partner.ID, a.DepartmentID)
	}
	slog.InfoContext(ctx, "partner purged", "partner_id", partner.ID)
	return nil
}
