// internal/service/project.go
package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dangerclosesec/partnerhub/internal/authz"
	"github.com/dangerclosesec/partnerhub/internal/domain"
	"github.com/dangerclosesec/partnerhub/internal/model"
	"github.com/dangerclosesec/partnerhub/internal/repository"
	"github.com/dangerclosesec/partnerhub/internal/storage"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// ProjectService manages projects, the roles partners play on them and the
// MOUs signed for them. Any authenticated user may manage projects; linking
// a partner additionally requires access to that partner.
type ProjectService struct {
	projects *repository.ProjectRepository
	links    *repository.ProjectPartnerRepository
	mous     *repository.MOURepository
	partners repository.PartnerRepositoryIface
	files    storage.FileStore
	policy   *authz.Policy
	validate *validator.Validate
}

func NewProjectService(
	projects *repository.ProjectRepository,
	links *repository.ProjectPartnerRepository,
	mous *repository.MOURepository,
	partners repository.PartnerRepositoryIface,
	files storage.FileStore,
	policy *authz.Policy,
) *ProjectService {
	return &ProjectService{
		projects: projects,
		links:    links,
		mous:     mous,
		partners: partners,
		files:    files,
		policy:   policy,
		validate: newValidator(),
	}
}

func parseDate(field string, value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *value)
	if err != nil {
		return nil, domain.Validationf("%s must be a date formatted YYYY-MM-DD", field)
	}
	return &t, nil
}

func parseRange(start, end *string) (*time.Time, *time.Time, error) {
	from, err := parseDate("start_date", start)
	if err != nil {
		return nil, nil, err
	}
	to, err := parseDate("end_date", end)
	if err != nil {
		return nil, nil, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, domain.Validationf("end_date must not be before start_date")
	}
	return from, to, nil
}

func requireActor(actor *model.User) error {
	if actor == nil {
		return domain.ErrUnauthenticated
	}
	return nil
}

// partnerFor loads the partner and runs both gates for linking it.
func (s *ProjectService) partnerFor(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Partner, error) {
	if err := s.policy.CheckPermission(ctx, actor, authz.ActionLinkProjects); err != nil {
		return nil, err
	}
	partner, err := s.partners.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.ObjectGate(ctx, actor, authz.ActionLinkProjects, partner); err != nil {
		return nil, err
	}
	return partner, nil
}

// Projects

type ProjectInput struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	Status      string  `json:"status" validate:"omitempty,oneof=planned ongoing completed on_hold cancelled"`
}

func (s *ProjectService) apply(project *model.Project, input ProjectInput) error {
	if err := s.validate.Struct(input); err != nil {
		return validationError(err)
	}
	start, end, err := parseRange(input.StartDate, input.EndDate)
	if err != nil {
		return err
	}
	project.Name = input.Name
	project.Description = input.Description
	project.StartDate, project.EndDate = start, end
	if input.Status != "" {
		project.Status = model.ProjectStatus(input.Status)
	}
	return nil
}

func (s *ProjectService) CreateProject(ctx context.Context, actor *model.User, input ProjectInput) (*model.Project, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	project := &model.Project{}
	if err := s.apply(project, input); err != nil {
		return nil, err
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

type ListProjectsInput struct {
	Status string `json:"status" validate:"omitempty,oneof=planned ongoing completed on_hold cancelled"`
	Limit  int    `json:"limit" validate:"min=0"`
	Offset int    `json:"offset" validate:"min=0"`
}

type ListProjectsOutput struct {
	Projects []model.Project `json:"results"`
	Count    int64           `json:"count"`
}

func (s *ProjectService) ListProjects(ctx context.Context, actor *model.User, input ListProjectsInput) (*ListProjectsOutput, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	projects, count, err := s.projects.List(ctx, model.ProjectStatus(input.Status), repository.Page{Limit: input.Limit, Offset: input.Offset})
	if err != nil {
		return nil, err
	}
	return &ListProjectsOutput{Projects: projects, Count: count}, nil
}

func (s *ProjectService) GetProject(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Project, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.projects.FindByID(ctx, id)
}

func (s *ProjectService) UpdateProject(ctx context.Context, actor *model.User, id uuid.UUID, input ProjectInput) (*model.Project, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(project, input); err != nil {
		return nil, err
	}
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) DeleteProject(ctx context.Context, actor *model.User, id uuid.UUID) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	return s.projects.Delete(ctx, id)
}

// Project partners

type ProjectPartnerInput struct {
	ProjectID    uuid.UUID `json:"project" validate:"required"`
	PartnerID    uuid.UUID `json:"partner" validate:"required"`
	Role         string    `json:"role" validate:"required,oneof=lead support consultant other"`
	Contribution *string   `json:"contribution"`
	StartDate    *string   `json:"start_date"`
	EndDate      *string   `json:"end_date"`
	Status       string    `json:"status" validate:"omitempty,oneof=active inactive completed on_hold cancelled"`
}

func (s *ProjectService) applyLink(ctx context.Context, actor *model.User, link *model.ProjectPartner, input ProjectPartnerInput) error {
	if err := s.validate.Struct(input); err != nil {
		return validationError(err)
	}
	start, end, err := parseRange(input.StartDate, input.EndDate)
	if err != nil {
		return err
	}
	if _, err := s.projects.FindByID(ctx, input.ProjectID); err != nil {
		return err
	}
	if _, err := s.partnerFor(ctx, actor, input.PartnerID); err != nil {
		return err
	}

	link.ProjectID = input.ProjectID
	link.PartnerID = input.PartnerID
	link.Role = model.ProjectPartnerRole(input.Role)
	link.Contribution = input.Contribution
	link.StartDate, link.EndDate = start, end
	if input.Status != "" {
		link.Status = model.ProjectPartnerStatus(input.Status)
	}
	return nil
}

// CreateProjectPartner records the role a partner plays on a project. A
// partner holding the same role twice on one project is a conflict.
func (s *ProjectService) CreateProjectPartner(ctx context.Context, actor *model.User, input ProjectPartnerInput) (*model.ProjectPartner, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	link := &model.ProjectPartner{}
	if err := s.applyLink(ctx, actor, link, input); err != nil {
		return nil, err
	}
	if err := s.links.Create(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

type ListLinksInput struct {
	ProjectID *uuid.UUID
	PartnerID *uuid.UUID
	Status    string
	Limit     int `validate:"min=0"`
	Offset    int `validate:"min=0"`
}

const (
	projectPartnerStatuses = "active inactive completed on_hold cancelled"
	mouStatuses            = "active expired terminated pending"
)

// validate checks the listing against statuses, the enum of the listed
// model.
func (f ListLinksInput) validate(v *validator.Validate, statuses string) error {
	if err := v.Struct(f); err != nil {
		return validationError(err)
	}
	if err := v.Var(f.Status, "omitempty,oneof="+statuses); err != nil {
		return domain.Validationf("status must be one of [%s]", statuses)
	}
	return nil
}

func (f ListLinksInput) filter() repository.ProjectPartnerFilter {
	return repository.ProjectPartnerFilter{
		ProjectID: f.ProjectID,
		PartnerID: f.PartnerID,
		Status:    f.Status,
		Page:      repository.Page{Limit: f.Limit, Offset: f.Offset},
	}
}

type ListProjectPartnersOutput struct {
	ProjectPartners []model.ProjectPartner `json:"results"`
	Count           int64                  `json:"count"`
}

func (s *ProjectService) ListProjectPartners(ctx context.Context, actor *model.User, input ListLinksInput) (*ListProjectPartnersOutput, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := input.validate(s.validate, projectPartnerStatuses); err != nil {
		return nil, err
	}
	rows, count, err := s.links.List(ctx, input.filter())
	if err != nil {
		return nil, err
	}
	return &ListProjectPartnersOutput{ProjectPartners: rows, Count: count}, nil
}

func (s *ProjectService) GetProjectPartner(ctx context.Context, actor *model.User, id uuid.UUID) (*model.ProjectPartner, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.links.FindByID(ctx, id)
}

func (s *ProjectService) UpdateProjectPartner(ctx context.Context, actor *model.User, id uuid.UUID, input ProjectPartnerInput) (*model.ProjectPartner, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	link, err := s.links.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.partnerFor(ctx, actor, link.PartnerID); err != nil {
		return nil, err
	}
	if err := s.applyLink(ctx, actor, link, input); err != nil {
		return nil, err
	}
	if err := s.links.Update(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

func (s *ProjectService) DeleteProjectPartner(ctx context.Context, actor *model.User, id uuid.UUID) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	link, err := s.links.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.partnerFor(ctx, actor, link.PartnerID); err != nil {
		return err
	}
	return s.links.Delete(ctx, link.ID)
}

// MOUs

type MOUInput struct {
	ProjectID   uuid.UUID `json:"project" validate:"required"`
	PartnerID   uuid.UUID `json:"partner" validate:"required"`
	Title       string    `json:"title" validate:"required,max=255"`
	Description *string   `json:"description"`
	StartDate   *string   `json:"start_date"`
	EndDate     *string   `json:"end_date"`
	Status      string    `json:"status" validate:"omitempty,oneof=active expired terminated pending"`
}

func (s *ProjectService) applyMOU(ctx context.Context, actor *model.User, mou *model.MOU, input MOUInput) error {
	if err := s.validate.Struct(input); err != nil {
		return validationError(err)
	}
	start, end, err := parseRange(input.StartDate, input.EndDate)
	if err != nil {
		return err
	}
	if _, err := s.projects.FindByID(ctx, input.ProjectID); err != nil {
		return err
	}
	if _, err := s.partnerFor(ctx, actor, input.PartnerID); err != nil {
		return err
	}

	mou.ProjectID = input.ProjectID
	mou.PartnerID = input.PartnerID
	mou.Title = input.Title
	mou.Description = input.Description
	mou.StartDate, mou.EndDate = start, end
	if input.Status != "" {
		mou.Status = model.MOUStatus(input.Status)
	}
	return nil
}

func (s *ProjectService) CreateMOU(ctx context.Context, actor *model.User, input MOUInput) (*model.MOU, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	mou := &model.MOU{}
	if err := s.applyMOU(ctx, actor, mou, input); err != nil {
		return nil, err
	}
	if err := s.mous.Create(ctx, mou); err != nil {
		return nil, err
	}
	return mou, nil
}

type ListMOUsOutput struct {
	MOUs  []model.MOU `json:"results"`
	Count int64       `json:"count"`
}

func (s *ProjectService) ListMOUs(ctx context.Context, actor *model.User, input ListLinksInput) (*ListMOUsOutput, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := input.validate(s.validate, mouStatuses); err != nil {
		return nil, err
	}
	rows, count, err := s.mous.List(ctx, input.filter())
	if err != nil {
		return nil, err
	}
	return &ListMOUsOutput{MOUs: rows, Count: count}, nil
}

func (s *ProjectService) GetMOU(ctx context.Context, actor *model.User, id uuid.UUID) (*model.MOU, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.mous.FindByID(ctx, id)
}

// UpdateMOU requires access to the current partner and to the one named
// in input. It leaves document_url alone; it only changes through
// UploadMOUDocument.
func (s *ProjectService) UpdateMOU(ctx context.Context, actor *model.User, id uuid.UUID, input MOUInput) (*model.MOU, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	mou, err := s.mous.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.partnerFor(ctx, actor, mou.PartnerID); err != nil {
		return nil, err
	}
	if err := s.applyMOU(ctx, actor, mou, input); err != nil {
		return nil, err
	}
	if err := s.mous.Update(ctx, mou); err != nil {
		return nil, err
	}
	return mou, nil
}

// UploadMOUDocument stores the signed document and points the MOU at it.
func (s *ProjectService) UploadMOUDocument(ctx context.Context, actor *model.User, id uuid.UUID, name string, r io.Reader) (*model.MOU, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	mou, err := s.mous.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.partnerFor(ctx, actor, mou.PartnerID); err != nil {
		return nil, err
	}

	url, err := s.files.Save(ctx, "mou_documents/"+name, r)
	if err != nil {
		return nil, fmt.Errorf("storing mou document: %w", err)
	}
	mou.DocumentURL = &url
	if err := s.mous.Update(ctx, mou); err != nil {
		return nil, err
	}
	return mou, nil
}

func (s *ProjectService) DeleteMOU(ctx context.Context, actor *model.User, id uuid.UUID) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	mou, err := s.mous.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.partnerFor(ctx, actor, mou.PartnerID); err != nil {
		return err
	}
	return s.mous.Delete(ctx, mou.ID)
}
