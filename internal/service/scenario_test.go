package service_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dangerclosesec/partnerhub/internal/auth"
	"github.com/dangerclosesec/partnerhub/internal/authz"
	"github.com/dangerclosesec/partnerhub/internal/database"
	"github.com/dangerclosesec/partnerhub/internal/domain"
	"github.com/dangerclosesec/partnerhub/internal/model"
	"github.com/dangerclosesec/partnerhub/internal/repository"
	"github.com/dangerclosesec/partnerhub/internal/service"
	"github.com/dangerclosesec/partnerhub/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stack struct {
	db       *gorm.DB
	users    *repository.UserRepository
	identity *service.UserService
	partners *service.PartnerService
	projects *service.ProjectService
	admin    *model.User
}

func newStack(t *testing.T) *stack {
	t.Helper()
	dir := t.TempDir()

	db, err := database.OpenSQLite(filepath.Join(dir, "partnerhub_test.db"))
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	policy := authz.NewPolicy(nil, nil)
	users := repository.NewUserRepository(db)
	partnerRepo := repository.NewPartnerRepository(db)
	files := storage.NewLocalFileStore(filepath.Join(dir, "media"), "/media/")

	s := &stack{
		db:       db,
		users:    users,
		identity: service.NewUserService(users, repository.NewAccessRepository(db), auth.NewPasswordHasherWithParams(1, 8*1024, 1), policy, nil),
		partners: service.NewPartnerService(
			partnerRepo,
			repository.NewPartnerDepartmentRepository(db),
			repository.NewPartnerContentRepository(db),
			files,
			policy,
		),
		projects: service.NewProjectService(
			repository.NewProjectRepository(db),
			repository.NewProjectPartnerRepository(db),
			repository.NewMOURepository(db),
			partnerRepo,
			files,
			policy,
		),
	}

	s.admin, err = s.identity.BootstrapAdmin(context.Background(), service.CreateUserInput{
		Username: "admin",
		Email:    "admin@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	return s
}

func (s *stack) department(t *testing.T, name string, roles ...string) *model.Department {
	t.Helper()
	d, err := s.identity.CreateDepartment(context.Background(), s.admin, service.DepartmentInput{Name: name, RoleNames: roles})
	require.NoError(t, err)
	return d
}

// member creates a user in the named departments and returns it loaded as
// a principal.
func (s *stack) member(t *testing.T, username string, departments ...string) *model.User {
	t.Helper()
	ctx := context.Background()
	u, err := s.identity.CreateUser(ctx, s.admin, service.CreateUserInput{
		Username:        username,
		Email:           username + "@example.com",
		Password:        "correct horse battery",
		DepartmentNames: departments,
	})
	require.NoError(t, err)

	principal, err := s.users.FindPrincipal(ctx, u.ID)
	require.NoError(t, err)
	return principal
}

func TestStatusLifecycleAcrossDepartments(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	programs := s.department(t, "Programs")
	s.department(t, "Finance")
	alice := s.member(t, "alice", "Programs")
	bob := s.member(t, "bob", "Finance")

	partner, err := s.partners.Create(ctx, s.admin, service.CreatePartnerInput{
		Name:          "Acme Relief",
		Type:          "NGO",
		DepartmentIDs: []uuid.UUID{programs.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, model.PartnerStatusPending, partner.Status)
	assert.Equal(t, model.RiskLevelLow, partner.RiskLevel)

	out, err := s.partners.ChangeStatus(ctx, s.admin, partner.ID, service.ChangeStatusInput{Status: "approved"})
	require.NoError(t, err)
	assert.Equal(t, model.PartnerStatusApproved, out.Status)

	history, err := s.partners.StatusHistory(ctx, s.admin, partner.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)

	_, err = s.partners.ChangeStatus(ctx, bob, partner.ID, service.ChangeStatusInput{Status: "suspended"})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	_, err = s.partners.ChangeStatus(ctx, alice, partner.ID, service.ChangeStatusInput{Status: "suspended"})
	require.NoError(t, err)

	history, err = s.partners.StatusHistory(ctx, alice, partner.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.PartnerStatusApproved, history[0].OldStatus)
	assert.Equal(t, model.PartnerStatusSuspended, history[0].NewStatus)
	assert.Equal(t, "alice", history[0].ChangedBy.String())
	assert.Equal(t, model.PartnerStatusPending, history[1].OldStatus)
	assert.Equal(t, model.PartnerStatusApproved, history[1].NewStatus)
	assert.Equal(t, "admin", history[1].ChangedBy.String())

	detail, err := s.partners.Get(ctx, alice, partner.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PartnerStatusSuspended, detail.Status)
	assert.Len(t, detail.StatusHistory, 2)

	_, err = s.partners.Get(ctx, bob, partner.ID)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestDestroyIsAuditedSuspension(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	partner, err := s.partners.Create(ctx, s.admin, service.CreatePartnerInput{Name: "Embassy of Nowhere", Type: "EMBASSY"})
	require.NoError(t, err)

	require.NoError(t, s.partners.Destroy(ctx, s.admin, partner.ID))
	require.NoError(t, s.partners.Destroy(ctx, s.admin, partner.ID))

	history, err := s.partners.StatusHistory(ctx, s.admin, partner.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.PartnerStatusSuspended, history[0].NewStatus)

	list, err := s.partners.List(ctx, s.admin, service.ListPartnersInput{Status: "suspended"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Count)
}

func TestRiskTransitions(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	partner, err := s.partners.Create(ctx, s.admin, service.CreatePartnerInput{Name: "Globex", Type: "CORPORATE"})
	require.NoError(t, err)

	before, err := s.partners.Get(ctx, s.admin, partner.ID)
	require.NoError(t, err)
	_, err = s.partners.ChangeRisk(ctx, s.admin, partner.ID, service.ChangeRiskInput{RiskLevel: "low"})
	require.NoError(t, err)
	after, err := s.partners.Get(ctx, s.admin, partner.ID)
	require.NoError(t, err)
	assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt), "a no-op risk change must not touch the row")

	_, err = s.partners.ChangeRisk(ctx, s.admin, partner.ID, service.ChangeRiskInput{RiskLevel: "critical"})
	require.NoError(t, err)

	history, err := s.partners.RiskHistory(ctx, s.admin, partner.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.RiskLevelLow, history[0].OldRisk)
	assert.Equal(t, model.RiskLevelCritical, history[0].NewRisk)
}

func TestCreatorDepartmentsAreAssigned(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	s.department(t, "Programs")
	alice := s.member(t, "alice", "Programs")
	loner := s.member(t, "loner")

	partner, err := s.partners.Create(ctx, alice, service.CreatePartnerInput{Name: "Initech", Type: "OTHER"})
	require.NoError(t, err)
	require.Len(t, partner.Assignments, 1)
	assert.Equal(t, "Programs", partner.Assignments[0].Department.Name)

	_, err = s.partners.Create(ctx, loner, service.CreatePartnerInput{Name: "Nope", Type: "OTHER"})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	list, err := s.partners.List(ctx, loner, service.ListPartnersInput{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Count)
}

func TestDocuments(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	partner, err := s.partners.Create(ctx, s.admin, service.CreatePartnerInput{Name: "Acme", Type: "NGO"})
	require.NoError(t, err)

	_, err = s.partners.CreateDocument(ctx, s.admin, partner.ID, service.CreateDocumentInput{FileType: "license"})
	assert.ErrorIs(t, err, domain.ErrDocumentSource)

	uploaded, err := s.partners.CreateDocument(ctx, s.admin, partner.ID, service.CreateDocumentInput{
		FileType: "license",
		FileName: "license.pdf",
		File:     strings.NewReader("%PDF-1.4"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uploaded.FileURL, "/media/partner_documents/"), uploaded.FileURL)

	linked, err := s.partners.CreateDocument(ctx, s.admin, partner.ID, service.CreateDocumentInput{
		FileType: "audit",
		FileURL:  "https://files.example.com/audit.pdf",
	})
	require.NoError(t, err)

	docs, err := s.partners.Documents(ctx, s.admin, partner.ID)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	_, err = s.partners.Document(ctx, s.admin, uuid.New(), linked.ID)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	require.NoError(t, s.partners.DeleteDocument(ctx, s.admin, uuid.Nil, linked.ID))
	_, err = s.partners.Document(ctx, s.admin, uuid.Nil, linked.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProfileUpsert(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	partner, err := s.partners.Create(ctx, s.admin, service.CreatePartnerInput{Name: "Acme", Type: "NGO"})
	require.NoError(t, err)

	_, err = s.partners.Profile(ctx, s.admin, partner.ID)
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	first := "REG-1"
	_, err = s.partners.SaveProfile(ctx, s.admin, partner.ID, service.ProfileInput{RegistrationNumber: &first})
	require.NoError(t, err)

	second := "REG-2"
	saved, err := s.partners.SaveProfile(ctx, s.admin, partner.ID, service.ProfileInput{RegistrationNumber: &second})
	require.NoError(t, err)

	profile, err := s.partners.Profile(ctx, s.admin, partner.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, profile.ID)
	assert.Equal(t, "REG-2", *profile.RegistrationNumber)

	bad := "not-an-email"
	_, err = s.partners.SaveProfile(ctx, s.admin, partner.ID, service.ProfileInput{ContactEmail: &bad})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestProjectPartnerUniqueness(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	partner, err := s.partners.Create(ctx, s.admin, service.CreatePartnerInput{Name: "Acme", Type: "NGO"})
	require.NoError(t, err)
	project, err := s.projects.CreateProject(ctx, s.admin, service.ProjectInput{Name: "Clean Water"})
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusPlanned, project.Status)

	input := service.ProjectPartnerInput{ProjectID: project.ID, PartnerID: partner.ID, Role: "lead"}
	_, err = s.projects.CreateProjectPartner(ctx, s.admin, input)
	require.NoError(t, err)

	_, err = s.projects.CreateProjectPartner(ctx, s.admin, input)
	assert.ErrorIs(t, err, domain.ErrDuplicateProjectPartner)
	assert.ErrorIs(t, err, domain.ErrConflict)

	input.Role = "support"
	_, err = s.projects.CreateProjectPartner(ctx, s.admin, input)
	require.NoError(t, err)

	start, end := "2025-03-01", "2025-01-01"
	_, err = s.projects.CreateMOU(ctx, s.admin, service.MOUInput{
		ProjectID: project.ID, PartnerID: partner.ID, Title: "Water MOU", StartDate: &start, EndDate: &end,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	mou, err := s.projects.CreateMOU(ctx, s.admin, service.MOUInput{ProjectID: project.ID, PartnerID: partner.ID, Title: "Water MOU"})
	require.NoError(t, err)
	assert.Equal(t, model.MOUStatusPending, mou.Status)

	mou, err = s.projects.UploadMOUDocument(ctx, s.admin, mou.ID, "signed.pdf", strings.NewReader("signed"))
	require.NoError(t, err)
	require.NotNil(t, mou.DocumentURL)
	assert.True(t, strings.HasPrefix(*mou.DocumentURL, "/media/mou_documents/"))
}

func TestProjectLinkUpdateGatesCurrentPartner(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	programs := s.department(t, "Programs")
	finance := s.department(t, "Finance")
	alice := s.member(t, "alice", "Programs")

	own, err := s.partners.Create(ctx, s.admin, service.CreatePartnerInput{Name: "Acme", Type: "NGO", DepartmentIDs: []uuid.UUID{programs.ID}})
	require.NoError(t, err)
	foreign, err := s.partners.Create(ctx, s.admin, service.CreatePartnerInput{Name: "Globex", Type: "CORPORATE", DepartmentIDs: []uuid.UUID{finance.ID}})
	require.NoError(t, err)
	project, err := s.projects.CreateProject(ctx, s.admin, service.ProjectInput{Name: "Clean Water"})
	require.NoError(t, err)

	link, err := s.projects.CreateProjectPartner(ctx, s.admin, service.ProjectPartnerInput{ProjectID: project.ID, PartnerID: foreign.ID, Role: "lead"})
	require.NoError(t, err)
	mou, err := s.projects.CreateMOU(ctx, s.admin, service.MOUInput{ProjectID: project.ID, PartnerID: foreign.ID, Title: "Water MOU"})
	require.NoError(t, err)

	_, err = s.projects.UpdateProjectPartner(ctx, alice, link.ID, service.ProjectPartnerInput{ProjectID: project.ID, PartnerID: own.ID, Role: "support"})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	_, err = s.projects.UpdateMOU(ctx, alice, mou.ID, service.MOUInput{ProjectID: project.ID, PartnerID: own.ID, Title: "Taken over"})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	stored, err := s.projects.GetProjectPartner(ctx, s.admin, link.ID)
	require.NoError(t, err)
	assert.Equal(t, foreign.ID, stored.PartnerID)
	assert.Equal(t, model.ProjectRoleLead, stored.Role)
	storedMOU, err := s.projects.GetMOU(ctx, s.admin, mou.ID)
	require.NoError(t, err)
	assert.Equal(t, foreign.ID, storedMOU.PartnerID)
	assert.Equal(t, "Water MOU", storedMOU.Title)

	_, err = s.projects.UpdateMOU(ctx, s.admin, mou.ID, service.MOUInput{ProjectID: project.ID, PartnerID: own.ID, Title: "Moved"})
	assert.NoError(t, err)
}

func TestLinkListingsValidateStatus(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	_, err := s.projects.ListProjectPartners(ctx, s.admin, service.ListLinksInput{Status: "pending"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = s.projects.ListMOUs(ctx, s.admin, service.ListLinksInput{Status: "on_hold"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = s.projects.ListProjectPartners(ctx, s.admin, service.ListLinksInput{Status: "on_hold"})
	assert.NoError(t, err)
	out, err := s.projects.ListMOUs(ctx, s.admin, service.ListLinksInput{Status: "pending"})
	require.NoError(t, err)
	assert.Zero(t, out.Count)
}

func TestEffectivePermissions(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	for _, name := range []string{"partners.view", "partners.edit", "reports.view"} {
		_, err := s.identity.CreatePermission(ctx, s.admin, service.PermissionInput{Name: name})
		require.NoError(t, err)
	}
	_, err := s.identity.CreateRole(ctx, s.admin, service.RoleInput{Name: "Analyst", PermissionNames: []string{"reports.view", "partners.view"}})
	require.NoError(t, err)
	_, err = s.identity.CreateRole(ctx, s.admin, service.RoleInput{Name: "Editor", PermissionNames: []string{"partners.edit", "partners.view"}})
	require.NoError(t, err)
	s.department(t, "Programs", "Editor")

	u, err := s.identity.CreateUser(ctx, s.admin, service.CreateUserInput{
		Username:        "carol",
		Email:           "carol@example.com",
		Password:        "correct horse battery",
		RoleName:        strPtr("Analyst"),
		DepartmentNames: []string{"Programs"},
	})
	require.NoError(t, err)

	principal, err := s.users.FindPrincipal(ctx, u.ID)
	require.NoError(t, err)

	roles := service.EffectiveRoles(principal)
	assert.Len(t, roles, 2)
	assert.Equal(t, []string{"partners.edit", "partners.view", "reports.view"}, service.EffectivePermissions(principal))

	_, err = s.identity.CreateUser(ctx, s.admin, service.CreateUserInput{
		Username: "carol", Email: "other@example.com", Password: "correct horse battery",
	})
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)

	_, err = s.identity.CreateUser(ctx, s.admin, service.CreateUserInput{
		Username: "dave", Email: "dave@example.com", Password: "correct horse battery", RoleName: strPtr("Ghost"),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = s.identity.CreateRole(ctx, principal, service.RoleInput{Name: "Sneaky"})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestUserSelfService(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	alice := s.member(t, "alice")
	bob := s.member(t, "bob")

	list, err := s.identity.ListUsers(ctx, alice, 0, 0)
	require.NoError(t, err)
	require.Len(t, list.Users, 1)
	assert.Equal(t, alice.ID, list.Users[0].ID)

	list, err = s.identity.ListUsers(ctx, s.admin, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, list.Count)

	_, err = s.identity.GetUser(ctx, alice, bob.ID)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	updated, err := s.identity.UpdateUser(ctx, alice, alice.ID, service.UpdateUserInput{FirstName: strPtr("Alice")})
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.FirstName)

	active := false
	_, err = s.identity.UpdateUser(ctx, alice, alice.ID, service.UpdateUserInput{IsActive: &active})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	_, err = s.identity.UpdateUser(ctx, alice, alice.ID, service.UpdateUserInput{Email: strPtr("bob@example.com")})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func strPtr(s string) *string {
	return &s
}
