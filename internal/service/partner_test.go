package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dangerclosesec/partnerhub/internal/auth"
	"github.com/dangerclosesec/partnerhub/internal/authz"
	"github.com/dangerclosesec/partnerhub/internal/domain"
	"github.com/dangerclosesec/partnerhub/internal/mocks"
	"github.com/dangerclosesec/partnerhub/internal/model"
	"github.com/dangerclosesec/partnerhub/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type partnerFixture struct {
	partners    *mocks.MockPartnerRepositoryIface
	assignments *mocks.MockPartnerDepartmentRepositoryIface
	notifier    *mocks.MockStatusNotifier
	relations   *mocks.MockRelationWriter
	svc         *service.PartnerService
}

func newPartnerFixture(t *testing.T) *partnerFixture {
	ctrl := gomock.NewController(t)
	f := &partnerFixture{
		partners:    mocks.NewMockPartnerRepositoryIface(ctrl),
		assignments: mocks.NewMockPartnerDepartmentRepositoryIface(ctrl),
		notifier:    mocks.NewMockStatusNotifier(ctrl),
		relations:   mocks.NewMockRelationWriter(ctrl),
	}
	f.svc = service.NewPartnerService(
		f.partners,
		f.assignments,
		nil,
		nil,
		authz.NewPolicy(nil, nil),
		service.WithStatusNotifier(f.notifier),
		service.WithRelationSync(service.NewRelationSync(f.relations, nil, nil)),
	)
	return f
}

func memberOf(departments ...model.Department) *model.User {
	return &model.User{ID: uuid.New(), Username: "member", IsActive: true, Departments: departments}
}

func partnerIn(status model.PartnerStatus, departments ...model.Department) *model.Partner {
	p := &model.Partner{
		ID:        uuid.New(),
		Name:      "Acme Relief",
		Type:      model.PartnerTypeNGO,
		Status:    status,
		RiskLevel: model.RiskLevelLow,
	}
	for _, d := range departments {
		p.Assignments = append(p.Assignments, model.PartnerDepartment{PartnerID: p.ID, DepartmentID: d.ID, Department: d})
	}
	return p
}

func TestChangeStatus(t *testing.T) {
	ctx := context.Background()
	finance := model.Department{ID: uuid.New(), Name: "Finance"}
	legal := model.Department{ID: uuid.New(), Name: "Legal"}

	t.Run("rejects invalid input", func(t *testing.T) {
		tests := []struct {
			name   string
			status string
			want   error
		}{
			{"empty", "", domain.ErrStatusRequired},
			{"unknown", "archived", domain.ErrInvalidStatus},
			{"unchanged", "pending", domain.ErrStatusUnchanged},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newPartnerFixture(t)
				partner := partnerIn(model.PartnerStatusPending, finance)
				f.partners.EXPECT().FindByID(gomock.Any(), partner.ID).Return(partner, nil)

				_, err := f.svc.ChangeStatus(ctx, memberOf(finance), partner.ID, service.ChangeStatusInput{Status: tt.status})
				assert.ErrorIs(t, err, tt.want)
				assert.ErrorIs(t, err, domain.ErrValidation)
			})
		}
	})

	t.Run("records transition and notifies", func(t *testing.T) {
		f := newPartnerFixture(t)
		partner := partnerIn(model.PartnerStatusPending, finance)
		actor := memberOf(finance)
		change := &model.StatusHistory{PartnerID: partner.ID, OldStatus: model.PartnerStatusPending, NewStatus: model.PartnerStatusApproved}

		gomock.InOrder(
			f.partners.EXPECT().FindByID(gomock.Any(), partner.ID).Return(partner, nil),
			f.partners.EXPECT().
				TransitionStatus(gomock.Any(), partner.ID, model.PartnerStatusPending, model.PartnerStatusApproved, &actor.ID).
				Return(change, nil),
			f.notifier.EXPECT().PartnerStatusChanged(gomock.Any(), partner, change, actor).Return(nil),
		)

		out, err := f.svc.ChangeStatus(ctx, actor, partner.ID, service.ChangeStatusInput{Status: "approved"})
		require.NoError(t, err)
		assert.Equal(t, partner.ID, out.ID)
		assert.Equal(t, model.PartnerStatusApproved, out.Status)
	})

	t.Run("notification failure does not fail the transition", func(t *testing.T) {
		f := newPartnerFixture(t)
		partner := partnerIn(model.PartnerStatusApproved, finance)

		f.partners.EXPECT().FindByID(gomock.Any(), partner.ID).Return(partner, nil)
		f.partners.EXPECT().TransitionStatus(gomock.Any(), partner.ID, model.PartnerStatusApproved, model.PartnerStatusBlacklisted, gomock.Any()).
			Return(&model.StatusHistory{}, nil)
		f.notifier.EXPECT().PartnerStatusChanged(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("smtp down"))

		out, err := f.svc.ChangeStatus(ctx, memberOf(finance), partner.ID, service.ChangeStatusInput{Status: "blacklisted"})
		require.NoError(t, err)
		assert.Equal(t, model.PartnerStatusBlacklisted, out.Status)
	})

	t.Run("other department is denied", func(t *testing.T) {
		f := newPartnerFixture(t)
		partner := partnerIn(model.PartnerStatusPending, finance)
		f.partners.EXPECT().FindByID(gomock.Any(), partner.ID).Return(partner, nil)

		_, err := f.svc.ChangeStatus(ctx, memberOf(legal), partner.ID, service.ChangeStatusInput{Status: "approved"})
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	})

	t.Run("anonymous caller never reaches the store", func(t *testing.T) {
		f := newPartnerFixture(t)
		_, err := f.svc.ChangeStatus(ctx, nil, uuid.New(), service.ChangeStatusInput{Status: "approved"})
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("missing partner", func(t *testing.T) {
		f := newPartnerFixture(t)
		id := uuid.New()
		f.partners.EXPECT().FindByID(gomock.Any(), id).Return(nil, domain.ErrPartnerNotFound)

		_, err := f.svc.ChangeStatus(ctx, memberOf(finance), id, service.ChangeStatusInput{Status: "approved"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestChangeRisk(t *testing.T) {
	ctx := context.Background()
	admin := &model.User{ID: uuid.New(), IsSysAdmin: true}

	t.Run("validation", func(t *testing.T) {
		f := newPartnerFixture(t)
		partner := partnerIn(model.PartnerStatusPending)
		f.partners.EXPECT().FindByID(gomock.Any(), partner.ID).Return(partner, nil).Times(2)

		_, err := f.svc.ChangeRisk(ctx, admin, partner.ID, service.ChangeRiskInput{})
		assert.ErrorIs(t, err, domain.ErrRiskLevelRequired)

		_, err = f.svc.ChangeRisk(ctx, admin, partner.ID, service.ChangeRiskInput{RiskLevel: "extreme"})
		assert.ErrorIs(t, err, domain.ErrInvalidRiskLevel)
	})

	t.Run("same level succeeds without writing", func(t *testing.T) {
		f := newPartnerFixture(t)
		partner := partnerIn(model.PartnerStatusPending)
		f.partners.EXPECT().FindByID(gomock.Any(), partner.ID).Return(partner, nil)
		f.partners.EXPECT().TransitionRisk(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		out, err := f.svc.ChangeRisk(ctx, admin, partner.ID, service.ChangeRiskInput{RiskLevel: "low"})
		require.NoError(t, err)
		assert.Equal(t, model.RiskLevelLow, out.RiskLevel)
	})

	t.Run("new level records history", func(t *testing.T) {
		f := newPartnerFixture(t)
		partner := partnerIn(model.PartnerStatusPending)
		gomock.InOrder(
			f.partners.EXPECT().FindByID(gomock.Any(), partner.ID).Return(partner, nil),
			f.partners.EXPECT().TransitionRisk(gomock.Any(), partner.ID, model.RiskLevelLow, model.RiskLevelHigh, &admin.ID).
				Return(&model.RiskLevelHistory{}, nil),
		)

		out, err := f.svc.ChangeRisk(ctx, admin, partner.ID, service.ChangeRiskInput{RiskLevel: "high"})
		require.NoError(t, err)
		assert.Equal(t, partner.ID, out.ID)
		assert.Equal(t, model.RiskLevelHigh, out.RiskLevel)
	})
}

func TestDestroy(t *testing.T) {
	ctx := context.Background()
	admin := &model.User{ID: uuid.New(), IsSysAdmin: true}

	t.Run("suspends through a recorded transition", func(t *testing.T) {
		f := newPartnerFixture(t)
		partner := partnerIn(model.PartnerStatusApproved)
		change := &model.StatusHistory{OldStatus: model.PartnerStatusApproved, NewStatus: model.PartnerStatusSuspended}
		gomock.InOrder(
			f.partners.EXPECT().FindByID(gomock.Any(), partner.ID).Return(partner, nil),
			f.partners.EXPECT().TransitionStatus(gomock.Any(), partner.ID, model.PartnerStatusApproved, model.PartnerStatusSuspended, &admin.ID).
				Return(change, nil),
			f.notifier.EXPECT().PartnerStatusChanged(gomock.Any(), partner, change, admin).Return(nil),
		)

		require.NoError(t, f.svc.Destroy(ctx, admin, partner.ID))
		assert.Equal(t, model.PartnerStatusSuspended, partner.Status)
	})

	t.Run("already suspended is a no-op", func(t *testing.T) {
		f := newPartnerFixture(t)
		partner := partnerIn(model.PartnerStatusSuspended)
		f.partners.EXPECT().FindByID(gomock.Any(), partner.ID).Return(partner, nil)

		assert.NoError(t, f.svc.Destroy(ctx, admin, partner.ID))
	})
}

func TestCreatePartner(t *testing.T) {
	ctx := context.Background()
	finance := model.Department{ID: uuid.New(), Name: "Finance"}

	t.Run("creator without departments is denied", func(t *testing.T) {
		f := newPartnerFixture(t)
		_, err := f.svc.Create(ctx, memberOf(), service.CreatePartnerInput{Name: "Acme", Type: "NGO"})
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	})

	t.Run("invalid type", func(t *testing.T) {
		f := newPartnerFixture(t)
		_, err := f.svc.Create(ctx, memberOf(finance), service.CreatePartnerInput{Name: "Acme", Type: "CHARITY"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("defaults to the creator's departments", func(t *testing.T) {
		f := newPartnerFixture(t)
		actor := memberOf(finance)

		var stored *model.Partner
		f.partners.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p *model.Partner) error {
			require.Len(t, p.Assignments, 1)
			assert.Equal(t, finance.ID, p.Assignments[0].DepartmentID)
			assert.Equal(t, model.PartnerStatusPending, p.Status)
			assert.Equal(t, &actor.ID, p.CreatedByID)
			p.ID = uuid.New()
			stored = p
			return nil
		})
		f.partners.EXPECT().FindByID(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, id uuid.UUID) (*model.Partner, error) {
			loaded := *stored
			loaded.CreatedBy = actor
			loaded.Assignments[0].Department = finance
			return &loaded, nil
		})
		f.relations.EXPECT().WriteRelationship(gomock.Any(),
			gomock.AssignableToTypeOf(model.Entity{}), auth.RelationDepartment,
			model.Subject{Type: model.EntityDepartment, ID: finance.ID.String()},
		).Return(nil)

		partner, err := f.svc.Create(ctx, actor, service.CreatePartnerInput{Name: "Acme", Type: "NGO"})
		require.NoError(t, err)
		assert.Equal(t, actor, partner.CreatedBy)
		assert.Equal(t, "Finance", partner.Assignments[0].Department.Name)
	})

	t.Run("admin without departments creates an unassigned partner", func(t *testing.T) {
		f := newPartnerFixture(t)
		admin := &model.User{ID: uuid.New(), IsSysAdmin: true}

		f.partners.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p *model.Partner) error {
			assert.Empty(t, p.Assignments)
			p.ID = uuid.New()
			return nil
		})
		f.partners.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(&model.Partner{Name: "Ministry"}, nil)

		_, err := f.svc.Create(ctx, admin, service.CreatePartnerInput{Name: "Ministry", Type: "GOV"})
		require.NoError(t, err)
	})
}

func TestAssignDepartments(t *testing.T) {
	ctx := context.Background()
	finance := model.Department{ID: uuid.New(), Name: "Finance"}
	legal := model.Department{ID: uuid.New(), Name: "Legal"}
	actor := memberOf(finance)

	t.Run("syncs only newly created links", func(t *testing.T) {
		f := newPartnerFixture(t)
		partner := partnerIn(model.PartnerStatusPending, finance)
		unknown := uuid.New()
		created := []model.PartnerDepartment{{PartnerID: partner.ID, DepartmentID: legal.ID}}

		gomock.InOrder(
			f.partners.EXPECT().FindByID(gomock.Any(), partner.ID).Return(partner, nil),
			f.assignments.EXPECT().Assign(gomock.Any(), partner.ID, []uuid.UUID{finance.ID, legal.ID, unknown}).Return(created, nil),
			f.relations.EXPECT().WriteRelationship(gomock.Any(),
				model.Entity{Type: model.EntityPartner, ID: partner.ID.String()},
				auth.RelationDepartment,
				model.Subject{Type: model.EntityDepartment, ID: legal.ID.String()},
			).Return(errors.New("permify unavailable")),
		)

		got, err := f.svc.AssignDepartments(ctx, actor, partner.ID, service.AssignDepartmentsInput{
			DepartmentIDs: []uuid.UUID{finance.ID, legal.ID, unknown},
		})
		require.NoError(t, err)
		assert.Equal(t, created, got)
	})

	t.Run("requires at least one id", func(t *testing.T) {
		f := newPartnerFixture(t)
		partner := partnerIn(model.PartnerStatusPending, finance)
		f.partners.EXPECT().FindByID(gomock.Any(), partner.ID).Return(partner, nil)

		_, err := f.svc.AssignDepartments(ctx, actor, partner.ID, service.AssignDepartmentsInput{})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("unassign missing link", func(t *testing.T) {
		f := newPartnerFixture(t)
		partner := partnerIn(model.PartnerStatusPending, finance)
		gomock.InOrder(
			f.partners.EXPECT().FindByID(gomock.Any(), partner.ID).Return(partner, nil),
			f.assignments.EXPECT().Unassign(gomock.Any(), partner.ID, legal.ID).Return(domain.ErrAssignmentNotFound),
		)

		err := f.svc.UnassignDepartment(ctx, actor, partner.ID, legal.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("unassign deletes the mirrored tuple", func(t *testing.T) {
		f := newPartnerFixture(t)
		partner := partnerIn(model.PartnerStatusPending, finance, legal)
		gomock.InOrder(
			f.partners.EXPECT().FindByID(gomock.Any(), partner.ID).Return(partner, nil),
			f.assignments.EXPECT().Unassign(gomock.Any(), partner.ID, legal.ID).Return(nil),
			f.relations.EXPECT().DeleteRelationship(gomock.Any(),
				model.Entity{Type: model.EntityPartner, ID: partner.ID.String()},
				auth.RelationDepartment,
				model.Subject{Type: model.EntityDepartment, ID: legal.ID.String()},
			).Return(nil),
		)

		assert.NoError(t, f.svc.UnassignDepartment(ctx, actor, partner.ID, legal.ID))
	})
}

func TestListPartnersOrdering(t *testing.T) {
	f := newPartnerFixture(t)
	_, err := f.svc.List(context.Background(), memberOf(), service.ListPartnersInput{Ordering: "name"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
