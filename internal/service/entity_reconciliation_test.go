package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dangerclosesec/partnerhub/internal/auth"
	"github.com/dangerclosesec/partnerhub/internal/metrics"
	"github.com/dangerclosesec/partnerhub/internal/mocks"
	"github.com/dangerclosesec/partnerhub/internal/model"
	"github.com/dangerclosesec/partnerhub/internal/service"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestReconcileAll(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	assignments := mocks.NewMockPartnerDepartmentRepositoryIface(ctrl)
	users := mocks.NewMockUserRepositoryIface(ctrl)
	writer := mocks.NewMockRelationWriter(ctrl)
	m := metrics.New(prometheus.NewRegistry())

	programs := model.Department{ID: uuid.New(), Name: "Programs"}
	finance := model.Department{ID: uuid.New(), Name: "Finance"}
	p1, p2 := uuid.New(), uuid.New()

	assignments.EXPECT().FindAll(ctx).Return([]model.PartnerDepartment{
		{PartnerID: p1, DepartmentID: programs.ID},
		{PartnerID: p2, DepartmentID: finance.ID},
	}, nil)
	users.EXPECT().FindWithDepartments(ctx).Return([]*model.User{
		{ID: uuid.New(), Departments: []model.Department{programs, finance}},
		{ID: uuid.New()},
	}, nil)

	writer.EXPECT().
		WriteRelationship(ctx, model.Entity{Type: model.EntityPartner, ID: p1.String()}, auth.RelationDepartment, model.Subject{Type: model.EntityDepartment, ID: programs.ID.String()}).
		Return(nil)
	writer.EXPECT().
		WriteRelationship(ctx, model.Entity{Type: model.EntityPartner, ID: p2.String()}, auth.RelationDepartment, gomock.Any()).
		Return(errors.New("connection refused"))
	writer.EXPECT().
		WriteRelationship(ctx, gomock.Any(), auth.RelationMember, gomock.Any()).
		Return(nil).Times(2)

	svc := service.NewReconciliationService(assignments, users, service.NewRelationSync(writer, nil, m), 0, nil)
	report, err := svc.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, &service.ReconcileReport{Assignments: 1, Memberships: 2, Failures: 1}, report)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RelationSyncErrorCounter.WithLabelValues("write")))
}

func TestReconcileDryRun(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	assignments := mocks.NewMockPartnerDepartmentRepositoryIface(ctrl)
	users := mocks.NewMockUserRepositoryIface(ctrl)
	writer := mocks.NewMockRelationWriter(ctrl)

	assignments.EXPECT().FindAll(ctx).Return([]model.PartnerDepartment{{PartnerID: uuid.New(), DepartmentID: uuid.New()}}, nil)
	users.EXPECT().FindWithDepartments(ctx).Return(nil, nil)

	svc := service.NewReconciliationService(assignments, users, service.NewRelationSync(writer, nil, nil), 0, nil)
	svc.SetDryRun(true)

	report, err := svc.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Assignments)
}

func TestReconcileStopsOnReadError(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	assignments := mocks.NewMockPartnerDepartmentRepositoryIface(ctrl)
	users := mocks.NewMockUserRepositoryIface(ctrl)

	assignments.EXPECT().FindAll(ctx).Return(nil, errors.New("db down"))

	svc := service.NewReconciliationService(assignments, users, nil, 0, nil)
	_, err := svc.ReconcileAll(ctx)
	assert.ErrorContains(t, err, "db down")
}

func TestRelationSyncDisabled(t *testing.T) {
	var sync *service.RelationSync
	assert.NoError(t, sync.PartnerAssigned(context.Background(), uuid.New(), uuid.New()))
	assert.NoError(t, sync.MemberRemoved(context.Background(), uuid.New(), uuid.New()))
}
