package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dangerclosesec/partnerhub/internal/auth"
	"github.com/dangerclosesec/partnerhub/internal/domain"
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

type authFixture struct {
	repo    *mocks.MockUserRepositoryIface
	tokens  *auth.TokenManager
	metrics *metrics.Metrics
	svc     *service.AuthService
	user    *model.User
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	hasher := auth.NewPasswordHasherWithParams(1, 8*1024, 1)
	hash, err := hasher.Hash("correct horse battery")
	require.NoError(t, err)

	f := &authFixture{
		repo:    mocks.NewMockUserRepositoryIface(ctrl),
		tokens:  auth.NewTokenManager("test-secret", 5*time.Minute, time.Hour),
		metrics: metrics.New(prometheus.NewRegistry()),
		user: &model.User{
			ID:           uuid.New(),
			Username:     "alice",
			PasswordHash: hash,
			IsActive:     true,
		},
	}
	f.svc = service.NewAuthService(f.repo, hasher, f.tokens, f.metrics)
	return f
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newAuthFixture(t)
		f.repo.EXPECT().FindByUsername(ctx, "alice").Return(f.user, nil)

		out, err := f.svc.Login(ctx, service.LoginInput{Username: "alice", Password: "correct horse battery"})
		require.NoError(t, err)
		assert.Equal(t, f.user, out.User)

		claims, err := f.tokens.Validate(out.Access)
		require.NoError(t, err)
		assert.Equal(t, f.user.ID.String(), claims.UserID)

		_, err = f.tokens.Validate(out.Refresh)
		assert.Error(t, err, "refresh token must not pass as an access token")
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.LoginCounter.WithLabelValues("success")))
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newAuthFixture(t)
		f.repo.EXPECT().FindByUsername(ctx, "alice").Return(f.user, nil)

		_, err := f.svc.Login(ctx, service.LoginInput{Username: "alice", Password: "nope"})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.LoginCounter.WithLabelValues("invalid")))
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newAuthFixture(t)
		f.repo.EXPECT().FindByUsername(ctx, "ghost").Return(nil, domain.ErrUserNotFound)

		_, err := f.svc.Login(ctx, service.LoginInput{Username: "ghost", Password: "whatever"})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("inactive user", func(t *testing.T) {
		f := newAuthFixture(t)
		f.user.IsActive = false
		f.repo.EXPECT().FindByUsername(ctx, "alice").Return(f.user, nil)

		_, err := f.svc.Login(ctx, service.LoginInput{Username: "alice", Password: "correct horse battery"})
		assert.ErrorIs(t, err, domain.ErrInactiveUser)
	})

	t.Run("upgrades hash with old parameters", func(t *testing.T) {
		f := newAuthFixture(t)
		old := f.user.PasswordHash
		svc := service.NewAuthService(f.repo, auth.NewPasswordHasherWithParams(2, 8*1024, 1), f.tokens, f.metrics)
		f.repo.EXPECT().FindByUsername(ctx, "alice").Return(f.user, nil)
		f.repo.EXPECT().SetPasswordHash(ctx, f.user.ID, gomock.Any()).Return(nil)

		_, err := svc.Login(ctx, service.LoginInput{Username: "alice", Password: "correct horse battery"})
		require.NoError(t, err)
		assert.NotEqual(t, old, f.user.PasswordHash)
		assert.Contains(t, f.user.PasswordHash, "m=8192,t=2,p=1")
	})

	t.Run("rehash failure does not block login", func(t *testing.T) {
		f := newAuthFixture(t)
		svc := service.NewAuthService(f.repo, auth.NewPasswordHasherWithParams(2, 8*1024, 1), f.tokens, f.metrics)
		f.repo.EXPECT().FindByUsername(ctx, "alice").Return(f.user, nil)
		f.repo.EXPECT().SetPasswordHash(ctx, f.user.ID, gomock.Any()).Return(errors.New("db down"))

		_, err := svc.Login(ctx, service.LoginInput{Username: "alice", Password: "correct horse battery"})
		assert.NoError(t, err)
	})

	t.Run("missing fields", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.svc.Login(ctx, service.LoginInput{Username: "alice"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestRefreshAndPrincipal(t *testing.T) {
	ctx := context.Background()

	t.Run("refresh issues a new pair", func(t *testing.T) {
		f := newAuthFixture(t)
		pair, err := f.tokens.GeneratePair(f.user.ID.String(), f.user.Username)
		require.NoError(t, err)
		f.repo.EXPECT().FindByID(ctx, f.user.ID).Return(f.user, nil)

		next, err := f.svc.Refresh(ctx, service.RefreshInput{Refresh: pair.Refresh})
		require.NoError(t, err)
		assert.NotEmpty(t, next.Access)
	})

	t.Run("access token cannot refresh", func(t *testing.T) {
		f := newAuthFixture(t)
		pair, err := f.tokens.GeneratePair(f.user.ID.String(), f.user.Username)
		require.NoError(t, err)

		_, err = f.svc.Refresh(ctx, service.RefreshInput{Refresh: pair.Access})
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
	})

	t.Run("principal of deleted user", func(t *testing.T) {
		f := newAuthFixture(t)
		token, err := f.tokens.Generate(f.user.ID.String(), f.user.Username)
		require.NoError(t, err)
		f.repo.EXPECT().FindPrincipal(ctx, f.user.ID).Return(nil, domain.ErrUserNotFound)

		_, err = f.svc.Principal(ctx, token)
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
	})

	t.Run("principal", func(t *testing.T) {
		f := newAuthFixture(t)
		token, err := f.tokens.Generate(f.user.ID.String(), f.user.Username)
		require.NoError(t, err)
		f.repo.EXPECT().FindPrincipal(ctx, f.user.ID).Return(f.user, nil)

		got, err := f.svc.Principal(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, f.user.ID, got.ID)
	})

	t.Run("garbage token", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.svc.Principal(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
	})
}

func TestMe(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Me(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	view := model.Permission{ID: uuid.New(), Name: "partners.view"}
	f.user.Role = &model.Role{ID: uuid.New(), Name: "Analyst", Permissions: []model.Permission{view}}
	f.user.Departments = []model.Department{{
		ID:    uuid.New(),
		Name:  "Programs",
		Roles: []model.Role{*f.user.Role},
	}}

	me, err := f.svc.Me(context.Background(), f.user)
	require.NoError(t, err)
	assert.Equal(t, []string{"Analyst"}, me.EffectiveRoles)
	assert.Equal(t, []string{"partners.view"}, me.EffectivePermissions)
}
