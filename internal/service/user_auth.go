package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dangerclosesec/partnerhub/internal/auth"
	"github.com/dangerclosesec/partnerhub/internal/domain"
	"github.com/dangerclosesec/partnerhub/internal/metrics"
	"github.com/dangerclosesec/partnerhub/internal/model"
	"github.com/dangerclosesec/partnerhub/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type AuthService struct {
	repo           repository.UserRepositoryIface
	passwordHasher *auth.PasswordHasher
	tokenManager   *auth.TokenManager
	metrics        *metrics.Metrics
	validate       *validator.Validate
}

func NewAuthService(
	repo repository.UserRepositoryIface,
	passwordHasher *auth.PasswordHasher,
	tokenManager *auth.TokenManager,
	m *metrics.Metrics,
) *AuthService {
	return &AuthService{
		repo:           repo,
		passwordHasher: passwordHasher,
		tokenManager:   tokenManager,
		metrics:        m,
		validate:       newValidator(),
	}
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginOutput struct {
	User    *model.User `json:"user"`
	Access  string      `json:"access"`
	Refresh string      `json:"refresh"`
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginOutput, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	// Find the user
	user, err := s.repo.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.metrics.RecordLogin("invalid")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	verified, err := s.passwordHasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verifying password: %w", err)
	}
	if !verified {
		s.metrics.RecordLogin("invalid")
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		s.metrics.RecordLogin("inactive")
		return nil, domain.ErrInactiveUser
	}
	s.rehash(ctx, user, input.Password)

	pair, err := s.tokenManager.GeneratePair(user.ID.String(), user.Username)
	if err != nil {
		return nil, fmt.Errorf("generating tokens: %w", err)
	}

	s.metrics.RecordLogin("success")
	return &LoginOutput{
		User:    user,
		Access:  pair.Access,
		Refresh: pair.Refresh,
	}, nil
}

// rehash upgrades a hash stored with other cost parameters. Failure only
// logs; the login still succeeds.
func (s *AuthService) rehash(ctx context.Context, user *model.User, password string) {
	if !s.passwordHasher.NeedsRehash(user.PasswordHash) {
		return
	}
	hash, err := s.passwordHasher.Hash(password)
	if err == nil {
		err = s.repo.SetPasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		slog.WarnContext(ctx, "password rehash failed", "user_id", user.ID, "error", err)
		return
	}
	user.PasswordHash = hash
}

type RefreshInput struct {
	Refresh string `json:"refresh" validate:"required"`
}

// Refresh trades a refresh token for a new pair. The user must still exist
// and be active.
func (s *AuthService) Refresh(ctx context.Context, input RefreshInput) (*auth.TokenPair, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	claims, err := s.tokenManager.ValidateRefresh(input.Refresh)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	user, err := s.userFromClaims(ctx, claims, s.repo.FindByID)
	if err != nil {
		return nil, err
	}

	pair, err := s.tokenManager.GeneratePair(user.ID.String(), user.Username)
	if err != nil {
		return nil, fmt.Errorf("generating tokens: %w", err)
	}
	return pair, nil
}

// Principal resolves an access token to a user loaded for authorization.
func (s *AuthService) Principal(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.tokenManager.Validate(token)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	return s.userFromClaims(ctx, claims, s.repo.FindPrincipal)
}

func (s *AuthService) userFromClaims(ctx context.Context, claims *auth.Claims, find func(context.Context, uuid.UUID) (*model.User, error)) (*model.User, error) {
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	user, err := find(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrInactiveUser
	}
	return user, nil
}

type MeOutput struct {
	*model.User
	EffectiveRoles       []string `json:"effective_roles"`
	EffectivePermissions []string `json:"effective_permissions"`
}

// Me describes the principal with its effective roles and permissions.
func (s *AuthService) Me(ctx context.Context, actor *model.User) (*MeOutput, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}
	roles := []string{}
	for _, r := range EffectiveRoles(actor) {
		roles = append(roles, r.Name)
	}
	return &MeOutput{
		User:                 actor,
		EffectiveRoles:       roles,
		EffectivePermissions: EffectivePermissions(actor),
	}, nil
}
