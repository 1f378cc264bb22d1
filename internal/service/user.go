// internal/service/user.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dangerclosesec/partnerhub/internal/auth"
	"github.com/dangerclosesec/partnerhub/internal/authz"
	"github.com/dangerclosesec/partnerhub/internal/domain"
	"github.com/dangerclosesec/partnerhub/internal/model"
	"github.com/dangerclosesec/partnerhub/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// EffectiveRoles is the user's own role plus every role attached to the
// user's departments, without duplicates. The user must be loaded with
// FindPrincipal.
func EffectiveRoles(user *model.User) []model.Role {
	if user == nil {
		return nil
	}
	seen := make(map[uuid.UUID]struct{})
	var roles []model.Role
	add := func(r model.Role) {
		if _, ok := seen[r.ID]; ok {
			return
		}
		seen[r.ID] = struct{}{}
		roles = append(roles, r)
	}
	if user.Role != nil {
		add(*user.Role)
	}
	for _, d := range user.Departments {
		for _, r := range d.Roles {
			add(r)
		}
	}
	return roles
}

// EffectivePermissions is the sorted union of permission names granted by
// the user's effective roles.
func EffectivePermissions(user *model.User) []string {
	seen := make(map[string]struct{})
	names := []string{}
	for _, r := range EffectiveRoles(user) {
		for _, p := range r.Permissions {
			if _, ok := seen[p.Name]; ok {
				continue
			}
			seen[p.Name] = struct{}{}
			names = append(names, p.Name)
		}
	}
	sort.Strings(names)
	return names
}

// UserService manages users, roles, permissions and departments. Every
// write is reserved to system admins; users may read and edit themselves.
type UserService struct {
	repo           repository.UserRepositoryIface
	access         *repository.AccessRepository
	passwordHasher *auth.PasswordHasher
	policy         *authz.Policy
	relations      *RelationSync
	validate       *validator.Validate
}

func NewUserService(
	repo repository.UserRepositoryIface,
	access *repository.AccessRepository,
	passwordHasher *auth.PasswordHasher,
	policy *authz.Policy,
	relations *RelationSync,
) *UserService {
	return &UserService{
		repo:           repo,
		access:         access,
		passwordHasher: passwordHasher,
		policy:         policy,
		relations:      relations,
		validate:       newValidator(),
	}
}

func userEntity(id uuid.UUID) model.Entity {
	e := model.Entity{Type: model.EntityUser}
	if id != uuid.Nil {
		e.ID = id.String()
	}
	return e
}

// selfOrAdmin lets users act on their own record.
func (s *UserService) selfOrAdmin(ctx context.Context, actor *model.User, id uuid.UUID, action string) error {
	if actor == nil {
		return domain.ErrUnauthenticated
	}
	if actor.ID == id {
		return nil
	}
	return s.policy.RequireSysAdmin(ctx, actor, action, userEntity(id))
}

type CreateUserInput struct {
	Username        string   `json:"username" validate:"required,max=150"`
	Email           string   `json:"email" validate:"required,email,max=254"`
	Password        string   `json:"password" validate:"required,min=8"`
	FirstName       string   `json:"first_name" validate:"max=30"`
	LastName        string   `json:"last_name" validate:"max=30"`
	PhoneNumber     *string  `json:"phone_number" validate:"omitempty,max=15"`
	IsActive        *bool    `json:"is_active"`
	IsStaff         bool     `json:"is_staff"`
	RoleName        *string  `json:"role_name"`
	DepartmentNames []string `json:"department_names"`
	PermissionNames []string `json:"permission_names"`
}

func (s *UserService) CreateUser(ctx context.Context, actor *model.User, input CreateUserInput) (*model.User, error) {
	if err := s.policy.RequireSysAdmin(ctx, actor, "create", userEntity(uuid.Nil)); err != nil {
		return nil, err
	}
	return s.createUser(ctx, input, false)
}

// CreateAdmin creates a system admin on behalf of another admin.
func (s *UserService) CreateAdmin(ctx context.Context, actor *model.User, input CreateUserInput) (*model.User, error) {
	if err := s.policy.RequireSysAdmin(ctx, actor, "create_admin", userEntity(uuid.Nil)); err != nil {
		return nil, err
	}
	return s.createUser(ctx, input, true)
}

// BootstrapAdmin creates a system admin without a principal. It backs the
// operator command that seeds the first account.
func (s *UserService) BootstrapAdmin(ctx context.Context, input CreateUserInput) (*model.User, error) {
	return s.createUser(ctx, input, true)
}

func (s *UserService) createUser(ctx context.Context, input CreateUserInput, sysAdmin bool) (*model.User, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	if err := s.checkUnique(ctx, input.Username, input.Email, uuid.Nil); err != nil {
		return nil, err
	}

	hash, err := s.passwordHasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PhoneNumber:  input.PhoneNumber,
		IsActive:     true,
		IsStaff:      input.IsStaff || sysAdmin,
		IsSysAdmin:   sysAdmin,
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if err := s.resolveLinks(ctx, user, input.RoleName, input.DepartmentNames, input.PermissionNames); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	for _, d := range user.Departments {
		_ = s.relations.MemberAdded(ctx, d.ID, user.ID)
	}

	slog.InfoContext(ctx, "user created", "user_id", user.ID, "sys_admin", sysAdmin)
	return user, nil
}

func (s *UserService) checkUnique(ctx context.Context, username, email string, exclude uuid.UUID) error {
	usernameTaken, emailTaken, err := s.repo.Exists(ctx, username, email, exclude)
	if err != nil {
		return fmt.Errorf("checking existing user: %w", err)
	}
	if usernameTaken {
		return domain.ErrUsernameTaken
	}
	if emailTaken {
		return domain.ErrEmailTaken
	}
	return nil
}

// resolveLinks turns names into rows. A nil slice or role name leaves the
// corresponding link untouched. Unknown names are validation errors.
func (s *UserService) resolveLinks(ctx context.Context, user *model.User, roleName *string, departments, permissions []string) error {
	if roleName != nil {
		if *roleName == "" {
			user.RoleID, user.Role = nil, nil
		} else {
			role, err := s.access.FindRoleByName(ctx, *roleName)
			if err != nil {
				return asValidation(err)
			}
			user.RoleID, user.Role = &role.ID, role
		}
	}
	if departments != nil {
		rows, err := s.access.FindDepartmentsByName(ctx, departments)
		if err != nil {
			return asValidation(err)
		}
		user.Departments = rows
	}
	if permissions != nil {
		rows, err := s.access.FindPermissionsByName(ctx, permissions)
		if err != nil {
			return asValidation(err)
		}
		user.Permissions = rows
	}
	return nil
}

// asValidation reports an unknown name in a write payload as bad input
// rather than a missing resource.
func asValidation(err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return err
}

type ListUsersOutput struct {
	Users []*model.User `json:"results"`
	Count int64         `json:"count"`
}

// ListUsers returns every user to admins and only the caller to others.
func (s *UserService) ListUsers(ctx context.Context, actor *model.User, limit, offset int) (*ListUsersOutput, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}
	if !actor.SysAdmin() {
		self, err := s.repo.FindByID(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		return &ListUsersOutput{Users: []*model.User{self}, Count: 1}, nil
	}
	if limit <= 0 {
		limit = repository.DefaultPageSize
	}
	users, count, err := s.repo.FindAllPaginated(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return &ListUsersOutput{Users: users, Count: count}, nil
}

func (s *UserService) GetUser(ctx context.Context, actor *model.User, id uuid.UUID) (*model.User, error) {
	if err := s.selfOrAdmin(ctx, actor, id, "retrieve"); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// UpdateUserInput is a partial edit; nil fields are kept. Role, departments,
// permissions and flags are admin only.
type UpdateUserInput struct {
	Username        *string  `json:"username" validate:"omitempty,min=1,max=150"`
	Email           *string  `json:"email" validate:"omitempty,email,max=254"`
	Password        *string  `json:"password" validate:"omitempty,min=8"`
	FirstName       *string  `json:"first_name" validate:"omitempty,max=30"`
	LastName        *string  `json:"last_name" validate:"omitempty,max=30"`
	PhoneNumber     *string  `json:"phone_number" validate:"omitempty,max=15"`
	IsActive        *bool    `json:"is_active"`
	IsStaff         *bool    `json:"is_staff"`
	RoleName        *string  `json:"role_name"`
	DepartmentNames []string `json:"department_names"`
	PermissionNames []string `json:"permission_names"`
}

func (in UpdateUserInput) privileged() bool {
	return in.IsActive != nil || in.IsStaff != nil || in.RoleName != nil ||
		in.DepartmentNames != nil || in.PermissionNames != nil
}

func (s *UserService) UpdateUser(ctx context.Context, actor *model.User, id uuid.UUID, input UpdateUserInput) (*model.User, error) {
	if err := s.selfOrAdmin(ctx, actor, id, "update"); err != nil {
		return nil, err
	}
	if input.privileged() {
		if err := s.policy.RequireSysAdmin(ctx, actor, "update", userEntity(id)); err != nil {
			return nil, err
		}
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := departmentSet(user.Departments)

	var username, email string
	if input.Username != nil && *input.Username != user.Username {
		username = *input.Username
	}
	if input.Email != nil && *input.Email != user.Email {
		email = *input.Email
	}
	if err := s.checkUnique(ctx, username, email, user.ID); err != nil {
		return nil, err
	}

	if input.Username != nil {
		user.Username = *input.Username
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.PhoneNumber != nil {
		user.PhoneNumber = input.PhoneNumber
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.IsStaff != nil {
		user.IsStaff = *input.IsStaff
	}
	if input.Password != nil {
		hash, err := s.passwordHasher.Hash(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		user.PasswordHash = hash
	}
	if err := s.resolveLinks(ctx, user, input.RoleName, input.DepartmentNames, input.PermissionNames); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}

	after := departmentSet(user.Departments)
	for id := range after {
		if _, ok := before[id]; !ok {
			_ = s.relations.MemberAdded(ctx, id, user.ID)
		}
	}
	for id := range before {
		if _, ok := after[id]; !ok {
			_ = s.relations.MemberRemoved(ctx, id, user.ID)
		}
	}
	return user, nil
}

func departmentSet(departments []model.Department) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(departments))
	for _, d := range departments {
		set[d.ID] = struct{}{}
	}
	return set
}

func (s *UserService) DeleteUser(ctx context.Context, actor *model.User, id uuid.UUID) error {
	if err := s.policy.RequireSysAdmin(ctx, actor, "destroy", userEntity(id)); err != nil {
		return err
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	for _, d := range user.Departments {
		_ = s.relations.MemberRemoved(ctx, d.ID, user.ID)
	}
	return nil
}

// User departments

func (s *UserService) UserDepartments(ctx context.Context, actor *model.User, userID uuid.UUID) ([]model.Department, error) {
	if err := s.selfOrAdmin(ctx, actor, userID, "list_departments"); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.access.FindDepartmentsByUser(ctx, userID)
}

type UserDepartmentInput struct {
	UserID       uuid.UUID `json:"user_id" validate:"required"`
	DepartmentID uuid.UUID `json:"department_id" validate:"required"`
}

// AddUserToDepartment is idempotent.
func (s *UserService) AddUserToDepartment(ctx context.Context, actor *model.User, input UserDepartmentInput) error {
	if err := s.policy.RequireSysAdmin(ctx, actor, "assign_department", userEntity(input.UserID)); err != nil {
		return err
	}
	if err := s.validate.Struct(input); err != nil {
		return validationError(err)
	}
	user, err := s.repo.FindByID(ctx, input.UserID)
	if err != nil {
		return err
	}
	if _, err := s.access.FindDepartment(ctx, input.DepartmentID); err != nil {
		return err
	}
	if _, ok := departmentSet(user.Departments)[input.DepartmentID]; ok {
		return nil
	}
	if err := s.repo.AddDepartment(ctx, user.ID, input.DepartmentID); err != nil {
		return err
	}
	_ = s.relations.MemberAdded(ctx, input.DepartmentID, user.ID)
	return nil
}

func (s *UserService) RemoveUserFromDepartment(ctx context.Context, actor *model.User, input UserDepartmentInput) error {
	if err := s.policy.RequireSysAdmin(ctx, actor, "unassign_department", userEntity(input.UserID)); err != nil {
		return err
	}
	if err := s.validate.Struct(input); err != nil {
		return validationError(err)
	}
	user, err := s.repo.FindByID(ctx, input.UserID)
	if err != nil {
		return err
	}
	if _, ok := departmentSet(user.Departments)[input.DepartmentID]; !ok {
		return fmt.Errorf("%w: user is not a member of this department", domain.ErrNotFound)
	}
	if err := s.repo.RemoveDepartment(ctx, user.ID, input.DepartmentID); err != nil {
		return err
	}
	_ = s.relations.MemberRemoved(ctx, input.DepartmentID, user.ID)
	return nil
}
