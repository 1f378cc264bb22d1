package service

import (
	"context"

	"github.com/dangerclosesec/partnerhub/internal/model"
	"github.com/google/uuid"
)

// Roles, permissions and departments are admin only, reads included.

func roleEntity(id uuid.UUID) model.Entity {
	return model.Entity{Type: "role", ID: id.String()}
}

func permissionEntity(id uuid.UUID) model.Entity {
	return model.Entity{Type: "permission", ID: id.String()}
}

type RoleInput struct {
	Name            string   `json:"name" validate:"required,max=100"`
	Description     *string  `json:"description"`
	PermissionNames []string `json:"permission_names"`
}

func (s *UserService) ListRoles(ctx context.Context, actor *model.User) ([]model.Role, error) {
	if err := s.policy.RequireSysAdmin(ctx, actor, "list", roleEntity(uuid.Nil)); err != nil {
		return nil, err
	}
	return s.access.ListRoles(ctx)
}

func (s *UserService) GetRole(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Role, error) {
	if err := s.policy.RequireSysAdmin(ctx, actor, "retrieve", roleEntity(id)); err != nil {
		return nil, err
	}
	return s.access.FindRole(ctx, id)
}

func (s *UserService) CreateRole(ctx context.Context, actor *model.User, input RoleInput) (*model.Role, error) {
	if err := s.policy.RequireSysAdmin(ctx, actor, "create", roleEntity(uuid.Nil)); err != nil {
		return nil, err
	}
	role := &model.Role{}
	if err := s.applyRole(ctx, role, input); err != nil {
		return nil, err
	}
	if err := s.access.CreateRole(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// UpdateRole replaces name, description and, when permission_names is
// present, the permission set.
func (s *UserService) UpdateRole(ctx context.Context, actor *model.User, id uuid.UUID, input RoleInput) (*model.Role, error) {
	if err := s.policy.RequireSysAdmin(ctx, actor, "update", roleEntity(id)); err != nil {
		return nil, err
	}
	role, err := s.access.FindRole(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyRole(ctx, role, input); err != nil {
		return nil, err
	}
	if err := s.access.UpdateRole(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

func (s *UserService) applyRole(ctx context.Context, role *model.Role, input RoleInput) error {
	if err := s.validate.Struct(input); err != nil {
		return validationError(err)
	}
	role.Name = input.Name
	role.Description = input.Description
	if input.PermissionNames != nil {
		permissions, err := s.access.FindPermissionsByName(ctx, input.PermissionNames)
		if err != nil {
			return asValidation(err)
		}
		role.Permissions = permissions
	}
	return nil
}

func (s *UserService) DeleteRole(ctx context.Context, actor *model.User, id uuid.UUID) error {
	if err := s.policy.RequireSysAdmin(ctx, actor, "destroy", roleEntity(id)); err != nil {
		return err
	}
	return s.access.DeleteRole(ctx, id)
}

type PermissionInput struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description"`
}

func (s *UserService) ListPermissions(ctx context.Context, actor *model.User) ([]model.Permission, error) {
	if err := s.policy.RequireSysAdmin(ctx, actor, "list", permissionEntity(uuid.Nil)); err != nil {
		return nil, err
	}
	return s.access.ListPermissions(ctx)
}

func (s *UserService) GetPermission(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Permission, error) {
	if err := s.policy.RequireSysAdmin(ctx, actor, "retrieve", permissionEntity(id)); err != nil {
		return nil, err
	}
	return s.access.FindPermission(ctx, id)
}

func (s *UserService) CreatePermission(ctx context.Context, actor *model.User, input PermissionInput) (*model.Permission, error) {
	if err := s.policy.RequireSysAdmin(ctx, actor, "create", permissionEntity(uuid.Nil)); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	permission := &model.Permission{Name: input.Name, Description: input.Description}
	if err := s.access.CreatePermission(ctx, permission); err != nil {
		return nil, err
	}
	return permission, nil
}

func (s *UserService) UpdatePermission(ctx context.Context, actor *model.User, id uuid.UUID, input PermissionInput) (*model.Permission, error) {
	if err := s.policy.RequireSysAdmin(ctx, actor, "update", permissionEntity(id)); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	permission, err := s.access.FindPermission(ctx, id)
	if err != nil {
		return nil, err
	}
	permission.Name = input.Name
	permission.Description = input.Description
	if err := s.access.UpdatePermission(ctx, permission); err != nil {
		return nil, err
	}
	return permission, nil
}

func (s *UserService) DeletePermission(ctx context.Context, actor *model.User, id uuid.UUID) error {
	if err := s.policy.RequireSysAdmin(ctx, actor, "destroy", permissionEntity(id)); err != nil {
		return err
	}
	return s.access.DeletePermission(ctx, id)
}

type DepartmentInput struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description *string  `json:"description"`
	RoleNames   []string `json:"role_names"`
}

func (s *UserService) ListDepartments(ctx context.Context, actor *model.User) ([]model.Department, error) {
	if err := s.policy.RequireSysAdmin(ctx, actor, "list", departmentEntity(uuid.Nil)); err != nil {
		return nil, err
	}
	return s.access.ListDepartments(ctx)
}

func (s *UserService) GetDepartment(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Department, error) {
	if err := s.policy.RequireSysAdmin(ctx, actor, "retrieve", departmentEntity(id)); err != nil {
		return nil, err
	}
	return s.access.FindDepartment(ctx, id)
}

func (s *UserService) CreateDepartment(ctx context.Context, actor *model.User, input DepartmentInput) (*model.Department, error) {
	if err := s.policy.RequireSysAdmin(ctx, actor, "create", departmentEntity(uuid.Nil)); err != nil {
		return nil, err
	}
	department := &model.Department{}
	if err := s.applyDepartment(ctx, department, input); err != nil {
		return nil, err
	}
	if err := s.access.CreateDepartment(ctx, department); err != nil {
		return nil, err
	}
	return department, nil
}

func (s *UserService) UpdateDepartment(ctx context.Context, actor *model.User, id uuid.UUID, input DepartmentInput) (*model.Department, error) {
	if err := s.policy.RequireSysAdmin(ctx, actor, "update", departmentEntity(id)); err != nil {
		return nil, err
	}
	department, err := s.access.FindDepartment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyDepartment(ctx, department, input); err != nil {
		return nil, err
	}
	if err := s.access.UpdateDepartment(ctx, department); err != nil {
		return nil, err
	}
	return department, nil
}

func (s *UserService) applyDepartment(ctx context.Context, department *model.Department, input DepartmentInput) error {
	if err := s.validate.Struct(input); err != nil {
		return validationError(err)
	}
	department.Name = input.Name
	department.Description = input.Description
	if input.RoleNames != nil {
		roles, err := s.access.FindRolesByName(ctx, input.RoleNames)
		if err != nil {
			return asValidation(err)
		}
		department.Roles = roles
	}
	return nil
}

// DeleteDepartment also drops the department's memberships and partner
// assignments. Mirrored tuples are not removed; authorization decisions
// never read them.
func (s *UserService) DeleteDepartment(ctx context.Context, actor *model.User, id uuid.UUID) error {
	if err := s.policy.RequireSysAdmin(ctx, actor, "destroy", departmentEntity(id)); err != nil {
		return err
	}
	return s.access.DeleteDepartment(ctx, id)
}
