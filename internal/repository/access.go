// internal/repository/access.go
package repository

import (
	"context"
	"fmt"

	"github.com/dangerclosesec/partnerhub/internal/domain"
	"github.com/dangerclosesec/partnerhub/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccessRepository stores roles, permissions and departments.
type AccessRepository struct {
	db *gorm.DB
}

func NewAccessRepository(db *gorm.DB) *AccessRepository {
	return &AccessRepository{db: db}
}

// nameTaken reports whether a row of the given model other than exclude
// already uses the name.
func nameTaken(db *gorm.DB, m any, name string, exclude uuid.UUID) (bool, error) {
	var count int64
	if err := db.Model(m).
		Where("name = ? AND id <> ?", name, exclude).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("checking name: %w", err)
	}
	return count > 0, nil
}

// Roles

func (r *AccessRepository) CreateRole(ctx context.Context, role *model.Role) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if taken, err := nameTaken(tx, &model.Role{}, role.Name, uuid.Nil); err != nil {
			return err
		} else if taken {
			return domain.ErrNameTaken
		}
		permissions := role.Permissions
		if err := tx.Omit("Permissions").Create(role).Error; err != nil {
			return translate(err, nil, "creating role")
		}
		if err := replaceAssociation(tx.Model(role).Omit("Permissions.*").Association("Permissions"), permissions); err != nil {
			return fmt.Errorf("linking permissions: %w", err)
		}
		role.Permissions = permissions
		return nil
	})
}

func (r *AccessRepository) UpdateRole(ctx context.Context, role *model.Role) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if taken, err := nameTaken(tx, &model.Role{}, role.Name, role.ID); err != nil {
			return err
		} else if taken {
			return domain.ErrNameTaken
		}
		permissions := role.Permissions
		if err := tx.Omit("Permissions").Save(role).Error; err != nil {
			return translate(err, nil, "updating role")
		}
		if err := replaceAssociation(tx.Model(role).Omit("Permissions.*").Association("Permissions"), permissions); err != nil {
			return fmt.Errorf("linking permissions: %w", err)
		}
		role.Permissions = permissions
		return nil
	})
}

func (r *AccessRepository) FindRole(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	var role model.Role
	if err := r.db.WithContext(ctx).Preload("Permissions").First(&role, "id = ?", id).Error; err != nil {
		return nil, translate(err, domain.ErrRoleNotFound, "finding role")
	}
	return &role, nil
}

func (r *AccessRepository) FindRoleByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := r.db.WithContext(ctx).First(&role, "name = ?", name).Error; err != nil {
		return nil, translate(err, fmt.Errorf("%w: %s", domain.ErrRoleNotFound, name), "finding role")
	}
	return &role, nil
}

func (r *AccessRepository) ListRoles(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	if err := r.db.WithContext(ctx).Preload("Permissions").Order("name ASC").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	return roles, nil
}

func (r *AccessRepository) DeleteRole(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role := &model.Role{ID: id}
		if err := tx.Model(role).Association("Permissions").Clear(); err != nil {
			return fmt.Errorf("clearing role permissions: %w", err)
		}
		if err := tx.Exec("DELETE FROM department_roles WHERE role_id = ?", id).Error; err != nil {
			return fmt.Errorf("detaching role from departments: %w", err)
		}
		if err := tx.Model(&model.User{}).Where("role_id = ?", id).Update("role_id", nil).Error; err != nil {
			return fmt.Errorf("detaching role from users: %w", err)
		}
		result := tx.Delete(&model.Role{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("deleting role: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrRoleNotFound
		}
		return nil
	})
}

// Permissions

func (r *AccessRepository) CreatePermission(ctx context.Context, permission *model.Permission) error {
	if taken, err := nameTaken(r.db.WithContext(ctx), &model.Permission{}, permission.Name, uuid.Nil); err != nil {
		return err
	} else if taken {
		return domain.ErrNameTaken
	}
	if err := r.db.WithContext(ctx).Create(permission).Error; err != nil {
		return translate(err, nil, "creating permission")
	}
	return nil
}

func (r *AccessRepository) UpdatePermission(ctx context.Context, permission *model.Permission) error {
	if taken, err := nameTaken(r.db.WithContext(ctx), &model.Permission{}, permission.Name, permission.ID); err != nil {
		return err
	} else if taken {
		return domain.ErrNameTaken
	}
	if err := r.db.WithContext(ctx).Save(permission).Error; err != nil {
		return translate(err, nil, "updating permission")
	}
	return nil
}

func (r *AccessRepository) FindPermission(ctx context.Context, id uuid.UUID) (*model.Permission, error) {
	var permission model.Permission
	if err := r.db.WithContext(ctx).First(&permission, "id = ?", id).Error; err != nil {
		return nil, translate(err, domain.ErrPermissionNotFound, "finding permission")
	}
	return &permission, nil
}

// FindPermissionsByName resolves every name or fails naming the first
// unknown one.
func (r *AccessRepository) FindPermissionsByName(ctx context.Context, names []string) ([]model.Permission, error) {
	permissions := make([]model.Permission, 0, len(names))
	for _, name := range names {
		var permission model.Permission
		if err := r.db.WithContext(ctx).First(&permission, "name = ?", name).Error; err != nil {
			return nil, translate(err, fmt.Errorf("%w: %s", domain.ErrPermissionNotFound, name), "finding permission")
		}
		permissions = append(permissions, permission)
	}
	return permissions, nil
}

func (r *AccessRepository) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	var permissions []model.Permission
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&permissions).Error; err != nil {
		return nil, fmt.Errorf("listing permissions: %w", err)
	}
	return permissions, nil
}

func (r *AccessRepository) DeletePermission(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"role_permissions", "user_permissions"} {
			if err := tx.Exec("DELETE FROM "+table+" WHERE permission_id = ?", id).Error; err != nil {
				return fmt.Errorf("detaching permission from %s: %w", table, err)
			}
		}
		result := tx.Delete(&model.Permission{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("deleting permission: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrPermissionNotFound
		}
		return nil
	})
}

// Departments

func (r *AccessRepository) CreateDepartment(ctx context.Context, department *model.Department) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if taken, err := nameTaken(tx, &model.Department{}, department.Name, uuid.Nil); err != nil {
			return err
		} else if taken {
			return domain.ErrNameTaken
		}
		roles := department.Roles
		if err := tx.Omit("Roles").Create(department).Error; err != nil {
			return translate(err, nil, "creating department")
		}
		if err := replaceAssociation(tx.Model(department).Omit("Roles.*").Association("Roles"), roles); err != nil {
			return fmt.Errorf("linking roles: %w", err)
		}
		department.Roles = roles
		return nil
	})
}

func (r *AccessRepository) UpdateDepartment(ctx context.Context, department *model.Department) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if taken, err := nameTaken(tx, &model.Department{}, department.Name, department.ID); err != nil {
			return err
		} else if taken {
			return domain.ErrNameTaken
		}
		roles := department.Roles
		if err := tx.Omit("Roles").Save(department).Error; err != nil {
			return translate(err, nil, "updating department")
		}
		if err := replaceAssociation(tx.Model(department).Omit("Roles.*").Association("Roles"), roles); err != nil {
			return fmt.Errorf("linking roles: %w", err)
		}
		department.Roles = roles
		return nil
	})
}

func (r *AccessRepository) FindDepartment(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	var department model.Department
	if err := r.db.WithContext(ctx).Preload("Roles").First(&department, "id = ?", id).Error; err != nil {
		return nil, translate(err, domain.ErrDepartmentNotFound, "finding department")
	}
	return &department, nil
}

// FindDepartmentsByName resolves every name or fails naming the first
// unknown one.
func (r *AccessRepository) FindDepartmentsByName(ctx context.Context, names []string) ([]model.Department, error) {
	departments := make([]model.Department, 0, len(names))
	for _, name := range names {
		var department model.Department
		if err := r.db.WithContext(ctx).First(&department, "name = ?", name).Error; err != nil {
			return nil, translate(err, fmt.Errorf("%w: %s", domain.ErrDepartmentNotFound, name), "finding department")
		}
		departments = append(departments, department)
	}
	return departments, nil
}

// FindRolesByName resolves every name or fails naming the first unknown one.
func (r *AccessRepository) FindRolesByName(ctx context.Context, names []string) ([]model.Role, error) {
	roles := make([]model.Role, 0, len(names))
	for _, name := range names {
		role, err := r.FindRoleByName(ctx, name)
		if err != nil {
			return nil, err
		}
		roles = append(roles, *role)
	}
	return roles, nil
}

func (r *AccessRepository) ListDepartments(ctx context.Context) ([]model.Department, error) {
	var departments []model.Department
	if err := r.db.WithContext(ctx).Preload("Roles").Order("name ASC").Find(&departments).Error; err != nil {
		return nil, fmt.Errorf("listing departments: %w", err)
	}
	return departments, nil
}

// FindDepartmentsByUser lists the departments the user is a member of.
func (r *AccessRepository) FindDepartmentsByUser(ctx context.Context, userID uuid.UUID) ([]model.Department, error) {
	var departments []model.Department
	if err := r.db.WithContext(ctx).
		Joins("JOIN user_departments ON user_departments.department_id = departments.id").
		Where("user_departments.user_id = ?", userID).
		Order("departments.name ASC").
		Find(&departments).Error; err != nil {
		return nil, fmt.Errorf("finding user departments: %w", err)
	}
	return departments, nil
}

// DeleteDepartment removes the department, its memberships and its partner
// assignments.
func (r *AccessRepository) DeleteDepartment(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"department_roles", "user_departments"} {
			if err := tx.Exec("DELETE FROM "+table+" WHERE department_id = ?", id).Error; err != nil {
				return fmt.Errorf("detaching department from %s: %w", table, err)
			}
		}
		if err := tx.Where("department_id = ?", id).Delete(&model.PartnerDepartment{}).Error; err != nil {
			return fmt.Errorf("deleting partner assignments: %w", err)
		}
		result := tx.Delete(&model.Department{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("deleting department: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrDepartmentNotFound
		}
		return nil
	})
}
