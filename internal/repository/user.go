// internal/repository/user.go
package repository

import (
	"context"
	"fmt"

	"github.com/dangerclosesec/partnerhub/internal/domain"
	"github.com/dangerclosesec/partnerhub/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepositoryIface interface {
	Create(ctx context.Context, user *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindPrincipal(ctx context.Context, id uuid.UUID) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindAllPaginated(ctx context.Context, offset, limit int) ([]*model.User, int64, error) // Get users with pagination
	Exists(ctx context.Context, username, email string, exclude uuid.UUID) (usernameTaken, emailTaken bool, err error)
	AddDepartment(ctx context.Context, userID, departmentID uuid.UUID) error
	RemoveDepartment(ctx context.Context, userID, departmentID uuid.UUID) error
	FindWithDepartments(ctx context.Context) ([]*model.User, error)
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts the user and links the departments and permissions set on
// it. Role, departments and permissions must already exist.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		departments, permissions := user.Departments, user.Permissions
		if err := tx.Omit("Role", "Departments", "Permissions").Create(user).Error; err != nil {
			return translate(err, nil, "creating user")
		}
		return replaceUserLinks(tx, user, departments, permissions)
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err, domain.ErrUserNotFound, "failed to find user")
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).
		Preload("Role").
		Preload("Departments").
		Preload("Permissions").
		First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err, domain.ErrUserNotFound, "failed to find user")
	}
	return &user, nil
}

// FindPrincipal loads the user with everything needed for authorization
// and permission resolution: role permissions, departments and the roles
// attached to those departments.
func (r *UserRepository) FindPrincipal(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).
		Preload("Role.Permissions").
		Preload("Departments.Roles.Permissions").
		Preload("Permissions").
		First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err, domain.ErrUserNotFound, "failed to find user")
	}
	return &user, nil
}

// Update saves the user's columns and replaces its department and
// permission links with the slices set on it.
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		departments, permissions := user.Departments, user.Permissions
		if err := tx.Omit("Role", "Departments", "Permissions", "CreatedAt").Save(user).Error; err != nil {
			return translate(err, nil, "saving user")
		}
		return replaceUserLinks(tx, user, departments, permissions)
	})
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func replaceUserLinks(tx *gorm.DB, user *model.User, departments []model.Department, permissions []model.Permission) error {
	if err := replaceAssociation(tx.Model(user).Omit("Departments.*").Association("Departments"), departments); err != nil {
		return fmt.Errorf("linking departments: %w", err)
	}
	if err := replaceAssociation(tx.Model(user).Omit("Permissions.*").Association("Permissions"), permissions); err != nil {
		return fmt.Errorf("linking permissions: %w", err)
	}
	user.Departments, user.Permissions = departments, permissions
	return nil
}

func replaceAssociation[T any](assoc *gorm.Association, values []T) error {
	if len(values) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(values)
}

// SetPasswordHash replaces only the stored hash.
func (r *UserRepository) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("password_hash", hash)
	if result.Error != nil {
		return fmt.Errorf("failed to update password hash: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Delete removes the user and its join rows. Records the user created or
// changed keep a null reference.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := &model.User{ID: id}
		if err := tx.Model(user).Association("Departments").Clear(); err != nil {
			return fmt.Errorf("clearing departments: %w", err)
		}
		if err := tx.Model(user).Association("Permissions").Clear(); err != nil {
			return fmt.Errorf("clearing permissions: %w", err)
		}
		for _, ref := range []struct {
			model  any
			column string
		}{
			{&model.Partner{}, "created_by_id"},
			{&model.PartnerDocument{}, "uploaded_by_id"},
			{&model.StatusHistory{}, "changed_by_id"},
			{&model.RiskLevelHistory{}, "changed_by_id"},
		} {
			if err := tx.Model(ref.model).Where(ref.column+" = ?", id).Update(ref.column, nil).Error; err != nil {
				return fmt.Errorf("detaching %T: %w", ref.model, err)
			}
		}
		result := tx.Delete(&model.User{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("deleting user: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// FindAllPaginated returns a paginated list of users
func (r *UserRepository) FindAllPaginated(ctx context.Context, offset, limit int) ([]*model.User, int64, error) {
	var users []*model.User
	var count int64

	// Get total count
	if err := r.db.WithContext(ctx).Model(&model.User{}).Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	// Get paginated users
	result := Page{Limit: limit, Offset: offset}.apply(r.db.WithContext(ctx)).
		Preload("Role").
		Preload("Departments").
		Preload("Permissions").
		Order("username ASC").
		Find(&users)
	if result.Error != nil {
		return nil, 0, fmt.Errorf("failed to find paginated users: %w", result.Error)
	}

	return users, count, nil
}

// Exists reports whether another user already holds the username or email.
func (r *UserRepository) Exists(ctx context.Context, username, email string, exclude uuid.UUID) (bool, bool, error) {
	var usernameCount, emailCount int64
	if username != "" {
		if err := r.db.WithContext(ctx).Model(&model.User{}).
			Where("username = ? AND id <> ?", username, exclude).
			Count(&usernameCount).Error; err != nil {
			return false, false, fmt.Errorf("checking username: %w", err)
		}
	}
	if email != "" {
		if err := r.db.WithContext(ctx).Model(&model.User{}).
			Where("email = ? AND id <> ?", email, exclude).
			Count(&emailCount).Error; err != nil {
			return false, false, fmt.Errorf("checking email: %w", err)
		}
	}
	return usernameCount > 0, emailCount > 0, nil
}

func (r *UserRepository) AddDepartment(ctx context.Context, userID, departmentID uuid.UUID) error {
	user := &model.User{ID: userID}
	department := &model.Department{ID: departmentID}
	err := r.db.WithContext(ctx).Model(user).Omit("Departments.*").Association("Departments").Append(department)
	if err != nil {
		return fmt.Errorf("adding user to department: %w", err)
	}
	return nil
}

func (r *UserRepository) RemoveDepartment(ctx context.Context, userID, departmentID uuid.UUID) error {
	user := &model.User{ID: userID}
	department := &model.Department{ID: departmentID}
	if err := r.db.WithContext(ctx).Model(user).Association("Departments").Delete(department); err != nil {
		return fmt.Errorf("removing user from department: %w", err)
	}
	return nil
}

// FindWithDepartments returns every user with departments loaded. It feeds
// relationship reconciliation.
func (r *UserRepository) FindWithDepartments(ctx context.Context) ([]*model.User, error) {
	var users []*model.User
	if err := r.db.WithContext(ctx).Preload("Departments").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	return users, nil
}
