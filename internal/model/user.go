// internal/model/user.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string     `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"type:varchar(254);uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"type:text;not null" json:"-"`
	FirstName    string     `gorm:"type:varchar(30)" json:"first_name"`
	LastName     string     `gorm:"type:varchar(30)" json:"last_name"`
	PhoneNumber  *string    `gorm:"type:varchar(15)" json:"phone_number"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	IsStaff      bool       `gorm:"not null;default:false" json:"is_staff"`
	IsSysAdmin   bool       `gorm:"not null;default:false" json:"is_sys_admin"`
	RoleID       *uuid.UUID `gorm:"type:uuid" json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Role        *Role        `gorm:"foreignKey:RoleID;constraint:OnDelete:SET NULL" json:"role"`
	Departments []Department `gorm:"many2many:user_departments" json:"departments"`
	Permissions []Permission `gorm:"many2many:user_permissions" json:"permissions"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// SysAdmin reports whether the user bypasses object level checks.
func (u *User) SysAdmin() bool {
	return u != nil && u.IsSysAdmin
}

// DepartmentIDs returns the ids of the departments the user belongs to.
// Departments must be preloaded.
func (u *User) DepartmentIDs() []uuid.UUID {
	if u == nil {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(u.Departments))
	for _, d := range u.Departments {
		ids = append(ids, d.ID)
	}
	return ids
}

// String returns the username, which is how users are rendered in
// related records (history rows, documents).
func (u *User) String() string {
	if u == nil {
		return ""
	}
	return u.Username
}

type Role struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`

	Permissions []Permission `gorm:"many2many:role_permissions" json:"permissions,omitempty"`
}

func (r *Role) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type Permission struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
}

func (p *Permission) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type Department struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`

	Roles []Role `gorm:"many2many:department_roles" json:"roles,omitempty"`
}

func (d *Department) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
