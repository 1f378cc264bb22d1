package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectStatusPlanned   ProjectStatus = "planned"
	ProjectStatusOngoing   ProjectStatus = "ongoing"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

type Project struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string        `gorm:"type:varchar(255);not null" json:"name"`
	Description *string       `gorm:"type:text" json:"description"`
	StartDate   *time.Time    `gorm:"type:date" json:"start_date"`
	EndDate     *time.Time    `gorm:"type:date" json:"end_date"`
	Status      ProjectStatus `gorm:"type:varchar(50);not null;default:'planned'" json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	Partners []ProjectPartner `gorm:"foreignKey:ProjectID" json:"-"`
	MOUs     []MOU            `gorm:"foreignKey:ProjectID" json:"-"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = ProjectStatusPlanned
	}
	return nil
}

type ProjectPartnerRole string

const (
	ProjectRoleLead       ProjectPartnerRole = "lead"
	ProjectRoleSupport    ProjectPartnerRole = "support"
	ProjectRoleConsultant ProjectPartnerRole = "consultant"
	ProjectRoleOther      ProjectPartnerRole = "other"
)

type ProjectPartnerStatus string

const (
	ProjectPartnerActive    ProjectPartnerStatus = "active"
	ProjectPartnerInactive  ProjectPartnerStatus = "inactive"
	ProjectPartnerCompleted ProjectPartnerStatus = "completed"
	ProjectPartnerOnHold    ProjectPartnerStatus = "on_hold"
	ProjectPartnerCancelled ProjectPartnerStatus = "cancelled"
)

// ProjectPartner is the role a partner plays on a project. A partner may hold
// several roles on the same project, but each role only once.
type ProjectPartner struct {
	ID           uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID    uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_project_partner_role" json:"project"`
	PartnerID    uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_project_partner_role;index" json:"partner"`
	Role         ProjectPartnerRole   `gorm:"type:varchar(50);not null;uniqueIndex:idx_project_partner_role" json:"role"`
	Contribution *string              `gorm:"type:text" json:"contribution"`
	StartDate    *time.Time           `gorm:"type:date" json:"start_date"`
	EndDate      *time.Time           `gorm:"type:date" json:"end_date"`
	Status       ProjectPartnerStatus `gorm:"type:varchar(50);not null;default:'active'" json:"status"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`

	Project Project `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	Partner Partner `gorm:"foreignKey:PartnerID;constraint:OnDelete:CASCADE" json:"-"`
}

func (pp *ProjectPartner) BeforeCreate(tx *gorm.DB) error {
	if pp.ID == uuid.Nil {
		pp.ID = uuid.New()
	}
	if pp.Status == "" {
		pp.Status = ProjectPartnerActive
	}
	return nil
}

type MOUStatus string

const (
	MOUStatusActive     MOUStatus = "active"
	MOUStatusExpired    MOUStatus = "expired"
	MOUStatusTerminated MOUStatus = "terminated"
	MOUStatusPending    MOUStatus = "pending"
)

// MOU is a memorandum of understanding between a project and a partner.
type MOU struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"project"`
	PartnerID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"partner"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Description *string    `gorm:"type:text" json:"description"`
	StartDate   *time.Time `gorm:"type:date" json:"start_date"`
	EndDate     *time.Time `gorm:"type:date" json:"end_date"`
	Status      MOUStatus  `gorm:"type:varchar(50);not null;default:'pending'" json:"status"`
	DocumentURL *string    `gorm:"type:text" json:"document_url"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Project Project `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	Partner Partner `gorm:"foreignKey:PartnerID;constraint:OnDelete:CASCADE" json:"-"`
}

func (MOU) TableName() string {
	return "mous"
}

func (m *MOU) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Status == "" {
		m.Status = MOUStatusPending
	}
	return nil
}
