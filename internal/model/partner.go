// internal/model/partner.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PartnerType string

const (
	PartnerTypeNGO       PartnerType = "NGO"
	PartnerTypeGOV       PartnerType = "GOV"
	PartnerTypeEmbassy   PartnerType = "EMBASSY"
	PartnerTypeCorporate PartnerType = "CORPORATE"
	PartnerTypeOther     PartnerType = "OTHER"
)

func (t PartnerType) Valid() bool {
	switch t {
	case PartnerTypeNGO, PartnerTypeGOV, PartnerTypeEmbassy, PartnerTypeCorporate, PartnerTypeOther:
		return true
	}
	return false
}

type PartnerStatus string

const (
	PartnerStatusPending     PartnerStatus = "pending"
	PartnerStatusApproved    PartnerStatus = "approved"
	PartnerStatusSuspended   PartnerStatus = "suspended"
	PartnerStatusBlacklisted PartnerStatus = "blacklisted"
)

func (s PartnerStatus) Valid() bool {
	switch s {
	case PartnerStatusPending, PartnerStatusApproved, PartnerStatusSuspended, PartnerStatusBlacklisted:
		return true
	}
	return false
}

type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLevelLow, RiskLevelMedium, RiskLevelHigh, RiskLevelCritical:
		return true
	}
	return false
}

type Partner struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string        `gorm:"type:varchar(255);not null;index" json:"name"`
	Type        PartnerType   `gorm:"type:varchar(50);not null;index" json:"type"`
	Status      PartnerStatus `gorm:"type:varchar(50);not null;default:'pending';index" json:"status"`
	RiskLevel   RiskLevel     `gorm:"type:varchar(50);not null;default:'low';index" json:"risk_level"`
	CreatedByID *uuid.UUID    `gorm:"type:uuid" json:"-"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	CreatedBy     *User               `gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL" json:"-"`
	Assignments   []PartnerDepartment `gorm:"foreignKey:PartnerID" json:"-"`
	Profile       *PartnerProfile     `gorm:"foreignKey:PartnerID" json:"-"`
	Documents     []PartnerDocument   `gorm:"foreignKey:PartnerID" json:"-"`
	StatusHistory []StatusHistory     `gorm:"foreignKey:PartnerID" json:"-"`
	RiskHistory   []RiskLevelHistory  `gorm:"foreignKey:PartnerID" json:"-"`
}

func (p *Partner) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = PartnerStatusPending
	}
	if p.RiskLevel == "" {
		p.RiskLevel = RiskLevelLow
	}
	return nil
}

// DepartmentIDs returns the ids of the departments assigned to the partner.
// Assignments must be preloaded.
func (p *Partner) DepartmentIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.Assignments))
	for _, a := range p.Assignments {
		ids = append(ids, a.DepartmentID)
	}
	return ids
}

// PartnerDepartment links a partner to an internal department.
type PartnerDepartment struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PartnerID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_partner_department" json:"partner_id"`
	DepartmentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_partner_department" json:"department_id"`
	AssignedAt   time.Time `gorm:"autoCreateTime" json:"assigned_at"`

	Department Department `gorm:"foreignKey:DepartmentID;constraint:OnDelete:CASCADE" json:"-"`
}

func (pd *PartnerDepartment) BeforeCreate(tx *gorm.DB) error {
	if pd.ID == uuid.Nil {
		pd.ID = uuid.New()
	}
	return nil
}

type PartnerProfile struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	PartnerID          uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"-"`
	RegistrationNumber *string        `gorm:"type:varchar(100)" json:"registration_number"`
	TaxNumber          *string        `gorm:"type:varchar(100)" json:"tax_number"`
	ContactAddress     *string        `gorm:"type:text" json:"contact_address"`
	ContactPhone       *string        `gorm:"type:varchar(20)" json:"contact_phone"`
	ContactEmail       *string        `gorm:"type:varchar(100)" json:"contact_email"`
	OwnershipStructure *string        `gorm:"type:text" json:"ownership_structure"`
	BankDetails        *string        `gorm:"type:text" json:"bank_details"`
	OrganizationType   *string        `gorm:"type:varchar(50)" json:"organization_type"`
	LegalHistory       *string        `gorm:"type:text" json:"legal_history"`
	SocialBackground   *string        `gorm:"type:text" json:"social_background"`
	FinancialStability *string        `gorm:"type:text" json:"financial_stability"`
	Reputation         *string        `gorm:"type:text" json:"reputation"`
	ESGPolicies        *string        `gorm:"type:text" json:"esg_policies"`
	Documents          datatypes.JSON `json:"documents"`
}

func (pp *PartnerProfile) BeforeCreate(tx *gorm.DB) error {
	if pp.ID == uuid.Nil {
		pp.ID = uuid.New()
	}
	return nil
}

type PartnerDocument struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PartnerID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"partner_id"`
	FileType     string     `gorm:"type:varchar(50);not null" json:"file_type"`
	FileURL      string     `gorm:"type:text;not null" json:"file_url"`
	UploadedByID *uuid.UUID `gorm:"type:uuid" json:"-"`
	UploadedAt   time.Time  `gorm:"autoCreateTime" json:"uploaded_at"`

	UploadedBy *User `gorm:"foreignKey:UploadedByID;constraint:OnDelete:SET NULL" json:"-"`
}

func (d *PartnerDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
