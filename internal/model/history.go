package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatusHistory is an append-only record of one partner status transition.
type StatusHistory struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	PartnerID   uuid.UUID     `gorm:"type:uuid;not null;index" json:"partner_id"`
	OldStatus   PartnerStatus `gorm:"type:varchar(50);not null" json:"old_status"`
	NewStatus   PartnerStatus `gorm:"type:varchar(50);not null" json:"new_status"`
	ChangedByID *uuid.UUID    `gorm:"type:uuid" json:"-"`
	ChangedAt   time.Time     `gorm:"autoCreateTime;index" json:"changed_at"`

	ChangedBy *User `gorm:"foreignKey:ChangedByID;constraint:OnDelete:SET NULL" json:"-"`
}

func (StatusHistory) TableName() string {
	return "partner_status_history"
}

func (h *StatusHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// RiskLevelHistory is an append-only record of one partner risk transition.
type RiskLevelHistory struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PartnerID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"partner_id"`
	OldRisk     RiskLevel  `gorm:"type:varchar(50);not null" json:"old_risk"`
	NewRisk     RiskLevel  `gorm:"type:varchar(50);not null" json:"new_risk"`
	ChangedByID *uuid.UUID `gorm:"type:uuid" json:"-"`
	ChangedAt   time.Time  `gorm:"autoCreateTime;index" json:"changed_at"`

	ChangedBy *User `gorm:"foreignKey:ChangedByID;constraint:OnDelete:SET NULL" json:"-"`
}

func (RiskLevelHistory) TableName() string {
	return "partner_risk_history"
}

func (h *RiskLevelHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
