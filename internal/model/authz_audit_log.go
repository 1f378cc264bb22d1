package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuthzAuditLog represents an authorization audit log entry
type AuthzAuditLog struct {
	ID          uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	Timestamp   time.Time         `json:"timestamp" gorm:"index"`
	ActionType  string            `json:"action_type" gorm:"type:varchar(50);index"`
	Action      string            `json:"action" gorm:"type:varchar(50)"`
	Result      *bool             `json:"result"`
	EntityType  string            `json:"entity_type" gorm:"type:varchar(50)"`
	EntityID    string            `json:"entity_id" gorm:"type:varchar(64);index"`
	SubjectType string            `json:"subject_type" gorm:"type:varchar(50)"`
	SubjectID   string            `json:"subject_id" gorm:"type:varchar(64);index"`
	Relation    string            `json:"relation" gorm:"type:varchar(100)"`
	Context     datatypes.JSONMap `json:"context"`
	RequestID   string            `json:"request_id" gorm:"type:varchar(100)"`
	ClientIP    string            `json:"client_ip" gorm:"type:varchar(64)"`
	UserAgent   string            `json:"user_agent" gorm:"type:text"`
	CreatedAt   time.Time         `json:"created_at"`
}

// TableName specifies the table name for AuthzAuditLog
func (AuthzAuditLog) TableName() string {
	return "authz_audit_logs"
}

func (l *AuthzAuditLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// Constants for AuthzAuditLog action types
const (
	ActionPermissionGate = "permission_gate"
	ActionObjectGate     = "object_gate"
	ActionRelationCreate = "relation_create"
	ActionRelationDelete = "relation_delete"
)
