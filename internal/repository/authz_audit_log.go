// internal/repository/authz_audit_log.go
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/dangerclosesec/partnerhub/internal/domain"
	"github.com/dangerclosesec/partnerhub/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthzAuditLogRepository stores gate decisions and relation changes.
type AuthzAuditLogRepository struct {
	db *gorm.DB
}

func NewAuthzAuditLogRepository(db *gorm.DB) *AuthzAuditLogRepository {
	return &AuthzAuditLogRepository{db: db}
}

// Create inserts an entry, stamping id and timestamp when unset.
func (r *AuthzAuditLogRepository) Create(ctx context.Context, entry *model.AuthzAuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create authorization audit log: %w", err)
	}
	return nil
}

func (r *AuthzAuditLogRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.AuthzAuditLog, error) {
	var entry model.AuthzAuditLog
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		return nil, translate(err, fmt.Errorf("%w: audit log entry", domain.ErrNotFound), "failed to find authorization audit log")
	}
	return &entry, nil
}

// AuditLogFilter narrows an audit query. Zero values are ignored.
type AuditLogFilter struct {
	ActionType  string
	Action      string
	EntityType  string
	EntityID    string
	SubjectType string
	SubjectID   string
	Result      *bool
	StartTime   time.Time
	EndTime     time.Time
	Page
}

func (f AuditLogFilter) scope(q *gorm.DB) *gorm.DB {
	for column, value := range map[string]string{
		"action_type":  f.ActionType,
		"action":       f.Action,
		"entity_type":  f.EntityType,
		"entity_id":    f.EntityID,
		"subject_type": f.SubjectType,
		"subject_id":   f.SubjectID,
	} {
		if value != "" {
			q = q.Where(column+" = ?", value)
		}
	}
	if f.Result != nil {
		q = q.Where("result = ?", *f.Result)
	}
	if !f.StartTime.IsZero() {
		q = q.Where("timestamp >= ?", f.StartTime)
	}
	if !f.EndTime.IsZero() {
		q = q.Where("timestamp <= ?", f.EndTime)
	}
	return q
}

// Query returns one page of matching entries, newest first, with the total
// match count.
func (r *AuthzAuditLogRepository) Query(ctx context.Context, filter AuditLogFilter) ([]model.AuthzAuditLog, int64, error) {
	base := r.db.WithContext(ctx).Model(&model.AuthzAuditLog{}).Scopes(filter.scope)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count authorization audit logs: %w", err)
	}

	var entries []model.AuthzAuditLog
	if err := filter.Page.apply(base).Order("timestamp DESC").Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to query authorization audit logs: %w", err)
	}
	return entries, total, nil
}

// DeleteBefore removes entries older than cutoff.
func (r *AuthzAuditLogRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&model.AuthzAuditLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune authorization audit logs: %w", result.Error)
	}
	return result.RowsAffected, nil
}
