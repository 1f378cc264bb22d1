package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dangerclosesec/partnerhub/internal/audit"
	"github.com/dangerclosesec/partnerhub/internal/model"
	"github.com/dangerclosesec/partnerhub/internal/repository"
	"github.com/google/uuid"
)

// Ensure AuthzAuditLogService implements the audit.Logger interface
var _ audit.Logger = (*AuthzAuditLogService)(nil)

// AuthzAuditLogService handles operations related to authorization audit logs
type AuthzAuditLogService struct {
	repo *repository.AuthzAuditLogRepository
}

// NewAuthzAuditLogService creates a new AuthzAuditLogService
func NewAuthzAuditLogService(repo *repository.AuthzAuditLogRepository) *AuthzAuditLogService {
	return &AuthzAuditLogService{
		repo: repo,
	}
}

func (s *AuthzAuditLogService) write(ctx context.Context, log *model.AuthzAuditLog) error {
	info := audit.RequestInfoFrom(ctx)
	log.RequestID = info.RequestID
	log.ClientIP = info.ClientIP
	log.UserAgent = info.UserAgent
	log.Timestamp = time.Now().UTC()

	return s.repo.Create(ctx, log)
}

// LogPermissionCheck logs a gate decision
func (s *AuthzAuditLogService) LogPermissionCheck(
	ctx context.Context,
	gate string,
	subject model.Subject,
	action string,
	object model.Entity,
	result bool,
	contextData map[string]interface{},
) error {
	return s.write(ctx, &model.AuthzAuditLog{
		ActionType:  gate,
		Action:      action,
		Result:      &result,
		EntityType:  object.Type,
		EntityID:    object.ID,
		SubjectType: subject.Type,
		SubjectID:   subject.ID,
		Context:     contextData,
	})
}

// LogRelationCreate logs a relation creation operation
func (s *AuthzAuditLogService) LogRelationCreate(
	ctx context.Context,
	object model.Entity,
	relation string,
	subject model.Subject,
) error {
	return s.write(ctx, &model.AuthzAuditLog{
		ActionType:  model.ActionRelationCreate,
		EntityType:  object.Type,
		EntityID:    object.ID,
		SubjectType: subject.Type,
		SubjectID:   subject.ID,
		Relation:    relation,
	})
}

// LogRelationDelete logs a relation deletion operation
func (s *AuthzAuditLogService) LogRelationDelete(
	ctx context.Context,
	object model.Entity,
	relation string,
	subject model.Subject,
) error {
	return s.write(ctx, &model.AuthzAuditLog{
		ActionType:  model.ActionRelationDelete,
		EntityType:  object.Type,
		EntityID:    object.ID,
		SubjectType: subject.Type,
		SubjectID:   subject.ID,
		Relation:    relation,
	})
}

// GetAuditLogs retrieves audit logs based on query parameters
func (s *AuthzAuditLogService) GetAuditLogs(
	ctx context.Context,
	filter repository.AuditLogFilter,
) ([]model.AuthzAuditLog, int64, error) {
	return s.repo.Query(ctx, filter)
}

// GetAuditLogByID retrieves an audit log by ID
func (s *AuthzAuditLogService) GetAuditLogByID(
	ctx context.Context,
	id uuid.UUID,
) (*model.AuthzAuditLog, error) {
	log, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log by ID: %w", err)
	}

	return log, nil
}

// PruneAuditLogs removes entries older than the retention period.
func (s *AuthzAuditLogService) PruneAuditLogs(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.DeleteBefore(ctx, time.Now().UTC().Add(-retention))
}
