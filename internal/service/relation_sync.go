// internal/service/relation_sync.go
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dangerclosesec/partnerhub/internal/audit"
	"github.com/dangerclosesec/partnerhub/internal/auth"
	"github.com/dangerclosesec/partnerhub/internal/metrics"
	"github.com/dangerclosesec/partnerhub/internal/model"
	"github.com/google/uuid"
)

// RelationWriter is the part of the relationship store the sync needs.
// *auth.PermifyService satisfies it.
type RelationWriter interface {
	WriteRelationship(ctx context.Context, entity model.Entity, relation string, subject model.Subject) error
	DeleteRelationship(ctx context.Context, entity model.Entity, relation string, subject model.Subject) error
}

// RelationSync mirrors department assignments and memberships into the
// external relationship store. A nil *RelationSync does nothing, which is
// how the sync is disabled when no store is configured.
type RelationSync struct {
	writer  RelationWriter
	audit   audit.Logger
	metrics *metrics.Metrics
}

// NewRelationSync creates a new sync service
func NewRelationSync(writer RelationWriter, auditLogger audit.Logger, m *metrics.Metrics) *RelationSync {
	if auditLogger == nil {
		auditLogger = audit.Discard
	}
	return &RelationSync{
		writer:  writer,
		audit:   auditLogger,
		metrics: m,
	}
}

func partnerEntity(id uuid.UUID) model.Entity {
	return model.Entity{Type: model.EntityPartner, ID: id.String()}
}

func departmentEntity(id uuid.UUID) model.Entity {
	return model.Entity{Type: model.EntityDepartment, ID: id.String()}
}

// PartnerAssigned writes partner#department@department.
func (s *RelationSync) PartnerAssigned(ctx context.Context, partnerID, departmentID uuid.UUID) error {
	if s == nil {
		return nil
	}
	subject := model.Subject{Type: model.EntityDepartment, ID: departmentID.String()}
	return s.write(ctx, partnerEntity(partnerID), auth.RelationDepartment, subject)
}

// PartnerUnassigned deletes partner#department@department.
func (s *RelationSync) PartnerUnassigned(ctx context.Context, partnerID, departmentID uuid.UUID) error {
	if s == nil {
		return nil
	}
	subject := model.Subject{Type: model.EntityDepartment, ID: departmentID.String()}
	return s.delete(ctx, partnerEntity(partnerID), auth.RelationDepartment, subject)
}

// MemberAdded writes department#member@user.
func (s *RelationSync) MemberAdded(ctx context.Context, departmentID, userID uuid.UUID) error {
	if s == nil {
		return nil
	}
	subject := model.Subject{Type: model.EntityUser, ID: userID.String()}
	return s.write(ctx, departmentEntity(departmentID), auth.RelationMember, subject)
}

// MemberRemoved deletes department#member@user.
func (s *RelationSync) MemberRemoved(ctx context.Context, departmentID, userID uuid.UUID) error {
	if s == nil {
		return nil
	}
	subject := model.Subject{Type: model.EntityUser, ID: userID.String()}
	return s.delete(ctx, departmentEntity(departmentID), auth.RelationMember, subject)
}

func (s *RelationSync) write(ctx context.Context, entity model.Entity, relation string, subject model.Subject) error {
	if err := s.writer.WriteRelationship(ctx, entity, relation, subject); err != nil {
		s.metrics.RecordRelationSyncError("write")
		slog.WarnContext(ctx, "relationship write failed",
			"error", err, "entity", entity.Type, "entity_id", entity.ID, "relation", relation, "subject_id", subject.ID)
		return fmt.Errorf("writing relationship: %w", err)
	}
	if err := s.audit.LogRelationCreate(ctx, entity, relation, subject); err != nil {
		slog.WarnContext(ctx, "failed to audit relationship write", "error", err)
	}
	return nil
}

func (s *RelationSync) delete(ctx context.Context, entity model.Entity, relation string, subject model.Subject) error {
	if err := s.writer.DeleteRelationship(ctx, entity, relation, subject); err != nil {
		s.metrics.RecordRelationSyncError("delete")
		slog.WarnContext(ctx, "relationship delete failed",
			"error", err, "entity", entity.Type, "entity_id", entity.ID, "relation", relation, "subject_id", subject.ID)
		return fmt.Errorf("deleting relationship: %w", err)
	}
	if err := s.audit.LogRelationDelete(ctx, entity, relation, subject); err != nil {
		slog.WarnContext(ctx, "failed to audit relationship delete", "error", err)
	}
	return nil
}
