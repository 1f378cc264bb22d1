// Package authz decides whether a principal may act on partner records.
//
// Decisions are taken in two tiers. The permission gate runs before any
// object is loaded and filters out anonymous callers and department-less
// creators. The object gate runs on a loaded partner and requires the
// principal to share at least one department with it. System admins pass
// both tiers.
package authz

import (
	"context"
	"log/slog"

	"github.com/dangerclosesec/partnerhub/internal/audit"
	"github.com/dangerclosesec/partnerhub/internal/domain"
	"github.com/dangerclosesec/partnerhub/internal/metrics"
	"github.com/dangerclosesec/partnerhub/internal/model"
	"github.com/google/uuid"
)

type Action string

const (
	ActionCreate             Action = "create"
	ActionList               Action = "list"
	ActionRetrieve           Action = "retrieve"
	ActionUpdate             Action = "update"
	ActionPartialUpdate      Action = "partial_update"
	ActionDestroy            Action = "destroy"
	ActionChangeStatus       Action = "change_status"
	ActionChangeRisk         Action = "change_risk"
	ActionStatusHistory      Action = "status_history"
	ActionRiskHistory        Action = "risk_history"
	ActionAssignDepartments  Action = "assign_departments"
	ActionUnassignDepartment Action = "unassign_department"
	ActionListDepartments    Action = "list_departments"
	ActionManageDocuments    Action = "manage_documents"
	ActionManageProfile      Action = "manage_profile"
	ActionLinkProjects       Action = "link_projects"
)

// Scoped is an object whose visibility is limited to its departments.
type Scoped interface {
	DepartmentIDs() []uuid.UUID
}

// HasPermission is the permission gate.
func HasPermission(user *model.User, action Action) bool {
	if user == nil {
		return false
	}
	if user.SysAdmin() {
		return true
	}
	switch action {
	case ActionCreate:
		return len(user.Departments) > 0
	case ActionList:
		return true
	}
	// Everything else is decided by the object gate.
	return true
}

// HasObjectPermission is the object gate.
func HasObjectPermission(user *model.User, obj Scoped) bool {
	if user == nil {
		return false
	}
	if user.SysAdmin() {
		return true
	}
	mine := make(map[uuid.UUID]struct{}, len(user.Departments))
	for _, id := range user.DepartmentIDs() {
		mine[id] = struct{}{}
	}
	for _, id := range obj.DepartmentIDs() {
		if _, ok := mine[id]; ok {
			return true
		}
	}
	return false
}

// Policy applies both gates and records every decision in the audit log
// and the decision counter.
type Policy struct {
	audit   audit.Logger
	metrics *metrics.Metrics
}

func NewPolicy(auditLogger audit.Logger, m *metrics.Metrics) *Policy {
	if auditLogger == nil {
		auditLogger = audit.Discard
	}
	return &Policy{audit: auditLogger, metrics: m}
}

// CheckPermission returns domain.ErrUnauthenticated for a nil user and
// domain.ErrPermissionDenied when the permission gate refuses the action.
func (p *Policy) CheckPermission(ctx context.Context, user *model.User, action Action) error {
	if user == nil {
		p.record(ctx, model.ActionPermissionGate, user, action, model.Entity{Type: model.EntityPartner}, false)
		return domain.ErrUnauthenticated
	}
	allowed := HasPermission(user, action)
	p.record(ctx, model.ActionPermissionGate, user, action, model.Entity{Type: model.EntityPartner}, allowed)
	if !allowed {
		return domain.ErrPermissionDenied
	}
	return nil
}

// ObjectGate runs the object tier on a loaded partner. Callers run
// CheckPermission first, before the lookup.
func (p *Policy) ObjectGate(ctx context.Context, user *model.User, action Action, partner *model.Partner) error {
	if user == nil {
		return domain.ErrUnauthenticated
	}
	allowed := HasObjectPermission(user, partner)
	p.record(ctx, model.ActionObjectGate, user, action, model.Entity{Type: model.EntityPartner, ID: partner.ID.String()}, allowed)
	if !allowed {
		return domain.ErrPermissionDenied
	}
	return nil
}

// RequireSysAdmin guards identity management and other admin only surfaces.
func (p *Policy) RequireSysAdmin(ctx context.Context, user *model.User, action string, object model.Entity) error {
	if user == nil {
		return domain.ErrUnauthenticated
	}
	allowed := user.SysAdmin()
	p.record(ctx, model.ActionPermissionGate, user, Action(action), object, allowed)
	if !allowed {
		return domain.ErrPermissionDenied
	}
	return nil
}

func (p *Policy) record(ctx context.Context, gate string, user *model.User, action Action, object model.Entity, allowed bool) {
	p.metrics.RecordDecision(gate, string(action), allowed)

	subject := model.Subject{Type: model.EntityUser}
	if user != nil {
		subject.ID = user.ID.String()
	}
	if err := p.audit.LogPermissionCheck(ctx, gate, subject, string(action), object, allowed, map[string]interface{}{
		"sys_admin":   user.SysAdmin(),
		"departments": len(user.DepartmentIDs()),
	}); err != nil {
		slog.WarnContext(ctx, "failed to write authorization audit entry", "error", err, "gate", gate, "action", action)
	}
}
