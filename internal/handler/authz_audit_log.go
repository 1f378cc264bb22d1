package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dangerclosesec/partnerhub/internal/authz"
	"github.com/dangerclosesec/partnerhub/internal/middleware"
	"github.com/dangerclosesec/partnerhub/internal/model"
	"github.com/dangerclosesec/partnerhub/internal/repository"
	"github.com/dangerclosesec/partnerhub/internal/service"
	"github.com/go-chi/chi/v5"
)

// AuthzAuditLogHandler exposes the authorization audit trail to administrators.
type AuthzAuditLogHandler struct {
	auditLogService *service.AuthzAuditLogService
	policy          *authz.Policy
}

// NewAuthzAuditLogHandler creates a new audit log handler
func NewAuthzAuditLogHandler(auditLogService *service.AuthzAuditLogService, policy *authz.Policy) *AuthzAuditLogHandler {
	return &AuthzAuditLogHandler{
		auditLogService: auditLogService,
		policy:          policy,
	}
}

func (h *AuthzAuditLogHandler) Routes(r chi.Router) {
	r.Get("/", h.GetAuditLogs)
	r.Get("/{id}", h.GetAuditLogByID)
}

var auditLogEntity = model.Entity{Type: "authz_audit_log"}

// GetAuditLogs handles requests to retrieve audit logs with filtering.
// Unparseable result and time filters are ignored.
func (h *AuthzAuditLogHandler) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	if err := h.policy.RequireSysAdmin(r.Context(), middleware.UserFrom(r.Context()), "list", auditLogEntity); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	q := r.URL.Query()
	params := repository.AuditLogFilter{
		ActionType:  q.Get("action_type"),
		Action:      q.Get("action"),
		EntityType:  q.Get("entity_type"),
		EntityID:    q.Get("entity_id"),
		SubjectType: q.Get("subject_type"),
		SubjectID:   q.Get("subject_id"),
	}
	if result, err := strconv.ParseBool(q.Get("result")); err == nil {
		params.Result = &result
	}
	if startTime, err := time.Parse(time.RFC3339, q.Get("start_time")); err == nil {
		params.StartTime = startTime
	}
	if endTime, err := time.Parse(time.RFC3339, q.Get("end_time")); err == nil {
		params.EndTime = endTime
	}
	params.Limit, params.Offset = pagination(r)

	logs, total, err := h.auditLogService.GetAuditLogs(r.Context(), params)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, ListResponse[model.AuthzAuditLog]{Count: total, Results: logs})
}

// GetAuditLogByID handles requests to retrieve a specific audit log by ID
func (h *AuthzAuditLogHandler) GetAuditLogByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if err := h.policy.RequireSysAdmin(r.Context(), middleware.UserFrom(r.Context()), "retrieve", model.Entity{Type: auditLogEntity.Type, ID: id.String()}); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	log, err := h.auditLogService.GetAuditLogByID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, log)
}
