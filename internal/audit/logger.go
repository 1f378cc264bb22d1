package audit

import (
	"context"
	"log/slog"

	"github.com/dangerclosesec/partnerhub/internal/model"
)

// Logger records authorization decisions and relationship changes. Request
// metadata is read from the context, see WithRequestInfo.
type Logger interface {
	// LogPermissionCheck records one gate decision. gate is
	// model.ActionPermissionGate or model.ActionObjectGate.
	LogPermissionCheck(
		ctx context.Context,
		gate string,
		subject model.Subject,
		action string,
		object model.Entity,
		result bool,
		contextData map[string]interface{},
	) error

	LogRelationCreate(ctx context.Context, object model.Entity, relation string, subject model.Subject) error
	LogRelationDelete(ctx context.Context, object model.Entity, relation string, subject model.Subject) error
}

// Discard drops every entry.
var Discard Logger = discard{}

type discard struct{}

func (discard) LogPermissionCheck(context.Context, string, model.Subject, string, model.Entity, bool, map[string]interface{}) error {
	return nil
}

func (discard) LogRelationCreate(context.Context, model.Entity, string, model.Subject) error {
	return nil
}

func (discard) LogRelationDelete(context.Context, model.Entity, string, model.Subject) error {
	return nil
}

// SlogLogger writes entries to a structured logger. The CLI uses it where
// no database-backed audit log is wired.
type SlogLogger struct {
	log *slog.Logger
}

func NewSlogLogger(log *slog.Logger) *SlogLogger {
	if log == nil {
		log = slog.Default()
	}
	return &SlogLogger{log: log}
}

func (l *SlogLogger) LogPermissionCheck(
	ctx context.Context,
	gate string,
	subject model.Subject,
	action string,
	object model.Entity,
	result bool,
	contextData map[string]interface{},
) error {
	l.log.InfoContext(ctx, "authorization decision",
		"gate", gate,
		"subject", subject.Type+":"+subject.ID,
		"action", action,
		"object", object.Type+":"+object.ID,
		"allowed", result,
		"request_id", RequestInfoFrom(ctx).RequestID,
	)
	return nil
}

func (l *SlogLogger) LogRelationCreate(ctx context.Context, object model.Entity, relation string, subject model.Subject) error {
	l.relation(ctx, model.ActionRelationCreate, object, relation, subject)
	return nil
}

func (l *SlogLogger) LogRelationDelete(ctx context.Context, object model.Entity, relation string, subject model.Subject) error {
	l.relation(ctx, model.ActionRelationDelete, object, relation, subject)
	return nil
}

func (l *SlogLogger) relation(ctx context.Context, kind string, object model.Entity, relation string, subject model.Subject) {
	l.log.InfoContext(ctx, "relation change",
		"kind", kind,
		"object", object.Type+":"+object.ID,
		"relation", relation,
		"subject", subject.Type+":"+subject.ID,
	)
}
