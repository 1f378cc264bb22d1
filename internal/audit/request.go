package audit

import "context"

type requestInfoKey struct{}

// RequestInfo is the HTTP request metadata stored with each audit entry.
type RequestInfo struct {
	RequestID string
	ClientIP  string
	UserAgent string
}

// WithRequestInfo returns a context carrying info.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFrom returns the request metadata stored in ctx, or the zero
// value outside of a request.
func RequestInfoFrom(ctx context.Context) RequestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info
}
