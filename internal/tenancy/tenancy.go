package tenancy

import "context"

type contextKey int

const (
	tenantKey contextKey = iota
	operatorKey
	sessionKey
)

// WithTenant returns a context carrying the tenant id. Every data access is
// scoped by an explicit tenant id; there is no ambient default tenant.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey, tenantID)
}

// TenantID reads the tenant id from the context.
func TenantID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(tenantKey).(string)
	return id, ok && id != ""
}

// WithOperator returns a context carrying the acting operator id.
func WithOperator(ctx context.Context, operatorID string) context.Context {
	return context.WithValue(ctx, operatorKey, operatorID)
}

// OperatorID reads the operator id from the context.
func OperatorID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(operatorKey).(string)
	return id, ok && id != ""
}

// WithSession returns a context carrying the active upload session id.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey, sessionID)
}

// SessionID reads the session id from the context, if an operator opened one.
func SessionID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionKey).(string)
	return id, ok && id != ""
}
