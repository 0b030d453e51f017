// Package ctxdata carries per-request identity through the context: the
// trace id assigned at the edge and the authenticated user's id and role.
package ctxdata

import (
	"context"
)

type ctxKey int

const (
	traceIDKey ctxKey = iota
	userIDKey
	userRoleKey
)

func withValue(ctx context.Context, key ctxKey, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

func value(ctx context.Context, key ctxKey) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return withValue(ctx, traceIDKey, traceID)
}

func GetTraceID(ctx context.Context) (string, bool) {
	return value(ctx, traceIDKey)
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return withValue(ctx, userIDKey, userID)
}

func GetUserID(ctx context.Context) (string, bool) {
	return value(ctx, userIDKey)
}

func WithUserRole(ctx context.Context, role string) context.Context {
	return withValue(ctx, userRoleKey, role)
}

func GetUserRole(ctx context.Context) (string, bool) {
	return value(ctx, userRoleKey)
}
