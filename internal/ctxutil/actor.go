// Package ctxutil provides context utilities that can be safely imported anywhere.
// This package has no internal dependencies to avoid import cycles.
package ctxutil

import "context"

// ActorKey is the context key for the authenticated username.
// Exported so it can be used consistently across packages.
type ActorKey struct{}

type approvalKey struct{}

type submissionKey struct{}

// WithActorID returns a context with the authenticated username embedded.
func WithActorID(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, ActorKey{}, username)
}

// ActorFromContext returns the username from context, or empty string if not set.
func ActorFromContext(ctx context.Context) string {
	if v := ctx.Value(ActorKey{}); v != nil {
		return v.(string)
	}
	return ""
}

// WithCheckerApproval marks ctx as running a checker approval. Writes under
// such a context commit even when policy requires a checker.
func WithCheckerApproval(ctx context.Context) context.Context {
	return context.WithValue(ctx, approvalKey{}, true)
}

// IsCheckerApproval reports whether ctx runs a checker approval.
// Unmarked contexts are maker submissions.
func IsCheckerApproval(ctx context.Context) bool {
	v, _ := ctx.Value(approvalKey{}).(bool)
	return v
}

// WithSubmissionKey returns a context carrying the submission key of the
// command being processed.
func WithSubmissionKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, submissionKey{}, key)
}

// SubmissionKeyFromContext returns the submission key, or empty string if not set.
func SubmissionKeyFromContext(ctx context.Context) string {
	v, _ := ctx.Value(submissionKey{}).(string)
	return v
}
