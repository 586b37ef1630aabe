package events

import "context"

type investigationKey struct{}

// WithInvestigation returns a context carrying the investigation ID, so
// collaborators can attribute their own events to the run that called them.
func WithInvestigation(ctx context.Context, investigationID string) context.Context {
	return context.WithValue(ctx, investigationKey{}, investigationID)
}

// InvestigationFromContext returns the investigation ID stored by
// WithInvestigation, or "" if there is none.
func InvestigationFromContext(ctx context.Context) string {
	id, _ := ctx.Value(investigationKey{}).(string)
	return id
}
