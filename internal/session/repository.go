package session

import "context"

// Repository persists session aggregates. Get must return a copy the caller
// may freely mutate; Save replaces the whole aggregate in one atomic write —
// that single commit point is what makes a reconcile pass all-or-nothing.
type Repository interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
}
