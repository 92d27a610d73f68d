package ports

import "context"

// CheckoutSession references a hosted payment session at the external provider.
type CheckoutSession struct {
	ID  string
	URL string
}

// PaymentProvider is the boundary to the external payment service. Session
// internals are opaque; this core only cares about creation and a boolean
// paid state.
type PaymentProvider interface {
	CreateSession(ctx context.Context, jobID string) (*CheckoutSession, error)
	SessionPaid(ctx context.Context, sessionID string) (bool, error)
}
