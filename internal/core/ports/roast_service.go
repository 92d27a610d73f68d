package ports

import (
	"context"
	"time"
)

// StartRoastInput carries a token-funded start request. Owner is empty for
// guests, who are redirected to the payment-funded path.
type StartRoastInput struct {
	Input     string
	Harshness int
	Owner     string
}

// StartRoastResult is returned by the token-funded start.
type StartRoastResult struct {
	JobID  string
	Status string
}

// StartCheckoutInput carries a payment-funded start request. No identity is
// required; an invalid harshness is silently defaulted.
type StartCheckoutInput struct {
	Input     string
	Harshness int
}

// StartCheckoutResult is returned by the payment-funded start.
type StartCheckoutResult struct {
	JobID       string
	SessionID   string
	CheckoutURL string
}

// PaymentCompletionInput identifies a confirmed payment for a job.
type PaymentCompletionInput struct {
	JobID     string
	SessionID string
}

// RoastResultView is the read model of a finished critique.
type RoastResultView struct {
	Title     string
	Zingers   []string
	Insights  []string
	Verdict   string
	RiskScore float64
}

// RoastDetail is the poll view of a job. Result is non-nil if and only if
// Status is "ready".
type RoastDetail struct {
	JobID     string
	Status    string
	Funding   string
	Paid      bool
	CreatedAt time.Time
	UpdatedAt time.Time
	Result    *RoastResultView
}

// RoastService defines the use-case operations of the roast job lifecycle.
type RoastService interface {
	Start(ctx context.Context, input StartRoastInput) (*StartRoastResult, error)
	StartCheckout(ctx context.Context, input StartCheckoutInput) (*StartCheckoutResult, error)
	Get(ctx context.Context, id string) (*RoastDetail, error)
	CheckoutPaid(ctx context.Context, sessionID string) (bool, error)
}

// CompletionProcessor reacts to a confirmed payment by driving the job to a
// terminal status. Re-applying a completion to an already-terminal job is a
// no-op; delivery is not exactly-once.
type CompletionProcessor interface {
	ProcessCompletion(ctx context.Context, input PaymentCompletionInput) error
}
