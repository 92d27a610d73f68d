package domain

import (
	"errors"
	"time"
)

// JobStatus represents the lifecycle state of a roast job.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusReady      JobStatus = "ready"
	StatusError      JobStatus = "error"
)

// Funding records how a job's cost was authorized.
type Funding string

const (
	FundingToken   Funding = "token"
	FundingPayment Funding = "payment"
)

// Harshness bounds for the roast tone. Values outside the range are either
// rejected (token-funded start) or defaulted (checkout start).
const (
	HarshnessMin     = 1
	HarshnessMax     = 3
	HarshnessDefault = 2
)

// validTransitions defines the allowed state machine transitions.
// Both ready and error are terminal; status never moves backward.
var validTransitions = map[JobStatus][]JobStatus{
	StatusPending:    {StatusProcessing, StatusError},
	StatusProcessing: {StatusReady, StatusError},
}

var ErrInvalidTransition = errors.New("invalid status transition")
var ErrJobNotFound = errors.New("job not found")
var ErrInvalidInput = errors.New("invalid input")
var ErrPaymentRequired = errors.New("payment required")
var ErrGenerationFailed = errors.New("roast generation failed")
var ErrSessionMismatch = errors.New("payment session does not match job")

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions can occur.
func (s JobStatus) Terminal() bool {
	return s == StatusReady || s == StatusError
}

// RoastResult is the structured critique produced for a job.
// Present on a job if and only if its status is ready.
type RoastResult struct {
	Title     string   `json:"title" bson:"title"`
	Zingers   []string `json:"zingers" bson:"zingers"`
	Insights  []string `json:"insights" bson:"insights"`
	Verdict   string   `json:"verdict" bson:"verdict"`
	RiskScore float64  `json:"risk_score" bson:"risk_score"`
}

// Job is the core aggregate root: one unit of idea-critique work tracked
// from creation to terminal status.
type Job struct {
	ID               string       `json:"id" bson:"_id,omitempty"`
	Input            string       `json:"input" bson:"input"`
	Harshness        int          `json:"harshness" bson:"harshness"`
	Owner            string       `json:"owner,omitempty" bson:"owner,omitempty"`
	Funding          Funding      `json:"funding" bson:"funding"`
	Paid             bool         `json:"paid" bson:"paid"`
	Status           JobStatus    `json:"status" bson:"status"`
	Result           *RoastResult `json:"result,omitempty" bson:"result,omitempty"`
	PaymentSessionID string       `json:"payment_session_id,omitempty" bson:"payment_session_id,omitempty"`
	CreatedAt        time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at" bson:"updated_at"`
}
