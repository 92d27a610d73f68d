package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

// Harshness is validated in the service layer: the token-funded start rejects
// out-of-range values while the checkout start defaults them, so no oneof tag
// here.
type startRoastRequest struct {
	Input     string `json:"input" validate:"required"`
	Harshness int    `json:"harshness"`
}

type startCheckoutRequest struct {
	Input     string `json:"input" validate:"required"`
	Harshness int    `json:"harshness"`
}

type paymentWebhookRequest struct {
	JobID     string `json:"job_id"     validate:"required"`
	SessionID string `json:"session_id" validate:"required"`
}

// --- Response types ---

type roastLinks struct {
	Self string `json:"self"`
}

type startRoastResponse struct {
	JobID  string     `json:"job_id"`
	Status string     `json:"status"`
	Links  roastLinks `json:"_links"`
}

type startCheckoutResponse struct {
	JobID       string     `json:"job_id"`
	SessionID   string     `json:"session_id"`
	CheckoutURL string     `json:"checkout_url"`
	Links       roastLinks `json:"_links"`
}

type roastResultResponse struct {
	Title     string   `json:"title"`
	Zingers   []string `json:"zingers"`
	Insights  []string `json:"insights"`
	Verdict   string   `json:"verdict"`
	RiskScore float64  `json:"risk_score"`
}

type getRoastResponse struct {
	JobID     string               `json:"job_id"`
	Status    string               `json:"status"`
	Funding   string               `json:"funding"`
	Paid      bool                 `json:"paid"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
	Result    *roastResultResponse `json:"result,omitempty"`
	Links     roastLinks           `json:"_links"`
}

type sessionStatusResponse struct {
	SessionID string `json:"session_id"`
	Paid      bool   `json:"paid"`
}

type balanceResponse struct {
	Balance int `json:"balance"`
}

type acceptedResponse struct {
	Message string `json:"message"`
}
