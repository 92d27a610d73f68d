package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gradeidea/roast-service/internal/core/ports"
)

// signatureHeader carries the provider's HMAC-SHA256 hex signature of the body.
const signatureHeader = "X-Payment-Signature"

// CompletionDispatcher is the interface the handler uses to enqueue completions.
type CompletionDispatcher interface {
	Enqueue(input ports.PaymentCompletionInput)
}

// SignatureVerifier checks a webhook signature against the raw payload.
type SignatureVerifier interface {
	VerifySignature(payload []byte, signature string) bool
}

// WebhookHandler ingests payment completion notifications.
type WebhookHandler struct {
	dispatcher CompletionDispatcher
	verifier   SignatureVerifier
}

func NewWebhookHandler(dispatcher CompletionDispatcher, verifier SignatureVerifier) *WebhookHandler {
	return &WebhookHandler{dispatcher: dispatcher, verifier: verifier}
}

// Receive handles POST /v1/webhooks/payment. It verifies the signature,
// enqueues the completion, returns 202. Processing is idempotent downstream,
// so the provider may deliver the same notification more than once.
//
// @Summary      Ingest a payment completion notification
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        X-Payment-Signature  header  string                 true  "HMAC-SHA256 hex signature of the body"
// @Param        body                 body    paymentWebhookRequest  true  "Completion notification"
// @Success      202  {object}  acceptedResponse
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/webhooks/payment [post]
func (h *WebhookHandler) Receive(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable payload")
	}

	if !h.verifier.VerifySignature(payload, c.Request().Header.Get(signatureHeader)) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
	}

	var req paymentWebhookRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	h.dispatcher.Enqueue(ports.PaymentCompletionInput{
		JobID:     req.JobID,
		SessionID: req.SessionID,
	})
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "completion accepted"})
}
