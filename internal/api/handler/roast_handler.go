package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gradeidea/roast-service/internal/core/ports"
)

// RoastHandler handles HTTP requests for the roast job lifecycle.
type RoastHandler struct {
	service ports.RoastService
}

func NewRoastHandler(service ports.RoastService) *RoastHandler {
	return &RoastHandler{service: service}
}

// Start handles POST /v1/roasts, the token-funded path.
//
// @Summary      Start a token-funded roast
// @Tags         roasts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      startRoastRequest  true  "Idea to roast"
// @Success      201   {object}  startRoastResponse
// @Failure      400   {object}  errorResponse
// @Failure      402   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /v1/roasts [post]
func (h *RoastHandler) Start(c echo.Context) error {
	var req startRoastRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// Empty for guests: the service redirects them to the payment flow.
	owner, _ := c.Get("owner").(string)

	result, err := h.service.Start(c.Request().Context(), ports.StartRoastInput{
		Input:     req.Input,
		Harshness: req.Harshness,
		Owner:     owner,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toStartResponse(result))
}

// StartCheckout handles POST /v1/roasts/checkout, the payment-funded path.
//
// @Summary      Start a payment-funded roast via hosted checkout
// @Tags         roasts
// @Accept       json
// @Produce      json
// @Param        body  body      startCheckoutRequest  true  "Idea to roast"
// @Success      201   {object}  startCheckoutResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/roasts/checkout [post]
func (h *RoastHandler) StartCheckout(c echo.Context) error {
	var req startCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.StartCheckout(c.Request().Context(), ports.StartCheckoutInput{
		Input:     req.Input,
		Harshness: req.Harshness,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toCheckoutResponse(result))
}

// Get handles GET /v1/roasts/:id, the poll endpoint. Side-effect free.
//
// @Summary      Get a roast job by id
// @Tags         roasts
// @Produce      json
// @Param        id  path      string  true  "Job id"
// @Success      200 {object}  getRoastResponse
// @Failure      404 {object}  errorResponse
// @Router       /v1/roasts/{id} [get]
func (h *RoastHandler) Get(c echo.Context) error {
	detail, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toGetResponse(detail))
}

// SessionStatus handles GET /v1/checkout/sessions/:id, the payment status poll.
//
// @Summary      Get the paid state of a checkout session
// @Tags         roasts
// @Produce      json
// @Param        id  path      string  true  "Checkout session id"
// @Success      200 {object}  sessionStatusResponse
// @Router       /v1/checkout/sessions/{id} [get]
func (h *RoastHandler) SessionStatus(c echo.Context) error {
	sessionID := c.Param("id")
	paid, err := h.service.CheckoutPaid(c.Request().Context(), sessionID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionStatusResponse{SessionID: sessionID, Paid: paid})
}
