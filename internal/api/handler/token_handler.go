package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gradeidea/roast-service/internal/core/ports"
)

// TokenHandler exposes the caller's token balance.
type TokenHandler struct {
	ledger ports.TokenLedger
}

func NewTokenHandler(ledger ports.TokenLedger) *TokenHandler {
	return &TokenHandler{ledger: ledger}
}

// Balance handles GET /v1/tokens. Requires the strict auth middleware.
//
// @Summary      Get the current token balance
// @Tags         tokens
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  balanceResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/tokens [get]
func (h *TokenHandler) Balance(c echo.Context) error {
	owner, _ := c.Get("owner").(string)
	if owner == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	balance, err := h.ledger.Balance(c.Request().Context(), owner)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, balanceResponse{Balance: balance})
}
