package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/timebank/internal/alerts"
)

type donateRequest struct {
	Amount int64 `json:"amount"`
}

// Donate moves credit from the caller into the community fund.
func (h *Handler) Donate(c echo.Context) error {
	req := new(donateRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := h.engine.Donate(c.Request().Context(), caller(c), req.Amount); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "donation received"})
}

// FundBalance returns the community fund's pooled balance.
func (h *Handler) FundBalance(c echo.Context) error {
	balance, err := h.engine.FundBalance(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"balance": balance})
}

type allocateRequest struct {
	MemberID uint64 `json:"member_id"`
	Amount   int64  `json:"amount"`
	Reason   string `json:"reason"`
}

// Allocate grants fund credit to a member. Admin only in routing.
func (h *Handler) Allocate(c echo.Context) error {
	req := new(allocateRequest)
	if err := c.Bind(req); err != nil || req.MemberID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "member_id is required"})
	}
	if err := h.engine.Allocate(c.Request().Context(), caller(c), req.MemberID, req.Amount, req.Reason); err != nil {
		return fail(c, err)
	}

	if email := accountEmailForMember(req.MemberID); email != "" {
		_ = alerts.EnqueueFundAllocated(req.MemberID, email, req.Amount)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "allocation granted"})
}
