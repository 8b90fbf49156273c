package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Stats reports aggregate counts for the admin dashboard.
func (h *Handler) Stats(c echo.Context) error {
	stats, err := h.engine.Stats(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// ListMembers returns every registered member.
func (h *Handler) ListMembers(c echo.Context) error {
	users, err := h.engine.ListUsers(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"members": users})
}

// SuspendMember deactivates a member account.
func (h *Handler) SuspendMember(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}
	if err := h.engine.SuspendUser(c.Request().Context(), caller(c), id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "member suspended"})
}

// ActivateMember restores a suspended member account.
func (h *Handler) ActivateMember(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}
	if err := h.engine.ActivateUser(c.Request().Context(), caller(c), id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "member activated"})
}

// SetArbiter marks a member as eligible to resolve disputes.
func (h *Handler) SetArbiter(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}
	if err := h.engine.SetArbiter(c.Request().Context(), caller(c), id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "member promoted to arbiter"})
}
