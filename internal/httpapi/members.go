package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type registerRequest struct {
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

// Register creates the member record for the calling account and grants the
// starting time credits.
func (h *Handler) Register(c echo.Context) error {
	req := new(registerRequest)
	if err := c.Bind(req); err != nil || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	id, err := h.engine.Register(c.Request().Context(), caller(c), req.Name, req.Bio)
	if err != nil {
		return fail(c, err)
	}
	u, err := h.engine.GetUser(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, u)
}

// GetMember returns a member's public profile.
func (h *Handler) GetMember(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}
	u, err := h.engine.GetUser(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// Profile returns the calling account's member record.
func (h *Handler) Profile(c echo.Context) error {
	u, err := h.engine.GetUserByIdentity(c.Request().Context(), caller(c).Identity)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

type updateProfileRequest struct {
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

// UpdateProfile updates the caller's name and bio.
func (h *Handler) UpdateProfile(c echo.Context) error {
	req := new(updateProfileRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := h.engine.UpdateProfile(c.Request().Context(), caller(c), req.Name, req.Bio); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "profile updated"})
}

// Balance returns a member's signed time balance.
func (h *Handler) Balance(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}
	balance, err := h.engine.Balance(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"member_id": id, "time_balance": balance})
}

// Ledger returns a member's balance movement history.
func (h *Handler) Ledger(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}
	entries, err := h.engine.Ledger(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"member_id": id, "entries": entries})
}

// MyServices lists every service the caller participates in.
func (h *Handler) MyServices(c echo.Context) error {
	u, err := h.engine.GetUserByIdentity(c.Request().Context(), caller(c).Identity)
	if err != nil {
		return fail(c, err)
	}
	services, err := h.engine.ListServicesForUser(c.Request().Context(), u.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"services": services})
}
