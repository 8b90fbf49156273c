package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/timebank/internal/alerts"
)

type raiseDisputeRequest struct {
	Description string `json:"description"`
}

// RaiseDispute escalates a started or completed service the caller is part of.
func (h *Handler) RaiseDispute(c echo.Context) error {
	serviceID, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}
	req := new(raiseDisputeRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	ctx := c.Request().Context()

	id, err := h.engine.RaiseDispute(ctx, caller(c), serviceID, req.Description)
	if err != nil {
		return fail(c, err)
	}

	if d, derr := h.engine.GetDispute(ctx, id); derr == nil {
		if s, serr := h.engine.GetService(ctx, d.ServiceID); serr == nil {
			// notify the party that did not raise it
			other := s.ProviderID
			if d.RaisedBy == s.ProviderID {
				other = s.ReceiverID
			}
			if email := accountEmailForMember(other); email != "" {
				_ = alerts.EnqueueDisputeRaised(d.ID, s.ID, email)
			}
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"dispute_id": id})
}

// GetDispute returns one dispute.
func (h *Handler) GetDispute(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid dispute id"})
	}
	d, err := h.engine.GetDispute(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// ListDisputes returns all disputes. Admin only in routing.
func (h *Handler) ListDisputes(c echo.Context) error {
	disputes, err := h.engine.ListDisputes(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"disputes": disputes})
}

type assignArbiterRequest struct {
	ArbiterID uint64 `json:"arbiter_id"`
}

// AssignArbiter attaches an arbiter to a dispute. Admin only in routing.
func (h *Handler) AssignArbiter(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid dispute id"})
	}
	req := new(assignArbiterRequest)
	if err := c.Bind(req); err != nil || req.ArbiterID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "arbiter_id is required"})
	}
	if err := h.engine.AssignArbiter(c.Request().Context(), caller(c), id, req.ArbiterID); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "arbiter assigned"})
}

type resolveDisputeRequest struct {
	Resolution     string `json:"resolution"`
	TimeAdjustment int64  `json:"time_adjustment"`
}

// ResolveDispute closes a dispute with the assigned arbiter's verdict.
func (h *Handler) ResolveDispute(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid dispute id"})
	}
	req := new(resolveDisputeRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	ctx := c.Request().Context()
	if err := h.engine.ResolveDispute(ctx, caller(c), id, req.Resolution, req.TimeAdjustment); err != nil {
		return fail(c, err)
	}

	if d, derr := h.engine.GetDispute(ctx, id); derr == nil {
		if s, serr := h.engine.GetService(ctx, d.ServiceID); serr == nil {
			for _, memberID := range []uint64{s.ProviderID, s.ReceiverID} {
				if email := accountEmailForMember(memberID); email != "" {
					_ = alerts.EnqueueDisputeResolved(d.ID, s.ID, email, d.TimeAdjustment)
				}
			}
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "dispute resolved"})
}
