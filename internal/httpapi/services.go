package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/timebank/internal/alerts"
)

type requestServiceRequest struct {
	ProviderID       uint64 `json:"provider_id"`
	SkillID          uint64 `json:"skill_id"`
	Description      string `json:"description"`
	EstimatedMinutes int64  `json:"estimated_minutes"`
	Notes            string `json:"notes"`
}

// RequestService creates a pending service with the caller as receiver.
func (h *Handler) RequestService(c echo.Context) error {
	req := new(requestServiceRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	ctx := c.Request().Context()

	id, err := h.engine.RequestService(ctx, caller(c), req.ProviderID, req.SkillID,
		req.Description, req.EstimatedMinutes, req.Notes)
	if err != nil {
		return fail(c, err)
	}

	if email := accountEmailForMember(req.ProviderID); email != "" {
		s, serr := h.engine.GetService(ctx, id)
		if serr == nil {
			_ = alerts.EnqueueServiceRequested(s.ID, s.ProviderID, s.ReceiverID, email, s.EstimatedMinutes)
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"service_id": id})
}

// GetService returns one service.
func (h *Handler) GetService(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}
	s, err := h.engine.GetService(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// StartService moves a pending service to started and takes the hold.
func (h *Handler) StartService(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}
	ctx := c.Request().Context()
	if err := h.engine.StartService(ctx, caller(c), id); err != nil {
		return fail(c, err)
	}

	if s, serr := h.engine.GetService(ctx, id); serr == nil {
		if email := accountEmailForMember(s.ReceiverID); email != "" {
			_ = alerts.EnqueueServiceStarted(s.ID, s.ProviderID, s.ReceiverID, email, s.EstimatedMinutes)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "service started"})
}

type completeServiceRequest struct {
	ActualMinutes int64 `json:"actual_minutes"`
}

// CompleteService records the actual minutes worked.
func (h *Handler) CompleteService(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}
	req := new(completeServiceRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	ctx := c.Request().Context()
	if err := h.engine.CompleteService(ctx, caller(c), id, req.ActualMinutes); err != nil {
		return fail(c, err)
	}

	if s, serr := h.engine.GetService(ctx, id); serr == nil {
		if email := accountEmailForMember(s.ReceiverID); email != "" {
			_ = alerts.EnqueueServiceCompleted(s.ID, s.ProviderID, s.ReceiverID, email, req.ActualMinutes)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "service completed"})
}

// VerifyService settles the service and credits the provider.
func (h *Handler) VerifyService(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}
	ctx := c.Request().Context()
	if err := h.engine.VerifyService(ctx, caller(c), id); err != nil {
		return fail(c, err)
	}

	if s, serr := h.engine.GetService(ctx, id); serr == nil && s.ActualMinutes != nil {
		if email := accountEmailForMember(s.ProviderID); email != "" {
			_ = alerts.EnqueueServiceVerified(s.ID, s.ProviderID, s.ReceiverID, email, *s.ActualMinutes)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "service verified"})
}

// CancelService cancels a pending or started service.
func (h *Handler) CancelService(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}
	ctx := c.Request().Context()
	if err := h.engine.CancelService(ctx, caller(c), id); err != nil {
		return fail(c, err)
	}

	if s, serr := h.engine.GetService(ctx, id); serr == nil {
		// notify both sides; the canceller's mail is just a receipt
		for _, memberID := range []uint64{s.ProviderID, s.ReceiverID} {
			if email := accountEmailForMember(memberID); email != "" {
				_ = alerts.EnqueueServiceCanceled(s.ID, s.ProviderID, s.ReceiverID, email, s.EstimatedMinutes)
			}
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "service canceled"})
}

type feedbackRequest struct {
	Rating  int64  `json:"rating"`
	Comment string `json:"comment"`
}

// LeaveFeedback records the receiver's rating for a verified service.
func (h *Handler) LeaveFeedback(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}
	req := new(feedbackRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := h.engine.LeaveFeedback(c.Request().Context(), caller(c), id, req.Rating, req.Comment); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "feedback recorded"})
}

// GetFeedback returns the feedback left for a service, if any.
func (h *Handler) GetFeedback(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}
	f, err := h.engine.GetFeedback(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, f)
}
