package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type addSkillRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Group       string `json:"group"`
}

// AddSkill creates a curated skill category. Admin only.
func (h *Handler) AddSkill(c echo.Context) error {
	req := new(addSkillRequest)
	if err := c.Bind(req); err != nil || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	id, err := h.engine.AddSkillCategory(c.Request().Context(), caller(c), req.Name, req.Description, req.Group)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"skill_id": id})
}

// ListSkills returns the whole catalog.
func (h *Handler) ListSkills(c echo.Context) error {
	skills, err := h.engine.ListSkills(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"skills": skills})
}

type registerProviderRequest struct {
	HourlyRate      int64  `json:"hourly_rate"`
	ExperienceLevel string `json:"experience_level"`
	Availability    string `json:"availability"`
}

// RegisterProvider lists the caller under a skill.
func (h *Handler) RegisterProvider(c echo.Context) error {
	skillID, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid skill id"})
	}
	req := new(registerProviderRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := h.engine.RegisterAsProvider(c.Request().Context(), caller(c), skillID,
		req.HourlyRate, req.ExperienceLevel, req.Availability); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "listed as provider"})
}

// ListProviders returns every listing for a skill.
func (h *Handler) ListProviders(c echo.Context) error {
	skillID, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid skill id"})
	}
	providers, err := h.engine.ListProviders(c.Request().Context(), skillID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"providers": providers})
}

type endorseRequest struct {
	MemberID uint64 `json:"member_id"`
	Comment  string `json:"comment"`
}

// Endorse records a one-time peer endorsement of a provider's skill.
func (h *Handler) Endorse(c echo.Context) error {
	skillID, err := idParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid skill id"})
	}
	req := new(endorseRequest)
	if err := c.Bind(req); err != nil || req.MemberID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "member_id is required"})
	}
	if err := h.engine.EndorseSkill(c.Request().Context(), caller(c), skillID, req.MemberID, req.Comment); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "endorsed"})
}
