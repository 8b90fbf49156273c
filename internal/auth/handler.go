package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/sudo-init-do/timebank/internal/alerts"
	"github.com/sudo-init-do/timebank/internal/db"
	"github.com/sudo-init-do/timebank/internal/utils"
)

type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type SignupResponse struct {
	Token string `json:"token"`
}

// ===== Signup =====
func Signup(c echo.Context) error {
	req := new(SignupRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" || req.Email == "" || len(req.Password) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email and a 6+ char password are required"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	accountID := uuid.New().String()
	_, err = db.Conn.Exec(context.Background(), `
        INSERT INTO accounts (id, name, email, password, role, created_at)
        VALUES ($1, $2, $3, $4, 'member', $5)
    `, accountID, req.Name, req.Email, string(hashed), time.Now())
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already exists"})
	}

	signed, err := utils.GenerateToken(accountID, "member")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}

	// Welcome email is best-effort
	_ = alerts.EnqueueWelcomeEmail(accountID, req.Email, req.Name)

	return c.JSON(http.StatusOK, SignupResponse{Token: signed})
}
