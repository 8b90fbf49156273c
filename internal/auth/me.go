package auth

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/timebank/internal/db"
)

// Me returns the authenticated account, plus the member profile when the
// account has registered in the timebank.
func Me(c echo.Context) error {
	accountID, ok := c.Get("account_id").(string)
	if !ok || accountID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var name, email, role string
	err := db.Conn.QueryRow(context.Background(),
		`SELECT name, email, role FROM accounts WHERE id = $1`, accountID).
		Scan(&name, &email, &role)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
	}

	resp := echo.Map{
		"id":    accountID,
		"name":  name,
		"email": email,
		"role":  role,
	}

	var userID uint64
	var balance int64
	err = db.Conn.QueryRow(context.Background(),
		`SELECT id, time_balance FROM users WHERE owner_identity = $1`, accountID).
		Scan(&userID, &balance)
	if err == nil {
		resp["member_id"] = userID
		resp["time_balance"] = balance
	}

	return c.JSON(http.StatusOK, resp)
}
