// Package httpapi exposes the timebank engine over the JSON API. Handlers
// translate requests into engine calls and rejection codes into statuses;
// no accounting rules live here.
package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/timebank/internal/db"
	"github.com/sudo-init-do/timebank/internal/timebank"
)

type Handler struct {
	engine *timebank.Engine
}

func NewHandler(engine *timebank.Engine) *Handler {
	return &Handler{engine: engine}
}

// caller builds the engine principal from the authenticated request.
func caller(c echo.Context) timebank.Caller {
	accountID, _ := c.Get("account_id").(string)
	role, _ := c.Get("role").(string)
	return timebank.Caller{Identity: accountID, Admin: role == "admin"}
}

// fail maps an engine rejection onto the HTTP response.
func fail(c echo.Context, err error) error {
	code := timebank.GetCode(err)
	if code == "" {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(timebank.HTTPStatus(err), echo.Map{"error": err.Error(), "code": string(code)})
}

func idParam(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// accountEmailForMember resolves a member id to its login email, for alert
// delivery. Best-effort; an empty string means no address.
func accountEmailForMember(memberID uint64) string {
	if db.Conn == nil {
		return ""
	}
	var email string
	_ = db.Conn.QueryRow(context.Background(), `
        SELECT a.email FROM users u
        JOIN accounts a ON a.id::text = u.owner_identity
        WHERE u.id = $1`, memberID,
	).Scan(&email)
	return email
}
