package messaging

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/timebank/internal/alerts"
	"github.com/sudo-init-do/timebank/internal/db"
)

// serviceParticipants loads both sides of a service thread.
func serviceParticipants(serviceID string) (providerID, receiverID uint64, err error) {
	err = db.Conn.QueryRow(context.Background(),
		`SELECT provider_id, receiver_id FROM services WHERE id = $1`, serviceID,
	).Scan(&providerID, &receiverID)
	return providerID, receiverID, err
}

// SendMessage - provider or receiver sends a message in a service thread
func SendMessage(c echo.Context) error {
	memberID, ok := memberForAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	serviceID := c.Param("id")
	if serviceID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing service id"})
	}

	var body struct {
		Content string `json:"content"`
	}
	if err := c.Bind(&body); err != nil || body.Content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}

	providerID, receiverID, err := serviceParticipants(serviceID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	}

	var recipientID uint64
	switch memberID {
	case providerID:
		recipientID = receiverID
	case receiverID:
		recipientID = providerID
	default:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a participant in this service"})
	}

	msgID := uuid.New().String()
	var createdAt time.Time
	err = db.Conn.QueryRow(context.Background(),
		`INSERT INTO messages (id, service_id, sender_id, recipient_id, content)
         VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		msgID, serviceID, memberID, recipientID, body.Content,
	).Scan(&createdAt)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send message"})
	}

	BroadcastNewMessage(serviceID, echo.Map{
		"id":           msgID,
		"service_id":   serviceID,
		"sender_id":    memberID,
		"recipient_id": recipientID,
		"content":      body.Content,
		"created_at":   createdAt.UTC().Format(time.RFC3339),
	})

	// In-app and email notification for the recipient, best-effort
	var recipientAccount, recipientEmail string
	err = db.Conn.QueryRow(context.Background(), `
        SELECT u.owner_identity, a.email FROM users u
        JOIN accounts a ON a.id::text = u.owner_identity
        WHERE u.id = $1`, recipientID,
	).Scan(&recipientAccount, &recipientEmail)
	if err == nil {
		ref := msgID
		_ = alerts.CreateNotification(recipientAccount, "message:new", "New message on your service", body.Content, &ref)
		if recipientEmail != "" {
			sid, _ := strconv.ParseUint(serviceID, 10, 64)
			_ = alerts.EnqueueMessageNew(sid, memberID, recipientID, recipientEmail, body.Content)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message_id": msgID})
}

// ListMessages - get the conversation for a service
func ListMessages(c echo.Context) error {
	memberID, ok := memberForAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	serviceID := c.Param("id")
	if serviceID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing service id"})
	}

	providerID, receiverID, err := serviceParticipants(serviceID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	}
	if memberID != providerID && memberID != receiverID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a participant in this service"})
	}

	// Optional since filter for incremental fetches
	sinceStr := c.QueryParam("since")
	var rows pgx.Rows
	if sinceStr != "" {
		sinceTime, perr := time.Parse(time.RFC3339, sinceStr)
		if perr != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid since timestamp, use RFC3339"})
		}
		rows, err = db.Conn.Query(context.Background(),
			`SELECT id, sender_id, recipient_id, content, created_at, read_at
             FROM messages WHERE service_id = $1 AND created_at > $2 ORDER BY created_at ASC`, serviceID, sinceTime,
		)
	} else {
		rows, err = db.Conn.Query(context.Background(),
			`SELECT id, sender_id, recipient_id, content, created_at, read_at
             FROM messages WHERE service_id = $1 ORDER BY created_at ASC`, serviceID,
		)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list messages"})
	}
	defer rows.Close()

	type message struct {
		ID          string      `json:"id"`
		SenderID    uint64      `json:"sender_id"`
		RecipientID uint64      `json:"recipient_id"`
		Content     string      `json:"content"`
		CreatedAt   string      `json:"created_at"`
		ReadAt      interface{} `json:"read_at"`
	}

	var msgs []message
	for rows.Next() {
		var m message
		var createdAt time.Time
		var readAt *time.Time
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Content, &createdAt, &readAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		m.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		if readAt != nil {
			m.ReadAt = readAt.UTC().Format(time.RFC3339)
		}
		msgs = append(msgs, m)
	}

	return c.JSON(http.StatusOK, echo.Map{"messages": msgs})
}

// UnreadCount - unread messages for the current member in a service thread
func UnreadCount(c echo.Context) error {
	memberID, ok := memberForAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	serviceID := c.Param("id")
	if serviceID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing service id"})
	}

	providerID, receiverID, err := serviceParticipants(serviceID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	}
	if memberID != providerID && memberID != receiverID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a participant in this service"})
	}

	var count int64
	err = db.Conn.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM messages WHERE service_id = $1 AND recipient_id = $2 AND read_at IS NULL`,
		serviceID, memberID,
	).Scan(&count)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to count messages"})
	}
	return c.JSON(http.StatusOK, echo.Map{"unread": count})
}

// MarkMessagesRead - mark all messages addressed to the current member as read
func MarkMessagesRead(c echo.Context) error {
	memberID, ok := memberForAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	serviceID := c.Param("id")
	if serviceID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing service id"})
	}

	res, err := db.Conn.Exec(context.Background(),
		`UPDATE messages SET read_at = NOW()
         WHERE service_id = $1 AND recipient_id = $2 AND read_at IS NULL`,
		serviceID, memberID,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update"})
	}

	BroadcastMessageRead(serviceID, echo.Map{"member_id": memberID, "count": res.RowsAffected()})
	return c.JSON(http.StatusOK, echo.Map{"marked": res.RowsAffected()})
}
