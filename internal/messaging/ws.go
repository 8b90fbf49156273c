package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/timebank/internal/db"
)

type wsEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type hub struct {
	serviceID string
	clients   map[*websocket.Conn]bool
	mu        sync.RWMutex
}

var (
	hubsMu sync.RWMutex
	hubs   = make(map[string]*hub)
)

func getHub(serviceID string) *hub {
	hubsMu.Lock()
	defer hubsMu.Unlock()
	if h, ok := hubs[serviceID]; ok {
		return h
	}
	h := &hub{serviceID: serviceID, clients: make(map[*websocket.Conn]bool)}
	hubs[serviceID] = h
	return h
}

func (h *hub) broadcast(evt wsEvent) {
	payload, _ := json.Marshal(evt)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		_ = c.WriteMessage(websocket.TextMessage, payload)
	}
}

func (h *hub) register(c *websocket.Conn) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
}

func (h *hub) unregister(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// memberForAccount resolves the authenticated account to its member id.
func memberForAccount(c echo.Context) (uint64, bool) {
	accountID, ok := c.Get("account_id").(string)
	if !ok || accountID == "" {
		return 0, false
	}
	var memberID uint64
	err := db.Conn.QueryRow(context.Background(),
		`SELECT id FROM users WHERE owner_identity = $1`, accountID,
	).Scan(&memberID)
	if err != nil {
		return 0, false
	}
	return memberID, true
}

// ServiceWS - websocket for realtime updates on a service thread
func ServiceWS(c echo.Context) error {
	memberID, ok := memberForAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	serviceID := c.Param("id")
	if serviceID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing service id"})
	}

	// Verify participation
	var providerID, receiverID uint64
	err := db.Conn.QueryRow(context.Background(),
		`SELECT provider_id, receiver_id FROM services WHERE id = $1`, serviceID,
	).Scan(&providerID, &receiverID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	}
	if memberID != providerID && memberID != receiverID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a participant in this service"})
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	h := getHub(serviceID)
	h.register(ws)

	h.broadcast(wsEvent{Type: "presence_join", Data: echo.Map{"member_id": memberID}})

	// Read loop; protocol is server push, client messages are discarded
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			h.unregister(ws)
			_ = ws.Close()
			h.broadcast(wsEvent{Type: "presence_leave", Data: echo.Map{"member_id": memberID}})
			break
		}
	}
	return nil
}

// BroadcastNewMessage - publish a new message event to a service hub
func BroadcastNewMessage(serviceID string, message interface{}) {
	getHub(serviceID).broadcast(wsEvent{Type: "message_new", Data: message})
}

// BroadcastMessageRead - publish a message read event
func BroadcastMessageRead(serviceID string, payload interface{}) {
	getHub(serviceID).broadcast(wsEvent{Type: "message_read", Data: payload})
}
