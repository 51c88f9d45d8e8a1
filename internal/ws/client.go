package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5"
	"github.com/savedfeast/api/internal/auth"
	"github.com/savedfeast/api/internal/database"
	"github.com/savedfeast/api/internal/gate"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // access is checked through the token
	},
}

// Client represents a single WebSocket connection
type Client struct {
	hub          *Hub
	conn         *websocket.Conn
	restaurantID uuid.UUID
	send         chan []byte
}

// ReadPump only watches for disconnects; dashboards never send messages.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warnw("websocket read error", "restaurant_id", c.restaurantID, "error", err)
			}
			break
		}
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Batch whatever else is queued into the same frame
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// RestaurantLookup loads the restaurant a client wants to watch.
type RestaurantLookup interface {
	GetRestaurant(ctx context.Context, id uuid.UUID) (database.Restaurant, error)
}

// Handler upgrades dashboard connections.
// Endpoint: WS /ws/restaurants/{rid}/orders?token=JWT
type Handler struct {
	hub         *Hub
	jwtSecret   string
	restaurants RestaurantLookup
	gates       *gate.Registry
}

func NewHandler(hub *Hub, jwtSecret string, restaurants RestaurantLookup, gates *gate.Registry) *Handler {
	return &Handler{hub: hub, jwtSecret: jwtSecret, restaurants: restaurants, gates: gates}
}

// authorize returns the restaurant room the caller may join, or an HTTP
// status and message explaining the refusal.
func (h *Handler) authorize(r *http.Request) (uuid.UUID, int, string) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		return uuid.Nil, http.StatusUnauthorized, "missing token"
	}
	claims, err := auth.ValidateToken(h.jwtSecret, tokenStr)
	if err != nil {
		return uuid.Nil, http.StatusUnauthorized, "invalid token"
	}

	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		return uuid.Nil, http.StatusBadRequest, "invalid restaurant id"
	}

	restaurant, err := h.restaurants.GetRestaurant(r.Context(), restaurantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, http.StatusNotFound, "restaurant not found"
		}
		h.hub.log.Errorw("ws restaurant lookup", "restaurant_id", restaurantID, "error", err)
		return uuid.Nil, http.StatusInternalServerError, "internal error"
	}

	actor := gate.Actor{UserID: claims.UserID, Roles: claims.Roles}
	if !h.gates.Allows(gate.AdminAccess, actor, nil) &&
		!h.gates.Allows(gate.OwnRestaurant, actor, gate.Restaurant{OwnerID: restaurant.OwnerID}) {
		return uuid.Nil, http.StatusForbidden, "restaurant access denied"
	}
	return restaurantID, 0, ""
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	restaurantID, status, msg := h.authorize(r)
	if status != 0 {
		http.Error(w, msg, status)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.log.Warnw("websocket upgrade", "error", err)
		return
	}

	client := &Client{
		hub:          h.hub,
		conn:         conn,
		restaurantID: restaurantID,
		send:         make(chan []byte, 256),
	}
	if !client.hub.join(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
