package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/savedfeast/api/internal/database"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// roomEvent routes an event to one restaurant's room
type roomEvent struct {
	RestaurantID uuid.UUID
	Event        Event
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Registered clients by restaurant ID
	rooms map[uuid.UUID]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	broadcast chan *roomEvent

	// closed when Run returns
	done chan struct{}

	mu  sync.RWMutex
	log *zap.SugaredLogger
}

func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *roomEvent, 256),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run is the hub's main loop. It returns when ctx is cancelled, closing
// every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.restaurantID] == nil {
				h.rooms[client.restaurantID] = make(map[*Client]bool)
			}
			h.rooms[client.restaurantID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			message, err := json.Marshal(event.Event)
			if err != nil {
				h.log.Errorw("marshal ws event", "type", event.Event.Type, "error", err)
				continue
			}

			h.mu.Lock()
			for client := range h.rooms[event.RestaurantID] {
				select {
				case client.send <- message:
				default:
					// Slow consumer, drop it
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(client *Client) {
	clients, ok := h.rooms[client.restaurantID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.restaurantID)
	}
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, clients := range h.rooms {
		for client := range clients {
			close(client.send)
		}
		delete(h.rooms, id)
	}
}

// BroadcastToRestaurant queues an event for every client watching the
// restaurant. Events are dropped when the queue is full.
func (h *Hub) BroadcastToRestaurant(restaurantID uuid.UUID, event Event) {
	select {
	case h.broadcast <- &roomEvent{RestaurantID: restaurantID, Event: event}:
	default:
		h.log.Warnw("ws broadcast queue full, dropping event",
			"restaurant_id", restaurantID, "type", event.Type)
	}
}

// OrderPayload is the order view sent to restaurant dashboards. It never
// carries the pickup code.
type OrderPayload struct {
	ID                 uuid.UUID  `json:"id"`
	UserID             uuid.UUID  `json:"user_id"`
	RestaurantID       uuid.UUID  `json:"restaurant_id"`
	MealID             uuid.UUID  `json:"meal_id"`
	Quantity           int32      `json:"quantity"`
	TotalAmount        string     `json:"total_amount"`
	Status             string     `json:"status"`
	PickupDeadline     time.Time  `json:"pickup_deadline"`
	CancellationReason *string    `json:"cancellation_reason,omitempty"`
	CancelledBy        *string    `json:"cancelled_by,omitempty"`
	UpdatedAt          time.Time  `json:"updated_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

func NewOrderPayload(o database.Order) OrderPayload {
	p := OrderPayload{
		ID:             o.ID,
		UserID:         o.UserID,
		RestaurantID:   o.RestaurantID,
		MealID:         o.MealID,
		Quantity:       o.Quantity,
		TotalAmount:    numericString(o.TotalAmount),
		Status:         o.Status,
		PickupDeadline: o.PickupDeadline,
		UpdatedAt:      o.UpdatedAt,
	}
	if o.CancellationReason.Valid {
		p.CancellationReason = &o.CancellationReason.String
	}
	if o.CancelledBy.Valid {
		p.CancelledBy = &o.CancelledBy.String
	}
	if o.CompletedAt.Valid {
		p.CompletedAt = &o.CompletedAt.Time
	}
	return p
}

// PublishOrder broadcasts an order change to the order's restaurant room.
func (h *Hub) PublishOrder(eventType string, order database.Order) {
	payload, err := json.Marshal(NewOrderPayload(order))
	if err != nil {
		h.log.Errorw("marshal order payload", "order_id", order.ID, "error", err)
		return
	}
	h.BroadcastToRestaurant(order.RestaurantID, Event{Type: eventType, Payload: payload})
}

func numericString(n pgtype.Numeric) string {
	if !n.Valid || n.Int == nil {
		return "0.00"
	}
	return decimal.NewFromBigInt(n.Int, n.Exp).StringFixed(2)
}
