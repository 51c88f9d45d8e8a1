package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/savedfeast/api/internal/apperr"
	"github.com/savedfeast/api/internal/database"
	"github.com/savedfeast/api/internal/enum"
	"github.com/savedfeast/api/internal/gate"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Errors returned by the order service.
var (
	ErrInvalidQuantity    = errors.New("quantity must be > 0")
	ErrMealNotFound       = errors.New("meal not found")
	ErrMealUnavailable    = errors.New("meal is not available right now")
	ErrInsufficientStock  = errors.New("not enough portions left")
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderStatusChanged = errors.New("order status changed concurrently")
)

// Order event types pushed to restaurant rooms.
const (
	EventOrderCreated = "order.created"
	EventOrderUpdated = "order.updated"
)

const autoCancelReason = "restaurant did not respond"

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed by the order service.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetMealForUpdate(ctx context.Context, id uuid.UUID) (database.Meal, error)
	AdjustMealQuantity(ctx context.Context, arg database.AdjustMealQuantityParams) (database.Meal, error)
	GetRestaurant(ctx context.Context, id uuid.UUID) (database.Restaurant, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	UpdateOrderTransition(ctx context.Context, arg database.UpdateOrderTransitionParams) (database.Order, error)
	SetPickupCode(ctx context.Context, arg database.SetPickupCodeParams) error
	IncrementPickupAttempts(ctx context.Context, id uuid.UUID) (int32, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]database.Order, error)
	ListOrdersByRestaurantOwner(ctx context.Context, ownerID uuid.UUID) ([]database.Order, error)
	ListOverduePendingOrders(ctx context.Context, now time.Time) ([]database.Order, error)
	ListStalePendingOrders(ctx context.Context, createdBefore time.Time) ([]database.Order, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// OrderEvents receives every order that was created or changed.
type OrderEvents interface {
	PublishOrder(eventType string, order database.Order)
}

// CreateOrderRequest is the validated input for creating an order.
type CreateOrderRequest struct {
	MealID   uuid.UUID
	Quantity int32
}

// OrderService handles order business logic.
type OrderService struct {
	pool     TxBeginner
	db       database.DBTX
	newStore NewOrderStore
	gates    *gate.Registry
	sealer   *PickupSealer
	events   OrderEvents
	log      *zap.SugaredLogger
	now      func() time.Time
}

// NewOrderService creates a new OrderService. db serves reads outside a
// transaction; events may be nil.
func NewOrderService(pool TxBeginner, db database.DBTX, newStore NewOrderStore, gates *gate.Registry, sealer *PickupSealer, events OrderEvents, log *zap.SugaredLogger) *OrderService {
	return &OrderService{
		pool:     pool,
		db:       db,
		newStore: newStore,
		gates:    gates,
		sealer:   sealer,
		events:   events,
		log:      log,
		now:      time.Now,
	}
}

// Create reserves quantity portions of a meal for the customer.
func (s *OrderService) Create(ctx context.Context, actor gate.Actor, req CreateOrderRequest) (database.Order, error) {
	if err := s.authorize(gate.CustomerAccess, actor, nil); err != nil {
		return database.Order{}, err
	}
	if req.Quantity <= 0 {
		return database.Order{}, apperr.Wrap(apperr.KindValidation, ErrInvalidQuantity.Error(), ErrInvalidQuantity)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	now := s.now()

	meal, err := store.GetMealForUpdate(ctx, req.MealID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, apperr.Wrap(apperr.KindNotFound, ErrMealNotFound.Error(), ErrMealNotFound)
		}
		return database.Order{}, fmt.Errorf("get meal: %w", err)
	}
	if now.Before(meal.AvailableFrom) || !now.Before(meal.AvailableUntil) {
		return database.Order{}, apperr.Wrap(apperr.KindValidation, ErrMealUnavailable.Error(), ErrMealUnavailable)
	}
	if meal.Quantity < req.Quantity {
		return database.Order{}, apperr.Wrap(apperr.KindValidation, ErrInsufficientStock.Error(), ErrInsufficientStock)
	}

	if _, err := store.AdjustMealQuantity(ctx, database.AdjustMealQuantityParams{ID: meal.ID, Delta: -req.Quantity}); err != nil {
		return database.Order{}, fmt.Errorf("reserve stock: %w", err)
	}

	total := numericToDecimal(meal.DiscountedPrice).Mul(decimal.NewFromInt32(req.Quantity))
	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		UserID:         actor.UserID,
		RestaurantID:   meal.RestaurantID,
		MealID:         meal.ID,
		Quantity:       req.Quantity,
		TotalAmount:    decimalToNumeric(total),
		PickupDeadline: meal.AvailableUntil,
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("create order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	s.publish(EventOrderCreated, order)
	return order, nil
}

// Get returns one order to its customer or to an admin.
func (s *OrderService) Get(ctx context.Context, actor gate.Actor, id uuid.UUID) (database.Order, error) {
	order, err := s.newStore(s.db).GetOrder(ctx, id)
	if err != nil {
		return database.Order{}, orderLookupErr(err)
	}
	if actor.HasRole(enum.RoleAdmin) {
		return order, nil
	}
	if err := s.authorize(gate.OwnOrder, actor, gate.Order{UserID: order.UserID}); err != nil {
		return database.Order{}, err
	}
	return order, nil
}

// ListForCustomer returns the caller's orders, newest first.
func (s *OrderService) ListForCustomer(ctx context.Context, actor gate.Actor) ([]database.Order, error) {
	orders, err := s.newStore(s.db).ListOrdersByUser(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// ListForProvider returns orders placed at any restaurant the caller owns.
func (s *OrderService) ListForProvider(ctx context.Context, actor gate.Actor) ([]database.Order, error) {
	if err := s.authorize(gate.ProviderAccess, actor, nil); err != nil {
		return nil, err
	}
	orders, err := s.newStore(s.db).ListOrdersByRestaurantOwner(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list provider orders: %w", err)
	}
	return orders, nil
}

// Accept moves a pending order to ACCEPTED and issues its pickup code.
func (s *OrderService) Accept(ctx context.Context, actor gate.Actor, id uuid.UUID) (database.Order, error) {
	return s.transition(ctx, id, s.restaurantOwner(actor), enum.OrderStatusAccepted, CancelMeta{},
		func(ctx context.Context, store OrderStore, o *database.Order, now time.Time) error {
			code, err := GeneratePickupCode()
			if err != nil {
				return err
			}
			sealed, err := s.sealer.Seal(code)
			if err != nil {
				return fmt.Errorf("seal pickup code: %w", err)
			}
			sentAt := pgtype.Timestamptz{Time: now, Valid: true}
			if err := store.SetPickupCode(ctx, database.SetPickupCodeParams{
				ID:                  o.ID,
				PickupCodeEncrypted: sealed,
				PickupCodeSentAt:    sentAt,
			}); err != nil {
				return fmt.Errorf("store pickup code: %w", err)
			}
			o.PickupCodeEncrypted = sealed
			o.PickupCodeAttempts = 0
			o.PickupCodeSentAt = sentAt
			return nil
		})
}

func (s *OrderService) MarkReady(ctx context.Context, actor gate.Actor, id uuid.UUID) (database.Order, error) {
	return s.transition(ctx, id, s.restaurantOwner(actor), enum.OrderStatusReadyForPickup, CancelMeta{}, nil)
}

// CancelByCustomer cancels the caller's own pending or accepted order.
func (s *OrderService) CancelByCustomer(ctx context.Context, actor gate.Actor, id uuid.UUID, reason string) (database.Order, error) {
	authorize := func(_ context.Context, _ OrderStore, o database.Order) error {
		return s.authorize(gate.OwnOrder, actor, gate.Order{UserID: o.UserID})
	}
	return s.transition(ctx, id, authorize, enum.OrderStatusCancelledByCustomer,
		CancelMeta{Reason: reason, By: enum.CancelledByCustomer}, restoreStock)
}

// CancelByRestaurant cancels any open order at the caller's restaurant and
// returns its portions to the meal.
func (s *OrderService) CancelByRestaurant(ctx context.Context, actor gate.Actor, id uuid.UUID, reason string) (database.Order, error) {
	return s.transition(ctx, id, s.restaurantOwner(actor), enum.OrderStatusCancelledByRestaurant,
		CancelMeta{Reason: reason, By: enum.CancelledByRestaurant}, restoreStock)
}

// Complete redeems the pickup code on a ready order. A malformed code is
// rejected before touching the database. Each wrong code counts as an
// attempt; after MaxPickupAttempts the code is locked.
func (s *OrderService) Complete(ctx context.Context, actor gate.Actor, id uuid.UUID, code string) (database.Order, error) {
	if !ValidPickupCodeFormat(code) {
		return database.Order{}, apperr.Wrap(apperr.KindValidation, ErrPickupCodeMalformed.Error(), ErrPickupCodeMalformed)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	order, err := store.GetOrderForUpdate(ctx, id)
	if err != nil {
		return database.Order{}, orderLookupErr(err)
	}
	if err := s.restaurantOwner(actor)(ctx, store, order); err != nil {
		return database.Order{}, err
	}
	if !CanComplete(order.Status) {
		return database.Order{}, illegalTransition(order.Status, enum.OrderStatusCompleted)
	}
	if order.PickupCodeAttempts >= MaxPickupAttempts {
		return database.Order{}, apperr.Wrap(apperr.KindValidation, ErrPickupCodeLocked.Error(), ErrPickupCodeLocked)
	}
	if len(order.PickupCodeEncrypted) == 0 {
		return database.Order{}, apperr.Wrap(apperr.KindValidation, ErrPickupCodeMissing.Error(), ErrPickupCodeMissing)
	}

	expected, err := s.sealer.Open(order.PickupCodeEncrypted)
	if err != nil {
		return database.Order{}, fmt.Errorf("open pickup code: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(expected), []byte(code)) != 1 {
		attempts, err := store.IncrementPickupAttempts(ctx, order.ID)
		if err != nil {
			return database.Order{}, fmt.Errorf("count pickup attempt: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return database.Order{}, fmt.Errorf("commit tx: %w", err)
		}
		if attempts >= MaxPickupAttempts {
			return database.Order{}, apperr.Wrap(apperr.KindValidation, ErrPickupCodeLocked.Error(), ErrPickupCodeLocked)
		}
		return database.Order{}, apperr.Wrap(apperr.KindValidation,
			fmt.Sprintf("%s (%d attempts left)", ErrPickupCodeMismatch, MaxPickupAttempts-attempts), ErrPickupCodeMismatch)
	}

	updated, err := s.apply(ctx, store, order, enum.OrderStatusCompleted, CancelMeta{}, s.now())
	if err != nil {
		return database.Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	s.publish(EventOrderUpdated, updated)
	return updated, nil
}

// PickupCode reveals the code to the order's customer once the order is
// accepted and until it is collected.
func (s *OrderService) PickupCode(ctx context.Context, actor gate.Actor, id uuid.UUID) (string, error) {
	order, err := s.newStore(s.db).GetOrder(ctx, id)
	if err != nil {
		return "", orderLookupErr(err)
	}
	if err := s.authorize(gate.OwnOrder, actor, gate.Order{UserID: order.UserID}); err != nil {
		return "", err
	}
	if !CanShowPickupCode(order.Status) {
		return "", apperr.Conflict("pickup code is not available for an order in status " + order.Status)
	}
	if len(order.PickupCodeEncrypted) == 0 {
		return "", apperr.Wrap(apperr.KindNotFound, ErrPickupCodeMissing.Error(), ErrPickupCodeMissing)
	}
	code, err := s.sealer.Open(order.PickupCodeEncrypted)
	if err != nil {
		return "", fmt.Errorf("open pickup code: %w", err)
	}
	return code, nil
}

// ExpireOverdue moves every pending order past its pickup deadline to
// EXPIRED. It returns how many orders were expired.
func (s *OrderService) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	orders, err := s.newStore(s.db).ListOverduePendingOrders(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list overdue orders: %w", err)
	}
	return s.sweep(ctx, orders, enum.OrderStatusExpired, CancelMeta{By: enum.CancelledBySystem}, now), nil
}

// AutoCancelPending cancels pending orders the restaurant has not answered
// within after.
func (s *OrderService) AutoCancelPending(ctx context.Context, now time.Time, after time.Duration) (int, error) {
	orders, err := s.newStore(s.db).ListStalePendingOrders(ctx, now.Add(-after))
	if err != nil {
		return 0, fmt.Errorf("list stale orders: %w", err)
	}
	meta := CancelMeta{Reason: autoCancelReason, By: enum.CancelledBySystem}
	return s.sweep(ctx, orders, enum.OrderStatusCancelledByRestaurant, meta, now), nil
}

// sweep applies one system transition per order, each in its own
// transaction. Orders that changed in the meantime are skipped.
func (s *OrderService) sweep(ctx context.Context, orders []database.Order, to string, meta CancelMeta, now time.Time) int {
	done := 0
	for _, o := range orders {
		if ctx.Err() != nil {
			break
		}
		_, err := s.transitionAt(ctx, o.ID, nil, to, meta, restoreStock, now)
		if err != nil {
			s.log.Warnw("order sweep skipped order", "order_id", o.ID, "to", to, "error", err)
			continue
		}
		done++
	}
	return done
}

type authorizeFunc func(ctx context.Context, store OrderStore, o database.Order) error

type afterFunc func(ctx context.Context, store OrderStore, o *database.Order, now time.Time) error

func (s *OrderService) transition(ctx context.Context, id uuid.UUID, authorize authorizeFunc, to string, meta CancelMeta, after afterFunc) (database.Order, error) {
	return s.transitionAt(ctx, id, authorize, to, meta, after, s.now())
}

func (s *OrderService) transitionAt(ctx context.Context, id uuid.UUID, authorize authorizeFunc, to string, meta CancelMeta, after afterFunc, now time.Time) (database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	order, err := store.GetOrderForUpdate(ctx, id)
	if err != nil {
		return database.Order{}, orderLookupErr(err)
	}
	if authorize != nil {
		if err := authorize(ctx, store, order); err != nil {
			return database.Order{}, err
		}
	}

	updated, err := s.apply(ctx, store, order, to, meta, now)
	if err != nil {
		return database.Order{}, err
	}
	if after != nil {
		if err := after(ctx, store, &updated, now); err != nil {
			return database.Order{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	s.publish(EventOrderUpdated, updated)
	return updated, nil
}

// apply runs ApplyTransition on a copy and persists it with a
// compare-and-set on the previous status.
func (s *OrderService) apply(ctx context.Context, store OrderStore, order database.Order, to string, meta CancelMeta, now time.Time) (database.Order, error) {
	next := order
	if err := ApplyTransition(&next, to, meta, now); err != nil {
		return database.Order{}, illegalTransition(order.Status, to)
	}

	updated, err := store.UpdateOrderTransition(ctx, database.UpdateOrderTransitionParams{
		ID:                 next.ID,
		ExpectedStatus:     order.Status,
		Status:             next.Status,
		AcceptedAt:         next.AcceptedAt,
		ReadyAt:            next.ReadyAt,
		CompletedAt:        next.CompletedAt,
		CancelledAt:        next.CancelledAt,
		ExpiredAt:          next.ExpiredAt,
		CancellationReason: next.CancellationReason,
		CancelledBy:        next.CancelledBy,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, apperr.Wrap(apperr.KindConflict, ErrOrderStatusChanged.Error(), ErrOrderStatusChanged)
		}
		return database.Order{}, fmt.Errorf("update order: %w", err)
	}
	return updated, nil
}

// restaurantOwner authorizes callers that own the order's restaurant.
func (s *OrderService) restaurantOwner(actor gate.Actor) authorizeFunc {
	return func(ctx context.Context, store OrderStore, o database.Order) error {
		restaurant, err := store.GetRestaurant(ctx, o.RestaurantID)
		if err != nil {
			return fmt.Errorf("get restaurant: %w", err)
		}
		return s.authorize(gate.OwnRestaurant, actor, gate.Restaurant{OwnerID: restaurant.OwnerID})
	}
}

func (s *OrderService) authorize(name gate.Name, actor gate.Actor, resource any) error {
	if d := s.gates.Decide(name, actor, resource); !d.Allowed {
		return apperr.Wrap(apperr.KindForbidden, "forbidden", errors.New(d.Reason))
	}
	return nil
}

func (s *OrderService) publish(eventType string, order database.Order) {
	if s.events != nil {
		s.events.PublishOrder(eventType, order)
	}
}

func restoreStock(ctx context.Context, store OrderStore, o *database.Order, _ time.Time) error {
	if _, err := store.AdjustMealQuantity(ctx, database.AdjustMealQuantityParams{ID: o.MealID, Delta: o.Quantity}); err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}
	return nil
}

func orderLookupErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.Wrap(apperr.KindNotFound, ErrOrderNotFound.Error(), ErrOrderNotFound)
	}
	return fmt.Errorf("get order: %w", err)
}

func illegalTransition(from, to string) error {
	return apperr.Wrap(apperr.KindConflict,
		fmt.Sprintf("cannot move order from %s to %s", from, to),
		ErrIllegalTransition)
}

// --- Helpers ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
