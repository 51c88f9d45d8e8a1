package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/savedfeast/api/internal/database"
	"github.com/savedfeast/api/internal/enum"
)

// ErrIllegalTransition is returned when an order cannot move to the requested status.
var ErrIllegalTransition = errors.New("illegal order status transition")

// transitions lists every permitted move. Cancellation by the restaurant is
// allowed from any non-terminal status and handled in CanTransition.
var transitions = map[string][]string{
	enum.OrderStatusPending:        {enum.OrderStatusAccepted, enum.OrderStatusCancelledByCustomer, enum.OrderStatusExpired},
	enum.OrderStatusAccepted:       {enum.OrderStatusReadyForPickup, enum.OrderStatusCancelledByCustomer},
	enum.OrderStatusReadyForPickup: {enum.OrderStatusCompleted},
}

func IsTerminal(status string) bool {
	switch status {
	case enum.OrderStatusCompleted, enum.OrderStatusCancelledByCustomer,
		enum.OrderStatusCancelledByRestaurant, enum.OrderStatusExpired:
		return true
	}
	return false
}

func isKnownStatus(status string) bool {
	switch status {
	case enum.OrderStatusPending, enum.OrderStatusAccepted, enum.OrderStatusReadyForPickup:
		return true
	}
	return IsTerminal(status)
}

// CanTransition reports whether from -> to is a permitted move.
func CanTransition(from, to string) bool {
	if !isKnownStatus(from) || IsTerminal(from) {
		return false
	}
	if to == enum.OrderStatusCancelledByRestaurant {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func CanCancel(status string) bool {
	return status == enum.OrderStatusPending || status == enum.OrderStatusAccepted
}

func CanAccept(status string) bool    { return status == enum.OrderStatusPending }
func CanMarkReady(status string) bool { return status == enum.OrderStatusAccepted }
func CanComplete(status string) bool  { return status == enum.OrderStatusReadyForPickup }

// CanClaim is the customer-facing name for CanComplete.
func CanClaim(status string) bool { return CanComplete(status) }

func CanShowPickupCode(status string) bool {
	return status == enum.OrderStatusAccepted || status == enum.OrderStatusReadyForPickup
}

// CancelMeta carries the reason and actor for a cancellation or expiry.
type CancelMeta struct {
	Reason string
	By     string
}

// ApplyTransition moves o to status to and stamps the matching timestamp.
// A rejected transition returns an error and leaves o unchanged.
func ApplyTransition(o *database.Order, to string, meta CancelMeta, now time.Time) error {
	if !CanTransition(o.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, o.Status, to)
	}

	ts := pgtype.Timestamptz{Time: now, Valid: true}
	switch to {
	case enum.OrderStatusAccepted:
		o.AcceptedAt = ts
	case enum.OrderStatusReadyForPickup:
		o.ReadyAt = ts
	case enum.OrderStatusCompleted:
		o.CompletedAt = ts
	case enum.OrderStatusCancelledByCustomer:
		o.CancelledAt = ts
		setCancellation(o, meta.Reason, enum.CancelledByCustomer)
	case enum.OrderStatusCancelledByRestaurant:
		o.CancelledAt = ts
		by := meta.By
		if by == "" {
			by = enum.CancelledByRestaurant
		}
		setCancellation(o, meta.Reason, by)
	case enum.OrderStatusExpired:
		o.ExpiredAt = ts
		reason := meta.Reason
		if reason == "" {
			reason = "pickup deadline passed"
		}
		setCancellation(o, reason, enum.CancelledBySystem)
	}
	o.Status = to
	o.UpdatedAt = now
	return nil
}

func setCancellation(o *database.Order, reason, by string) {
	o.CancellationReason = pgtype.Text{String: reason, Valid: reason != ""}
	o.CancelledBy = pgtype.Text{String: by, Valid: true}
}
