package service_test

import (
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/savedfeast/api/internal/database"
	"github.com/savedfeast/api/internal/enum"
	"github.com/savedfeast/api/internal/service"
)

var allStatuses = []string{
	enum.OrderStatusPending,
	enum.OrderStatusAccepted,
	enum.OrderStatusReadyForPickup,
	enum.OrderStatusCompleted,
	enum.OrderStatusCancelledByCustomer,
	enum.OrderStatusCancelledByRestaurant,
	enum.OrderStatusExpired,
}

var terminalStatuses = []string{
	enum.OrderStatusCompleted,
	enum.OrderStatusCancelledByCustomer,
	enum.OrderStatusCancelledByRestaurant,
	enum.OrderStatusExpired,
}

var _ = Describe("Order lifecycle", func() {
	now := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)

	newOrder := func(status string) *database.Order {
		return &database.Order{ID: uuid.New(), Status: status}
	}

	Context("predicates", func() {
		It("derive everything from the status alone", func() {
			for _, s := range allStatuses {
				Expect(service.CanCancel(s)).To(Equal(s == enum.OrderStatusPending || s == enum.OrderStatusAccepted), s)
				Expect(service.CanAccept(s)).To(Equal(s == enum.OrderStatusPending), s)
				Expect(service.CanMarkReady(s)).To(Equal(s == enum.OrderStatusAccepted), s)
				Expect(service.CanComplete(s)).To(Equal(s == enum.OrderStatusReadyForPickup), s)
				Expect(service.CanClaim(s)).To(Equal(s == enum.OrderStatusReadyForPickup), s)
				Expect(service.CanShowPickupCode(s)).To(Equal(s == enum.OrderStatusAccepted || s == enum.OrderStatusReadyForPickup), s)
			}
		})

		It("marks exactly four statuses terminal", func() {
			for _, s := range allStatuses {
				Expect(service.IsTerminal(s)).To(Equal(s != enum.OrderStatusPending &&
					s != enum.OrderStatusAccepted && s != enum.OrderStatusReadyForPickup), s)
			}
		})

		It("rejects unknown statuses", func() {
			Expect(service.CanTransition("SHIPPED", enum.OrderStatusCancelledByRestaurant)).To(BeFalse())
		})
	})

	Context("terminal orders", func() {
		It("reject every transition and keep their timestamps", func() {
			for _, from := range terminalStatuses {
				for _, to := range allStatuses {
					o := newOrder(from)
					before := *o
					err := service.ApplyTransition(o, to, service.CancelMeta{Reason: "x"}, now)
					Expect(err).To(MatchError(service.ErrIllegalTransition))
					Expect(*o).To(Equal(before))
				}
			}
		})
	})

	Context("happy path", func() {
		It("stamps each step", func() {
			o := newOrder(enum.OrderStatusPending)

			Expect(service.ApplyTransition(o, enum.OrderStatusAccepted, service.CancelMeta{}, now)).To(Succeed())
			Expect(o.AcceptedAt.Valid).To(BeTrue())
			Expect(o.AcceptedAt.Time).To(Equal(now))

			later := now.Add(10 * time.Minute)
			Expect(service.ApplyTransition(o, enum.OrderStatusReadyForPickup, service.CancelMeta{}, later)).To(Succeed())
			Expect(o.ReadyAt.Time).To(Equal(later))

			Expect(service.ApplyTransition(o, enum.OrderStatusCompleted, service.CancelMeta{}, later)).To(Succeed())
			Expect(o.Status).To(Equal(enum.OrderStatusCompleted))
			Expect(o.CompletedAt.Valid).To(BeTrue())
			Expect(o.CancelledAt.Valid).To(BeFalse())
		})

		It("cannot skip a step", func() {
			o := newOrder(enum.OrderStatusPending)
			Expect(service.ApplyTransition(o, enum.OrderStatusCompleted, service.CancelMeta{}, now)).NotTo(Succeed())
			Expect(o.Status).To(Equal(enum.OrderStatusPending))
			Expect(o.CompletedAt.Valid).To(BeFalse())
		})
	})

	Context("cancellations", func() {
		It("records customer cancellation metadata", func() {
			o := newOrder(enum.OrderStatusAccepted)
			Expect(service.ApplyTransition(o, enum.OrderStatusCancelledByCustomer,
				service.CancelMeta{Reason: "changed my mind", By: enum.CancelledByRestaurant}, now)).To(Succeed())

			Expect(o.CancelledAt.Time).To(Equal(now))
			Expect(o.CancellationReason.String).To(Equal("changed my mind"))
			Expect(o.CancelledBy.String).To(Equal(enum.CancelledByCustomer))
		})

		It("does not let a customer cancel a ready order", func() {
			o := newOrder(enum.OrderStatusReadyForPickup)
			Expect(service.ApplyTransition(o, enum.OrderStatusCancelledByCustomer, service.CancelMeta{}, now)).NotTo(Succeed())
		})

		It("lets the restaurant cancel from any open status", func() {
			for _, from := range []string{enum.OrderStatusPending, enum.OrderStatusAccepted, enum.OrderStatusReadyForPickup} {
				o := newOrder(from)
				Expect(service.ApplyTransition(o, enum.OrderStatusCancelledByRestaurant,
					service.CancelMeta{Reason: "sold out"}, now)).To(Succeed(), from)
				Expect(o.CancelledBy.String).To(Equal(enum.CancelledByRestaurant))
			}
		})

		It("keeps a system actor on restaurant cancellation", func() {
			o := newOrder(enum.OrderStatusPending)
			Expect(service.ApplyTransition(o, enum.OrderStatusCancelledByRestaurant,
				service.CancelMeta{Reason: "restaurant did not respond", By: enum.CancelledBySystem}, now)).To(Succeed())
			Expect(o.CancelledBy.String).To(Equal(enum.CancelledBySystem))
		})
	})

	Context("expiry", func() {
		It("only applies to pending orders and is attributed to the system", func() {
			o := newOrder(enum.OrderStatusPending)
			Expect(service.ApplyTransition(o, enum.OrderStatusExpired, service.CancelMeta{}, now)).To(Succeed())
			Expect(o.ExpiredAt.Time).To(Equal(now))
			Expect(o.CancelledBy.String).To(Equal(enum.CancelledBySystem))
			Expect(o.CancelledAt.Valid).To(BeFalse())

			accepted := newOrder(enum.OrderStatusAccepted)
			Expect(service.ApplyTransition(accepted, enum.OrderStatusExpired, service.CancelMeta{}, now)).NotTo(Succeed())
		})
	})
})
