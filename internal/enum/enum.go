package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	OrderStatusPending               = "PENDING"
	OrderStatusAccepted              = "ACCEPTED"
	OrderStatusReadyForPickup        = "READY_FOR_PICKUP"
	OrderStatusCompleted             = "COMPLETED"
	OrderStatusCancelledByCustomer   = "CANCELLED_BY_CUSTOMER"
	OrderStatusCancelledByRestaurant = "CANCELLED_BY_RESTAURANT"
	OrderStatusExpired               = "EXPIRED"
)

const (
	InvoiceStatusDraft   = "draft"
	InvoiceStatusSent    = "sent"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusOverdue = "overdue"
	InvoiceStatusVoid    = "void"
)

const (
	RestaurantStatusPending  = "pending"
	RestaurantStatusApproved = "approved"
	RestaurantStatusRejected = "rejected"
)

// ── Group B: Memberships (CHECK constrained in DB) ──

const (
	RoleAdmin    = "admin"
	RoleProvider = "provider"
	RoleCustomer = "customer"
)

const (
	CancelledByCustomer   = "customer"
	CancelledByRestaurant = "restaurant"
	CancelledBySystem     = "system"
)

// ── Group C: Configurable labels (no DB constraint) ──

const (
	InvoicePeriodWeekly = "weekly"
	// InvoicePeriodPrevious is what the scheduled command passes; it means
	// the previous calendar week.
	InvoicePeriodPrevious = "previous"
)
