package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"hashed_password"`
	CreatedAt      time.Time `json:"created_at"`
}

type Restaurant struct {
	ID             uuid.UUID      `json:"id"`
	OwnerID        uuid.UUID      `json:"owner_id"`
	Name           string         `json:"name"`
	Address        string         `json:"address"`
	CommissionRate pgtype.Numeric `json:"commission_rate"`
	Status         string         `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
}

type RestaurantApplication struct {
	ID             uuid.UUID   `json:"id"`
	ApplicantName  string      `json:"applicant_name"`
	Email          string      `json:"email"`
	RestaurantName string      `json:"restaurant_name"`
	Address        string      `json:"address"`
	Phone          string      `json:"phone"`
	Message        pgtype.Text `json:"message"`
	CreatedAt      time.Time   `json:"created_at"`
}

type Meal struct {
	ID              uuid.UUID      `json:"id"`
	RestaurantID    uuid.UUID      `json:"restaurant_id"`
	Name            string         `json:"name"`
	Description     pgtype.Text    `json:"description"`
	OriginalPrice   pgtype.Numeric `json:"original_price"`
	DiscountedPrice pgtype.Numeric `json:"discounted_price"`
	Quantity        int32          `json:"quantity"`
	AvailableFrom   time.Time      `json:"available_from"`
	AvailableUntil  time.Time      `json:"available_until"`
	CreatedAt       time.Time      `json:"created_at"`
}

type Order struct {
	ID                  uuid.UUID          `json:"id"`
	UserID              uuid.UUID          `json:"user_id"`
	RestaurantID        uuid.UUID          `json:"restaurant_id"`
	MealID              uuid.UUID          `json:"meal_id"`
	Quantity            int32              `json:"quantity"`
	TotalAmount         pgtype.Numeric     `json:"total_amount"`
	Status              string             `json:"status"`
	AcceptedAt          pgtype.Timestamptz `json:"accepted_at"`
	ReadyAt             pgtype.Timestamptz `json:"ready_at"`
	CompletedAt         pgtype.Timestamptz `json:"completed_at"`
	CancelledAt         pgtype.Timestamptz `json:"cancelled_at"`
	ExpiredAt           pgtype.Timestamptz `json:"expired_at"`
	CancellationReason  pgtype.Text        `json:"cancellation_reason"`
	CancelledBy         pgtype.Text        `json:"cancelled_by"`
	PickupCodeEncrypted []byte             `json:"pickup_code_encrypted"`
	PickupCodeAttempts  int32              `json:"pickup_code_attempts"`
	PickupCodeSentAt    pgtype.Timestamptz `json:"pickup_code_sent_at"`
	PickupDeadline      time.Time          `json:"pickup_deadline"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

type RestaurantInvoice struct {
	ID              uuid.UUID          `json:"id"`
	RestaurantID    uuid.UUID          `json:"restaurant_id"`
	InvoiceNumber   string             `json:"invoice_number"`
	PeriodStart     time.Time          `json:"period_start"`
	PeriodEnd       time.Time          `json:"period_end"`
	Status          string             `json:"status"`
	SubtotalSales   pgtype.Numeric     `json:"subtotal_sales"`
	CommissionRate  pgtype.Numeric     `json:"commission_rate"`
	CommissionTotal pgtype.Numeric     `json:"commission_total"`
	OrdersCount     int32              `json:"orders_count"`
	PdfPath         pgtype.Text        `json:"pdf_path"`
	SentAt          pgtype.Timestamptz `json:"sent_at"`
	PaidAt          pgtype.Timestamptz `json:"paid_at"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

type RestaurantInvoiceItem struct {
	ID               uuid.UUID      `json:"id"`
	InvoiceID        uuid.UUID      `json:"invoice_id"`
	OrderID          uuid.UUID      `json:"order_id"`
	OrderTotal       pgtype.Numeric `json:"order_total"`
	CommissionRate   pgtype.Numeric `json:"commission_rate"`
	CommissionAmount pgtype.Numeric `json:"commission_amount"`
	CreatedAt        time.Time      `json:"created_at"`
}
