package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/savedfeast/api/internal/apperr"
	"github.com/savedfeast/api/internal/database"
	"github.com/savedfeast/api/internal/enum"
	"github.com/savedfeast/api/internal/gate"
	"github.com/savedfeast/api/internal/pdf"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InvoicesPerPage is the fixed page size of List.
const InvoicesPerPage = 20

// MaxInvoicePage bounds List so the row offset stays within int32.
const MaxInvoicePage = 100000

// ErrInvoicePageTooLarge is returned by List for a page above MaxInvoicePage.
var ErrInvoicePageTooLarge = errors.New("invoice page too large")

// invoiceLockKey serializes generation runs across processes.
const invoiceLockKey int64 = 0x5346_494e_5647 // "SFINVG"

var (
	ErrInvoiceNotFound          = errors.New("invoice not found")
	ErrInvoiceTransition        = errors.New("illegal invoice status transition")
	ErrInvoiceStatusChanged     = errors.New("invoice status changed concurrently")
	ErrInvoicePdfNotGenerated   = errors.New("invoice pdf has not been generated")
	ErrInvoicePdfMissing        = errors.New("invoice pdf file is missing")
	ErrInvoiceAlreadyGenerating = errors.New("orders were invoiced concurrently")
	ErrInvalidInvoiceStatus     = errors.New("invalid invoice status")
)

// SystemActor is the identity scheduled commands act as.
var SystemActor = gate.Actor{Roles: []string{enum.RoleAdmin}}

// invoiceTransitions is the only set of status moves the mark actions allow.
// paid and void are final.
var invoiceTransitions = map[string][]string{
	enum.InvoiceStatusDraft:   {enum.InvoiceStatusSent, enum.InvoiceStatusVoid},
	enum.InvoiceStatusSent:    {enum.InvoiceStatusPaid, enum.InvoiceStatusOverdue, enum.InvoiceStatusVoid},
	enum.InvoiceStatusOverdue: {enum.InvoiceStatusPaid, enum.InvoiceStatusVoid},
}

// CanTransitionInvoice reports whether an invoice may move from -> to.
func CanTransitionInvoice(from, to string) bool {
	for _, next := range invoiceTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InvoiceStore defines the DB methods needed by the invoice service.
// Satisfied by *database.Queries (and its WithTx variant).
type InvoiceStore interface {
	AcquireInvoiceGenerationLock(ctx context.Context, key int64) error
	ListUninvoicedCompletedOrders(ctx context.Context, arg database.ListUninvoicedCompletedOrdersParams) ([]database.ListUninvoicedCompletedOrdersRow, error)
	RestaurantHasOverlappingInvoice(ctx context.Context, arg database.RestaurantHasOverlappingInvoiceParams) (bool, error)
	CreateInvoice(ctx context.Context, arg database.CreateInvoiceParams) (database.RestaurantInvoice, error)
	CreateInvoiceItem(ctx context.Context, arg database.CreateInvoiceItemParams) (database.RestaurantInvoiceItem, error)
	GetInvoice(ctx context.Context, id uuid.UUID) (database.RestaurantInvoice, error)
	ListInvoices(ctx context.Context, arg database.ListInvoicesParams) ([]database.RestaurantInvoice, error)
	CountInvoices(ctx context.Context, arg database.CountInvoicesParams) (int64, error)
	UpdateInvoiceStatus(ctx context.Context, arg database.UpdateInvoiceStatusParams) (database.RestaurantInvoice, error)
	SetInvoicePdfPath(ctx context.Context, arg database.SetInvoicePdfPathParams) error
	ListInvoiceItemDetails(ctx context.Context, invoiceID uuid.UUID) ([]database.ListInvoiceItemDetailsRow, error)
	DeleteInvoiceItems(ctx context.Context, invoiceID uuid.UUID) error
	GetRestaurant(ctx context.Context, id uuid.UUID) (database.Restaurant, error)
}

// NewInvoiceStore creates an InvoiceStore from a DBTX (pool or tx).
type NewInvoiceStore func(db database.DBTX) InvoiceStore

// InvoiceRenderer turns an invoice document into a stored file.
type InvoiceRenderer interface {
	Write(doc pdf.Document) (string, error)
}

// GenerateRequest selects the settlement window.
type GenerateRequest struct {
	Period      string
	PeriodStart *time.Time
}

// GenerateResult lists the invoices created by one run.
type GenerateResult struct {
	Period   Period
	Invoices []database.RestaurantInvoice
	// Skipped restaurants already had an invoice overlapping the window.
	Skipped []uuid.UUID
}

// InvoiceDetail is an invoice with its restaurant and line items.
type InvoiceDetail struct {
	Invoice    database.RestaurantInvoice
	Restaurant database.Restaurant
	Items      []database.ListInvoiceItemDetailsRow
}

// InvoiceFilter narrows List. Zero values mean "any".
type InvoiceFilter struct {
	RestaurantID *uuid.UUID
	Status       string
	DateFrom     *time.Time
	DateTo       *time.Time
	Page         int
}

type InvoicePage struct {
	Invoices []database.RestaurantInvoice
	Page     int
	PerPage  int
	Total    int64
}

// InvoiceService generates and manages restaurant settlement invoices.
type InvoiceService struct {
	pool     TxBeginner
	db       database.DBTX
	newStore NewInvoiceStore
	gates    *gate.Registry
	renderer InvoiceRenderer
	loc      *time.Location
	log      *zap.SugaredLogger
	now      func() time.Time
	statFile func(name string) (fs.FileInfo, error)
}

// NewInvoiceService creates a new InvoiceService. renderer may be nil, in
// which case no PDF is produced.
func NewInvoiceService(pool TxBeginner, db database.DBTX, newStore NewInvoiceStore, gates *gate.Registry, renderer InvoiceRenderer, loc *time.Location, log *zap.SugaredLogger) *InvoiceService {
	if loc == nil {
		loc = time.UTC
	}
	return &InvoiceService{
		pool:     pool,
		db:       db,
		newStore: newStore,
		gates:    gates,
		renderer: renderer,
		loc:      loc,
		log:      log,
		now:      time.Now,
		statFile: os.Stat,
	}
}

type restaurantBatch struct {
	restaurantID uuid.UUID
	rate         decimal.Decimal
	rows         []database.ListUninvoicedCompletedOrdersRow
}

// Generate creates one draft invoice per restaurant with completed,
// uninvoiced orders in the window. Runs hold a transaction-scoped advisory
// lock, and each order can be attached to a single invoice item only.
func (s *InvoiceService) Generate(ctx context.Context, actor gate.Actor, req GenerateRequest) (*GenerateResult, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}

	period, err := ResolvePeriod(req.Period, req.PeriodStart, s.now(), s.loc)
	switch {
	case errors.Is(err, ErrPeriodNotClosed):
		return nil, apperr.Wrap(apperr.KindValidation, "period_start must fall in a week that has already ended", err)
	case err != nil:
		return nil, apperr.Wrap(apperr.KindValidation, fmt.Sprintf("unsupported period %q", req.Period), err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	if err := store.AcquireInvoiceGenerationLock(ctx, invoiceLockKey); err != nil {
		return nil, fmt.Errorf("acquire generation lock: %w", err)
	}

	rows, err := store.ListUninvoicedCompletedOrders(ctx, database.ListUninvoicedCompletedOrdersParams{
		CompletedFrom:   period.Start,
		CompletedBefore: period.before(),
	})
	if err != nil {
		return nil, fmt.Errorf("list completed orders: %w", err)
	}

	result := &GenerateResult{Period: period, Invoices: []database.RestaurantInvoice{}}
	for _, batch := range groupByRestaurant(rows) {
		overlapping, err := store.RestaurantHasOverlappingInvoice(ctx, database.RestaurantHasOverlappingInvoiceParams{
			RestaurantID: batch.restaurantID,
			PeriodStart:  period.Start,
			PeriodEnd:    period.End,
		})
		if err != nil {
			return nil, fmt.Errorf("check overlapping invoice: %w", err)
		}
		if overlapping {
			s.log.Warnw("restaurant already invoiced for an overlapping period",
				"restaurant_id", batch.restaurantID, "period_start", period.Start, "period_end", period.End)
			result.Skipped = append(result.Skipped, batch.restaurantID)
			continue
		}

		inv, err := s.createInvoice(ctx, store, period, batch)
		if err != nil {
			return nil, err
		}
		result.Invoices = append(result.Invoices, inv)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	for i, inv := range result.Invoices {
		result.Invoices[i] = s.attachPdf(ctx, inv)
	}
	return result, nil
}

func groupByRestaurant(rows []database.ListUninvoicedCompletedOrdersRow) []restaurantBatch {
	var batches []restaurantBatch
	index := map[uuid.UUID]int{}
	for _, row := range rows {
		i, ok := index[row.RestaurantID]
		if !ok {
			i = len(batches)
			index[row.RestaurantID] = i
			batches = append(batches, restaurantBatch{
				restaurantID: row.RestaurantID,
				rate:         numericToDecimal(row.CommissionRate),
			})
		}
		batches[i].rows = append(batches[i].rows, row)
	}
	return batches
}

// InvoiceNumber is deterministic per restaurant and period start.
func InvoiceNumber(restaurantID uuid.UUID, periodStart time.Time) string {
	return fmt.Sprintf("SF-%s-%s", periodStart.Format("20060102"), restaurantID.String()[:8])
}

// commission rounds total x rate to cents.
func commission(total, rate decimal.Decimal) decimal.Decimal {
	return total.Mul(rate).Round(2)
}

func (s *InvoiceService) createInvoice(ctx context.Context, store InvoiceStore, period Period, batch restaurantBatch) (database.RestaurantInvoice, error) {
	subtotal := decimal.Zero
	commissionTotal := decimal.Zero
	amounts := make([]decimal.Decimal, len(batch.rows))
	for i, row := range batch.rows {
		total := numericToDecimal(row.TotalAmount)
		amounts[i] = commission(total, numericToDecimal(row.CommissionRate))
		subtotal = subtotal.Add(total)
		commissionTotal = commissionTotal.Add(amounts[i])
	}

	inv, err := store.CreateInvoice(ctx, database.CreateInvoiceParams{
		RestaurantID:    batch.restaurantID,
		InvoiceNumber:   InvoiceNumber(batch.restaurantID, period.Start),
		PeriodStart:     period.Start,
		PeriodEnd:       period.End,
		Status:          enum.InvoiceStatusDraft,
		SubtotalSales:   decimalToNumeric(subtotal),
		CommissionRate:  rateToNumeric(batch.rate),
		CommissionTotal: decimalToNumeric(commissionTotal),
		OrdersCount:     int32(len(batch.rows)),
	})
	if err != nil {
		return database.RestaurantInvoice{}, generationErr("create invoice", err)
	}

	for i, row := range batch.rows {
		if _, err := store.CreateInvoiceItem(ctx, database.CreateInvoiceItemParams{
			InvoiceID:        inv.ID,
			OrderID:          row.ID,
			OrderTotal:       row.TotalAmount,
			CommissionRate:   row.CommissionRate,
			CommissionAmount: decimalToNumeric(amounts[i]),
		}); err != nil {
			return database.RestaurantInvoice{}, generationErr("create invoice item", err)
		}
	}
	return inv, nil
}

// generationErr turns unique violations into a conflict: another run
// invoiced the same orders or period first.
func generationErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperr.Wrap(apperr.KindConflict, ErrInvoiceAlreadyGenerating.Error(), ErrInvoiceAlreadyGenerating)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// attachPdf renders the invoice and records its path. Failures are logged;
// the invoice simply stays without a downloadable file.
func (s *InvoiceService) attachPdf(ctx context.Context, inv database.RestaurantInvoice) database.RestaurantInvoice {
	if s.renderer == nil {
		return inv
	}
	detail, err := s.loadDetail(ctx, s.newStore(s.db), inv)
	if err != nil {
		s.log.Errorw("load invoice for pdf", "invoice_id", inv.ID, "error", err)
		return inv
	}
	path, err := s.renderer.Write(s.document(detail))
	if err != nil {
		s.log.Errorw("render invoice pdf", "invoice_id", inv.ID, "error", err)
		return inv
	}
	pdfPath := pgtype.Text{String: path, Valid: true}
	if err := s.newStore(s.db).SetInvoicePdfPath(ctx, database.SetInvoicePdfPathParams{ID: inv.ID, PdfPath: pdfPath}); err != nil {
		s.log.Errorw("store invoice pdf path", "invoice_id", inv.ID, "error", err)
		return inv
	}
	inv.PdfPath = pdfPath
	return inv
}

func (s *InvoiceService) document(d InvoiceDetail) pdf.Document {
	doc := pdf.Document{
		Number:            d.Invoice.InvoiceNumber,
		RestaurantName:    d.Restaurant.Name,
		RestaurantAddress: d.Restaurant.Address,
		PeriodStart:       d.Invoice.PeriodStart.In(s.loc),
		PeriodEnd:         d.Invoice.PeriodEnd.In(s.loc),
		Status:            d.Invoice.Status,
		Subtotal:          numericToDecimal(d.Invoice.SubtotalSales),
		CommissionRate:    numericToDecimal(d.Invoice.CommissionRate),
		CommissionTotal:   numericToDecimal(d.Invoice.CommissionTotal),
		OrdersCount:       d.Invoice.OrdersCount,
		IssuedAt:          s.now().In(s.loc),
	}
	for _, item := range d.Items {
		doc.Lines = append(doc.Lines, pdf.Line{
			OrderID:     item.OrderID.String(),
			Meal:        item.MealName,
			Quantity:    item.Quantity,
			CompletedAt: item.CompletedAt.Time.In(s.loc),
			Total:       numericToDecimal(item.OrderTotal),
			Commission:  numericToDecimal(item.CommissionAmount),
		})
	}
	return doc
}

func (s *InvoiceService) MarkSent(ctx context.Context, actor gate.Actor, id uuid.UUID) (database.RestaurantInvoice, error) {
	return s.mark(ctx, actor, id, enum.InvoiceStatusSent)
}

func (s *InvoiceService) MarkPaid(ctx context.Context, actor gate.Actor, id uuid.UUID) (database.RestaurantInvoice, error) {
	return s.mark(ctx, actor, id, enum.InvoiceStatusPaid)
}

func (s *InvoiceService) MarkOverdue(ctx context.Context, actor gate.Actor, id uuid.UUID) (database.RestaurantInvoice, error) {
	return s.mark(ctx, actor, id, enum.InvoiceStatusOverdue)
}

// Void cancels an invoice and releases its orders for a later run.
func (s *InvoiceService) Void(ctx context.Context, actor gate.Actor, id uuid.UUID) (database.RestaurantInvoice, error) {
	return s.mark(ctx, actor, id, enum.InvoiceStatusVoid)
}

func (s *InvoiceService) mark(ctx context.Context, actor gate.Actor, id uuid.UUID, to string) (database.RestaurantInvoice, error) {
	if err := s.authorize(actor); err != nil {
		return database.RestaurantInvoice{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.RestaurantInvoice{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	inv, err := store.GetInvoice(ctx, id)
	if err != nil {
		return database.RestaurantInvoice{}, invoiceLookupErr(err)
	}
	if !CanTransitionInvoice(inv.Status, to) {
		return database.RestaurantInvoice{}, apperr.Wrap(apperr.KindConflict,
			fmt.Sprintf("cannot mark a %s invoice as %s", inv.Status, to), ErrInvoiceTransition)
	}

	params := database.UpdateInvoiceStatusParams{ID: inv.ID, ExpectedStatus: inv.Status, Status: to}
	now := pgtype.Timestamptz{Time: s.now(), Valid: true}
	switch to {
	case enum.InvoiceStatusSent:
		params.SentAt = now
	case enum.InvoiceStatusPaid:
		params.PaidAt = now
	}

	updated, err := store.UpdateInvoiceStatus(ctx, params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.RestaurantInvoice{}, apperr.Wrap(apperr.KindConflict, ErrInvoiceStatusChanged.Error(), ErrInvoiceStatusChanged)
		}
		return database.RestaurantInvoice{}, fmt.Errorf("update invoice status: %w", err)
	}

	if to == enum.InvoiceStatusVoid {
		if err := store.DeleteInvoiceItems(ctx, inv.ID); err != nil {
			return database.RestaurantInvoice{}, fmt.Errorf("release invoice items: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return database.RestaurantInvoice{}, fmt.Errorf("commit tx: %w", err)
	}
	return updated, nil
}

// Show loads an invoice with its restaurant and line items.
func (s *InvoiceService) Show(ctx context.Context, id uuid.UUID) (*InvoiceDetail, error) {
	store := s.newStore(s.db)
	inv, err := store.GetInvoice(ctx, id)
	if err != nil {
		return nil, invoiceLookupErr(err)
	}
	detail, err := s.loadDetail(ctx, store, inv)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func (s *InvoiceService) loadDetail(ctx context.Context, store InvoiceStore, inv database.RestaurantInvoice) (InvoiceDetail, error) {
	restaurant, err := store.GetRestaurant(ctx, inv.RestaurantID)
	if err != nil {
		return InvoiceDetail{}, fmt.Errorf("get restaurant: %w", err)
	}
	items, err := store.ListInvoiceItemDetails(ctx, inv.ID)
	if err != nil {
		return InvoiceDetail{}, fmt.Errorf("list invoice items: %w", err)
	}
	return InvoiceDetail{Invoice: inv, Restaurant: restaurant, Items: items}, nil
}

// List returns one page of invoices, newest first.
func (s *InvoiceService) List(ctx context.Context, f InvoiceFilter) (*InvoicePage, error) {
	if f.Status != "" && !isInvoiceStatus(f.Status) {
		return nil, apperr.Wrap(apperr.KindValidation, fmt.Sprintf("invalid status %q", f.Status), ErrInvalidInvoiceStatus)
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	if page > MaxInvoicePage {
		return nil, apperr.Wrap(apperr.KindValidation, fmt.Sprintf("page must not exceed %d", MaxInvoicePage), ErrInvoicePageTooLarge)
	}

	var restaurantID pgtype.UUID
	if f.RestaurantID != nil {
		restaurantID = pgtype.UUID{Bytes: *f.RestaurantID, Valid: true}
	}
	status := pgtype.Text{String: f.Status, Valid: f.Status != ""}
	dateFrom := optionalTimestamp(f.DateFrom)
	dateTo := optionalTimestamp(f.DateTo)

	store := s.newStore(s.db)
	invoices, err := store.ListInvoices(ctx, database.ListInvoicesParams{
		RestaurantID: restaurantID,
		Status:       status,
		DateFrom:     dateFrom,
		DateTo:       dateTo,
		Limit:        InvoicesPerPage,
		Offset:       int32((page - 1) * InvoicesPerPage),
	})
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	total, err := store.CountInvoices(ctx, database.CountInvoicesParams{
		RestaurantID: restaurantID,
		Status:       status,
		DateFrom:     dateFrom,
		DateTo:       dateTo,
	})
	if err != nil {
		return nil, fmt.Errorf("count invoices: %w", err)
	}

	return &InvoicePage{Invoices: invoices, Page: page, PerPage: InvoicesPerPage, Total: total}, nil
}

// DownloadPath returns the stored PDF path. Invoices without a recorded
// path fail before any file system access.
func (s *InvoiceService) DownloadPath(ctx context.Context, id uuid.UUID) (string, error) {
	inv, err := s.newStore(s.db).GetInvoice(ctx, id)
	if err != nil {
		return "", invoiceLookupErr(err)
	}
	if !inv.PdfPath.Valid || inv.PdfPath.String == "" {
		return "", apperr.Wrap(apperr.KindNotFound, ErrInvoicePdfNotGenerated.Error(), ErrInvoicePdfNotGenerated)
	}
	info, err := s.statFile(inv.PdfPath.String)
	if err != nil || info.IsDir() {
		return "", apperr.Wrap(apperr.KindNotFound, ErrInvoicePdfMissing.Error(), ErrInvoicePdfMissing)
	}
	return inv.PdfPath.String, nil
}

func (s *InvoiceService) authorize(actor gate.Actor) error {
	if d := s.gates.Decide(gate.AdminAccess, actor, nil); !d.Allowed {
		return apperr.Wrap(apperr.KindForbidden, "forbidden", errors.New(d.Reason))
	}
	return nil
}

func isInvoiceStatus(s string) bool {
	switch s {
	case enum.InvoiceStatusDraft, enum.InvoiceStatusSent, enum.InvoiceStatusPaid,
		enum.InvoiceStatusOverdue, enum.InvoiceStatusVoid:
		return true
	}
	return false
}

func invoiceLookupErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.Wrap(apperr.KindNotFound, ErrInvoiceNotFound.Error(), ErrInvoiceNotFound)
	}
	return fmt.Errorf("get invoice: %w", err)
}

func optionalTimestamp(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func rateToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(4))
	return n
}
