package service

import (
	"context"
	"errors"
	"io/fs"
	"sort"
	"testing"
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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeInvoiceStore keeps invoices, items and completed orders in memory and
// answers queries the way the SQL does.
type fakeInvoiceStore struct {
	restaurants map[uuid.UUID]database.Restaurant
	orders      []database.Order
	invoices    map[uuid.UUID]database.RestaurantInvoice
	items       map[uuid.UUID]database.RestaurantInvoiceItem // by order id
	locks       int
	pdfPaths    map[uuid.UUID]string

	createItemErr error
	listParams    database.ListInvoicesParams
}

func newFakeInvoiceStore() *fakeInvoiceStore {
	return &fakeInvoiceStore{
		restaurants: map[uuid.UUID]database.Restaurant{},
		invoices:    map[uuid.UUID]database.RestaurantInvoice{},
		items:       map[uuid.UUID]database.RestaurantInvoiceItem{},
		pdfPaths:    map[uuid.UUID]string{},
	}
}

func (f *fakeInvoiceStore) addRestaurant(rate string) database.Restaurant {
	r := database.Restaurant{ID: uuid.New(), OwnerID: uuid.New(), Name: "Restaurant", CommissionRate: makeNumeric(rate)}
	f.restaurants[r.ID] = r
	return r
}

func (f *fakeInvoiceStore) addCompleted(r database.Restaurant, total string, at time.Time) database.Order {
	o := database.Order{
		ID:           uuid.New(),
		RestaurantID: r.ID,
		MealID:       uuid.New(),
		Quantity:     1,
		TotalAmount:  makeNumeric(total),
		Status:       enum.OrderStatusCompleted,
		CompletedAt:  ts(at),
	}
	f.orders = append(f.orders, o)
	return o
}

func (f *fakeInvoiceStore) AcquireInvoiceGenerationLock(ctx context.Context, key int64) error {
	f.locks++
	return nil
}

func (f *fakeInvoiceStore) ListUninvoicedCompletedOrders(ctx context.Context, arg database.ListUninvoicedCompletedOrdersParams) ([]database.ListUninvoicedCompletedOrdersRow, error) {
	var rows []database.ListUninvoicedCompletedOrdersRow
	for _, o := range f.orders {
		if o.Status != enum.OrderStatusCompleted || o.CompletedAt.Time.Before(arg.CompletedFrom) || !o.CompletedAt.Time.Before(arg.CompletedBefore) {
			continue
		}
		if _, invoiced := f.items[o.ID]; invoiced {
			continue
		}
		rows = append(rows, database.ListUninvoicedCompletedOrdersRow{
			ID:             o.ID,
			RestaurantID:   o.RestaurantID,
			TotalAmount:    o.TotalAmount,
			CompletedAt:    o.CompletedAt,
			CommissionRate: f.restaurants[o.RestaurantID].CommissionRate,
		})
	}
	return rows, nil
}

func (f *fakeInvoiceStore) RestaurantHasOverlappingInvoice(ctx context.Context, arg database.RestaurantHasOverlappingInvoiceParams) (bool, error) {
	for _, inv := range f.invoices {
		if inv.RestaurantID == arg.RestaurantID && inv.Status != enum.InvoiceStatusVoid &&
			!inv.PeriodStart.After(arg.PeriodEnd) && !inv.PeriodEnd.Before(arg.PeriodStart) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeInvoiceStore) CreateInvoice(ctx context.Context, arg database.CreateInvoiceParams) (database.RestaurantInvoice, error) {
	inv := database.RestaurantInvoice{
		ID:              uuid.New(),
		RestaurantID:    arg.RestaurantID,
		InvoiceNumber:   arg.InvoiceNumber,
		PeriodStart:     arg.PeriodStart,
		PeriodEnd:       arg.PeriodEnd,
		Status:          arg.Status,
		SubtotalSales:   arg.SubtotalSales,
		CommissionRate:  arg.CommissionRate,
		CommissionTotal: arg.CommissionTotal,
		OrdersCount:     arg.OrdersCount,
		CreatedAt:       testNow,
	}
	f.invoices[inv.ID] = inv
	return inv, nil
}

func (f *fakeInvoiceStore) CreateInvoiceItem(ctx context.Context, arg database.CreateInvoiceItemParams) (database.RestaurantInvoiceItem, error) {
	if f.createItemErr != nil {
		return database.RestaurantInvoiceItem{}, f.createItemErr
	}
	if _, dup := f.items[arg.OrderID]; dup {
		return database.RestaurantInvoiceItem{}, &pgconn.PgError{Code: "23505", ConstraintName: "restaurant_invoice_items_order_id_key"}
	}
	item := database.RestaurantInvoiceItem{
		ID:               uuid.New(),
		InvoiceID:        arg.InvoiceID,
		OrderID:          arg.OrderID,
		OrderTotal:       arg.OrderTotal,
		CommissionRate:   arg.CommissionRate,
		CommissionAmount: arg.CommissionAmount,
	}
	f.items[arg.OrderID] = item
	return item, nil
}

func (f *fakeInvoiceStore) GetInvoice(ctx context.Context, id uuid.UUID) (database.RestaurantInvoice, error) {
	inv, ok := f.invoices[id]
	if !ok {
		return database.RestaurantInvoice{}, pgx.ErrNoRows
	}
	return inv, nil
}

func (f *fakeInvoiceStore) ListInvoices(ctx context.Context, arg database.ListInvoicesParams) ([]database.RestaurantInvoice, error) {
	f.listParams = arg
	var out []database.RestaurantInvoice
	for _, inv := range f.invoices {
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeInvoiceStore) CountInvoices(ctx context.Context, arg database.CountInvoicesParams) (int64, error) {
	return int64(len(f.invoices)), nil
}

func (f *fakeInvoiceStore) UpdateInvoiceStatus(ctx context.Context, arg database.UpdateInvoiceStatusParams) (database.RestaurantInvoice, error) {
	inv, ok := f.invoices[arg.ID]
	if !ok || inv.Status != arg.ExpectedStatus {
		return database.RestaurantInvoice{}, pgx.ErrNoRows
	}
	inv.Status = arg.Status
	if arg.SentAt.Valid {
		inv.SentAt = arg.SentAt
	}
	if arg.PaidAt.Valid {
		inv.PaidAt = arg.PaidAt
	}
	f.invoices[inv.ID] = inv
	return inv, nil
}

func (f *fakeInvoiceStore) SetInvoicePdfPath(ctx context.Context, arg database.SetInvoicePdfPathParams) error {
	inv := f.invoices[arg.ID]
	inv.PdfPath = arg.PdfPath
	f.invoices[arg.ID] = inv
	f.pdfPaths[arg.ID] = arg.PdfPath.String
	return nil
}

func (f *fakeInvoiceStore) ListInvoiceItemDetails(ctx context.Context, invoiceID uuid.UUID) ([]database.ListInvoiceItemDetailsRow, error) {
	var rows []database.ListInvoiceItemDetailsRow
	for _, item := range f.items {
		if item.InvoiceID != invoiceID {
			continue
		}
		rows = append(rows, database.ListInvoiceItemDetailsRow{
			ID:               item.ID,
			OrderID:          item.OrderID,
			OrderTotal:       item.OrderTotal,
			CommissionRate:   item.CommissionRate,
			CommissionAmount: item.CommissionAmount,
			Quantity:         1,
			MealName:         "Meal",
		})
	}
	return rows, nil
}

func (f *fakeInvoiceStore) DeleteInvoiceItems(ctx context.Context, invoiceID uuid.UUID) error {
	for orderID, item := range f.items {
		if item.InvoiceID == invoiceID {
			delete(f.items, orderID)
		}
	}
	return nil
}

func (f *fakeInvoiceStore) GetRestaurant(ctx context.Context, id uuid.UUID) (database.Restaurant, error) {
	r, ok := f.restaurants[id]
	if !ok {
		return database.Restaurant{}, pgx.ErrNoRows
	}
	return r, nil
}

type fakeRenderer struct {
	docs []pdf.Document
	err  error
}

func (r *fakeRenderer) Write(doc pdf.Document) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.docs = append(r.docs, doc)
	return "/storage/invoices/" + doc.Number + ".pdf", nil
}

var adminActor = gate.Actor{UserID: uuid.New(), Roles: []string{enum.RoleAdmin}}

// Monday 2024-01-08 00:05, so the previous week is 2024-01-01..07.
var invoiceNow = time.Date(2024, 1, 8, 0, 5, 0, 0, time.UTC)

func newInvoiceTestService(store *fakeInvoiceStore, renderer InvoiceRenderer) (*InvoiceService, *mockTx, *mockTxBeginner) {
	tx := &mockTx{}
	pool := &mockTxBeginner{tx: tx}
	newStore := func(db database.DBTX) InvoiceStore { return store }
	svc := NewInvoiceService(pool, nil, newStore, gate.Default(), renderer, time.UTC, zap.NewNop().Sugar())
	svc.now = func() time.Time { return invoiceNow }
	return svc, tx, pool
}

func decimalOf(t *testing.T, n pgtype.Numeric) decimal.Decimal {
	t.Helper()
	return numericToDecimal(n)
}

// =====================
// Generate
// =====================

func TestGenerate_WeeklyExample(t *testing.T) {
	store := newFakeInvoiceStore()
	withOrders := store.addRestaurant("0.1000")
	store.addRestaurant("0.1000") // no orders
	store.addCompleted(withOrders, "40.00", time.Date(2024, 1, 2, 18, 0, 0, 0, time.UTC))
	store.addCompleted(withOrders, "60.00", time.Date(2024, 1, 7, 23, 59, 59, 0, time.UTC))

	svc, tx, _ := newInvoiceTestService(store, nil)
	res, err := svc.Generate(context.Background(), adminActor, GenerateRequest{Period: "weekly"})
	require.NoError(t, err)

	require.Len(t, res.Invoices, 1)
	inv := res.Invoices[0]
	assert.Equal(t, withOrders.ID, inv.RestaurantID)
	assert.Equal(t, enum.InvoiceStatusDraft, inv.Status)
	assert.True(t, decimalOf(t, inv.SubtotalSales).Equal(decimal.RequireFromString("100.00")))
	assert.True(t, decimalOf(t, inv.CommissionTotal).Equal(decimal.RequireFromString("10.00")))
	assert.Equal(t, int32(2), inv.OrdersCount)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), inv.PeriodStart)
	assert.Equal(t, time.Date(2024, 1, 7, 23, 59, 59, 0, time.UTC), inv.PeriodEnd)
	assert.Equal(t, InvoiceNumber(withOrders.ID, inv.PeriodStart), inv.InvoiceNumber)
	assert.Equal(t, 1, store.locks)
	assert.Equal(t, 1, tx.commits)
	assert.Len(t, store.items, 2)
}

func TestGenerate_ExcludesOrdersOutsideWindow(t *testing.T) {
	store := newFakeInvoiceStore()
	r := store.addRestaurant("0.1000")
	store.addCompleted(r, "10.00", time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC))
	store.addCompleted(r, "10.00", time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC))

	svc, _, _ := newInvoiceTestService(store, nil)
	res, err := svc.Generate(context.Background(), adminActor, GenerateRequest{Period: "previous"})
	require.NoError(t, err)
	assert.Empty(t, res.Invoices)
	assert.Empty(t, store.invoices)
}

func TestGenerate_RerunCreatesNothing(t *testing.T) {
	store := newFakeInvoiceStore()
	r := store.addRestaurant("0.1000")
	store.addCompleted(r, "25.00", time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC))

	svc, _, _ := newInvoiceTestService(store, nil)
	first, err := svc.Generate(context.Background(), adminActor, GenerateRequest{Period: "weekly"})
	require.NoError(t, err)
	require.Len(t, first.Invoices, 1)

	second, err := svc.Generate(context.Background(), adminActor, GenerateRequest{Period: "weekly"})
	require.NoError(t, err)
	assert.Empty(t, second.Invoices)
	assert.Len(t, store.invoices, 1)
}

func TestGenerate_SkipsRestaurantWithOverlappingInvoice(t *testing.T) {
	store := newFakeInvoiceStore()
	r := store.addRestaurant("0.1000")
	store.addCompleted(r, "25.00", time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC))
	existing := database.RestaurantInvoice{
		ID:           uuid.New(),
		RestaurantID: r.ID,
		PeriodStart:  time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		PeriodEnd:    time.Date(2024, 1, 11, 23, 59, 59, 0, time.UTC),
		Status:       enum.InvoiceStatusSent,
	}
	store.invoices[existing.ID] = existing

	svc, _, _ := newInvoiceTestService(store, nil)
	res, err := svc.Generate(context.Background(), adminActor, GenerateRequest{Period: "weekly"})
	require.NoError(t, err)
	assert.Empty(t, res.Invoices)
	assert.Equal(t, []uuid.UUID{r.ID}, res.Skipped)
}

func TestGenerate_RoundsCommissionPerItem(t *testing.T) {
	store := newFakeInvoiceStore()
	r := store.addRestaurant("0.1500")
	for i := 0; i < 3; i++ {
		store.addCompleted(r, "33.33", time.Date(2024, 1, 2, 10+i, 0, 0, 0, time.UTC))
	}

	svc, _, _ := newInvoiceTestService(store, nil)
	res, err := svc.Generate(context.Background(), adminActor, GenerateRequest{Period: "weekly"})
	require.NoError(t, err)
	require.Len(t, res.Invoices, 1)

	// 33.33 * 0.15 = 4.9995 -> 5.00 on each line.
	assert.True(t, decimalOf(t, res.Invoices[0].SubtotalSales).Equal(decimal.RequireFromString("99.99")))
	assert.True(t, decimalOf(t, res.Invoices[0].CommissionTotal).Equal(decimal.RequireFromString("15.00")))
	for _, item := range store.items {
		assert.True(t, decimalOf(t, item.CommissionAmount).Equal(decimal.RequireFromString("5.00")))
	}
}

func TestGenerate_UnsupportedPeriod(t *testing.T) {
	store := newFakeInvoiceStore()
	r := store.addRestaurant("0.1000")
	store.addCompleted(r, "25.00", time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC))

	svc, _, pool := newInvoiceTestService(store, nil)
	_, err := svc.Generate(context.Background(), adminActor, GenerateRequest{Period: "monthly"})

	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.ErrorIs(t, err, ErrUnsupportedPeriod)
	assert.Equal(t, 0, pool.begins)
	assert.Empty(t, store.invoices)
	assert.Empty(t, store.items)
}

func TestGenerate_OpenWeekRejectedSoLateOrdersStillInvoiced(t *testing.T) {
	store := newFakeInvoiceStore()
	r := store.addRestaurant("0.1000")
	store.addCompleted(r, "20.00", time.Date(2024, 1, 9, 12, 0, 0, 0, time.UTC))

	svc, _, pool := newInvoiceTestService(store, nil)
	svc.now = func() time.Time { return time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC) }

	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	_, err := svc.Generate(context.Background(), adminActor, GenerateRequest{Period: "weekly", PeriodStart: &start})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.ErrorIs(t, err, ErrPeriodNotClosed)
	assert.Equal(t, 0, pool.begins)
	assert.Empty(t, store.invoices)

	// completed after the rejected run, still inside the same week
	store.addCompleted(r, "30.00", time.Date(2024, 1, 12, 19, 0, 0, 0, time.UTC))

	svc.now = func() time.Time { return time.Date(2024, 1, 15, 0, 5, 0, 0, time.UTC) }
	res, err := svc.Generate(context.Background(), adminActor, GenerateRequest{Period: "previous"})
	require.NoError(t, err)
	require.Len(t, res.Invoices, 1)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, int32(2), res.Invoices[0].OrdersCount)
	assert.True(t, decimalOf(t, res.Invoices[0].SubtotalSales).Equal(decimal.RequireFromString("50.00")))
}

func TestGenerate_RequiresAdmin(t *testing.T) {
	svc, _, pool := newInvoiceTestService(newFakeInvoiceStore(), nil)
	provider := gate.Actor{UserID: uuid.New(), Roles: []string{enum.RoleProvider}}

	_, err := svc.Generate(context.Background(), provider, GenerateRequest{Period: "weekly"})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.Equal(t, 0, pool.begins)
}

func TestGenerate_SystemActorAllowed(t *testing.T) {
	svc, _, _ := newInvoiceTestService(newFakeInvoiceStore(), nil)
	_, err := svc.Generate(context.Background(), SystemActor, GenerateRequest{Period: "previous"})
	assert.NoError(t, err)
}

func TestGenerate_UniqueViolationIsConflict(t *testing.T) {
	store := newFakeInvoiceStore()
	r := store.addRestaurant("0.1000")
	store.addCompleted(r, "25.00", time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC))
	store.createItemErr = &pgconn.PgError{Code: "23505"}

	svc, tx, _ := newInvoiceTestService(store, nil)
	_, err := svc.Generate(context.Background(), adminActor, GenerateRequest{Period: "weekly"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.ErrorIs(t, err, ErrInvoiceAlreadyGenerating)
	assert.Equal(t, 0, tx.commits)
}

func TestGenerate_AttachesPdf(t *testing.T) {
	store := newFakeInvoiceStore()
	r := store.addRestaurant("0.1000")
	store.addCompleted(r, "40.00", time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC))
	renderer := &fakeRenderer{}

	svc, _, _ := newInvoiceTestService(store, renderer)
	res, err := svc.Generate(context.Background(), adminActor, GenerateRequest{Period: "weekly"})
	require.NoError(t, err)
	require.Len(t, res.Invoices, 1)

	inv := res.Invoices[0]
	require.Len(t, renderer.docs, 1)
	assert.Equal(t, inv.InvoiceNumber, renderer.docs[0].Number)
	assert.Len(t, renderer.docs[0].Lines, 1)
	assert.True(t, inv.PdfPath.Valid)
	assert.Equal(t, "/storage/invoices/"+inv.InvoiceNumber+".pdf", store.pdfPaths[inv.ID])
}

func TestGenerate_PdfFailureKeepsInvoice(t *testing.T) {
	store := newFakeInvoiceStore()
	r := store.addRestaurant("0.1000")
	store.addCompleted(r, "40.00", time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC))

	svc, _, _ := newInvoiceTestService(store, &fakeRenderer{err: errors.New("disk full")})
	res, err := svc.Generate(context.Background(), adminActor, GenerateRequest{Period: "weekly"})
	require.NoError(t, err)
	require.Len(t, res.Invoices, 1)
	assert.False(t, res.Invoices[0].PdfPath.Valid)
}

// =====================
// Status transitions
// =====================

func TestInvoiceTransitionTable(t *testing.T) {
	all := []string{enum.InvoiceStatusDraft, enum.InvoiceStatusSent, enum.InvoiceStatusPaid, enum.InvoiceStatusOverdue, enum.InvoiceStatusVoid}
	allowed := map[[2]string]bool{
		{enum.InvoiceStatusDraft, enum.InvoiceStatusSent}:   true,
		{enum.InvoiceStatusDraft, enum.InvoiceStatusVoid}:   true,
		{enum.InvoiceStatusSent, enum.InvoiceStatusPaid}:    true,
		{enum.InvoiceStatusSent, enum.InvoiceStatusOverdue}: true,
		{enum.InvoiceStatusSent, enum.InvoiceStatusVoid}:    true,
		{enum.InvoiceStatusOverdue, enum.InvoiceStatusPaid}: true,
		{enum.InvoiceStatusOverdue, enum.InvoiceStatusVoid}: true,
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]string{from, to}], CanTransitionInvoice(from, to), "%s -> %s", from, to)
		}
	}
}

func seedInvoice(store *fakeInvoiceStore, status string) database.RestaurantInvoice {
	inv := database.RestaurantInvoice{ID: uuid.New(), RestaurantID: uuid.New(), Status: status}
	store.invoices[inv.ID] = inv
	return inv
}

func TestMarkSentThenPaid(t *testing.T) {
	store := newFakeInvoiceStore()
	inv := seedInvoice(store, enum.InvoiceStatusDraft)
	svc, _, _ := newInvoiceTestService(store, nil)

	sent, err := svc.MarkSent(context.Background(), adminActor, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusSent, sent.Status)
	assert.True(t, sent.SentAt.Valid)

	paid, err := svc.MarkPaid(context.Background(), adminActor, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusPaid, paid.Status)
	assert.True(t, paid.PaidAt.Valid)
}

func TestMarkSent_PaidIsFinal(t *testing.T) {
	store := newFakeInvoiceStore()
	inv := seedInvoice(store, enum.InvoiceStatusPaid)
	svc, _, _ := newInvoiceTestService(store, nil)

	_, err := svc.MarkSent(context.Background(), adminActor, inv.ID)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.ErrorIs(t, err, ErrInvoiceTransition)
	assert.Equal(t, enum.InvoiceStatusPaid, store.invoices[inv.ID].Status)
}

func TestMarkOverdue_DraftRejected(t *testing.T) {
	store := newFakeInvoiceStore()
	inv := seedInvoice(store, enum.InvoiceStatusDraft)
	svc, _, _ := newInvoiceTestService(store, nil)

	_, err := svc.MarkOverdue(context.Background(), adminActor, inv.ID)
	assert.ErrorIs(t, err, ErrInvoiceTransition)
}

func TestMark_NotFound(t *testing.T) {
	svc, _, _ := newInvoiceTestService(newFakeInvoiceStore(), nil)
	_, err := svc.MarkPaid(context.Background(), adminActor, uuid.New())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestVoid_ReleasesOrdersForNextRun(t *testing.T) {
	store := newFakeInvoiceStore()
	r := store.addRestaurant("0.1000")
	store.addCompleted(r, "40.00", time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC))
	svc, _, _ := newInvoiceTestService(store, nil)

	first, err := svc.Generate(context.Background(), adminActor, GenerateRequest{Period: "weekly"})
	require.NoError(t, err)
	require.Len(t, first.Invoices, 1)

	voided, err := svc.Void(context.Background(), adminActor, first.Invoices[0].ID)
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusVoid, voided.Status)
	assert.Empty(t, store.items)

	again, err := svc.Generate(context.Background(), adminActor, GenerateRequest{Period: "weekly"})
	require.NoError(t, err)
	require.Len(t, again.Invoices, 1)
	assert.NotEqual(t, first.Invoices[0].ID, again.Invoices[0].ID)
	assert.Equal(t, first.Invoices[0].InvoiceNumber, again.Invoices[0].InvoiceNumber)
}

// =====================
// Show / List / Download
// =====================

func TestShow(t *testing.T) {
	store := newFakeInvoiceStore()
	r := store.addRestaurant("0.1000")
	store.addCompleted(r, "40.00", time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC))
	svc, _, _ := newInvoiceTestService(store, nil)

	res, err := svc.Generate(context.Background(), adminActor, GenerateRequest{Period: "weekly"})
	require.NoError(t, err)

	detail, err := svc.Show(context.Background(), res.Invoices[0].ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, detail.Restaurant.ID)
	assert.Len(t, detail.Items, 1)

	_, err = svc.Show(context.Background(), uuid.New())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestList_Pagination(t *testing.T) {
	store := newFakeInvoiceStore()
	svc, _, _ := newInvoiceTestService(store, nil)
	rid := uuid.New()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	page, err := svc.List(context.Background(), InvoiceFilter{RestaurantID: &rid, Status: "sent", DateFrom: &from, Page: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, InvoicesPerPage, page.PerPage)

	p := store.listParams
	assert.Equal(t, int32(20), p.Limit)
	assert.Equal(t, int32(40), p.Offset)
	assert.True(t, p.RestaurantID.Valid)
	assert.Equal(t, "sent", p.Status.String)
	assert.True(t, p.DateFrom.Valid)
	assert.False(t, p.DateTo.Valid)

	page, err = svc.List(context.Background(), InvoiceFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, int32(0), store.listParams.Offset)
	assert.False(t, store.listParams.Status.Valid)
}

func TestList_InvalidStatus(t *testing.T) {
	svc, _, _ := newInvoiceTestService(newFakeInvoiceStore(), nil)
	_, err := svc.List(context.Background(), InvoiceFilter{Status: "archived"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestList_PageBeyondLimit(t *testing.T) {
	store := newFakeInvoiceStore()
	svc, _, _ := newInvoiceTestService(store, nil)

	page, err := svc.List(context.Background(), InvoiceFilter{Page: MaxInvoicePage})
	require.NoError(t, err)
	assert.Equal(t, int32((MaxInvoicePage-1)*InvoicesPerPage), store.listParams.Offset)
	assert.Equal(t, MaxInvoicePage, page.Page)

	_, err = svc.List(context.Background(), InvoiceFilter{Page: 200000000})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.ErrorIs(t, err, ErrInvoicePageTooLarge)
}

func TestDownloadPath_NoPdfDoesNoFileIO(t *testing.T) {
	store := newFakeInvoiceStore()
	inv := seedInvoice(store, enum.InvoiceStatusDraft)
	svc, _, _ := newInvoiceTestService(store, nil)
	svc.statFile = func(string) (fs.FileInfo, error) {
		t.Fatal("stat must not be called without a pdf path")
		return nil, nil
	}

	_, err := svc.DownloadPath(context.Background(), inv.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.ErrorIs(t, err, ErrInvoicePdfNotGenerated)
}

func TestDownloadPath_MissingFile(t *testing.T) {
	store := newFakeInvoiceStore()
	inv := seedInvoice(store, enum.InvoiceStatusDraft)
	inv.PdfPath = pgtype.Text{String: "/nope/invoice.pdf", Valid: true}
	store.invoices[inv.ID] = inv
	svc, _, _ := newInvoiceTestService(store, nil)
	svc.statFile = func(string) (fs.FileInfo, error) { return nil, fs.ErrNotExist }

	_, err := svc.DownloadPath(context.Background(), inv.ID)
	assert.ErrorIs(t, err, ErrInvoicePdfMissing)
}

func TestDownloadPath_Exists(t *testing.T) {
	dir := t.TempDir()
	path, err := pdf.NewWriter(dir).Write(pdf.Document{Number: "SF-TEST"})
	require.NoError(t, err)

	store := newFakeInvoiceStore()
	inv := seedInvoice(store, enum.InvoiceStatusSent)
	inv.PdfPath = pgtype.Text{String: path, Valid: true}
	store.invoices[inv.ID] = inv
	svc, _, _ := newInvoiceTestService(store, nil)

	got, err := svc.DownloadPath(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestDownloadPath_UnknownInvoice(t *testing.T) {
	svc, _, _ := newInvoiceTestService(newFakeInvoiceStore(), nil)
	_, err := svc.DownloadPath(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}
