// Package app wires configuration, storage and services into the
// components the server and console binaries run.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/savedfeast/api/internal/config"
	"github.com/savedfeast/api/internal/database"
	"github.com/savedfeast/api/internal/gate"
	"github.com/savedfeast/api/internal/notify"
	"github.com/savedfeast/api/internal/pdf"
	"github.com/savedfeast/api/internal/router"
	"github.com/savedfeast/api/internal/scheduler"
	"github.com/savedfeast/api/internal/service"
	"github.com/savedfeast/api/internal/ws"
	"go.uber.org/zap"
)

// App holds every long-lived component of a running process.
type App struct {
	Config    *config.Config
	Location  *time.Location
	Pool      *pgxpool.Pool
	Queries   *database.Queries
	Gates     *gate.Registry
	Hub       *ws.Hub
	Orders    *service.OrderService
	Invoices  *service.InvoiceService
	Mailer    *notify.Mailer
	Scheduler *scheduler.Scheduler
	Log       *zap.SugaredLogger

	closers []func() error
}

// New connects to the database, applies migrations and builds the services.
func New(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	a := &App{
		Config:   cfg,
		Location: loc,
		Pool:     pool,
		Queries:  database.New(pool),
		Gates:    gate.Default(),
		Hub:      ws.NewHub(log.Named("ws")),
		Log:      log,
	}
	a.closers = append(a.closers, func() error { pool.Close(); return nil })

	publisher, err := a.publisher()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Mailer = notify.NewMailer(publisher, cfg.AdminEmail)

	a.Orders = service.NewOrderService(
		pool, pool,
		func(db database.DBTX) service.OrderStore { return database.New(db) },
		a.Gates,
		service.NewPickupSealer(cfg.PickupCodeKey),
		a.Hub,
		log.Named("orders"),
	)
	a.Invoices = service.NewInvoiceService(
		pool, pool,
		func(db database.DBTX) service.InvoiceStore { return database.New(db) },
		a.Gates,
		pdf.NewWriter(cfg.StorageDir),
		loc,
		log.Named("invoices"),
	)

	a.Scheduler, err = scheduler.New(loc, log.Named("scheduler"), scheduler.Commands(scheduler.Deps{
		Orders:          a.Orders,
		Invoices:        a.Invoices,
		AutoCancelAfter: cfg.AutoCancelAfter,
		Location:        loc,
		Log:             log.Named("scheduler"),
	})...)
	if err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

// publisher picks the AMQP broker when one is configured and falls back to
// logging the mail otherwise.
func (a *App) publisher() (notify.Publisher, error) {
	if a.Config.AMQPURL == "" {
		a.Log.Warn("AMQP_URL not set, mail will only be logged")
		return notify.NewLogPublisher(a.Log.Named("mail")), nil
	}
	pub, err := notify.DialAMQP(a.Config.AMQPURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, pub.Close)
	return pub, nil
}

// Router builds the HTTP handler for the app.
func (a *App) Router() http.Handler {
	return router.New(router.Deps{
		Config:   a.Config,
		Location: a.Location,
		Queries:  a.Queries,
		Orders:   a.Orders,
		Invoices: a.Invoices,
		Notifier: a.Mailer,
		Gates:    a.Gates,
		Hub:      a.Hub,
		Log:      a.Log.Named("http"),
	})
}

// Close releases the broker connection and the pool, newest first.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Log.Warnw("close", "error", err)
		}
	}
	a.closers = nil
}
