package scheduler

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/savedfeast/api/internal/gate"
	"github.com/savedfeast/api/internal/service"
	"go.uber.org/zap"
)

const (
	GenerateWeeklyInvoices = "invoices:generate-weekly"
	ExpireOverdueOrders    = "orders:expire-overdue"
	AutoCancelPending      = "orders:auto-cancel-pending"
)

// OrderSweeper is the part of the order service the sweeps use.
type OrderSweeper interface {
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
	AutoCancelPending(ctx context.Context, now time.Time, after time.Duration) (int, error)
}

// InvoiceGenerator is the part of the invoice service the weekly run uses.
type InvoiceGenerator interface {
	Generate(ctx context.Context, actor gate.Actor, req service.GenerateRequest) (*service.GenerateResult, error)
}

// Deps wires the commands to their services.
type Deps struct {
	Orders          OrderSweeper
	Invoices        InvoiceGenerator
	AutoCancelAfter time.Duration
	Location        *time.Location
	Now             func() time.Time
	Log             *zap.SugaredLogger
}

// Commands returns the maintenance commands with their production schedules.
func Commands(d Deps) []Command {
	if d.Now == nil {
		d.Now = time.Now
	}
	return []Command{
		{
			Name:     GenerateWeeklyInvoices,
			Schedule: "5 0 * * 1",
			Args:     []string{"--period=previous"},
			Run:      d.generateWeekly,
		},
		{
			Name:     ExpireOverdueOrders,
			Schedule: "*/5 * * * *",
			Run: func(ctx context.Context, _ []string) error {
				n, err := d.Orders.ExpireOverdue(ctx, d.Now())
				if err != nil {
					return err
				}
				d.Log.Infow("expired overdue orders", "count", n)
				return nil
			},
		},
		{
			Name:     AutoCancelPending,
			Schedule: "*/10 * * * *",
			Run: func(ctx context.Context, _ []string) error {
				n, err := d.Orders.AutoCancelPending(ctx, d.Now(), d.AutoCancelAfter)
				if err != nil {
					return err
				}
				d.Log.Infow("auto-cancelled pending orders", "count", n, "after", d.AutoCancelAfter)
				return nil
			},
		},
	}
}

func (d Deps) generateWeekly(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet(GenerateWeeklyInvoices, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	period := fs.String("period", "previous", "weekly or previous")
	start := fs.String("start", "", "window start date, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	req := service.GenerateRequest{Period: *period}
	if *start != "" {
		t, err := time.ParseInLocation("2006-01-02", *start, d.Location)
		if err != nil {
			return fmt.Errorf("invalid --start %q: %w", *start, err)
		}
		req.PeriodStart = &t
	}

	res, err := d.Invoices.Generate(ctx, service.SystemActor, req)
	if err != nil {
		return err
	}
	d.Log.Infow("weekly invoices generated",
		"period_start", res.Period.Start,
		"period_end", res.Period.End,
		"created", len(res.Invoices),
		"skipped", len(res.Skipped))
	return nil
}
