// Command console runs one maintenance command immediately, the same way
// the server's scheduler would.
//
//	console invoices:generate-weekly --period=weekly --start=2024-01-01
//	console orders:expire-overdue
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/savedfeast/api/internal/app"
	"github.com/savedfeast/api/internal/config"
	"github.com/savedfeast/api/internal/logger"
	"github.com/savedfeast/api/internal/scheduler"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zl.Sync()
	zap.ReplaceGlobals(zl)

	if err := run(cfg, zl.Sugar(), os.Args[1:]); err != nil {
		zl.Sugar().Errorw("command failed", "error", err)
		zl.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.SugaredLogger, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if len(args) == 0 {
		usage(a.Scheduler.Names())
		return errors.New("no command given")
	}

	err = a.Scheduler.Run(ctx, args[0], args[1:])
	if errors.Is(err, scheduler.ErrUnknownCommand) {
		usage(a.Scheduler.Names())
	}
	return err
}

func usage(names []string) {
	fmt.Fprintln(os.Stderr, "usage: console <command> [flags]")
	fmt.Fprintln(os.Stderr, "commands:")
	for _, n := range names {
		fmt.Fprintf(os.Stderr, "  %s\n", n)
	}
}
