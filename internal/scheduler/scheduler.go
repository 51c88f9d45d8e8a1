// Package scheduler runs the periodic maintenance commands on a cron
// schedule and exposes the same commands for one-off console runs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var ErrUnknownCommand = errors.New("unknown command")

// Job is the body of a command. args are console-style flags.
type Job func(ctx context.Context, args []string) error

// Command is a named job with an optional cron schedule.
type Command struct {
	Name string
	// Schedule is a standard 5-field cron expression. Empty means the
	// command only runs from the console.
	Schedule string
	// Args are passed on scheduled runs.
	Args []string
	Run  Job
}

// Scheduler owns the cron runner and the command registry. Scheduled runs
// never overlap with themselves.
type Scheduler struct {
	cron     *cron.Cron
	commands map[string]Command
	entries  map[string]cron.EntryID
	ctx      context.Context
	log      *zap.SugaredLogger
}

func New(loc *time.Location, log *zap.SugaredLogger, commands ...Command) (*Scheduler, error) {
	cl := cronLogger{log: log}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		commands: make(map[string]Command, len(commands)),
		entries:  make(map[string]cron.EntryID),
		ctx:      context.Background(),
		log:      log,
	}

	for _, cmd := range commands {
		if _, dup := s.commands[cmd.Name]; dup {
			return nil, fmt.Errorf("command %s registered twice", cmd.Name)
		}
		s.commands[cmd.Name] = cmd
		if cmd.Schedule == "" {
			continue
		}
		cmd := cmd
		id, err := s.cron.AddFunc(cmd.Schedule, func() {
			if err := s.execute(s.ctx, cmd, cmd.Args); err != nil {
				s.log.Errorw("scheduled command failed", "command", cmd.Name, "error", err)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("schedule %s: %w", cmd.Name, err)
		}
		s.entries[cmd.Name] = id
	}
	return s, nil
}

// Start begins firing scheduled commands. Jobs inherit ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	s.log.Infow("scheduler started", "commands", s.Names())
}

// Stop halts the schedule and waits for running jobs to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// Run executes a command once, outside the schedule.
func (s *Scheduler) Run(ctx context.Context, name string, args []string) error {
	cmd, ok := s.commands[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return s.execute(ctx, cmd, args)
}

// Names lists registered commands alphabetically.
func (s *Scheduler) Names() []string {
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entry returns the cron entry of a scheduled command.
func (s *Scheduler) Entry(name string) (cron.Entry, bool) {
	id, ok := s.entries[name]
	if !ok {
		return cron.Entry{}, false
	}
	return s.cron.Entry(id), true
}

func (s *Scheduler) execute(ctx context.Context, cmd Command, args []string) error {
	start := time.Now()
	s.log.Infow("command started", "command", cmd.Name, "args", args)
	if err := cmd.Run(ctx, args); err != nil {
		return fmt.Errorf("%s: %w", cmd.Name, err)
	}
	s.log.Infow("command finished", "command", cmd.Name, "took", time.Since(start))
	return nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
