package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/stairs/internal/runner"
)

// ErrNoRunner — в Config не передан Runner.
var ErrNoRunner = errors.New("scheduler: runner is required")

// Scheduler запускает run по cron-расписанию.
//
// Каждый тик ждёт окончания своего run (RunWait). Если предыдущий run
// ещё идёт, тик пропускается: run одной лестницы не накладываются.
type Scheduler struct {
	runner     *runner.Runner
	cronExpr   string
	loc        *time.Location
	scope      func(time.Time) []any
	runTimeout time.Duration
	logger     *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
	ctx  context.Context
}

// Config — конфигурация Scheduler.
type Config struct {
	Runner *runner.Runner

	// CronExpr — "*/5 * * * *" или дескриптор "@every 30s".
	CronExpr string

	// Timezone — IANA имя (default: UTC).
	Timezone string

	// Scope строит scope для каждого run (default: запись с scheduled_at).
	Scope func(at time.Time) []any

	// RunTimeout — сколько ждать run (0 — без ограничения).
	RunTimeout time.Duration

	Logger *slog.Logger
}

// New создаёт Scheduler. Возвращает ошибку для невалидного
// cron-выражения или timezone.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Runner == nil {
		return nil, ErrNoRunner
	}
	if err := ValidateCronExpr(cfg.CronExpr); err != nil {
		return nil, err
	}
	loc, err := LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	scope := cfg.Scope
	if scope == nil {
		scope = defaultScope
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		runner:     cfg.Runner,
		cronExpr:   cfg.CronExpr,
		loc:        loc,
		scope:      scope,
		runTimeout: cfg.RunTimeout,
		logger:     logger.With("stairs", cfg.Runner.Title(), "cron", cfg.CronExpr),
	}, nil
}

// defaultScope — одна запись с временем тика.
func defaultScope(at time.Time) []any {
	return []any{map[string]any{"scheduled_at": at.UTC().Format(time.RFC3339)}}
}

// Start запускает расписание. Run получают контекст ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return
	}
	s.ctx = ctx

	logger := cronLogger{s: s}
	s.cron = cron.New(
		cron.WithParser(cronParser),
		cron.WithLocation(s.loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	// Выражение уже проверено в New
	s.cron.AddFunc(s.cronExpr, func() {
		s.Tick(s.ctx)
	})
	s.cron.Start()

	s.logger.Info("scheduler started", "next", s.Next(time.Now()))
}

// Stop останавливает расписание и ждёт текущий тик.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// Next возвращает время следующего тика после from.
func (s *Scheduler) Next(from time.Time) time.Time {
	next, _ := NextAfter(s.cronExpr, s.loc, from)
	return next
}

// Tick выполняет один run и ждёт его окончания.
// Ошибка шага логируется и возвращается.
func (s *Scheduler) Tick(ctx context.Context) error {
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	now := time.Now()
	_, err := s.runner.RunWait(ctx, s.scope(now)...)
	if err != nil {
		s.logger.Error("scheduled run failed", "error", err, "elapsed", time.Since(now))
		return err
	}

	s.logger.Info("scheduled run completed", "elapsed", time.Since(now))
	return nil
}
