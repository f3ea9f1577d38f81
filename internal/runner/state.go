package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/stairs/internal/steps"
	"github.com/shaiso/stairs/internal/telemetry"
)

// RunState — состояние одного run.
//
// Создаётся в Run и живёт, пока шаги держат ссылку на него как на
// steps.Control. Курсор меняется только в горутине executor;
// terminated переходит false → true один раз и больше не сбрасывается.
type RunState struct {
	// ID — идентификатор run.
	ID uuid.UUID

	runner  *Runner
	ctx     context.Context
	logger  *slog.Logger
	steps   []steps.Step
	scope   []any
	done    Completion
	started time.Time

	// failed вызывается после уведомления error (используется RunWait).
	failed func(err error)

	mu         sync.Mutex
	cursor     int
	terminated bool
}

// newRunState создаёт RunState с курсором -1 и копией шагов runner.
func newRunState(ctx context.Context, r *Runner, scope []any, done Completion) *RunState {
	id := uuid.New()
	logger := telemetry.WithRunID(r.logger, id.String())

	return &RunState{
		ID:      id,
		runner:  r,
		ctx:     telemetry.WithLogger(ctx, logger),
		logger:  logger,
		steps:   r.registry.List(),
		scope:   scope,
		done:    done,
		started: time.Now(),
		cursor:  -1,
	}
}

// Title реализует steps.Control.
func (s *RunState) Title() string {
	return s.runner.title
}

// Context реализует steps.Control.
func (s *RunState) Context() context.Context {
	return s.ctx
}

// Next реализует steps.Control: сигнал завершения шага.
// Эффект всегда откладывается в executor.
func (s *RunState) Next(err error) {
	s.runner.exec.schedule(func() {
		s.advance(err)
	})
}

// Skip реализует steps.Control: следующим выполнится первый шаг
// с именем name. Если такого шага нет, run останавливается без
// уведомлений, а Skip возвращает ErrStepNotFound.
func (s *RunState) Skip(name string) error {
	idx := steps.IndexOf(s.steps, name)
	if idx < 0 {
		s.logger.Warn("skip target not found, run stalled", "step", name)
		return fmt.Errorf("%w: %s", ErrStepNotFound, name)
	}

	s.runner.exec.schedule(func() {
		s.mu.Lock()
		if s.terminated {
			s.mu.Unlock()
			return
		}
		s.cursor = idx - 1
		s.mu.Unlock()

		s.logger.Debug("skip", "step", name, "position", idx+1)
		s.advance(nil)
	})

	return nil
}

// End реализует steps.Control: досрочное нормальное завершение.
// Повторные вызовы ничего не делают.
func (s *RunState) End() {
	if !s.terminate() {
		return
	}
	s.runner.exec.schedule(s.finish)
}

// Terminated сообщает, завершён ли run.
func (s *RunState) Terminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminated
}

// terminate переводит run в завершённое состояние.
// Возвращает false, если run уже был завершён.
func (s *RunState) terminate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terminated {
		return false
	}
	s.terminated = true
	return true
}

// advance — продвижение run на следующий шаг. Выполняется в executor.
func (s *RunState) advance(err error) {
	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		return
	}

	current := s.cursor
	s.cursor++
	cursor := s.cursor
	s.mu.Unlock()

	s.logger.Debug("next", "position", cursor+1, "total", len(s.steps))

	if err != nil {
		s.fail(current, err)
		return
	}

	if cursor < 0 || cursor >= len(s.steps) {
		if s.terminate() {
			s.finish()
		}
		return
	}

	step := s.steps[cursor]
	s.runner.emitStep(StepEvent{
		RunID:    s.ID,
		Title:    s.runner.title,
		Name:     step.Name,
		Position: cursor + 1,
		Total:    len(s.steps),
	})

	step.Fn(s, s.scope...)
}

// fail завершает run ошибкой шага с индексом idx.
// Callback завершения при этом не вызывается.
func (s *RunState) fail(idx int, err error) {
	if !s.terminate() {
		return
	}

	var name string
	if idx >= 0 && idx < len(s.steps) {
		name = s.steps[idx].Name
	}

	s.logger.Debug("step failed", "step", name, "error", err)

	s.runner.emitError(ErrorEvent{
		RunID:   s.ID,
		Title:   s.runner.title,
		Step:    name,
		Err:     err,
		Scope:   s.scope,
		Elapsed: time.Since(s.started),
	}, s.logger, s.failed != nil)

	if s.failed != nil {
		s.failed(err)
	}
}

// finish рассылает done и вызывает callback завершения.
func (s *RunState) finish() {
	s.logger.Debug("done", "elapsed", time.Since(s.started))

	s.runner.emitDone(DoneEvent{
		RunID:   s.ID,
		Title:   s.runner.title,
		Scope:   s.scope,
		Elapsed: time.Since(s.started),
	})

	s.done(s.scope...)
}
