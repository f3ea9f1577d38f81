package runner

import (
	"context"
	"log/slog"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/shaiso/stairs/internal/steps"
)

// defaultTitle — название runner по умолчанию.
const defaultTitle = "Untitled"

// Completion — callback завершения run. Получает итоговый scope.
type Completion func(scope ...any)

// Runner — лестница: упорядоченные шаги + запуск run по ним.
//
// Runner можно запускать много раз, в том числе одновременно:
// каждый run получает свой RunState и свою копию списка шагов.
// Все run одного Runner выполняются в одном executor, по одной задаче за раз.
type Runner struct {
	title    string
	logger   *slog.Logger
	registry *steps.Registry
	exec     *executor

	obsMu     sync.RWMutex
	observers []observerEntry
	nextObsID uint64
}

type observerEntry struct {
	id  uint64
	obs Observer
}

// Config — конфигурация Runner.
type Config struct {
	// Title — название (default: "Untitled").
	Title string

	// Logger (default: slog.Default()).
	Logger *slog.Logger

	// Observers — наблюдатели, подписанные сразу при создании.
	Observers []Observer
}

// New создаёт новый Runner.
func New(cfg Config) *Runner {
	title := cfg.Title
	if title == "" {
		title = defaultTitle
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Runner{
		title:    title,
		logger:   logger.With("stairs", title),
		registry: steps.NewRegistry(),
		exec:     &executor{},
	}

	for _, obs := range cfg.Observers {
		r.Subscribe(obs)
	}

	return r
}

// Title возвращает название runner.
func (r *Runner) Title() string {
	return r.title
}

// Register добавляет шаг. Возвращает ErrNotInvocable, если fn == nil.
func (r *Runner) Register(opts steps.Options, fn steps.Func) error {
	return r.registry.Add(opts, fn)
}

// StepWith добавляет шаг с параметрами и возвращает runner для цепочки.
// Паникует с ErrNotInvocable, если fn == nil.
func (r *Runner) StepWith(opts steps.Options, fn steps.Func) *Runner {
	if err := r.Register(opts, fn); err != nil {
		panic(err)
	}
	return r
}

// Step добавляет безымянный шаг ("Untitled Step {n}").
func (r *Runner) Step(fn steps.Func) *Runner {
	return r.StepWith(steps.Options{}, fn)
}

// StepNamed добавляет именованный шаг.
func (r *Runner) StepNamed(name string, fn steps.Func) *Runner {
	return r.StepWith(steps.Options{Name: name}, fn)
}

// Steps возвращает зарегистрированные шаги в порядке выполнения.
func (r *Runner) Steps() []steps.Step {
	return r.registry.List()
}

// Run запускает один проход по шагам и сразу возвращает runner.
//
// Аргументы становятся scope: nil значения отбрасываются, последний
// аргумент-функция (Completion или func(...any)) становится callback
// завершения. Пустой scope заменяется на одну пустую map[string]any.
//
// Первый шаг запускается из executor, никогда не внутри вызова Run.
func (r *Runner) Run(args ...any) *Runner {
	r.RunContext(context.Background(), args...)
	return r
}

// RunContext — Run с контекстом. Контекст доступен шагам через
// Control.Context() и дополнен логгером run. Возвращает ID run.
func (r *Runner) RunContext(ctx context.Context, args ...any) uuid.UUID {
	scope, done := resolveScope(args)
	return r.start(newRunState(ctx, r, scope, done))
}

// RunWait запускает run и ждёт его окончания.
//
// Возвращает итоговый scope и nil, если run завершился нормально, или
// ошибку шага. Если ctx отменён раньше, возвращает ctx.Err(); сам run
// при этом не прерывается (шаги видят отмену через Control.Context()).
// Callback завершения из args тоже вызывается.
func (r *Runner) RunWait(ctx context.Context, args ...any) ([]any, error) {
	scope, done := resolveScope(args)

	type result struct {
		scope []any
		err   error
	}
	ch := make(chan result, 1)

	state := newRunState(ctx, r, scope, func(final ...any) {
		done(final...)
		ch <- result{scope: final}
	})
	state.failed = func(err error) {
		ch <- result{scope: state.scope, err: err}
	}
	r.start(state)

	select {
	case res := <-ch:
		return res.scope, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// start ставит первое продвижение run в executor.
func (r *Runner) start(state *RunState) uuid.UUID {
	state.logger.Debug("running",
		"steps", len(state.steps),
		"scope_len", len(state.scope),
	)

	r.exec.schedule(func() {
		state.advance(nil)
	})

	return state.ID
}

// Subscribe подписывает наблюдателя. Возвращает функцию отписки.
func (r *Runner) Subscribe(obs Observer) (unsubscribe func()) {
	if obs == nil {
		return func() {}
	}

	r.obsMu.Lock()
	r.nextObsID++
	id := r.nextObsID
	r.observers = append(r.observers, observerEntry{id: id, obs: obs})
	r.obsMu.Unlock()

	return func() {
		r.obsMu.Lock()
		defer r.obsMu.Unlock()
		for i := range r.observers {
			if r.observers[i].id == id {
				r.observers = append(r.observers[:i:i], r.observers[i+1:]...)
				return
			}
		}
	}
}

// OnStep подписывает функцию на уведомления "step".
func (r *Runner) OnStep(fn func(StepEvent)) (unsubscribe func()) {
	return r.Subscribe(ObserverFuncs{Step: fn})
}

// OnDone подписывает функцию на уведомления "done".
func (r *Runner) OnDone(fn func(DoneEvent)) (unsubscribe func()) {
	return r.Subscribe(ObserverFuncs{Done: fn})
}

// OnError подписывает функцию на уведомления "error".
func (r *Runner) OnError(fn func(ErrorEvent)) (unsubscribe func()) {
	return r.Subscribe(ObserverFuncs{Error: fn})
}

// snapshot возвращает текущих наблюдателей.
func (r *Runner) snapshot() []Observer {
	r.obsMu.RLock()
	defer r.obsMu.RUnlock()

	out := make([]Observer, len(r.observers))
	for i := range r.observers {
		out[i] = r.observers[i].obs
	}
	return out
}

func (r *Runner) emitStep(ev StepEvent) {
	for _, obs := range r.snapshot() {
		obs.OnStep(ev)
	}
}

func (r *Runner) emitDone(ev DoneEvent) {
	for _, obs := range r.snapshot() {
		obs.OnDone(ev)
	}
}

// emitError рассылает ошибку. Если ни один наблюдатель ошибки
// не обрабатывает (и run не ждёт RunWait), она пишется в лог,
// а не теряется молча.
func (r *Runner) emitError(ev ErrorEvent, logger *slog.Logger, handled bool) {
	for _, obs := range r.snapshot() {
		if handlesErrors(obs) {
			handled = true
		}
		obs.OnError(ev)
	}

	if !handled {
		logger.Warn("unhandled step error",
			"step", ev.Step,
			"error", ev.Err,
		)
	}
}

// resolveScope разбирает аргументы Run на scope и callback завершения.
func resolveScope(args []any) ([]any, Completion) {
	scope := make([]any, 0, len(args))
	for _, arg := range args {
		if !isNil(arg) {
			scope = append(scope, arg)
		}
	}

	var done Completion
	if n := len(scope); n > 0 {
		switch fn := scope[n-1].(type) {
		case Completion:
			done = fn
			scope = scope[:n-1]
		case func(...any):
			done = fn
			scope = scope[:n-1]
		}
	}

	if len(scope) == 0 {
		scope = append(scope, map[string]any{})
	}
	if done == nil {
		done = func(...any) {}
	}

	return scope, done
}

// isNil — nil интерфейс или типизированный nil (указатель, map, срез, функция, канал).
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
