package runner

import (
	"time"

	"github.com/google/uuid"
)

// StepEvent — шаг вот-вот начнёт выполняться.
type StepEvent struct {
	RunID uuid.UUID
	Title string

	// Name — имя шага.
	Name string

	// Position — позиция шага, начиная с 1.
	Position int

	// Total — количество шагов в run.
	Total int
}

// DoneEvent — run завершился нормально (все шаги или End).
type DoneEvent struct {
	RunID   uuid.UUID
	Title   string
	Scope   []any
	Elapsed time.Duration
}

// ErrorEvent — шаг сообщил об ошибке, run прерван.
type ErrorEvent struct {
	RunID uuid.UUID
	Title string

	// Step — имя шага, вернувшего ошибку.
	Step    string
	Err     error
	Scope   []any
	Elapsed time.Duration
}

// Observer получает уведомления о жизненном цикле run.
//
// Все методы вызываются из горутины executor runner, по одному за раз.
// Scope передаётся по ссылке — это тот же срез, что видят шаги.
type Observer interface {
	OnStep(StepEvent)
	OnDone(DoneEvent)
	OnError(ErrorEvent)
}

// ObserverFuncs — адаптер Observer из функций. nil функции пропускаются.
type ObserverFuncs struct {
	Step  func(StepEvent)
	Done  func(DoneEvent)
	Error func(ErrorEvent)
}

// OnStep реализует Observer.
func (o ObserverFuncs) OnStep(ev StepEvent) {
	if o.Step != nil {
		o.Step(ev)
	}
}

// OnDone реализует Observer.
func (o ObserverFuncs) OnDone(ev DoneEvent) {
	if o.Done != nil {
		o.Done(ev)
	}
}

// OnError реализует Observer.
func (o ObserverFuncs) OnError(ev ErrorEvent) {
	if o.Error != nil {
		o.Error(ev)
	}
}

// handlesErrors сообщает, обрабатывает ли наблюдатель ошибки.
func (o ObserverFuncs) handlesErrors() bool {
	return o.Error != nil
}

// handlesErrors возвращает false только для ObserverFuncs без Error.
func handlesErrors(obs Observer) bool {
	if h, ok := obs.(interface{ handlesErrors() bool }); ok {
		return h.handlesErrors()
	}
	return true
}
