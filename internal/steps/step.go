package steps

import (
	"context"
	"errors"
	"fmt"
)

// Ошибки шагов.
var (
	// ErrNotInvocable — вместо функции шага передан nil.
	ErrNotInvocable = errors.New("step fn must be a function")

	// ErrInvalidConfig — невалидная конфигурация шага.
	ErrInvalidConfig = errors.New("invalid step config")

	// ErrStepCancelled — выполнение шага отменено.
	ErrStepCancelled = errors.New("step execution cancelled")

	// ErrScopeRecord — первый элемент scope не является map[string]any.
	ErrScopeRecord = errors.New("scope has no record")
)

// Control — интерфейс, который runner передаёт каждому шагу.
//
// Шаг обязан рано или поздно вызвать Next (ровно один раз).
// Next, Skip и End можно вызывать из любой горутины.
type Control interface {
	// Title возвращает название лестницы (runner).
	Title() string

	// Next сообщает о завершении шага. nil — успех,
	// не-nil ошибка прерывает run и уходит в error-уведомление.
	Next(err error)

	// Skip переходит к первому шагу с указанным именем.
	// Если шага нет, возвращает ошибку и run больше не продвигается.
	Skip(name string) error

	// End завершает run досрочно (как обычное завершение).
	End()

	// Context возвращает контекст run с логгером и run_id.
	Context() context.Context
}

// Func — тело шага. scope передаётся по ссылке:
// шаги общаются друг с другом, изменяя его значения.
type Func func(ctl Control, scope ...any)

// Step — зарегистрированный именованный шаг. После регистрации не меняется.
type Step struct {
	Name string
	Fn   Func
}

// Options — параметры регистрации шага.
type Options struct {
	// Name — имя шага. Пустое имя заменяется на "Untitled Step {n}".
	Name string

	// Exclude — не добавлять шаг (условная регистрация).
	Exclude bool
}

// untitled возвращает имя по умолчанию для n-го шага.
func untitled(n int) string {
	return fmt.Sprintf("Untitled Step %d", n)
}

// Record возвращает первое значение scope как map[string]any.
// Встроенные шаги хранят свои результаты в этой записи.
func Record(scope []any) (map[string]any, error) {
	if len(scope) == 0 {
		return nil, ErrScopeRecord
	}
	rec, ok := scope[0].(map[string]any)
	if !ok || rec == nil {
		return nil, fmt.Errorf("%w: got %T", ErrScopeRecord, scope[0])
	}
	return rec, nil
}
