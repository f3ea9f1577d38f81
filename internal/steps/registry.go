package steps

import (
	"sync"
)

// Registry — упорядоченный реестр шагов.
//
// Порядок добавления = порядок выполнения. Реестр только растёт:
// шаги не удаляются и не переставляются. Потокобезопасен.
type Registry struct {
	mu    sync.RWMutex
	steps []Step
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		steps: make([]Step, 0),
	}
}

// Add добавляет шаг в конец реестра.
//
// Возвращает ErrNotInvocable, если fn == nil. Проверка выполняется
// и для шагов с Exclude, чтобы ошибка программиста не пряталась за флагом.
func (r *Registry) Add(opts Options, fn Func) error {
	if fn == nil {
		return ErrNotInvocable
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if opts.Exclude {
		return nil
	}

	name := opts.Name
	if name == "" {
		name = untitled(len(r.steps))
	}

	r.steps = append(r.steps, Step{Name: name, Fn: fn})
	return nil
}

// List возвращает копию последовательности шагов.
func (r *Registry) List() []Step {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Step, len(r.steps))
	copy(out, r.steps)
	return out
}

// Len возвращает количество зарегистрированных шагов.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.steps)
}

// Index возвращает позицию первого шага с именем name или -1.
func (r *Registry) Index(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return IndexOf(r.steps, name)
}

// IndexOf ищет первый шаг с именем name в списке.
func IndexOf(list []Step, name string) int {
	for i := range list {
		if list[i].Name == name {
			return i
		}
	}
	return -1
}
