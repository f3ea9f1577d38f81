package runner

import (
	"errors"

	"github.com/shaiso/stairs/internal/steps"
)

// Ошибки runner.
var (
	// ErrNotInvocable — при регистрации передан nil вместо функции шага.
	ErrNotInvocable = steps.ErrNotInvocable

	// ErrStepNotFound — Skip не нашёл шаг с таким именем.
	ErrStepNotFound = errors.New("step not found")
)
