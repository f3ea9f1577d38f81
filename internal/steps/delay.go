package steps

import (
	"fmt"
	"time"
)

// Delay возвращает шаг, который ждёт d и только потом вызывает Next.
//
// Сигнал приходит из отдельной горутины — это асинхронный шаг.
// Если контекст run отменён раньше, шаг завершается с ErrStepCancelled.
func Delay(d time.Duration) Func {
	return func(ctl Control, scope ...any) {
		if d <= 0 {
			ctl.Next(fmt.Errorf("%w: delay: duration must be positive", ErrInvalidConfig))
			return
		}

		ctx := ctl.Context()

		go func() {
			timer := time.NewTimer(d)
			defer timer.Stop()

			select {
			case <-ctx.Done():
				// Контекст отменён — graceful shutdown
				ctl.Next(fmt.Errorf("%w: %v", ErrStepCancelled, ctx.Err()))
			case <-timer.C:
				ctl.Next(nil)
			}
		}()
	}
}
