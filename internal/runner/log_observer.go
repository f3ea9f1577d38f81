package runner

import "log/slog"

// LogObserver пишет уведомления run в structured log.
type LogObserver struct {
	Logger *slog.Logger
}

// NewLogObserver создаёт LogObserver. nil логгер — slog.Default().
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{Logger: logger}
}

// OnStep реализует Observer.
func (o *LogObserver) OnStep(ev StepEvent) {
	o.Logger.Info("step",
		"stairs", ev.Title,
		"run_id", ev.RunID,
		"step", ev.Name,
		"position", ev.Position,
		"total", ev.Total,
	)
}

// OnDone реализует Observer.
func (o *LogObserver) OnDone(ev DoneEvent) {
	o.Logger.Info("run done",
		"stairs", ev.Title,
		"run_id", ev.RunID,
		"elapsed", ev.Elapsed,
	)
}

// OnError реализует Observer.
func (o *LogObserver) OnError(ev ErrorEvent) {
	o.Logger.Error("run failed",
		"stairs", ev.Title,
		"run_id", ev.RunID,
		"step", ev.Step,
		"error", ev.Err,
		"elapsed", ev.Elapsed,
	)
}
