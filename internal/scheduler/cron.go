package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser — парсер cron-выражений: 5 полей и дескрипторы (@hourly, @every 5m).
var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ValidateCronExpr проверяет валидность cron-выражения.
func ValidateCronExpr(cronExpr string) error {
	if _, err := cronParser.Parse(cronExpr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	return nil
}

// LoadLocation загружает timezone. Пустое имя — UTC.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// NextAfter вычисляет следующее время срабатывания после from.
// Результат в UTC.
func NextAfter(cronExpr string, loc *time.Location, from time.Time) (time.Time, error) {
	schedule, err := cronParser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", cronExpr, err)
	}
	if loc == nil {
		loc = time.UTC
	}

	return schedule.Next(from.In(loc)).UTC(), nil
}

// cronLogger — адаптер slog для cron.Logger.
type cronLogger struct {
	s *Scheduler
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
