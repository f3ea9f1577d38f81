// Package telemetry — structured logging через slog.
//
// Логгер настраивается переменными LOG_LEVEL и LOG_FORMAT и передаётся
// в шаги через контекст run (WithLogger / FromContext).
// Метрики Prometheus — в пакете metrics.
package telemetry
