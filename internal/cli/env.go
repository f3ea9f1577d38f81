package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/shaiso/stairs/internal/mq"
	"github.com/shaiso/stairs/internal/runner"
)

// Env — общие зависимости команд (создаются после парсинга флагов).
type Env struct {
	Logger *slog.Logger
	Output *Output
}

// rabbitURL возвращает RABBITMQ_URL. Пустая строка — публикация выключена.
func rabbitURL() string {
	return os.Getenv("RABBITMQ_URL")
}

// metricsAddr возвращает адрес HTTP сервера /healthz и /metrics.
func metricsAddr() string {
	port := "9090"
	if v := os.Getenv("METRICS_PORT"); v != "" {
		port = v
	}
	return ":" + port
}

// connectEvents подключает публикацию событий в RabbitMQ, если задан
// RABBITMQ_URL. Брокер недоступен — работаем без него.
// Возвращённую функцию нужно вызвать при завершении.
func connectEvents(ctx context.Context, logger *slog.Logger) ([]runner.Observer, func()) {
	url := rabbitURL()
	if url == "" {
		return nil, func() {}
	}

	conn, err := mq.NewConnection(url, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, events will not be published", "error", err)
		return nil, func() {}
	}
	logger.Info("RabbitMQ connected")

	if err := mq.SetupTopology(ctx, conn); err != nil {
		logger.Warn("failed to setup topology", "error", err)
	}

	pub := mq.NewEventPublisher(mq.NewPublisher(conn, logger), logger)
	return []runner.Observer{pub}, func() { conn.Close() }
}
