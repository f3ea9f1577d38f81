// stairs — запуск демонстрационной лестницы шагов.
//
// Использование:
//
//	stairs [--json] <command> [flags]
//
// Команды:
//
//	run       Однократный запуск и вывод финального scope
//	schedule  Запуск по cron-расписанию (+ /healthz, /metrics)
//	events    Чтение событий run из RabbitMQ
//	steps     Список шагов
//
// Переменные окружения: RABBITMQ_URL, METRICS_PORT, LOG_LEVEL, LOG_FORMAT.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/stairs/internal/cli"
	"github.com/shaiso/stairs/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "stairs",
		Short:         "stairs — sequential step runner",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	envFn := func() *cli.Env {
		return &cli.Env{
			Logger: telemetry.SetupLogger(),
			Output: cli.NewOutput(jsonOutput),
		}
	}

	rootCmd.AddCommand(
		cli.NewRunCmd(envFn),
		cli.NewScheduleCmd(envFn),
		cli.NewEventsCmd(envFn),
		cli.NewStepsCmd(envFn),
	)

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}
