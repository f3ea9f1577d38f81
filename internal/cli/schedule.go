package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/stairs/internal/metrics"
	"github.com/shaiso/stairs/internal/runner"
	"github.com/shaiso/stairs/internal/scheduler"
)

// shutdownTimeout — сколько ждать HTTP сервер при остановке.
const shutdownTimeout = 5 * time.Second

// NewScheduleCmd создаёт команду запуска лестницы по расписанию.
func NewScheduleCmd(envFn func() *Env) *cobra.Command {
	var cfg SampleConfig
	var cronExpr string
	var timezone string
	var runTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the sample stairs on a cron schedule",
		Long: `Run the sample stairs on a cron schedule until SIGINT/SIGTERM.

Serves /healthz and /metrics on METRICS_PORT (default 9090).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envFn()
			ctx := cmd.Context()

			observers, closeEvents := connectEvents(ctx, env.Logger)
			defer closeEvents()

			reg := prometheus.NewRegistry()
			observers = append(observers, metrics.New(reg), runner.NewLogObserver(env.Logger))

			r := NewSample(cfg, runner.Config{Logger: env.Logger, Observers: observers})

			sched, err := scheduler.New(scheduler.Config{
				Runner:     r,
				CronExpr:   cronExpr,
				Timezone:   timezone,
				RunTimeout: runTimeout,
				Scope: func(at time.Time) []any {
					rec := SampleScope(cfg.URL)
					rec["scheduled_at"] = at.UTC().Format(time.RFC3339)
					return []any{rec}
				},
				Logger: env.Logger,
			})
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:    metricsAddr(),
				Handler: newMux(reg),
			}

			g, ctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				env.Logger.Info("listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})

			g.Go(func() error {
				sched.Start(ctx)
				<-ctx.Done()
				sched.Stop()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&cfg.URL, "url", "", "URL to fetch")
	cmd.Flags().DurationVar(&cfg.Delay, "delay", 0, "Pause between fetch and summarize")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", 30*time.Second, "HTTP request timeout")
	cmd.Flags().StringVar(&cronExpr, "cron", "", `Cron expression ("*/5 * * * *", "@every 30s")`)
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone for the cron expression (default UTC)")
	cmd.Flags().DurationVar(&runTimeout, "run-timeout", 0, "Maximum duration of one run (0 = no limit)")
	cmd.MarkFlagRequired("url")
	cmd.MarkFlagRequired("cron")

	return cmd
}

// newMux создаёт HTTP mux: /healthz + /metrics.
func newMux(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return mux
}
