package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/stairs/internal/runner"
)

// NewRunCmd создаёт команду однократного запуска лестницы.
func NewRunCmd(envFn func() *Env) *cobra.Command {
	var cfg SampleConfig

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the sample stairs once and print the final scope",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envFn()
			ctx := cmd.Context()

			observers, closeEvents := connectEvents(ctx, env.Logger)
			defer closeEvents()

			r := NewSample(cfg, runner.Config{
				Logger:    env.Logger,
				Observers: append(observers, runner.NewLogObserver(env.Logger)),
			})

			scope, err := r.RunWait(ctx, SampleScope(cfg.URL))
			if err != nil {
				return err
			}

			env.Output.JSON(scope[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.URL, "url", "", "URL to fetch")
	cmd.Flags().DurationVar(&cfg.Delay, "delay", 0, "Pause between fetch and summarize")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", 30*time.Second, "HTTP request timeout")
	cmd.MarkFlagRequired("url")

	return cmd
}

// NewStepsCmd создаёт команду вывода шагов демонстрационной лестницы.
func NewStepsCmd(envFn func() *Env) *cobra.Command {
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "steps",
		Short: "List the steps of the sample stairs",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envFn()
			r := NewSample(SampleConfig{Delay: delay}, runner.Config{Logger: env.Logger})

			list := r.Steps()
			names := make([]string, len(list))
			rows := make([][]string, len(list))
			for i, s := range list {
				names[i] = s.Name
				rows[i] = []string{strconv.Itoa(i + 1), s.Name}
			}

			env.Output.Print([]string{"POSITION", "NAME"}, rows, names)
			return nil
		},
	}

	cmd.Flags().DurationVar(&delay, "delay", 0, "Include the wait step")

	return cmd
}
