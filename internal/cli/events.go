package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaiso/stairs/internal/mq"
)

// NewEventsCmd создаёт команду чтения событий run из RabbitMQ.
func NewEventsCmd(envFn func() *Env) *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Tail run lifecycle events from RabbitMQ",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envFn()
			ctx := cmd.Context()

			if url == "" {
				url = rabbitURL()
			}
			if url == "" {
				url = mq.DefaultURL()
			}

			conn, err := mq.NewConnection(url, env.Logger)
			if err != nil {
				return fmt.Errorf("connect to RabbitMQ: %w", err)
			}
			defer conn.Close()

			if err := mq.SetupTailQueue(ctx, conn); err != nil {
				return err
			}

			consumer := mq.NewConsumer(conn, env.Logger, mq.ConsumerConfig{
				Queue:    mq.QueueEventsTail,
				Prefetch: 16,
				Handler: func(_ context.Context, msg *mq.Message) error {
					line, err := FormatEvent(msg)
					if err != nil {
						return err
					}
					env.Output.Line(line, msg)
					return nil
				},
			})

			env.Output.Success("waiting for events, press Ctrl+C to stop")
			return consumer.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&url, "rabbitmq-url", "", "RabbitMQ URL (default $RABBITMQ_URL)")

	return cmd
}

// FormatEvent форматирует событие run в одну строку.
func FormatEvent(msg *mq.Message) (string, error) {
	ts := msg.Timestamp.Format("15:04:05.000")

	switch msg.Type {
	case mq.MessageTypeStep:
		p, err := mq.ParsePayload[mq.StepPayload](msg)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s  %-9s  %s  %s  step %d/%d %q",
			ts, msg.Type, p.Title, short(p.RunID.String()), p.Position, p.Total, p.Step), nil

	case mq.MessageTypeDone:
		p, err := mq.ParsePayload[mq.DonePayload](msg)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s  %-9s  %s  %s  done in %dms",
			ts, msg.Type, p.Title, short(p.RunID.String()), p.ElapsedMs), nil

	case mq.MessageTypeError:
		p, err := mq.ParsePayload[mq.ErrorPayload](msg)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s  %-9s  %s  %s  step %q failed: %s",
			ts, msg.Type, p.Title, short(p.RunID.String()), p.Step, p.Error), nil
	}

	return fmt.Sprintf("%s  %s", ts, msg.Type), nil
}

// short возвращает первые 8 символов ID.
func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
