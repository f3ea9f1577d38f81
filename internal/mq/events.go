package mq

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/stairs/internal/runner"
)

// defaultPublishTimeout — таймаут публикации одного события.
const defaultPublishTimeout = 5 * time.Second

// StepPayload — payload run.step.
type StepPayload struct {
	RunID    uuid.UUID `json:"run_id"`
	Title    string    `json:"title"`
	Step     string    `json:"step"`
	Position int       `json:"position"`
	Total    int       `json:"total"`
}

// DonePayload — payload run.done.
type DonePayload struct {
	RunID     uuid.UUID       `json:"run_id"`
	Title     string          `json:"title"`
	Scope     json.RawMessage `json:"scope,omitempty"`
	ElapsedMs int64           `json:"elapsed_ms"`
}

// ErrorPayload — payload run.error.
type ErrorPayload struct {
	RunID     uuid.UUID       `json:"run_id"`
	Title     string          `json:"title"`
	Step      string          `json:"step"`
	Error     string          `json:"error"`
	Scope     json.RawMessage `json:"scope,omitempty"`
	ElapsedMs int64           `json:"elapsed_ms"`
}

// EventPublisher — runner.Observer, публикующий события run в RabbitMQ.
//
// Публикация синхронная (в горутине executor runner) с таймаутом;
// ошибки публикации только логируются и не влияют на run.
type EventPublisher struct {
	sender  Sender
	logger  *slog.Logger
	timeout time.Duration
}

// NewEventPublisher создаёт EventPublisher.
func NewEventPublisher(sender Sender, logger *slog.Logger) *EventPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventPublisher{
		sender:  sender,
		logger:  logger,
		timeout: defaultPublishTimeout,
	}
}

// OnStep реализует runner.Observer.
func (p *EventPublisher) OnStep(ev runner.StepEvent) {
	p.publish(ev.Title, NewMessage(MessageTypeStep, StepPayload{
		RunID:    ev.RunID,
		Title:    ev.Title,
		Step:     ev.Name,
		Position: ev.Position,
		Total:    ev.Total,
	}))
}

// OnDone реализует runner.Observer.
func (p *EventPublisher) OnDone(ev runner.DoneEvent) {
	p.publish(ev.Title, NewMessage(MessageTypeDone, DonePayload{
		RunID:     ev.RunID,
		Title:     ev.Title,
		Scope:     p.encodeScope(ev.Scope),
		ElapsedMs: ev.Elapsed.Milliseconds(),
	}))
}

// OnError реализует runner.Observer.
func (p *EventPublisher) OnError(ev runner.ErrorEvent) {
	var errText string
	if ev.Err != nil {
		errText = ev.Err.Error()
	}

	p.publish(ev.Title, NewMessage(MessageTypeError, ErrorPayload{
		RunID:     ev.RunID,
		Title:     ev.Title,
		Step:      ev.Step,
		Error:     errText,
		Scope:     p.encodeScope(ev.Scope),
		ElapsedMs: ev.Elapsed.Milliseconds(),
	}))
}

func (p *EventPublisher) publish(title string, msg *Message) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.sender.Publish(ctx, ExchangeEvents, RoutingKeyFor(msg.Type, title), msg); err != nil {
		p.logger.Warn("failed to publish run event",
			"type", msg.Type,
			"error", err,
		)
	}
}

// encodeScope сериализует scope. Несериализуемый scope (функции, каналы)
// публикуется без поля scope.
func (p *EventPublisher) encodeScope(scope []any) json.RawMessage {
	raw, err := json.Marshal(scope)
	if err != nil {
		p.logger.Debug("scope is not JSON-encodable, omitting", "error", err)
		return nil
	}
	return raw
}
