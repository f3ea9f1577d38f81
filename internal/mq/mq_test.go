package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/shaiso/stairs/internal/runner"
)

// fakeSender запоминает опубликованные сообщения.
type fakeSender struct {
	keys []RoutingKey
	msgs []*Message
	err  error
}

func (s *fakeSender) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	if exchange != ExchangeEvents {
		return errors.New("unexpected exchange " + string(exchange))
	}
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish context must have a deadline")
	}
	s.keys = append(s.keys, routingKey)
	s.msgs = append(s.msgs, msg)
	return s.err
}

// --- EventPublisher Tests ---

func TestEventPublisher_Step(t *testing.T) {
	sender := &fakeSender{}
	p := NewEventPublisher(sender, nil)

	runID := uuid.New()
	p.OnStep(runner.StepEvent{RunID: runID, Title: "deploy", Name: "build", Position: 1, Total: 3})

	if len(sender.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sender.msgs))
	}
	if sender.keys[0] != "run.step.deploy" {
		t.Errorf("unexpected routing key %s", sender.keys[0])
	}

	msg := sender.msgs[0]
	if msg.Type != MessageTypeStep {
		t.Errorf("expected run.step, got %s", msg.Type)
	}
	if msg.ID == "" {
		t.Error("message ID should be set")
	}

	want := StepPayload{RunID: runID, Title: "deploy", Step: "build", Position: 1, Total: 3}
	if diff := cmp.Diff(want, msg.Payload); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestEventPublisher_DoneWithScope(t *testing.T) {
	sender := &fakeSender{}
	p := NewEventPublisher(sender, nil)

	p.OnDone(runner.DoneEvent{
		Title:   "deploy",
		Scope:   []any{map[string]any{"x": 1}},
		Elapsed: 1500 * time.Millisecond,
	})

	payload := sender.msgs[0].Payload.(DonePayload)
	if string(payload.Scope) != `[{"x":1}]` {
		t.Errorf("unexpected scope %s", payload.Scope)
	}
	if payload.ElapsedMs != 1500 {
		t.Errorf("expected 1500ms, got %d", payload.ElapsedMs)
	}
}

func TestEventPublisher_ErrorUnencodableScope(t *testing.T) {
	sender := &fakeSender{}
	p := NewEventPublisher(sender, nil)

	p.OnError(runner.ErrorEvent{
		Title: "deploy",
		Step:  "push",
		Err:   errors.New("boom"),
		Scope: []any{func() {}},
	})

	if sender.keys[0] != "run.error.deploy" {
		t.Errorf("unexpected routing key %s", sender.keys[0])
	}
	payload := sender.msgs[0].Payload.(ErrorPayload)
	if payload.Error != "boom" || payload.Step != "push" {
		t.Errorf("unexpected payload %+v", payload)
	}
	if payload.Scope != nil {
		t.Errorf("unencodable scope should be omitted, got %s", payload.Scope)
	}
}

func TestEventPublisher_SendErrorIgnored(t *testing.T) {
	sender := &fakeSender{err: ErrNoChannel}
	p := NewEventPublisher(sender, nil)

	// Ошибка публикации не должна паниковать или блокировать
	p.OnDone(runner.DoneEvent{Title: "t"})
	if len(sender.msgs) != 1 {
		t.Errorf("expected publish attempt, got %d", len(sender.msgs))
	}
}

// --- Decode Tests ---

func TestDecodeMessage(t *testing.T) {
	runID := uuid.New()
	body, err := json.Marshal(NewMessage(MessageTypeError, ErrorPayload{
		RunID: runID,
		Title: "deploy",
		Step:  "push",
		Error: "boom",
		Scope: json.RawMessage(`[{"a":1}]`),
	}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	msg, err := DecodeMessage(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Type != MessageTypeError {
		t.Errorf("expected run.error, got %s", msg.Type)
	}

	payload, err := ParsePayload[ErrorPayload](msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.RunID != runID || payload.Error != "boom" {
		t.Errorf("unexpected payload %+v", payload)
	}
	if string(payload.Scope) != `[{"a":1}]` {
		t.Errorf("unexpected scope %s", payload.Scope)
	}
}

func TestDecodeMessage_Invalid(t *testing.T) {
	for _, body := range []string{"not json", `{"id":"1"}`} {
		if _, err := DecodeMessage([]byte(body)); err == nil {
			t.Errorf("expected error for %q", body)
		}
	}
}

func TestRoutingKeyFor(t *testing.T) {
	if got := RoutingKeyFor(MessageTypeDone, "nightly"); got != "run.done.nightly" {
		t.Errorf("unexpected routing key %s", got)
	}
}
