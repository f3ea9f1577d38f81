package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/shaiso/stairs/internal/runner"
	"github.com/shaiso/stairs/internal/steps"
)

func TestMetrics_Events(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.OnStep(runner.StepEvent{Title: "deploy", Name: "build", Position: 1, Total: 2})
	m.OnStep(runner.StepEvent{Title: "deploy", Name: "build", Position: 1, Total: 2})
	m.OnDone(runner.DoneEvent{Title: "deploy", Elapsed: time.Second})
	m.OnError(runner.ErrorEvent{Title: "deploy", Err: errors.New("boom")})

	if got := testutil.ToFloat64(m.StepsTotal.WithLabelValues("deploy", "build")); got != 2 {
		t.Errorf("expected 2 steps, got %v", got)
	}
	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("deploy", ResultDone)); got != 1 {
		t.Errorf("expected 1 done run, got %v", got)
	}
	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("deploy", ResultError)); got != 1 {
		t.Errorf("expected 1 failed run, got %v", got)
	}
}

func TestMetrics_Runner(t *testing.T) {
	m := New(prometheus.NewRegistry())
	r := runner.New(runner.Config{Title: "metered", Observers: []runner.Observer{m}})

	next := func(ctl steps.Control, scope ...any) { ctl.Next(nil) }
	r.StepNamed("a", next).StepNamed("b", next)

	done := make(chan struct{})
	r.Run(runner.Completion(func(...any) { close(done) }))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run did not finish")
	}

	if got := testutil.ToFloat64(m.StepsTotal.WithLabelValues("metered", "a")); got != 1 {
		t.Errorf("expected step a counted once, got %v", got)
	}
	// OnDone вызывается до callback завершения
	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("metered", ResultDone)); got != 1 {
		t.Errorf("expected 1 done run, got %v", got)
	}
}

func TestNew_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	New(reg)
}
