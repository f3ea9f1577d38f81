package cli

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shaiso/stairs/internal/mq"
	"github.com/shaiso/stairs/internal/runner"
	"github.com/shaiso/stairs/internal/steps"
)

// --- Sample Tests ---

func newServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusOK {
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func stepNames(r *runner.Runner) []string {
	var names []string
	for _, s := range r.Steps() {
		names = append(names, s.Name)
	}
	return names
}

func TestNewSample_Steps(t *testing.T) {
	r := NewSample(SampleConfig{}, runner.Config{})
	if diff := cmp.Diff([]string{"fetch", "check", "summarize"}, stepNames(r)); diff != "" {
		t.Errorf("steps mismatch (-want +got):\n%s", diff)
	}
	if r.Title() != SampleTitle {
		t.Errorf("expected title %q, got %q", SampleTitle, r.Title())
	}

	r = NewSample(SampleConfig{Delay: time.Millisecond}, runner.Config{Title: "custom"})
	if diff := cmp.Diff([]string{"fetch", "check", "wait", "summarize"}, stepNames(r)); diff != "" {
		t.Errorf("steps mismatch (-want +got):\n%s", diff)
	}
	if r.Title() != "custom" {
		t.Errorf("expected title custom, got %q", r.Title())
	}
}

func TestSample_OK(t *testing.T) {
	srv := newServer(t, http.StatusOK)

	var visited []string
	r := NewSample(SampleConfig{Delay: time.Millisecond}, runner.Config{})
	r.OnStep(func(ev runner.StepEvent) { visited = append(visited, ev.Name) })

	scope, err := r.RunWait(t.Context(), SampleScope(srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := scope[0].(map[string]any)
	if rec["status"] != int64(200) {
		t.Errorf("expected status 200, got %v (%T)", rec["status"], rec["status"])
	}
	if rec["content_type"] != "application/json" {
		t.Errorf("expected content_type application/json, got %v", rec["content_type"])
	}
	if diff := cmp.Diff([]string{"fetch", "check", "wait", "summarize"}, visited); diff != "" {
		t.Errorf("visited mismatch (-want +got):\n%s", diff)
	}
}

func TestSample_NoContentEndsEarly(t *testing.T) {
	srv := newServer(t, http.StatusNoContent)

	r := NewSample(SampleConfig{}, runner.Config{})
	scope, err := r.RunWait(t.Context(), SampleScope(srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := scope[0].(map[string]any)
	if rec["empty"] != true {
		t.Errorf("expected empty=true, got %v", rec["empty"])
	}
	if _, ok := rec["status"]; ok {
		t.Error("summarize should not run after End")
	}
}

func TestSample_NotModifiedSkipsWait(t *testing.T) {
	srv := newServer(t, http.StatusNotModified)

	var visited []string
	r := NewSample(SampleConfig{Delay: time.Hour}, runner.Config{})
	r.OnStep(func(ev runner.StepEvent) { visited = append(visited, ev.Name) })

	scope, err := r.RunWait(t.Context(), SampleScope(srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff([]string{"fetch", "check", "summarize"}, visited); diff != "" {
		t.Errorf("visited mismatch (-want +got):\n%s", diff)
	}
	if rec := scope[0].(map[string]any); rec["status"] != int64(304) {
		t.Errorf("expected status 304, got %v", rec["status"])
	}
}

func TestSample_HTTPError(t *testing.T) {
	srv := newServer(t, http.StatusInternalServerError)

	r := NewSample(SampleConfig{}, runner.Config{})
	_, err := r.RunWait(t.Context(), SampleScope(srv.URL))
	if !errors.Is(err, steps.ErrHTTPStatus) {
		t.Errorf("expected ErrHTTPStatus, got %v", err)
	}
}

// --- Output Tests ---

func newTestOutput(jsonMode bool) (*Output, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Output{jsonMode: jsonMode, w: &buf, errW: &bytes.Buffer{}}, &buf
}

func TestOutput_Table(t *testing.T) {
	out, buf := newTestOutput(false)
	out.Print([]string{"POSITION", "NAME"}, [][]string{{"1", "fetch"}, {"2", "check"}}, nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "POSITION") || !strings.HasPrefix(lines[1], "--------") {
		t.Errorf("unexpected header: %q", lines[:2])
	}
	if !strings.Contains(lines[3], "check") {
		t.Errorf("expected check row, got %q", lines[3])
	}
}

func TestOutput_JSONMode(t *testing.T) {
	out, buf := newTestOutput(true)
	out.Print([]string{"NAME"}, [][]string{{"fetch"}}, []string{"fetch"})

	if got := strings.Join(strings.Fields(buf.String()), ""); got != `["fetch"]` {
		t.Errorf("unexpected JSON: %q", buf.String())
	}

	buf.Reset()
	out.Line("ignored", map[string]int{"a": 1})
	if buf.String() != "{\"a\":1}\n" {
		t.Errorf("unexpected line: %q", buf.String())
	}
}

// --- Events Tests ---

func TestFormatEvent(t *testing.T) {
	runID := uuid.MustParse("0a1b2c3d-0000-0000-0000-000000000000")
	ts := time.Date(2025, 1, 1, 12, 30, 45, 0, time.UTC)

	tests := []struct {
		name    string
		msg     *mq.Message
		want    string
		wantErr bool
	}{
		{
			name: "step",
			msg: &mq.Message{Type: mq.MessageTypeStep, Timestamp: ts, Payload: mq.StepPayload{
				RunID: runID, Title: "t", Step: "fetch", Position: 1, Total: 3,
			}},
			want: `12:30:45.000  run.step   t  0a1b2c3d  step 1/3 "fetch"`,
		},
		{
			name: "done",
			msg: &mq.Message{Type: mq.MessageTypeDone, Timestamp: ts, Payload: mq.DonePayload{
				RunID: runID, Title: "t", ElapsedMs: 42,
			}},
			want: `12:30:45.000  run.done   t  0a1b2c3d  done in 42ms`,
		},
		{
			name: "error",
			msg: &mq.Message{Type: mq.MessageTypeError, Timestamp: ts, Payload: mq.ErrorPayload{
				RunID: runID, Title: "t", Step: "fetch", Error: "boom",
			}},
			want: `12:30:45.000  run.error  t  0a1b2c3d  step "fetch" failed: boom`,
		},
		{
			name: "unknown type",
			msg:  &mq.Message{Type: "run.other", Timestamp: ts},
			want: `12:30:45.000  run.other`,
		},
		{
			name:    "bad payload",
			msg:     &mq.Message{Type: mq.MessageTypeStep, Timestamp: ts, Payload: "not an object"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatEvent(tt.msg)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

// --- HTTP Tests ---

func TestNewMux(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	srv := httptest.NewServer(newMux(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	var body bytes.Buffer
	body.ReadFrom(resp.Body)
	if !strings.Contains(body.String(), "test_total 1") {
		t.Errorf("expected test_total in metrics, got %q", body.String())
	}
}

func TestMetricsAddr(t *testing.T) {
	t.Setenv("METRICS_PORT", "")
	if got := metricsAddr(); got != ":9090" {
		t.Errorf("expected :9090, got %q", got)
	}

	t.Setenv("METRICS_PORT", "8081")
	if got := metricsAddr(); got != ":8081" {
		t.Errorf("expected :8081, got %q", got)
	}
}

func TestConnectEvents_Disabled(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")

	observers, closeFn := connectEvents(t.Context(), nil)
	defer closeFn()

	if len(observers) != 0 {
		t.Errorf("expected no observers, got %d", len(observers))
	}
}
