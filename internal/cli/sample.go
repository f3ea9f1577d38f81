package cli

import (
	"time"

	"github.com/shaiso/stairs/internal/runner"
	"github.com/shaiso/stairs/internal/steps"
)

// SampleTitle — название демонстрационной лестницы.
const SampleTitle = "fetch-summary"

// SampleConfig — параметры демонстрационной лестницы.
type SampleConfig struct {
	// URL — адрес, который запрашивает шаг fetch.
	URL string

	// Delay — пауза между fetch и summarize (0 — шаг wait не регистрируется).
	Delay time.Duration

	// Timeout — таймаут HTTP запроса.
	Timeout time.Duration
}

// NewSample строит лестницу fetch → check → wait → summarize.
//
// check завершает run досрочно для 204 No Content и пропускает
// wait для ответов из кэша (304).
func NewSample(cfg SampleConfig, rc runner.Config) *runner.Runner {
	if rc.Title == "" {
		rc.Title = SampleTitle
	}
	r := runner.New(rc)

	r.StepNamed("fetch", steps.HTTP(steps.HTTPConfig{
		Method:  "GET",
		URL:     "{{ .url }}",
		Key:     "fetch",
		Timeout: cfg.Timeout,
	}))

	r.StepNamed("check", checkStatus)

	r.StepWith(steps.Options{Name: "wait", Exclude: cfg.Delay <= 0}, steps.Delay(cfg.Delay))

	r.StepNamed("summarize", steps.Transform(map[string]string{
		"status":       "{{ .fetch.status_code }}",
		"content_type": `{{ index .fetch.headers "Content-Type" }}`,
	}))

	return r
}

// SampleScope возвращает начальную запись scope для NewSample.
func SampleScope(url string) map[string]any {
	return map[string]any{"url": url}
}

func checkStatus(ctl steps.Control, scope ...any) {
	rec, err := steps.Record(scope)
	if err != nil {
		ctl.Next(err)
		return
	}

	resp, _ := rec["fetch"].(map[string]any)
	switch resp["status_code"] {
	case 204:
		rec["empty"] = true
		ctl.End()
	case 304:
		if err := ctl.Skip("summarize"); err != nil {
			ctl.Next(err)
		}
	default:
		ctl.Next(nil)
	}
}
