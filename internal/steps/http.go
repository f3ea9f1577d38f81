package steps

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Ошибки HTTP шага.
var (
	// ErrHTTPRequest — запрос не удалось выполнить.
	ErrHTTPRequest = errors.New("http request failed")

	// ErrHTTPStatus — сервер ответил статусом >= 400.
	ErrHTTPStatus = errors.New("http error status")
)

const (
	// Значения по умолчанию.
	defaultHTTPTimeout = 30 * time.Second
	defaultHTTPKey     = "http"
	maxResponseBody    = 10 * 1024 * 1024 // 10 MB
)

// HTTPConfig — конфигурация HTTP шага.
//
// URL и значения заголовков — шаблоны, рендерятся по записи scope:
//
//	HTTPConfig{URL: "https://api.example.com/users/{{ .user_id }}"}
type HTTPConfig struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    any

	// Key — ключ в записи scope, куда кладётся результат (default: "http").
	Key string

	NoRedirects   bool
	SkipTLSVerify bool
	Timeout       time.Duration

	// Client — переопределяет HTTP клиент (используется в тестах).
	Client *http.Client
}

// HTTPError — ответ с ошибочным статусом.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

// Error реализует интерфейс error.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// Unwrap позволяет проверять errors.Is(err, ErrHTTPStatus).
func (e *HTTPError) Unwrap() error {
	return ErrHTTPStatus
}

// HTTP возвращает шаг, выполняющий HTTP запрос.
//
// Результат записывается в запись scope под cfg.Key:
//
//	{
//	    "status_code": 200,
//	    "headers": {"Content-Type": "application/json", ...},
//	    "body": {...}  // parsed JSON or string
//	}
//
// Запрос выполняется в отдельной горутине, Next вызывается по его окончании.
func HTTP(cfg HTTPConfig) Func {
	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}
	cfg.Method = strings.ToUpper(cfg.Method)
	if cfg.Key == "" {
		cfg.Key = defaultHTTPKey
	}

	return func(ctl Control, scope ...any) {
		rec, err := Record(scope)
		if err != nil {
			ctl.Next(err)
			return
		}

		if cfg.URL == "" {
			ctl.Next(fmt.Errorf("%w: http: url is required", ErrInvalidConfig))
			return
		}

		// Рендерим шаблоны до запуска горутины: запись читается только здесь
		url, err := Render(cfg.URL, rec)
		if err != nil {
			ctl.Next(fmt.Errorf("http url: %w", err))
			return
		}
		headers := make(map[string]string, len(cfg.Headers))
		for key, value := range cfg.Headers {
			rendered, err := Render(value, rec)
			if err != nil {
				ctl.Next(fmt.Errorf("http header %s: %w", key, err))
				return
			}
			headers[key] = rendered
		}

		ctx := ctl.Context()

		go func() {
			outputs, err := doHTTP(ctx, &cfg, url, headers)
			if err != nil {
				ctl.Next(err)
				return
			}
			rec[cfg.Key] = outputs
			ctl.Next(nil)
		}()
	}
}

// doHTTP выполняет запрос и возвращает outputs.
func doHTTP(ctx context.Context, cfg *HTTPConfig, url string, headers map[string]string) (map[string]any, error) {
	client := cfg.Client
	if client == nil {
		client = buildClient(cfg)
	}

	req, err := buildRequest(ctx, cfg.Method, url, headers, cfg.Body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrStepCancelled, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %v", ErrHTTPRequest, err)
	}
	defer resp.Body.Close()

	outputs, raw, err := parseResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       raw,
		}
	}

	return outputs, nil
}

// buildClient создаёт HTTP клиент с нужными настройками.
func buildClient(cfg *HTTPConfig) *http.Client {
	timeout := defaultHTTPTimeout
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	var checkRedirect func(*http.Request, []*http.Request) error
	if cfg.NoRedirects {
		checkRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return &http.Client{
		Timeout:       timeout,
		CheckRedirect: checkRedirect,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.SkipTLSVerify,
			},
		},
	}
}

// buildRequest создаёт HTTP запрос.
func buildRequest(ctx context.Context, method, url string, headers map[string]string, body any) (*http.Request, error) {
	var bodyReader io.Reader

	if body != nil {
		bodyBytes, err := serializeBody(body)
		if err != nil {
			return nil, fmt.Errorf("serialize body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)

		if _, ok := headers["Content-Type"]; !ok {
			headers["Content-Type"] = "application/json"
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return req, nil
}

// serializeBody сериализует body в bytes.
func serializeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return json.Marshal(v)
	}
}

// parseResponse читает ответ в outputs. Второе значение — тело как строка.
func parseResponse(resp *http.Response) (map[string]any, string, error) {
	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, "", fmt.Errorf("read response body: %w", err)
	}

	var body any
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(bodyBytes, &body); err != nil {
			// Если не удалось распарсить JSON, возвращаем как строку
			body = string(bodyBytes)
		}
	} else {
		body = string(bodyBytes)
	}

	headers := make(map[string]string, len(resp.Header))
	for key := range resp.Header {
		headers[key] = resp.Header.Get(key)
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"headers":     headers,
		"body":        body,
	}, string(bodyBytes), nil
}
