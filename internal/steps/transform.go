package steps

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Transform возвращает шаг трансформации записи scope.
//
// Каждый mapping — Go template, рендерится по записи scope,
// результат (JSON-значение, если распарсилось) кладётся обратно под ключом:
//
//	Transform(map[string]string{
//	    "total": "{{ len .http.body.items }}",
//	    "first": "{{ index .http.body.items 0 | json }}",
//	})
//
// Шаг синхронный: все mappings рендерятся до записи результатов,
// так что mappings не видят друг друга.
func Transform(mappings map[string]string) Func {
	return func(ctl Control, scope ...any) {
		rec, err := Record(scope)
		if err != nil {
			ctl.Next(err)
			return
		}

		keys := make([]string, 0, len(mappings))
		for key := range mappings {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		outputs := make(map[string]any, len(mappings))
		for _, key := range keys {
			rendered, err := Render(mappings[key], rec)
			if err != nil {
				ctl.Next(fmt.Errorf("transform %s: %w", key, err))
				return
			}
			outputs[key] = parseValue(rendered)
		}

		for key, value := range outputs {
			rec[key] = value
		}
		ctl.Next(nil)
	}
}

// parseValue пытается распарсить строку как JSON.
// Если не получается — возвращает строку как есть.
func parseValue(value string) any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(value), &obj); err == nil {
		return obj
	}

	var arr []any
	if err := json.Unmarshal([]byte(value), &arr); err == nil {
		return arr
	}

	var num json.Number
	if err := json.Unmarshal([]byte(value), &num); err == nil {
		if i, err := num.Int64(); err == nil {
			return i
		}
		if f, err := num.Float64(); err == nil {
			return f
		}
	}

	if value == "true" {
		return true
	}
	if value == "false" {
		return false
	}

	return value
}
