// Package steps содержит реестр шагов и встроенные шаги для лестницы (runner).
//
// # Обзор
//
// Шаг — именованная функция, которая получает Control и текущий scope:
//
//	type Func func(ctl Control, scope ...any)
//
// Шаг меняет scope на месте (это единственный способ передать данные
// следующему шагу) и сообщает о завершении через ctl.Next(err).
// Вызывать Next можно синхронно или из другой горутины.
//
// # Registry
//
// Registry — упорядоченный список шагов, только на добавление:
//
//	r := steps.NewRegistry()
//	r.Add(steps.Options{Name: "fetch"}, fetch)
//	r.Add(steps.Options{}, summarize)            // "Untitled Step 1"
//	r.Add(steps.Options{Exclude: !debug}, dump)  // условная регистрация
//
// Add возвращает ErrNotInvocable для nil функции.
//
// # Встроенные шаги
//
// Встроенные шаги работают с первой записью scope (map[string]any):
//   - Delay(d)        — асинхронная пауза
//   - HTTP(cfg)       — HTTP запрос, результат в запись под cfg.Key
//   - Transform(m)    — Go templates по записи, результаты обратно в запись
//
// Если первый элемент scope не map[string]any, шаг завершается с ErrScopeRecord.
//
// # Файлы пакета
//
//   - step.go      — Func, Control, Step, Options, ошибки
//   - registry.go  — Registry
//   - delay.go     — Delay
//   - http.go      — HTTP
//   - transform.go — Transform
//   - template.go  — Render и функции шаблонов
package steps
