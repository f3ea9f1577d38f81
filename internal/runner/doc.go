// Package runner выполняет шаги лестницы строго по очереди.
//
// # Обзор
//
// Runner хранит упорядоченные шаги и запускает по ним run:
//
//	r := runner.New(runner.Config{Title: "deploy"})
//	r.StepNamed("build", build).
//	    StepNamed("push", push).
//	    Step(notify)
//
//	r.OnError(func(ev runner.ErrorEvent) { ... })
//	r.Run(map[string]any{"tag": "v1"}, runner.Completion(func(scope ...any) {
//	    // все шаги выполнены, scope содержит их результаты
//	}))
//
// Run не блокирует: первый шаг запускается уже после возврата из Run.
// RunWait запускает run и ждёт его окончания (scope или ошибка шага).
//
// # Жизненный цикл run
//
// Каждый Run создаёт RunState (курсор -1, terminated=false, своя копия шагов).
// Продвижение (advance):
//   - run завершён → ничего
//   - курсор++
//   - шаг вернул ошибку → terminated, уведомление error; callback не вызывается
//   - шаги кончились → terminated, уведомление done, затем callback
//   - иначе → уведомление step(name, position, total) и вызов шага
//
// Шаг сообщает о завершении через ctl.Next(err); эффект откладывается
// в executor, поэтому повторные и поздние вызовы безопасны и ничего не делают
// после завершения run. ctl.Skip(name) переходит к первому шагу с таким
// именем (вперёд или назад), ctl.End() завершает run досрочно.
//
// # Executor
//
// Все задачи run одного Runner (продвижение, уведомления, тела шагов,
// callback завершения) выполняются в одной горутине по очереди.
// Шаг, который блокирует горутину, задерживает и другие run этого Runner;
// долгую работу шаг выполняет в своей горутине и потом вызывает Next.
//
// # Уведомления
//
// Observer получает StepEvent, DoneEvent и ErrorEvent. Ошибка, которую
// никто не обрабатывает, пишется в лог с уровнем WARN.
//
// # Файлы пакета
//
//   - runner.go       — Runner, Config, регистрация, Run, подписки
//   - state.go        — RunState: advance, Next, Skip, End
//   - executor.go     — очередь отложенных задач
//   - events.go       — события и Observer
//   - log_observer.go — Observer для structured logging
//   - errors.go       — ошибки
package runner
