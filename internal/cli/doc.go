// Package cli реализует команды бинаря stairs.
//
// # Обзор
//
// Команды запускают демонстрационную лестницу fetch-summary:
//
//	fetch      HTTP GET по адресу из записи scope (ключ "url")
//	check      204 — End, 304 — Skip("summarize"), иначе Next
//	wait       пауза (регистрируется только при --delay > 0)
//	summarize  Transform: status и content_type из ответа
//
// # Команды
//
//   - run: однократный запуск, финальный scope печатается в stdout как JSON
//   - schedule: запуск по cron-расписанию, /healthz и /metrics на METRICS_PORT
//   - events: чтение событий run из RabbitMQ (очередь stairs.events.tail)
//   - steps: список шагов лестницы
//
// Если задан RABBITMQ_URL, run и schedule публикуют события
// run.step / run.done / run.error в exchange stairs.events.
// Недоступный брокер не мешает запуску: пишется предупреждение.
//
// Каждая команда создаётся фабричной функцией (NewRunCmd и т.д.),
// принимающей envFn — замыкание для ленивого создания Env после
// парсинга PersistentFlags.
package cli
