// Package mq публикует события run в RabbitMQ и читает их обратно.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — exchange stairs.events и очередь для чтения
//   - publisher.go  — Message и Publisher
//   - events.go     — EventPublisher (runner.Observer) и payloads
//   - consumer.go   — Consumer и разбор сообщений
//
// Типы сообщений (routing key "<type>.<title>"):
//   - run.step  — шаг начинает выполняться
//   - run.done  — run завершён
//   - run.error — шаг вернул ошибку
//
// Exchange:
//
//	stairs.events (topic)
//	└── stairs.events.tail [routing: run.#]
//	        Consumer: stairs events
package mq
