// Package scheduler запускает run лестницы по cron-расписанию.
//
// Выражения разбираются robfig/cron: стандартные 5 полей
// (минута, час, день месяца, месяц, день недели) и дескрипторы:
//
//	"*/5 * * * *"  — каждые 5 минут
//	"0 3 * * 1"    — по понедельникам в 03:00
//	"@every 30s"   — каждые 30 секунд
//	"@hourly"      — раз в час
//
// Тик вызывает Runner.RunWait и ждёт окончания run; пока run идёт,
// следующие тики пропускаются (cron.SkipIfStillRunning).
package scheduler
