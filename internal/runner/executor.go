package runner

import "sync"

// executor — очередь отложенных задач.
//
// Задачи выполняются строго по одной, в порядке постановки, в одной
// горутине. Горутина стартует при первой задаче и завершается, когда
// очередь опустела. Каждое продвижение run — отдельная задача, поэтому
// длинная цепочка синхронных шагов не растит стек.
type executor struct {
	mu      sync.Mutex
	queue   []func()
	running bool
}

// schedule ставит задачу в очередь. Никогда не выполняет её синхронно.
func (e *executor) schedule(fn func()) {
	e.mu.Lock()
	e.queue = append(e.queue, fn)
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	go e.drain()
}

// drain выполняет задачи, пока очередь не опустеет.
func (e *executor) drain() {
	for {
		e.mu.Lock()
		if len(e.queue) == 0 {
			e.running = false
			e.mu.Unlock()
			return
		}
		fn := e.queue[0]
		e.queue[0] = nil
		e.queue = e.queue[1:]
		e.mu.Unlock()

		fn()
	}
}
