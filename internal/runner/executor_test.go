package runner

import (
	"sync"
	"testing"
)

func TestExecutor_FIFO(t *testing.T) {
	e := &executor{}

	var mu sync.Mutex
	var got []int
	done := make(chan struct{})

	const n = 100
	for i := 0; i < n; i++ {
		e.schedule(func() {
			mu.Lock()
			got = append(got, i)
			last := len(got) == n
			mu.Unlock()
			if last {
				close(done)
			}
		})
	}

	wait(t, done)

	for i, v := range got {
		if v != i {
			t.Fatalf("task %d ran at position %d", v, i)
		}
	}
}

func TestExecutor_NeverInline(t *testing.T) {
	e := &executor{}

	// Если schedule выполнит задачу синхронно, она заблокируется на mu
	var mu sync.Mutex
	ran := make(chan struct{})

	mu.Lock()
	e.schedule(func() {
		mu.Lock()
		defer mu.Unlock()
		close(ran)
	})
	mu.Unlock()

	wait(t, ran)
}

func TestExecutor_NestedSchedule(t *testing.T) {
	e := &executor{}

	var order []string
	done := make(chan struct{})

	e.schedule(func() {
		order = append(order, "outer")
		e.schedule(func() {
			order = append(order, "nested")
			close(done)
		})
		order = append(order, "outer-end")
	})

	wait(t, done)

	want := []string{"outer", "outer-end", "nested"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestExecutor_Restarts(t *testing.T) {
	e := &executor{}

	for round := 0; round < 3; round++ {
		done := make(chan struct{})
		e.schedule(func() { close(done) })
		wait(t, done)
	}
}
