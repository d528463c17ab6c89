package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunExecutesEveryTask(t *testing.T) {
	p := New(4)
	var completed atomic.Int32
	tasks := make([]Task, 20)
	for i := range tasks {
		tasks[i] = func(ctx context.Context, workerID int) error {
			completed.Add(1)
			return nil
		}
	}
	if err := p.Run(context.Background(), tasks); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := completed.Load(); got != int32(len(tasks)) {
		t.Fatalf("completed = %d, want %d", got, len(tasks))
	}
}

func TestRunPropagatesFirstError(t *testing.T) {
	p := New(2)
	boom := errors.New("boom")
	tasks := []Task{
		func(ctx context.Context, workerID int) error { return nil },
		func(ctx context.Context, workerID int) error { return boom },
		func(ctx context.Context, workerID int) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
	err := p.Run(context.Background(), tasks)
	if err == nil {
		t.Fatalf("expected an error from the fleet")
	}
}

func TestRunRespectsConcurrencyBound(t *testing.T) {
	p := New(3)
	var concurrent, max atomic.Int32
	tasks := make([]Task, 12)
	for i := range tasks {
		tasks[i] = func(ctx context.Context, workerID int) error {
			n := concurrent.Add(1)
			defer concurrent.Add(-1)
			for {
				cur := max.Load()
				if n <= cur || max.CompareAndSwap(cur, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			return nil
		}
	}
	if err := p.Run(context.Background(), tasks); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if max.Load() > 3 {
		t.Fatalf("observed %d concurrent tasks, want <= 3", max.Load())
	}
}
