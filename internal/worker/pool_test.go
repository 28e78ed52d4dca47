package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func makeTask(idx int, delay time.Duration, fail bool) Task {
	return Task{
		LevelIndex: idx,
		Run: func(ctx context.Context) (any, error) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			if fail {
				return nil, errors.New("simulated failure")
			}
			return idx, nil
		},
	}
}

func TestPoolBasicExecution(t *testing.T) {
	pool := New(Config{Workers: 2})

	tasks := []Task{makeTask(0, 10*time.Millisecond, false), makeTask(1, 10*time.Millisecond, false), makeTask(2, 10*time.Millisecond, false)}

	results := pool.Run(context.Background(), tasks)
	if len(results) != len(tasks) {
		t.Errorf("expected %d results, got %d", len(tasks), len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("unexpected error for level %d: %v", r.LevelIndex, r.Err)
		}
	}
}

func TestPoolParallelism(t *testing.T) {
	pool := New(Config{Workers: 4})

	tasks := make([]Task, 8)
	for i := range tasks {
		tasks[i] = makeTask(i, 50*time.Millisecond, false)
	}

	start := time.Now()
	results := pool.Run(context.Background(), tasks)
	elapsed := time.Since(start)

	if elapsed > 200*time.Millisecond {
		t.Errorf("expected parallel execution in ~100ms, took %v", elapsed)
	}
	if len(results) != len(tasks) {
		t.Errorf("expected %d results, got %d", len(tasks), len(results))
	}
}

func TestPoolErrorHandling(t *testing.T) {
	pool := New(Config{Workers: 2})

	tasks := []Task{
		makeTask(0, 10*time.Millisecond, false),
		makeTask(1, 10*time.Millisecond, true),
		makeTask(2, 10*time.Millisecond, false),
	}

	results := pool.Run(context.Background(), tasks)
	if len(results) != len(tasks) {
		t.Errorf("expected %d results, got %d", len(tasks), len(results))
	}

	var successCount, failCount int
	for _, r := range results {
		if r.Err != nil {
			failCount++
			if r.LevelIndex != 1 {
				t.Errorf("unexpected failure for level %d", r.LevelIndex)
			}
		} else {
			successCount++
		}
	}
	if successCount != 2 || failCount != 1 {
		t.Errorf("expected 2 successes and 1 failure, got %d/%d", successCount, failCount)
	}
}

func TestPoolCancellation(t *testing.T) {
	pool := New(Config{Workers: 2})

	tasks := make([]Task, 10)
	for i := range tasks {
		tasks[i] = makeTask(i, 100*time.Millisecond, false)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	results := pool.Run(ctx, tasks)
	elapsed := time.Since(start)

	if elapsed > 300*time.Millisecond {
		t.Errorf("expected early cancellation, took %v", elapsed)
	}
	t.Logf("completed with %d results in %v", len(results), elapsed)
}

func TestPoolProgressCallback(t *testing.T) {
	var progressCalls atomic.Int32
	var lastCompleted, lastTotal int

	pool := New(Config{
		Workers: 2,
		OnProgress: func(completed, total, failed int) {
			progressCalls.Add(1)
			lastCompleted = completed
			lastTotal = total
		},
	})

	tasks := []Task{makeTask(0, 10*time.Millisecond, false), makeTask(1, 10*time.Millisecond, false), makeTask(2, 10*time.Millisecond, false)}
	pool.Run(context.Background(), tasks)

	if progressCalls.Load() == 0 {
		t.Error("expected progress callbacks, got none")
	}
	if lastCompleted != len(tasks) || lastTotal != len(tasks) {
		t.Errorf("expected final callback completed=total=%d, got completed=%d total=%d", len(tasks), lastCompleted, lastTotal)
	}
}

func TestPoolEmptyTasks(t *testing.T) {
	pool := New(Config{Workers: 2})
	results := pool.Run(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected 0 results for empty tasks, got %d", len(results))
	}
}
