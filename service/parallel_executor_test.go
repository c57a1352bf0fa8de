package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ludo-technologies/jsguard/domain"
)

// mockTask implements domain.ExecutableTask for testing
type mockTask struct {
	name     string
	enabled  bool
	execFunc func(ctx context.Context) (interface{}, error)
}

func (t *mockTask) Name() string { return t.name }

func (t *mockTask) Execute(ctx context.Context) (interface{}, error) {
	if t.execFunc != nil {
		return t.execFunc(ctx)
	}
	return nil, nil
}

func (t *mockTask) IsEnabled() bool { return t.enabled }

func newMockTaskWithExec(name string, execFunc func(ctx context.Context) (interface{}, error)) *mockTask {
	return &mockTask{name: name, enabled: true, execFunc: execFunc}
}

func TestNewParallelExecutor(t *testing.T) {
	tests := []struct {
		parallelism int
		expected    int
	}{
		{0, runtime.NumCPU()},
		{-3, runtime.NumCPU()},
		{8, 8},
	}
	for _, tc := range tests {
		executor := NewParallelExecutor(tc.parallelism)
		if executor.MaxConcurrency() != tc.expected {
			t.Errorf("NewParallelExecutor(%d): maxConcurrency = %d, expected %d", tc.parallelism, executor.MaxConcurrency(), tc.expected)
		}
		if executor.timeout != DefaultTimeout {
			t.Errorf("timeout should be %v, got %v", DefaultTimeout, executor.timeout)
		}
	}
}

func TestNewParallelExecutorWithProgress(t *testing.T) {
	pm := &NoOpProgressManager{}
	executor := NewParallelExecutorWithProgress(4, pm)
	if executor.progress != pm {
		t.Error("progress manager should be set")
	}
}

func TestParallelExecutor_EmptyTaskList(t *testing.T) {
	if err := NewParallelExecutor(2).Execute(context.Background(), nil); err != nil {
		t.Errorf("empty task list should return nil, got %v", err)
	}
}

func TestParallelExecutor_SkipsDisabledTasks(t *testing.T) {
	var executed atomic.Int32
	count := func(context.Context) (interface{}, error) {
		executed.Add(1)
		return nil, nil
	}
	tasks := []domain.ExecutableTask{
		newMockTaskWithExec("a.js", count),
		&mockTask{name: "b.js", enabled: false, execFunc: count},
		newMockTaskWithExec("c.js", count),
	}

	if err := NewParallelExecutor(2).Execute(context.Background(), tasks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if executed.Load() != 2 {
		t.Errorf("expected 2 executed tasks, got %d", executed.Load())
	}
}

func TestParallelExecutor_RespectsConcurrencyLimit(t *testing.T) {
	var running, peak atomic.Int32
	tasks := make([]domain.ExecutableTask, 12)
	for i := range tasks {
		tasks[i] = newMockTaskWithExec(fmt.Sprintf("f%d.js", i), func(context.Context) (interface{}, error) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return nil, nil
		})
	}

	if err := NewParallelExecutor(3).Execute(context.Background(), tasks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peak.Load() > 3 {
		t.Errorf("expected at most 3 concurrent tasks, saw %d", peak.Load())
	}
}

func TestParallelExecutor_CollectsAllErrors(t *testing.T) {
	boom := errors.New("boom")
	tasks := []domain.ExecutableTask{
		newMockTaskWithExec("a.js", func(context.Context) (interface{}, error) { return nil, boom }),
		newMockTaskWithExec("b.js", func(context.Context) (interface{}, error) { return nil, nil }),
		newMockTaskWithExec("c.js", func(context.Context) (interface{}, error) { return nil, fmt.Errorf("c failed") }),
	}

	err := NewParallelExecutor(1).Execute(context.Background(), tasks)

	var aggErr *AggregatedError
	if !errors.As(err, &aggErr) {
		t.Fatalf("expected *AggregatedError, got %T", err)
	}
	if len(aggErr.Errors) != 2 {
		t.Fatalf("expected 2 task errors, got %d", len(aggErr.Errors))
	}
	if !errors.Is(err, boom) {
		t.Error("errors.Is should find the first task error")
	}
	if !strings.Contains(aggErr.Error(), "2 tasks failed") {
		t.Errorf("unexpected message %q", aggErr.Error())
	}
}

func TestParallelExecutor_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var executed atomic.Int32
	tasks := make([]domain.ExecutableTask, 10)
	for i := range tasks {
		tasks[i] = newMockTaskWithExec(fmt.Sprintf("f%d.js", i), func(context.Context) (interface{}, error) {
			if executed.Add(1) == 2 {
				cancel()
			}
			return nil, nil
		})
	}

	err := NewParallelExecutor(1).Execute(ctx, tasks)

	if !errors.Is(err, domain.ErrCancelled) {
		t.Fatalf("expected a cancellation error, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected the context error as cause, got %v", err)
	}
	if executed.Load() != 2 {
		t.Errorf("expected no task to start after cancellation, %d ran", executed.Load())
	}
}

func TestParallelExecutor_Timeout(t *testing.T) {
	executor := NewParallelExecutor(1)
	executor.SetTimeout(20 * time.Millisecond)

	tasks := []domain.ExecutableTask{
		newMockTaskWithExec("slow.js", func(context.Context) (interface{}, error) {
			time.Sleep(50 * time.Millisecond)
			return nil, nil
		}),
		newMockTaskWithExec("next.js", func(context.Context) (interface{}, error) { return nil, nil }),
	}

	err := executor.Execute(context.Background(), tasks)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestTaskError(t *testing.T) {
	inner := errors.New("parse failed")
	err := TaskError{TaskName: "a.js", Err: inner}

	if err.Error() != "[a.js] parse failed" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("TaskError should unwrap to its cause")
	}
}

func TestParallelExecutor_SetMaxConcurrencyIgnoresInvalid(t *testing.T) {
	executor := NewParallelExecutor(2)
	executor.SetMaxConcurrency(0)
	if executor.MaxConcurrency() != 2 {
		t.Errorf("expected 2, got %d", executor.MaxConcurrency())
	}
	executor.SetMaxConcurrency(6)
	if executor.MaxConcurrency() != 6 {
		t.Errorf("expected 6, got %d", executor.MaxConcurrency())
	}
}
