package workers_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/marketpulse/engine/internal/workers"
	"go.uber.org/zap"
)

func TestBoundedPoolConfigCapsAtMaxWorkers(t *testing.T) {
	cfg := workers.BoundedPoolConfig("monitors", 40, 8)
	if cfg.NumWorkers != 8 {
		t.Fatalf("expected NumWorkers capped at 8, got %d", cfg.NumWorkers)
	}
}

func TestBoundedPoolConfigUsesMonitorCountWhenSmaller(t *testing.T) {
	cfg := workers.BoundedPoolConfig("monitors", 3, 8)
	if cfg.NumWorkers != 3 {
		t.Fatalf("expected NumWorkers=3, got %d", cfg.NumWorkers)
	}
}

func TestPoolRunsAllSubmittedTasks(t *testing.T) {
	pool := workers.NewPool(zap.NewNop(), workers.BoundedPoolConfig("test", 4, 4))
	pool.Start()
	defer pool.Stop()

	var completed int64
	for i := 0; i < 10; i++ {
		if err := pool.SubmitFunc(func() error {
			atomic.AddInt64(&completed, 1)
			return nil
		}); err != nil {
			t.Fatalf("SubmitFunc: %v", err)
		}
	}

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt64(&completed) < 10 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := atomic.LoadInt64(&completed); got != 10 {
		t.Fatalf("expected 10 completed tasks, got %d", got)
	}
}

func TestPoolRecoversFromPanickingTask(t *testing.T) {
	pool := workers.NewPool(zap.NewNop(), workers.BoundedPoolConfig("test", 1, 1))
	pool.Start()
	defer pool.Stop()

	if err := pool.SubmitFunc(func() error {
		panic("boom")
	}); err != nil {
		t.Fatalf("SubmitFunc: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for pool.Stats().PanicRecovered == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if pool.Stats().PanicRecovered == 0 {
		t.Fatal("expected the pool to recover from the panicking task and keep running")
	}
	if !pool.IsRunning() {
		t.Fatal("pool should still be running after recovering from a panic")
	}
}

func TestSubmitAfterStopReturnsError(t *testing.T) {
	pool := workers.NewPool(zap.NewNop(), workers.BoundedPoolConfig("test", 1, 1))
	pool.Start()
	if err := pool.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := pool.SubmitFunc(func() error { return nil }); err != workers.ErrPoolStopped {
		t.Fatalf("expected ErrPoolStopped, got %v", err)
	}
}
