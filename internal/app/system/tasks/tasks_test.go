package tasks

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRunnerRunsAndStops(t *testing.T) {
	var runs int64

	r := NewRunner(zap.NewNop())
	r.Add(Job{
		Name:     "counter",
		Interval: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			atomic.AddInt64(&runs, 1)
			return nil
		},
	})
	r.Start()

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt64(&runs) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	r.Stop()

	got := atomic.LoadInt64(&runs)
	if got < 2 {
		t.Fatalf("runs = %d, want at least 2 (immediate + ticked)", got)
	}

	// No more runs after Stop.
	time.Sleep(30 * time.Millisecond)
	if after := atomic.LoadInt64(&runs); after != got {
		t.Fatalf("runs after stop = %d, want %d", after, got)
	}
}
