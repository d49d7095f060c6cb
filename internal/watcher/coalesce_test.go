package watcher

import (
	"context"
	"testing"
	"time"

	"github.com/geomnodes/geomnodes/internal/catalog"
)

func collectBatches() (chan []change, func([]change)) {
	out := make(chan []change, 16)
	return out, func(batch []change) { out <- batch }
}

func TestCoalescerFoldsByPath(t *testing.T) {
	out, flush := collectBatches()
	c := newCoalescer(30*time.Millisecond, 100, flush)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.run(ctx)

	c.add(change{path: "a.obj"})
	c.add(change{path: "a.obj"})
	c.add(change{path: "a.obj", gone: true})

	select {
	case batch := <-out:
		if len(batch) != 1 {
			t.Fatalf("expected 1 coalesced change, got %d", len(batch))
		}
		if !batch[0].gone {
			t.Errorf("expected latest change to win, got gone=false")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected a flush within the window")
	}
}

func TestCoalescerFlushesFullBatchImmediately(t *testing.T) {
	out, flush := collectBatches()
	c := newCoalescer(10*time.Second, 2, flush)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.run(ctx)

	c.add(change{path: "a.obj"})
	c.add(change{path: "b.obj"})

	select {
	case batch := <-out:
		if len(batch) != 2 {
			t.Errorf("expected batch of 2, got %d", len(batch))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected an immediate flush at max batch size")
	}
}

func TestCoalescerFlushesPendingOnCancel(t *testing.T) {
	out, flush := collectBatches()
	c := newCoalescer(10*time.Second, 100, flush)
	ctx, cancel := context.WithCancel(context.Background())
	go c.run(ctx)

	c.add(change{path: "a.obj"})
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case batch := <-out:
		if len(batch) != 1 {
			t.Errorf("expected pending change flushed on cancel, got %d", len(batch))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected flush on cancel")
	}
}

func TestBurstPriority(t *testing.T) {
	cases := []struct {
		n        int
		expected string
	}{
		{1, "high"},
		{2, "high"},
		{3, "normal"},
		{10, "normal"},
		{11, "low"},
		{500, "low"},
	}
	names := map[catalog.JobPriority]string{
		catalog.PriorityHigh:   "high",
		catalog.PriorityNormal: "normal",
		catalog.PriorityLow:    "low",
	}
	for _, tc := range cases {
		got := names[burstPriority(tc.n)]
		if got != tc.expected {
			t.Errorf("burstPriority(%d): expected %s, got %s", tc.n, tc.expected, got)
		}
	}
}
