package watcher

import (
	"context"
	"time"
)

type change struct {
	path string
	gone bool
}

// coalescer folds bursts of changes before handing them to the flush
// callback. Changes are keyed by path, so a file saved ten times in the
// window probes once; a later delete wins over an earlier write. A full
// batch flushes immediately.
type coalescer struct {
	window time.Duration
	max    int
	in     chan change
	flush  func([]change)
}

func newCoalescer(window time.Duration, max int, flush func([]change)) *coalescer {
	if max <= 0 {
		max = 100
	}
	return &coalescer{
		window: window,
		max:    max,
		in:     make(chan change, 256),
		flush:  flush,
	}
}

func (c *coalescer) add(ch change) {
	select {
	case c.in <- ch:
	default:
		// Intake full during a huge burst; drop rather than stall the
		// fsnotify event loop. The file turns up on the next rescan.
	}
}

func (c *coalescer) run(ctx context.Context) {
	pending := make(map[string]change)
	timer := time.NewTimer(c.window)
	if !timer.Stop() {
		<-timer.C
	}
	armed := false

	emit := func() {
		if len(pending) == 0 {
			return
		}
		batch := make([]change, 0, len(pending))
		for _, ch := range pending {
			batch = append(batch, ch)
		}
		pending = make(map[string]change)
		c.flush(batch)
	}

	for {
		select {
		case <-ctx.Done():
			if armed && !timer.Stop() {
				<-timer.C
			}
			emit()
			return
		case ch := <-c.in:
			pending[ch.path] = ch
			if len(pending) >= c.max {
				if armed && !timer.Stop() {
					<-timer.C
				}
				armed = false
				emit()
				continue
			}
			if armed && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(c.window)
			armed = true
		case <-timer.C:
			armed = false
			emit()
		}
	}
}
