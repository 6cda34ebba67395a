package sync

import (
	gosync "sync"
	"time"
)

// DefaultHoverDelay is how long a pointer must rest on or off a node
// before the hover state commits. Quick passes over intermediate nodes
// never fire.
const DefaultHoverDelay = 200 * time.Millisecond

// HoverDebouncer coalesces rapid hover transitions into a single commit.
// It is long-lived: one instance per client connection, reused across
// every enter and leave for that connection's lifetime.
type HoverDebouncer struct {
	mu     gosync.Mutex
	delay  time.Duration
	timer  *time.Timer
	commit func(nodeID string)
}

// NewHoverDebouncer creates a debouncer that calls commit with the node
// ID once a hover state has held for the delay. An empty ID means the
// pointer left all nodes.
func NewHoverDebouncer(delay time.Duration, commit func(nodeID string)) *HoverDebouncer {
	if delay <= 0 {
		delay = DefaultHoverDelay
	}
	return &HoverDebouncer{delay: delay, commit: commit}
}

// Set records the latest hover target, restarting the delay. Both entry
// and exit (empty ID) are debounced the same way.
func (d *HoverDebouncer) Set(nodeID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.commit(nodeID)
	})
}

// Stop cancels any pending commit. The debouncer stays usable.
func (d *HoverDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
