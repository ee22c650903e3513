package watcher

import (
	"sync"
	"time"
)

// Debouncer delays processing until file activity settles.
// It coalesces rapid events for the same key, ensuring that only one
// callback is triggered after the debounce delay expires.
type Debouncer struct {
	delay    time.Duration
	pending  map[string]*time.Timer
	callback func(key string)
	mu       sync.Mutex
}

// NewDebouncer creates a new Debouncer with the specified delay and callback.
// The callback is invoked for each key after the debounce delay expires,
// provided no new events for that key have been received.
func NewDebouncer(delay time.Duration, callback func(key string)) *Debouncer {
	return &Debouncer{
		delay:    delay,
		pending:  make(map[string]*time.Timer),
		callback: callback,
	}
}

// Add schedules a key for processing after the debounce delay.
// If the key is already pending, the timer is reset, effectively
// coalescing rapid events.
func (d *Debouncer) Add(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, exists := d.pending[key]; exists {
		timer.Stop()
	}

	d.pending[key] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		delete(d.pending, key)
		d.mu.Unlock()

		// Invoke the callback outside the lock to avoid potential deadlocks
		if d.callback != nil {
			d.callback(key)
		}
	})
}

// Cancel removes a pending key from processing.
// If the key is not pending, this is a no-op.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, exists := d.pending[key]; exists {
		timer.Stop()
		delete(d.pending, key)
	}
}

// CancelAll cancels all pending processing.
// This is useful during shutdown to prevent callbacks from firing.
func (d *Debouncer) CancelAll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, timer := range d.pending {
		timer.Stop()
		delete(d.pending, key)
	}
}

// PendingCount returns the number of keys currently pending processing.
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// IsPending returns true if the specified key is currently pending.
func (d *Debouncer) IsPending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, exists := d.pending[key]
	return exists
}
