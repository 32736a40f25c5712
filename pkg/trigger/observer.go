package trigger

import (
	"errors"
	"sync"
)

// DefaultThreshold is how many rows from the end of the list a cursor must
// be for ListObserver to fire.
const DefaultThreshold = 3

// ErrAlreadyObserving is returned by Observer.Start when a callback is
// already registered.
var ErrAlreadyObserving = errors.New("observer already started")

// Observer calls back when an anchor near the end of the rendered list
// crosses its proximity threshold.
type Observer interface {
	// Start registers fn. fn may be called from any goroutine and may be
	// called repeatedly.
	Start(fn func()) error

	// Stop releases the observation. No callback starts after Stop returns.
	Stop()
}

// ListObserver is an Observer for views that track a cursor over a list,
// such as terminal UIs.
type ListObserver struct {
	threshold int

	mu sync.Mutex
	fn func()
}

// NewListObserver creates an observer that fires when the cursor is within
// threshold rows of the end. threshold <= 0 selects DefaultThreshold.
func NewListObserver(threshold int) *ListObserver {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &ListObserver{threshold: threshold}
}

// Threshold returns the proximity distance.
func (o *ListObserver) Threshold() int {
	return o.threshold
}

// Start implements Observer.
func (o *ListObserver) Start(fn func()) error {
	if fn == nil {
		return errors.New("callback is required")
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fn != nil {
		return ErrAlreadyObserving
	}
	o.fn = fn
	return nil
}

// Stop implements Observer.
func (o *ListObserver) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fn = nil
}

// active reports whether a callback is registered.
func (o *ListObserver) active() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.fn != nil
}

// Report records the cursor position in a list of length items and fires
// the callback when the cursor is near the end. It reports whether the
// callback fired.
func (o *ListObserver) Report(cursor, length int) bool {
	if length-cursor > o.threshold {
		return false
	}

	// Held across the call so Stop cannot return while fn is running.
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fn == nil {
		return false
	}
	o.fn()
	return true
}
