package service

import "time"

// Delayer injects artificial latency into facade operations. Delays are not
// cancellable and have no timeout.
type Delayer interface {
	Delay()
}

// DelayFunc adapts a function to the Delayer interface.
type DelayFunc func()

// Delay calls f.
func (f DelayFunc) Delay() { f() }

// NoDelay returns immediately.
type NoDelay struct{}

// Delay does nothing.
func (NoDelay) Delay() {}

// FixedDelay sleeps for a constant duration.
type FixedDelay time.Duration

// Delay sleeps for d.
func (d FixedDelay) Delay() {
	if d > 0 {
		time.Sleep(time.Duration(d))
	}
}
