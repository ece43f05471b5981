package core

import "time"

// Clock supplies the current time to the task store.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns a Clock backed by time.Now. Readings keep their
// monotonic component so creation order survives wall clock steps; convert
// to a zone only when rendering.
func SystemClock() Clock {
	return ClockFunc(time.Now)
}
