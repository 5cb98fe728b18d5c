package session

import "time"

// Clock abstracts time.Now so liveness-window tests can simulate the passage
// of time without sleeping.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current wall-clock time in UTC.
func (SystemClock) Now() time.Time { return time.Now().UTC() }
