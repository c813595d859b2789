package producer

import (
	"fmt"
	"time"
)

// Env looks up shared services while steps are created. It is the boundary
// to whatever container the embedding application uses.
type Env interface {
	Lookup(name string) (any, bool)
}

// Services is a map-backed Env.
type Services map[string]any

// Lookup implements Env.
func (s Services) Lookup(name string) (any, bool) {
	v, ok := s[name]
	return v, ok
}

// Service returns the service registered under name as a T.
func Service[T any](env Env, name string) (T, error) {
	var zero T
	if env == nil {
		return zero, fmt.Errorf("service %q: no environment", name)
	}
	v, ok := env.Lookup(name)
	if !ok {
		return zero, fmt.Errorf("service %q is not registered", name)
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("service %q has type %T, want %T", name, v, zero)
	}
	return t, nil
}

// ClockService is the name of the Clock service.
const ClockService = "clock"

// Clock supplies the time value read by time nodes.
type Clock interface {
	Seconds() float64
}

// FixedClock always reports the same time.
type FixedClock float64

// Seconds implements Clock.
func (c FixedClock) Seconds() float64 { return float64(c) }

// WallClock reports the seconds elapsed since it was created.
type WallClock struct {
	start time.Time
}

// NewWallClock starts a wall clock now.
func NewWallClock() *WallClock { return &WallClock{start: time.Now()} }

// Seconds implements Clock.
func (c *WallClock) Seconds() float64 { return time.Since(c.start).Seconds() }
