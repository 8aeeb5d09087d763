// Package timectrl provides the animation clock that drives per-frame
// camera updates.
package timectrl

import (
	"context"
	"sync"
	"time"
)

// Clock is read by consumers that need the current animation time.
type Clock interface {
	Now() time.Time
	Elapsed() time.Duration
}

// Mode describes how the TimeController advances animation time.
type Mode int

const (
	// RealTime advances one frame per wall-clock frame interval.
	RealTime Mode = iota
	// Accelerated advances frame by frame as fast as listeners return.
	Accelerated
)

func (m Mode) String() string {
	switch m {
	case RealTime:
		return "realtime"
	case Accelerated:
		return "accelerated"
	default:
		return "unknown"
	}
}

// Frame is delivered to listeners once per tick.
type Frame struct {
	Index   int
	Time    time.Time
	Elapsed time.Duration
}

// TimeController steps animation time by a fixed frame interval and
// notifies registered listeners. Listeners run on the controller's
// goroutine and must only read shared scene data.
type TimeController struct {
	mu        sync.RWMutex
	StartTime time.Time
	Tick      time.Duration
	Mode      Mode

	currentTime time.Time
	listeners   []func(Frame)
}

// NewTimeController constructs a controller. A non-positive tick
// defaults to one 60 Hz frame.
func NewTimeController(start time.Time, tick time.Duration, mode Mode) *TimeController {
	if tick <= 0 {
		tick = time.Second / 60
	}
	return &TimeController{
		StartTime:   start,
		Tick:        tick,
		Mode:        mode,
		currentTime: start,
	}
}

// Now returns the current animation time.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// Elapsed returns the animation time since StartTime.
func (tc *TimeController) Elapsed() time.Duration {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime.Sub(tc.StartTime)
}

// SetTime moves the clock, e.g. to resume an animation at a given angle.
func (tc *TimeController) SetTime(t time.Time) {
	tc.mu.Lock()
	tc.currentTime = t
	tc.mu.Unlock()
}

// AddListener registers a callback invoked on every frame.
func (tc *TimeController) AddListener(fn func(Frame)) {
	tc.mu.Lock()
	tc.listeners = append(tc.listeners, fn)
	tc.mu.Unlock()
}

// Start runs the controller until duration of animation time has passed
// (forever when duration <= 0) or ctx is cancelled. The returned channel
// is closed when the controller stops.
func (tc *TimeController) Start(ctx context.Context, duration time.Duration) <-chan struct{} {
	if ctx == nil {
		ctx = context.Background()
	}
	done := make(chan struct{})
	go func() {
		defer close(done)

		tc.mu.Lock()
		simTime := tc.currentTime
		listeners := append([]func(Frame){}, tc.listeners...)
		tc.mu.Unlock()

		var ticks <-chan time.Time
		if tc.Mode == RealTime {
			ticker := time.NewTicker(tc.Tick)
			defer ticker.Stop()
			ticks = ticker.C
		}

		elapsed := time.Duration(0)
		for i := 0; ; i++ {
			if duration > 0 && elapsed >= duration {
				return
			}
			if ticks != nil {
				select {
				case <-ctx.Done():
					return
				case <-ticks:
				}
			} else if ctx.Err() != nil {
				return
			}

			simTime = simTime.Add(tc.Tick)
			elapsed += tc.Tick

			tc.mu.Lock()
			tc.currentTime = simTime
			tc.mu.Unlock()

			frame := Frame{Index: i, Time: simTime, Elapsed: simTime.Sub(tc.StartTime)}
			for _, fn := range listeners {
				fn(frame)
			}
		}
	}()
	return done
}
