// Package control exposes the operator surface of the scan worker:
// pause/resume/restart flags plus a Telegram command bot that drives them.
package control

import "sync/atomic"

// Control holds the worker's pause and restart flags. The worker samples
// them between scan passes and between entries; commands never interrupt an
// operation in flight.
type Control struct {
	paused  atomic.Bool
	restart atomic.Bool
}

// New creates a Control with both flags cleared.
func New() *Control {
	return &Control{}
}

// Pause asks the worker to release its session and idle.
func (c *Control) Pause() { c.paused.Store(true) }

// Resume clears the pause flag.
func (c *Control) Resume() { c.paused.Store(false) }

// Restart clears pause and asks the worker to rebuild its session.
func (c *Control) Restart() {
	c.restart.Store(true)
	c.paused.Store(false)
}

// IsPaused reports whether the worker should stay idle.
func (c *Control) IsPaused() bool { return c.paused.Load() }

// ConsumeRestart reads and clears the restart flag.
func (c *Control) ConsumeRestart() bool { return c.restart.Swap(false) }
