package pipeline

import "sync"

// Guard serializes pipeline runs triggered from the same process (the cron
// schedule and manual HTTP triggers can collide). The pipeline itself does
// not lock; callers acquire the guard before Run and release it after.
type Guard struct {
	mu     sync.Mutex
	active bool
}

func NewGuard() *Guard { return &Guard{} }

// TryAcquire reports whether the caller now owns the run slot. It never
// blocks; a second concurrent trigger is rejected, not queued.
func (g *Guard) TryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active {
		return false
	}
	g.active = true
	return true
}

// Release frees the run slot.
func (g *Guard) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active = false
}

// Active reports whether a run currently holds the slot.
func (g *Guard) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}
