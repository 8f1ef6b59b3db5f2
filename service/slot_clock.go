package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/veilpay/veilpay-go/log"
)

// SlotClock is a monotonic slot counter that advances on a fixed tick.
// Authorization expiry is expressed in slots; the clock's Now method is
// the slot source handed to the pool engine.
type SlotClock struct {
	slot     atomic.Uint64
	interval time.Duration
	mu       sync.Mutex
	cancel   context.CancelFunc
}

// NewSlotClock creates a slot clock ticking every interval, starting at
// the given slot.
func NewSlotClock(start uint64, interval time.Duration) *SlotClock {
	sc := &SlotClock{interval: interval}
	sc.slot.Store(start)
	return sc
}

// Now returns the current slot. Safe to call before Start; the clock
// simply stands still until started.
func (sc *SlotClock) Now() uint64 {
	return sc.slot.Load()
}

// Start begins advancing the slot counter. It returns an error if the
// clock is already running.
func (sc *SlotClock) Start(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.cancel != nil {
		return fmt.Errorf("slot clock already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	sc.cancel = cancel

	go func() {
		ticker := time.NewTicker(sc.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Debugw("slot clock stopped", "slot", sc.slot.Load())
				return
			case <-ticker.C:
				sc.slot.Add(1)
			}
		}
	}()
	return nil
}

// Stop halts the clock. The slot counter keeps its last value.
func (sc *SlotClock) Stop() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.cancel != nil {
		sc.cancel()
		sc.cancel = nil
	}
}
