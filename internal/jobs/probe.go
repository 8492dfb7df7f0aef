package jobs

import (
	"context"
	"sync"
	"time"

	"gamo-keyword-api/internal/logger"
)

const StoreProbeTag = "store-probe"

type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreProbe remembers the outcome of the last store ping for /ready.
type StoreProbe struct {
	store   Pinger
	timeout time.Duration

	mu        sync.RWMutex
	checked   bool
	lastErr   error
	checkedAt time.Time
}

func NewStoreProbe(store Pinger, timeout time.Duration) *StoreProbe {
	return &StoreProbe{store: store, timeout: timeout}
}

// Run pings the store once and records the result.
func (p *StoreProbe) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	err := p.store.Ping(ctx)

	p.mu.Lock()
	wasHealthy := p.checked && p.lastErr == nil
	p.checked = true
	p.lastErr = err
	p.checkedAt = time.Now().UTC()
	p.mu.Unlock()

	switch {
	case err != nil:
		logger.Error("keyword store ping failed", "error", err)
	case !wasHealthy:
		logger.Info("keyword store reachable")
	}
	return err
}

// Status reports whether the last ping succeeded. Before the first ping the
// store counts as not ready.
func (p *StoreProbe) Status() (ready bool, checkedAt time.Time, err error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.checked && p.lastErr == nil, p.checkedAt, p.lastErr
}

// Schedule registers the probe on s.
func (p *StoreProbe) Schedule(s *Scheduler, interval time.Duration) error {
	return s.ScheduleInterval(StoreProbeTag, interval, p.Run)
}
