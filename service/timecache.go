package service

import (
	"context"
	"sync"
	"time"
)

var sweepInterval = 1 * time.Minute

// TimeCache remembers keys for a fixed time after they were first added
type TimeCache[K comparable] struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	lk  sync.Mutex
	m   map[K]time.Time
	ttl time.Duration
}

func NewTimeCache[K comparable](ttl time.Duration) *TimeCache[K] {
	ctx, cancel := context.WithCancel(context.Background())

	tc := &TimeCache[K]{
		ctx:    ctx,
		cancel: cancel,

		m:   make(map[K]time.Time),
		ttl: ttl,
	}

	tc.wg.Add(1)
	go tc.background()

	return tc
}

// Has reports whether key was added and has not expired
func (tc *TimeCache[K]) Has(key K) bool {
	tc.lk.Lock()
	defer tc.lk.Unlock()

	expiry, ok := tc.m[key]
	return ok && time.Now().Before(expiry)
}

// Add remembers key. Adding a live key does not extend its lifetime.
func (tc *TimeCache[K]) Add(key K) {
	tc.CheckAndAdd(key)
}

// CheckAndAdd adds key and reports whether it was already present
func (tc *TimeCache[K]) CheckAndAdd(key K) bool {
	tc.lk.Lock()
	defer tc.lk.Unlock()

	now := time.Now()
	if expiry, ok := tc.m[key]; ok && now.Before(expiry) {
		return true
	}
	tc.m[key] = now.Add(tc.ttl)
	return false
}

// Len returns the number of remembered keys, expired ones included until
// the next sweep
func (tc *TimeCache[K]) Len() int {
	tc.lk.Lock()
	defer tc.lk.Unlock()
	return len(tc.m)
}

func (tc *TimeCache[K]) background() {
	defer tc.wg.Done()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			tc.sweep(now)

		case <-tc.ctx.Done():
			return
		}
	}
}

func (tc *TimeCache[K]) sweep(now time.Time) {
	tc.lk.Lock()
	defer tc.lk.Unlock()

	for k, expiry := range tc.m {
		if expiry.Before(now) {
			delete(tc.m, k)
		}
	}
}

func (tc *TimeCache[K]) Close() error {
	tc.cancel()
	tc.wg.Wait()
	return nil
}
