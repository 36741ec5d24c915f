package session

import (
	"log/slog"
	"sync"
	"time"
)

// nonceStore tracks the jti values of live session tokens. A token stays
// valid while its nonce exists; logout consumes the nonce, immediately
// revoking the token even before its exp. Expiration is handled by a
// background janitor goroutine.
type nonceStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time // value = expiry timestamp
	stop    chan struct{}
}

func newNonceStore(pruneInterval time.Duration) *nonceStore {
	ns := &nonceStore{
		entries: make(map[string]time.Time),
		stop:    make(chan struct{}),
	}
	go ns.janitor(pruneInterval)
	return ns
}

func (ns *nonceStore) Put(nonce string, ttl time.Duration) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.entries[nonce] = time.Now().Add(ttl)
}

func (ns *nonceStore) Consume(nonce string) bool {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	exp, ok := ns.entries[nonce]
	if !ok {
		return false
	}
	delete(ns.entries, nonce)
	return !time.Now().After(exp)
}

func (ns *nonceStore) Exists(nonce string) bool {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	exp, ok := ns.entries[nonce]
	if !ok {
		return false
	}
	return !time.Now().After(exp)
}

func (ns *nonceStore) expire() {
	now := time.Now()
	ns.mu.Lock()
	defer ns.mu.Unlock()
	for k, exp := range ns.entries {
		if now.After(exp) {
			slog.Debug("Pruning expired session nonce", "nonce", k)
			delete(ns.entries, k)
		}
	}
}

func (ns *nonceStore) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ns.expire()
		case <-ns.stop:
			return
		}
	}
}

// Close stops the janitor
func (ns *nonceStore) Close() {
	close(ns.stop)
}
