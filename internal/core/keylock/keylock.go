// Package keylock provides per-key mutual exclusion with a bounded wait.
//
// The stock ledger serializes every mutation path per ingredient; two Allocate
// calls for the same ingredient must never interleave their read-modify-write
// of batch quantities. Acquisition waits at most the configured timeout so a
// contended "start ticket" transition cannot stall kitchen throughput.
package keylock

import (
	"context"
	"sync"
	"time"
)

// KeyedMutex is a set of mutexes addressed by string key.
// Entries are created lazily and kept for the lifetime of the process; the key
// space (ingredient ids) is small and bounded.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// New creates an empty KeyedMutex.
func New() *KeyedMutex {
	return &KeyedMutex{
		locks: make(map[string]chan struct{}),
	}
}

func (k *KeyedMutex) slot(key string) chan struct{} {
	k.mu.Lock()
	defer k.mu.Unlock()

	ch, ok := k.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		k.locks[key] = ch
	}
	return ch
}

// Acquire takes the lock for key, waiting at most timeout.
// Returns false if the timeout elapsed or ctx was cancelled first.
// The caller must Release with the same key after a successful Acquire.
func (k *KeyedMutex) Acquire(ctx context.Context, key string, timeout time.Duration) bool {
	slot := k.slot(key)

	select {
	case slot <- struct{}{}:
		return true
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case slot <- struct{}{}:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

// Release frees the lock for key. Releasing an unheld key panics: that is
// always a programming error.
func (k *KeyedMutex) Release(key string) {
	slot := k.slot(key)
	select {
	case <-slot:
	default:
		panic("keylock: release of unheld key " + key)
	}
}
