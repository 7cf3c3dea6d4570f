package coordinator

import (
	"context"
	"sync"

	"github.com/doublecloud/mysql2cass/internal/logger"
	"go.ytsaurus.tech/library/go/core/log"
)

var _ KeyspaceInitCoordinator = (*CoordinatorInMemory)(nil)

type keyspaceState struct {
	claimed bool
	dropped bool
	// closed once the claim winner has dropped the keyspace
	done chan struct{}
}

type CoordinatorInMemory struct {
	mu        sync.Mutex
	keyspaces map[string]*keyspaceState
}

func NewCoordinatorInMemory() *CoordinatorInMemory {
	return &CoordinatorInMemory{
		mu:        sync.Mutex{},
		keyspaces: map[string]*keyspaceState{},
	}
}

// state must be called with mu held.
func (f *CoordinatorInMemory) state(keyspace string) *keyspaceState {
	st, ok := f.keyspaces[keyspace]
	if !ok {
		st = &keyspaceState{claimed: false, dropped: false, done: make(chan struct{})}
		f.keyspaces[keyspace] = st
	}
	return st
}

// TryClaimInit only guards the check-and-set; the drop itself runs outside the lock.
func (f *CoordinatorInMemory) TryClaimInit(keyspace string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.state(keyspace)
	if st.claimed {
		logger.Log.Info("keyspace drop already claimed", log.String("keyspace", keyspace))
		return false
	}
	st.claimed = true
	logger.Log.Info("claimed keyspace drop", log.String("keyspace", keyspace))
	return true
}

func (f *CoordinatorInMemory) MarkDropped(keyspace string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.state(keyspace)
	if st.dropped {
		return
	}
	st.dropped = true
	close(st.done)
	logger.Log.Info("keyspace dropped", log.String("keyspace", keyspace))
}

func (f *CoordinatorInMemory) WaitDropped(ctx context.Context, keyspace string) error {
	f.mu.Lock()
	done := f.state(keyspace).done
	f.mu.Unlock()

	select {
	case <-done:
		return nil
	default:
	}
	logger.Log.Info("waiting for keyspace drop", log.String("keyspace", keyspace))
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
