package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/hupe1980/vpdb/blobstore"
)

// ErrInjected is returned by FaultStore when a fault fires.
var ErrInjected = errors.New("testutil: injected fault")

// FaultStore wraps a blobstore.Store and fails writes or reads on demand.
type FaultStore struct {
	blobstore.Store

	mu         sync.Mutex
	failPutsIn int // fail the Nth Put from now; 0 disables
	failGets   bool
	puts       int
}

// NewFaultStore wraps inner.
func NewFaultStore(inner blobstore.Store) *FaultStore {
	return &FaultStore{Store: inner}
}

// FailNextPut makes the nth Put from now (1 = the next one) fail without
// touching the wrapped store.
func (f *FaultStore) FailNextPut(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPutsIn = n
}

// FailReads makes every Open fail while enabled.
func (f *FaultStore) FailReads(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failGets = enabled
}

// Puts returns the number of successful Put calls.
func (f *FaultStore) Puts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts
}

// Put implements blobstore.Store.
func (f *FaultStore) Put(ctx context.Context, name string, data []byte) error {
	f.mu.Lock()
	if f.failPutsIn > 0 {
		f.failPutsIn--
		if f.failPutsIn == 0 {
			f.mu.Unlock()
			return ErrInjected
		}
	}
	f.mu.Unlock()

	if err := f.Store.Put(ctx, name, data); err != nil {
		return err
	}

	f.mu.Lock()
	f.puts++
	f.mu.Unlock()
	return nil
}

// Open implements blobstore.Store.
func (f *FaultStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	f.mu.Lock()
	fail := f.failGets
	f.mu.Unlock()
	if fail {
		return nil, ErrInjected
	}
	return f.Store.Open(ctx, name)
}
