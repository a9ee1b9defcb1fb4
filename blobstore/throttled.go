package blobstore

import (
	"context"

	"github.com/hupe1980/vpdb/resource"
)

// Throttled wraps a Store and charges every Put against the IO limit of a
// resource.Controller. Reads are not throttled.
type Throttled struct {
	inner Store
	rc    *resource.Controller
}

// NewThrottled returns a Store whose writes are rate-limited by rc.
func NewThrottled(inner Store, rc *resource.Controller) *Throttled {
	return &Throttled{inner: inner, rc: rc}
}

// Unwrap returns the wrapped store.
func (t *Throttled) Unwrap() Store { return t.inner }

func (t *Throttled) Open(ctx context.Context, name string) (Blob, error) {
	return t.inner.Open(ctx, name)
}

func (t *Throttled) Get(ctx context.Context, name string) ([]byte, error) {
	return ReadAll(ctx, t.inner, name)
}

// Put waits for IO budget covering len(data) before writing.
func (t *Throttled) Put(ctx context.Context, name string, data []byte) error {
	if err := t.rc.AcquireIO(ctx, len(data)); err != nil {
		return err
	}
	return t.inner.Put(ctx, name, data)
}

func (t *Throttled) Delete(ctx context.Context, name string) error {
	return t.inner.Delete(ctx, name)
}

func (t *Throttled) List(ctx context.Context, prefix string) ([]string, error) {
	return t.inner.List(ctx, prefix)
}
