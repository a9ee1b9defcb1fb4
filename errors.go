package vpdb

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vpdb/internal/tree"
	"github.com/hupe1980/vpdb/resource"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrClosed is returned by operations on a closed DB.
	ErrClosed = errors.New("vpdb: closed")

	// ErrCorrupt matches every shard decoding failure.
	ErrCorrupt = tree.ErrCorrupt

	// ErrInvalidConfig is returned by Open for unusable tree parameters.
	ErrInvalidConfig = tree.ErrInvalidConfig

	// ErrMemoryLimit is returned when loading a shard would exceed the
	// memory limit of the resource controller.
	ErrMemoryLimit = resource.ErrMemoryLimit
)

// CorruptError describes a shard blob that failed to decode.
//
// The original underlying error can be accessed via errors.Unwrap; it
// matches ErrCorrupt.
type CorruptError struct {
	// Offset is the byte offset in the blob where decoding failed.
	Offset int64
	Reason string
	cause  error
}

func (e *CorruptError) Error() string {
	return e.cause.Error()
}

func (e *CorruptError) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, tree.ErrSessionClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}

	var ce *tree.CorruptError
	if errors.As(err, &ce) {
		return &CorruptError{Offset: ce.Offset, Reason: ce.Reason, cause: err}
	}

	return err
}
