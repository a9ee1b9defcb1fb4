package vpdb

// Close waits for a running writer and marks the DB closed. Later calls
// return ErrClosed. Shards are never held open between operations, so there
// is nothing to flush.
func (db *DB) Close() error {
	if db == nil {
		return nil
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed.Swap(true) {
		return ErrClosed
	}
	return nil
}
