// Package persistence provides crash-safe whole-file writes and buffered loads
// for shard files.
//
// A write goes to a temporary file in the target's directory, is flushed and
// fsynced, then renamed over the target. Readers therefore observe either the
// complete previous file or the complete new one, never a torn write. A write
// that fails (or a process that dies) before the rename leaves the previous
// file untouched.
package persistence

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
)

const bufferSize = 256 * 1024

// SaveToFile atomically replaces filename with the bytes produced by writeFunc.
// If writeFunc returns an error the target is left unchanged and the
// temporary file is removed.
func SaveToFile(filename string, writeFunc func(io.Writer) error) error {
	dir := filepath.Dir(filename)
	base := filepath.Base(filename)

	// Write to a temp file in the same directory to ensure rename is atomic.
	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	// Match typical file permissions (best-effort).
	_ = tmp.Chmod(0644)

	buf := bufio.NewWriterSize(tmp, bufferSize)
	if err := writeFunc(buf); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, filename); err != nil {
		return err
	}

	// Best-effort: fsync the directory so the rename is durable on POSIX.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}

	// Success: prevent deferred cleanup from removing the final file.
	tmpName = ""
	return nil
}

// WriteFile atomically replaces filename with data.
func WriteFile(filename string, data []byte) error {
	return SaveToFile(filename, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// LoadFromFile opens filename and hands a buffered reader to readFunc.
func LoadFromFile(filename string, readFunc func(io.Reader) error) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := bufio.NewReaderSize(f, bufferSize)
	return readFunc(buf)
}

// IsTempFile reports whether name is a leftover temporary file produced by
// an interrupted SaveToFile.
func IsTempFile(name string) bool {
	matched, _ := filepath.Match("*.tmp-*", filepath.Base(name))
	return matched
}
