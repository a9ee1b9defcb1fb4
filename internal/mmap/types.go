package mmap

import "errors"

// AccessPattern is a read-ahead hint for a mapping.
type AccessPattern int

const (
	// AccessDefault leaves read-ahead to the kernel.
	AccessDefault AccessPattern = iota
	// AccessSequential asks for aggressive read-ahead. Shard loads read
	// the whole file front to back.
	AccessSequential
)

var (
	ErrClosed        = errors.New("mmap: mapping is closed")
	ErrInvalidSize   = errors.New("mmap: invalid file size")
	ErrInvalidOffset = errors.New("mmap: invalid offset")
)
