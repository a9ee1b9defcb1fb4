// Package mmap provides read-only memory-mapped file access.
//
// Shard files are read whole on every traversal. Mapping the file and
// copying it once avoids the intermediate kernel-to-user buffer copies of a
// buffered read loop and lets the kernel read ahead sequentially:
//
//	data, err := mmap.ReadFile("database/vp_tree.l.database")
//
// Unix uses mmap(2)/madvise(2); Windows uses CreateFileMapping/MapViewOfFile
// and ignores access hints.
//
// Mapping.Close is idempotent. Callers must not touch Bytes() after Close.
package mmap
