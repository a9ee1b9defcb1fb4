// Package descriptor provides the descriptor type indexed by vpdb.
//
// A Descriptor is a 32-byte binary feature (for example an ORB descriptor
// extracted from an image). Descriptors are compared by squared Euclidean
// distance over their bytes:
//
//	d := descriptor.Distance(a, b) // 0 ..= descriptor.MaxDistance
//
// A Record pairs a caller-assigned 64-bit identifier with a descriptor and
// has a fixed 40-byte little-endian encoding.
package descriptor
