// Package pageprovider adapts the OS's page-granularity virtual-memory
// primitives (anonymous mmap, munmap, madvise) to the narrow interface
// the allocator core needs: obtain page-aligned read-write memory,
// release it, and hint that a page range's contents are discardable.
package pageprovider

import "errors"

// ErrOutOfMemory is returned by Provider.Alloc when the OS cannot
// satisfy the mapping (a soft failure the caller is expected to handle,
// e.g. by returning nil from a higher-level Alloc/Realloc). Any other
// failure from the underlying OS call is not representable as an error
// value: it is fatal and terminates the process (see Provider docs).
var ErrOutOfMemory = errors.New("pageprovider: out of memory")

// Provider supplies page-aligned, read-write memory in multiples of
// PageSize, releases it, and advises the kernel that a page range's
// contents may be discarded. Implementations must be safe to call
// concurrently, since the OS calls they wrap are reentrant, but the
// allocator core that consumes a Provider is itself single-threaded
// (see spec §5) and never calls a Provider method concurrently with
// itself.
type Provider interface {
	// Alloc returns size bytes of fresh, zeroed, page-aligned memory.
	// size is not always a multiple of PageSize: the allocator asks for
	// whole pages for a default arena, but for whole pages plus one
	// block header for an oversized arena. Returns
	// ErrOutOfMemory on soft OOM. Any other failure is fatal and does
	// not return.
	Alloc(size int) ([]byte, error)

	// Free releases memory previously returned by Alloc. b must be
	// exactly the slice Alloc returned (same backing mapping and
	// length); slicing or reslicing before calling Free corrupts the
	// unmap call. Failure is fatal.
	Free(b []byte)

	// Reset advises the kernel that b's contents need not be
	// preserved; a subsequent touch may observe zeroed pages. b must
	// lie within a mapping obtained from Alloc and be page-aligned at
	// both ends. Failure is fatal.
	Reset(b []byte)

	// PageSize returns the page size this Provider allocates in
	// multiples of.
	PageSize() int
}
