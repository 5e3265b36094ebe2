//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package pageprovider

import (
	"log"

	"golang.org/x/sys/unix"
)

// OSProvider is the real, OS-backed Provider. It maps anonymous,
// private memory with mmap and releases it with munmap. madvise isn't
// exposed by the stdlib syscall package on any GOOS, so Reset goes
// through golang.org/x/sys/unix instead.
type OSProvider struct {
	pageSize  int
	debugFill bool
}

// Option configures an OSProvider.
type Option func(*OSProvider)

// WithDebugFill enables overwriting a range with a fixed fill byte
// (0x7e) immediately before advising the kernel it's discardable, to
// make use-after-discard bugs visible under a debugger.
func WithDebugFill(enabled bool) Option {
	return func(p *OSProvider) { p.debugFill = enabled }
}

// NewOSProvider returns a Provider backed by anonymous mmap.
func NewOSProvider(opts ...Option) *OSProvider {
	p := &OSProvider{pageSize: unix.Getpagesize()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *OSProvider) PageSize() int { return p.pageSize }

func (p *OSProvider) Alloc(size int) ([]byte, error) {
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		if err == unix.ENOMEM {
			return nil, ErrOutOfMemory
		}
		log.Fatalf("pageprovider: mmap(%d) failed: %v", size, err)
	}
	return b, nil
}

func (p *OSProvider) Free(b []byte) {
	if len(b) == 0 {
		return
	}
	if err := unix.Munmap(b); err != nil {
		log.Fatalf("pageprovider: munmap failed: %v", err)
	}
}

func (p *OSProvider) Reset(b []byte) {
	if len(b) == 0 {
		return
	}
	if p.debugFill {
		for i := range b {
			b[i] = 0x7e
		}
	}
	if err := unix.Madvise(b, unix.MADV_DONTNEED); err != nil {
		log.Fatalf("pageprovider: madvise failed: %v", err)
	}
}
