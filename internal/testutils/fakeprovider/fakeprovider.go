// Package fakeprovider is a deterministic, non-mmap-backed
// pageprovider.Provider used only by tests, so allocator and arena
// tests can assert on Alloc/Free/Reset call counts and simulate soft
// OOM without depending on real OS memory-pressure behaviour.
package fakeprovider

import "github.com/gomem/galloc/pageprovider"

// Provider is an in-process pageprovider.Provider backed by ordinary Go
// byte slices. It never returns ErrOutOfMemory unless MaxBytes is set
// and exceeded, letting tests pin down the soft-OOM path deterministically.
type Provider struct {
	pageSize int

	// MaxBytes caps total bytes simultaneously outstanding (not yet
	// Free'd). Zero means unlimited.
	MaxBytes int

	live      map[*byte]int
	allocated int

	AllocCalls int
	FreeCalls  int
	ResetCalls int
}

// New returns a Provider with the given page size (must be > 0).
func New(pageSize int) *Provider {
	return &Provider{pageSize: pageSize, live: make(map[*byte]int)}
}

func (p *Provider) PageSize() int { return p.pageSize }

func (p *Provider) Alloc(size int) ([]byte, error) {
	p.AllocCalls++
	if p.MaxBytes > 0 && p.allocated+size > p.MaxBytes {
		return nil, pageprovider.ErrOutOfMemory
	}
	b := make([]byte, size)
	p.live[&b[0]] = size
	p.allocated += size
	return b, nil
}

func (p *Provider) Free(b []byte) {
	p.FreeCalls++
	if len(b) == 0 {
		return
	}
	sz, ok := p.live[&b[0]]
	if !ok || sz != len(b) {
		panic("fakeprovider: Free called with a slice not returned by Alloc")
	}
	delete(p.live, &b[0])
	p.allocated -= sz
}

func (p *Provider) Reset(b []byte) {
	p.ResetCalls++
}

// Outstanding returns the number of arenas currently allocated and not
// yet freed, for tests asserting arena-release behaviour.
func (p *Provider) Outstanding() int { return len(p.live) }
