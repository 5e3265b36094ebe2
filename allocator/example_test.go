package allocator_test

import (
	"fmt"

	"github.com/gomem/galloc/allocator"
	"github.com/gomem/galloc/arena"
	"github.com/gomem/galloc/internal/testutils/fakeprovider"
)

// Example mirrors the teacher's unsafex/malloc package doc example:
// allocate a couple of differently-sized buffers from one allocator,
// print their len/cap, then free them.
func Example() {
	prov := fakeprovider.New(4096)
	a := allocator.New(prov, arena.DefaultConfig, 1)

	b1, _ := a.Alloc(1024)   // fits in the default arena untouched
	b2, _ := a.Alloc(100000) // exceeds the config's SizeMax, gets its own arena

	fmt.Printf("b1: len=%d cap=%d\n", len(b1), cap(b1))
	fmt.Printf("b2: len=%d cap=%d\n", len(b2), cap(b2))

	a.Free(b1)
	a.Free(b2)

	// Output:
	// b1: len=1024 cap=1024
	// b2: len=100000 cap=102400
}
