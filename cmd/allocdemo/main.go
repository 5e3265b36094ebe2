// Command allocdemo walks through a short scripted sequence of
// allocations, reallocations, and frees against a real OS-backed
// allocator, printing the index's state at each step. It exists to
// give the allocator and its size index a visible, reproducible
// workout outside of the test suite.
package main

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/gomem/galloc/allocator"
	"github.com/gomem/galloc/arena"
	"github.com/gomem/galloc/pageprovider"
)

func main() {
	prov := pageprovider.NewOSProvider()
	a := allocator.New(prov, arena.DefaultConfig, 1)

	ptr1, err := a.Alloc(100000)
	must(err)
	a.Show("First allocated block constitutes an arena that is bigger than the max block size")
	fmt.Printf("Allocated memory of arena: %d\n\n", blockSize(ptr1))

	ptr2, err := a.Alloc(5)
	must(err)
	fmt.Printf("Allocated memory for ptr2: %d\n", blockSize(ptr2))

	ptr3, err := a.Alloc(543)
	must(err)
	fmt.Printf("Allocated memory for ptr3: %d\n", blockSize(ptr3))

	ptr4, err := a.Alloc(4096)
	must(err)
	fmt.Printf("Allocated memory for ptr4: %d\n", blockSize(ptr4))

	a.Show("Result of allocations")

	ptr5, err := a.Alloc(543)
	must(err)
	fmt.Printf("\nAllocated memory for ptr5: %d\n\n", blockSize(ptr5))

	a.Show("Result of another allocation")

	ptr1, err = a.Realloc(ptr1, 80000)
	must(err)
	a.Show("Reallocate ptr1 from 100000 -> 80000")

	a.Free(ptr5)
	a.Show("Free ptr5")

	ptr4, err = a.Realloc(ptr4, 2543)
	must(err)
	a.Show("Reallocate ptr4 -> 2543")
	fmt.Printf("\nNew allocated memory for ptr4: %d\n", blockSize(ptr4))

	_ = ptr1
	_ = ptr2
	_ = ptr3
	_ = ptr4
}

func blockSize(payload []byte) uint64 {
	return arena.FromPayload(unsafe.Pointer(unsafe.SliceData(payload))).SizeCurr()
}

func must(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "allocdemo:", err)
		os.Exit(1)
	}
}
