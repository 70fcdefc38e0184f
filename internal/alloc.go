package internal

/*
#include <stdlib.h>
*/
import "C"
import "unsafe"

// CAllocator hands out zeroed C heap memory. Anything whose address ends up
// inside a call frame must come from here (or from pinned Go memory).
type CAllocator struct{}

// Alloc implements abi.Allocator.
func (CAllocator) Alloc(size uintptr) unsafe.Pointer {
	if size == 0 {
		size = 1
	}
	return C.calloc(1, C.size_t(size))
}

// Free implements abi.Allocator.
func (CAllocator) Free(p unsafe.Pointer) {
	C.free(p)
}
