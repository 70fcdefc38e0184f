package abi

import (
	"runtime"
	"sync"
	"unsafe"
)

// Allocator hands out zeroed, word-aligned memory that may be passed to native
// extension code. Implementations backed by C memory live in the internal
// package.
type Allocator interface {
	Alloc(size uintptr) unsafe.Pointer
	Free(p unsafe.Pointer)
}

// GoAllocator allocates pinned Go memory. It is meant for hosts and tests that
// never hand frames to C. Release must be called once the memory is no longer
// referenced, otherwise the pins leak.
type GoAllocator struct {
	mu     sync.Mutex
	pinner runtime.Pinner
	blocks map[unsafe.Pointer][]uint64
}

// NewGoAllocator returns an empty GoAllocator.
func NewGoAllocator() *GoAllocator {
	return &GoAllocator{blocks: make(map[unsafe.Pointer][]uint64)}
}

// Alloc implements Allocator.
func (a *GoAllocator) Alloc(size uintptr) unsafe.Pointer {
	if size == 0 {
		size = 1
	}
	words := make([]uint64, (size+7)/8)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pinner.Pin(&words[0])
	p := unsafe.Pointer(&words[0])
	a.blocks[p] = words
	return p
}

// Free implements Allocator. The block stays pinned until Release.
func (a *GoAllocator) Free(p unsafe.Pointer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.blocks, p)
}

// Live returns the number of blocks that have not been freed.
func (a *GoAllocator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.blocks)
}

// Release unpins every block handed out so far.
func (a *GoAllocator) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pinner.Unpin()
	clear(a.blocks)
}

// Arena groups allocations that share a lifetime, standing in for the host's
// per-call memory context. Reset frees everything allocated through it.
type Arena struct {
	parent Allocator
	ptrs   []unsafe.Pointer
}

// NewArena returns an Arena drawing from parent.
func NewArena(parent Allocator) *Arena {
	return &Arena{parent: parent}
}

// Alloc implements Allocator.
func (a *Arena) Alloc(size uintptr) unsafe.Pointer {
	p := a.parent.Alloc(size)
	if p != nil {
		a.ptrs = append(a.ptrs, p)
	}
	return p
}

// Free is a no-op; arena memory is released by Reset.
func (a *Arena) Free(unsafe.Pointer) {}

// Len returns the number of live allocations.
func (a *Arena) Len() int {
	return len(a.ptrs)
}

// Reset frees every allocation made through the arena.
func (a *Arena) Reset() {
	for _, p := range a.ptrs {
		a.parent.Free(p)
	}
	a.ptrs = a.ptrs[:0]
}
