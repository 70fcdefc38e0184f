package abi

import (
	"unsafe"

	"github.com/cockroachdb/errors"
)

// CallFrame is a FunctionCallInfoBaseData allocation seen through two typed
// views: the fixed header and the trailing argument array. Both views point
// into a single block of SizeForCallFrame(n) bytes, which is what native code
// receives; Go code goes through Arg, which checks the index against the
// declared argument count.
type CallFrame struct {
	base   unsafe.Pointer
	header *CallFrameHeader
	args   []NullableDatum
	alloc  Allocator
}

// NewFmgrInfo allocates a zeroed FmgrInfo from alloc and fills in the fields
// the host sets at lookup time.
func NewFmgrInfo(alloc Allocator, addr uintptr, fnOid uint32, nargs int16, strict, retset bool) (*FmgrInfo, error) {
	p := alloc.Alloc(SizeofFmgrInfo)
	if p == nil {
		return nil, ErrOutOfMemory
	}
	info := (*FmgrInfo)(p)
	info.Addr = addr
	info.Oid = fnOid
	info.NArgs = nargs
	info.Strict = strict
	info.RetSet = retset
	return info, nil
}

// NewCallFrame allocates a frame for nargs arguments bound to flinfo. All
// argument slots start out as non-null zero Datums.
func NewCallFrame(alloc Allocator, flinfo *FmgrInfo, nargs int) (*CallFrame, error) {
	if nargs < 0 || nargs > MaxArgs {
		return nil, errors.Wrapf(ErrArgumentCount, "%d (maximum is %d)", nargs, MaxArgs)
	}
	base := alloc.Alloc(SizeForCallFrame(nargs))
	if base == nil {
		return nil, ErrOutOfMemory
	}
	frame := &CallFrame{
		base:   base,
		header: (*CallFrameHeader)(base),
		alloc:  alloc,
	}
	frame.header.FmgrInfo = uintptr(unsafe.Pointer(flinfo))
	frame.header.NArgs = int16(nargs)
	if nargs > 0 {
		frame.args = unsafe.Slice((*NullableDatum)(unsafe.Add(base, SizeofCallFrameHeader)), nargs)
	}
	return frame, nil
}

// Pointer returns the address handed to native code.
func (f *CallFrame) Pointer() unsafe.Pointer {
	return f.base
}

// Header exposes the fixed part of the frame.
func (f *CallFrame) Header() *CallFrameHeader {
	return f.header
}

// FmgrInfo returns the function metadata the frame is bound to.
func (f *CallFrame) FmgrInfo() *FmgrInfo {
	return (*FmgrInfo)(unsafe.Pointer(f.header.FmgrInfo))
}

// NArgs returns the declared argument count.
func (f *CallFrame) NArgs() int {
	return int(f.header.NArgs)
}

// Arg returns a mutable view of argument slot i.
func (f *CallFrame) Arg(i int) (*NullableDatum, error) {
	if i < 0 || i >= int(f.header.NArgs) {
		return nil, errors.Wrapf(ErrArgumentIndex, "index %d, frame has %d arguments", i, f.header.NArgs)
	}
	return &f.args[i], nil
}

// SetArg writes argument slot i.
func (f *CallFrame) SetArg(i int, nd NullableDatum) error {
	slot, err := f.Arg(i)
	if err != nil {
		return err
	}
	*slot = nd
	return nil
}

// SetValue encodes v into argument slot i, allocating any out-of-line payload
// from alloc.
func (f *CallFrame) SetValue(alloc Allocator, i int, v Value) error {
	slot, err := f.Arg(i)
	if err != nil {
		return err
	}
	nd, err := v.ToDatum(alloc)
	if err != nil {
		return errors.Wrapf(err, "argument %d", i+1)
	}
	*slot = nd
	return nil
}

// AnyArgNull reports whether any argument is null. Strict functions are never
// invoked when this is true.
func (f *CallFrame) AnyArgNull() bool {
	for i := range f.args {
		if f.args[i].IsNull {
			return true
		}
	}
	return false
}

func (f *CallFrame) ResultIsNull() bool     { return f.header.IsNull }
func (f *CallFrame) SetResultIsNull(b bool) { f.header.IsNull = b }
func (f *CallFrame) Collation() uint32      { return f.header.Collation }
func (f *CallFrame) SetCollation(c uint32)  { f.header.Collation = c }

// Reset clears the result flag so the frame can be reused for another call
// with the same argument count.
func (f *CallFrame) Reset() {
	f.header.IsNull = false
	for i := range f.args {
		f.args[i] = NullableDatum{}
	}
}

// Free returns the frame's memory to its allocator. The frame must not be used
// afterwards.
func (f *CallFrame) Free() {
	if f.base != nil {
		f.alloc.Free(f.base)
		f.base = nil
		f.header = nil
		f.args = nil
	}
}
