package abi

import (
	"math"
	"unsafe"
)

// The conversions below reproduce the host's postgres.h accessors. Extension
// code decodes Datums with its own compiled copy of those accessors, so each
// encoding here has to be bit-identical, including sign extension.

func BoolGetDatum(b bool) Datum {
	if b {
		return 1
	}
	return 0
}

func DatumGetBool(d Datum) bool {
	return d != 0
}

func Int16GetDatum(v int16) Datum {
	return Datum(int(v))
}

func DatumGetInt16(d Datum) int16 {
	return int16(d)
}

func Int32GetDatum(v int32) Datum {
	return Datum(int(v))
}

func DatumGetInt32(d Datum) int32 {
	return int32(d)
}

func ObjectIdGetDatum(v uint32) Datum {
	return Datum(v)
}

func DatumGetObjectId(d Datum) uint32 {
	return uint32(d)
}

// Float4GetDatum stores the float's bit pattern as a sign-extended int32, the
// same way the host's union-based conversion does.
func Float4GetDatum(f float32) Datum {
	return Int32GetDatum(int32(math.Float32bits(f)))
}

func DatumGetFloat4(d Datum) float32 {
	return math.Float32frombits(uint32(DatumGetInt32(d)))
}

func PointerGetDatum(p unsafe.Pointer) Datum {
	return Datum(uintptr(p))
}

func DatumGetPointer(d Datum) unsafe.Pointer {
	return unsafe.Pointer(uintptr(d))
}

// Int64GetDatum encodes a 64-bit integer. On 32-bit targets the value does not
// fit in a Datum and is copied into memory obtained from alloc.
func Int64GetDatum(alloc Allocator, v int64) (Datum, error) {
	return word64GetDatum(alloc, uint64(v))
}

func DatumGetInt64(d Datum) (int64, error) {
	w, err := datumGetWord64(d)
	return int64(w), err
}

// Float8GetDatum encodes a float8, by value or by reference depending on the
// target word size.
func Float8GetDatum(alloc Allocator, f float64) (Datum, error) {
	return word64GetDatum(alloc, math.Float64bits(f))
}

func DatumGetFloat8(d Datum) (float64, error) {
	w, err := datumGetWord64(d)
	return math.Float64frombits(w), err
}

// Float8ByVal reports whether 64-bit scalars travel inside the Datum itself.
func Float8ByVal() bool {
	return float8ByVal
}

func word64GetDatum(alloc Allocator, w uint64) (Datum, error) {
	if float8ByVal {
		return Datum(w), nil
	}
	p := alloc.Alloc(8)
	if p == nil {
		return 0, ErrOutOfMemory
	}
	*(*uint64)(p) = w
	return PointerGetDatum(p), nil
}

func datumGetWord64(d Datum) (uint64, error) {
	if float8ByVal {
		return uint64(d), nil
	}
	if d == 0 {
		return 0, ErrNullPointer
	}
	return *(*uint64)(DatumGetPointer(d)), nil
}
