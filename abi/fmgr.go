// Package abi mirrors the memory layout of the host engine's function manager
// structures (fmgr.h). Everything here is a data-shape contract: field order,
// field size and padding must match what an extension module was compiled
// against, otherwise arguments are silently corrupted inside the extension.
package abi

import "unsafe"

// Datum is a single machine word holding either an inline scalar or the address
// of out-of-line data. The word carries no tag; the declared argument or return
// type of the consuming function decides how it is read.
type Datum uintptr

// NullableDatum pairs a Datum with a null flag. When IsNull is set, Value is
// unspecified and must not be interpreted.
type NullableDatum struct {
	Value  Datum
	IsNull bool
}

// FmgrInfo describes a callable extension function. The three trailing slots
// are opaque: Extra belongs to the invoked function (fn_extra), MemoryContext
// and Expr are handles owned by the host. They are stored as raw words so the
// Go runtime never treats foreign addresses as Go pointers.
type FmgrInfo struct {
	Addr          uintptr // fn_addr
	Oid           uint32  // fn_oid
	NArgs         int16   // fn_nargs
	Strict        bool    // fn_strict
	RetSet        bool    // fn_retset
	Stats         uint8   // fn_stats, never interpreted here
	Extra         uintptr // fn_extra
	MemoryContext uintptr // fn_mcxt
	Expr          uintptr // fn_expr
}

// CallFrameHeader is the fixed part of FunctionCallInfoBaseData. The argument
// array follows it directly in the same allocation, one NullableDatum per
// argument.
type CallFrameHeader struct {
	FmgrInfo   uintptr // flinfo
	Context    uintptr
	ResultInfo uintptr
	Collation  uint32
	IsNull     bool
	NArgs      int16
}

// MaxArgs is the host's FUNC_MAX_ARGS.
const MaxArgs = 100

const (
	SizeofDatum           = unsafe.Sizeof(Datum(0))
	SizeofNullableDatum   = unsafe.Sizeof(NullableDatum{})
	SizeofFmgrInfo        = unsafe.Sizeof(FmgrInfo{})
	SizeofCallFrameHeader = unsafe.Sizeof(CallFrameHeader{})
)

// SizeForCallFrame returns the number of bytes a call frame with nargs
// arguments occupies. Extension-loading code must allocate at least this much.
func SizeForCallFrame(nargs int) uintptr {
	return SizeofCallFrameHeader + uintptr(nargs)*SizeofNullableDatum
}

// Offsets lists the byte offset of every field the extension reads, keyed by
// the host's C field name. It exists so the C side can be checked against the
// Go mirror.
func Offsets() map[string]uintptr {
	var f FmgrInfo
	var h CallFrameHeader
	var n NullableDatum
	return map[string]uintptr{
		"FmgrInfo.fn_addr":                     unsafe.Offsetof(f.Addr),
		"FmgrInfo.fn_oid":                      unsafe.Offsetof(f.Oid),
		"FmgrInfo.fn_nargs":                    unsafe.Offsetof(f.NArgs),
		"FmgrInfo.fn_strict":                   unsafe.Offsetof(f.Strict),
		"FmgrInfo.fn_retset":                   unsafe.Offsetof(f.RetSet),
		"FmgrInfo.fn_stats":                    unsafe.Offsetof(f.Stats),
		"FmgrInfo.fn_extra":                    unsafe.Offsetof(f.Extra),
		"FmgrInfo.fn_mcxt":                     unsafe.Offsetof(f.MemoryContext),
		"FmgrInfo.fn_expr":                     unsafe.Offsetof(f.Expr),
		"FunctionCallInfoBaseData.flinfo":      unsafe.Offsetof(h.FmgrInfo),
		"FunctionCallInfoBaseData.context":     unsafe.Offsetof(h.Context),
		"FunctionCallInfoBaseData.resultinfo":  unsafe.Offsetof(h.ResultInfo),
		"FunctionCallInfoBaseData.fncollation": unsafe.Offsetof(h.Collation),
		"FunctionCallInfoBaseData.isnull":      unsafe.Offsetof(h.IsNull),
		"FunctionCallInfoBaseData.nargs":       unsafe.Offsetof(h.NArgs),
		"FunctionCallInfoBaseData.args":        SizeofCallFrameHeader,
		"NullableDatum.value":                  unsafe.Offsetof(n.Value),
		"NullableDatum.isnull":                 unsafe.Offsetof(n.IsNull),
	}
}

// Sizes lists the size of every mirrored structure, keyed by the host's C type
// name.
func Sizes() map[string]uintptr {
	return map[string]uintptr{
		"Datum":                    SizeofDatum,
		"NullableDatum":            SizeofNullableDatum,
		"FmgrInfo":                 SizeofFmgrInfo,
		"FunctionCallInfoBaseData": SizeofCallFrameHeader,
	}
}
