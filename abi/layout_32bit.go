//go:build 386 || arm || mips || mipsle

package abi

import "unsafe"

// ILP32 layout. Datum is 4 bytes, so int8 and float8 are passed by reference
// (the host is built without USE_FLOAT8_BYVAL on these targets).
const (
	float8ByVal = false

	expectedSizeofNullableDatum   = 8
	expectedSizeofFmgrInfo        = 28
	expectedSizeofCallFrameHeader = 20

	offsetFmgrNArgs   = 8
	offsetFmgrStrict  = 10
	offsetFmgrRetSet  = 11
	offsetFmgrStats   = 12
	offsetFmgrExtra   = 16
	offsetFmgrExpr    = 24
	offsetFrameColl   = 12
	offsetFrameIsNull = 16
	offsetFrameNArgs  = 18
)

var (
	_ = [1]struct{}{}[SizeofNullableDatum-expectedSizeofNullableDatum]
	_ = [1]struct{}{}[SizeofFmgrInfo-expectedSizeofFmgrInfo]
	_ = [1]struct{}{}[SizeofCallFrameHeader-expectedSizeofCallFrameHeader]
	_ = [1]struct{}{}[unsafe.Offsetof(FmgrInfo{}.NArgs)-offsetFmgrNArgs]
	_ = [1]struct{}{}[unsafe.Offsetof(FmgrInfo{}.Strict)-offsetFmgrStrict]
	_ = [1]struct{}{}[unsafe.Offsetof(FmgrInfo{}.RetSet)-offsetFmgrRetSet]
	_ = [1]struct{}{}[unsafe.Offsetof(FmgrInfo{}.Stats)-offsetFmgrStats]
	_ = [1]struct{}{}[unsafe.Offsetof(FmgrInfo{}.Extra)-offsetFmgrExtra]
	_ = [1]struct{}{}[unsafe.Offsetof(FmgrInfo{}.Expr)-offsetFmgrExpr]
	_ = [1]struct{}{}[unsafe.Offsetof(CallFrameHeader{}.Collation)-offsetFrameColl]
	_ = [1]struct{}{}[unsafe.Offsetof(CallFrameHeader{}.IsNull)-offsetFrameIsNull]
	_ = [1]struct{}{}[unsafe.Offsetof(CallFrameHeader{}.NArgs)-offsetFrameNArgs]
)
