//go:build amd64 || arm64 || loong64 || mips64 || mips64le || ppc64 || ppc64le || riscv64 || s390x

package abi

import "unsafe"

// LP64 layout. Datum is 8 bytes, so int8 and float8 are passed by value.
const (
	float8ByVal = true

	expectedSizeofNullableDatum   = 16
	expectedSizeofFmgrInfo        = 48
	expectedSizeofCallFrameHeader = 32

	offsetFmgrNArgs   = 12
	offsetFmgrStrict  = 14
	offsetFmgrRetSet  = 15
	offsetFmgrStats   = 16
	offsetFmgrExtra   = 24
	offsetFmgrExpr    = 40
	offsetFrameColl   = 24
	offsetFrameIsNull = 28
	offsetFrameNArgs  = 30
)

// Any drift in the mirror fails the build here rather than corrupting memory
// inside a loaded extension.
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
