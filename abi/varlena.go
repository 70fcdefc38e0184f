package abi

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/cockroachdb/errors"
)

// VarHdrSz is the size of the 4-byte varlena length header.
const VarHdrSz = 4

// maxVarlenaSize is the largest total size a 4-byte header can express.
const maxVarlenaSize = 0x3FFFFFFF

var bigEndian = binary.NativeEndian.Uint16([]byte{0x12, 0x34}) == 0x1234

// encodeVarlena copies payload into a freshly allocated varlena with a plain
// (uncompressed) 4-byte header.
func encodeVarlena(alloc Allocator, payload []byte) (Datum, error) {
	total := VarHdrSz + len(payload)
	if total > maxVarlenaSize {
		return 0, errors.Wrapf(ErrVarlenaTooLarge, "%d bytes", len(payload))
	}
	p := alloc.Alloc(uintptr(total))
	if p == nil {
		return 0, ErrOutOfMemory
	}
	buf := unsafe.Slice((*byte)(p), total)
	var header uint32
	if bigEndian {
		header = uint32(total) & maxVarlenaSize
	} else {
		header = uint32(total) << 2
	}
	binary.NativeEndian.PutUint32(buf, header)
	copy(buf[VarHdrSz:], payload)
	return PointerGetDatum(p), nil
}

// decodeVarlena returns a copy of the payload of the varlena at d. Both the
// 4-byte and the 1-byte short header forms are accepted.
func decodeVarlena(d Datum) ([]byte, error) {
	if d == 0 {
		return nil, ErrNullPointer
	}
	p := DatumGetPointer(d)
	first := *(*byte)(p)
	if oneByte, external, compressed := classifyHeader(first); oneByte {
		if external {
			return nil, errors.Wrap(ErrUnsupportedVarlena, "external toast pointer")
		}
		var total int
		if bigEndian {
			total = int(first & 0x7F)
		} else {
			total = int(first>>1) & 0x7F
		}
		if total < 1 {
			return nil, ErrMalformedVarlena
		}
		return bytes.Clone(unsafe.Slice((*byte)(p), total)[1:]), nil
	} else if compressed {
		return nil, errors.Wrap(ErrUnsupportedVarlena, "compressed datum")
	}
	header := binary.NativeEndian.Uint32(unsafe.Slice((*byte)(p), VarHdrSz))
	var total int
	if bigEndian {
		total = int(header & maxVarlenaSize)
	} else {
		total = int((header >> 2) & maxVarlenaSize)
	}
	if total < VarHdrSz {
		return nil, errors.Wrapf(ErrMalformedVarlena, "length %d", total)
	}
	return bytes.Clone(unsafe.Slice((*byte)(p), total)[VarHdrSz:]), nil
}

func classifyHeader(first byte) (oneByte, external, compressed bool) {
	if bigEndian {
		oneByte = first&0x80 == 0x80
		external = first == 0x80
		compressed = first&0xC0 == 0x40
	} else {
		oneByte = first&0x01 == 0x01
		external = first == 0x01
		compressed = first&0x03 == 0x02
	}
	return
}
