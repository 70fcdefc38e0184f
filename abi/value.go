package abi

import (
	"fmt"
	"math"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/lib/pq/oid"
)

// Kind selects how a Datum is interpreted. The host never stores it in the
// Datum; it comes from the function's declared signature.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt16
	KindInt32
	KindInt64
	KindFloat4
	KindFloat8
	KindOid
	KindText
	KindBytea
	KindPointer
)

var kindNames = [...]string{
	KindNull:    "null",
	KindBool:    "bool",
	KindInt16:   "int2",
	KindInt32:   "int4",
	KindInt64:   "int8",
	KindFloat4:  "float4",
	KindFloat8:  "float8",
	KindOid:     "oid",
	KindText:    "text",
	KindBytea:   "bytea",
	KindPointer: "internal",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ByRef reports whether values of this kind live out of line.
func (k Kind) ByRef() bool {
	switch k {
	case KindText, KindBytea:
		return true
	case KindInt64, KindFloat8:
		return !float8ByVal
	default:
		return false
	}
}

var kindOIDs = map[Kind]oid.Oid{
	KindNull:    oid.T_void,
	KindBool:    oid.T_bool,
	KindInt16:   oid.T_int2,
	KindInt32:   oid.T_int4,
	KindInt64:   oid.T_int8,
	KindFloat4:  oid.T_float4,
	KindFloat8:  oid.T_float8,
	KindOid:     oid.T_oid,
	KindText:    oid.T_text,
	KindBytea:   oid.T_bytea,
	KindPointer: oid.T_internal,
}

var oidKinds = map[oid.Oid]Kind{
	oid.T_void:     KindNull,
	oid.T_bool:     KindBool,
	oid.T_int2:     KindInt16,
	oid.T_int4:     KindInt32,
	oid.T_int8:     KindInt64,
	oid.T_float4:   KindFloat4,
	oid.T_float8:   KindFloat8,
	oid.T_oid:      KindOid,
	oid.T_regproc:  KindOid,
	oid.T_regtype:  KindOid,
	oid.T_text:     KindText,
	oid.T_varchar:  KindText,
	oid.T_bpchar:   KindText,
	oid.T_name:     KindPointer,
	oid.T_bytea:    KindBytea,
	oid.T_internal: KindPointer,
	oid.T_cstring:  KindPointer,
}

// OID returns the type OID the host uses for this kind.
func (k Kind) OID() oid.Oid {
	return kindOIDs[k]
}

// KindForOID returns the kind used to carry values of the given type.
func KindForOID(o oid.Oid) (Kind, bool) {
	k, ok := oidKinds[o]
	return k, ok
}

// SQL spellings that are not catalog type names.
var typeAliases = map[string]oid.Oid{
	"boolean":           oid.T_bool,
	"smallint":          oid.T_int2,
	"int":               oid.T_int4,
	"integer":           oid.T_int4,
	"bigint":            oid.T_int8,
	"real":              oid.T_float4,
	"double precision":  oid.T_float8,
	"character varying": oid.T_varchar,
	"character":         oid.T_bpchar,
}

// TypeOID resolves a SQL type name such as "int4", "integer" or
// "pg_catalog.varchar(32)" to its type OID. Type modifiers are ignored.
func TypeOID(name string) (oid.Oid, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "pg_catalog.")
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	if o, ok := typeAliases[name]; ok {
		return o, true
	}
	upper := strings.ToUpper(name)
	for o, n := range oid.TypeName {
		if n == upper {
			return o, true
		}
	}
	return 0, false
}

// ParseKind resolves a SQL type name to the kind that carries its values.
func ParseKind(name string) (Kind, bool) {
	o, ok := TypeOID(name)
	if !ok {
		return 0, false
	}
	return KindForOID(o)
}

// Value is a decoded, typed view of a Datum. Code in this module works with
// Values and converts to raw Datums only at the boundary with native code.
type Value struct {
	kind Kind
	bits uint64
	data []byte
}

func Null() Value                { return Value{kind: KindNull} }
func Bool(b bool) Value          { return Value{kind: KindBool, bits: uint64(BoolGetDatum(b))} }
func Int16(v int16) Value        { return Value{kind: KindInt16, bits: uint64(v)} }
func Int32(v int32) Value        { return Value{kind: KindInt32, bits: uint64(v)} }
func Int64(v int64) Value        { return Value{kind: KindInt64, bits: uint64(v)} }
func Float4(v float32) Value     { return Value{kind: KindFloat4, bits: uint64(math.Float32bits(v))} }
func Float8(v float64) Value     { return Value{kind: KindFloat8, bits: math.Float64bits(v)} }
func Oid(v uint32) Value         { return Value{kind: KindOid, bits: uint64(v)} }
func Text(s string) Value        { return Value{kind: KindText, data: []byte(s)} }
func Bytea(b []byte) Value       { return Value{kind: KindBytea, data: append([]byte{}, b...)} }
func Pointer(addr uintptr) Value { return Value{kind: KindPointer, bits: uint64(addr)} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Bool() (bool, error) {
	if v.kind != KindBool {
		return false, v.mismatch(KindBool)
	}
	return v.bits != 0, nil
}

func (v Value) Int16() (int16, error) {
	if v.kind != KindInt16 {
		return 0, v.mismatch(KindInt16)
	}
	return int16(v.bits), nil
}

func (v Value) Int32() (int32, error) {
	if v.kind != KindInt32 {
		return 0, v.mismatch(KindInt32)
	}
	return int32(v.bits), nil
}

func (v Value) Int64() (int64, error) {
	if v.kind != KindInt64 {
		return 0, v.mismatch(KindInt64)
	}
	return int64(v.bits), nil
}

func (v Value) Float4() (float32, error) {
	if v.kind != KindFloat4 {
		return 0, v.mismatch(KindFloat4)
	}
	return math.Float32frombits(uint32(v.bits)), nil
}

func (v Value) Float8() (float64, error) {
	if v.kind != KindFloat8 {
		return 0, v.mismatch(KindFloat8)
	}
	return math.Float64frombits(v.bits), nil
}

func (v Value) Oid() (uint32, error) {
	if v.kind != KindOid {
		return 0, v.mismatch(KindOid)
	}
	return uint32(v.bits), nil
}

func (v Value) Text() (string, error) {
	if v.kind != KindText {
		return "", v.mismatch(KindText)
	}
	return string(v.data), nil
}

func (v Value) Bytea() ([]byte, error) {
	if v.kind != KindBytea {
		return nil, v.mismatch(KindBytea)
	}
	return append([]byte{}, v.data...), nil
}

func (v Value) Pointer() (uintptr, error) {
	if v.kind != KindPointer {
		return 0, v.mismatch(KindPointer)
	}
	return uintptr(v.bits), nil
}

// Any returns the value as a plain Go value, or nil for Null.
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.bits != 0
	case KindInt16:
		return int16(v.bits)
	case KindInt32:
		return int32(v.bits)
	case KindInt64:
		return int64(v.bits)
	case KindFloat4:
		return math.Float32frombits(uint32(v.bits))
	case KindFloat8:
		return math.Float64frombits(v.bits)
	case KindOid:
		return uint32(v.bits)
	case KindText:
		return string(v.data)
	case KindBytea:
		return append([]byte{}, v.data...)
	case KindPointer:
		return uintptr(v.bits)
	default:
		return nil
	}
}

func (v Value) String() string {
	if v.kind == KindNull {
		return "NULL"
	}
	if v.kind == KindBytea {
		return fmt.Sprintf("\\x%x", v.data)
	}
	return fmt.Sprint(v.Any())
}

func (v Value) mismatch(want Kind) error {
	return errors.Wrapf(ErrKindMismatch, "value is %s, not %s", v.kind, want)
}

// ToDatum encodes the value the way the host would. By-reference payloads are
// allocated from alloc and stay valid until the allocator frees them.
func (v Value) ToDatum(alloc Allocator) (NullableDatum, error) {
	var d Datum
	var err error
	switch v.kind {
	case KindNull:
		return NullableDatum{IsNull: true}, nil
	case KindBool:
		d = BoolGetDatum(v.bits != 0)
	case KindInt16:
		d = Int16GetDatum(int16(v.bits))
	case KindInt32:
		d = Int32GetDatum(int32(v.bits))
	case KindFloat4:
		d = Float4GetDatum(math.Float32frombits(uint32(v.bits)))
	case KindOid:
		d = ObjectIdGetDatum(uint32(v.bits))
	case KindInt64, KindFloat8:
		d, err = word64GetDatum(alloc, v.bits)
	case KindText, KindBytea:
		d, err = encodeVarlena(alloc, v.data)
	case KindPointer:
		d = Datum(uintptr(v.bits))
	default:
		return NullableDatum{}, errors.Errorf("cannot encode %s", v.kind)
	}
	if err != nil {
		return NullableDatum{}, err
	}
	return NullableDatum{Value: d}, nil
}

// FromDatum decodes nd as a value of the given kind. A null datum always
// decodes to Null, whatever the kind.
func FromDatum(kind Kind, nd NullableDatum) (Value, error) {
	if nd.IsNull || kind == KindNull {
		return Null(), nil
	}
	d := nd.Value
	switch kind {
	case KindBool:
		return Bool(DatumGetBool(d)), nil
	case KindInt16:
		return Int16(DatumGetInt16(d)), nil
	case KindInt32:
		return Int32(DatumGetInt32(d)), nil
	case KindFloat4:
		return Float4(DatumGetFloat4(d)), nil
	case KindOid:
		return Oid(DatumGetObjectId(d)), nil
	case KindInt64, KindFloat8:
		w, err := datumGetWord64(d)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: kind, bits: w}, nil
	case KindText, KindBytea:
		payload, err := decodeVarlena(d)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: kind, data: payload}, nil
	case KindPointer:
		return Pointer(uintptr(d)), nil
	default:
		return Value{}, errors.Errorf("cannot decode %s", kind)
	}
}
