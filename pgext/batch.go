package pgext

import (
	"context"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/cockroachdb/errors"

	"github.com/pgext/pgext-go/abi"
)

// ArrowType returns the Arrow type used for columns of kind k.
func ArrowType(k abi.Kind) (arrow.DataType, error) {
	switch k {
	case abi.KindBool:
		return arrow.FixedWidthTypes.Boolean, nil
	case abi.KindInt16:
		return arrow.PrimitiveTypes.Int16, nil
	case abi.KindInt32:
		return arrow.PrimitiveTypes.Int32, nil
	case abi.KindInt64:
		return arrow.PrimitiveTypes.Int64, nil
	case abi.KindOid:
		return arrow.PrimitiveTypes.Uint32, nil
	case abi.KindFloat4:
		return arrow.PrimitiveTypes.Float32, nil
	case abi.KindFloat8:
		return arrow.PrimitiveTypes.Float64, nil
	case abi.KindText:
		return arrow.BinaryTypes.String, nil
	case abi.KindBytea:
		return arrow.BinaryTypes.Binary, nil
	case abi.KindNull:
		return arrow.Null, nil
	default:
		return nil, errors.Newf("no arrow type for %s", k)
	}
}

// EvaluateRecord calls c once per row of rec, taking argument i from column
// i, and returns the results as one array allocated from mem (the default
// allocator if nil). Null cells become null arguments. The caller releases
// the returned array.
func EvaluateRecord(ctx context.Context, mem memory.Allocator, c *Callable, rec arrow.Record) (arrow.Array, error) {
	sig := c.Signature()
	if int(rec.NumCols()) != len(sig.Args) {
		return nil, errors.Wrapf(abi.ErrArgumentCount, "function %q takes %d arguments, record has %d columns",
			c.Function().Name, len(sig.Args), rec.NumCols())
	}
	resultType, err := ArrowType(sig.Result)
	if err != nil {
		return nil, err
	}
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	b := array.NewBuilder(mem, resultType)
	defer b.Release()

	args := make([]abi.Value, len(sig.Args))
	for row := 0; row < int(rec.NumRows()); row++ {
		for col := range args {
			v, err := valueAt(rec.Column(col), row)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d, column %q", row, rec.ColumnName(col))
			}
			args[col] = v
		}
		result, err := c.Call(ctx, args...)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", row)
		}
		if err := appendValue(b, result); err != nil {
			return nil, errors.Wrapf(err, "row %d", row)
		}
	}
	return b.NewArray(), nil
}

func valueAt(col arrow.Array, row int) (abi.Value, error) {
	if col.IsNull(row) {
		return abi.Null(), nil
	}
	switch a := col.(type) {
	case *array.Boolean:
		return abi.Bool(a.Value(row)), nil
	case *array.Int16:
		return abi.Int16(a.Value(row)), nil
	case *array.Int32:
		return abi.Int32(a.Value(row)), nil
	case *array.Int64:
		return abi.Int64(a.Value(row)), nil
	case *array.Uint32:
		return abi.Oid(a.Value(row)), nil
	case *array.Float32:
		return abi.Float4(a.Value(row)), nil
	case *array.Float64:
		return abi.Float8(a.Value(row)), nil
	case *array.String:
		return abi.Text(a.Value(row)), nil
	case *array.Binary:
		return abi.Bytea(a.Value(row)), nil
	default:
		return abi.Value{}, errors.Newf("unsupported column type %s", col.DataType())
	}
}

func appendValue(b array.Builder, v abi.Value) error {
	if v.IsNull() {
		b.AppendNull()
		return nil
	}
	var err error
	switch bb := b.(type) {
	case *array.BooleanBuilder:
		var x bool
		if x, err = v.Bool(); err == nil {
			bb.Append(x)
		}
	case *array.Int16Builder:
		var x int16
		if x, err = v.Int16(); err == nil {
			bb.Append(x)
		}
	case *array.Int32Builder:
		var x int32
		if x, err = v.Int32(); err == nil {
			bb.Append(x)
		}
	case *array.Int64Builder:
		var x int64
		if x, err = v.Int64(); err == nil {
			bb.Append(x)
		}
	case *array.Uint32Builder:
		var x uint32
		if x, err = v.Oid(); err == nil {
			bb.Append(x)
		}
	case *array.Float32Builder:
		var x float32
		if x, err = v.Float4(); err == nil {
			bb.Append(x)
		}
	case *array.Float64Builder:
		var x float64
		if x, err = v.Float8(); err == nil {
			bb.Append(x)
		}
	case *array.StringBuilder:
		var x string
		if x, err = v.Text(); err == nil {
			bb.Append(x)
		}
	case *array.BinaryBuilder:
		var x []byte
		if x, err = v.Bytea(); err == nil {
			bb.Append(x)
		}
	default:
		return errors.Newf("cannot append %s to %s", v.Kind(), b.Type())
	}
	return err
}
