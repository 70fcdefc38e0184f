package pgext

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/pgext/pgext-go/abi"
)

// Signature is the SQL-level declaration of a function: it tells the host how
// to encode arguments and decode the result, which the Datums themselves never
// say.
type Signature struct {
	Args   []abi.Kind
	Result abi.Kind
	Strict bool
	RetSet bool
}

// String formats the signature as "(int4, int4) -> int4 STRICT".
func (s Signature) String() string {
	args := make([]string, len(s.Args))
	for i, k := range s.Args {
		args[i] = k.String()
	}
	var sb strings.Builder
	sb.WriteString("(" + strings.Join(args, ", ") + ") -> ")
	if s.RetSet {
		sb.WriteString("SETOF ")
	}
	sb.WriteString(s.Result.String())
	if s.Strict {
		sb.WriteString(" STRICT")
	}
	return sb.String()
}

// ParseSignature parses the compact form "int4,int4->int4", optionally
// followed by " strict". An empty argument list is written "->int4".
func ParseSignature(s string) (Signature, error) {
	var sig Signature
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutSuffix(strings.ToLower(s), " strict"); ok {
		sig.Strict = true
		s = s[:len(rest)]
	}
	args, result, ok := strings.Cut(s, "->")
	if !ok {
		return Signature{}, errors.Newf("signature %q: missing \"->\"", s)
	}
	result = strings.TrimSpace(result)
	if rest, ok := strings.CutPrefix(strings.ToLower(result), "setof "); ok {
		sig.RetSet = true
		result = rest
	}
	k, ok := abi.ParseKind(result)
	if !ok {
		return Signature{}, errors.Newf("signature %q: unknown result type %q", s, result)
	}
	sig.Result = k
	if strings.TrimSpace(args) != "" {
		for _, name := range strings.Split(args, ",") {
			k, ok := abi.ParseKind(name)
			if !ok {
				return Signature{}, errors.Newf("signature %q: unknown argument type %q", s, strings.TrimSpace(name))
			}
			sig.Args = append(sig.Args, k)
		}
	}
	if len(sig.Args) > abi.MaxArgs {
		return Signature{}, errors.Wrapf(abi.ErrArgumentCount, "signature %q", s)
	}
	return sig, nil
}

// ParseValue reads a literal of the given kind. "NULL" (any case) is the null
// value of every kind. Bytea literals starting with \x are hex-decoded.
func ParseValue(k abi.Kind, s string) (abi.Value, error) {
	if strings.EqualFold(s, "null") {
		return abi.Null(), nil
	}
	var err error
	switch k {
	case abi.KindBool:
		var b bool
		if b, err = strconv.ParseBool(s); err == nil {
			return abi.Bool(b), nil
		}
	case abi.KindInt16:
		var v int64
		if v, err = strconv.ParseInt(s, 10, 16); err == nil {
			return abi.Int16(int16(v)), nil
		}
	case abi.KindInt32:
		var v int64
		if v, err = strconv.ParseInt(s, 10, 32); err == nil {
			return abi.Int32(int32(v)), nil
		}
	case abi.KindInt64:
		var v int64
		if v, err = strconv.ParseInt(s, 10, 64); err == nil {
			return abi.Int64(v), nil
		}
	case abi.KindOid:
		var v uint64
		if v, err = strconv.ParseUint(s, 10, 32); err == nil {
			return abi.Oid(uint32(v)), nil
		}
	case abi.KindFloat4:
		var v float64
		if v, err = strconv.ParseFloat(s, 32); err == nil {
			return abi.Float4(float32(v)), nil
		}
	case abi.KindFloat8:
		var v float64
		if v, err = strconv.ParseFloat(s, 64); err == nil {
			return abi.Float8(v), nil
		}
	case abi.KindText:
		return abi.Text(s), nil
	case abi.KindBytea:
		// Hex format, as printed by Value.String; anything else is raw bytes.
		digits, ok := strings.CutPrefix(s, `\x`)
		if !ok {
			return abi.Bytea([]byte(s)), nil
		}
		var b []byte
		if b, err = hex.DecodeString(digits); err == nil {
			return abi.Bytea(b), nil
		}
	default:
		return abi.Value{}, errors.Newf("cannot parse a literal of type %s", k)
	}
	return abi.Value{}, errors.Wrapf(err, "invalid %s literal %q", k, s)
}
