// Package value implements the loss-less scalar value codec: encoding
// bool/int/float primitives as exact, round-trippable strings, and decoding
// them back. Ints encode as signed "0x"-prefixed hexadecimal; floats encode
// as C99 hex-float literals; booleans encode as their native literal.
package value

import (
	"strconv"
	"strings"

	lderrors "github.com/atsuhiron/lite-dist2-go/internal/errors"
)

// Type is the scalar value type discriminator. It is a tagged variant, not
// an open string: Parse rejects anything else.
type Type string

const (
	Bool  Type = "bool"
	Int   Type = "int"
	Float Type = "float"
)

// ParseType validates a wire type discriminator, rejecting unknown tags.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case Bool, Int, Float:
		return Type(s), nil
	default:
		return "", lderrors.NewUndefinedError("value_type", s)
	}
}

// Scalar is a decoded primitive value. Exactly one of the fields is
// meaningful, selected by Type.
type Scalar struct {
	Type  Type
	Bool  bool
	Int   int64
	Float float64
}

func NewBool(b bool) Scalar    { return Scalar{Type: Bool, Bool: b} }
func NewInt(i int64) Scalar    { return Scalar{Type: Int, Int: i} }
func NewFloat(f float64) Scalar { return Scalar{Type: Float, Float: f} }

// Equal reports bit-exact equality: int/bool compare natively, float
// compares on the encoded payload (see FindExact, studystrategy package) to
// avoid NaN/signed-zero ambiguity from native ==.
func (s Scalar) Equal(o Scalar) bool {
	if s.Type != o.Type {
		return false
	}
	switch s.Type {
	case Bool:
		return s.Bool == o.Bool
	case Int:
		return s.Int == o.Int
	case Float:
		sa, _ := Encode(s)
		sb, _ := Encode(o)
		return sa == sb
	default:
		return false
	}
}

// Encode turns a Scalar into its loss-less textual payload.
func Encode(v Scalar) (string, error) {
	switch v.Type {
	case Bool:
		return strconv.FormatBool(v.Bool), nil
	case Int:
		return encodeHexInt(v.Int), nil
	case Float:
		return encodeHexFloat(v.Float), nil
	default:
		return "", lderrors.NewCodecError("", string(v.Type), "unknown value type")
	}
}

// Decode parses a payload string into a Scalar of the given type, failing
// with CodecError on malformed input.
func Decode(payload string, t Type) (Scalar, error) {
	switch t {
	case Bool:
		b, err := strconv.ParseBool(payload)
		if err != nil {
			return Scalar{}, lderrors.NewCodecError(payload, string(t), "malformed bool literal")
		}
		return NewBool(b), nil
	case Int:
		i, err := decodeHexInt(payload)
		if err != nil {
			return Scalar{}, lderrors.NewCodecError(payload, string(t), "malformed hex integer")
		}
		return NewInt(i), nil
	case Float:
		f, err := strconv.ParseFloat(payload, 64)
		if err != nil {
			return Scalar{}, lderrors.NewCodecError(payload, string(t), "malformed hex float literal")
		}
		return NewFloat(f), nil
	default:
		return Scalar{}, lderrors.NewCodecError(payload, string(t), "unknown value type")
	}
}

func encodeHexInt(i int64) string {
	if i < 0 {
		// Avoid overflow on math.MinInt64 by working in uint64 space.
		u := uint64(-(i + 1)) + 1
		return "-0x" + strconv.FormatUint(u, 16)
	}
	return "0x" + strconv.FormatUint(uint64(i), 16)
}

func decodeHexInt(s string) (int64, error) {
	neg := false
	rest := s
	if strings.HasPrefix(rest, "-") {
		neg = true
		rest = rest[1:]
	}
	if !strings.HasPrefix(rest, "0x") && !strings.HasPrefix(rest, "0X") {
		return 0, strconv.ErrSyntax
	}
	u, err := strconv.ParseUint(rest[2:], 16, 64)
	if err != nil {
		return 0, err
	}
	if neg {
		return -int64(u), nil
	}
	return int64(u), nil
}

// encodeHexFloat renders a C99 hex-float literal, e.g. 0.1 -> "0x1.999999999999ap-4".
// strconv's 'x' verb produces the shortest round-tripping mantissa but pads
// the exponent to two digits; C99 writes it unpadded.
func encodeHexFloat(f float64) string {
	s := strconv.FormatFloat(f, 'x', -1, 64)
	p := strings.LastIndexByte(s, 'p')
	if p < 0 {
		return s // Inf, NaN
	}
	exp := s[p+1:]
	sign := ""
	if len(exp) > 0 && (exp[0] == '+' || exp[0] == '-') {
		sign = string(exp[0])
		exp = exp[1:]
	}
	for len(exp) > 1 && exp[0] == '0' {
		exp = exp[1:]
	}
	return s[:p+1] + sign + exp
}

// Vector is a sequence of scalar payloads sharing one value type.
type Vector struct {
	Type  Type
	Items []Scalar
}

// EncodeVector encodes each item with Encode.
func EncodeVector(v Vector) ([]string, error) {
	out := make([]string, len(v.Items))
	for i, item := range v.Items {
		s, err := Encode(item)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// DecodeVector decodes each payload with Decode.
func DecodeVector(payloads []string, t Type) (Vector, error) {
	items := make([]Scalar, len(payloads))
	for i, p := range payloads {
		s, err := Decode(p, t)
		if err != nil {
			return Vector{}, err
		}
		items[i] = s
	}
	return Vector{Type: t, Items: items}, nil
}
