// Package codec re-exports the value codec for worker-side use: workers
// must encode results exactly the way the table node decodes them
// (signed 0x-hex for ints, C99 hex-float literals for floats, native
// booleans).
package codec

import "github.com/atsuhiron/lite-dist2-go/internal/value"

// Type aliases keep the wire vocabulary in one place.
type (
	Type   = value.Type
	Scalar = value.Scalar
	Vector = value.Vector
)

const (
	Bool  = value.Bool
	Int   = value.Int
	Float = value.Float
)

var (
	NewBool  = value.NewBool
	NewInt   = value.NewInt
	NewFloat = value.NewFloat

	Encode       = value.Encode
	Decode       = value.Decode
	EncodeVector = value.EncodeVector
	DecodeVector = value.DecodeVector
	ParseType    = value.ParseType
)
