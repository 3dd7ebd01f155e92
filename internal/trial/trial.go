// Package trial implements the trial (a reserved slice of a study's grid
// plus its result mappings) and the trial table (the per-study log that
// aggregates completed regions and answers "what is the next free
// slice?").
package trial

import (
	"time"

	lderrors "github.com/atsuhiron/lite-dist2-go/internal/errors"
	"github.com/atsuhiron/lite-dist2-go/internal/space"
	"github.com/atsuhiron/lite-dist2-go/internal/value"
)

// Status is the trial's lifecycle state.
type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
)

// ResultShape distinguishes a single-value result from a vector result.
type ResultShape string

const (
	ResultScalar ResultShape = "scalar"
	ResultVector ResultShape = "vector"
)

// Mapping is one (parameter point -> result) pair recorded against a done
// trial.
type Mapping struct {
	Params []value.Scalar
	Shape  ResultShape
	Scalar value.Scalar
	Vector value.Vector
}

// ResultEqual reports bit-exact equality of the result value only (used by the
// FindExact study strategy), ignoring Params.
func (m Mapping) ResultEqual(o Mapping) bool {
	if m.Shape != o.Shape {
		return false
	}
	if m.Shape == ResultScalar {
		return m.Scalar.Equal(o.Scalar)
	}
	if len(m.Vector.Items) != len(o.Vector.Items) {
		return false
	}
	for i := range m.Vector.Items {
		if !m.Vector.Items[i].Equal(o.Vector.Items[i]) {
			return false
		}
	}
	return true
}

// RawMapping is the not-yet-decoded form of a worker-submitted result: the
// parameter point already decoded, but the result still in its raw wire
// payload(s), to be run through the codec with the study's declared
// result_type/result_value_type.
type RawMapping struct {
	Params          []value.Scalar
	IsVector        bool
	ResultPayload   string
	ResultPayloads  []string
}

// Trial is a reservation of a contiguous (or jagged) slice of a study's
// grid, issued to one worker.
type Trial struct {
	StudyID         string
	TrialID         string
	Timestamp       time.Time
	Status          Status
	ParameterSpace  space.ParameterSpace
	ResultShape     ResultShape
	ResultValueType value.Type
	Result          []Mapping
}

// ConvertMappingsFrom decodes raw worker-submitted mappings using the
// trial's declared result_value_type, failing with CodecError on malformed
// payloads.
func (t *Trial) ConvertMappingsFrom(raw []RawMapping) ([]Mapping, error) {
	out := make([]Mapping, 0, len(raw))
	for _, r := range raw {
		m := Mapping{Params: r.Params}
		if t.ResultShape == ResultVector || r.IsVector {
			v, err := value.DecodeVector(r.ResultPayloads, t.ResultValueType)
			if err != nil {
				return nil, err
			}
			m.Shape = ResultVector
			m.Vector = v
		} else {
			s, err := value.Decode(r.ResultPayload, t.ResultValueType)
			if err != nil {
				return nil, err
			}
			m.Shape = ResultScalar
			m.Scalar = s
		}
		out = append(out, m)
	}
	return out, nil
}

// Grid returns the total element count of this trial's region, or
// (0, true) if infinite. Jagged spaces are always finite.
func (t *Trial) Grid() (int64, bool) {
	switch p := t.ParameterSpace.(type) {
	case *space.AlignedSpace:
		return p.Total()
	case *space.JaggedSpace:
		return p.Len(), false
	default:
		return 0, false
	}
}

// ParseResultShape rejects an unknown result_type wire discriminator.
func ParseResultShape(s string) (ResultShape, error) {
	switch ResultShape(s) {
	case ResultScalar, ResultVector:
		return ResultShape(s), nil
	default:
		return "", lderrors.NewUndefinedError("result_type", s)
	}
}
