// Package axis implements the line segment: one axis of a grid,
// typed, strided, positioned inside an ambient axis. It supports lazy grid
// iteration, slicing, merging, and containment checks.
package axis

import (
	"iter"
	"math"

	lderrors "github.com/atsuhiron/lite-dist2-go/internal/errors"
	"github.com/atsuhiron/lite-dist2-go/internal/value"
)

// Infinite is the sentinel used for Size/AmbientSize fields that represent
// an unbounded axis. Only dim 0 of a space may carry it.
const Infinite int64 = -1

// Axis is a typed arithmetic sequence start, start+step, ..., positioned at
// [AmbientIndex, AmbientIndex+Size) inside an ambient axis of length
// AmbientSize.
type Axis struct {
	Name    string
	HasName bool
	Type    value.Type

	// Numeric fields: StartI/StepI are authoritative when Type is Int or
	// Bool (bool only ever takes Start=0, Step=1); StartF/StepF are
	// authoritative when Type is Float. Keeping the two representations
	// distinct keeps int arithmetic exact instead of silently narrowing
	// through a float intermediate.
	StartI int64
	StepI  int64
	StartF float64
	StepF  float64

	Size         int64 // Infinite allowed only when AmbientSize is Infinite
	AmbientIndex int64
	AmbientSize int64 // Infinite allowed only on axis 0 of a space
}

// New validates and constructs an Axis, enforcing the bool-axis invariant
// (size<=2, ambient_size<=2, step=1).
func New(a Axis) (*Axis, error) {
	if a.Type == value.Bool {
		if a.Size != Infinite && a.Size > 2 {
			return nil, lderrors.NewInvalidSpaceError("bool axis size must be <= 2")
		}
		if a.AmbientSize != Infinite && a.AmbientSize > 2 {
			return nil, lderrors.NewInvalidSpaceError("bool axis ambient_size must be <= 2")
		}
		if a.StepI != 1 {
			return nil, lderrors.NewInvalidSpaceError("bool axis step must be 1")
		}
	}
	if a.Size < 0 && a.Size != Infinite {
		return nil, lderrors.NewInvalidSpaceError("size must be positive or infinite")
	}
	cp := a
	return &cp, nil
}

// DummyAxis records only {name, value_type, step, ambient_size}; it yields
// no grid and is used as jagged-space metadata.
type DummyAxis struct {
	Name        string
	HasName     bool
	Type        value.Type
	StepI       int64
	StepF       float64
	AmbientSize int64
}

func (a *Axis) valueAt(i int64) value.Scalar {
	switch a.Type {
	case value.Bool:
		return value.NewBool(a.StartI+i*a.StepI != 0)
	case value.Int:
		return value.NewInt(a.StartI + i*a.StepI)
	case value.Float:
		return value.NewFloat(a.StartF + float64(i)*a.StepF)
	default:
		return value.Scalar{}
	}
}

// Grid lazily yields start+i*step for i in [0, size). For an infinite axis
// (only legal on dim 0) it yields forever; callers must bound consumption.
func (a *Axis) Grid() iter.Seq[value.Scalar] {
	return func(yield func(value.Scalar) bool) {
		if a.Size == Infinite {
			for i := int64(0); ; i++ {
				if !yield(a.valueAt(i)) {
					return
				}
			}
		}
		for i := int64(0); i < a.Size; i++ {
			if !yield(a.valueAt(i)) {
				return
			}
		}
	}
}

// IndexedGrid yields (local_index, value) pairs.
func (a *Axis) IndexedGrid() iter.Seq2[int64, value.Scalar] {
	return func(yield func(int64, value.Scalar) bool) {
		if a.Size == Infinite {
			for i := int64(0); ; i++ {
				if !yield(i, a.valueAt(i)) {
					return
				}
			}
		}
		for i := int64(0); i < a.Size; i++ {
			if !yield(i, a.valueAt(i)) {
				return
			}
		}
	}
}

// Slice returns the sub-segment starting at local index startIndex with
// subSize elements, re-positioned in ambient-index space. Fails with
// ParameterError if startIndex+subSize exceeds Size.
func (a *Axis) Slice(startIndex, subSize int64) (*Axis, error) {
	if a.Size != Infinite {
		if subSize != Infinite && startIndex+subSize > a.Size {
			return nil, lderrors.NewParameterError("slice exceeds axis size")
		}
		if subSize == Infinite {
			return nil, lderrors.NewParameterError("slice cannot be infinite on a finite axis")
		}
	}
	out := *a
	out.AmbientIndex = a.AmbientIndex + startIndex
	out.Size = subSize
	switch a.Type {
	case value.Bool, value.Int:
		out.StartI = a.StartI + startIndex*a.StepI
	case value.Float:
		out.StartF = a.StartF + float64(startIndex)*a.StepF
	}
	return &out, nil
}

// EndIndex returns ambient_index + size - 1. Fails with ParameterError on
// an infinite-size axis.
func (a *Axis) EndIndex() (int64, error) {
	if a.Size == Infinite {
		return 0, lderrors.NewParameterError("end index undefined for infinite axis")
	}
	return a.AmbientIndex + a.Size - 1, nil
}

// endForCompare returns EndIndex(), substituting math.MaxInt64 for an
// infinite axis so interval comparisons stay well-ordered.
func (a *Axis) endForCompare() int64 {
	if a.Size == Infinite {
		return math.MaxInt64
	}
	return a.AmbientIndex + a.Size - 1
}

// IsUniversal reports whether this axis spans its entire ambient axis.
func (a *Axis) IsUniversal() bool {
	return a.Size == a.AmbientSize
}

// DerivedFromSameAmbient reports whether two axes could only differ in
// position along one shared ambient axis: same name, value type, step, and
// ambient size.
func (a *Axis) DerivedFromSameAmbient(o *Axis) bool {
	if a.HasName != o.HasName || (a.HasName && a.Name != o.Name) {
		return false
	}
	if a.Type != o.Type || a.AmbientSize != o.AmbientSize {
		return false
	}
	switch a.Type {
	case value.Float:
		sa, _ := value.Encode(value.NewFloat(a.StepF))
		sb, _ := value.Encode(value.NewFloat(o.StepF))
		return sa == sb
	default:
		return a.StepI == o.StepI
	}
}

// CanMerge reports whether the two segments touch or overlap in ambient
// index space. Precondition: DerivedFromSameAmbient(o).
func (a *Axis) CanMerge(o *Axis) bool {
	lo := a.AmbientIndex
	if o.AmbientIndex > lo {
		lo = o.AmbientIndex
	}
	hi := a.endForCompare()
	if oh := o.endForCompare(); oh < hi {
		hi = oh
	}
	if hi == math.MaxInt64 {
		return true
	}
	return hi+1 >= lo
}

// Merge spans the two segments from the smaller ambient_index to the
// larger end_index, preserving name/step/ambient_size.
func (a *Axis) Merge(o *Axis) (*Axis, error) {
	newAmbientIndex := a.AmbientIndex
	if o.AmbientIndex < newAmbientIndex {
		newAmbientIndex = o.AmbientIndex
	}
	aInf := a.Size == Infinite
	oInf := o.Size == Infinite
	out := *a
	out.AmbientIndex = newAmbientIndex
	if aInf || oInf {
		out.Size = Infinite
	} else {
		newEnd := a.endForCompare()
		if oe := o.endForCompare(); oe > newEnd {
			newEnd = oe
		}
		out.Size = newEnd - newAmbientIndex + 1
	}
	switch a.Type {
	case value.Bool, value.Int:
		base := a.StartI - a.AmbientIndex*a.StepI
		out.StartI = base + newAmbientIndex*a.StepI
	case value.Float:
		base := a.StartF - float64(a.AmbientIndex)*a.StepF
		out.StartF = base + float64(newAmbientIndex)*a.StepF
	}
	return &out, nil
}
