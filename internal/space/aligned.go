// Package space implements the aligned space (an axis-aligned N-D box over
// a parameter grid) and the jagged space (the enumerated-point fallback
// used when alignment cannot be preserved).
package space

import (
	"fmt"

	"github.com/atsuhiron/lite-dist2-go/internal/axis"
	lderrors "github.com/atsuhiron/lite-dist2-go/internal/errors"
	"github.com/atsuhiron/lite-dist2-go/internal/flatten"
	"github.com/atsuhiron/lite-dist2-go/internal/value"
)

// AlignedSpace is an ordered list of line segments forming an axis-aligned
// N-D box. Axis 0 is the outermost (slowest-varying) dimension.
type AlignedSpace struct {
	Axes []*axis.Axis
	// CheckLowerFilling forces the lower-filling structural invariant: the
	// region is a single contiguous run in row-major flattening.
	CheckLowerFilling bool
}

// New validates and constructs an AlignedSpace.
func New(axes []*axis.Axis, checkLowerFilling bool) (*AlignedSpace, error) {
	for i, a := range axes {
		if a.AmbientSize == axis.Infinite && i != 0 {
			return nil, lderrors.NewInvalidSpaceError("only axis 0 may have infinite ambient_size")
		}
	}
	sp := &AlignedSpace{Axes: axes, CheckLowerFilling: checkLowerFilling}
	if checkLowerFilling {
		if err := sp.validateLowerFilling(); err != nil {
			return nil, err
		}
	}
	return sp, nil
}

// validateLowerFilling enforces: reading filling outer->inner, there is a
// minimum dim m (-1 meaning none filled) such that filling[i]=false for
// i<m, filling[i]=true for i>=m, and every axis strictly above m-1 (i.e.
// i<m-1... per spec: "every axis strictly above m-1 has size=1") has size 1.
func (s *AlignedSpace) validateLowerFilling() error {
	filling := s.Filling()
	m := -1
	for i, f := range filling {
		if !f {
			m = i
		}
	}
	// m is now the deepest not-universal dim, or -1 if all universal.
	for i, f := range filling {
		if i < m && f {
			return lderrors.NewInvalidSpaceError("lower-filling invariant violated: shallower axis is universal while a deeper axis is not")
		}
		if i > m && !f {
			return lderrors.NewInvalidSpaceError("lower-filling invariant violated: filling is not monotone from m onward")
		}
	}
	for i := 0; i < m; i++ {
		if s.Axes[i].Size != 1 {
			return lderrors.NewInvalidSpaceError("lower-filling invariant violated: axis shallower than the lowest not-universal dim must have size 1")
		}
	}
	return nil
}

// Dim is the number of axes.
func (s *AlignedSpace) Dim() int { return len(s.Axes) }

// DimensionalSizes returns each axis's Size.
func (s *AlignedSpace) DimensionalSizes() []int64 {
	out := make([]int64, len(s.Axes))
	for i, a := range s.Axes {
		out[i] = a.Size
	}
	return out
}

// Total is the product of all dimensional sizes, or (0, true) if any axis
// is infinite.
func (s *AlignedSpace) Total() (int64, bool) {
	total := int64(1)
	for _, a := range s.Axes {
		if a.Size == axis.Infinite {
			return 0, true
		}
		total *= a.Size
	}
	return total, false
}

// LowerElementNumByDim returns the strides (product of ambient_size_j for
// j>i), with 1 at the innermost dim. Only dim 0 may carry an infinite
// ambient size, and strides never multiply by it (dim 0's own stride uses
// only dims 1..D-1).
func (s *AlignedSpace) LowerElementNumByDim() []int64 {
	d := len(s.Axes)
	out := make([]int64, d)
	acc := int64(1)
	for i := d - 1; i >= 0; i-- {
		out[i] = acc
		if i > 0 {
			acc *= s.Axes[i].AmbientSize
		}
	}
	return out
}

// Filling reports, per axis, whether it spans its whole ambient axis.
func (s *AlignedSpace) Filling() []bool {
	out := make([]bool, len(s.Axes))
	for i, a := range s.Axes {
		out[i] = a.IsUniversal()
	}
	return out
}

// Grid iterates the Cartesian product row-major (outermost changes
// slowest). For an infinite axis 0 this is infinite-lazy.
func (s *AlignedSpace) Grid() func(yield func([]value.Scalar) bool) {
	return func(yield func([]value.Scalar) bool) {
		s.gridRec(0, make([]value.Scalar, len(s.Axes)), yield)
	}
}

func (s *AlignedSpace) gridRec(dim int, acc []value.Scalar, yield func([]value.Scalar) bool) bool {
	if dim == len(s.Axes) {
		cp := make([]value.Scalar, len(acc))
		copy(cp, acc)
		return yield(cp)
	}
	cont := true
	for v := range s.Axes[dim].Grid() {
		acc[dim] = v
		if !s.gridRec(dim+1, acc, yield) {
			cont = false
			break
		}
	}
	return cont
}

// SliceSpec is one axis's (start_index, size) slice request.
type SliceSpec struct {
	StartIndex int64
	Size       int64
}

// Slice applies an axis-wise slice. Fails with ParameterError if arity
// mismatches.
func (s *AlignedSpace) Slice(specs []SliceSpec) (*AlignedSpace, error) {
	if len(specs) != len(s.Axes) {
		return nil, lderrors.NewParameterError("slice arity mismatch")
	}
	newAxes := make([]*axis.Axis, len(s.Axes))
	for i, sp := range specs {
		a, err := s.Axes[i].Slice(sp.StartIndex, sp.Size)
		if err != nil {
			return nil, err
		}
		newAxes[i] = a
	}
	return New(newAxes, s.CheckLowerFilling)
}

// FlatAmbientSegment returns the 1-D flatten segment this region occupies
// in the ambient grid. Requires CheckLowerFilling.
func (s *AlignedSpace) FlatAmbientSegment() (flatten.Segment, error) {
	if !s.CheckLowerFilling {
		return flatten.Segment{}, lderrors.NewInvalidSpaceError("flat ambient segment requires the lower-filling invariant")
	}
	strides := s.LowerElementNumByDim()
	start := int64(0)
	for i, a := range s.Axes {
		start += a.AmbientIndex * strides[i]
	}
	total, infinite := s.Total()
	if infinite {
		return flatten.Segment{Start: start, Size: flatten.Infinite}, nil
	}
	return flatten.Segment{Start: start, Size: total}, nil
}

// LowerNotUniversalDim returns the largest i such that axis i is not
// universal, or -1 if all axes are universal.
func (s *AlignedSpace) LowerNotUniversalDim() int {
	m := -1
	for i, f := range s.Filling() {
		if !f {
			m = i
		}
	}
	return m
}

// GetStartIndex returns the ambient index of the given axis.
func (s *AlignedSpace) GetStartIndex(dim int) int64 {
	return s.Axes[dim].AmbientIndex
}

// CanMerge reports whether this region can merge with other along
// targetDim: same ambient space, identical filling vectors,
// filling[targetDim] false, all deeper dims universal, shallower axes
// pointwise equal, and the targetDim axes themselves mergeable.
func (s *AlignedSpace) CanMerge(o *AlignedSpace, targetDim int) bool {
	if len(s.Axes) != len(o.Axes) || targetDim < 0 || targetDim >= len(s.Axes) {
		return false
	}
	for i := range s.Axes {
		if !s.Axes[i].DerivedFromSameAmbient(o.Axes[i]) {
			return false
		}
	}
	sf, of := s.Filling(), o.Filling()
	for i := range sf {
		if sf[i] != of[i] {
			return false
		}
	}
	if sf[targetDim] {
		return false
	}
	for j := targetDim + 1; j < len(s.Axes); j++ {
		if !s.Axes[j].IsUniversal() || !o.Axes[j].IsUniversal() {
			return false
		}
	}
	for i := 0; i < targetDim; i++ {
		if s.Axes[i].AmbientIndex != o.Axes[i].AmbientIndex || s.Axes[i].Size != o.Axes[i].Size {
			return false
		}
	}
	return s.Axes[targetDim].CanMerge(o.Axes[targetDim])
}

// Merge copies every axis except targetDim, which is replaced by the
// segment merge of the two targetDim axes.
func (s *AlignedSpace) Merge(o *AlignedSpace, targetDim int) (*AlignedSpace, error) {
	if !s.CanMerge(o, targetDim) {
		return nil, lderrors.NewParameterError(fmt.Sprintf("spaces are not mergeable along dim %d", targetDim))
	}
	newAxes := make([]*axis.Axis, len(s.Axes))
	copy(newAxes, s.Axes)
	merged, err := s.Axes[targetDim].Merge(o.Axes[targetDim])
	if err != nil {
		return nil, err
	}
	newAxes[targetDim] = merged
	return New(newAxes, s.CheckLowerFilling)
}

// Loom walks a flat index into a multi-index using the given strides
// (quotient/remainder walk).
func (s *AlignedSpace) Loom(flatIndex int64, strides []int64) []int64 {
	out := make([]int64, len(strides))
	rem := flatIndex
	for i, stride := range strides {
		if stride == 0 {
			out[i] = 0
			continue
		}
		out[i] = rem / stride
		rem = rem % stride
	}
	return out
}

// ToAlignedList trivially wraps this space as a one-element list, giving
// aligned and jagged spaces a common projection into the trial table's
// aggregation (see ParameterSpace in package trial).
func (s *AlignedSpace) ToAlignedList() []*AlignedSpace {
	return []*AlignedSpace{s}
}

// StartIndex, CanMergeWith, MergeWith implement
// flatten.Mergeable[*AlignedSpace] under a flatten.MultiDim context, so
// Simplify can run directly over aggregated aligned spaces.
func (s *AlignedSpace) StartIndex(ctx flatten.MergeContext) int64 {
	md, ok := ctx.(flatten.MultiDim)
	if !ok {
		seg, err := s.FlatAmbientSegment()
		if err != nil {
			return 0
		}
		return seg.Start
	}
	return s.GetStartIndex(md.TargetDim)
}

func (s *AlignedSpace) CanMergeWith(o *AlignedSpace, ctx flatten.MergeContext) bool {
	md, ok := ctx.(flatten.MultiDim)
	if !ok {
		return false
	}
	return s.CanMerge(o, md.TargetDim)
}

func (s *AlignedSpace) MergeWith(o *AlignedSpace, ctx flatten.MergeContext) *AlignedSpace {
	md, ok := ctx.(flatten.MultiDim)
	if !ok {
		return s
	}
	merged, err := s.Merge(o, md.TargetDim)
	if err != nil {
		return s
	}
	return merged
}

// RemapSpace buckets each aligned space by its LowerNotUniversalDim() into
// keys -1..dim-1. A space whose dim differs from the requested dim lands
// in its own key unchanged (callers only feed same-dim spaces in practice,
// since aggregation is per-study).
func RemapSpace(spaces []*AlignedSpace, dim int) map[int][]*AlignedSpace {
	out := make(map[int][]*AlignedSpace)
	for _, sp := range spaces {
		d := sp.LowerNotUniversalDim()
		out[d] = append(out[d], sp)
	}
	return out
}
