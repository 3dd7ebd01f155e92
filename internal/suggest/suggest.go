// Package suggest proposes the next slice of a study's parameter space
// given its trial table, subject to the strict_aligned worker contract.
// Candidate slice ends are generated as alignment "ticks" at stride
// boundaries; on a semi-infinite outermost axis the ticks extend lazily by
// whole strides until they exceed the requested size.
package suggest

import (
	"time"

	"github.com/atsuhiron/lite-dist2-go/internal/axis"
	lderrors "github.com/atsuhiron/lite-dist2-go/internal/errors"
	"github.com/atsuhiron/lite-dist2-go/internal/flatten"
	"github.com/atsuhiron/lite-dist2-go/internal/space"
	"github.com/atsuhiron/lite-dist2-go/internal/trial"
	"github.com/atsuhiron/lite-dist2-go/internal/value"
)

// SequentialSuggest carves the next trial out of the remaining region of
// parameterSpace, always issuing trials in non-decreasing flat-start order.
type SequentialSuggest struct {
	ParameterSpace *space.AlignedSpace
	StrictAligned  bool
}

// Suggest returns the next sub-space to issue, or (nil, nil) when no work
// remains (find_least_division returned a zero-size segment).
func (s *SequentialSuggest) Suggest(table *trial.Table, maxNum int64, now time.Time) (space.ParameterSpace, error) {
	total, infinite := s.ParameterSpace.Total()
	var totalNum *int64
	if !infinite {
		totalNum = &total
	}
	leastSeg := table.FindLeastDivision(totalNum, now)
	if leastSeg.Size == 0 {
		return nil, nil
	}
	capped := nullableMin(leastSeg.Size, maxNum)
	start := leastSeg.Start

	if s.StrictAligned {
		return s.alignedSuggest(start, capped)
	}
	return s.jaggedSuggest(start, capped)
}

func nullableMin(a, b int64) int64 {
	if a == flatten.Infinite {
		return b
	}
	if b == flatten.Infinite {
		return a
	}
	if a < b {
		return a
	}
	return b
}

func (s *SequentialSuggest) alignedSuggest(start, maxNum int64) (*space.AlignedSpace, error) {
	strides := s.ParameterSpace.LowerElementNumByDim()
	_, infinite := s.ParameterSpace.Total()

	var maxAvailableEnd int64
	if infinite {
		availableEnd, infiniteFlag := s.generateAvailableEndInfinite(start)
		if infiniteFlag {
			// The sequence (init ticks, then init[-1]+ratio, +2*ratio, ...)
			// is monotonically increasing; extend it until an entry
			// exceeds maxNum and take that entry as the end, so an
			// infinite axis always hands out whole outermost strides.
			maxAvailableEnd = availableEnd[0]
			for _, e := range availableEnd {
				maxAvailableEnd = e
				if e-start > maxNum {
					break
				}
			}
			ratio := strides[0]
			last := availableEnd[len(availableEnd)-1]
			if maxAvailableEnd-start <= maxNum {
				for i := int64(1); ; i++ {
					e := last + ratio*i
					maxAvailableEnd = e
					if e-start > maxNum {
						break
					}
				}
			}
		} else {
			maxAvailableEnd = maxWithinCap(availableEnd, start, maxNum)
		}
	} else {
		availableEnd := s.generateAvailableEndFinite(start)
		maxAvailableEnd = maxWithinCap(availableEnd, start, maxNum)
	}

	return s.sliceByFlatRange(start, maxAvailableEnd, strides)
}

// sliceByFlatRange carves the aligned box covering flat indices
// [start, end). By tick construction the range is always expressible as a
// box: its outermost varying dim k spans several units, every dim deeper
// than k is covered in full, and every dim shallower is pinned to the
// start's index. The box shape is derived from the looms of start and of
// the inclusive last index end-1 (looming the exclusive end directly
// zeroes out the deeper dims whenever end sits on a row boundary).
func (s *SequentialSuggest) sliceByFlatRange(start, end int64, strides []int64) (*space.AlignedSpace, error) {
	startLoom := s.ParameterSpace.Loom(start, strides)
	lastLoom := s.ParameterSpace.Loom(end-1, strides)

	k := len(startLoom)
	for i := range startLoom {
		if startLoom[i] != lastLoom[i] {
			k = i
			break
		}
	}
	specs := make([]space.SliceSpec, len(startLoom))
	for i := range startLoom {
		switch {
		case i < k:
			specs[i] = space.SliceSpec{StartIndex: startLoom[i], Size: 1}
		case i == k:
			specs[i] = space.SliceSpec{StartIndex: startLoom[i], Size: lastLoom[i] - startLoom[i] + 1}
		default:
			specs[i] = space.SliceSpec{StartIndex: 0, Size: s.ParameterSpace.Axes[i].Size}
		}
	}
	if k == len(startLoom) {
		// Single grid point.
		for i := range specs {
			specs[i] = space.SliceSpec{StartIndex: startLoom[i], Size: 1}
		}
	}
	return s.ParameterSpace.Slice(specs)
}

// maxWithinCap returns the largest end index whose (end-start) does not
// exceed maxNum. At least one candidate (start+1) always qualifies.
func maxWithinCap(ends []int64, start, maxNum int64) int64 {
	best := ends[0]
	found := false
	for _, e := range ends {
		if e-start <= maxNum {
			if !found || e > best {
				best = e
				found = true
			}
		}
	}
	return best
}

func reverseInt64(in []int64) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

// generateAvailableEndFinite ports _generate_available_end_finite: finds
// the deepest dim at which flattenIndex sits on a stride boundary, then
// walks outward from there emitting candidate end indices.
func (s *SequentialSuggest) generateAvailableEndFinite(flattenIndex int64) []int64 {
	dims := s.ParameterSpace.Dim()
	dimSizes := s.ParameterSpace.DimensionalSizes()
	lowerDims := s.ParameterSpace.LowerElementNumByDim()
	reversedDimSizes := reverseInt64(dimSizes)
	reversedLoomed := reverseInt64(s.ParameterSpace.Loom(flattenIndex, lowerDims))
	reversedLowerDims := reverseInt64(lowerDims)

	availableMaxUpperReverseDim := 0
	for d, lowerDim := range lowerDims {
		if flattenIndex%lowerDim == 0 {
			availableMaxUpperReverseDim = dims - d - 1
			break
		}
	}

	ticks := []int64{flattenIndex + 1}
	for reverseDim := 0; reverseDim <= availableMaxUpperReverseDim; reverseDim++ {
		lowerDim := reversedLowerDims[reverseDim]
		size := reversedDimSizes[reverseDim] - reversedLoomed[reverseDim]
		if size <= 1 {
			continue
		}
		dInit := ticks[len(ticks)-1]
		for x := int64(1); x < size; x++ {
			ticks = append(ticks, dInit+lowerDim*x)
		}
	}
	return ticks
}

// generateAvailableEndInfinite ports _generate_available_end_infinite: same
// walk as the finite variant, but stops descending into dim 0 when its size
// is unbounded and reports whether the outermost axis still has headroom.
func (s *SequentialSuggest) generateAvailableEndInfinite(flattenIndex int64) ([]int64, bool) {
	dims := s.ParameterSpace.Dim()
	dimSizes := s.ParameterSpace.DimensionalSizes()
	lowerDims := s.ParameterSpace.LowerElementNumByDim()
	reversedDimSizes := reverseInt64(dimSizes)
	reversedLoomed := reverseInt64(s.ParameterSpace.Loom(flattenIndex, lowerDims))
	reversedLowerDims := reverseInt64(lowerDims)

	availableMaxUpperReverseDim := 0
	for d, lowerDim := range lowerDims {
		if flattenIndex%lowerDim == 0 {
			availableMaxUpperReverseDim = dims - d - 1
			break
		}
	}

	ticks := []int64{flattenIndex + 1}
	for reverseDim := 0; reverseDim <= availableMaxUpperReverseDim; reverseDim++ {
		lowerDim := reversedLowerDims[reverseDim]
		if reversedDimSizes[reverseDim] == axis.Infinite {
			break
		}
		size := reversedDimSizes[reverseDim] - reversedLoomed[reverseDim]
		if size <= 1 {
			continue
		}
		dInit := ticks[len(ticks)-1]
		for x := int64(1); x < size; x++ {
			ticks = append(ticks, dInit+lowerDim*x)
		}
	}
	isInfinitelyAvailable := ticks[len(ticks)-1]-flattenIndex == lowerDims[0]
	return ticks, isInfinitelyAvailable
}

// jaggedSuggest is the non-strict fallback: enumerate the ambient grid in
// row-major order starting at the flat index `start`, taking up to maxNum
// points.
func (s *SequentialSuggest) jaggedSuggest(start, maxNum int64) (*space.JaggedSpace, error) {
	if maxNum <= 0 {
		return nil, lderrors.NewParameterError("jagged suggest requires a positive max_num")
	}
	axesInfo := make([]axis.DummyAxis, len(s.ParameterSpace.Axes))
	for i, a := range s.ParameterSpace.Axes {
		axesInfo[i] = axis.DummyAxis{Name: a.Name, HasName: a.HasName, Type: a.Type, StepI: a.StepI, StepF: a.StepF, AmbientSize: a.AmbientSize}
	}

	var points [][]value.Scalar
	var ambientIndices [][]int64
	skip := start
	count := int64(0)
	walkGrid(s.ParameterSpace, func(amb []int64, vals []value.Scalar) bool {
		if skip > 0 {
			skip--
			return true
		}
		points = append(points, append([]value.Scalar(nil), vals...))
		ambientIndices = append(ambientIndices, append([]int64(nil), amb...))
		count++
		return count < maxNum
	})
	return &space.JaggedSpace{Points: points, AmbientIndices: ambientIndices, AxesInfo: axesInfo}, nil
}

// walkGrid recurses axis by axis in row-major order, yielding the ambient
// index tuple and value tuple at each grid point. yield returns false to
// stop the walk early.
func walkGrid(sp *space.AlignedSpace, yield func(amb []int64, vals []value.Scalar) bool) {
	axes := sp.Axes
	amb := make([]int64, len(axes))
	vals := make([]value.Scalar, len(axes))
	var rec func(d int) bool
	rec = func(d int) bool {
		if d == len(axes) {
			return yield(amb, vals)
		}
		cont := true
		for li, v := range axes[d].IndexedGrid() {
			amb[d] = axes[d].AmbientIndex + li
			vals[d] = v
			if !rec(d + 1) {
				cont = false
				break
			}
		}
		return cont
	}
	rec(0)
}
