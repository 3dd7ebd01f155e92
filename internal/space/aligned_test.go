package space

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atsuhiron/lite-dist2-go/internal/axis"
	lderrors "github.com/atsuhiron/lite-dist2-go/internal/errors"
	"github.com/atsuhiron/lite-dist2-go/internal/flatten"
	"github.com/atsuhiron/lite-dist2-go/internal/value"
)

func intAxis(name string, start, size, ambientIndex, ambientSize int64) *axis.Axis {
	return &axis.Axis{
		Name:         name,
		HasName:      true,
		Type:         value.Int,
		StartI:       start,
		StepI:        1,
		Size:         size,
		AmbientIndex: ambientIndex,
		AmbientSize:  ambientSize,
	}
}

func mustSpace(t *testing.T, axes []*axis.Axis) *AlignedSpace {
	t.Helper()
	sp, err := New(axes, true)
	require.NoError(t, err)
	return sp
}

func TestNew_InfiniteOnlyOnAxisZero(t *testing.T) {
	_, err := New([]*axis.Axis{
		intAxis("x", 0, 2, 0, 2),
		intAxis("y", 0, axis.Infinite, 0, axis.Infinite),
	}, false)
	require.Error(t, err)
	assert.IsType(t, &lderrors.InvalidSpaceError{}, err)

	_, err = New([]*axis.Axis{
		intAxis("x", 0, axis.Infinite, 0, axis.Infinite),
		intAxis("y", 0, 2, 0, 2),
	}, true)
	require.NoError(t, err)
}

func TestNew_LowerFillingViolation(t *testing.T) {
	// deeper axis not universal while a shallower axis spans more than one
	// element: the region is not one contiguous flat run
	_, err := New([]*axis.Axis{
		intAxis("x", 0, 2, 0, 4),
		intAxis("y", 0, 1, 0, 4),
	}, true)
	require.Error(t, err)
	assert.IsType(t, &lderrors.InvalidSpaceError{}, err)

	// same shape without the check constructs fine
	_, err = New([]*axis.Axis{
		intAxis("x", 0, 2, 0, 4),
		intAxis("y", 0, 1, 0, 4),
	}, false)
	require.NoError(t, err)
}

func TestTotalAndStrides(t *testing.T) {
	sp := mustSpace(t, []*axis.Axis{
		intAxis("x", 0, 1, 0, 3),
		intAxis("y", 0, 4, 0, 4),
		intAxis("z", 0, 5, 0, 5),
	})
	total, infinite := sp.Total()
	assert.False(t, infinite)
	assert.Equal(t, int64(20), total)
	assert.Equal(t, []int64{20, 5, 1}, sp.LowerElementNumByDim())
	assert.Equal(t, []int64{1, 4, 5}, sp.DimensionalSizes())
	assert.Equal(t, []bool{false, true, true}, sp.Filling())
}

func TestTotal_Infinite(t *testing.T) {
	sp := mustSpace(t, []*axis.Axis{intAxis("x", 0, axis.Infinite, 0, axis.Infinite)})
	_, infinite := sp.Total()
	assert.True(t, infinite)
}

func TestGrid_RowMajor(t *testing.T) {
	sp := mustSpace(t, []*axis.Axis{
		intAxis("x", 0, 2, 0, 2),
		intAxis("y", 10, 2, 0, 2),
	})
	var got [][]int64
	for p := range sp.Grid() {
		got = append(got, []int64{p[0].Int, p[1].Int})
	}
	assert.Equal(t, [][]int64{{0, 10}, {0, 11}, {1, 10}, {1, 11}}, got)
}

func TestSlice(t *testing.T) {
	sp := mustSpace(t, []*axis.Axis{
		intAxis("x", 0, 4, 0, 4),
		intAxis("y", 0, 4, 0, 4),
	})
	sub, err := sp.Slice([]SliceSpec{{StartIndex: 1, Size: 1}, {StartIndex: 0, Size: 4}})
	require.NoError(t, err)
	total, _ := sub.Total()
	assert.Equal(t, int64(4), total)
	assert.Equal(t, int64(1), sub.Axes[0].AmbientIndex)
	assert.True(t, sub.Axes[1].IsUniversal())

	_, err = sp.Slice([]SliceSpec{{StartIndex: 0, Size: 1}})
	require.Error(t, err)
	assert.IsType(t, &lderrors.ParameterError{}, err)
}

func TestFlatAmbientSegment(t *testing.T) {
	sp := mustSpace(t, []*axis.Axis{
		intAxis("x", 2, 1, 2, 4),
		intAxis("y", 0, 5, 0, 5),
	})
	seg, err := sp.FlatAmbientSegment()
	require.NoError(t, err)
	assert.Equal(t, flatten.Segment{Start: 10, Size: 5}, seg)
}

func TestFlatAmbientSegment_RequiresInvariant(t *testing.T) {
	sp, err := New([]*axis.Axis{intAxis("x", 0, 2, 0, 4)}, false)
	require.NoError(t, err)
	_, err = sp.FlatAmbientSegment()
	require.Error(t, err)
	assert.IsType(t, &lderrors.InvalidSpaceError{}, err)
}

func TestLowerNotUniversalDim(t *testing.T) {
	full := mustSpace(t, []*axis.Axis{
		intAxis("x", 0, 2, 0, 2),
		intAxis("y", 0, 2, 0, 2),
	})
	assert.Equal(t, -1, full.LowerNotUniversalDim())

	slab := mustSpace(t, []*axis.Axis{
		intAxis("x", 0, 1, 0, 2),
		intAxis("y", 0, 2, 0, 2),
	})
	assert.Equal(t, 0, slab.LowerNotUniversalDim())
}

func TestCanMergeAndMerge(t *testing.T) {
	left := mustSpace(t, []*axis.Axis{
		intAxis("x", 0, 1, 0, 2),
		intAxis("y", 0, 2, 0, 2),
	})
	right := mustSpace(t, []*axis.Axis{
		intAxis("x", 1, 1, 1, 2),
		intAxis("y", 0, 2, 0, 2),
	})
	require.True(t, left.CanMerge(right, 0))

	merged, err := left.Merge(right, 0)
	require.NoError(t, err)
	total, _ := merged.Total()
	assert.Equal(t, int64(4), total)
	assert.Equal(t, -1, merged.LowerNotUniversalDim())
}

func TestCanMerge_RejectsMismatchedFilling(t *testing.T) {
	slab := mustSpace(t, []*axis.Axis{
		intAxis("x", 0, 1, 0, 4),
		intAxis("y", 0, 2, 0, 2),
	})
	partial := mustSpace(t, []*axis.Axis{
		intAxis("x", 1, 1, 1, 4),
		intAxis("y", 0, 1, 0, 2),
	})
	assert.False(t, slab.CanMerge(partial, 0))
}

func TestCanMerge_RejectsGap(t *testing.T) {
	a := mustSpace(t, []*axis.Axis{
		intAxis("x", 0, 1, 0, 4),
		intAxis("y", 0, 2, 0, 2),
	})
	b := mustSpace(t, []*axis.Axis{
		intAxis("x", 2, 1, 2, 4),
		intAxis("y", 0, 2, 0, 2),
	})
	assert.False(t, a.CanMerge(b, 0))
}

func TestLoom(t *testing.T) {
	sp := mustSpace(t, []*axis.Axis{
		intAxis("x", 0, 3, 0, 3),
		intAxis("y", 0, 4, 0, 4),
	})
	strides := sp.LowerElementNumByDim()
	assert.Equal(t, []int64{0, 0}, sp.Loom(0, strides))
	assert.Equal(t, []int64{1, 2}, sp.Loom(6, strides))
	assert.Equal(t, []int64{2, 3}, sp.Loom(11, strides))
}

func TestRemapSpace(t *testing.T) {
	full := mustSpace(t, []*axis.Axis{
		intAxis("x", 0, 2, 0, 2),
		intAxis("y", 0, 2, 0, 2),
	})
	slab := mustSpace(t, []*axis.Axis{
		intAxis("x", 0, 1, 0, 2),
		intAxis("y", 0, 2, 0, 2),
	})
	got := RemapSpace([]*AlignedSpace{full, slab}, 2)
	assert.Len(t, got[-1], 1)
	assert.Len(t, got[0], 1)
}
