package flatten

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegment_CanMerge(t *testing.T) {
	a := Segment{Start: 0, Size: 10}
	assert.True(t, a.CanMerge(Segment{Start: 10, Size: 5}))  // adjacent
	assert.True(t, a.CanMerge(Segment{Start: 5, Size: 5}))   // overlap
	assert.False(t, a.CanMerge(Segment{Start: 11, Size: 5})) // gap
	// order independent
	assert.True(t, Segment{Start: 10, Size: 5}.CanMerge(a))
}

func TestSegment_CanMerge_Infinite(t *testing.T) {
	inf := Segment{Start: 0, Size: Infinite}
	assert.True(t, inf.CanMerge(Segment{Start: 1000, Size: 1}))
	assert.True(t, Segment{Start: 1000, Size: 1}.CanMerge(inf))
}

func TestSegment_Merge(t *testing.T) {
	m := Segment{Start: 0, Size: 10}.Merge(Segment{Start: 10, Size: 5})
	assert.Equal(t, Segment{Start: 0, Size: 15}, m)

	// end = max of both ends
	m = Segment{Start: 0, Size: 20}.Merge(Segment{Start: 5, Size: 5})
	assert.Equal(t, Segment{Start: 0, Size: 20}, m)

	m = Segment{Start: 3, Size: Infinite}.Merge(Segment{Start: 0, Size: 5})
	assert.Equal(t, Segment{Start: 0, Size: Infinite}, m)
}

func TestSimplify_MergesComponents(t *testing.T) {
	items := []Segment{
		{Start: 50, Size: 10},
		{Start: 0, Size: 5},
		{Start: 5, Size: 5},
		{Start: 60, Size: 5},
	}
	got := Simplify(items, OneDim{})
	assert.Equal(t, []Segment{{Start: 0, Size: 10}, {Start: 50, Size: 15}}, got)
}

func TestSimplify_Standalone(t *testing.T) {
	items := []Segment{{Start: 20, Size: 1}, {Start: 0, Size: 1}}
	got := Simplify(items, OneDim{})
	assert.Equal(t, []Segment{{Start: 0, Size: 1}, {Start: 20, Size: 1}}, got)
}

func TestSimplify_Empty(t *testing.T) {
	assert.Nil(t, Simplify([]Segment(nil), OneDim{}))
}

func TestSimplify_Idempotent(t *testing.T) {
	items := []Segment{
		{Start: 0, Size: 3},
		{Start: 3, Size: 3},
		{Start: 10, Size: 2},
	}
	once := Simplify(items, OneDim{})
	twice := Simplify(once, OneDim{})
	assert.Equal(t, once, twice)
}

func TestSimplify_CoverageConserved(t *testing.T) {
	// non-overlapping inputs: total size is conserved by merging
	items := []Segment{
		{Start: 0, Size: 4},
		{Start: 4, Size: 4},
		{Start: 8, Size: 4},
		{Start: 20, Size: 2},
	}
	var before int64
	for _, s := range items {
		before += s.Size
	}
	var after int64
	for _, s := range Simplify(items, OneDim{}) {
		after += s.Size
	}
	assert.Equal(t, before, after)
}
