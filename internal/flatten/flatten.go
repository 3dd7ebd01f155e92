// Package flatten implements the flatten segment, a 1-D [start, size)
// interval in the row-major flattening of an ambient grid, plus a generic
// greedy union/merge pass (Simplify) usable by any type implementing
// Mergeable. The two concrete merge contexts distinguish a plain 1-D merge
// from a merge along one dimension of an N-D space.
package flatten

import "sort"

// Infinite is the sentinel for an unbounded Size.
const Infinite int64 = -1

// Segment is a 1-D [start, size) interval, possibly unbounded.
type Segment struct {
	Start int64
	Size  int64
}

func (s Segment) endForCompare() int64 {
	if s.Size == Infinite {
		return 1<<62 - 1
	}
	return s.Start + s.Size - 1
}

// CanMerge reports whether the two segments overlap or are adjacent:
// smaller.start + smaller.size >= larger.start. When the earlier-starting
// segment is infinite it reaches every later start, so the two always merge.
func (s Segment) CanMerge(o Segment) bool {
	a, b := s, o
	if a.Start > b.Start {
		a, b = b, a
	}
	if a.Size == Infinite {
		return true
	}
	return a.Start+a.Size >= b.Start
}

// Merge spans both segments: end = max(both ends), size = end - start.
func (s Segment) Merge(o Segment) Segment {
	start := s.Start
	if o.Start < start {
		start = o.Start
	}
	if s.Size == Infinite || o.Size == Infinite {
		return Segment{Start: start, Size: Infinite}
	}
	end := s.endForCompare()
	if oe := o.endForCompare(); oe > end {
		end = oe
	}
	return Segment{Start: start, Size: end - start + 1}
}

// StartIndex, CanMergeWith, MergeWith implement Mergeable[Segment] so
// Simplify can run directly over flatten segments with a OneDim context.
func (s Segment) StartIndex(MergeContext) int64 { return s.Start }

func (s Segment) CanMergeWith(o Segment, _ MergeContext) bool { return s.CanMerge(o) }

func (s Segment) MergeWith(o Segment, _ MergeContext) Segment { return s.Merge(o) }

// MergeContext distinguishes the two concrete merge shapes the kernel
// needs: a plain 1-D merge (flatten segments) and a merge targeting one
// dimension of an N-D aligned space.
type MergeContext interface {
	isMergeContext()
}

// OneDim is the merge context for flatten segments: no extra parameter.
type OneDim struct{}

func (OneDim) isMergeContext() {}

// MultiDim is the merge context for aligned spaces: merging happens along
// TargetDim.
type MultiDim struct {
	TargetDim int
}

func (MultiDim) isMergeContext() {}

// Mergeable is the narrow contract Simplify needs: a start index to sort
// and union by, a pairwise mergeability test, and a merge operation.
type Mergeable[T any] interface {
	StartIndex(ctx MergeContext) int64
	CanMergeWith(other T, ctx MergeContext) bool
	MergeWith(other T, ctx MergeContext) T
}

// Simplify runs a greedy union-find-like pass: pairs are found by
// can-merge, items are unioned into connected components, and each
// component is folded left (sorted by start index) into one merged item.
// Complexity is O(n^2) pairing, acceptable because the aggregation buckets
// this is run over stay small by construction.
func Simplify[T Mergeable[T]](items []T, ctx MergeContext) []T {
	n := len(items)
	if n == 0 {
		return nil
	}
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if items[i].CanMergeWith(items[j], ctx) || items[j].CanMergeWith(items[i], ctx) {
				union(i, j)
			}
		}
	}
	groups := make(map[int][]int)
	for i := 0; i < n; i++ {
		r := find(i)
		groups[r] = append(groups[r], i)
	}
	results := make([]T, 0, len(groups))
	for _, idxs := range groups {
		sort.Slice(idxs, func(a, b int) bool {
			return items[idxs[a]].StartIndex(ctx) < items[idxs[b]].StartIndex(ctx)
		})
		merged := items[idxs[0]]
		for _, idx := range idxs[1:] {
			merged = merged.MergeWith(items[idx], ctx)
		}
		results = append(results, merged)
	}
	sort.Slice(results, func(a, b int) bool {
		return results[a].StartIndex(ctx) < results[b].StartIndex(ctx)
	})
	return results
}
