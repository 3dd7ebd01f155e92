package space

import (
	"strconv"
	"strings"

	"github.com/atsuhiron/lite-dist2-go/internal/axis"
	"github.com/atsuhiron/lite-dist2-go/internal/value"
)

// JaggedSpace is an enumerated list of N-D points sharing a common ambient
// axis tuple, used when the aligned invariant cannot be preserved.
type JaggedSpace struct {
	Points         [][]value.Scalar
	AmbientIndices [][]int64
	AxesInfo       []axis.DummyAxis
}

// Len is the point count; a jagged space is always finite.
func (j *JaggedSpace) Len() int64 { return int64(len(j.Points)) }

// Grid yields the stored points in order.
func (j *JaggedSpace) Grid() func(yield func([]value.Scalar) bool) {
	return func(yield func([]value.Scalar) bool) {
		for _, p := range j.Points {
			if !yield(p) {
				return
			}
		}
	}
}

// ToAlignedList projects each point into a unit-width aligned space on
// every axis, grouping by ambient-index tail (all but axis 0) so that
// points differing only along axis 0 stay adjacent for the downstream
// simplifier.
func (j *JaggedSpace) ToAlignedList() []*AlignedSpace {
	order := make([]string, 0)
	groups := make(map[string][]*AlignedSpace)

	for idx, point := range j.Points {
		axes := make([]*axis.Axis, len(point))
		for d, sc := range point {
			info := j.AxesInfo[d]
			a := &axis.Axis{
				Name:         info.Name,
				HasName:      info.HasName,
				Type:         info.Type,
				StepI:        info.StepI,
				StepF:        info.StepF,
				Size:         1,
				AmbientIndex: j.AmbientIndices[idx][d],
				AmbientSize:  info.AmbientSize,
			}
			switch sc.Type {
			case value.Bool:
				if sc.Bool {
					a.StartI = 1
				}
			case value.Int:
				a.StartI = sc.Int
			case value.Float:
				a.StartF = sc.Float
			}
			axes[d] = a
		}
		as, err := New(axes, true)
		if err != nil {
			// cannot happen for unit boxes; keep the projection usable
			// rather than dropping the point
			as = &AlignedSpace{Axes: axes, CheckLowerFilling: false}
		}
		key := tailKey(j.AmbientIndices[idx])
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], as)
	}

	out := make([]*AlignedSpace, 0, len(j.Points))
	for _, k := range order {
		out = append(out, groups[k]...)
	}
	return out
}

func tailKey(ambientIndices []int64) string {
	parts := make([]string, 0, len(ambientIndices))
	for _, v := range ambientIndices[1:] {
		parts = append(parts, strconv.FormatInt(v, 10))
	}
	return strings.Join(parts, ",")
}
