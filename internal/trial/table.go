package trial

import (
	"sort"
	"time"

	lderrors "github.com/atsuhiron/lite-dist2-go/internal/errors"
	"github.com/atsuhiron/lite-dist2-go/internal/flatten"
	"github.com/atsuhiron/lite-dist2-go/internal/space"
)

// Table is the per-study trial log: every issued Trial plus a dimensional
// aggregation of the regions whose results have been received. The
// aggregation key is the lower-not-universal dimension of the completed
// region, -1 meaning fully universal.
type Table struct {
	Trials         []*Trial
	Aggregated     map[int][]*space.AlignedSpace
	TimeoutMinutes int
	// dim caches the parameter space's axis count once known, so a bare
	// dim-1 bucket can be computed on Receipt without re-deriving it from
	// the ambient parameter space every time.
	dim int
}

// NewTable constructs an empty trial table. dim must be the parameter
// space's axis count; it is used to pick the deepest aggregation bucket on
// receipt.
func NewTable(dim int, timeoutMinutes int) *Table {
	return &Table{
		Aggregated:     make(map[int][]*space.AlignedSpace),
		TimeoutMinutes: timeoutMinutes,
		dim:            dim,
	}
}

// EnsureDim records dim if the table has not yet seen one, so a table
// rebuilt without it picks the right aggregation bucket on receipt.
func (t *Table) EnsureDim(dim int) {
	if t.dim == 0 {
		t.dim = dim
	}
}

// Register appends a freshly issued trial to the log and sets its Status
// to running.
func (t *Table) Register(tr *Trial) {
	tr.Status = StatusRunning
	t.Trials = append(t.Trials, tr)
}

// Receipt locates trialID (scanning latest-first, since the most recently
// issued trial with a given id is the live one) and records its result. A
// nil result is an explicit no-op. Fails ParameterError("override done") if
// the trial is already done, or ParameterError("not found") if absent.
func (t *Table) Receipt(trialID string, result []Mapping) error {
	if result == nil {
		return nil
	}
	var found *Trial
	for i := len(t.Trials) - 1; i >= 0; i-- {
		if t.Trials[i].TrialID == trialID {
			found = t.Trials[i]
			break
		}
	}
	if found == nil {
		return lderrors.NewParameterError("not found")
	}
	if found.Status == StatusDone {
		return lderrors.NewParameterError("override done")
	}
	found.Result = result
	found.Status = StatusDone

	bucket := t.dim - 1
	if t.dim <= 0 {
		bucket = -1
	}
	t.Aggregated[bucket] = append(t.Aggregated[bucket], found.ParameterSpace.ToAlignedList()...)
	return nil
}

// CountGrid sums Total() over every aggregated (completed) region, after
// folding overlaps via SimplifyAPs so double-issued-then-both-completed
// regions are not double counted.
func (t *Table) CountGrid() int64 {
	t.SimplifyAPs()
	var sum int64
	for _, spaces := range t.Aggregated {
		for _, sp := range spaces {
			total, infinite := sp.Total()
			if infinite {
				continue
			}
			sum += total
		}
	}
	return sum
}

// CountTrial is the number of trials ever issued (running or done).
func (t *Table) CountTrial() int { return len(t.Trials) }

// SimplifyAPs folds adjacent/overlapping aggregated regions together, dim
// by dim from deepest to shallowest, re-bucketing any region that becomes
// universal at its dim into the bucket of its new (shallower) lower-not-
// universal dim.
func (t *Table) SimplifyAPs() {
	if t.dim <= 0 {
		return
	}
	next := make(map[int][]*space.AlignedSpace, len(t.Aggregated))
	for k, v := range t.Aggregated {
		next[k] = v
	}
	for d := t.dim - 1; d >= 0; d-- {
		items := next[d]
		if len(items) == 0 {
			continue
		}
		merged := flatten.Simplify(items, flatten.MultiDim{TargetDim: d})
		delete(next, d)
		for _, m := range merged {
			rd := m.LowerNotUniversalDim()
			next[rd] = append(next[rd], m)
		}
	}
	t.Aggregated = next
}

// reclaimStale returns the subset of running trials whose timestamp is
// still within TimeoutMinutes of now -- i.e. the ones that should still be
// treated as reserved when computing the next free slice. Stale running
// trials are excluded from that view so their region becomes suggestible
// again, without mutating the trial log (a late receipt for a reclaimed
// trial still completes it normally). A non-positive TimeoutMinutes turns
// reclaim off: every running trial is returned.
func (t *Table) reclaimStale(now time.Time) []*Trial {
	if t.TimeoutMinutes <= 0 {
		var live []*Trial
		for _, tr := range t.Trials {
			if tr.Status == StatusRunning {
				live = append(live, tr)
			}
		}
		return live
	}
	cutoff := now.Add(-time.Duration(t.TimeoutMinutes) * time.Minute)
	var live []*Trial
	for _, tr := range t.Trials {
		if tr.Status == StatusRunning && tr.Timestamp.After(cutoff) {
			live = append(live, tr)
		}
	}
	return live
}

// FindLeastDivision answers "what is the next free flat slice?". It
// combines committed (completed) coverage with a transient view of
// still-live running reservations -- so two concurrent reserves do not
// hand out overlapping regions -- without mutating the persisted
// aggregation (count_grid/is_done stay based on completed work only).
//
// No aggregation at all: {0, Infinite}. One merged segment: the gap after
// it, open-ended unless totalNum bounds it. Two or more: the gap between
// the first and second.
func (t *Table) FindLeastDivision(totalNum *int64, now time.Time) flatten.Segment {
	committed := t.flatSegments(t.Aggregated)
	live := t.reclaimStale(now)
	if len(live) > 0 {
		view := make(map[int][]*space.AlignedSpace, len(t.Aggregated))
		for k, v := range t.Aggregated {
			view[k] = append([]*space.AlignedSpace(nil), v...)
		}
		for _, tr := range live {
			as := tr.ParameterSpace.ToAlignedList()
			bucket := t.dim - 1
			if t.dim <= 0 {
				bucket = -1
			}
			view[bucket] = append(view[bucket], as...)
		}
		committed = t.flatSegments(simplifyView(view, t.dim))
	}

	segs := flatten.Simplify(committed, flatten.OneDim{})
	switch len(segs) {
	case 0:
		return flatten.Segment{Start: 0, Size: flatten.Infinite}
	case 1:
		seg := segs[0]
		if seg.Size == flatten.Infinite {
			return flatten.Segment{Start: seg.Start, Size: 0}
		}
		next := seg.Start + seg.Size
		if totalNum == nil || next < *totalNum {
			return flatten.Segment{Start: next, Size: flatten.Infinite}
		}
		return flatten.Segment{Start: next, Size: 0}
	default:
		first, second := segs[0], segs[1]
		firstNext := first.Start + first.Size
		return flatten.Segment{Start: firstNext, Size: second.Start - firstNext}
	}
}

// flatSegments projects every aggregated aligned space (across all
// buckets) into its flat ambient segment. A space that does not carry the
// lower-filling invariant has no single flat interval; it still counts
// toward CountGrid via Total() but is left out of the next-free-slice
// search rather than failing it.
func (t *Table) flatSegments(agg map[int][]*space.AlignedSpace) []flatten.Segment {
	var out []flatten.Segment
	keys := make([]int, 0, len(agg))
	for k := range agg {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		for _, sp := range agg[k] {
			seg, err := sp.FlatAmbientSegment()
			if err != nil {
				continue
			}
			out = append(out, seg)
		}
	}
	return out
}

// simplifyView runs the same dim-by-dim folding as SimplifyAPs but over a
// caller-supplied (possibly transient) aggregation map, leaving the
// table's own Aggregated untouched.
func simplifyView(agg map[int][]*space.AlignedSpace, dim int) map[int][]*space.AlignedSpace {
	if dim <= 0 {
		return agg
	}
	next := make(map[int][]*space.AlignedSpace, len(agg))
	for k, v := range agg {
		next[k] = v
	}
	for d := dim - 1; d >= 0; d-- {
		items := next[d]
		if len(items) == 0 {
			continue
		}
		merged := flatten.Simplify(items, flatten.MultiDim{TargetDim: d})
		delete(next, d)
		for _, m := range merged {
			rd := m.LowerNotUniversalDim()
			next[rd] = append(next[rd], m)
		}
	}
	return next
}
