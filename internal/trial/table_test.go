package trial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atsuhiron/lite-dist2-go/internal/axis"
	lderrors "github.com/atsuhiron/lite-dist2-go/internal/errors"
	"github.com/atsuhiron/lite-dist2-go/internal/flatten"
	"github.com/atsuhiron/lite-dist2-go/internal/space"
	"github.com/atsuhiron/lite-dist2-go/internal/value"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

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

func mustSpace(t *testing.T, axes ...*axis.Axis) *space.AlignedSpace {
	t.Helper()
	sp, err := space.New(axes, true)
	require.NoError(t, err)
	return sp
}

func newTrial(t *testing.T, id string, sp space.ParameterSpace) *Trial {
	t.Helper()
	return &Trial{
		StudyID:         "s1",
		TrialID:         id,
		Timestamp:       testNow,
		Status:          StatusRunning,
		ParameterSpace:  sp,
		ResultShape:     ResultScalar,
		ResultValueType: value.Int,
	}
}

func dummyResult(n int) []Mapping {
	out := make([]Mapping, n)
	for i := range out {
		out[i] = Mapping{
			Params: []value.Scalar{value.NewInt(int64(i))},
			Shape:  ResultScalar,
			Scalar: value.NewInt(int64(i * i)),
		}
	}
	return out
}

func TestReceipt_NilResultIsNoOp(t *testing.T) {
	table := NewTable(1, 0)
	table.Register(newTrial(t, "t-0", mustSpace(t, intAxis("x", 0, 3, 0, 6))))
	require.NoError(t, table.Receipt("t-0", nil))
	assert.Equal(t, StatusRunning, table.Trials[0].Status)
	assert.Empty(t, table.Aggregated)
}

func TestReceipt_UnknownTrial(t *testing.T) {
	table := NewTable(1, 0)
	err := table.Receipt("missing", dummyResult(1))
	require.Error(t, err)
	assert.IsType(t, &lderrors.ParameterError{}, err)
}

func TestReceipt_OverrideDone(t *testing.T) {
	table := NewTable(1, 0)
	table.Register(newTrial(t, "t-0", mustSpace(t, intAxis("x", 0, 3, 0, 6))))
	require.NoError(t, table.Receipt("t-0", dummyResult(3)))

	before := table.CountGrid()
	err := table.Receipt("t-0", dummyResult(3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "override done")
	assert.Equal(t, before, table.CountGrid())
}

func TestCountGridAndTrial(t *testing.T) {
	table := NewTable(1, 0)
	table.Register(newTrial(t, "t-0", mustSpace(t, intAxis("x", 0, 3, 0, 6))))
	table.Register(newTrial(t, "t-1", mustSpace(t, intAxis("x", 3, 3, 3, 6))))
	assert.Equal(t, 2, table.CountTrial())
	assert.Equal(t, int64(0), table.CountGrid())

	require.NoError(t, table.Receipt("t-0", dummyResult(3)))
	assert.Equal(t, int64(3), table.CountGrid())
	require.NoError(t, table.Receipt("t-1", dummyResult(3)))
	assert.Equal(t, int64(6), table.CountGrid())
}

// Two unit-x slabs of y-full collapse from the dim-0 bucket into the
// universal (-1) bucket once both are received.
func TestSimplifyAPs_CollapsesToUniversal(t *testing.T) {
	table := NewTable(2, 0)
	left := mustSpace(t,
		intAxis("x", 0, 1, 0, 2),
		intAxis("y", 0, 2, 0, 2),
	)
	right := mustSpace(t,
		intAxis("x", 1, 1, 1, 2),
		intAxis("y", 0, 2, 0, 2),
	)
	table.Register(newTrial(t, "t-0", left))
	table.Register(newTrial(t, "t-1", right))
	require.NoError(t, table.Receipt("t-0", dummyResult(2)))
	require.NoError(t, table.Receipt("t-1", dummyResult(2)))

	table.SimplifyAPs()
	assert.Empty(t, table.Aggregated[0])
	assert.Empty(t, table.Aggregated[1])
	require.Len(t, table.Aggregated[-1], 1)
	total, _ := table.Aggregated[-1][0].Total()
	assert.Equal(t, int64(4), total)
	assert.Equal(t, int64(4), table.CountGrid())
}

func TestFindLeastDivision_EmptyTable(t *testing.T) {
	table := NewTable(1, 0)
	seg := table.FindLeastDivision(nil, testNow)
	assert.Equal(t, flatten.Segment{Start: 0, Size: flatten.Infinite}, seg)
}

// Completed [0,10) and [50,60) on a flat extent of 100: the next free
// slice is the gap between them.
func TestFindLeastDivision_Gap(t *testing.T) {
	table := NewTable(1, 0)
	table.Register(newTrial(t, "t-0", mustSpace(t, intAxis("x", 0, 10, 0, 100))))
	table.Register(newTrial(t, "t-1", mustSpace(t, intAxis("x", 50, 10, 50, 100))))
	require.NoError(t, table.Receipt("t-0", dummyResult(10)))
	require.NoError(t, table.Receipt("t-1", dummyResult(10)))

	total := int64(100)
	seg := table.FindLeastDivision(&total, testNow)
	assert.Equal(t, flatten.Segment{Start: 10, Size: 40}, seg)
}

func TestFindLeastDivision_Exhausted(t *testing.T) {
	table := NewTable(1, 0)
	table.Register(newTrial(t, "t-0", mustSpace(t, intAxis("x", 0, 6, 0, 6))))
	require.NoError(t, table.Receipt("t-0", dummyResult(6)))

	total := int64(6)
	seg := table.FindLeastDivision(&total, testNow)
	assert.Equal(t, int64(0), seg.Size)
}

// Infinite axis: an empty table yields {0, inf}; after [0,10) completes
// the next slice starts at 10, still open-ended.
func TestFindLeastDivision_InfiniteAxis(t *testing.T) {
	table := NewTable(1, 0)
	seg := table.FindLeastDivision(nil, testNow)
	assert.Equal(t, flatten.Segment{Start: 0, Size: flatten.Infinite}, seg)

	sub := mustSpace(t, &axis.Axis{
		Name: "x", HasName: true, Type: value.Int,
		StartI: 0, StepI: 1, Size: 10, AmbientIndex: 0, AmbientSize: axis.Infinite,
	})
	table.Register(newTrial(t, "t-0", sub))
	require.NoError(t, table.Receipt("t-0", dummyResult(10)))

	seg = table.FindLeastDivision(nil, testNow)
	assert.Equal(t, flatten.Segment{Start: 10, Size: flatten.Infinite}, seg)
}

// A running trial reserves its region: the next division starts after it
// even though no result has been received yet.
func TestFindLeastDivision_RunningTrialBlocks(t *testing.T) {
	table := NewTable(1, 30)
	table.Register(newTrial(t, "t-0", mustSpace(t, intAxis("x", 0, 3, 0, 6))))

	total := int64(6)
	seg := table.FindLeastDivision(&total, testNow)
	assert.Equal(t, int64(3), seg.Start)
}

// A running trial older than timeout_minutes is reclaimed: its region
// becomes suggestible again.
func TestFindLeastDivision_StaleReclaim(t *testing.T) {
	table := NewTable(1, 30)
	stale := newTrial(t, "t-0", mustSpace(t, intAxis("x", 0, 3, 0, 6)))
	stale.Timestamp = testNow.Add(-31 * time.Minute)
	table.Register(stale)

	total := int64(6)
	seg := table.FindLeastDivision(&total, testNow)
	assert.Equal(t, int64(0), seg.Start)
}

func TestEnsureDim(t *testing.T) {
	table := NewTable(0, 0)
	table.EnsureDim(2)
	table.Register(newTrial(t, "t-0", mustSpace(t,
		intAxis("x", 0, 1, 0, 2),
		intAxis("y", 0, 2, 0, 2),
	)))
	require.NoError(t, table.Receipt("t-0", dummyResult(2)))
	assert.Len(t, table.Aggregated[1], 1)
}
