package study

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atsuhiron/lite-dist2-go/internal/axis"
	"github.com/atsuhiron/lite-dist2-go/internal/clock"
	"github.com/atsuhiron/lite-dist2-go/internal/space"
	"github.com/atsuhiron/lite-dist2-go/internal/studystrategy"
	"github.com/atsuhiron/lite-dist2-go/internal/suggest"
	"github.com/atsuhiron/lite-dist2-go/internal/trial"
	"github.com/atsuhiron/lite-dist2-go/internal/value"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func intAxis(start, size, ambientIndex, ambientSize int64) *axis.Axis {
	return &axis.Axis{
		Name:         "x",
		HasName:      true,
		Type:         value.Int,
		StartI:       start,
		StepI:        1,
		Size:         size,
		AmbientIndex: ambientIndex,
		AmbientSize:  ambientSize,
	}
}

func newTestStudy(t *testing.T, size int64) *Study {
	t.Helper()
	ps, err := space.New([]*axis.Axis{intAxis(0, size, 0, size)}, true)
	require.NoError(t, err)
	strat := &studystrategy.AllCalculationStrategy{ParameterSpace: ps}
	sug := &suggest.SequentialSuggest{ParameterSpace: ps, StrictAligned: true}
	return New("sid-1", "exhaust", []string{"cpu"}, ps, trial.ResultScalar, value.Int, strat, sug, 10, testNow, clock.Fixed{At: testNow})
}

func resultFor(tr *trial.Trial) []trial.Mapping {
	aligned := tr.ParameterSpace.(*space.AlignedSpace)
	n, _ := aligned.Total()
	out := make([]trial.Mapping, n)
	for i := range out {
		out[i] = trial.Mapping{
			Params: []value.Scalar{value.NewInt(aligned.Axes[0].AmbientIndex + int64(i))},
			Shape:  trial.ResultScalar,
			Scalar: value.NewInt(int64(i)),
		}
	}
	return out
}

func TestNew_NameDefaultsToStudyID(t *testing.T) {
	ps, err := space.New([]*axis.Axis{intAxis(0, 2, 0, 2)}, true)
	require.NoError(t, err)
	s := New("sid-9", "", nil, ps, trial.ResultScalar, value.Int,
		&studystrategy.AllCalculationStrategy{ParameterSpace: ps},
		&suggest.SequentialSuggest{ParameterSpace: ps, StrictAligned: true},
		10, testNow, clock.Fixed{At: testNow})
	assert.Equal(t, "sid-9", s.Name)
	assert.Equal(t, StatusWait, s.Status())
}

func TestSuggestNextTrial_IssuesSequentialIDs(t *testing.T) {
	s := newTestStudy(t, 32)
	var ids []string
	for i := 0; i < 17; i++ {
		tr, err := s.SuggestNextTrial(1)
		require.NoError(t, err)
		require.NotNil(t, tr)
		ids = append(ids, tr.TrialID)
	}
	assert.Equal(t, "sid-1-0", ids[0])
	assert.Equal(t, "sid-1-f", ids[15])
	assert.Equal(t, "sid-1-10", ids[16])

	seen := make(map[string]struct{})
	for _, id := range ids {
		_, dup := seen[id]
		assert.False(t, dup, "duplicate trial id %s", id)
		seen[id] = struct{}{}
	}
	assert.Equal(t, StatusRunning, s.Status())
}

func TestReceiptAndStatusLifecycle(t *testing.T) {
	s := newTestStudy(t, 6)
	assert.Equal(t, StatusWait, s.Status())

	tr, err := s.SuggestNextTrial(3)
	require.NoError(t, err)
	require.NoError(t, s.ReceiptTrial(tr.TrialID, resultFor(tr)))
	assert.Equal(t, StatusRunning, s.UpdateStatus())

	tr2, err := s.SuggestNextTrial(3)
	require.NoError(t, err)
	require.NoError(t, s.ReceiptTrial(tr2.TrialID, resultFor(tr2)))
	assert.Equal(t, StatusDone, s.UpdateStatus())
}

func TestToStorage(t *testing.T) {
	s := newTestStudy(t, 4)
	tr, err := s.SuggestNextTrial(4)
	require.NoError(t, err)
	require.NoError(t, s.ReceiptTrial(tr.TrialID, resultFor(tr)))
	require.Equal(t, StatusDone, s.UpdateStatus())

	doneAt := testNow.Add(time.Minute)
	st := s.ToStorage(doneAt)
	assert.Equal(t, "sid-1", st.StudyID)
	assert.Equal(t, "exhaust", st.Name)
	assert.Equal(t, doneAt, st.DoneAt)
	assert.Len(t, st.Result, 4)
}

func TestRequiredCapacitySubsetOf(t *testing.T) {
	s := newTestStudy(t, 2)
	assert.True(t, s.RequiredCapacitySubsetOf(map[string]struct{}{"cpu": {}, "gpu": {}}))
	assert.False(t, s.RequiredCapacitySubsetOf(map[string]struct{}{"gpu": {}}))
	assert.False(t, s.RequiredCapacitySubsetOf(map[string]struct{}{}))
}

func TestRegistryBuild_UnknownStrategy(t *testing.T) {
	ps, err := space.New([]*axis.Axis{intAxis(0, 2, 0, 2)}, true)
	require.NoError(t, err)
	reg := Registry{
		StudyStrategy:  WireStudyStrategy{Type: "minimize"},
		ParameterSpace: space.ParameterSpaceWrapper{Space: ps},
	}
	_, _, err = reg.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown study strategy")
}

func TestRegistryBuild_FindExactNeedsTarget(t *testing.T) {
	ps, err := space.New([]*axis.Axis{intAxis(0, 2, 0, 2)}, true)
	require.NoError(t, err)
	reg := Registry{
		StudyStrategy:  WireStudyStrategy{Type: "find_exact"},
		ParameterSpace: space.ParameterSpaceWrapper{Space: ps},
	}
	_, _, err = reg.Build()
	require.Error(t, err)
}

func TestStudyJSONRoundTrip(t *testing.T) {
	s := newTestStudy(t, 6)
	tr, err := s.SuggestNextTrial(3)
	require.NoError(t, err)
	require.NoError(t, s.ReceiptTrial(tr.TrialID, resultFor(tr)))
	s.UpdateStatus()

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var back Study
	require.NoError(t, json.Unmarshal(data, &back))
	back.SetClock(clock.Fixed{At: testNow})

	assert.Equal(t, s.StudyID, back.StudyID)
	assert.Equal(t, s.Name, back.Name)
	assert.Equal(t, StatusRunning, back.Status())
	assert.Equal(t, 1, back.TrialTable.CountTrial())
	assert.Equal(t, int64(3), back.TrialTable.CountGrid())

	// the rebuilt study resumes at the next uncovered flat index
	tr2, err := back.SuggestNextTrial(3)
	require.NoError(t, err)
	require.NotNil(t, tr2)
	aligned := tr2.ParameterSpace.(*space.AlignedSpace)
	assert.Equal(t, int64(3), aligned.Axes[0].AmbientIndex)
}
