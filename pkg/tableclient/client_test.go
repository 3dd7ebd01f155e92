package tableclient

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atsuhiron/lite-dist2-go/internal/axis"
	"github.com/atsuhiron/lite-dist2-go/internal/clock"
	"github.com/atsuhiron/lite-dist2-go/internal/curriculum"
	lderrors "github.com/atsuhiron/lite-dist2-go/internal/errors"
	"github.com/atsuhiron/lite-dist2-go/internal/httpserver"
	"github.com/atsuhiron/lite-dist2-go/internal/space"
	"github.com/atsuhiron/lite-dist2-go/internal/study"
	"github.com/atsuhiron/lite-dist2-go/internal/trial"
	"github.com/atsuhiron/lite-dist2-go/internal/value"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newCoordinator(t *testing.T) (*Client, *curriculum.Curriculum) {
	t.Helper()
	cur := curriculum.New(clock.Fixed{At: testNow})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httpserver.NewServer(cur, nil, logger, zerolog.Nop(), 10)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return New(ts.URL), cur
}

func testRegistry(t *testing.T, name string, size int64) study.Registry {
	t.Helper()
	ps, err := space.New([]*axis.Axis{{
		Name: "x", HasName: true, Type: value.Int,
		StartI: 0, StepI: 1, Size: size, AmbientIndex: 0, AmbientSize: size,
	}}, true)
	require.NoError(t, err)
	return study.Registry{
		Name:            name,
		StudyStrategy:   study.WireStudyStrategy{Type: "all_calculation"},
		SuggestStrategy: study.WireSuggestStrategy{Type: "sequential", StrictAligned: true},
		ParameterSpace:  space.ParameterSpaceWrapper{Space: ps},
		ResultType:      trial.ResultScalar,
		ResultValueType: value.Int,
	}
}

// A worker session end to end: ping, register, reserve until the study is
// exhausted, fetch the collected result.
func TestWorkerSession(t *testing.T) {
	client, cur := newCoordinator(t)
	ctx := context.Background()

	require.NoError(t, client.Ping(ctx))

	studyID, err := client.RegisterStudy(ctx, testRegistry(t, "session", 6))
	require.NoError(t, err)

	for {
		tr, err := client.ReserveTrial(ctx, []string{"cpu"}, 4)
		require.NoError(t, err)
		if tr == nil {
			break
		}
		aligned := tr.ParameterSpace.(*space.AlignedSpace)
		n, _ := aligned.Total()
		result := make([]trial.Mapping, n)
		for i := range result {
			x := aligned.Axes[0].AmbientIndex + int64(i)
			result[i] = trial.Mapping{
				Params: []value.Scalar{value.NewInt(x)},
				Shape:  trial.ResultScalar,
				Scalar: value.NewInt(x * x),
			}
		}
		tr.Result = result
		require.NoError(t, client.RegisterTrial(ctx, tr))
	}

	summaries, err := client.Status(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	cur.MigrateDone()

	fetched, err := client.FetchStudy(ctx, studyID, "")
	require.NoError(t, err)
	assert.Equal(t, study.StatusDone, fetched.Status)
	require.NotNil(t, fetched.Result)
	assert.Len(t, fetched.Result.Result, 6)
}

func TestReserveTrial_NoWork(t *testing.T) {
	client, _ := newCoordinator(t)
	tr, err := client.ReserveTrial(context.Background(), []string{"cpu"}, 4)
	require.NoError(t, err)
	assert.Nil(t, tr)
}

func TestFetchStudy_XorEnforcedClientSide(t *testing.T) {
	client, _ := newCoordinator(t)
	_, err := client.FetchStudy(context.Background(), "", "")
	require.Error(t, err)
	assert.IsType(t, &lderrors.ParameterError{}, err)

	_, err = client.FetchStudy(context.Background(), "a", "b")
	require.Error(t, err)
}

func TestTransportErrorClassification(t *testing.T) {
	client, _ := newCoordinator(t)
	_, err := client.FetchStudy(context.Background(), "missing", "")
	require.Error(t, err)
	var te *lderrors.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 404, te.StatusCode)
}
