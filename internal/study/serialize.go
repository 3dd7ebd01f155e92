package study

import (
	"encoding/json"
	"time"

	lderrors "github.com/atsuhiron/lite-dist2-go/internal/errors"
	"github.com/atsuhiron/lite-dist2-go/internal/space"
	"github.com/atsuhiron/lite-dist2-go/internal/studystrategy"
	"github.com/atsuhiron/lite-dist2-go/internal/suggest"
	"github.com/atsuhiron/lite-dist2-go/internal/trial"
	"github.com/atsuhiron/lite-dist2-go/internal/value"
)

// Registry is the StudyRegistry wire body accepted by POST /study/register.
// study_id/registered_at are assigned by the curriculum, not supplied by
// the caller.
type Registry struct {
	Name             string                      `json:"name,omitempty"`
	RequiredCapacity []string                    `json:"required_capacity"`
	StudyStrategy    WireStudyStrategy           `json:"study_strategy"`
	SuggestStrategy  WireSuggestStrategy         `json:"suggest_strategy"`
	ParameterSpace   space.ParameterSpaceWrapper `json:"parameter_space"`
	ResultType       trial.ResultShape           `json:"result_type"`
	ResultValueType  value.Type                  `json:"result_value_type"`
	TimeoutMinutes   int                         `json:"timeout_minutes,omitempty"`
}

// WireStudyStrategy is the tagged-variant study_strategy registry field:
// {"type": "all_calculation"} | {"type": "find_exact", "target_value": ...}
// | {"type": "find_exact", "target_expr": "..."} | {"type": "minimize"}.
type WireStudyStrategy struct {
	Type        string         `json:"type"`
	TargetValue *value.Scalar  `json:"target_value,omitempty"`
	TargetVector *value.Vector `json:"target_vector,omitempty"`
	TargetExpr  string         `json:"target_expr,omitempty"`
}

// WireSuggestStrategy is the tagged-variant suggest_strategy registry
// field. "sequential" is the only implemented kind.
type WireSuggestStrategy struct {
	Type          string `json:"type"`
	StrictAligned bool   `json:"strict_aligned"`
}

// Build validates a Registry and constructs the strategy pair it names.
// The parameter space must be an AlignedSpace: suggest strategy
// construction always operates against the aligned form, jagged spaces
// only ever appear as issued trial slices.
func (r Registry) Build() (*space.AlignedSpace, studystrategy.Strategy, error) {
	aligned, ok := r.ParameterSpace.Space.(*space.AlignedSpace)
	if !ok {
		return nil, nil, lderrors.NewParameterError("registered parameter_space must be aligned")
	}
	// The study's own space always carries the lower-filling invariant:
	// every slice handed to a worker must be expressible as one flat
	// interval for the trial table's aggregation.
	if !aligned.CheckLowerFilling {
		validated, err := space.New(aligned.Axes, true)
		if err != nil {
			return nil, nil, err
		}
		aligned = validated
	}

	kind, err := studystrategy.ParseKind(r.StudyStrategy.Type)
	if err != nil {
		return nil, nil, err
	}

	var strat studystrategy.Strategy
	switch kind {
	case studystrategy.AllCalculation:
		strat = &studystrategy.AllCalculationStrategy{ParameterSpace: aligned}
	case studystrategy.FindExact:
		if r.StudyStrategy.TargetExpr != "" {
			strat, err = studystrategy.NewFindExactByExpr(r.StudyStrategy.TargetExpr)
			if err != nil {
				return nil, nil, err
			}
		} else {
			m, err := targetMapping(r.StudyStrategy)
			if err != nil {
				return nil, nil, err
			}
			strat = studystrategy.NewFindExactByValue(m)
		}
	}
	return aligned, strat, nil
}

func targetMapping(ws WireStudyStrategy) (trial.Mapping, error) {
	if ws.TargetVector != nil {
		return trial.Mapping{Shape: trial.ResultVector, Vector: *ws.TargetVector}, nil
	}
	if ws.TargetValue != nil {
		return trial.Mapping{Shape: trial.ResultScalar, Scalar: *ws.TargetValue}, nil
	}
	return trial.Mapping{}, lderrors.NewParameterError("find_exact requires target_value, target_vector, or target_expr")
}

// wireStorage is the StudyStorage wire shape: persisted in the curriculum
// snapshot and returned by GET /study once a study is done.
type wireStorage struct {
	StudyID         string          `json:"study_id"`
	Name            string          `json:"name"`
	RegisteredAt    time.Time       `json:"registered_at"`
	DoneAt          time.Time       `json:"done_at"`
	ResultType      trial.ResultShape `json:"result_type"`
	ResultValueType value.Type      `json:"result_value_type"`
	Result          []trial.Mapping `json:"result"`
}

func (s Storage) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireStorage{
		StudyID:         s.StudyID,
		Name:            s.Name,
		RegisteredAt:    s.RegisteredAt,
		DoneAt:          s.DoneAt,
		ResultType:      s.ResultType,
		ResultValueType: s.ResultValueType,
		Result:          s.Result,
	})
}

func (s *Storage) UnmarshalJSON(data []byte) error {
	var w wireStorage
	if err := json.Unmarshal(data, &w); err != nil {
		return lderrors.NewSerializationError("storage", "malformed study storage", err)
	}
	s.StudyID = w.StudyID
	s.Name = w.Name
	s.RegisteredAt = w.RegisteredAt
	s.DoneAt = w.DoneAt
	s.ResultType = w.ResultType
	s.ResultValueType = w.ResultValueType
	s.Result = w.Result
	return nil
}

// wireStudy is the StudyModel wire shape persisted in the curriculum
// snapshot. GET /status reports curriculum summaries instead.
type wireStudy struct {
	StudyID          string                      `json:"study_id"`
	Name             string                      `json:"name"`
	RequiredCapacity []string                    `json:"required_capacity"`
	Status           Status                      `json:"status"`
	RegisteredAt     time.Time                   `json:"registered_at"`
	StudyStrategy    WireStudyStrategy           `json:"study_strategy"`
	SuggestStrategy  WireSuggestStrategy         `json:"suggest_strategy"`
	ParameterSpace   space.ParameterSpaceWrapper `json:"parameter_space"`
	ResultType       trial.ResultShape           `json:"result_type"`
	ResultValueType  value.Type                  `json:"result_value_type"`
	TimeoutMinutes   int                         `json:"timeout_minutes"`
	Trials           []trial.Trial               `json:"trials"`
}

func capacitySlice(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// MarshalJSON serializes a Study for the curriculum snapshot. The study's
// strategy objects are re-expressed through their tagged wire form rather
// than dumped opaquely, so a reloaded snapshot can reconstruct equivalent
// strategy instances via Registry.Build.
func (s *Study) MarshalJSON() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := wireStudy{
		StudyID:          s.StudyID,
		Name:             s.Name,
		RequiredCapacity: capacitySlice(s.RequiredCapacity),
		Status:           s.status,
		RegisteredAt:     s.RegisteredAt,
		SuggestStrategy:  WireSuggestStrategy{Type: "sequential", StrictAligned: s.SuggestStrategy.StrictAligned},
		ParameterSpace:   space.ParameterSpaceWrapper{Space: s.ParameterSpace},
		ResultType:       s.ResultType,
		ResultValueType:  s.ResultValueType,
		TimeoutMinutes:   s.TrialTable.TimeoutMinutes,
	}
	switch strat := s.StudyStrategy.(type) {
	case *studystrategy.AllCalculationStrategy:
		w.StudyStrategy = WireStudyStrategy{Type: string(studystrategy.AllCalculation)}
	case *studystrategy.FindExactStrategy:
		w.StudyStrategy = WireStudyStrategy{Type: string(studystrategy.FindExact)}
		if strat.Target != nil {
			if strat.Target.Shape == trial.ResultVector {
				v := strat.Target.Vector
				w.StudyStrategy.TargetVector = &v
			} else {
				v := strat.Target.Scalar
				w.StudyStrategy.TargetValue = &v
			}
		}
	}
	for _, tr := range s.TrialTable.Trials {
		w.Trials = append(w.Trials, *tr)
	}
	return json.Marshal(w)
}

// UnmarshalJSON rebuilds a Study from its snapshot form, including
// replaying its trial log (so Aggregated/dim are reconstructed exactly as
// SimplifyAPs/Receipt would have produced them originally).
func (s *Study) UnmarshalJSON(data []byte) error {
	var w wireStudy
	if err := json.Unmarshal(data, &w); err != nil {
		return lderrors.NewSerializationError("study", "malformed study", err)
	}
	aligned, ok := w.ParameterSpace.Space.(*space.AlignedSpace)
	if !ok {
		return lderrors.NewInvalidSpaceError("persisted study parameter_space must be aligned")
	}
	reg := Registry{
		StudyStrategy:   w.StudyStrategy,
		ParameterSpace:  w.ParameterSpace,
		ResultType:      w.ResultType,
		ResultValueType: w.ResultValueType,
	}
	_, strat, err := reg.Build()
	if err != nil {
		return err
	}

	suggestStrategy := &suggest.SequentialSuggest{ParameterSpace: aligned, StrictAligned: w.SuggestStrategy.StrictAligned}
	fresh := New(w.StudyID, w.Name, w.RequiredCapacity, aligned, w.ResultType, w.ResultValueType, strat, suggestStrategy, w.TimeoutMinutes, w.RegisteredAt, nil)
	s.StudyID = fresh.StudyID
	s.Name = fresh.Name
	s.RequiredCapacity = fresh.RequiredCapacity
	s.RegisteredAt = fresh.RegisteredAt
	s.ParameterSpace = fresh.ParameterSpace
	s.ResultType = fresh.ResultType
	s.ResultValueType = fresh.ResultValueType
	s.StudyStrategy = fresh.StudyStrategy
	s.SuggestStrategy = fresh.SuggestStrategy
	s.TrialTable = fresh.TrialTable
	s.status = w.Status
	for i := range w.Trials {
		tr := w.Trials[i]
		s.TrialTable.EnsureDim(aligned.Dim())
		s.TrialTable.Trials = append(s.TrialTable.Trials, &tr)
		if tr.Status == trial.StatusDone {
			bucket := aligned.Dim() - 1
			s.TrialTable.Aggregated[bucket] = append(s.TrialTable.Aggregated[bucket], tr.ParameterSpace.ToAlignedList()...)
		}
	}
	s.TrialTable.SimplifyAPs()
	return nil
}
