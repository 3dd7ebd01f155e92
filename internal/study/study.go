// Package study implements the study: the owner of one parameter space,
// its strategies, its trial table, and its lifecycle status.
package study

import (
	"fmt"
	"sync"
	"time"

	"github.com/atsuhiron/lite-dist2-go/internal/clock"
	"github.com/atsuhiron/lite-dist2-go/internal/space"
	"github.com/atsuhiron/lite-dist2-go/internal/studystrategy"
	"github.com/atsuhiron/lite-dist2-go/internal/suggest"
	"github.com/atsuhiron/lite-dist2-go/internal/trial"
	"github.com/atsuhiron/lite-dist2-go/internal/value"
)

// Status is the study's lifecycle state.
type Status string

const (
	StatusWait    Status = "wait"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
)

// Storage is the immutable record produced when a study completes.
type Storage struct {
	StudyID         string
	Name            string
	RegisteredAt    time.Time
	DoneAt          time.Time
	ResultType      trial.ResultShape
	ResultValueType value.Type
	Result          []trial.Mapping
}

// Study owns a parameter space, its completion/suggest strategies, and its
// trial table. A study owns a mutex guarding its TrialTable; suggest and
// receipt operations hold it. The status field is only written under the
// mutex and read as a plain snapshot elsewhere.
type Study struct {
	StudyID         string
	Name            string
	RequiredCapacity map[string]struct{}
	RegisteredAt    time.Time
	ParameterSpace  *space.AlignedSpace
	ResultType      trial.ResultShape
	ResultValueType value.Type

	StudyStrategy   studystrategy.Strategy
	SuggestStrategy *suggest.SequentialSuggest
	TrialTable      *trial.Table

	Clock clock.Clock

	mu     sync.Mutex
	status Status
}

// New constructs a study in the wait state.
func New(studyID, name string, requiredCapacity []string, ps *space.AlignedSpace, resultType trial.ResultShape, resultValueType value.Type, strategy studystrategy.Strategy, suggestStrategy *suggest.SequentialSuggest, timeoutMinutes int, registeredAt time.Time, c clock.Clock) *Study {
	caps := make(map[string]struct{}, len(requiredCapacity))
	for _, cp := range requiredCapacity {
		caps[cp] = struct{}{}
	}
	if name == "" {
		name = studyID
	}
	return &Study{
		StudyID:          studyID,
		Name:             name,
		RequiredCapacity: caps,
		RegisteredAt:     registeredAt,
		ParameterSpace:   ps,
		ResultType:       resultType,
		ResultValueType:  resultValueType,
		StudyStrategy:    strategy,
		SuggestStrategy:  suggestStrategy,
		TrialTable:       trial.NewTable(ps.Dim(), timeoutMinutes),
		Clock:            c,
		status:           StatusWait,
	}
}

// RequiredCapacitySubsetOf reports whether this study's required capacity
// is a subset of the worker's offered capability set.
func (s *Study) RequiredCapacitySubsetOf(capabilitySet map[string]struct{}) bool {
	for c := range s.RequiredCapacity {
		if _, ok := capabilitySet[c]; !ok {
			return false
		}
	}
	return true
}

// Status returns the study's last computed lifecycle status.
func (s *Study) Status() Status {
	return s.status
}

// SetClock installs the timestamp source, used by Curriculum after
// rebuilding a Study from a snapshot (where no clock is known yet).
func (s *Study) SetClock(c clock.Clock) {
	s.Clock = c
}

// SuggestNextTrial acquires the table mutex, asks the suggest strategy for
// the next sub-space, and -- if one was returned -- builds and registers a
// Trial with a fresh sequential trial_id. Returns (nil, nil) when no work
// remains.
func (s *Study) SuggestNextTrial(maxNum int64) (*trial.Trial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Clock.Now()
	proposed, err := s.SuggestStrategy.Suggest(s.TrialTable, maxNum, now)
	if err != nil {
		return nil, err
	}
	if proposed == nil {
		return nil, nil
	}

	tr := &trial.Trial{
		StudyID:         s.StudyID,
		TrialID:         fmt.Sprintf("%s-%x", s.StudyID, s.TrialTable.CountTrial()),
		Timestamp:       now,
		Status:          trial.StatusRunning,
		ParameterSpace:  proposed,
		ResultShape:     s.ResultType,
		ResultValueType: s.ResultValueType,
	}
	s.TrialTable.Register(tr)
	if s.status == StatusWait {
		s.status = StatusRunning
	}
	return tr, nil
}

// ReceiptTrial records a worker-submitted trial's result under the table
// mutex, initializing the aggregation's dim from the study's own parameter
// space if the table has not yet seen one.
func (s *Study) ReceiptTrial(trialID string, result []trial.Mapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.TrialTable.EnsureDim(s.ParameterSpace.Dim())
	return s.TrialTable.Receipt(trialID, result)
}

// TrialCount reports how many trials have been issued so far.
func (s *Study) TrialCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.TrialTable.CountTrial()
}

// UpdateStatus recomputes and stores the study's lifecycle status: wait if
// no aggregation exists yet, done if the strategy's completion predicate
// holds, running otherwise.
func (s *Study) UpdateStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.TrialTable.Aggregated) == 0 {
		s.status = StatusWait
		return s.status
	}
	if s.StudyStrategy.IsDone(s.TrialTable) {
		s.status = StatusDone
		return s.status
	}
	s.status = StatusRunning
	return s.status
}

// ToStorage materializes this (presumed done) study's final result via its
// study strategy.
func (s *Study) ToStorage(doneAt time.Time) *Storage {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &Storage{
		StudyID:         s.StudyID,
		Name:            s.Name,
		RegisteredAt:    s.RegisteredAt,
		DoneAt:          doneAt,
		ResultType:      s.ResultType,
		ResultValueType: s.ResultValueType,
		Result:          s.StudyStrategy.ExtractMappings(s.TrialTable),
	}
}
