package curriculum

import (
	"github.com/google/uuid"

	lderrors "github.com/atsuhiron/lite-dist2-go/internal/errors"
	"github.com/atsuhiron/lite-dist2-go/internal/study"
	"github.com/atsuhiron/lite-dist2-go/internal/suggest"
	"github.com/atsuhiron/lite-dist2-go/internal/trial"
	"github.com/atsuhiron/lite-dist2-go/internal/utils"
	"github.com/atsuhiron/lite-dist2-go/internal/value"
)

// RegisterStudy validates the registry, assigns a fresh study_id, stamps
// registered_at, and inserts the new study in the wait state. Returns the
// issued study_id.
func (c *Curriculum) RegisterStudy(reg study.Registry, defaultTimeoutMinutes int) (string, error) {
	if _, err := trial.ParseResultShape(string(reg.ResultType)); err != nil {
		return "", err
	}
	if _, err := value.ParseType(string(reg.ResultValueType)); err != nil {
		return "", err
	}
	if reg.SuggestStrategy.Type != "sequential" {
		return "", lderrors.NewUndefinedError("suggest_strategy", reg.SuggestStrategy.Type)
	}
	aligned, strat, err := reg.Build()
	if err != nil {
		return "", err
	}

	studyID := uuid.NewString()
	suggestStrategy := &suggest.SequentialSuggest{
		ParameterSpace: aligned,
		StrictAligned:  reg.SuggestStrategy.StrictAligned,
	}
	timeout := utils.DefaultValue(reg.TimeoutMinutes, defaultTimeoutMinutes)
	s := study.New(studyID, reg.Name, reg.RequiredCapacity, aligned, reg.ResultType, reg.ResultValueType, strat, suggestStrategy, timeout, c.Clock.Now(), c.Clock)
	c.InsertStudy(s)
	return studyID, nil
}

// ReserveTrial selects a runnable study for the worker's capability set and
// asks it for the next trial. Returns (nil, nil) when no study has work.
//
// The study pointer is obtained under the curriculum lock but the study's
// own mutex is only taken afterwards, so a concurrent MigrateDone may have
// completed the study in between; a study that then yields no trial is
// re-evaluated and the scan retried.
func (c *Curriculum) ReserveTrial(capability []string, maxSize int64) (*trial.Trial, error) {
	capSet := make(map[string]struct{}, len(capability))
	for _, cp := range capability {
		capSet[cp] = struct{}{}
	}
	for attempt := 0; attempt < 3; attempt++ {
		s := c.GetAvailableStudy(capSet)
		if s == nil {
			return nil, nil
		}
		tr, err := s.SuggestNextTrial(maxSize)
		if err != nil {
			return nil, err
		}
		if tr != nil {
			return tr, nil
		}
		// The study had no free slice left; refresh its status so the
		// next scan skips it once it migrates to done.
		s.UpdateStatus()
	}
	return nil, nil
}
