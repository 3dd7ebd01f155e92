package trial

import (
	"encoding/json"
	"time"

	lderrors "github.com/atsuhiron/lite-dist2-go/internal/errors"
	"github.com/atsuhiron/lite-dist2-go/internal/space"
	"github.com/atsuhiron/lite-dist2-go/internal/value"
)

type wireMapping struct {
	Params       []value.Scalar  `json:"params"`
	ResultType   ResultShape     `json:"result_type"`
	Result       *value.Scalar   `json:"result,omitempty"`
	ResultVector *value.Vector   `json:"result_vector,omitempty"`
}

func (m Mapping) MarshalJSON() ([]byte, error) {
	w := wireMapping{Params: m.Params, ResultType: m.Shape}
	if m.Shape == ResultVector {
		v := m.Vector
		w.ResultVector = &v
	} else {
		s := m.Scalar
		w.Result = &s
	}
	return json.Marshal(w)
}

func (m *Mapping) UnmarshalJSON(data []byte) error {
	var w wireMapping
	if err := json.Unmarshal(data, &w); err != nil {
		return lderrors.NewSerializationError("mapping", "malformed mapping", err)
	}
	shape, err := ParseResultShape(string(w.ResultType))
	if err != nil {
		return err
	}
	m.Params = w.Params
	m.Shape = shape
	if shape == ResultVector {
		if w.ResultVector == nil {
			return lderrors.NewSerializationError("mapping", "missing result_vector", nil)
		}
		m.Vector = *w.ResultVector
	} else {
		if w.Result == nil {
			return lderrors.NewSerializationError("mapping", "missing result", nil)
		}
		m.Scalar = *w.Result
	}
	return nil
}

// wireTrial is the TrialModel wire shape exchanged with workers and
// persisted in the curriculum snapshot.
type wireTrial struct {
	StudyID         string                      `json:"study_id"`
	TrialID         string                      `json:"trial_id"`
	Timestamp       time.Time                   `json:"timestamp"`
	Status          Status                      `json:"status"`
	ParameterSpace  space.ParameterSpaceWrapper `json:"parameter_space"`
	ResultType      ResultShape                 `json:"result_type"`
	ResultValueType value.Type                  `json:"result_value_type"`
	Result          []Mapping                   `json:"result,omitempty"`
}

func (t Trial) MarshalJSON() ([]byte, error) {
	w := wireTrial{
		StudyID:         t.StudyID,
		TrialID:         t.TrialID,
		Timestamp:       t.Timestamp,
		Status:          t.Status,
		ParameterSpace:  space.ParameterSpaceWrapper{Space: t.ParameterSpace},
		ResultType:      t.ResultShape,
		ResultValueType: t.ResultValueType,
		Result:          t.Result,
	}
	return json.Marshal(w)
}

func (t *Trial) UnmarshalJSON(data []byte) error {
	var w wireTrial
	if err := json.Unmarshal(data, &w); err != nil {
		return lderrors.NewSerializationError("trial", "malformed trial", err)
	}
	status := w.Status
	if status != StatusRunning && status != StatusDone {
		return lderrors.NewUndefinedError("status", string(w.Status))
	}
	shape, err := ParseResultShape(string(w.ResultType))
	if err != nil {
		return err
	}
	vt, err := value.ParseType(string(w.ResultValueType))
	if err != nil {
		return err
	}
	t.StudyID = w.StudyID
	t.TrialID = w.TrialID
	t.Timestamp = w.Timestamp
	t.Status = status
	t.ParameterSpace = w.ParameterSpace.Space
	t.ResultShape = shape
	t.ResultValueType = vt
	t.Result = w.Result
	return nil
}
