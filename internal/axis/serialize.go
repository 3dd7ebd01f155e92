package axis

import (
	"encoding/json"

	"github.com/atsuhiron/lite-dist2-go/internal/value"
)

// wireAxis is the JSON wire shape: an infinite ambient_size serializes as
// JSON null, and start/step go through the value codec.
type wireAxis struct {
	Name         *string     `json:"name,omitempty"`
	ValueType    string      `json:"value_type"`
	Start        value.Scalar `json:"start"`
	Step         value.Scalar `json:"step"`
	Size         *int64      `json:"size"`
	AmbientIndex int64       `json:"ambient_index"`
	AmbientSize  *int64      `json:"ambient_size"`
}

func (a Axis) startScalar() value.Scalar {
	switch a.Type {
	case value.Bool:
		return value.NewBool(a.StartI != 0)
	case value.Int:
		return value.NewInt(a.StartI)
	default:
		return value.NewFloat(a.StartF)
	}
}

func (a Axis) stepScalar() value.Scalar {
	switch a.Type {
	case value.Bool:
		return value.NewBool(a.StepI != 0)
	case value.Int:
		return value.NewInt(a.StepI)
	default:
		return value.NewFloat(a.StepF)
	}
}

func (a Axis) MarshalJSON() ([]byte, error) {
	w := wireAxis{
		ValueType:    string(a.Type),
		Start:        a.startScalar(),
		Step:         a.stepScalar(),
		AmbientIndex: a.AmbientIndex,
	}
	if a.HasName {
		w.Name = &a.Name
	}
	if a.Size != Infinite {
		w.Size = &a.Size
	}
	if a.AmbientSize != Infinite {
		w.AmbientSize = &a.AmbientSize
	}
	return json.Marshal(w)
}

func (a *Axis) UnmarshalJSON(data []byte) error {
	var w wireAxis
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	t, err := value.ParseType(w.ValueType)
	if err != nil {
		return err
	}
	out := Axis{Type: t, AmbientIndex: w.AmbientIndex}
	if w.Name != nil {
		out.HasName = true
		out.Name = *w.Name
	}
	if w.Size != nil {
		out.Size = *w.Size
	} else {
		out.Size = Infinite
	}
	if w.AmbientSize != nil {
		out.AmbientSize = *w.AmbientSize
	} else {
		out.AmbientSize = Infinite
	}
	switch t {
	case value.Bool, value.Int:
		out.StartI = w.Start.Int
		if t == value.Bool && w.Start.Bool {
			out.StartI = 1
		}
		out.StepI = w.Step.Int
		if t == value.Bool && w.Step.Bool {
			out.StepI = 1
		}
	case value.Float:
		out.StartF = w.Start.Float
		out.StepF = w.Step.Float
	}
	*a = out
	return nil
}

type wireDummyAxis struct {
	Name        *string      `json:"name,omitempty"`
	ValueType   string       `json:"value_type"`
	Step        value.Scalar `json:"step"`
	AmbientSize *int64       `json:"ambient_size"`
}

func (d DummyAxis) MarshalJSON() ([]byte, error) {
	var step value.Scalar
	switch d.Type {
	case value.Bool:
		step = value.NewBool(d.StepI != 0)
	case value.Int:
		step = value.NewInt(d.StepI)
	default:
		step = value.NewFloat(d.StepF)
	}
	w := wireDummyAxis{ValueType: string(d.Type), Step: step}
	if d.HasName {
		w.Name = &d.Name
	}
	if d.AmbientSize != Infinite {
		w.AmbientSize = &d.AmbientSize
	}
	return json.Marshal(w)
}

func (d *DummyAxis) UnmarshalJSON(data []byte) error {
	var w wireDummyAxis
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	t, err := value.ParseType(w.ValueType)
	if err != nil {
		return err
	}
	out := DummyAxis{Type: t}
	if w.Name != nil {
		out.HasName = true
		out.Name = *w.Name
	}
	if w.AmbientSize != nil {
		out.AmbientSize = *w.AmbientSize
	} else {
		out.AmbientSize = Infinite
	}
	switch t {
	case value.Bool, value.Int:
		out.StepI = w.Step.Int
		if t == value.Bool && w.Step.Bool {
			out.StepI = 1
		}
	case value.Float:
		out.StepF = w.Step.Float
	}
	*d = out
	return nil
}
