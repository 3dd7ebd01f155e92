package space

import (
	"encoding/json"

	"github.com/atsuhiron/lite-dist2-go/internal/axis"
	lderrors "github.com/atsuhiron/lite-dist2-go/internal/errors"
	"github.com/atsuhiron/lite-dist2-go/internal/value"
)

// ParameterSpace is the tagged-variant union of AlignedSpace and
// JaggedSpace; the wire parser rejects unknown tags.
type ParameterSpace interface {
	Kind() string
	ToAlignedList() []*AlignedSpace
}

func (s *AlignedSpace) Kind() string { return "aligned" }
func (j *JaggedSpace) Kind() string  { return "jagged" }

type wireAlignedSpace struct {
	Type              string       `json:"type"`
	Axes              []axis.Axis  `json:"axes"`
	CheckLowerFilling bool         `json:"check_lower_filling"`
}

func (s *AlignedSpace) MarshalJSON() ([]byte, error) {
	axes := make([]axis.Axis, len(s.Axes))
	for i, a := range s.Axes {
		axes[i] = *a
	}
	return json.Marshal(wireAlignedSpace{Type: "aligned", Axes: axes, CheckLowerFilling: s.CheckLowerFilling})
}

func (s *AlignedSpace) UnmarshalJSON(data []byte) error {
	var w wireAlignedSpace
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	axes := make([]*axis.Axis, len(w.Axes))
	for i := range w.Axes {
		cp := w.Axes[i]
		axes[i] = &cp
	}
	s.Axes = axes
	s.CheckLowerFilling = w.CheckLowerFilling
	return nil
}

type wireJaggedPoint struct {
	Point         []value.Scalar `json:"point"`
	AmbientIndex []int64        `json:"ambient_index"`
}

type wireJaggedSpace struct {
	Type     string            `json:"type"`
	Points   []wireJaggedPoint `json:"points"`
	AxesInfo []axis.DummyAxis  `json:"axes_info"`
}

func (j *JaggedSpace) MarshalJSON() ([]byte, error) {
	points := make([]wireJaggedPoint, len(j.Points))
	for i := range j.Points {
		points[i] = wireJaggedPoint{Point: j.Points[i], AmbientIndex: j.AmbientIndices[i]}
	}
	return json.Marshal(wireJaggedSpace{Type: "jagged", Points: points, AxesInfo: j.AxesInfo})
}

func (j *JaggedSpace) UnmarshalJSON(data []byte) error {
	var w wireJaggedSpace
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	j.AxesInfo = w.AxesInfo
	j.Points = make([][]value.Scalar, len(w.Points))
	j.AmbientIndices = make([][]int64, len(w.Points))
	for i, p := range w.Points {
		j.Points[i] = p.Point
		j.AmbientIndices[i] = p.AmbientIndex
	}
	return nil
}

// ParameterSpaceWrapper round-trips a ParameterSpace through JSON by
// sniffing the "type" discriminator, rejecting unknown tags with
// UndefinedError.
type ParameterSpaceWrapper struct {
	Space ParameterSpace
}

func (w ParameterSpaceWrapper) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Space)
}

func (w *ParameterSpaceWrapper) UnmarshalJSON(data []byte) error {
	var discriminator struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &discriminator); err != nil {
		return err
	}
	switch discriminator.Type {
	case "aligned":
		var s AlignedSpace
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		w.Space = &s
	case "jagged":
		var s JaggedSpace
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		w.Space = &s
	default:
		return lderrors.NewUndefinedError("parameter_space.type", discriminator.Type)
	}
	return nil
}
