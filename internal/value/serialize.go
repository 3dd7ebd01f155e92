package value

import "encoding/json"

// wireScalar is the JSON wire shape for a Scalar: a value_type
// discriminator plus its loss-less textual payload. Booleans ride as
// native JSON booleans rather than strings.
type wireScalar struct {
	ValueType string          `json:"value_type"`
	Payload   json.RawMessage `json:"payload"`
}

func (s Scalar) MarshalJSON() ([]byte, error) {
	if s.Type == Bool {
		payload, _ := json.Marshal(s.Bool)
		return json.Marshal(wireScalar{ValueType: string(Bool), Payload: payload})
	}
	enc, err := Encode(s)
	if err != nil {
		return nil, err
	}
	payload, _ := json.Marshal(enc)
	return json.Marshal(wireScalar{ValueType: string(s.Type), Payload: payload})
}

func (s *Scalar) UnmarshalJSON(data []byte) error {
	var w wireScalar
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	t, err := ParseType(w.ValueType)
	if err != nil {
		return err
	}
	if t == Bool {
		var b bool
		if err := json.Unmarshal(w.Payload, &b); err != nil {
			return err
		}
		*s = NewBool(b)
		return nil
	}
	var payload string
	if err := json.Unmarshal(w.Payload, &payload); err != nil {
		return err
	}
	decoded, err := Decode(payload, t)
	if err != nil {
		return err
	}
	*s = decoded
	return nil
}
