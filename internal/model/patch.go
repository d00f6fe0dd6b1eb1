package model

import "encoding/json"

// MillisPatch is a tri-state epoch-millisecond field for partial
// updates. A JSON body that omits the field leaves Valid false and the
// stored value untouched; an explicit null sets Valid with a nil
// Millis, which clears the deadline; a number sets both.
type MillisPatch struct {
	Valid  bool
	Millis *int64
}

func (p *MillisPatch) UnmarshalJSON(b []byte) error {
	p.Valid = true
	if string(b) == "null" {
		p.Millis = nil
		return nil
	}
	return json.Unmarshal(b, &p.Millis)
}

func (p MillisPatch) MarshalJSON() ([]byte, error) {
	if !p.Valid || p.Millis == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*p.Millis)
}
