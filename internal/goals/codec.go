package goals

import (
	"encoding/json"
	"fmt"
)

// decodeGoals parses a stored goals value. Depending on the driver and on
// how the row was written, the value is either a JSON array or a JSON
// string that itself contains the array, so both shapes are accepted.
func decodeGoals(raw []byte) ([]Goal, error) {
	if len(raw) == 0 {
		return []Goal{}, nil
	}

	var gs []Goal
	if err := json.Unmarshal(raw, &gs); err == nil {
		if gs == nil {
			gs = []Goal{}
		}
		return gs, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("goals value is neither array nor string: %w", err)
	}
	if s == "" {
		return []Goal{}, nil
	}
	if err := json.Unmarshal([]byte(s), &gs); err != nil {
		return nil, fmt.Errorf("goals string does not contain a JSON array: %w", err)
	}
	if gs == nil {
		gs = []Goal{}
	}
	return gs, nil
}

// decodeGoalsLenient is the read-path variant: anything unparseable becomes
// an empty collection instead of an error.
func decodeGoalsLenient(raw []byte) []Goal {
	gs, err := decodeGoals(raw)
	if err != nil {
		return []Goal{}
	}
	return gs
}

// encodeGoals serializes a collection back to its stored form. A nil slice
// encodes as an empty array so that round-tripping is stable.
func encodeGoals(gs []Goal) ([]byte, error) {
	if gs == nil {
		gs = []Goal{}
	}
	return json.Marshal(gs)
}
