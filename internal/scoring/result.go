package scoring

import (
	"encoding/json"
	"sort"
)

// Assessment is the model's judgement on one criterion.
type Assessment struct {
	Rating    float64 `json:"Rating"`
	Reasoning string  `json:"Reasoning"`
	Citations string  `json:"Citations"`
}

// Result maps criterion name to assessment. One Result exists per
// application and result type.
type Result map[string]Assessment

// Marshal encodes r with criteria in sorted key order, so equal results
// always produce identical bytes.
func (r Result) Marshal() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Criteria returns the criterion names in r, sorted.
func (r Result) Criteria() []string {
	names := make([]string, 0, len(r))
	for k := range r {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Average is the mean rating across all criteria, 0 for an empty result.
func (r Result) Average() float64 {
	if len(r) == 0 {
		return 0
	}
	var sum float64
	for _, a := range r {
		sum += a.Rating
	}
	return sum / float64(len(r))
}
