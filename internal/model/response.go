package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/twominute/twominute/internal/plan"
)

// ErrMalformedResponse is returned when model output is not a usable plan.
var ErrMalformedResponse = errors.New("malformed model response")

var fenceStripper = strings.NewReplacer("```json", "", "```", "")

type response struct {
	Starter string   `json:"starter"`
	Steps   []string `json:"steps"`
}

// ParseResponse turns raw model text into a draft. The text may be wrapped in
// code fences. A draft needs a non-empty starter and at least one non-blank
// step; steps are not bounded here.
func ParseResponse(raw string) (plan.Draft, error) {
	cleaned := strings.TrimSpace(fenceStripper.Replace(raw))
	var r response
	if err := json.Unmarshal([]byte(cleaned), &r); err != nil {
		return plan.Draft{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	starter := strings.TrimSpace(r.Starter)
	if starter == "" {
		return plan.Draft{}, fmt.Errorf("%w: missing starter", ErrMalformedResponse)
	}
	if len(r.Steps) == 0 {
		return plan.Draft{}, fmt.Errorf("%w: missing steps", ErrMalformedResponse)
	}
	steps := make([]string, 0, len(r.Steps))
	for i, s := range r.Steps {
		s = strings.TrimSpace(s)
		if s == "" {
			return plan.Draft{}, fmt.Errorf("%w: step %d is blank", ErrMalformedResponse, i)
		}
		steps = append(steps, s)
	}
	return plan.Draft{Starter: starter, Steps: steps}, nil
}
