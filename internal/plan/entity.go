package plan

import (
	"errors"
	"fmt"

	"github.com/twominute/twominute/pkg/cerr"
)

const (
	SourceRule        = "rule"
	sourceModelPrefix = "model:"

	DefaultSprintLength = 10
	MinSprintLength     = 5
	MaxSprintLength     = 30

	// MaxSteps bounds follow-up steps in normal mode; bad-day mode gets one.
	MaxSteps       = 3
	BadDayMaxSteps = 1
)

// ErrBlocked is returned when the guardrail rejects the task text.
var ErrBlocked = errors.New("blocked by guardrails")

// ModelSource builds the provenance tag for a plan produced by a remote model.
func ModelSource(model string) string {
	return sourceModelPrefix + model
}

// Request is one plan request. A zero SprintLengthMinutes means "unset".
type Request struct {
	Task                string
	BadDay              bool
	SprintLengthMinutes int
	UseRemoteModel      bool
}

// SprintLength returns the requested sprint length or the default.
func (r Request) SprintLength() int {
	if r.SprintLengthMinutes == 0 {
		return DefaultSprintLength
	}
	return r.SprintLengthMinutes
}

// Validate checks request shape only. Task text is judged by the guardrail.
func (r Request) Validate() error {
	if r.SprintLengthMinutes == 0 {
		return nil
	}
	if r.SprintLengthMinutes < MinSprintLength || r.SprintLengthMinutes > MaxSprintLength {
		return sprintLengthError()
	}
	return nil
}

func sprintLengthError() error {
	e := cerr.NewError(cerr.InvalidArgument, "invalid payload", nil)
	return e.AddDetailMessageWithCode(
		fmt.Sprintf("sprintLengthMinutes must be between %d and %d", MinSprintLength, MaxSprintLength),
		"sprint_length.range",
	)
}

// Draft is an unbounded starter/steps pair as produced by a generator.
type Draft struct {
	Starter string
	Steps   []string
}

type Plan struct {
	Starter string   `json:"starter"`
	Steps   []string `json:"steps"`
	Source  string   `json:"source"`
}
