package plan

import (
	"context"
	"log/slog"

	"github.com/twominute/twominute/internal/guardrail"
	"github.com/twominute/twominute/pkg/clog"
)

// Guard classifies task text before any generation happens.
type Guard interface {
	Check(text string) guardrail.Verdict
}

// RemoteGenerator produces a plan through a remote model. Implementations
// never fail: they fall back to the rule table themselves.
type RemoteGenerator interface {
	Generate(ctx context.Context, task string, badDay bool, sprintLengthMinutes int) Plan
}

type Service struct {
	guard  Guard
	rules  RuleGenerator
	remote RemoteGenerator
}

// NewService wires the pipeline. remote may be nil when no model credential
// is configured; every plan then comes from the rule table.
func NewService(guard Guard, remote RemoteGenerator) *Service {
	return &Service{guard: guard, remote: remote}
}

// RemoteConfigured reports whether a remote generator is wired in.
func (s *Service) RemoteConfigured() bool {
	return s.remote != nil
}

// Generate validates req, runs the guardrail and produces a bounded plan.
// Errors are either a request-validation *cerr.Error or ErrBlocked.
func (s *Service) Generate(ctx context.Context, req Request) (*Plan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if v := s.guard.Check(req.Task); v.Blocked {
		clog.AddAttributes(ctx, map[string]any{
			"guardrail": map[string]any{"reason": string(v.Reason), "match": v.Match},
		})
		slog.InfoContext(ctx, "plan request blocked by guardrail", "reason", v.Reason)
		return nil, ErrBlocked
	}

	var p Plan
	if req.UseRemoteModel && s.remote != nil {
		p = s.remote.Generate(ctx, req.Task, req.BadDay, req.SprintLength())
	} else {
		p = s.rules.Generate(req.Task)
	}
	p = NormalizePlan(p, req.BadDay)

	clog.AddAttribute(ctx, "plan_source", p.Source)
	return &p, nil
}
