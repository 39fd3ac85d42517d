package model

import (
	"context"
	"log/slog"
	"time"

	"github.com/twominute/twominute/internal/plan"
)

// Generator produces plans through a Service and never fails: any chain that
// ends without a valid response yields the rule plan.
type Generator struct {
	service     Service
	preferences []string
	cache       *Cache
	selector    *Selector
	rules       plan.RuleGenerator
	callTimeout time.Duration
}

type Option func(*Generator)

// WithCache shares a cache with the generator instead of a private one.
func WithCache(c *Cache) Option {
	return func(g *Generator) { g.cache = c }
}

// WithCallTimeout bounds each generation call. Zero disables the bound.
func WithCallTimeout(d time.Duration) Option {
	return func(g *Generator) { g.callTimeout = d }
}

func NewGenerator(service Service, preferences []string, opts ...Option) *Generator {
	g := &Generator{
		service:     service,
		preferences: Candidates(preferences...),
		cache:       NewCache(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.selector = NewSelector(service, g.preferences, g.cache)
	return g
}

func (g *Generator) Cache() *Cache {
	return g.cache
}

// Generate walks the candidate chain for task. Steps are bounded for badDay
// and the result is tagged with the model that produced it.
func (g *Generator) Generate(ctx context.Context, task string, badDay bool, sprintLengthMinutes int) plan.Plan {
	sel := g.selector.Select(ctx)
	prompt := BuildPrompt(task, badDay, sprintLengthMinutes)

	for _, id := range attemptOrder(sel.Model, g.preferences) {
		draft, err := g.attempt(ctx, id, prompt)
		if err == nil {
			g.cache.Set(id)
			slog.DebugContext(ctx, "model plan generated", "model", id, "verified", sel.Verified)
			return plan.Normalize(draft, badDay, plan.ModelSource(id))
		}

		kind := Classify(ctx, err)
		if Decide(kind) == Continue {
			if g.cache.CompareAndClear(id) {
				slog.InfoContext(ctx, "cleared cached model", "model", id)
			}
			slog.WarnContext(ctx, "model unavailable, trying next", "model", id, "kind", kind.String(), "error", err)
			continue
		}
		slog.ErrorContext(ctx, "model generation aborted, using rule plan", "model", id, "kind", kind.String(), "error", err)
		break
	}
	return plan.NormalizePlan(g.rules.Generate(task), badDay)
}

func (g *Generator) attempt(ctx context.Context, id, prompt string) (plan.Draft, error) {
	if g.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.callTimeout)
		defer cancel()
	}
	raw, err := g.service.Generate(ctx, id, prompt)
	if err != nil {
		return plan.Draft{}, err
	}
	return ParseResponse(raw)
}
