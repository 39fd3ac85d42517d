package model

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/twominute/twominute/internal/plan"
)

func notFound(string) error   { return genai.APIError{Code: 404, Status: "NOT_FOUND", Message: "model not found"} }
func overloaded(string) error { return genai.APIError{Code: 503, Status: "UNAVAILABLE", Message: "The model is overloaded."} }

func rulePlan(task string, badDay bool) plan.Plan {
	return plan.NormalizePlan(plan.RuleGenerator{}.Generate(task), badDay)
}

func TestGenerator_AllNotFoundFallsBackToRule(t *testing.T) {
	svc := &fakeService{
		models: generative(prefs...),
		generate: func(_ context.Context, m string) (string, error) {
			return "", notFound(m)
		},
	}
	g := NewGenerator(svc, prefs)

	got := g.Generate(context.Background(), "Study OS scheduling", false, 10)
	if diff := cmp.Diff(rulePlan("Study OS scheduling", false), got); diff != "" {
		t.Errorf("Generate() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, prefs, svc.Calls())
	_, cached := g.Cache().Get()
	assert.False(t, cached)
}

func TestGenerator_FatalAbortsAfterOneCall(t *testing.T) {
	svc := &fakeService{
		models: generative(prefs...),
		generate: func(context.Context, string) (string, error) {
			return "", genai.APIError{Code: 401, Status: "UNAUTHENTICATED", Message: "API key not valid"}
		},
	}
	got := NewGenerator(svc, prefs).Generate(context.Background(), "fix the bug", false, 10)

	assert.Equal(t, plan.SourceRule, got.Source)
	assert.Len(t, svc.Calls(), 1)
}

func TestGenerator_OverloadedThenSuccessCaches(t *testing.T) {
	svc := &fakeService{
		models: generative(prefs...),
		generate: func(_ context.Context, m string) (string, error) {
			switch m {
			case prefs[0], prefs[1]:
				return "", overloaded(m)
			}
			return validJSON, nil
		},
	}
	g := NewGenerator(svc, prefs)

	got := g.Generate(context.Background(), "write the report", false, 15)
	assert.Equal(t, plan.ModelSource(prefs[2]), got.Source)
	assert.Equal(t, "Open the doc and type a title.", got.Starter)
	assert.Len(t, got.Steps, 3)
	assert.Equal(t, prefs[:3], svc.Calls())

	cached, ok := g.Cache().Get()
	require.True(t, ok)
	assert.Equal(t, prefs[2], cached)

	got = g.Generate(context.Background(), "write the report", false, 15)
	assert.Equal(t, plan.ModelSource(prefs[2]), got.Source)
	assert.Equal(t, prefs[2], svc.Calls()[3])
	assert.Equal(t, 1, svc.listCalls)
}

func TestGenerator_ClearsCachedModelOnNotFound(t *testing.T) {
	svc := &fakeService{
		models: generative(prefs...),
		generate: func(_ context.Context, m string) (string, error) {
			if m == "gemini-retired" {
				return "", notFound(m)
			}
			return validJSON, nil
		},
	}
	cache := NewCache()
	cache.Set("gemini-retired")
	g := NewGenerator(svc, prefs, WithCache(cache))

	got := g.Generate(context.Background(), "email my advisor", false, 10)
	assert.Equal(t, plan.ModelSource(prefs[0]), got.Source)
	assert.Equal(t, []string{"gemini-retired", prefs[0]}, svc.Calls())

	cached, _ := cache.Get()
	assert.Equal(t, prefs[0], cached)
}

func TestGenerator_ClearedCacheStaysEmptyWhenChainExhausted(t *testing.T) {
	svc := &fakeService{generate: func(_ context.Context, m string) (string, error) { return "", overloaded(m) }}
	cache := NewCache()
	cache.Set(prefs[1])

	got := NewGenerator(svc, prefs, WithCache(cache)).Generate(context.Background(), "plan", false, 10)
	assert.Equal(t, plan.SourceRule, got.Source)
	_, ok := cache.Get()
	assert.False(t, ok)
	assert.Len(t, svc.Calls(), len(prefs))
}

func TestGenerator_KeepsCacheOnFatal(t *testing.T) {
	svc := &fakeService{generate: func(context.Context, string) (string, error) {
		return "", genai.APIError{Code: 403, Status: "PERMISSION_DENIED", Message: "forbidden"}
	}}
	cache := NewCache()
	cache.Set("gemini-pro")

	NewGenerator(svc, prefs, WithCache(cache)).Generate(context.Background(), "plan", false, 10)
	cached, _ := cache.Get()
	assert.Equal(t, "gemini-pro", cached)
	assert.Equal(t, []string{"gemini-pro"}, svc.Calls())
}

func TestGenerator_MalformedAborts(t *testing.T) {
	svc := &fakeService{
		models:   generative(prefs...),
		generate: func(context.Context, string) (string, error) { return `{"starter":""}`, nil },
	}
	g := NewGenerator(svc, prefs)

	got := g.Generate(context.Background(), "read chapter 2", true, 10)
	assert.Equal(t, rulePlan("read chapter 2", true), got)
	assert.Len(t, svc.Calls(), 1)
	_, ok := g.Cache().Get()
	assert.False(t, ok)
}

func TestGenerator_BadDayTruncates(t *testing.T) {
	svc := &fakeService{
		models:   generative(prefs...),
		generate: func(context.Context, string) (string, error) { return "```json\n" + validJSON + "\n```", nil },
	}
	got := NewGenerator(svc, prefs).Generate(context.Background(), "write", true, 10)
	assert.Equal(t, []string{"Outline 3 bullets."}, got.Steps)
	assert.Equal(t, plan.ModelSource(prefs[0]), got.Source)
}

func TestGenerator_CallerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	svc := &fakeService{
		listErr: errors.New("offline"),
		generate: func(ctx context.Context, _ string) (string, error) {
			cancel()
			return "", ctx.Err()
		},
	}
	g := NewGenerator(svc, prefs)

	got := g.Generate(ctx, "study", false, 10)
	assert.Equal(t, plan.SourceRule, got.Source)
	assert.Len(t, svc.Calls(), 1)
	_, ok := g.Cache().Get()
	assert.False(t, ok)
}

func TestGenerator_CallTimeout(t *testing.T) {
	svc := &fakeService{
		models: generative(prefs...),
		generate: func(ctx context.Context, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	got := NewGenerator(svc, prefs, WithCallTimeout(10*time.Millisecond)).Generate(context.Background(), "study", false, 10)
	assert.Equal(t, plan.SourceRule, got.Source)
	assert.Len(t, svc.Calls(), 1)
}

func TestGenerator_NoPreferences(t *testing.T) {
	svc := &fakeService{listErr: errors.New("offline")}
	got := NewGenerator(svc, nil).Generate(context.Background(), "study", false, 10)
	assert.Equal(t, rulePlan("study", false), got)
	assert.Empty(t, svc.Calls())
}
