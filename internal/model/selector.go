package model

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// familyHint marks a listed model as usable when no preference is available.
const familyHint = "gemini"

// listTimeout bounds a shared listing, which outlives any single caller.
const listTimeout = 10 * time.Second

// Selection is the model a generation run starts with.
type Selection struct {
	Model string
	// Cached is set when Model came from the cache.
	Cached bool
	// Verified is set when Model was seen in a successful listing.
	Verified bool
}

// Selector picks the first model to try. Concurrent listings are collapsed
// into one remote call.
type Selector struct {
	service     Service
	preferences []string
	cache       *Cache
	group       singleflight.Group
}

func NewSelector(service Service, preferences []string, cache *Cache) *Selector {
	return &Selector{
		service:     service,
		preferences: Candidates(preferences...),
		cache:       cache,
	}
}

// Select returns the cached model, else the first preferred model the service
// lists, else any listed model of the expected family, else the first
// preference unverified. An empty Model means no preferences are configured.
func (s *Selector) Select(ctx context.Context) Selection {
	if m, ok := s.cache.Get(); ok {
		return Selection{Model: m, Cached: true}
	}

	available, err := s.listGenerative(ctx)
	if err != nil {
		slog.WarnContext(ctx, "model listing failed, using first preference", "error", err)
		return Selection{Model: s.firstPreference()}
	}
	for _, p := range s.preferences {
		if slices.Contains(available, p) {
			return Selection{Model: p, Verified: true}
		}
	}
	for _, name := range available {
		if strings.Contains(name, familyHint) {
			return Selection{Model: name, Verified: true}
		}
	}
	return Selection{Model: s.firstPreference()}
}

func (s *Selector) firstPreference() string {
	if len(s.preferences) == 0 {
		return ""
	}
	return s.preferences[0]
}

// listGenerative shares one listing between concurrent callers. The listing
// runs detached from the caller that started it, so one canceled request does
// not fail the others; each caller still stops waiting on its own ctx.
func (s *Selector) listGenerative(ctx context.Context) ([]string, error) {
	ch := s.group.DoChan("list", func() (any, error) {
		listCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), listTimeout)
		defer cancel()
		infos, err := s.service.ListModels(listCtx)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(infos))
		for _, info := range infos {
			if info.Supports(ActionGenerateContent) {
				names = append(names, NormalizeName(info.Name))
			}
		}
		return names, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]string), nil
	}
}
