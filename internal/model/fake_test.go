package model

import (
	"context"
	"sync"
)

type fakeService struct {
	mu        sync.Mutex
	models    []Info
	listErr   error
	listCalls int
	// listGate, when set, holds ListModels until closed. listStarted is
	// closed on the first call.
	listGate    chan struct{}
	listStarted chan struct{}
	listCtxErr  error
	generate    func(ctx context.Context, model string) (string, error)
	calls       []string
}

func (f *fakeService) ListModels(ctx context.Context) ([]Info, error) {
	f.mu.Lock()
	f.listCalls++
	gate, started := f.listGate, f.listStarted
	if f.listCalls == 1 && started != nil {
		close(started)
	}
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listCtxErr == nil {
		f.listCtxErr = ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.models, nil
}

func (f *fakeService) Generate(ctx context.Context, model, _ string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, model)
	gen := f.generate
	f.mu.Unlock()
	return gen(ctx, model)
}

func (f *fakeService) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func generative(names ...string) []Info {
	infos := make([]Info, 0, len(names))
	for _, n := range names {
		infos = append(infos, Info{Name: "models/" + n, Actions: []string{"countTokens", ActionGenerateContent}})
	}
	return infos
}

const validJSON = `{"starter":"Open the doc and type a title.","steps":["Outline 3 bullets.","Write one sentence.","Add a source."]}`
