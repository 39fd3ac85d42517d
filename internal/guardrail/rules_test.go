package guardrail

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRules(t *testing.T) {
	rules, err := ParseRules([]byte(`
version: "2"
max_length: 100
denylist: ["procrastinate"]
`))
	require.NoError(t, err)
	assert.Equal(t, Rules{Version: "2", MaxLength: 100, Denylist: []string{"procrastinate"}}, rules)
}

func TestParseRules_KeepsDefaults(t *testing.T) {
	rules, err := ParseRules([]byte(`version: "3"`))
	require.NoError(t, err)
	assert.Equal(t, "3", rules.Version)
	assert.Equal(t, DefaultRules().MaxLength, rules.MaxLength)
	assert.Equal(t, DefaultRules().Denylist, rules.Denylist)
}

func TestParseRules_Invalid(t *testing.T) {
	for name, data := range map[string]string{
		"not yaml":       "version: [",
		"no version":     "max_length: 10",
		"zero length":    "version: x\nmax_length: 0",
		"empty denylist": "version: x\ndenylist: []",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRules([]byte(data))
			assert.ErrorIs(t, err, ErrInvalidRules)
		})
	}
}

func writeRules(t *testing.T, path, content string) {
	t.Helper()
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0o644))
	require.NoError(t, os.Rename(tmp, path))
}

func TestWatcher_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guardrail.yaml")
	writeRules(t, path, "version: one\ndenylist: [\"homework\"]\n")

	f := NewFilter(DefaultRules())
	w, err := NewWatcher(path, f)
	require.NoError(t, err)
	<-w.reloaded
	assert.Equal(t, "one", f.Rules().Version)
	assert.True(t, f.IsBlocked("do homework"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	// Give the watcher a moment to register the directory.
	time.Sleep(50 * time.Millisecond)
	writeRules(t, path, "version: two\ndenylist: [\"laundry\"]\n")

	select {
	case <-w.reloaded:
	case <-time.After(3 * time.Second):
		t.Fatal("rules were not reloaded")
	}
	assert.Equal(t, "two", f.Rules().Version)
	assert.False(t, f.IsBlocked("do homework"))
	assert.True(t, f.IsBlocked("fold laundry"))
}

func TestWatcher_InvalidFileKeepsRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guardrail.yaml")
	writeRules(t, path, "version: one\n")

	f := NewFilter(DefaultRules())
	w, err := NewWatcher(path, f)
	require.NoError(t, err)

	writeRules(t, path, "max_length: 5\n")
	assert.ErrorIs(t, w.reload(), ErrInvalidRules)
	assert.Equal(t, "one", f.Rules().Version)
}

func TestNewWatcher_MissingFile(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "absent.yaml"), NewFilter(DefaultRules()))
	assert.Error(t, err)
}
