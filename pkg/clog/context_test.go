package clog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextAttributes(t *testing.T) {
	ctx := ContextWithSlog(context.Background())
	AddAttributes(ctx, map[string]any{
		"model": map[string]any{"name": "gemini-pro"},
	})
	AddAttributes(ctx, map[string]any{
		"model": map[string]any{"attempt": 2},
	})
	AddAttribute(ctx, "source", "rule")

	attrs := GetAttributes(ctx)
	assert.Equal(t, "rule", attrs["source"])
	assert.Equal(t, map[string]any{"name": "gemini-pro", "attempt": 2}, attrs["model"])
	assert.Equal(t, "rule", GetAttribute[string](ctx, "source"))
	assert.Equal(t, 0, GetAttribute[int](ctx, "source"))
}

func TestContextAttributes_NoBag(t *testing.T) {
	ctx := context.Background()
	AddAttribute(ctx, "ignored", true)
	assert.Nil(t, GetAttributes(ctx))
	assert.NoError(t, GetError(ctx))
}

func TestAddError(t *testing.T) {
	ctx := ContextWithSlog(context.Background())
	err := errors.New("boom")
	AddError(ctx, err)
	AddStack(ctx, "stack")
	assert.Equal(t, err, GetError(ctx))
	assert.Equal(t, "stack", GetStack(ctx))
}

func TestAttributesHandler_AddsContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewAttributesHandler(slog.NewJSONHandler(&buf, nil)))

	ctx := ContextWithSlog(context.Background())
	AddAttribute(ctx, "user_id", "01HX")
	logger.InfoContext(ctx, "plan generated")

	assert.Contains(t, buf.String(), `"user_id":"01HX"`)
	assert.Contains(t, buf.String(), `"msg":"plan generated"`)
}

func TestHTTPStatusToLevel(t *testing.T) {
	assert.Equal(t, LevelInfo, HTTPStatusToLevel(200))
	assert.Equal(t, LevelInfo, HTTPStatusToLevel(499))
	assert.Equal(t, LevelWarn, HTTPStatusToLevel(422))
	assert.Equal(t, LevelError, HTTPStatusToLevel(503))
}
