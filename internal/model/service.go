// Package model produces starter plans through a remote text-generation
// service. It selects a model, walks an ordered list of fallbacks and degrades
// to the rule table when nothing usable comes back.
package model

import (
	"context"
	"slices"
	"strings"
)

// ActionGenerateContent is the capability a model must advertise to be picked
// during selection.
const ActionGenerateContent = "generateContent"

// Info describes one model returned by a listing call.
type Info struct {
	Name    string
	Actions []string
}

func (i Info) Supports(action string) bool {
	return slices.Contains(i.Actions, action)
}

// Service is the remote generation collaborator. Both calls may fail; errors
// are classified by Classify.
type Service interface {
	ListModels(ctx context.Context) ([]Info, error)
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// NormalizeName strips the resource prefix some listings carry.
func NormalizeName(name string) string {
	return strings.TrimPrefix(name, "models/")
}
