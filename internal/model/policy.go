package model

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"
)

// FailureKind classifies one failed generation attempt.
type FailureKind int

const (
	KindFatal FailureKind = iota
	KindNotFound
	KindOverloaded
	KindMalformed
	KindCanceled
)

func (k FailureKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindOverloaded:
		return "overloaded"
	case KindMalformed:
		return "malformed"
	case KindCanceled:
		return "canceled"
	default:
		return "fatal"
	}
}

// Decision tells the generator what to do after a failed attempt.
type Decision int

const (
	// Abort stops the chain and falls back to the rule table.
	Abort Decision = iota
	// Continue moves on to the next candidate.
	Continue
)

var decisions = map[FailureKind]Decision{
	KindNotFound:   Continue,
	KindOverloaded: Continue,
	KindMalformed:  Abort,
	KindCanceled:   Abort,
	KindFatal:      Abort,
}

// Decide is the retry policy of the fallback chain.
func Decide(kind FailureKind) Decision {
	if d, ok := decisions[kind]; ok {
		return d
	}
	return Abort
}

// Classify maps an attempt error to a FailureKind. ctx is the caller context,
// not the per-attempt one, so a per-call timeout is not reported as canceled.
func Classify(ctx context.Context, err error) FailureKind {
	if ctx.Err() != nil {
		return KindCanceled
	}
	if errors.Is(err, ErrMalformedResponse) {
		return KindMalformed
	}

	var code int
	var status, msg string
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code, status, msg = apiErr.Code, apiErr.Status, apiErr.Message
	case errors.As(err, &apiErrPtr):
		code, status, msg = apiErrPtr.Code, apiErrPtr.Status, apiErrPtr.Message
	default:
		msg = err.Error()
	}
	status = strings.ToUpper(status)
	msg = strings.ToLower(msg)

	switch {
	case code == 404 || strings.Contains(status, "NOT_FOUND"),
		strings.Contains(msg, "404") || strings.Contains(msg, "not found"):
		return KindNotFound
	case code == 503 || strings.Contains(status, "UNAVAILABLE"),
		strings.Contains(msg, "503") || strings.Contains(msg, "overloaded"):
		return KindOverloaded
	}
	return KindFatal
}
