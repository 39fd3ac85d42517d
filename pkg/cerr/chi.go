package cerr

import (
	"context"
	"net/http"
)

// reply collects what a chi handler wants rendered. Handlers fill it through
// the Set* helpers; the middleware writes it once they return.
type reply struct {
	body   any
	status int
	err    error
	// streamed is set when the handler wrote the body itself.
	streamed bool
}

type replyKey struct{}

func replyFrom(ctx context.Context) *reply {
	rep, _ := ctx.Value(replyKey{}).(*reply)
	return rep
}

func SetJSONResponse(ctx context.Context, body any) {
	SetJSONResponseWithStatus(ctx, http.StatusOK, body)
}

// SetJSONResponseWithStatus renders body with a status other than 200, for
// replies that are neither success nor *Error shaped.
func SetJSONResponseWithStatus(ctx context.Context, status int, body any) {
	if rep := replyFrom(ctx); rep != nil {
		rep.body = body
		rep.status = status
	}
}

func SetJSONError(ctx context.Context, err error) {
	if rep := replyFrom(ctx); rep != nil {
		rep.err = err
	}
}

func SetNewJSONError(ctx context.Context, code Code, msg string, err error) {
	SetJSONError(ctx, NewError(code, msg, err))
}

// MarkHijacked tells the middleware the handler owns the response body.
func MarkHijacked(ctx context.Context) {
	if rep := replyFrom(ctx); rep != nil {
		rep.streamed = true
	}
}

// NewConvertErrorChiMiddleware renders the reply set by the handler as JSON.
// Errors become {code, message, details} with the code's HTTP status.
func NewConvertErrorChiMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			rep := &reply{}
			ctx := context.WithValue(r.Context(), replyKey{}, rep)
			next.ServeHTTP(rw, r.WithContext(ctx))
			if !rep.streamed {
				render(ctx, rw, rep)
			}
		})
	}
}
