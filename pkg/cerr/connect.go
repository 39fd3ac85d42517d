package cerr

import (
	"context"

	"connectrpc.com/connect"
)

type connectErrors struct{}

// NewConvertConnectErrorInterceptor turns handler errors into connect errors
// carrying Code, Msg and Details. Wrapped causes go to the log only.
func NewConvertConnectErrorInterceptor() connect.Interceptor {
	return connectErrors{}
}

func (connectErrors) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		resp, err := next(ctx, req)
		return resp, ExtractConnectError(ctx, err)
	}
}

func (connectErrors) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (connectErrors) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		return ExtractConnectError(ctx, next(ctx, conn))
	}
}
