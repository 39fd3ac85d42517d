package clog

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/proto"
)

const healthServicePrefix = "/grpc.health.v1.Health/"

type ConnectOption func(*connectInterceptor)

// QuietOnSuccess logs calls matched by quiet only when they fail, so
// frequent probes stay out of the log until something breaks.
func QuietOnSuccess(quiet func(connect.Spec) bool) ConnectOption {
	return func(i *connectInterceptor) { i.quiet = quiet }
}

// IsHealthCheck matches gRPC health service procedures.
func IsHealthCheck(spec connect.Spec) bool {
	return strings.HasPrefix(spec.Procedure, healthServicePrefix)
}

type connectInterceptor struct {
	quiet func(connect.Spec) bool
}

// NewSlogConnectInterceptor logs one line per finished handler call, unary or
// streaming, with the call's attribute bag.
func NewSlogConnectInterceptor(opts ...ConnectOption) connect.Interceptor {
	i := &connectInterceptor{}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *connectInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		ctx, finish := i.begin(ctx, req.Spec())
		AddAttribute(ctx, "method", req.HTTPMethod())
		resp, err := next(ctx, req)
		finish(err)
		return resp, err
	}
}

func (i *connectInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (i *connectInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		ctx, finish := i.begin(ctx, conn.Spec())
		err := next(ctx, conn)
		finish(err)
		return err
	}
}

func (i *connectInterceptor) begin(ctx context.Context, spec connect.Spec) (context.Context, func(error)) {
	start := time.Now()
	ctx = ContextWithSlog(ctx)
	AddAttributes(ctx, map[string]any{
		"procedure":   spec.Procedure,
		"stream_type": spec.StreamType.String(),
	})
	return ctx, func(err error) {
		if err == nil && i.quiet != nil && i.quiet(spec) {
			return
		}
		AddAttribute(ctx, "duration", time.Since(start))
		if err == nil {
			AddAttribute(ctx, "code", "ok")
			slog.InfoContext(ctx, "Finished")
			return
		}
		var connectErr *connect.Error
		if !errors.As(err, &connectErr) {
			connectErr = connect.NewError(connect.CodeUnknown, err)
		}
		AddAttribute(ctx, "code", connectErr.Code().String())
		logConnectError(ctx, connectErr)
	}
}

func logConnectError(ctx context.Context, connectErr *connect.Error) {
	if raw := connectErr.Details(); len(raw) > 0 {
		details := make([]proto.Message, 0, len(raw))
		for _, d := range raw {
			msg, err := d.Value()
			if err != nil {
				slog.WarnContext(ctx, "undecodable error detail", "type", d.Type(), ErrorAttributeKey, err)
				continue
			}
			details = append(details, msg)
		}
		AddAttribute(ctx, "err_details", details)
	}
	slog.Log(ctx, ConnectCodeToLevel(connectErr.Code()).Slog(), connectErr.Message())
}
