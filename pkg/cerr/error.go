package cerr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime"

	"buf.build/gen/go/bufbuild/protovalidate/protocolbuffers/go/buf/validate"
	"connectrpc.com/connect"
	"google.golang.org/protobuf/proto"

	"github.com/twominute/twominute/pkg/clog"
)

// Error is a failure with a client-facing code and message. Err and Stack
// only reach the logs.
type Error struct {
	Code    Code
	Msg     string
	Err     error
	Stack   string
	Details []proto.Message
}

// NewError builds an Error. A stack is captured for codes logged at error
// level.
func NewError(code Code, msg string, underlying error) *Error {
	err := &Error{Code: code, Msg: msg, Err: underlying}
	if clog.ConnectCodeToLevel(code.ConnectCode()) == clog.LevelError {
		buf := make([]byte, 2048)
		err.Stack = string(buf[:runtime.Stack(buf, false)])
	}
	return err
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Code, e.Msg, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AddDetailMessageWithCode attaches a field violation. ruleID names the
// broken rule, e.g. "sprint_length.range".
func (e *Error) AddDetailMessageWithCode(msg string, ruleID string) error {
	e.Details = append(e.Details, &validate.Violation{
		Message: proto.String(msg),
		RuleId:  proto.String(ruleID),
	})
	return e
}

func (e *Error) ConnectError() *connect.Error {
	connectErr := connect.NewError(e.Code.ConnectCode(), errors.New(e.Msg))
	for _, msg := range e.Details {
		if detail, err := connect.NewErrorDetail(msg); err == nil {
			connectErr.AddDetail(detail)
		}
	}
	return connectErr
}

func IsCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// clientGone reports errors caused by the caller hanging up.
func clientGone(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr) && dnsErr.Err == "operation was canceled"
}

// classify turns any handler error into an *Error and records the cause on
// the request's log line.
func classify(ctx context.Context, err error) *Error {
	if clientGone(err) {
		return NewError(Canceled, "connection closed", err)
	}
	clog.AddError(ctx, err)
	var e *Error
	if errors.As(err, &e) {
		if e.Stack != "" {
			clog.AddStack(ctx, e.Stack)
		}
		return e
	}
	return NewError(Unknown, "unknown error", err)
}

func ExtractConnectError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	return classify(ctx, err).ConnectError()
}

type httpErrorDetail struct {
	RuleID  string `json:"rule_id,omitempty"`
	Message string `json:"message"`
}

type httpError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details []httpErrorDetail `json:"details,omitempty"`
}

func (e *Error) httpBody() httpError {
	body := httpError{Code: e.Code.String(), Message: e.Msg}
	for _, d := range e.Details {
		if v, ok := d.(*validate.Violation); ok {
			body.Details = append(body.Details, httpErrorDetail{RuleID: v.GetRuleId(), Message: v.GetMessage()})
		}
	}
	return body
}

const fallbackBody = `{"code":"internal","message":"server error"}` + "\n"

func render(ctx context.Context, rw http.ResponseWriter, rep *reply) {
	if rep.err == nil {
		status := rep.status
		if status == 0 {
			status = http.StatusOK
		}
		writeJSON(ctx, rw, status, rep.body)
		return
	}
	e := classify(ctx, rep.err)
	writeJSON(ctx, rw, e.Code.HTTPCode(), e.httpBody())
}

func writeJSON(ctx context.Context, rw http.ResponseWriter, status int, body any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		clog.AddError(ctx, NewError(Internal, "server error", fmt.Errorf("failed to encode response: %w", err)))
		status = http.StatusInternalServerError
		buf.Reset()
		buf.WriteString(fallbackBody)
	}
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(status)
	if _, err := rw.Write(buf.Bytes()); err != nil {
		clog.AddError(ctx, fmt.Errorf("failed to write response: %w", err))
	}
}
