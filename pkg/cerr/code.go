package cerr

import (
	"net/http"

	"connectrpc.com/connect"
)

// Code mirrors the gRPC status codes so one value drives both the JSON API
// and connect handlers.
type Code int

const (
	OK                 = Code(0)
	Canceled           = Code(1)
	Unknown            = Code(2)
	InvalidArgument    = Code(3)
	DeadlineExceeded   = Code(4)
	NotFound           = Code(5)
	AlreadyExists      = Code(6)
	PermissionDenied   = Code(7)
	ResourceExhausted  = Code(8)
	FailedPrecondition = Code(9)
	Aborted            = Code(10)
	OutOfRange         = Code(11)
	Unimplemented      = Code(12)
	Internal           = Code(13)
	Unavailable        = Code(14)
	DataLoss           = Code(15)
	Unauthenticated    = Code(16)
)

type mapping struct {
	connect connect.Code
	status  int
}

var mappings = map[Code]mapping{
	Canceled:           {connect.CodeCanceled, 499},
	Unknown:            {connect.CodeUnknown, http.StatusInternalServerError},
	InvalidArgument:    {connect.CodeInvalidArgument, http.StatusBadRequest},
	DeadlineExceeded:   {connect.CodeDeadlineExceeded, http.StatusGatewayTimeout},
	NotFound:           {connect.CodeNotFound, http.StatusNotFound},
	AlreadyExists:      {connect.CodeAlreadyExists, http.StatusConflict},
	PermissionDenied:   {connect.CodePermissionDenied, http.StatusForbidden},
	ResourceExhausted:  {connect.CodeResourceExhausted, http.StatusTooManyRequests},
	FailedPrecondition: {connect.CodeFailedPrecondition, http.StatusPreconditionFailed},
	Aborted:            {connect.CodeAborted, http.StatusConflict},
	OutOfRange:         {connect.CodeOutOfRange, http.StatusBadRequest},
	Unimplemented:      {connect.CodeUnimplemented, http.StatusNotImplemented},
	Internal:           {connect.CodeInternal, http.StatusInternalServerError},
	Unavailable:        {connect.CodeUnavailable, http.StatusServiceUnavailable},
	DataLoss:           {connect.CodeDataLoss, http.StatusInternalServerError},
	Unauthenticated:    {connect.CodeUnauthenticated, http.StatusUnauthorized},
}

func (c Code) ConnectCode() connect.Code {
	if c == OK {
		return 0
	}
	if m, ok := mappings[c]; ok {
		return m.connect
	}
	return connect.CodeUnknown
}

func (c Code) HTTPCode() int {
	if c == OK {
		return http.StatusOK
	}
	if m, ok := mappings[c]; ok {
		return m.status
	}
	return http.StatusInternalServerError
}

// String returns the snake_case name shared with connect, e.g. "invalid_argument".
func (c Code) String() string {
	if c == OK {
		return "ok"
	}
	return c.ConnectCode().String()
}
