package clog

import (
	"log/slog"

	"connectrpc.com/connect"
)

type Level int

const (
	LevelDebug Level = iota + 1
	LevelInfo
	LevelWarn
	LevelError
)

// Slog converts l to the slog scale.
func (l Level) Slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// HTTPStatusToLevel picks the access-log level for a response status.
// 499 (client went away) is not the server's fault.
func HTTPStatusToLevel(status int) Level {
	switch {
	case status == 499:
		return LevelInfo
	case status >= 100 && status < 400:
		return LevelInfo
	case status >= 400 && status < 500:
		return LevelWarn
	default:
		return LevelError
	}
}

// serverFaults are the codes logged at error level; every other known code
// describes a caller mistake or an expected condition.
var serverFaults = map[connect.Code]bool{
	connect.CodeUnknown:           true,
	connect.CodeResourceExhausted: true,
	connect.CodeUnimplemented:     true,
	connect.CodeInternal:          true,
	connect.CodeUnavailable:       true,
	connect.CodeDataLoss:          true,
}

func ConnectCodeToLevel(code connect.Code) Level {
	if code < connect.CodeCanceled || code > connect.CodeUnauthenticated || serverFaults[code] {
		return LevelError
	}
	return LevelInfo
}
