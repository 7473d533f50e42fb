package clog

import (
	"log/slog"

	"connectrpc.com/connect"
)

// HTTPStatusToLevel keeps client mistakes at warn and reserves error for 5xx.
// 499 is a client hang-up.
func HTTPStatusToLevel(status int) slog.Level {
	switch {
	case status == 499:
		return slog.LevelInfo
	case status >= 100 && status < 400:
		return slog.LevelInfo
	case status >= 400 && status < 500:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

func ConnectCodeToLevel(code connect.Code) slog.Level {
	switch code {
	case connect.CodeUnknown,
		connect.CodeResourceExhausted,
		connect.CodeUnimplemented,
		connect.CodeInternal,
		connect.CodeUnavailable,
		connect.CodeDataLoss:
		return slog.LevelError
	case connect.CodePermissionDenied,
		connect.CodeUnauthenticated:
		// A board refusing a role or a wrong API key is worth noticing.
		return slog.LevelWarn
	}
	return slog.LevelInfo
}
