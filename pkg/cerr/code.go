package cerr

import (
	"net/http"

	"connectrpc.com/connect"
)

type Code int

const (
	OK Code = iota
	Canceled
	Unknown
	InvalidArgument
	DeadlineExceeded
	NotFound
	PermissionDenied
	FailedPrecondition
	Internal
	Unavailable
	Unauthenticated
)

type codeInfo struct {
	name    string
	connect connect.Code
	http    int
}

var codes = map[Code]codeInfo{
	OK:                 {"ok", 0, http.StatusOK},
	Canceled:           {"canceled", connect.CodeCanceled, 499},
	Unknown:            {"unknown", connect.CodeUnknown, http.StatusInternalServerError},
	InvalidArgument:    {"invalid_argument", connect.CodeInvalidArgument, http.StatusBadRequest},
	DeadlineExceeded:   {"deadline_exceeded", connect.CodeDeadlineExceeded, http.StatusGatewayTimeout},
	NotFound:           {"not_found", connect.CodeNotFound, http.StatusNotFound},
	PermissionDenied:   {"permission_denied", connect.CodePermissionDenied, http.StatusForbidden},
	FailedPrecondition: {"failed_precondition", connect.CodeFailedPrecondition, http.StatusPreconditionFailed},
	Internal:           {"internal", connect.CodeInternal, http.StatusInternalServerError},
	Unavailable:        {"unavailable", connect.CodeUnavailable, http.StatusServiceUnavailable},
	Unauthenticated:    {"unauthenticated", connect.CodeUnauthenticated, http.StatusUnauthorized},
}

func (c Code) info() codeInfo {
	if i, ok := codes[c]; ok {
		return i
	}
	return codes[Unknown]
}

func (c Code) String() string {
	return c.info().name
}

func (c Code) ConnectCode() connect.Code {
	return c.info().connect
}

func (c Code) HTTPCode() int {
	return c.info().http
}

// NewCodeFromConnectError maps an error returned by a connect client back to
// a Code. Connect codes with no counterpart here become Unknown, except the
// transient ones which stay retryable as Unavailable.
func NewCodeFromConnectError(err error) Code {
	if err == nil {
		return OK
	}
	cc := connect.CodeOf(err)
	for c, i := range codes {
		if c != OK && i.connect == cc {
			return c
		}
	}
	switch cc {
	case connect.CodeResourceExhausted, connect.CodeAborted:
		return Unavailable
	}
	return Unknown
}
