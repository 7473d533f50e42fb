package cerr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime"

	"connectrpc.com/connect"

	"github.com/kazz187/serviceboard/pkg/clog"
)

type Error struct {
	Code  Code
	Msg   string // safe to return to the caller
	Err   error  // logged, never returned
	Stack string
}

// NewError records a stack trace for codes that are logged at error level.
func NewError(code Code, msg string, underlying error) *Error {
	err := &Error{
		Code: code,
		Msg:  msg,
		Err:  underlying,
	}
	if clog.ConnectCodeToLevel(code.ConnectCode()) >= slog.LevelError {
		stackTrace := make([]byte, 2048)
		n := runtime.Stack(stackTrace, false)
		err.Stack = string(stackTrace[0:n])
	}
	return err
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code.String(), e.Msg)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code.String(), e.Msg, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) ConnectError() *connect.Error {
	return connect.NewError(e.Code.ConnectCode(), errors.New(e.Msg))
}

// FromConnectError converts an error returned by a connect client into an *Error
// so callers on the client side can branch with IsCode.
func FromConnectError(err error) error {
	if err == nil {
		return nil
	}
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return NewError(NewCodeFromConnectError(connectErr), connectErr.Message(), err)
	}
	if errors.Is(err, context.Canceled) {
		return NewError(Canceled, "request canceled", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(DeadlineExceeded, "request timed out", err)
	}
	return NewError(Unavailable, "request failed", err)
}

// classify turns a handler error into the *Error sent to the caller and
// records the original on the request log. A closed connection is not logged.
func classify(ctx context.Context, err error) *Error {
	var dnsErr *net.DNSError
	if errors.Is(err, context.Canceled) ||
		(errors.As(err, &dnsErr) && dnsErr.Err == "operation was canceled") {
		return NewError(Canceled, "connection closed", err)
	}
	clog.AddError(ctx, err)
	var cerr *Error
	if errors.As(err, &cerr) {
		if cerr.Stack != "" {
			clog.AddStack(ctx, cerr.Stack)
		}
		return cerr
	}
	return NewError(Unknown, "unknown error", err)
}

func ExtractConnectError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var connectErr *connect.Error
	if !errors.As(err, new(*Error)) && errors.As(err, &connectErr) {
		clog.AddError(ctx, err)
		return connectErr
	}
	return classify(ctx, err).ConnectError()
}

type httpError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeResponse(ctx context.Context, rw http.ResponseWriter, rr *responseReceiver) {
	if rr.err != nil {
		writeJSONError(ctx, rw, classify(ctx, rr.err))
		return
	}
	writeJSON(ctx, rw, rr.response)
}

func writeJSON(ctx context.Context, rw http.ResponseWriter, response any) {
	if response == nil {
		rw.WriteHeader(http.StatusNoContent)
		return
	}
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(response); err != nil {
		writeJSONError(ctx, rw, NewError(Internal, "server error", err))
		return
	}
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(http.StatusOK)
	if _, err := rw.Write(buf.Bytes()); err != nil {
		clog.AddError(ctx, NewError(Internal, "server error", err))
	}
}

func writeJSONError(ctx context.Context, rw http.ResponseWriter, origErr *Error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(httpError{Code: origErr.Code.String(), Message: origErr.Msg}); err != nil {
		buf = bytes.NewBufferString(`{"code":"internal","message":"server error"}`)
		origErr.Err = errors.Join(origErr.Err, err)
		clog.AddError(ctx, origErr)
	}
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(origErr.Code.HTTPCode())
	if _, err := rw.Write(buf.Bytes()); err != nil {
		origErr.Err = errors.Join(origErr.Err, err)
		clog.AddError(ctx, origErr)
	}
}

func IsCode(err error, code Code) bool {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code == code
	}
	return false
}

// CodeOf returns the Code carried by err, Unknown for uncoded errors and OK for nil.
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code
	}
	return Unknown
}
