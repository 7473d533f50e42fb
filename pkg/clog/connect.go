package clog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/proto"
)

// Attributer is implemented by request messages that want their identifying
// fields (date, task id, role) attached to the RPC log record.
type Attributer interface {
	LogAttributes() map[string]any
}

type ConnectOption func(*slogConnectInterceptor)

// WithConnectFilter drops the log record for procedures where filter returns false.
func WithConnectFilter(filter func(connect.Spec) bool) ConnectOption {
	return func(i *slogConnectInterceptor) {
		i.filter = filter
	}
}

func SkipHealthCheck(spec connect.Spec) bool {
	return spec.Procedure != "/grpc.health.v1.Health/Check"
}

type slogConnectInterceptor struct {
	filter func(connect.Spec) bool
}

// NewSlogConnectInterceptor logs one record per finished RPC. Streaming
// calls pass through untouched.
func NewSlogConnectInterceptor(opts ...ConnectOption) connect.Interceptor {
	i := &slogConnectInterceptor{}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *slogConnectInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		start := time.Now()
		ctx = ContextWithSlog(ctx)
		AddAttributes(ctx, map[string]any{
			"method":    req.HTTPMethod(),
			"procedure": req.Spec().Procedure,
		})
		if a, ok := req.Any().(Attributer); ok {
			AddAttributes(ctx, a.LogAttributes())
		}

		resp, err := next(ctx, req)
		if i.filter != nil && !i.filter(req.Spec()) {
			return resp, err
		}

		code := "ok"
		var connectErr *connect.Error
		if err != nil {
			if !errors.As(err, &connectErr) {
				connectErr = connect.NewError(connect.CodeUnknown, err)
			}
			code = connectErr.Code().String()
		}
		AddAttributes(ctx, map[string]any{
			"code":     code,
			"duration": time.Since(start),
		})
		if connectErr == nil {
			slog.InfoContext(ctx, "Finished")
		} else {
			logConnectError(ctx, connectErr)
		}
		return resp, err
	}
}

func (i *slogConnectInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (i *slogConnectInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return next
}

func logConnectError(ctx context.Context, connectErr *connect.Error) {
	if errDetails := connectErr.Details(); len(errDetails) > 0 {
		details := make([]proto.Message, 0, len(errDetails))
		for _, detail := range errDetails {
			val, err := detail.Value()
			if err != nil {
				continue
			}
			details = append(details, val)
		}
		AddAttribute(ctx, "err_details", details)
	}
	slog.Log(ctx, ConnectCodeToLevel(connectErr.Code()), connectErr.Message())
}
