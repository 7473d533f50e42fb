package cerr

import (
	"context"

	"connectrpc.com/connect"
)

// NewConvertConnectErrorInterceptor hides internal error text from RPC
// callers, keeping only the code and the safe message.
func NewConvertConnectErrorInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			resp, err := next(ctx, req)
			if req.Spec().IsClient {
				return resp, err
			}
			return resp, ExtractConnectError(ctx, err)
		}
	}
}
