package cerr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/serviceboard/pkg/clog"
	"github.com/kazz187/serviceboard/pkg/storage"
)

func TestCodeRoundTrip(t *testing.T) {
	for c := range codes {
		if c == OK {
			continue
		}
		err := connect.NewError(c.ConnectCode(), errors.New("x"))
		assert.Equal(t, c, NewCodeFromConnectError(err), c.String())
	}
	assert.Equal(t, Unavailable, NewCodeFromConnectError(connect.NewError(connect.CodeAborted, nil)))
	assert.Equal(t, "unknown", Code(99).String())
}

func TestFromConnectError(t *testing.T) {
	err := FromConnectError(connect.NewError(connect.CodeNotFound, errors.New("no such date")))
	assert.True(t, IsCode(err, NotFound))
	assert.Equal(t, NotFound, CodeOf(err))

	assert.True(t, IsCode(FromConnectError(context.DeadlineExceeded), DeadlineExceeded))
	assert.True(t, IsCode(FromConnectError(errors.New("dial tcp: refused")), Unavailable))
	assert.NoError(t, FromConnectError(nil))
	assert.Equal(t, OK, CodeOf(nil))
}

func TestExtractConnectError_HidesUnderlying(t *testing.T) {
	ctx := clog.ContextWithSlog(context.Background())
	err := ExtractConnectError(ctx, NewError(Internal, "server error", errors.New("disk full")))

	var connectErr *connect.Error
	require.ErrorAs(t, err, &connectErr)
	assert.Equal(t, connect.CodeInternal, connectErr.Code())
	assert.Equal(t, "server error", connectErr.Message())
	assert.NotEmpty(t, clog.GetAttributes(ctx)[clog.StackAttributeKey])
}

func TestExtractConnectError_Canceled(t *testing.T) {
	err := ExtractConnectError(context.Background(), fmt.Errorf("read: %w", context.Canceled))
	assert.Equal(t, connect.CodeCanceled, connect.CodeOf(err))
}

func TestWrapStorageReadError(t *testing.T) {
	assert.True(t, IsCode(WrapStorageReadError("sermon", storage.ErrNotFound), NotFound))
	assert.True(t, IsCode(WrapStorageReadError("sermon", errors.New("io")), Internal))
	assert.True(t, IsCode(WrapStorageWriteError("sermon", storage.ErrNotFound), Internal))
}

func TestJSONResponseChiMiddleware(t *testing.T) {
	h := NewJSONResponseChiMiddleware()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fail") != "" {
			SetNewJSONError(r.Context(), InvalidArgument, "bad role", nil)
			return
		}
		SetJSONResponse(r.Context(), map[string]string{"role": "translator"})
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"role":"translator"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?fail=1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"code":"invalid_argument","message":"bad role"}`, rec.Body.String())
}
