// Package client talks to the serviceboard server over connect and
// implements the board's persistence and collaborator interfaces.
package client

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/kazz187/serviceboard/internal/apiv1"
	"github.com/kazz187/serviceboard/internal/board"
	"github.com/kazz187/serviceboard/pkg/cerr"
	"github.com/kazz187/serviceboard/pkg/jsoncodec"
	"github.com/kazz187/serviceboard/pkg/retry"
)

var (
	_ board.TaskStore       = (*Client)(nil)
	_ board.LyricsSource    = (*Client)(nil)
	_ board.MusicLinkSource = (*Client)(nil)
	_ board.SermonSource    = (*Client)(nil)
)

type Config struct {
	ServerURL     string
	APIKey        string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	HTTPClient    connect.HTTPClient
}

type Client struct {
	timeout time.Duration
	retry   retry.Config

	getWorkflowTasks   *connect.Client[apiv1.GetWorkflowTasksRequest, apiv1.GetWorkflowTasksResponse]
	updateTaskStatus   *connect.Client[apiv1.UpdateTaskStatusRequest, apiv1.UpdateTaskStatusResponse]
	deleteWorkflowTask *connect.Client[apiv1.DeleteWorkflowTaskRequest, apiv1.DeleteWorkflowTaskResponse]
	getLyricsByDate    *connect.Client[apiv1.GetLyricsByDateRequest, apiv1.GetLyricsByDateResponse]
	upsertLyric        *connect.Client[apiv1.UpsertLyricRequest, apiv1.UpsertLyricResponse]
	getMusicLinks      *connect.Client[apiv1.GetMusicLinksRequest, apiv1.GetMusicLinksResponse]
	setMusicLinks      *connect.Client[apiv1.SetMusicLinksRequest, apiv1.SetMusicLinksResponse]
	getSermonByDate    *connect.Client[apiv1.GetSermonByDateRequest, apiv1.GetSermonByDateResponse]
	upsertSermon       *connect.Client[apiv1.UpsertSermonRequest, apiv1.UpsertSermonResponse]
}

func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL := strings.TrimSuffix(cfg.ServerURL, "/")
	opts := []connect.ClientOption{
		jsoncodec.Option(),
		connect.WithInterceptors(newAuthInterceptor(cfg.APIKey)),
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}

	return &Client{
		timeout: cfg.Timeout,
		retry: retry.Config{
			MaxAttempts: cfg.RetryAttempts,
			BaseDelay:   delay,
			Retryable:   retryable,
			OnRetry: func(attempt int, err error) {
				slog.Debug("retrying request", "attempt", attempt, "error", err)
			},
		},
		getWorkflowTasks:   connect.NewClient[apiv1.GetWorkflowTasksRequest, apiv1.GetWorkflowTasksResponse](httpClient, baseURL+apiv1.WorkflowServiceGetWorkflowTasksProcedure, opts...),
		updateTaskStatus:   connect.NewClient[apiv1.UpdateTaskStatusRequest, apiv1.UpdateTaskStatusResponse](httpClient, baseURL+apiv1.WorkflowServiceUpdateTaskStatusProcedure, opts...),
		deleteWorkflowTask: connect.NewClient[apiv1.DeleteWorkflowTaskRequest, apiv1.DeleteWorkflowTaskResponse](httpClient, baseURL+apiv1.WorkflowServiceDeleteWorkflowTaskProcedure, opts...),
		getLyricsByDate:    connect.NewClient[apiv1.GetLyricsByDateRequest, apiv1.GetLyricsByDateResponse](httpClient, baseURL+apiv1.LyricsServiceGetLyricsByDateProcedure, opts...),
		upsertLyric:        connect.NewClient[apiv1.UpsertLyricRequest, apiv1.UpsertLyricResponse](httpClient, baseURL+apiv1.LyricsServiceUpsertLyricProcedure, opts...),
		getMusicLinks:      connect.NewClient[apiv1.GetMusicLinksRequest, apiv1.GetMusicLinksResponse](httpClient, baseURL+apiv1.MusicLinkServiceGetMusicLinksProcedure, opts...),
		setMusicLinks:      connect.NewClient[apiv1.SetMusicLinksRequest, apiv1.SetMusicLinksResponse](httpClient, baseURL+apiv1.MusicLinkServiceSetMusicLinksProcedure, opts...),
		getSermonByDate:    connect.NewClient[apiv1.GetSermonByDateRequest, apiv1.GetSermonByDateResponse](httpClient, baseURL+apiv1.SermonServiceGetSermonByDateProcedure, opts...),
		upsertSermon:       connect.NewClient[apiv1.UpsertSermonRequest, apiv1.UpsertSermonResponse](httpClient, baseURL+apiv1.SermonServiceUpsertSermonProcedure, opts...),
	}
}

// retryable limits retries to transport-level failures.
func retryable(err error) bool {
	switch connect.CodeOf(err) {
	case connect.CodeUnavailable, connect.CodeDeadlineExceeded:
		return true
	}
	return false
}

// call runs one unary RPC with the per-attempt timeout and retry policy and
// converts failures into cerr errors.
func call[Req, Res any](ctx context.Context, c *Client, rpc *connect.Client[Req, Res], req *Req) (*Res, error) {
	var res *connect.Response[Res]
	err := retry.Do(ctx, c.retry, func(ctx context.Context) error {
		if c.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
		var err error
		res, err = rpc.CallUnary(ctx, connect.NewRequest(req))
		return err
	})
	if err != nil {
		return nil, cerr.FromConnectError(err)
	}
	return res.Msg, nil
}

// authInterceptor adds the API key to outgoing requests.
type authInterceptor struct {
	apiKey string
}

func newAuthInterceptor(apiKey string) *authInterceptor {
	return &authInterceptor{apiKey: apiKey}
}

func (i *authInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if i.apiKey != "" {
			req.Header().Set("Authorization", "Bearer "+i.apiKey)
		}
		return next(ctx, req)
	}
}

func (i *authInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return func(ctx context.Context, spec connect.Spec) connect.StreamingClientConn {
		conn := next(ctx, spec)
		if i.apiKey != "" {
			conn.RequestHeader().Set("Authorization", "Bearer "+i.apiKey)
		}
		return conn
	}
}

func (i *authInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return next
}
