package board

import (
	"context"
	"log/slog"
	"time"

	"github.com/kazz187/serviceboard/internal/catalog"
	"github.com/kazz187/serviceboard/internal/rolegate"
	"github.com/kazz187/serviceboard/pkg/cerr"
	"github.com/kazz187/serviceboard/pkg/telemetry"
)

type Action string

const (
	ActionStart    Action = "start"
	ActionSubmit   Action = "submit"
	ActionUploadQR Action = "upload_qr"
	ActionDelete   Action = "delete"
)

const defaultQRUploadDelay = 1500 * time.Millisecond

// Dispatcher runs user actions against the selected date: gate, optimistic
// local write, persistence call, then reconciliation of the touched task.
// Concurrent writes to one task follow last-write-wins.
type Dispatcher struct {
	board   *Board
	qrDelay time.Duration
}

type DispatcherOption func(*Dispatcher)

// WithQRUploadDelay sets the processing pause of the multi-step QR upload.
func WithQRUploadDelay(d time.Duration) DispatcherOption {
	return func(disp *Dispatcher) {
		disp.qrDelay = d
	}
}

func NewDispatcher(b *Board, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		board:   b,
		qrDelay: defaultQRUploadDelay,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start marks the task Active and assigns it to the acting role.
func (d *Dispatcher) Start(ctx context.Context, role any, taskID string) error {
	store, def, actor, err := d.authorize(ActionStart, role, taskID)
	if err != nil {
		return err
	}
	return d.write(ctx, ActionStart, store, def, actor, StatusActive, WithAssignedTo(actor))
}

// Submit marks the task Completed, typically with the produced document.
func (d *Dispatcher) Submit(ctx context.Context, role any, taskID string, opts ...SetOption) error {
	store, def, actor, err := d.authorize(ActionSubmit, role, taskID)
	if err != nil {
		return err
	}
	return d.write(ctx, ActionSubmit, store, def, actor, StatusCompleted, opts...)
}

// UploadQR runs the multi-step QR-code upload. The fast local value turns
// Active at once; the map record only changes once the upload is persisted.
func (d *Dispatcher) UploadQR(ctx context.Context, role any, documentLink string) error {
	qr := d.board.catalog.QRCodeTask
	if qr == "" {
		return newUnknownTask("qr-code")
	}
	store, def, actor, err := d.authorize(ActionUploadQR, role, string(qr))
	if err != nil {
		return err
	}

	store.begin(def.ID)
	store.SetLocalQR(StatusActive)
	timer := time.NewTimer(d.qrDelay)
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
		store.end(def.ID)
		store.markError(def.ID, "upload canceled")
		telemetry.BoardActionsTotal.WithLabelValues(string(ActionUploadQR), "error").Inc()
		return cerr.NewError(cerr.Canceled, "upload canceled", ctx.Err())
	}
	err = d.write(ctx, ActionUploadQR, store, def, actor, StatusCompleted, WithDocumentLink(documentLink))
	store.end(def.ID)
	return err
}

// Delete removes the task record; it reads Pending afterwards.
func (d *Dispatcher) Delete(ctx context.Context, role any, taskID string) error {
	store, def, actor, err := d.authorize(ActionDelete, role, taskID)
	if err != nil {
		return err
	}
	date := store.Date()

	store.begin(def.ID)
	if _, err := store.DeleteTask(string(def.ID)); err != nil {
		store.end(def.ID)
		return err
	}
	err = d.board.sources.Tasks.DeleteWorkflowTask(ctx, date, string(def.ID), string(actor))
	store.end(def.ID)
	if err != nil && !cerr.IsCode(err, cerr.NotFound) {
		return d.fail(ActionDelete, store, def.ID, err)
	}
	d.succeed(ctx, ActionDelete, date, def.ID, actor)
	return nil
}

func (d *Dispatcher) authorize(action Action, role any, taskID string) (*Store, catalog.TaskDefinition, catalog.RoleID, error) {
	store, err := d.board.current()
	if err != nil {
		return nil, catalog.TaskDefinition{}, "", err
	}
	def, ok := d.board.catalog.Task(taskID)
	if !ok {
		telemetry.BoardActionsTotal.WithLabelValues(string(action), "error").Inc()
		return nil, catalog.TaskDefinition{}, "", newUnknownTask(taskID)
	}
	actor := rolegate.Normalize(role)
	if !rolegate.CanAct(actor, def) {
		telemetry.BoardActionsTotal.WithLabelValues(string(action), "denied").Inc()
		slog.Info("task action denied", "date", store.Date(), "task_id", def.ID, "action", action, "role", actor)
		return nil, catalog.TaskDefinition{}, "", newAuthorizationDenied(actor, def)
	}
	return store, def, actor, nil
}

func (d *Dispatcher) write(ctx context.Context, action Action, store *Store, def catalog.TaskDefinition, actor catalog.RoleID, status Status, opts ...SetOption) error {
	date := store.Date()

	store.begin(def.ID)
	in, _, err := store.SetStatus(string(def.ID), status, actor, opts...)
	if err != nil {
		store.end(def.ID)
		return err
	}
	err = d.board.sources.Tasks.UpdateTaskStatus(ctx, in.toUpdateRequest(date, def.ID))
	store.end(def.ID)
	if err != nil {
		return d.fail(action, store, def.ID, err)
	}
	d.succeed(ctx, action, date, def.ID, actor)
	return nil
}

// fail keeps the optimistic value, flags it unreconciled and records the
// message shown next to the task. The next scheduled refresh recovers it.
func (d *Dispatcher) fail(action Action, store *Store, id catalog.TaskID, err error) error {
	err = newPersistenceError(string(action), err)
	store.markError(id, err.Error())
	telemetry.BoardActionsTotal.WithLabelValues(string(action), "error").Inc()
	slog.Warn("task action failed", "date", store.Date(), "task_id", id, "action", action, "error", err)
	return err
}

func (d *Dispatcher) succeed(ctx context.Context, action Action, date string, id catalog.TaskID, actor catalog.RoleID) {
	telemetry.BoardActionsTotal.WithLabelValues(string(action), "ok").Inc()
	slog.Info("task action persisted", "date", date, "task_id", id, "action", action, "role", actor)
	if !d.board.isCurrent(date) {
		telemetry.BoardStaleResponsesTotal.Inc()
		return
	}
	if err := d.board.reconcile(ctx, date, id); err != nil {
		slog.Warn("failed to reconcile after action, waiting for next refresh", "date", date, "task_id", id, "error", err)
	}
}
