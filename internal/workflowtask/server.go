package workflowtask

import (
	"context"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"time"

	"connectrpc.com/connect"

	"github.com/kazz187/serviceboard/internal/apiv1"
	"github.com/kazz187/serviceboard/internal/catalog"
	"github.com/kazz187/serviceboard/internal/eventbus"
	"github.com/kazz187/serviceboard/pkg/cerr"
	"github.com/kazz187/serviceboard/pkg/telemetry"
)

type Server struct {
	repo     Repository
	catalog  *catalog.Catalog
	eventBus *eventbus.Bus
	now      func() time.Time

	// mu serialises read-modify-write cycles on a date document.
	mu sync.Mutex
}

func NewServer(repo Repository, cat *catalog.Catalog, eventBus *eventbus.Bus) *Server {
	return &Server{
		repo:     repo,
		catalog:  cat,
		eventBus: eventBus,
		now:      time.Now,
	}
}

func (s *Server) GetWorkflowTasks(ctx context.Context, req *connect.Request[apiv1.GetWorkflowTasksRequest]) (*connect.Response[apiv1.GetWorkflowTasksResponse], error) {
	if err := apiv1.ValidateDate(req.Msg.Date); err != nil {
		return nil, cerr.NewError(cerr.InvalidArgument, err.Error(), nil)
	}
	dt, err := s.load(ctx, req.Msg.Date)
	if err != nil {
		return nil, err
	}
	tasks := make(map[string]apiv1.TaskInstanceSnapshot, len(dt.Tasks))
	for id, r := range dt.Tasks {
		tasks[id] = toAPI(r)
	}
	return connect.NewResponse(&apiv1.GetWorkflowTasksResponse{Tasks: tasks}), nil
}

// UpdateTaskStatus overwrites the record under every spelling of the task so
// readers of a deprecated id observe the same record. Last write wins.
func (s *Server) UpdateTaskStatus(ctx context.Context, req *connect.Request[apiv1.UpdateTaskStatusRequest]) (*connect.Response[apiv1.UpdateTaskStatusResponse], error) {
	msg := req.Msg
	if err := apiv1.ValidateDate(msg.Date); err != nil {
		return nil, cerr.NewError(cerr.InvalidArgument, err.Error(), nil)
	}
	canonical, ok := s.catalog.Canonical(msg.TaskID)
	if !ok {
		return nil, cerr.NewError(cerr.InvalidArgument, "unknown task: "+msg.TaskID, nil)
	}
	status, ok := apiv1.NormalizeStatus(msg.Status)
	if !ok {
		return nil, cerr.NewError(cerr.InvalidArgument, "invalid status: "+msg.Status, nil)
	}

	rec := &Record{
		Status:       status,
		DocumentLink: msg.DocumentLink,
		AssignedTo:   normalizeRole(msg.AssignedTo),
		Payload:      msg.Payload,
		UpdatedAt:    s.now().UTC(),
		UpdatedBy:    normalizeRole(msg.UpdatedBy),
	}

	s.mu.Lock()
	dt, err := s.load(ctx, msg.Date)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	var previous string
	if prev, ok := dt.Tasks[string(canonical)]; ok {
		previous = prev.Status
	}
	for _, spelling := range s.catalog.Spellings(canonical) {
		r := *rec
		r.Payload = maps.Clone(rec.Payload)
		dt.Tasks[spelling] = &r
	}
	err = s.repo.Save(ctx, dt)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	telemetry.ServerTaskWritesTotal.WithLabelValues("update").Inc()

	slog.InfoContext(ctx, "workflow task updated",
		"date", msg.Date,
		"task_id", canonical,
		"status", status,
		"updated_by", rec.UpdatedBy,
	)
	if previous != status {
		s.eventBus.PublishNew(eventbus.EventTaskStatusChanged, msg.Date, string(canonical), status, rec.UpdatedBy)
	}

	return connect.NewResponse(&apiv1.UpdateTaskStatusResponse{Task: toAPI(rec)}), nil
}

// DeleteWorkflowTask removes every spelling of the task. Deleting a task
// that has no record is NotFound.
func (s *Server) DeleteWorkflowTask(ctx context.Context, req *connect.Request[apiv1.DeleteWorkflowTaskRequest]) (*connect.Response[apiv1.DeleteWorkflowTaskResponse], error) {
	msg := req.Msg
	if err := apiv1.ValidateDate(msg.Date); err != nil {
		return nil, cerr.NewError(cerr.InvalidArgument, err.Error(), nil)
	}
	canonical, ok := s.catalog.Canonical(msg.TaskID)
	if !ok {
		return nil, cerr.NewError(cerr.InvalidArgument, "unknown task: "+msg.TaskID, nil)
	}

	s.mu.Lock()
	dt, err := s.load(ctx, msg.Date)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	found := false
	for _, spelling := range s.catalog.Spellings(canonical) {
		if _, ok := dt.Tasks[spelling]; ok {
			delete(dt.Tasks, spelling)
			found = true
		}
	}
	if !found {
		s.mu.Unlock()
		return nil, cerr.NewError(cerr.NotFound, "workflow task not found", nil)
	}
	if len(dt.Tasks) == 0 {
		err = s.repo.Delete(ctx, msg.Date)
	} else {
		err = s.repo.Save(ctx, dt)
	}
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	telemetry.ServerTaskWritesTotal.WithLabelValues("delete").Inc()

	deletedBy := normalizeRole(msg.DeletedBy)
	slog.InfoContext(ctx, "workflow task deleted", "date", msg.Date, "task_id", canonical, "deleted_by", deletedBy)
	s.eventBus.PublishNew(eventbus.EventTaskDeleted, msg.Date, string(canonical), "", deletedBy)

	return connect.NewResponse(&apiv1.DeleteWorkflowTaskResponse{}), nil
}

// Completed reports which canonical tasks are completed on date. Used by the
// push dispatcher to decide which tasks became ready.
func (s *Server) Completed(ctx context.Context, date string) (map[catalog.TaskID]bool, error) {
	dt, err := s.load(ctx, date)
	if err != nil {
		return nil, err
	}
	done := make(map[catalog.TaskID]bool)
	for id, r := range dt.Tasks {
		canonical, ok := s.catalog.Canonical(id)
		if ok && r.Status == apiv1.StatusCompleted {
			done[canonical] = true
		}
	}
	return done, nil
}

func (s *Server) load(ctx context.Context, date string) (*DateTasks, error) {
	dt, err := s.repo.Get(ctx, date)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return &DateTasks{Date: date, Tasks: make(map[string]*Record)}, nil
		}
		return nil, err
	}
	return dt, nil
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

func toAPI(r *Record) apiv1.TaskInstanceSnapshot {
	return apiv1.TaskInstanceSnapshot{
		Status:       r.Status,
		DocumentLink: r.DocumentLink,
		AssignedTo:   r.AssignedTo,
		Payload:      r.Payload,
		UpdatedAt:    r.UpdatedAt,
		UpdatedBy:    r.UpdatedBy,
	}
}
