package pushnotification

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/kazz187/serviceboard/internal/apiv1"
	"github.com/kazz187/serviceboard/internal/catalog"
	"github.com/kazz187/serviceboard/internal/eventbus"
)

// CompletionSource reports the completed canonical tasks of a date.
type CompletionSource interface {
	Completed(ctx context.Context, date string) (map[catalog.TaskID]bool, error)
}

type Notifier interface {
	SendToRoles(ctx context.Context, roles []catalog.RoleID, payload *NotificationPayload)
}

// Dispatcher tells the roles owning newly unblocked tasks that it is their
// turn.
type Dispatcher struct {
	eventBus  *eventbus.Bus
	catalog   *catalog.Catalog
	completed CompletionSource
	notifier  Notifier
}

func NewDispatcher(eventBus *eventbus.Bus, cat *catalog.Catalog, completed CompletionSource, notifier Notifier) *Dispatcher {
	return &Dispatcher{
		eventBus:  eventBus,
		catalog:   cat,
		completed: completed,
		notifier:  notifier,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	subID, ch := d.eventBus.Subscribe(256)
	defer d.eventBus.Unsubscribe(subID)

	slog.Info("push notification dispatcher started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("push notification dispatcher stopped")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if event.Type == eventbus.EventTaskStatusChanged && event.Status == apiv1.StatusCompleted {
				d.handleTaskCompleted(ctx, event)
			}
		}
	}
}

func (d *Dispatcher) handleTaskCompleted(ctx context.Context, event *eventbus.Event) {
	taskID := catalog.TaskID(event.TaskID)
	finished, ok := d.catalog.Task(event.TaskID)
	if !ok {
		return
	}

	done, err := d.completed.Completed(ctx, event.Date)
	if err != nil {
		slog.Error("push dispatcher: failed to load completed tasks", "date", event.Date, "error", err)
		return
	}
	isDone := func(id catalog.TaskID) bool { return done[id] }

	byRole := make(map[catalog.RoleID][]string)
	for _, dep := range d.catalog.Dependents(taskID) {
		if done[dep] || !d.catalog.Ready(dep, isDone) {
			continue
		}
		def, _ := d.catalog.Task(string(dep))
		role := def.OwnerRole
		if def.RestrictedToRole != "" {
			role = def.RestrictedToRole
		}
		byRole[role] = append(byRole[role], def.DisplayName)
	}

	roles := make([]catalog.RoleID, 0, len(byRole))
	for role := range byRole {
		roles = append(roles, role)
	}
	slices.Sort(roles)

	for _, role := range roles {
		for _, name := range byRole[role] {
			d.notifier.SendToRoles(ctx, []catalog.RoleID{role}, &NotificationPayload{
				Title: "Ready: " + name,
				Body:  fmt.Sprintf("%s: %s was completed", event.Date, finished.DisplayName),
				URL:   "/?date=" + event.Date,
				Tag:   event.Date + "/" + event.TaskID,
			})
		}
	}
}
