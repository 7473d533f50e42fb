package eventbus

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type EventType string

const (
	EventTaskStatusChanged EventType = "task_status_changed"
	EventTaskDeleted       EventType = "task_deleted"
)

// Event describes a persisted change to a workflow task.
type Event struct {
	ID        string
	Type      EventType
	Date      string
	TaskID    string
	Status    string
	ActorRole string
	CreatedAt time.Time
}

type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan *Event
}

func New() *Bus {
	return &Bus{
		subscribers: make(map[string]chan *Event),
	}
}

func (b *Bus) Subscribe(bufSize int) (string, <-chan *Event) {
	id := ulid.Make().String()
	ch := make(chan *Event, bufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// buffer full, drop event for this subscriber
		}
	}
}

func (b *Bus) PublishNew(eventType EventType, date, taskID, status, actorRole string) {
	b.Publish(&Event{
		ID:        ulid.Make().String(),
		Type:      eventType,
		Date:      date,
		TaskID:    taskID,
		Status:    status,
		ActorRole: actorRole,
		CreatedAt: time.Now(),
	})
}
