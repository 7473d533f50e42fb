package board

import (
	"maps"
	"time"

	"github.com/kazz187/serviceboard/internal/apiv1"
	"github.com/kazz187/serviceboard/internal/catalog"
	"github.com/kazz187/serviceboard/internal/rolegate"
)

// TaskInstance is the state of one canonical task for one service date.
type TaskInstance struct {
	Status       Status         `yaml:"status"`
	DocumentLink string         `yaml:"document_link,omitempty"`
	AssignedTo   catalog.RoleID `yaml:"assigned_to,omitempty"`
	Payload      map[string]any `yaml:"payload,omitempty"`
	UpdatedAt    time.Time      `yaml:"updated_at"`
	UpdatedBy    catalog.RoleID `yaml:"updated_by,omitempty"`
	// Derived is set when the completion comes from collaborator evidence.
	Derived bool `yaml:"derived,omitempty"`
}

func (in TaskInstance) clone() TaskInstance {
	in.Payload = maps.Clone(in.Payload)
	return in
}

func instanceFromWire(w apiv1.TaskInstanceSnapshot) TaskInstance {
	return TaskInstance{
		Status:       ParseStatus(w.Status),
		DocumentLink: w.DocumentLink,
		AssignedTo:   rolegate.Normalize(w.AssignedTo),
		Payload:      maps.Clone(w.Payload),
		UpdatedAt:    w.UpdatedAt,
		UpdatedBy:    rolegate.Normalize(w.UpdatedBy),
	}
}

func (in TaskInstance) toUpdateRequest(date string, id catalog.TaskID) *apiv1.UpdateTaskStatusRequest {
	return &apiv1.UpdateTaskStatusRequest{
		Date:         date,
		TaskID:       string(id),
		Status:       string(in.Status),
		DocumentLink: in.DocumentLink,
		AssignedTo:   string(in.AssignedTo),
		Payload:      maps.Clone(in.Payload),
		UpdatedBy:    string(in.UpdatedBy),
	}
}
