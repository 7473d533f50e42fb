package board

import (
	"strings"

	"github.com/kazz187/serviceboard/internal/apiv1"
)

type Status string

const (
	StatusPending   Status = apiv1.StatusPending
	StatusActive    Status = apiv1.StatusActive
	StatusCompleted Status = apiv1.StatusCompleted
)

// ParseStatus maps persisted status strings onto the three board states.
// Unrecognised values read as Pending.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "completed", "complete", "done":
		return StatusCompleted
	case "active", "in_progress", "in-progress":
		return StatusActive
	default:
		return StatusPending
	}
}

func (s Status) String() string {
	return string(s)
}

// Rank orders statuses along the Pending -> Active -> Completed path.
func (s Status) Rank() int {
	switch s {
	case StatusActive:
		return 1
	case StatusCompleted:
		return 2
	default:
		return 0
	}
}
