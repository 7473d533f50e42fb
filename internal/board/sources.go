package board

import (
	"context"

	"github.com/kazz187/serviceboard/internal/apiv1"
)

// TaskStore is the remote persistence API for workflow task state.
type TaskStore interface {
	GetWorkflowTasks(ctx context.Context, date string) (map[string]apiv1.TaskInstanceSnapshot, error)
	UpdateTaskStatus(ctx context.Context, req *apiv1.UpdateTaskStatusRequest) error
	DeleteWorkflowTask(ctx context.Context, date, taskID, deletedBy string) error
}

type LyricsSource interface {
	GetLyricsByDate(ctx context.Context, date string) ([]apiv1.Lyric, error)
}

type MusicLinkSource interface {
	GetMusicLinks(ctx context.Context, date string) ([]apiv1.MusicLink, error)
}

// SermonSource returns nil without error when no sermon exists for the date.
type SermonSource interface {
	GetSermonByDate(ctx context.Context, date string) (*apiv1.Sermon, error)
}

// Sources bundles the collaborators a Board reads from. Only Tasks is
// required; nil collaborators contribute no data.
type Sources struct {
	Tasks      TaskStore
	Lyrics     LyricsSource
	MusicLinks MusicLinkSource
	Sermons    SermonSource
}
