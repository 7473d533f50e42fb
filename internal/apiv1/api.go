// Package apiv1 holds the request and response types exchanged between the
// board client and the server. Bodies travel as JSON through connect.
package apiv1

import "time"

const (
	WorkflowServiceName  = "serviceboard.v1.WorkflowService"
	LyricsServiceName    = "serviceboard.v1.LyricsService"
	MusicLinkServiceName = "serviceboard.v1.MusicLinkService"
	SermonServiceName    = "serviceboard.v1.SermonService"
)

const (
	WorkflowServiceGetWorkflowTasksProcedure   = "/" + WorkflowServiceName + "/GetWorkflowTasks"
	WorkflowServiceUpdateTaskStatusProcedure   = "/" + WorkflowServiceName + "/UpdateTaskStatus"
	WorkflowServiceDeleteWorkflowTaskProcedure = "/" + WorkflowServiceName + "/DeleteWorkflowTask"

	LyricsServiceGetLyricsByDateProcedure = "/" + LyricsServiceName + "/GetLyricsByDate"
	LyricsServiceUpsertLyricProcedure     = "/" + LyricsServiceName + "/UpsertLyric"

	MusicLinkServiceGetMusicLinksProcedure = "/" + MusicLinkServiceName + "/GetMusicLinks"
	MusicLinkServiceSetMusicLinksProcedure = "/" + MusicLinkServiceName + "/SetMusicLinks"

	SermonServiceGetSermonByDateProcedure = "/" + SermonServiceName + "/GetSermonByDate"
	SermonServiceUpsertSermonProcedure    = "/" + SermonServiceName + "/UpsertSermon"
)

// Status values as persisted by the server. Readers also accept "in_progress".
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Translation status values reported by the lyrics and sermon services.
const (
	TranslationDraft     = "draft"
	TranslationCompleted = "completed"
	TranslationApproved  = "approved"
)

type TaskInstanceSnapshot struct {
	Status       string         `json:"status" yaml:"status"`
	DocumentLink string         `json:"documentLink,omitempty" yaml:"document_link,omitempty"`
	AssignedTo   string         `json:"assignedTo,omitempty" yaml:"assigned_to,omitempty"`
	Payload      map[string]any `json:"payload,omitempty" yaml:"payload,omitempty"`
	UpdatedAt    time.Time      `json:"updatedAt" yaml:"updated_at"`
	UpdatedBy    string         `json:"updatedBy,omitempty" yaml:"updated_by,omitempty"`
}

type GetWorkflowTasksRequest struct {
	Date string `json:"date"`
}

type GetWorkflowTasksResponse struct {
	Tasks map[string]TaskInstanceSnapshot `json:"tasks"`
}

type UpdateTaskStatusRequest struct {
	Date         string         `json:"date"`
	TaskID       string         `json:"taskId"`
	Status       string         `json:"status"`
	DocumentLink string         `json:"documentLink,omitempty"`
	AssignedTo   string         `json:"assignedTo,omitempty"`
	Payload      map[string]any `json:"payload,omitempty"`
	UpdatedBy    string         `json:"updatedBy"`
}

type UpdateTaskStatusResponse struct {
	Task TaskInstanceSnapshot `json:"task"`
}

type DeleteWorkflowTaskRequest struct {
	Date      string `json:"date"`
	TaskID    string `json:"taskId"`
	DeletedBy string `json:"deletedBy"`
}

type DeleteWorkflowTaskResponse struct{}

type Translation struct {
	Status    string    `json:"status" yaml:"status"`
	Text      string    `json:"text,omitempty" yaml:"text,omitempty"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updated_at"`
}

type Lyric struct {
	ID          string       `json:"id" yaml:"id"`
	Date        string       `json:"date" yaml:"date"`
	Title       string       `json:"title" yaml:"title"`
	Text        string       `json:"text,omitempty" yaml:"text,omitempty"`
	Translation *Translation `json:"translation,omitempty" yaml:"translation,omitempty"`
}

type GetLyricsByDateRequest struct {
	Date string `json:"date"`
}

type GetLyricsByDateResponse struct {
	Lyrics []Lyric `json:"lyrics"`
}

type UpsertLyricRequest struct {
	Lyric Lyric `json:"lyric"`
}

type UpsertLyricResponse struct {
	Lyric Lyric `json:"lyric"`
}

type MusicLink struct {
	Title string `json:"title" yaml:"title"`
	URL   string `json:"url" yaml:"url"`
}

type GetMusicLinksRequest struct {
	Date string `json:"date"`
}

type GetMusicLinksResponse struct {
	MusicLinks []MusicLink `json:"musicLinks"`
}

type SetMusicLinksRequest struct {
	Date       string      `json:"date"`
	MusicLinks []MusicLink `json:"musicLinks"`
}

type SetMusicLinksResponse struct{}

type Sermon struct {
	Date        string       `json:"date" yaml:"date"`
	Title       string       `json:"title" yaml:"title"`
	Text        string       `json:"text,omitempty" yaml:"text,omitempty"`
	Translation *Translation `json:"translation,omitempty" yaml:"translation,omitempty"`
}

type GetSermonByDateRequest struct {
	Date string `json:"date"`
}

type GetSermonByDateResponse struct {
	Sermon *Sermon `json:"sermon,omitempty"`
}

type UpsertSermonRequest struct {
	Sermon Sermon `json:"sermon"`
}

type UpsertSermonResponse struct {
	Sermon Sermon `json:"sermon"`
}
