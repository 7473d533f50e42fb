package apiv1

func (r *GetWorkflowTasksRequest) LogAttributes() map[string]any {
	return map[string]any{"date": r.Date}
}

func (r *UpdateTaskStatusRequest) LogAttributes() map[string]any {
	return map[string]any{"date": r.Date, "task_id": r.TaskID, "role": r.UpdatedBy, "status": r.Status}
}

func (r *DeleteWorkflowTaskRequest) LogAttributes() map[string]any {
	return map[string]any{"date": r.Date, "task_id": r.TaskID, "role": r.DeletedBy}
}

func (r *GetLyricsByDateRequest) LogAttributes() map[string]any {
	return map[string]any{"date": r.Date}
}

func (r *UpsertLyricRequest) LogAttributes() map[string]any {
	return map[string]any{"date": r.Lyric.Date, "lyric_id": r.Lyric.ID}
}

func (r *GetMusicLinksRequest) LogAttributes() map[string]any {
	return map[string]any{"date": r.Date}
}

func (r *SetMusicLinksRequest) LogAttributes() map[string]any {
	return map[string]any{"date": r.Date, "links": len(r.MusicLinks)}
}

func (r *GetSermonByDateRequest) LogAttributes() map[string]any {
	return map[string]any{"date": r.Date}
}

func (r *UpsertSermonRequest) LogAttributes() map[string]any {
	return map[string]any{"date": r.Sermon.Date}
}
