package client

import (
	"context"

	"github.com/kazz187/serviceboard/internal/apiv1"
)

func (c *Client) GetWorkflowTasks(ctx context.Context, date string) (map[string]apiv1.TaskInstanceSnapshot, error) {
	res, err := call(ctx, c, c.getWorkflowTasks, &apiv1.GetWorkflowTasksRequest{Date: date})
	if err != nil {
		return nil, err
	}
	return res.Tasks, nil
}

func (c *Client) UpdateTaskStatus(ctx context.Context, req *apiv1.UpdateTaskStatusRequest) error {
	_, err := call(ctx, c, c.updateTaskStatus, req)
	return err
}

func (c *Client) DeleteWorkflowTask(ctx context.Context, date, taskID, deletedBy string) error {
	_, err := call(ctx, c, c.deleteWorkflowTask, &apiv1.DeleteWorkflowTaskRequest{
		Date:      date,
		TaskID:    taskID,
		DeletedBy: deletedBy,
	})
	return err
}
