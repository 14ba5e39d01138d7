package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskFollowUpDue is the asynq task type for delayed follow-up reminders
// created by lead follow-ups and automation rule actions.
const TaskFollowUpDue = "crm.followup.due"

type FollowUpDuePayload struct {
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
	Message    string `json:"message"`
}

func NewFollowUpDueTask(payload FollowUpDuePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFollowUpDue, data), nil
}

func ParseFollowUpDuePayload(task *asynq.Task) (FollowUpDuePayload, error) {
	var payload FollowUpDuePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return FollowUpDuePayload{}, err
	}
	return payload, nil
}
