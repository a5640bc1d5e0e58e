package scheduler

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const TaskQuoteRecalculation = "quotes.recalculate"

type QuoteRecalculationPayload struct {
	QuoteID string `json:"quoteId"`
}

// QuoteRecalculationTaskID is the asynq task id used to collapse duplicate
// recalculation requests for one quote.
func QuoteRecalculationTaskID(quoteID uuid.UUID) string {
	return TaskQuoteRecalculation + ":" + quoteID.String()
}

// QuoteRecalculationRerunTaskID holds the follow-up run queued while the task
// under QuoteRecalculationTaskID is executing.
func QuoteRecalculationRerunTaskID(quoteID uuid.UUID) string {
	return QuoteRecalculationTaskID(quoteID) + ":rerun"
}

func NewQuoteRecalculationTask(payload QuoteRecalculationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskQuoteRecalculation, data), nil
}

func ParseQuoteRecalculationPayload(task *asynq.Task) (QuoteRecalculationPayload, error) {
	var payload QuoteRecalculationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return QuoteRecalculationPayload{}, err
	}
	return payload, nil
}
