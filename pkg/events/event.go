package events

import "time"

// Event defines the contract for all workflow events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "WORKFLOW_UPLOADED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

const (
	TypeStatusRefreshed = "WORKFLOW_STATUS_REFRESHED"
	TypeUploaded        = "WORKFLOW_UPLOADED"
	TypeTrained         = "WORKFLOW_TRAINED"
	TypePredicted       = "WORKFLOW_PREDICTED"
	TypeDataDeleted     = "WORKFLOW_DATA_DELETED"
	TypeStateReasserted = "WORKFLOW_STATE_REASSERTED"
	TypeReset           = "WORKFLOW_RESET"
	TypeIntentFailed    = "WORKFLOW_INTENT_FAILED"
)

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
