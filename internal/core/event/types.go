package event

import (
	"time"

	"github.com/shortfactory/shortfactory/internal/core/workflow"
)

type EventType string

const (
	// Workflow lifecycle
	EventStateChanged EventType = "workflow.state_changed"
)

type Event struct {
	Type      EventType
	Timestamp time.Time
	Payload   any
}

// StateChange is emitted after every successful job persist.
type StateChange struct {
	JobID     string          `json:"id"`
	Status    workflow.Status `json:"status"`
	State     workflow.State  `json:"state"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
