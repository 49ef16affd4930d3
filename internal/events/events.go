package events

import (
	"time"

	"github.com/google/uuid"
)

// Event names for subscriptions.
const (
	SessionStartedName     = "funnel.session_started"
	LeadCapturedName       = "funnel.lead_captured"
	LeadDispatchFailedName = "funnel.lead_dispatch_failed"
)

// SessionStarted fires when a visitor leaves the welcome screen.
type SessionStarted struct {
	BaseEvent
	SessionID uuid.UUID `json:"sessionId"`
}

// EventName returns the event identifier.
func (e SessionStarted) EventName() string { return SessionStartedName }

// LeadCaptured fires when the lead capture step completes. It carries a
// frozen snapshot of everything the dispatch gateway needs so the
// subscriber never re-reads mutable session state.
type LeadCaptured struct {
	BaseEvent
	SessionID  uuid.UUID         `json:"sessionId"`
	Name       string            `json:"name"`
	Email      string            `json:"email"`
	Phone      string            `json:"phone"`
	Path       string            `json:"userPath"`
	Plan       string            `json:"recommendedPlan"`
	Responses  map[string]string `json:"questionnaireResponses"`
	CapturedAt time.Time         `json:"capturedAt"`
}

// EventName returns the event identifier.
func (e LeadCaptured) EventName() string { return LeadCapturedName }

// LeadDispatchFailed fires after a webhook transport failure; the send
// guard has already been reset so a later user action may retry.
type LeadDispatchFailed struct {
	BaseEvent
	SessionID uuid.UUID `json:"sessionId"`
	Reason    string    `json:"reason"`
}

// EventName returns the event identifier.
func (e LeadDispatchFailed) EventName() string { return LeadDispatchFailedName }
