package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered  EventType = "user_registered"
	EventUserApproved    EventType = "user_approved"
	EventCustomerCreated EventType = "customer_created"
	EventKnowledgeAdded  EventType = "knowledge_added"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	ActorID   string    `json:"actor_id,omitempty"`
	SubjectID string    `json:"subject_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, actorID, subjectID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ActorID:   actorID,
		SubjectID: subjectID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Username string `json:"username"`
}

// UserApprovedPayload payload.
type UserApprovedPayload struct {
	Username   string `json:"username"`
	ApprovedBy string `json:"approved_by"`
}

// CustomerCreatedPayload payload. Source is "api" or "assistant".
type CustomerCreatedPayload struct {
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
	Source  string `json:"source"`
}

// KnowledgeAddedPayload payload.
type KnowledgeAddedPayload struct {
	EntityName   string `json:"entity_name"`
	Relation     string `json:"relation"`
	TargetEntity string `json:"target_entity"`
}
