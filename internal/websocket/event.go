package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the type of event (created, updated, deleted)
type EventType string

const (
	EventTypeCreated    EventType = "created"
	EventTypeUpdated    EventType = "updated"
	EventTypeDeleted    EventType = "deleted"
	EventTypeReconciled EventType = "reconciled"
	EventTypeLoaded     EventType = "loaded"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeTransaction EntityType = "transaction"
	EntityTypeLead        EntityType = "lead"
	EntityTypeDeal        EntityType = "deal"
	EntityTypeMeeting     EntityType = "meeting"
	EntityTypeProject     EntityType = "project"
	EntityTypeTask        EntityType = "task"
	EntityTypeFinance     EntityType = "finance"
	EntityTypeDashboard   EntityType = "dashboard"
	EntityTypeChat        EntityType = "chat"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "deal.created"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "deal"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Created creates an "{entity}.created" event
func Created(entity EntityType, payload interface{}) Event {
	return NewEvent(EventTypeCreated, entity, payload)
}

// Updated creates an "{entity}.updated" event
func Updated(entity EntityType, payload interface{}) Event {
	return NewEvent(EventTypeUpdated, entity, payload)
}

// Deleted creates an "{entity}.deleted" event
func Deleted(entity EntityType, payload interface{}) Event {
	return NewEvent(EventTypeDeleted, entity, payload)
}

// FinanceReconciled creates a finance.reconciled event
func FinanceReconciled(payload interface{}) Event {
	return NewEvent(EventTypeReconciled, EntityTypeFinance, payload)
}

// DashboardLoaded creates a dashboard.loaded event
func DashboardLoaded(payload interface{}) Event {
	return NewEvent(EventTypeLoaded, EntityTypeDashboard, payload)
}

// ChatMessageCreated creates a chat.created event
func ChatMessageCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeChat, payload)
}
