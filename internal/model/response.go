package model

import "time"

// HealthResponse is returned by the liveness endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ReadyResponse is returned by the readiness endpoint.
type ReadyResponse struct {
	Status string `json:"status"`
	Items  int    `json:"items"`
}

// MessageResponse carries a human readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response with a single message.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ValidationErrorResponse is returned for structurally invalid requests.
type ValidationErrorResponse struct {
	Detail []FieldError `json:"detail"`
}

// Item event types.
const (
	EventItemCreated = "item.created"
	EventItemUpdated = "item.updated"
	EventItemDeleted = "item.deleted"
)

// ItemEvent describes a successful mutation of the item store.
// Item is nil for deletions.
type ItemEvent struct {
	Type      string    `json:"type"`
	ItemID    int       `json:"item_id"`
	Item      *Item     `json:"item,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewItemEvent creates an ItemEvent stamped with the current time.
func NewItemEvent(eventType string, id int, item *Item) ItemEvent {
	return ItemEvent{
		Type:      eventType,
		ItemID:    id,
		Item:      item,
		Timestamp: time.Now().UTC(),
	}
}
