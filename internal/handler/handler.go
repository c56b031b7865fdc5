// Package handler provides HTTP request handlers for the REST API.
package handler

import "github.com/yigityildirimoglu/jenkins-demo/internal/model"

// Fixed response messages.
const (
	RootMessage             = "Jenkins Demo API is changed!"
	HealthMessage           = "All systems operational"
	ItemNotFoundMessage     = "Item not found"
	NotFoundMessage         = "Not Found"
	MethodNotAllowedMessage = "Method Not Allowed"
	InternalErrorMessage    = "Internal Server Error"
	StoreUnavailable        = "store unavailable"
)

// EventPublisher receives item change events after successful mutations.
// Publish must not block the caller.
type EventPublisher interface {
	Publish(event model.ItemEvent)
}
