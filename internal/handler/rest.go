package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/yigityildirimoglu/jenkins-demo/internal/middleware"
	"github.com/yigityildirimoglu/jenkins-demo/internal/model"
	"github.com/yigityildirimoglu/jenkins-demo/internal/store"
)

var itemsStored = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "items_stored",
		Help: "Number of items currently held by the item store",
	},
)

// RESTHandler handles REST API requests for items.
type RESTHandler struct {
	store  store.Store
	events EventPublisher
	logger *zap.Logger
}

// NewRESTHandler creates a new RESTHandler instance.
// events may be nil, in which case no item events are published.
func NewRESTHandler(s store.Store, events EventPublisher, logger *zap.Logger) *RESTHandler {
	return &RESTHandler{
		store:  s,
		events: events,
		logger: logger,
	}
}

// RegisterRoutes registers the REST API routes with the router.
func (h *RESTHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.Root).Methods(http.MethodGet)
	h.RegisterProbeRoutes(router)
	router.HandleFunc("/items", h.ListItems).Methods(http.MethodGet)
	router.HandleFunc("/items", h.CreateItem).Methods(http.MethodPost)
	router.HandleFunc("/items/{id}", h.GetItem).Methods(http.MethodGet)
	router.HandleFunc("/items/{id}", h.UpdateItem).Methods(http.MethodPut)
	router.HandleFunc("/items/{id}", h.DeleteItem).Methods(http.MethodDelete)
}

// RegisterProbeRoutes registers the health and readiness routes only.
func (h *RESTHandler) RegisterProbeRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/ready", h.ReadyCheck).Methods(http.MethodGet)
}

// Root handles GET / requests.
func (h *RESTHandler) Root(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, model.HealthResponse{
		Status:  "ok",
		Message: RootMessage,
	})
}

// HealthCheck handles GET /health requests.
func (h *RESTHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, model.HealthResponse{
		Status:  "healthy",
		Message: HealthMessage,
	})
}

// ReadyCheck handles GET /ready requests.
func (h *RESTHandler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.Len(r.Context())
	if err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		h.writeError(w, http.StatusServiceUnavailable, StoreUnavailable)
		return
	}

	h.writeJSON(w, http.StatusOK, model.ReadyResponse{
		Status: "ready",
		Items:  count,
	})
}

// ListItems handles GET /items requests.
func (h *RESTHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.List(r.Context())
	if err != nil {
		h.handleStoreError(w, r, err, "list items")
		return
	}

	h.writeJSON(w, http.StatusOK, items)
}

// GetItem handles GET /items/{id} requests.
func (h *RESTHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeValidationError(w, r, err)
		return
	}

	item, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.handleStoreError(w, r, err, "get item")
		return
	}

	h.writeJSON(w, http.StatusOK, item)
}

// CreateItem handles POST /items requests.
func (h *RESTHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	input, err := decodeItemInput(r)
	if err != nil {
		h.writeValidationError(w, r, err)
		return
	}

	item, err := h.store.Create(ctx, input.ToItem())
	if err != nil {
		h.handleStoreError(w, r, err, "create item")
		return
	}

	h.logger.Info("item created",
		zap.Int("item_id", item.ID),
		zap.String("request_id", middleware.RequestIDFromContext(ctx)),
	)
	h.afterMutation(model.NewItemEvent(model.EventItemCreated, item.ID, item))

	h.writeJSON(w, http.StatusCreated, item)
}

// UpdateItem handles PUT /items/{id} requests.
func (h *RESTHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		h.writeValidationError(w, r, err)
		return
	}

	input, err := decodeItemInput(r)
	if err != nil {
		h.writeValidationError(w, r, err)
		return
	}

	item, err := h.store.Update(ctx, id, input.ToItem())
	if err != nil {
		h.handleStoreError(w, r, err, "update item")
		return
	}

	h.logger.Info("item updated",
		zap.Int("item_id", item.ID),
		zap.String("request_id", middleware.RequestIDFromContext(ctx)),
	)
	h.afterMutation(model.NewItemEvent(model.EventItemUpdated, item.ID, item))

	h.writeJSON(w, http.StatusOK, item)
}

// DeleteItem handles DELETE /items/{id} requests.
func (h *RESTHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		h.writeValidationError(w, r, err)
		return
	}

	if err := h.store.Delete(ctx, id); err != nil {
		h.handleStoreError(w, r, err, "delete item")
		return
	}

	h.logger.Info("item deleted",
		zap.Int("item_id", id),
		zap.String("request_id", middleware.RequestIDFromContext(ctx)),
	)
	h.afterMutation(model.NewItemEvent(model.EventItemDeleted, id, nil))

	h.writeJSON(w, http.StatusOK, model.MessageResponse{
		Message: fmt.Sprintf("Item %d deleted successfully", id),
	})
}

// afterMutation publishes the event and moves the items_stored gauge by
// one per create or delete.
func (h *RESTHandler) afterMutation(event model.ItemEvent) {
	if h.events != nil {
		h.events.Publish(event)
	}

	switch event.Type {
	case model.EventItemCreated:
		itemsStored.Inc()
	case model.EventItemDeleted:
		itemsStored.Dec()
	}
}

// NotFound writes the JSON body for requests that match no route.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, http.StatusNotFound, model.ErrorResponse{Detail: NotFoundMessage})
}

// MethodNotAllowed writes the JSON body for requests whose path matches a
// route registered for other methods.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, http.StatusMethodNotAllowed, model.ErrorResponse{Detail: MethodNotAllowedMessage})
}

// pathID parses the {id} route variable.
func pathID(r *http.Request) (int, error) {
	raw := mux.Vars(r)["id"]

	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.NewValidationError(model.FieldError{
			Loc:  []string{"path", "item_id"},
			Msg:  "Input should be a valid integer, unable to parse string as an integer",
			Type: model.ErrTypeIntParsing,
		})
	}

	return id, nil
}

// decodeItemInput decodes and structurally validates an item payload.
// The body must hold exactly one JSON value. Every failure is returned as
// a *model.ValidationError.
func decodeItemInput(r *http.Request) (*model.ItemInput, error) {
	var input model.ItemInput

	dec := json.NewDecoder(r.Body)
	err := dec.Decode(&input)
	if err == nil && dec.Decode(&struct{}{}) != io.EOF {
		return nil, invalidJSONError()
	}
	if err != nil {
		return nil, decodeError(err)
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	return &input, nil
}

// decodeError converts a JSON decoding error into a validation error.
func decodeError(err error) *model.ValidationError {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return verr
	}
	return invalidJSONError()
}

func invalidJSONError() *model.ValidationError {
	return model.NewValidationError(model.FieldError{
		Loc:  []string{"body"},
		Msg:  "JSON decode error",
		Type: model.ErrTypeJSONInvalid,
	})
}

// handleStoreError handles store errors and writes appropriate HTTP responses.
func (h *RESTHandler) handleStoreError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.writeError(w, http.StatusNotFound, ItemNotFoundMessage)
	default:
		h.logger.Error("store operation failed",
			zap.String("operation", operation),
			zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
			zap.Error(err),
		)
		h.writeError(w, http.StatusInternalServerError, InternalErrorMessage)
	}
}

// writeValidationError writes a 422 response for validation errors.
func (h *RESTHandler) writeValidationError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		h.logger.Error("unexpected request error",
			zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
			zap.Error(err),
		)
		h.writeError(w, http.StatusInternalServerError, InternalErrorMessage)
		return
	}

	h.logger.Warn("validation failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
		zap.Error(verr),
	)
	h.writeJSON(w, http.StatusUnprocessableEntity, model.ValidationErrorResponse{Detail: verr.Details})
}

// writeJSON writes a JSON response with the given status code.
func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes an error response with the given status code and message.
func (h *RESTHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, model.ErrorResponse{Detail: message})
}

// writeJSONResponse is writeJSON for handlers without a RESTHandler.
// Encoding a fixed ErrorResponse cannot fail.
func writeJSONResponse(w http.ResponseWriter, status int, data model.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
