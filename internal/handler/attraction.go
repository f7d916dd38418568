// Package handler exposes HTTP handlers for the attraction registry.  Every
// handler is isolated: a failure is returned as an error and rendered by the
// error handler, so one bad request never affects another.
package handler

import (
    "context"
    "errors"
    "log"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/attraction-registry/internal/model"
    "github.com/iliyamo/attraction-registry/internal/queue"
    "github.com/iliyamo/attraction-registry/internal/repository"
    "github.com/iliyamo/attraction-registry/internal/service"
)

// AttractionHandler serves the /attractions routes.
type AttractionHandler struct {
    Repo      *repository.AttractionRepo // Repo is the in-memory registry
    Events    service.EventPublisher     // Events receives a change event after every mutation, in order
    ListDelay time.Duration              // ListDelay is waited out before the list is read
}

// NewAttractionHandler constructs an AttractionHandler and panics if the
// registry is nil.  A nil publisher disables events.
func NewAttractionHandler(repo *repository.AttractionRepo, events service.EventPublisher, listDelay time.Duration) *AttractionHandler {
    if repo == nil {
        panic("nil repository passed to NewAttractionHandler")
    }
    if events == nil {
        events = service.NopPublisher{}
    }
    return &AttractionHandler{Repo: repo, Events: events, ListDelay: listDelay}
}

// deleteResponse is the body of a successful DELETE.
type deleteResponse struct {
    Message string           `json:"message"`
    Data    model.Attraction `json:"data"`
}

// List handles GET /attractions.  The registry is read after the delay, so
// the response reflects mutations that finished while this request waited.
func (h *AttractionHandler) List(c echo.Context) error {
    ctx := c.Request().Context()
    if h.ListDelay > 0 {
        t := time.NewTimer(h.ListDelay)
        defer t.Stop()
        select {
        case <-ctx.Done():
            return ctx.Err()
        case <-t.C:
        }
    }
    return c.JSON(http.StatusOK, h.Repo.ListAll(ctx))
}

// Get handles GET /attractions/:id.
func (h *AttractionHandler) Get(c echo.Context) error {
    id, ok := parseID(c.Param("id"))
    if !ok {
        return errNotFound
    }
    a, err := h.Repo.GetByID(c.Request().Context(), id)
    if err != nil {
        return notFoundOr(err)
    }
    return c.JSON(http.StatusOK, a)
}

// Create handles POST /attractions and answers 201 with the new record.
func (h *AttractionHandler) Create(c echo.Context) error {
    p, err := bindPayload(c)
    if err != nil {
        return err
    }
    a := h.Repo.Create(c.Request().Context(), p)
    h.publish(c.Request().Context(), queue.ActionCreated, a)
    return c.JSON(http.StatusCreated, a)
}

// Update handles PUT /attractions/:id.  Fields missing from the body keep
// their stored values and the id never changes.
func (h *AttractionHandler) Update(c echo.Context) error {
    id, ok := parseID(c.Param("id"))
    if !ok {
        return errNotFound
    }
    p, err := bindPayload(c)
    if err != nil {
        return err
    }
    a, err := h.Repo.Update(c.Request().Context(), id, p)
    if err != nil {
        return notFoundOr(err)
    }
    h.publish(c.Request().Context(), queue.ActionUpdated, *a)
    return c.JSON(http.StatusOK, a)
}

// Delete handles DELETE /attractions/:id and echoes the removed record.
func (h *AttractionHandler) Delete(c echo.Context) error {
    id, ok := parseID(c.Param("id"))
    if !ok {
        return errNotFound
    }
    a, err := h.Repo.Delete(c.Request().Context(), id)
    if err != nil {
        return notFoundOr(err)
    }
    h.publish(c.Request().Context(), queue.ActionDeleted, *a)
    return c.JSON(http.StatusOK, deleteResponse{Message: "Deleted successfully", Data: *a})
}

// publish hands a change event to Events in the order the mutations
// happened.  Events must not block on the broker; the server wires in a
// service.AsyncPublisher for that.  A failure never changes the response.
func (h *AttractionHandler) publish(ctx context.Context, action string, a model.Attraction) {
    ev := queue.NewAttractionChangedEvent(action, a)
    if err := h.Events.Publish(ctx, ev); err != nil {
        log.Printf("attraction %s event %s not published: %v", action, ev.EventID, err)
    }
}

func notFoundOr(err error) error {
    if errors.Is(err, repository.ErrAttractionNotFound) {
        return errNotFound
    }
    return err
}
