// Package queue defines message payloads exchanged over the message broker.
package queue

import (
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/attraction-registry/internal/model"
)

// Actions carried by AttractionChangedEvent.
const (
    ActionCreated = "created"
    ActionUpdated = "updated"
    ActionDeleted = "deleted"
)

// AttractionChangedEvent is published after a successful create, update or
// delete.  Attraction holds the record as returned to the client: the new
// state for created/updated and the removed state for deleted.
type AttractionChangedEvent struct {
    EventID    string           `json:"event_id"`
    Action     string           `json:"action"`
    Attraction model.Attraction `json:"attraction"`
    OccurredAt string           `json:"occurred_at"`
}

// NewAttractionChangedEvent stamps a fresh event id and the current UTC time.
func NewAttractionChangedEvent(action string, a model.Attraction) AttractionChangedEvent {
    return AttractionChangedEvent{
        EventID:    uuid.NewString(),
        Action:     action,
        Attraction: a,
        OccurredAt: time.Now().UTC().Format(time.RFC3339),
    }
}
