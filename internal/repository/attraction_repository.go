// Package repository contains data access logic separated from HTTP handlers.
// This file defines the in-memory attraction registry.  Records live in an
// ordered slice owned by AttractionRepo; nothing is persisted and every
// restart begins again from the seed data.
package repository

import (
	"context" // context keeps the method set in line with the other repositories
	"errors"  // errors is used to define the not-found sentinel
	"sync"    // sync guards the slice against concurrent handlers

	"github.com/iliyamo/attraction-registry/internal/model"
)

// ErrAttractionNotFound is returned when no record has the requested id.
var ErrAttractionNotFound = errors.New("attraction not found")

// AttractionRepo is the registry: an ordered, mutex-guarded sequence of
// attractions.  Reads return copies so callers never share memory with the
// registry.
type AttractionRepo struct {
	mu    sync.Mutex
	items []model.Attraction
}

// NewAttractionRepo constructs a registry holding a copy of seed.
func NewAttractionRepo(seed []model.Attraction) *AttractionRepo {
	return &AttractionRepo{items: cloneAll(seed)}
}

// NewSeededAttractionRepo constructs a registry holding the five seed records.
func NewSeededAttractionRepo() *AttractionRepo {
	return NewAttractionRepo(SeedAttractions())
}

// Reset replaces the current contents with the seed records.
func (r *AttractionRepo) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = SeedAttractions()
}

// ListAll returns a snapshot of every record in insertion order.
func (r *AttractionRepo) ListAll(ctx context.Context) []model.Attraction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneAll(r.items)
}

// GetByID returns the first record whose id matches.  It returns
// ErrAttractionNotFound if there is none.
func (r *AttractionRepo) GetByID(ctx context.Context, id int) (*model.Attraction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return nil, ErrAttractionNotFound
	}
	a := r.items[i].Clone()
	return &a, nil
}

// Create appends a new record built from p.  The id is the number of records
// before the insert plus one, so after a delete it can repeat an id that is
// still in use.
func (r *AttractionRepo) Create(ctx context.Context, p model.Payload) model.Attraction {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := model.NewAttraction(len(r.items)+1, p)
	r.items = append(r.items, a)
	return a.Clone()
}

// Update merges p over the first record with the given id and returns the
// result.  The stored id is never changed.
func (r *AttractionRepo) Update(ctx context.Context, id int, p model.Payload) (*model.Attraction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return nil, ErrAttractionNotFound
	}
	p.Apply(&r.items[i])
	a := r.items[i].Clone()
	return &a, nil
}

// Delete removes the first record with the given id and returns it as it was
// before removal.
func (r *AttractionRepo) Delete(ctx context.Context, id int) (*model.Attraction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return nil, ErrAttractionNotFound
	}
	a := r.items[i]
	r.items = append(r.items[:i], r.items[i+1:]...)
	return &a, nil
}

// indexOf returns the position of the first record with id, or -1.  The
// caller must hold r.mu.
func (r *AttractionRepo) indexOf(id int) int {
	for i := range r.items {
		if r.items[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneAll(items []model.Attraction) []model.Attraction {
	out := make([]model.Attraction, 0, len(items))
	for _, a := range items {
		out = append(out, a.Clone())
	}
	return out
}
