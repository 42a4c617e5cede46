// Package selection persists the user's single selected reservation
// slot on the injected key-value store.
package selection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storehours/internal/cache"
	"storehours/internal/model"
)

const storageKey = "selected_slot"

// ErrNoSelection is returned when no slot has been selected.
var ErrNoSelection = errors.New("no slot selected")

// Service stores at most one active SelectedSlot.
type Service struct {
	store cache.Store
}

// NewService creates a selection service on the given store.
func NewService(store cache.Store) *Service {
	return &Service{store: store}
}

// Save replaces the current selection.
func (s *Service) Save(ctx context.Context, sel model.SelectedSlot) error {
	if sel.Month < 1 || sel.Month > 12 || sel.Day < 1 || sel.Day > 31 {
		return fmt.Errorf("invalid date %d-%d", sel.Month, sel.Day)
	}
	if sel.CreatedAt.IsZero() {
		sel.CreatedAt = time.Now()
	}
	data, err := json.Marshal(sel)
	if err != nil {
		return fmt.Errorf("marshal selection: %w", err)
	}
	return s.store.Set(ctx, storageKey, data)
}

// Load returns the current selection, or ErrNoSelection.
func (s *Service) Load(ctx context.Context) (*model.SelectedSlot, error) {
	data, err := s.store.Get(ctx, storageKey)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, ErrNoSelection
	}
	if err != nil {
		return nil, err
	}
	var sel model.SelectedSlot
	if err := json.Unmarshal(data, &sel); err != nil {
		return nil, fmt.Errorf("unmarshal selection: %w", err)
	}
	return &sel, nil
}

// Clear removes the selection.
func (s *Service) Clear(ctx context.Context) error {
	return s.store.Delete(ctx, storageKey)
}
