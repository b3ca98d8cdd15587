package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/reelsight/ar-target/pkg/artarget"
)

// Repository implements artarget.Repository using in-memory storage
type Repository struct {
	mu      sync.RWMutex
	targets map[int64]*artarget.Target
	nextID  int64
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		targets: make(map[int64]*artarget.Target),
		nextID:  1,
	}
}

func (r *Repository) Create(ctx context.Context, target *artarget.Target) error {
	if err := validate(target); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// The counter only ever advances, so ids are never reused after delete.
	target.ID = r.nextID
	r.nextID++

	targetCopy := *target
	r.targets[target.ID] = &targetCopy

	return nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*artarget.Target, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	target, exists := r.targets[id]
	if !exists {
		return nil, artarget.ErrTargetNotFound
	}

	// Return a copy to prevent external modifications
	targetCopy := *target
	return &targetCopy, nil
}

func (r *Repository) Update(ctx context.Context, target *artarget.Target) error {
	if err := validate(target); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.targets[target.ID]; !exists {
		return artarget.ErrTargetNotFound
	}

	targetCopy := *target
	r.targets[target.ID] = &targetCopy

	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.targets[id]; !exists {
		return artarget.ErrTargetNotFound
	}

	delete(r.targets, id)
	return nil
}

func (r *Repository) ListActive(ctx context.Context, order artarget.SortOrder) ([]*artarget.Target, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*artarget.Target
	for _, target := range r.targets {
		if target.Active {
			targetCopy := *target
			result = append(result, &targetCopy)
		}
	}

	sortByCreation(result, order)
	return result, nil
}

func (r *Repository) List(ctx context.Context) ([]*artarget.Target, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*artarget.Target
	for _, target := range r.targets {
		targetCopy := *target
		result = append(result, &targetCopy)
	}

	sortByCreation(result, artarget.SortDesc)
	return result, nil
}

func sortByCreation(targets []*artarget.Target, order artarget.SortOrder) {
	sort.Slice(targets, func(i, j int) bool {
		a, b := targets[i], targets[j]
		// Id breaks creation-time ties; ids are assigned in insert order.
		if order == artarget.SortDesc {
			a, b = b, a
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func validate(target *artarget.Target) error {
	if target.Name == "" {
		return fmt.Errorf("%w: name is required", artarget.ErrInvalidTarget)
	}
	if target.ImageKey == "" || target.VideoKey == "" {
		return fmt.Errorf("%w: image and video keys are required", artarget.ErrInvalidTarget)
	}
	return nil
}

var _ artarget.Repository = (*Repository)(nil)
