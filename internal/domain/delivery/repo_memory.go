package delivery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepo is a thread-safe in-memory DeliveryRepository, used in tests
// and for running the receiver without a database.
type InMemoryRepo struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*Delivery
	order []uuid.UUID
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{items: make(map[uuid.UUID]*Delivery)}
}

func (r *InMemoryRepo) Create(_ context.Context, d *Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	cp := *d
	r.items[d.ID] = &cp
	r.order = append(r.order, d.ID)
	return nil
}

func (r *InMemoryRepo) GetByID(_ context.Context, id uuid.UUID) (*Delivery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("delivery %s not found", id)
	}
	cp := *d
	return &cp, nil
}

func (r *InMemoryRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string, errText *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.items[id]
	if !ok {
		return fmt.Errorf("delivery %s not found", id)
	}
	d.Status = status
	d.Error = errText
	now := time.Now().UTC()
	d.ProcessedAt = &now
	return nil
}

func (r *InMemoryRepo) List(_ context.Context, status string, limit, offset int) ([]*Delivery, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var filtered []*Delivery
	// Newest first.
	for i := len(r.order) - 1; i >= 0; i-- {
		d := r.items[r.order[i]]
		if status == "" || d.Status == status {
			cp := *d
			filtered = append(filtered, &cp)
		}
	}
	total := len(filtered)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return filtered[offset:end], total, nil
}
