package delivery

import (
	"context"

	"github.com/google/uuid"
)

type DeliveryRepository interface {
	Create(ctx context.Context, d *Delivery) error
	GetByID(ctx context.Context, id uuid.UUID) (*Delivery, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, errText *string) error
	// List returns deliveries newest first, optionally filtered by status.
	List(ctx context.Context, status string, limit, offset int) ([]*Delivery, int, error)
}
