package delivery

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) DeliveryRepository {
	return &repoPG{pool: pool}
}

const deliveryCols = `id, event_type, payload, status, error, received_at, processed_at`

func scanDelivery(row pgx.Row) (*Delivery, error) {
	var d Delivery
	err := row.Scan(&d.ID, &d.EventType, &d.Payload, &d.Status, &d.Error, &d.ReceivedAt, &d.ProcessedAt)
	return &d, err
}

func (r *repoPG) Create(ctx context.Context, d *Delivery) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO webhook_delivery (id, event_type, payload, status, received_at)
		VALUES ($1,$2,$3,$4,$5)`,
		d.ID, d.EventType, string(d.Payload), d.Status, d.ReceivedAt)
	if err != nil {
		return fmt.Errorf("insert delivery %s: %w", d.ID, err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Delivery, error) {
	return scanDelivery(r.pool.QueryRow(ctx,
		`SELECT `+deliveryCols+` FROM webhook_delivery WHERE id = $1`, id))
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string, errText *string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE webhook_delivery SET status = $2, error = $3, processed_at = NOW()
		WHERE id = $1`,
		id, status, errText)
	if err != nil {
		return fmt.Errorf("update delivery %s: %w", id, err)
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, status string, limit, offset int) ([]*Delivery, int, error) {
	where, args := "", []any{}
	if status != "" {
		where = ` WHERE status = $1`
		args = append(args, status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM webhook_delivery`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM webhook_delivery%s ORDER BY received_at DESC LIMIT $%d OFFSET $%d`,
		deliveryCols, where, len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}
