package registration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG creates the Postgres write-set repository. The returned value
// also implements IdentityStore: persons are matched on their stored crvs
// identifier, events on crvs_event_uuid.
func NewRepoPG(pool *pgxpool.Pool) *repoPG {
	return &repoPG{pool: pool}
}

// SaveWriteSet applies the whole batch inside one transaction, in
// foreign-key order, with insert-if-absent semantics per id. A redelivered
// registration is detected by its crvs_event_uuid and skipped wholesale, so
// already-assigned ids never change.
func (r *repoPG) SaveWriteSet(ctx context.Context, ws *WriteSet) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var existing uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT id FROM event WHERE crvs_event_uuid = $1 AND source = $2`,
		ws.EventPayload.CRVSEventUUID, sourceCRVS,
	).Scan(&existing)
	if err == nil {
		// Redelivery of an already-applied registration.
		return tx.Commit(ctx)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check existing event: %w", err)
	}

	for i := range ws.NewPersons {
		if err := insertPerson(ctx, tx, &ws.NewPersons[i]); err != nil {
			return err
		}
	}
	for i := range ws.NewEvents {
		if err := insertEvent(ctx, tx, &ws.NewEvents[i]); err != nil {
			return err
		}
	}
	for i := range ws.NewParticipants {
		if err := insertParticipant(ctx, tx, &ws.NewParticipants[i]); err != nil {
			return err
		}
	}
	if err := insertPerson(ctx, tx, &ws.PersonPayload); err != nil {
		return err
	}
	if err := insertEvent(ctx, tx, &ws.EventPayload); err != nil {
		return err
	}
	for i := range ws.ParticipantPayloads {
		if err := insertParticipant(ctx, tx, &ws.ParticipantPayloads[i]); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func insertPerson(ctx context.Context, tx pgx.Tx, p *PersonRecord) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO person (id, given_name, family_name, gender, dob, place_of_birth, identifiers, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO NOTHING`,
		p.ID, p.GivenName, p.FamilyName, p.Gender, p.DOB, p.PlaceOfBirth, p.Identifiers, p.Status, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert person %s: %w", p.ID, err)
	}
	return nil
}

func insertEvent(ctx context.Context, tx pgx.Tx, e *EventRecord) error {
	var duplicates any
	if e.Duplicates != nil {
		b, err := json.Marshal(e.Duplicates)
		if err != nil {
			return fmt.Errorf("encode duplicates for event %s: %w", e.ID, err)
		}
		duplicates = string(b)
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO event (id, event_type, event_date, location, source, metadata, crvs_event_uuid, duplicates, status, last_update_at, remarks, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO NOTHING`,
		e.ID, e.EventType, e.EventDate, e.Location, e.Source, e.Metadata, e.CRVSEventUUID, duplicates, e.Status, e.LastUpdateAt, e.Remarks, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", e.ID, err)
	}
	return nil
}

func insertParticipant(ctx context.Context, tx pgx.Tx, p *ParticipantRecord) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO event_participant (id, person_id, event_id, role, relationship_details, crvs_person_id, status, remarks, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO NOTHING`,
		p.ID, p.PersonID, p.EventID, p.Role, p.RelationshipDetails, p.CRVSPersonID, p.Status, p.Remarks, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert participant %s: %w", p.ID, err)
	}
	return nil
}

// LookupPersonID matches a person on the crvs identifier stored in the
// identifiers JSON sequence.
func (r *repoPG) LookupPersonID(ctx context.Context, externalID string) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM person
		 WHERE identifiers @> jsonb_build_array(jsonb_build_object('type', 'crvs', 'value', $1::text))
		 ORDER BY created_at LIMIT 1`,
		externalID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("lookup person by external id: %w", err)
	}
	return id, true, nil
}

// LookupEventID matches an event on its upstream registration uuid.
func (r *repoPG) LookupEventID(ctx context.Context, crvsEventUUID string) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM event WHERE crvs_event_uuid = $1 ORDER BY created_at LIMIT 1`,
		crvsEventUUID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("lookup event by crvs uuid: %w", err)
	}
	return id, true, nil
}
