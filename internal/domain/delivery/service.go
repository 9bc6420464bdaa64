package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Processor re-runs registration processing on a stored payload.
type Processor interface {
	ProcessRaw(ctx context.Context, payload []byte) error
}

// Service manages the webhook delivery log and replay.
type Service struct {
	repo   DeliveryRepository
	proc   Processor
	logger zerolog.Logger
}

func NewService(repo DeliveryRepository, proc Processor, logger zerolog.Logger) *Service {
	return &Service{repo: repo, proc: proc, logger: logger}
}

// Record stores an inbound delivery in the received state.
func (s *Service) Record(ctx context.Context, eventType string, payload []byte) (uuid.UUID, error) {
	d := &Delivery{
		ID:         uuid.New(),
		EventType:  eventType,
		Payload:    payload,
		Status:     StatusReceived,
		ReceivedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return uuid.Nil, fmt.Errorf("record delivery: %w", err)
	}
	return d.ID, nil
}

func (s *Service) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	return s.repo.UpdateStatus(ctx, id, StatusProcessed, nil)
}

func (s *Service) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return s.repo.UpdateStatus(ctx, id, StatusFailed, &reason)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Delivery, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]*Delivery, int, error) {
	return s.repo.List(ctx, status, limit, offset)
}

// Replay re-processes a stored delivery and updates its status from the
// outcome.
func (s *Service) Replay(ctx context.Context, id uuid.UUID) error {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.proc.ProcessRaw(ctx, d.Payload); err != nil {
		s.logger.Error().Err(err).Str("delivery_id", id.String()).Msg("replay failed")
		if mErr := s.MarkFailed(ctx, id, err.Error()); mErr != nil {
			s.logger.Error().Err(mErr).Str("delivery_id", id.String()).Msg("failed to update delivery status")
		}
		return err
	}

	s.logger.Info().Str("delivery_id", id.String()).Msg("delivery replayed")
	return s.MarkProcessed(ctx, id)
}
