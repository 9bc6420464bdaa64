package registration

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/crvs/bridge/internal/platform/crvs"
)

// Options carries caller-supplied inputs that are not part of the bundle.
type Options struct {
	// DuplicateCompositionIDs is a precomputed list of duplicate
	// registrations' composition ids, passed through onto the primary event
	// after resolution to local event ids. This service never computes
	// duplicates itself.
	DuplicateCompositionIDs []string
}

// Service runs the registration pipeline for one notification:
// extract, resolve, assemble, persist, reindex.
type Service struct {
	repo    Repository
	store   IdentityStore
	reindex Reindexer
	asm     *Assembler
	logger  zerolog.Logger
}

// NewService creates the registration service. reindex may be nil when no
// search backend is configured.
func NewService(repo Repository, store IdentityStore, reindex Reindexer, logger zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		store:   store,
		reindex: reindex,
		asm:     NewAssembler(),
		logger:  logger,
	}
}

// Process transforms and persists one birth-registration notification.
func (s *Service) Process(ctx context.Context, n *crvs.Notification) (*WriteSet, error) {
	return s.ProcessWithOptions(ctx, n, Options{})
}

// ProcessWithOptions is Process with caller-supplied options. The pipeline
// is all-or-nothing: any failure before commit leaves the registry untouched.
func (s *Service) ProcessWithOptions(ctx context.Context, n *crvs.Notification, opts Options) (*WriteSet, error) {
	ex, err := Extract(n)
	if err != nil {
		return nil, err
	}

	resolved, err := NewResolver(s.store).Resolve(ctx, ex, opts.DuplicateCompositionIDs)
	if err != nil {
		return nil, err
	}

	ws, err := s.asm.Assemble(ex, resolved)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SaveWriteSet(ctx, ws); err != nil {
		return nil, fmt.Errorf("save write-set: %w", err)
	}

	s.logger.Info().
		Str("crvs_event_uuid", ws.EventPayload.CRVSEventUUID).
		Str("person_id", ws.PersonPayload.ID.String()).
		Int("new_persons", len(ws.NewPersons)).
		Msg("birth registration persisted")

	if s.reindex != nil {
		if err := s.reindex.Reindex(ctx); err != nil {
			s.logger.Warn().Err(err).
				Str("crvs_event_uuid", ws.EventPayload.CRVSEventUUID).
				Msg("search reindex failed")
		}
	}

	return ws, nil
}

// ProcessRaw decodes and processes a stored notification payload. Used by
// delivery replay.
func (s *Service) ProcessRaw(ctx context.Context, payload []byte) error {
	var n crvs.Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return fmt.Errorf("decode notification: %w", err)
	}
	_, err := s.Process(ctx, &n)
	return err
}
