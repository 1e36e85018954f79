package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/zatekoja/carematch/internal/domain/entities"
	"github.com/zatekoja/carematch/internal/domain/providers"
	"github.com/zatekoja/carematch/internal/domain/repositories"
	"github.com/zatekoja/carematch/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/carematch/pkg/errors"
)

// MatchRunResult summarizes one matching run.
type MatchRunResult struct {
	MatchesCreated int  `json:"matchesCreated"`
	TotalMatches   int  `json:"totalMatches"`
	HasMore        bool `json:"hasMore"`
}

// MatchingService orchestrates a matching run: resolve requirements, fetch
// candidates, score, persist idempotently, provision channels. Per-candidate
// failures are logged and skipped so one bad candidate cannot abort a batch.
type MatchingService struct {
	resolver   *RequirementsResolver
	candidates *CandidateService
	scorer     *MatchScoringService
	patients   repositories.PatientRepository
	matches    repositories.MatchRepository
	channels   providers.ChannelProvisioner
	eventBus   providers.EventBus
	metrics    *observability.Metrics

	workerCount    int
	channelTimeout time.Duration
	defaultLimit   int
}

// MatchingServiceOption configures optional collaborators.
type MatchingServiceOption func(*MatchingService)

// WithEventBus enables publishing match lifecycle events.
func WithEventBus(bus providers.EventBus) MatchingServiceOption {
	return func(s *MatchingService) { s.eventBus = bus }
}

// WithMetrics enables recording run metrics.
func WithMetrics(m *observability.Metrics) MatchingServiceOption {
	return func(s *MatchingService) { s.metrics = m }
}

// WithWorkerCount bounds persistence/provisioning concurrency.
func WithWorkerCount(n int) MatchingServiceOption {
	return func(s *MatchingService) {
		if n > 0 {
			s.workerCount = n
		}
	}
}

// WithDefaultLimit sets the page size used when the caller passes limit <= 0.
func WithDefaultLimit(n int) MatchingServiceOption {
	return func(s *MatchingService) {
		if n > 0 {
			s.defaultLimit = n
		}
	}
}

// NewMatchingService creates a new matching orchestrator.
func NewMatchingService(
	resolver *RequirementsResolver,
	candidates *CandidateService,
	scorer *MatchScoringService,
	patients repositories.PatientRepository,
	matches repositories.MatchRepository,
	channels providers.ChannelProvisioner,
	opts ...MatchingServiceOption,
) *MatchingService {
	s := &MatchingService{
		resolver:       resolver,
		candidates:     candidates,
		scorer:         scorer,
		patients:       patients,
		matches:        matches,
		channels:       channels,
		workerCount:    8,
		channelTimeout: 10 * time.Second,
		defaultLimit:   50,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunMatching executes one matching run for a patient. The caller must be
// the owning family user; anyone else gets an unauthorized error before any
// work happens.
func (s *MatchingService) RunMatching(ctx context.Context, patientID, callerUserID string, offset, limit int) (*MatchRunResult, error) {
	start := time.Now()
	logger := observability.LoggerFromContext(ctx).With().
		Str("patient_id", patientID).
		Logger()

	if limit <= 0 {
		limit = s.defaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	patient, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if patient.FamilyUserID != callerUserID {
		return nil, apperrors.NewUnauthorizedError("caller does not own this patient record")
	}

	req, err := s.resolver.Resolve(ctx, patientID)
	if err != nil {
		return nil, err
	}

	candidates, pageSize, err := s.candidates.Fetch(ctx, req, offset, limit)
	if err != nil {
		return nil, err
	}

	ranked := s.scorer.Rank(req, candidates)

	var (
		mu      sync.Mutex
		created int
		skipped int
		wg      sync.WaitGroup
		sem     = make(chan struct{}, s.workerCount)
	)

	for _, result := range ranked {
		wg.Add(1)
		sem <- struct{}{}
		go func(result entities.MatchResult) {
			defer wg.Done()
			defer func() { <-sem }()

			if s.processCandidate(ctx, logger, patient, result) {
				mu.Lock()
				created++
				mu.Unlock()
			} else {
				mu.Lock()
				skipped++
				mu.Unlock()
			}
		}(result)
	}
	wg.Wait()

	total, err := s.matches.CountByPatient(ctx, patientID)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to count matches after run")
		total = created
	}

	if s.metrics != nil {
		observability.RecordMatchRun(ctx, s.metrics, created, skipped, time.Since(start))
	}

	logger.Info().
		Int("candidates", len(candidates)).
		Int("created", created).
		Int("skipped", skipped).
		Dur("duration", time.Since(start)).
		Msg("matching run completed")

	return &MatchRunResult{
		MatchesCreated: created,
		TotalMatches:   total,
		HasMore:        pageSize == limit,
	}, nil
}

// processCandidate persists one match and performs its post-commit side
// effects. Returns false when persistence fails; event publication and
// channel provisioning failures never undo the persisted match.
func (s *MatchingService) processCandidate(ctx context.Context, logger zerolog.Logger, patient *entities.Patient, result entities.MatchResult) bool {
	match, err := s.matches.Upsert(ctx, &entities.Match{
		PatientID: patient.ID,
		AgencyID:  result.AgencyID,
		Score:     result.Score,
		Breakdown: result.Breakdown,
		Tags:      result.Tags,
	})
	if err != nil {
		logger.Error().Err(err).
			Str("agency_id", result.AgencyID).
			Msg("failed to persist match, skipping candidate")
		return false
	}

	s.publishMatchEvent(ctx, logger, match)
	s.provisionChannel(ctx, logger, patient, match)

	return true
}

func (s *MatchingService) publishMatchEvent(ctx context.Context, logger zerolog.Logger, match *entities.Match) {
	if s.eventBus == nil {
		return
	}

	event := &entities.MatchEvent{
		ID:        uuid.New().String(),
		Type:      entities.MatchEventCreated,
		PatientID: match.PatientID,
		AgencyID:  match.AgencyID,
		MatchID:   match.ID,
		Score:     match.Score,
		Timestamp: time.Now().UTC(),
	}

	if err := s.eventBus.Publish(ctx, providers.EventChannelMatches, event); err != nil {
		logger.Warn().Err(err).Str("match_id", match.ID).Msg("failed to publish match event")
		return
	}
	if err := s.eventBus.Publish(ctx, providers.GetPatientChannel(match.PatientID), event); err != nil {
		logger.Warn().Err(err).Str("match_id", match.ID).Msg("failed to publish patient match event")
	}
}

// provisionChannel ensures a conversation channel exists for the match. A
// per-candidate timeout keeps one slow external call from stalling the run,
// and failures leave the persisted match intact.
func (s *MatchingService) provisionChannel(ctx context.Context, logger zerolog.Logger, patient *entities.Patient, match *entities.Match) {
	if s.channels == nil {
		return
	}

	chCtx, cancel := context.WithTimeout(ctx, s.channelTimeout)
	defer cancel()

	channelID, err := s.channels.EnsureChannel(chCtx, match.ID, match.AgencyID, patient.FamilyUserID, patient.FullName())
	if err != nil {
		logger.Warn().Err(err).
			Str("match_id", match.ID).
			Str("agency_id", match.AgencyID).
			Msg("channel provisioning failed, match retained")
		return
	}

	if err := s.matches.SetChannelID(ctx, match.ID, channelID); err != nil {
		logger.Warn().Err(err).Str("match_id", match.ID).Msg("failed to store channel id on match")
	}
}

// ListMatches returns a patient's persisted matches ordered by descending
// score, enforcing the same ownership rule as RunMatching.
func (s *MatchingService) ListMatches(ctx context.Context, patientID, callerUserID string) ([]*entities.Match, error) {
	patient, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if patient.FamilyUserID != callerUserID {
		return nil, apperrors.NewUnauthorizedError("caller does not own this patient record")
	}

	return s.matches.ListByPatient(ctx, patientID)
}
