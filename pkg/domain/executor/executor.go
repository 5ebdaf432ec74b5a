// Package executor moves entity payloads between tiers.
//
// Every transition runs the same three steps. Stage copies the payload into
// the destination backend. Commit swaps the tracker record's tier with a
// version-guarded update. Finalize deletes the source copy. The tracker is
// the source of truth throughout: until Commit lands, the canonical payload
// is the source copy, and a loss anywhere leaves at worst an orphaned copy
// for the orphan sweep.
//
// Transitions for one entity are serialized by a per-entity gate inside the
// process and by the tracker's version guard across processes. Two racing
// moves settle as one Committed and one Abandoned, never two commits.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/strataml/strata/pkg/domain"
	"github.com/strataml/strata/pkg/domain/backend"
	domerr "github.com/strataml/strata/pkg/domain/errors"
	"github.com/strataml/strata/pkg/domain/metrics"
	trackdb "github.com/strataml/strata/pkg/domain/tracker/db"
	"github.com/strataml/strata/pkg/utils"
	"github.com/strataml/strata/pkg/utils/retry"
)

// Outcome is the terminal state of a transition.
type Outcome string

const (
	// Committed means the tracker now places the entity in the destination
	// tier.
	Committed Outcome = "committed"

	// Abandoned means another transition won the version race and this one
	// changed nothing. Its staged copy, if any, is left for the orphan
	// sweep.
	Abandoned Outcome = "abandoned"
)

// MoveIntent is an in-flight transition, visible while it runs.
type MoveIntent struct {
	MoveID    string
	EntityID  string
	From      domain.Tier
	To        domain.Tier
	Version   int64
	StartedAt time.Time
}

type Result struct {
	Outcome Outcome

	// Record is the placement record after a committed move. Zero when the
	// move was abandoned.
	Record domain.PlacementRecord
}

// Inconsistent is raised when the tracker places an entity in a tier whose
// backend has no payload for it. It is surfaced, never repaired here:
// silently recreating or dropping the record could mask data loss.
type Inconsistent struct {
	EntityID string
	Tier     domain.Tier
}

var _ error = Inconsistent{}

func (i Inconsistent) Error() string {
	return fmt.Sprintf(
		"inconsistent placement: tracker places %s in %s but the backend has no payload",
		i.EntityID, i.Tier,
	)
}

func (i Inconsistent) Unwrap() error {
	return domerr.ErrInconsistent
}

type Interface interface {
	// Move brings the entity to tier to.
	//
	// It blocks while other transitions of the same entity are in flight.
	// Once started, a transition is not cancelled by ctx: cancellation makes
	// Move return ctx.Err() while the transition runs to its terminal state
	// in the background.
	//
	// When the tracker already places the entity in to, Move commits
	// trivially without touching any backend. An entity deleted mid-move
	// resolves to Abandoned. Returned errors unwrap to errors.ErrMissing
	// (no such entity), errors.ErrInconsistent (see Inconsistent) or
	// errors.ErrUnavailable (a backend stayed unreachable through the stage
	// retry budget).
	Move(ctx context.Context, entityID string, to domain.Tier) (Result, error)

	// Remove deletes the entity: its placement record, then its payload in
	// the canonical backend. The record delete is version-guarded and
	// re-read on conflict a bounded number of times, so removes interleaved
	// with transitions settle cleanly. Returned errors unwrap to
	// errors.ErrMissing when the entity is unknown.
	Remove(ctx context.Context, entityID string) error

	// InFlight lists transitions currently between Stage and their terminal
	// state, ordered by entity id.
	InFlight() []MoveIntent
}

const (
	// stage retries: one direct attempt, then up to stageRetryMax backoffs
	// starting at stageRetryInterval and doubling.
	stageRetryInterval = 100 * time.Millisecond
	stageRetryMax      = 4

	// bounded re-reads for version conflicts during Remove.
	removeRetryMax = 3
)

type executorImpl struct {
	tracker trackdb.Interface
	stores  backend.Registry
	meter   *metrics.Registry
	logger  *log.Logger

	gates *gates

	intentMu sync.Mutex
	intents  map[string]MoveIntent
}

type Option func(*executorImpl) *executorImpl

func WithLogger(logger *log.Logger) Option {
	return func(e *executorImpl) *executorImpl {
		e.logger = logger
		return e
	}
}

func New(tracker trackdb.Interface, stores backend.Registry, meter *metrics.Registry, option ...Option) Interface {
	e := &executorImpl{
		tracker: tracker,
		stores:  stores,
		meter:   meter,
		logger:  log.Default(),
		gates:   newGates(),
		intents: map[string]MoveIntent{},
	}
	for _, opt := range option {
		e = opt(e)
	}
	return e
}

func (e *executorImpl) Move(ctx context.Context, entityID string, to domain.Tier) (Result, error) {
	type outcome struct {
		result Result
		err    error
	}
	done := make(chan outcome, 1)

	// The transition itself runs detached from the caller's cancellation;
	// a timed-out caller abandons the wait, not the move.
	dctx := context.WithoutCancel(ctx)
	go func() {
		unlock := e.gates.lock(entityID)
		defer unlock()
		result, err := e.run(dctx, entityID, to)
		done <- outcome{result: result, err: err}
	}()

	select {
	case o := <-done:
		return o.result, o.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (e *executorImpl) run(ctx context.Context, entityID string, to domain.Tier) (Result, error) {
	startedAt := time.Now()

	record, err := e.tracker.Get(ctx, entityID)
	if err != nil {
		return Result{}, err
	}
	if record.Tier == to {
		return Result{Outcome: Committed, Record: record}, nil
	}

	e.noteIntent(MoveIntent{
		MoveID:    uuid.NewString(),
		EntityID:  entityID,
		From:      record.Tier,
		To:        to,
		Version:   record.Version,
		StartedAt: startedAt,
	})
	defer e.dropIntent(entityID)

	src, err := e.stores.For(record.Tier)
	if err != nil {
		return Result{}, err
	}
	dst, err := e.stores.For(to)
	if err != nil {
		return Result{}, err
	}

	// Stage
	payload, err := withStageRetry(ctx, func() ([]byte, error) {
		return src.Get(ctx, entityID)
	})
	if err != nil {
		if errors.Is(err, domerr.ErrMissing) {
			e.meter.ObserveInconsistency()
			inc := Inconsistent{EntityID: entityID, Tier: record.Tier}
			e.logger.Printf("operator alert: %s", inc.Error())
			return Result{}, inc
		}
		return Result{}, err
	}
	if _, err := withStageRetry(ctx, func() (struct{}, error) {
		return struct{}{}, dst.Put(ctx, entityID, payload)
	}); err != nil {
		return Result{}, err
	}

	// Commit
	updated, err := e.tracker.CompareAndSwapTier(ctx, entityID, record.Version, to)
	if err != nil {
		if errors.Is(err, domerr.ErrVersionConflict) || errors.Is(err, domerr.ErrMissing) {
			e.meter.ObserveAbandon()
			return Result{Outcome: Abandoned}, nil
		}
		return Result{}, err
	}

	// Finalize
	if err := src.Delete(ctx, entityID); err != nil {
		e.logger.Printf(
			"finalize: leaving stale %s payload of %s to the orphan sweep: %s",
			record.Tier, entityID, err,
		)
	}

	if to == domain.TierHot {
		e.meter.ObservePromotion(time.Since(startedAt))
	} else {
		e.meter.ObserveDemotion()
	}
	return Result{Outcome: Committed, Record: updated}, nil
}

func (e *executorImpl) Remove(ctx context.Context, entityID string) error {
	unlock := e.gates.lock(entityID)
	defer unlock()

	for attempt := 0; attempt < removeRetryMax; attempt++ {
		record, err := e.tracker.Get(ctx, entityID)
		if err != nil {
			return err
		}

		err = e.tracker.Delete(ctx, entityID, record.Version)
		if errors.Is(err, domerr.ErrVersionConflict) {
			// a cross-process transition slipped in; re-read and try again
			continue
		}
		if err != nil {
			return err
		}

		store, err := e.stores.For(record.Tier)
		if err != nil {
			return nil
		}
		if err := store.Delete(ctx, entityID); err != nil {
			e.logger.Printf(
				"remove: leaving %s payload of %s to the orphan sweep: %s",
				record.Tier, entityID, err,
			)
		}
		return nil
	}
	return fmt.Errorf("removing %s: %w", entityID, domerr.ErrVersionConflict)
}

func (e *executorImpl) InFlight() []MoveIntent {
	e.intentMu.Lock()
	defer e.intentMu.Unlock()

	flying := utils.ValuesOf(e.intents)
	sort.Slice(flying, func(i, j int) bool { return flying[i].EntityID < flying[j].EntityID })
	return flying
}

func (e *executorImpl) noteIntent(intent MoveIntent) {
	e.intentMu.Lock()
	defer e.intentMu.Unlock()
	e.intents[intent.EntityID] = intent
}

func (e *executorImpl) dropIntent(entityID string) {
	e.intentMu.Lock()
	defer e.intentMu.Unlock()
	delete(e.intents, entityID)
}

// withStageRetry calls f once and, while it fails with backend
// unavailability, again under an exponential backoff until the stage retry
// budget is spent. The last unavailability error is returned when it is.
func withStageRetry[T any](ctx context.Context, f func() (T, error)) (T, error) {
	value, err := f()
	if err == nil || !errors.Is(err, domerr.ErrUnavailable) {
		return value, err
	}

	lastErr := err
	value, err = retry.Blocking(
		ctx,
		retry.Limited(retry.ExponentialBackoff(stageRetryInterval, 2), stageRetryMax),
		func() (T, error) {
			value, err := f()
			if err != nil && errors.Is(err, domerr.ErrUnavailable) {
				lastErr = err
				return value, errors.Join(retry.ErrRetry, err)
			}
			return value, err
		},
	)
	if errors.Is(err, retry.ErrRetryLimitExceeded) {
		return value, lastErr
	}
	return value, err
}
