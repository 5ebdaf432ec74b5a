package tiering_test

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/strataml/strata/cmd/loops/tasks/tiering"
	"github.com/strataml/strata/pkg/domain"
	storemock "github.com/strataml/strata/pkg/domain/backend/mock"
	domerr "github.com/strataml/strata/pkg/domain/errors"
	"github.com/strataml/strata/pkg/domain/executor"
	execmock "github.com/strataml/strata/pkg/domain/executor/mock"
	sweepmock "github.com/strataml/strata/pkg/domain/sweeps/db/mock"
	trackmock "github.com/strataml/strata/pkg/domain/tracker/db/mock"
	"github.com/strataml/strata/pkg/utils/cmp"
)

type move struct {
	entityID string
	to       domain.Tier
}

func nullLogger() *log.Logger {
	return log.New(io.Discard, "", log.LstdFlags)
}

// ticking returns a clock handing out moments one by one, repeating the
// last one once the slice runs out.
func ticking(moments ...time.Time) func() time.Time {
	return func() time.Time {
		next := moments[0]
		if 1 < len(moments) {
			moments = moments[1:]
		}
		return next
	}
}

func TestTask(t *testing.T) {

	t.Run("when the tracker yields a full page, it should advance the cursor and wait for the next pass", func(t *testing.T) {
		startedAt := time.Date(2024, 11, 2, 6, 0, 0, 0, time.UTC)

		policies := domain.Policies{
			domain.ModelWeight: {HotIdleTTL: 1 * time.Hour, WarmTTL: 24 * time.Hour},
		}

		mcktrack := trackmock.NewMockTrackerInterface()
		mcktrack.Impl.ScanPage = func(ctx context.Context, afterEntityID string, limit int) ([]domain.PlacementRecord, error) {
			if afterEntityID != "" {
				t.Errorf("afterEntityID = %s, want an empty string", afterEntityID)
			}
			if limit != 2 {
				t.Errorf("limit = %d, want 2", limit)
			}
			return []domain.PlacementRecord{
				{EntityID: "model-1", EntityType: domain.ModelWeight, Tier: domain.TierHot, Version: 1, SizeBytes: 100, LastAccessAt: startedAt},
				{EntityID: "model-2", EntityType: domain.ModelWeight, Tier: domain.TierHot, Version: 4, SizeBytes: 200, LastAccessAt: startedAt},
			}, nil
		}

		mckexec := execmock.NewMockExecutorInterface()
		mckhot := storemock.NewMockStore()
		mcksweep := sweepmock.NewMockSweepsInterface()
		mcksweep.Impl.Save = func(ctx context.Context, r domain.SweepRecord) error {
			t.Errorf("the cycle record should not be saved before the walk wraps")
			return nil
		}

		testee := tiering.Task(
			nullLogger(), mcktrack, mckexec, mckhot, policies, mcksweep,
			2, 1, tiering.WithClock(ticking(startedAt)),
		)

		got, ok, err := testee(context.Background(), tiering.Seed())
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if !ok {
			t.Errorf("ok = %v, want true", ok)
		}
		if got.AfterEntityID != "model-2" {
			t.Errorf("cursor.AfterEntityID = %s, want model-2", got.AfterEntityID)
		}
		if !got.StartedAt.Equal(startedAt) {
			t.Errorf("cursor.StartedAt = %s, want %s", got.StartedAt, startedAt)
		}
		if got.Scanned != 2 || got.Moved != 0 || got.Failed != 0 {
			t.Errorf(
				"cursor counts (scanned, moved, failed) = (%d, %d, %d), want (2, 0, 0)",
				got.Scanned, got.Moved, got.Failed,
			)
		}
	})

	t.Run("when the walk wraps, it should apply the policy verdicts and file the cycle record", func(t *testing.T) {
		startedAt := time.Date(2024, 11, 2, 6, 0, 0, 0, time.UTC)
		finishedAt := startedAt.Add(90 * time.Second)

		policies := domain.Policies{
			domain.ModelWeight:       {HotIdleTTL: 1 * time.Hour, WarmTTL: 24 * time.Hour},
			domain.GeneratedArtifact: {WarmTTL: 24 * time.Hour, ColdRetention: 30 * 24 * time.Hour},
			// no policy for conversation contexts: they are left alone
		}

		mcktrack := trackmock.NewMockTrackerInterface()
		mcktrack.Impl.ScanPage = func(ctx context.Context, afterEntityID string, limit int) ([]domain.PlacementRecord, error) {
			return []domain.PlacementRecord{
				{EntityID: "artifact-1", EntityType: domain.GeneratedArtifact, Tier: domain.TierCold, Version: 3, SizeBytes: 256, LastAccessAt: startedAt.Add(-45 * 24 * time.Hour)},
				{EntityID: "ctx-1", EntityType: domain.ConversationContext, Tier: domain.TierHot, Version: 1, SizeBytes: 64, LastAccessAt: startedAt.Add(-100 * time.Hour)},
				{EntityID: "model-1", EntityType: domain.ModelWeight, Tier: domain.TierHot, Version: 7, SizeBytes: 1024, LastAccessAt: startedAt.Add(-2 * time.Hour)},
				{EntityID: "model-2", EntityType: domain.ModelWeight, Tier: domain.TierWarm, Version: 2, SizeBytes: 512, LastAccessAt: startedAt.Add(-30 * time.Minute)},
			}, nil
		}
		mcktrack.Impl.ListByTier = func(ctx context.Context, tier domain.Tier) ([]domain.PlacementRecord, error) {
			if tier != domain.TierHot {
				t.Errorf("ListByTier tier = %s, want %s", tier, domain.TierHot)
			}
			return []domain.PlacementRecord{}, nil
		}

		moved := []move{}
		removed := []string{}
		mckexec := execmock.NewMockExecutorInterface()
		mckexec.Impl.Move = func(ctx context.Context, entityID string, to domain.Tier) (executor.Result, error) {
			moved = append(moved, move{entityID: entityID, to: to})
			return executor.Result{Outcome: executor.Committed}, nil
		}
		mckexec.Impl.Remove = func(ctx context.Context, entityID string) error {
			removed = append(removed, entityID)
			return nil
		}

		mckhot := storemock.NewMockStore()
		mckhot.Impl.CapacityUsed = func(ctx context.Context) (int64, error) { return 1088, nil }

		saved := []domain.SweepRecord{}
		mcksweep := sweepmock.NewMockSweepsInterface()
		mcksweep.Impl.Save = func(ctx context.Context, r domain.SweepRecord) error {
			saved = append(saved, r)
			return nil
		}

		testee := tiering.Task(
			nullLogger(), mcktrack, mckexec, mckhot, policies, mcksweep,
			5, 1, tiering.WithClock(ticking(startedAt, finishedAt)),
		)

		got, ok, err := testee(context.Background(), tiering.Seed())
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if ok {
			t.Errorf("ok = %v, want false", ok)
		}
		if got != tiering.Seed() {
			t.Errorf("cursor = %+v, want a fresh seed", got)
		}

		if !cmp.SliceContentEq(moved, []move{{entityID: "model-1", to: domain.TierWarm}}) {
			t.Errorf("moved = %+v, want model-1 demoted to warm", moved)
		}
		if !cmp.SliceContentEq(removed, []string{"artifact-1"}) {
			t.Errorf("removed = %+v, want [artifact-1]", removed)
		}

		if len(saved) != 1 {
			t.Fatalf("saved %d cycle records, want 1", len(saved))
		}
		record := saved[0]
		if record.Name != domain.SweepTiering {
			t.Errorf("record.Name = %s, want %s", record.Name, domain.SweepTiering)
		}
		if !record.StartedAt.Equal(startedAt) {
			t.Errorf("record.StartedAt = %s, want %s", record.StartedAt, startedAt)
		}
		if record.Duration != 90*time.Second {
			t.Errorf("record.Duration = %s, want 90s", record.Duration)
		}
		if record.Scanned != 4 || record.Moved != 2 || record.Failed != 0 || record.ReclaimedBytes != 256 {
			t.Errorf(
				"record counts (scanned, moved, failed, reclaimed) = (%d, %d, %d, %d), want (4, 2, 0, 256)",
				record.Scanned, record.Moved, record.Failed, record.ReclaimedBytes,
			)
		}
	})

	t.Run("when a type exceeds its hot budget, the cycle end should demote its least recently used entities", func(t *testing.T) {
		startedAt := time.Date(2024, 11, 2, 6, 0, 0, 0, time.UTC)
		passAt := startedAt.Add(10 * time.Minute)
		finishedAt := startedAt.Add(11 * time.Minute)

		policies := domain.Policies{
			domain.ModelWeight:         {HotIdleTTL: 24 * time.Hour, HotCapacityBytes: 700},
			domain.ConversationContext: {HotIdleTTL: 24 * time.Hour, HotCapacityBytes: 500},
		}

		mcktrack := trackmock.NewMockTrackerInterface()
		mcktrack.Impl.ScanPage = func(ctx context.Context, afterEntityID string, limit int) ([]domain.PlacementRecord, error) {
			if afterEntityID != "model-2" {
				t.Errorf("afterEntityID = %s, want model-2", afterEntityID)
			}
			return []domain.PlacementRecord{
				{EntityID: "model-3", EntityType: domain.ModelWeight, Tier: domain.TierHot, Version: 1, SizeBytes: 300, LastAccessAt: passAt},
			}, nil
		}
		mcktrack.Impl.ListByTier = func(ctx context.Context, tier domain.Tier) ([]domain.PlacementRecord, error) {
			return []domain.PlacementRecord{
				// model weights hold 1200B against a 700B budget
				{EntityID: "model-1", EntityType: domain.ModelWeight, Tier: domain.TierHot, Version: 2, SizeBytes: 600, LastAccessAt: passAt.Add(-3 * time.Hour)},
				{EntityID: "model-2", EntityType: domain.ModelWeight, Tier: domain.TierHot, Version: 5, SizeBytes: 300, LastAccessAt: passAt.Add(-1 * time.Hour)},
				{EntityID: "model-3", EntityType: domain.ModelWeight, Tier: domain.TierHot, Version: 1, SizeBytes: 300, LastAccessAt: passAt.Add(-5 * time.Minute)},
				// the oldest copy of all, but its own type is under budget
				{EntityID: "ctx-1", EntityType: domain.ConversationContext, Tier: domain.TierHot, Version: 9, SizeBytes: 400, LastAccessAt: passAt.Add(-6 * time.Hour)},
			}, nil
		}

		moved := []move{}
		mckexec := execmock.NewMockExecutorInterface()
		mckexec.Impl.Move = func(ctx context.Context, entityID string, to domain.Tier) (executor.Result, error) {
			moved = append(moved, move{entityID: entityID, to: to})
			return executor.Result{Outcome: executor.Committed}, nil
		}

		mckhot := storemock.NewMockStore()
		mckhot.Impl.CapacityUsed = func(ctx context.Context) (int64, error) { return 1600, nil }

		saved := []domain.SweepRecord{}
		mcksweep := sweepmock.NewMockSweepsInterface()
		mcksweep.Impl.Save = func(ctx context.Context, r domain.SweepRecord) error {
			saved = append(saved, r)
			return nil
		}

		testee := tiering.Task(
			nullLogger(), mcktrack, mckexec, mckhot, policies, mcksweep,
			2, 1, tiering.WithClock(ticking(passAt, finishedAt)),
		)

		cursor := domain.SweepCursor{AfterEntityID: "model-2", StartedAt: startedAt, Scanned: 2}
		got, ok, err := testee(context.Background(), cursor)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if ok {
			t.Errorf("ok = %v, want false", ok)
		}
		if got != tiering.Seed() {
			t.Errorf("cursor = %+v, want a fresh seed", got)
		}

		if !cmp.SliceContentEq(moved, []move{{entityID: "model-1", to: domain.TierWarm}}) {
			t.Errorf("moved = %+v, want only model-1 demoted to warm", moved)
		}

		if len(saved) != 1 {
			t.Fatalf("saved %d cycle records, want 1", len(saved))
		}
		record := saved[0]
		if !record.StartedAt.Equal(startedAt) {
			t.Errorf("record.StartedAt = %s, want the start carried by the cursor %s", record.StartedAt, startedAt)
		}
		if record.Duration != 11*time.Minute {
			t.Errorf("record.Duration = %s, want 11m", record.Duration)
		}
		if record.Scanned != 3 || record.Moved != 1 || record.Failed != 0 {
			t.Errorf(
				"record counts (scanned, moved, failed) = (%d, %d, %d), want (3, 1, 0)",
				record.Scanned, record.Moved, record.Failed,
			)
		}
	})

	t.Run("when transitions fail or are abandoned, it should count them and finish the cycle", func(t *testing.T) {
		startedAt := time.Date(2024, 11, 2, 6, 0, 0, 0, time.UTC)

		policies := domain.Policies{
			domain.ModelWeight:       {HotIdleTTL: 1 * time.Hour, WarmTTL: 24 * time.Hour},
			domain.GeneratedArtifact: {WarmTTL: 24 * time.Hour, ColdRetention: 30 * 24 * time.Hour},
		}

		mcktrack := trackmock.NewMockTrackerInterface()
		mcktrack.Impl.ScanPage = func(ctx context.Context, afterEntityID string, limit int) ([]domain.PlacementRecord, error) {
			return []domain.PlacementRecord{
				{EntityID: "artifact-1", EntityType: domain.GeneratedArtifact, Tier: domain.TierCold, Version: 2, SizeBytes: 512, LastAccessAt: startedAt.Add(-45 * 24 * time.Hour)},
				{EntityID: "model-1", EntityType: domain.ModelWeight, Tier: domain.TierHot, Version: 3, SizeBytes: 100, LastAccessAt: startedAt.Add(-2 * time.Hour)},
				{EntityID: "model-2", EntityType: domain.ModelWeight, Tier: domain.TierHot, Version: 8, SizeBytes: 200, LastAccessAt: startedAt.Add(-2 * time.Hour)},
			}, nil
		}
		mcktrack.Impl.ListByTier = func(ctx context.Context, tier domain.Tier) ([]domain.PlacementRecord, error) {
			return []domain.PlacementRecord{}, nil
		}

		mckexec := execmock.NewMockExecutorInterface()
		mckexec.Impl.Move = func(ctx context.Context, entityID string, to domain.Tier) (executor.Result, error) {
			switch entityID {
			case "model-1":
				return executor.Result{}, errors.New("hot backend down")
			case "model-2":
				return executor.Result{Outcome: executor.Abandoned}, nil
			}
			t.Errorf("unexpected move of %s", entityID)
			return executor.Result{}, nil
		}
		mckexec.Impl.Remove = func(ctx context.Context, entityID string) error {
			// deleted by someone else mid-cycle: not a failure
			return domerr.ErrMissing
		}

		mckhot := storemock.NewMockStore()
		mckhot.Impl.CapacityUsed = func(ctx context.Context) (int64, error) { return 300, nil }

		saved := []domain.SweepRecord{}
		mcksweep := sweepmock.NewMockSweepsInterface()
		mcksweep.Impl.Save = func(ctx context.Context, r domain.SweepRecord) error {
			saved = append(saved, r)
			return nil
		}

		testee := tiering.Task(
			nullLogger(), mcktrack, mckexec, mckhot, policies, mcksweep,
			5, 1, tiering.WithClock(ticking(startedAt, startedAt.Add(time.Minute))),
		)

		_, ok, err := testee(context.Background(), tiering.Seed())
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if ok {
			t.Errorf("ok = %v, want false", ok)
		}

		if len(saved) != 1 {
			t.Fatalf("saved %d cycle records, want 1", len(saved))
		}
		record := saved[0]
		if record.Scanned != 3 || record.Moved != 0 || record.Failed != 2 || record.ReclaimedBytes != 0 {
			t.Errorf(
				"record counts (scanned, moved, failed, reclaimed) = (%d, %d, %d, %d), want (3, 0, 2, 0)",
				record.Scanned, record.Moved, record.Failed, record.ReclaimedBytes,
			)
		}
	})

	t.Run("when the tracker can not be scanned, it should fail the task", func(t *testing.T) {
		startedAt := time.Date(2024, 11, 2, 6, 0, 0, 0, time.UTC)
		expectedError := errors.New("fake error")

		mcktrack := trackmock.NewMockTrackerInterface()
		mcktrack.Impl.ScanPage = func(ctx context.Context, afterEntityID string, limit int) ([]domain.PlacementRecord, error) {
			return nil, expectedError
		}

		testee := tiering.Task(
			nullLogger(), mcktrack, execmock.NewMockExecutorInterface(),
			storemock.NewMockStore(), domain.Policies{}, sweepmock.NewMockSweepsInterface(),
			2, 1, tiering.WithClock(ticking(startedAt)),
		)

		got, ok, err := testee(context.Background(), tiering.Seed())
		if !errors.Is(err, expectedError) {
			t.Errorf("err = %v, want %v", err, expectedError)
		}
		if ok {
			t.Errorf("ok = %v, want false", ok)
		}
		if !got.StartedAt.Equal(startedAt) {
			t.Errorf("cursor.StartedAt = %s, want %s", got.StartedAt, startedAt)
		}
	})

	t.Run("when the hot records can not be listed at cycle end, it should fail the task", func(t *testing.T) {
		startedAt := time.Date(2024, 11, 2, 6, 0, 0, 0, time.UTC)
		expectedError := errors.New("fake error")

		mcktrack := trackmock.NewMockTrackerInterface()
		mcktrack.Impl.ScanPage = func(ctx context.Context, afterEntityID string, limit int) ([]domain.PlacementRecord, error) {
			return []domain.PlacementRecord{}, nil
		}
		mcktrack.Impl.ListByTier = func(ctx context.Context, tier domain.Tier) ([]domain.PlacementRecord, error) {
			return nil, expectedError
		}

		testee := tiering.Task(
			nullLogger(), mcktrack, execmock.NewMockExecutorInterface(),
			storemock.NewMockStore(), domain.Policies{}, sweepmock.NewMockSweepsInterface(),
			2, 1, tiering.WithClock(ticking(startedAt)),
		)

		_, ok, err := testee(context.Background(), tiering.Seed())
		if !errors.Is(err, expectedError) {
			t.Errorf("err = %v, want %v", err, expectedError)
		}
		if ok {
			t.Errorf("ok = %v, want false", ok)
		}
	})

	t.Run("when the cycle record can not be saved, the cycle still completes", func(t *testing.T) {
		startedAt := time.Date(2024, 11, 2, 6, 0, 0, 0, time.UTC)

		mcktrack := trackmock.NewMockTrackerInterface()
		mcktrack.Impl.ScanPage = func(ctx context.Context, afterEntityID string, limit int) ([]domain.PlacementRecord, error) {
			return []domain.PlacementRecord{}, nil
		}
		mcktrack.Impl.ListByTier = func(ctx context.Context, tier domain.Tier) ([]domain.PlacementRecord, error) {
			return []domain.PlacementRecord{}, nil
		}

		mckhot := storemock.NewMockStore()
		mckhot.Impl.CapacityUsed = func(ctx context.Context) (int64, error) { return 0, nil }

		saveTried := false
		mcksweep := sweepmock.NewMockSweepsInterface()
		mcksweep.Impl.Save = func(ctx context.Context, r domain.SweepRecord) error {
			saveTried = true
			return errors.New("placement database down")
		}

		testee := tiering.Task(
			nullLogger(), mcktrack, execmock.NewMockExecutorInterface(),
			mckhot, domain.Policies{}, mcksweep,
			2, 1, tiering.WithClock(ticking(startedAt, startedAt.Add(time.Second))),
		)

		got, ok, err := testee(context.Background(), tiering.Seed())
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if ok {
			t.Errorf("ok = %v, want false", ok)
		}
		if got != tiering.Seed() {
			t.Errorf("cursor = %+v, want a fresh seed", got)
		}
		if !saveTried {
			t.Errorf("the cycle record was never offered to the store")
		}
	})
}
