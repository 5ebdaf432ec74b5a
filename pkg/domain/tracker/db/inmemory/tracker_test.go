package inmemory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/strataml/strata/pkg/domain"
	domerr "github.com/strataml/strata/pkg/domain/errors"
	trackdb "github.com/strataml/strata/pkg/domain/tracker/db"
	"github.com/strataml/strata/pkg/domain/tracker/db/inmemory"
	"github.com/strataml/strata/pkg/utils"
	"github.com/strataml/strata/pkg/utils/cmp"
	"github.com/strataml/strata/pkg/utils/try"
)

func TestTracker_Create(t *testing.T) {
	t.Run("when an entity is new, it should stamp version 1 and the clock time", func(t *testing.T) {
		ctx := context.Background()
		now := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
		testee := inmemory.New(inmemory.WithClock(func() time.Time { return now }))

		created := try.To(testee.Create(ctx, trackdb.NewRecord{
			EntityID:   "model-weight-1",
			EntityType: domain.ModelWeight,
			Tier:       domain.TierHot,
			SizeBytes:  2048,
		})).OrFatal(t)

		expected := domain.PlacementRecord{
			EntityID:     "model-weight-1",
			EntityType:   domain.ModelWeight,
			Tier:         domain.TierHot,
			Version:      1,
			SizeBytes:    2048,
			CreatedAt:    now,
			LastAccessAt: now,
			UpdatedAt:    now,
		}
		if !created.Equal(expected) {
			t.Errorf("created record:\n- actual   : %+v\n- expected : %+v", created, expected)
		}

		got := try.To(testee.Get(ctx, "model-weight-1")).OrFatal(t)
		if !got.Equal(expected) {
			t.Errorf("stored record:\n- actual   : %+v\n- expected : %+v", got, expected)
		}
	})

	t.Run("when the entity id is taken, it should error as already exists", func(t *testing.T) {
		ctx := context.Background()
		testee := inmemory.New()

		try.To(testee.Create(ctx, trackdb.NewRecord{
			EntityID: "ctx-1", EntityType: domain.ConversationContext, Tier: domain.TierHot, SizeBytes: 10,
		})).OrFatal(t)

		_, err := testee.Create(ctx, trackdb.NewRecord{
			EntityID: "ctx-1", EntityType: domain.ConversationContext, Tier: domain.TierWarm, SizeBytes: 99,
		})
		if !errors.Is(err, domerr.ErrAlreadyExists) {
			t.Errorf("error is not ErrAlreadyExists: %v", err)
		}

		got := try.To(testee.Get(ctx, "ctx-1")).OrFatal(t)
		if got.Tier != domain.TierHot || got.SizeBytes != 10 {
			t.Errorf("record has been overwritten: %+v", got)
		}
	})
}

func TestTracker_Get(t *testing.T) {
	t.Run("when the entity is not tracked, it should error as missing", func(t *testing.T) {
		ctx := context.Background()
		testee := inmemory.New()

		_, err := testee.Get(ctx, "no-such-entity")
		if !errors.Is(err, domerr.ErrMissing) {
			t.Errorf("error is not ErrMissing: %v", err)
		}
	})
}

func TestTracker_CompareAndSwapTier(t *testing.T) {
	t.Run("when the version matches, it should move the tier and bump the version", func(t *testing.T) {
		ctx := context.Background()
		now := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
		testee := inmemory.New(inmemory.WithClock(func() time.Time { return now }))

		created := try.To(testee.Create(ctx, trackdb.NewRecord{
			EntityID: "artifact-1", EntityType: domain.GeneratedArtifact, Tier: domain.TierHot, SizeBytes: 512,
		})).OrFatal(t)

		now = now.Add(30 * time.Minute)
		updated := try.To(testee.CompareAndSwapTier(ctx, "artifact-1", created.Version, domain.TierWarm)).OrFatal(t)

		if updated.Tier != domain.TierWarm {
			t.Errorf("tier: actual = %s, expected = %s", updated.Tier, domain.TierWarm)
		}
		if updated.Version != created.Version+1 {
			t.Errorf("version: actual = %d, expected = %d", updated.Version, created.Version+1)
		}
		if !updated.UpdatedAt.Equal(now) {
			t.Errorf("UpdatedAt: actual = %s, expected = %s", updated.UpdatedAt, now)
		}
		if !updated.LastAccessAt.Equal(created.LastAccessAt) {
			t.Errorf("LastAccessAt should not move on tier swap: %s", updated.LastAccessAt)
		}
	})

	t.Run("when the version is stale, it should error as version conflict and keep the record", func(t *testing.T) {
		ctx := context.Background()
		testee := inmemory.New()

		created := try.To(testee.Create(ctx, trackdb.NewRecord{
			EntityID: "artifact-2", EntityType: domain.GeneratedArtifact, Tier: domain.TierHot, SizeBytes: 512,
		})).OrFatal(t)

		_, err := testee.CompareAndSwapTier(ctx, "artifact-2", created.Version+41, domain.TierCold)
		if !errors.Is(err, domerr.ErrVersionConflict) {
			t.Errorf("error is not ErrVersionConflict: %v", err)
		}

		got := try.To(testee.Get(ctx, "artifact-2")).OrFatal(t)
		if !got.Equal(created) {
			t.Errorf("record has changed:\n- actual   : %+v\n- expected : %+v", got, created)
		}
	})

	t.Run("when the entity is not tracked, it should error as missing", func(t *testing.T) {
		ctx := context.Background()
		testee := inmemory.New()

		_, err := testee.CompareAndSwapTier(ctx, "ghost", 1, domain.TierWarm)
		if !errors.Is(err, domerr.ErrMissing) {
			t.Errorf("error is not ErrMissing: %v", err)
		}
	})
}

func TestTracker_RecordWrite(t *testing.T) {
	t.Run("when the version matches, it should force hot tier and refresh size and access time", func(t *testing.T) {
		ctx := context.Background()
		now := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
		testee := inmemory.New(inmemory.WithClock(func() time.Time { return now }))

		created := try.To(testee.Create(ctx, trackdb.NewRecord{
			EntityID: "ctx-2", EntityType: domain.ConversationContext, Tier: domain.TierHot, SizeBytes: 100,
		})).OrFatal(t)
		demoted := try.To(testee.CompareAndSwapTier(ctx, "ctx-2", created.Version, domain.TierCold)).OrFatal(t)

		now = now.Add(2 * time.Hour)
		updated := try.To(testee.RecordWrite(ctx, "ctx-2", demoted.Version, 4096)).OrFatal(t)

		if updated.Tier != domain.TierHot {
			t.Errorf("tier: actual = %s, expected = %s", updated.Tier, domain.TierHot)
		}
		if updated.SizeBytes != 4096 {
			t.Errorf("SizeBytes: actual = %d, expected = %d", updated.SizeBytes, 4096)
		}
		if updated.Version != demoted.Version+1 {
			t.Errorf("version: actual = %d, expected = %d", updated.Version, demoted.Version+1)
		}
		if !updated.LastAccessAt.Equal(now) {
			t.Errorf("LastAccessAt: actual = %s, expected = %s", updated.LastAccessAt, now)
		}
	})

	t.Run("when the version is stale, it should error as version conflict", func(t *testing.T) {
		ctx := context.Background()
		testee := inmemory.New()

		created := try.To(testee.Create(ctx, trackdb.NewRecord{
			EntityID: "ctx-3", EntityType: domain.ConversationContext, Tier: domain.TierHot, SizeBytes: 100,
		})).OrFatal(t)

		_, err := testee.RecordWrite(ctx, "ctx-3", created.Version+1, 4096)
		if !errors.Is(err, domerr.ErrVersionConflict) {
			t.Errorf("error is not ErrVersionConflict: %v", err)
		}
	})
}

func TestTracker_Touch(t *testing.T) {
	t.Run("when the new access time is later, it should advance LastAccessAt without a version bump", func(t *testing.T) {
		ctx := context.Background()
		now := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
		testee := inmemory.New(inmemory.WithClock(func() time.Time { return now }))

		created := try.To(testee.Create(ctx, trackdb.NewRecord{
			EntityID: "model-2", EntityType: domain.ModelWeight, Tier: domain.TierWarm, SizeBytes: 1,
		})).OrFatal(t)

		later := now.Add(time.Hour)
		if err := testee.Touch(ctx, "model-2", later); err != nil {
			t.Fatal(err)
		}

		got := try.To(testee.Get(ctx, "model-2")).OrFatal(t)
		if !got.LastAccessAt.Equal(later) {
			t.Errorf("LastAccessAt: actual = %s, expected = %s", got.LastAccessAt, later)
		}
		if got.Version != created.Version {
			t.Errorf("version: actual = %d, expected = %d", got.Version, created.Version)
		}
	})

	t.Run("when the new access time is older, it should keep LastAccessAt", func(t *testing.T) {
		ctx := context.Background()
		now := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
		testee := inmemory.New(inmemory.WithClock(func() time.Time { return now }))

		try.To(testee.Create(ctx, trackdb.NewRecord{
			EntityID: "model-3", EntityType: domain.ModelWeight, Tier: domain.TierWarm, SizeBytes: 1,
		})).OrFatal(t)

		if err := testee.Touch(ctx, "model-3", now.Add(-time.Hour)); err != nil {
			t.Fatal(err)
		}

		got := try.To(testee.Get(ctx, "model-3")).OrFatal(t)
		if !got.LastAccessAt.Equal(now) {
			t.Errorf("LastAccessAt has regressed: actual = %s, expected = %s", got.LastAccessAt, now)
		}
	})

	t.Run("when the entity is not tracked, it should error as missing", func(t *testing.T) {
		ctx := context.Background()
		testee := inmemory.New()

		err := testee.Touch(ctx, "ghost", time.Now())
		if !errors.Is(err, domerr.ErrMissing) {
			t.Errorf("error is not ErrMissing: %v", err)
		}
	})
}

func TestTracker_Delete(t *testing.T) {
	t.Run("when the version matches, it should drop the record", func(t *testing.T) {
		ctx := context.Background()
		testee := inmemory.New()

		created := try.To(testee.Create(ctx, trackdb.NewRecord{
			EntityID: "artifact-3", EntityType: domain.GeneratedArtifact, Tier: domain.TierHot, SizeBytes: 7,
		})).OrFatal(t)

		if err := testee.Delete(ctx, "artifact-3", created.Version); err != nil {
			t.Fatal(err)
		}

		_, err := testee.Get(ctx, "artifact-3")
		if !errors.Is(err, domerr.ErrMissing) {
			t.Errorf("error is not ErrMissing: %v", err)
		}
	})

	t.Run("when the version is stale, it should error as version conflict and keep the record", func(t *testing.T) {
		ctx := context.Background()
		testee := inmemory.New()

		created := try.To(testee.Create(ctx, trackdb.NewRecord{
			EntityID: "artifact-4", EntityType: domain.GeneratedArtifact, Tier: domain.TierHot, SizeBytes: 7,
		})).OrFatal(t)

		err := testee.Delete(ctx, "artifact-4", created.Version+1)
		if !errors.Is(err, domerr.ErrVersionConflict) {
			t.Errorf("error is not ErrVersionConflict: %v", err)
		}

		if _, err := testee.Get(ctx, "artifact-4"); err != nil {
			t.Errorf("record has been dropped: %v", err)
		}
	})

	t.Run("when the entity is not tracked, it should error as missing", func(t *testing.T) {
		ctx := context.Background()
		testee := inmemory.New()

		err := testee.Delete(ctx, "ghost", 1)
		if !errors.Is(err, domerr.ErrMissing) {
			t.Errorf("error is not ErrMissing: %v", err)
		}
	})
}

func TestTracker_ScanPage(t *testing.T) {
	ctx := context.Background()
	testee := inmemory.New()
	for _, id := range []string{"entity-c", "entity-a", "entity-e", "entity-b", "entity-d"} {
		try.To(testee.Create(ctx, trackdb.NewRecord{
			EntityID: id, EntityType: domain.GeneratedArtifact, Tier: domain.TierHot, SizeBytes: 1,
		})).OrFatal(t)
	}

	t.Run("when scanning from the start, it should page in entity id order", func(t *testing.T) {
		page := try.To(testee.ScanPage(ctx, "", 3)).OrFatal(t)
		actual := utils.Map(page, func(r domain.PlacementRecord) string { return r.EntityID })
		expected := []string{"entity-a", "entity-b", "entity-c"}
		if !cmp.SliceEq(actual, expected) {
			t.Errorf("page:\n- actual   : %v\n- expected : %v", actual, expected)
		}
	})

	t.Run("when scanning after a cursor, it should resume exclusively", func(t *testing.T) {
		page := try.To(testee.ScanPage(ctx, "entity-c", 3)).OrFatal(t)
		actual := utils.Map(page, func(r domain.PlacementRecord) string { return r.EntityID })
		expected := []string{"entity-d", "entity-e"}
		if !cmp.SliceEq(actual, expected) {
			t.Errorf("page:\n- actual   : %v\n- expected : %v", actual, expected)
		}
	})

	t.Run("when the cursor passes the last entity, it should come back empty", func(t *testing.T) {
		page := try.To(testee.ScanPage(ctx, "entity-e", 3)).OrFatal(t)
		if len(page) != 0 {
			t.Errorf("page is not empty: %v", page)
		}
	})
}

func TestTracker_ListByTier(t *testing.T) {
	t.Run("it should order by last access, ties broken by entity id", func(t *testing.T) {
		ctx := context.Background()
		now := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
		testee := inmemory.New(inmemory.WithClock(func() time.Time { return now }))

		for _, id := range []string{"hot-b", "hot-a"} {
			try.To(testee.Create(ctx, trackdb.NewRecord{
				EntityID: id, EntityType: domain.ModelWeight, Tier: domain.TierHot, SizeBytes: 1,
			})).OrFatal(t)
		}
		now = now.Add(time.Hour)
		try.To(testee.Create(ctx, trackdb.NewRecord{
			EntityID: "hot-0-younger", EntityType: domain.ModelWeight, Tier: domain.TierHot, SizeBytes: 1,
		})).OrFatal(t)
		try.To(testee.Create(ctx, trackdb.NewRecord{
			EntityID: "warm-1", EntityType: domain.ModelWeight, Tier: domain.TierWarm, SizeBytes: 1,
		})).OrFatal(t)

		listed := try.To(testee.ListByTier(ctx, domain.TierHot)).OrFatal(t)
		actual := utils.Map(listed, func(r domain.PlacementRecord) string { return r.EntityID })
		expected := []string{"hot-a", "hot-b", "hot-0-younger"}
		if !cmp.SliceEq(actual, expected) {
			t.Errorf("order:\n- actual   : %v\n- expected : %v", actual, expected)
		}
	})
}

func TestTracker_Occupancy(t *testing.T) {
	t.Run("it should total counts and bytes per tier, empty tiers included", func(t *testing.T) {
		ctx := context.Background()
		testee := inmemory.New()

		for _, n := range []struct {
			id   string
			tier domain.Tier
			size int64
		}{
			{"a", domain.TierHot, 100},
			{"b", domain.TierHot, 200},
			{"c", domain.TierWarm, 4000},
		} {
			try.To(testee.Create(ctx, trackdb.NewRecord{
				EntityID: n.id, EntityType: domain.GeneratedArtifact, Tier: n.tier, SizeBytes: n.size,
			})).OrFatal(t)
		}

		occ := try.To(testee.Occupancy(ctx)).OrFatal(t)
		expected := map[domain.Tier]domain.TierOccupancy{
			domain.TierHot:  {Count: 2, Bytes: 300},
			domain.TierWarm: {Count: 1, Bytes: 4000},
			domain.TierCold: {Count: 0, Bytes: 0},
		}
		if !cmp.MapEq(occ, expected) {
			t.Errorf("occupancy:\n- actual   : %v\n- expected : %v", occ, expected)
		}
	})
}
