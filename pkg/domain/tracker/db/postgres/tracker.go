package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	pgerrcode "github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	kpool "github.com/strataml/strata/pkg/conn/db/postgres/pool"
	"github.com/strataml/strata/pkg/domain"
	kpgerr "github.com/strataml/strata/pkg/domain/errors/dberrors/postgres"
	trackdb "github.com/strataml/strata/pkg/domain/tracker/db"
)

type trackerPG struct { // implements tracker/db.Interface
	// connection pool for PostgreSQL
	pool kpool.Pool
}

func New(pool kpool.Pool) trackdb.Interface {
	return &trackerPG{pool: pool}
}

const recordColumns = `"entity_id", "entity_type", "tier", "version", "size_bytes", "created_at", "last_access_at", "updated_at"`

func scanRecord(row pgx.Row) (domain.PlacementRecord, error) {
	r := domain.PlacementRecord{}
	var entityType, tier string
	err := row.Scan(
		&r.EntityID, &entityType, &tier, &r.Version, &r.SizeBytes,
		&r.CreatedAt, &r.LastAccessAt, &r.UpdatedAt,
	)
	if err != nil {
		return domain.PlacementRecord{}, err
	}
	r.EntityType = domain.EntityType(entityType)
	r.Tier = domain.Tier(tier)
	return r, nil
}

func (t *trackerPG) Get(ctx context.Context, entityID string) (domain.PlacementRecord, error) {
	conn, err := t.pool.Acquire(ctx)
	if err != nil {
		return domain.PlacementRecord{}, err
	}
	defer conn.Release()

	rec, err := scanRecord(conn.QueryRow(
		ctx,
		`select `+recordColumns+` from "placement" where "entity_id" = $1`,
		entityID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PlacementRecord{}, kpgerr.Missing{Table: "placement", Identity: entityID}
	}
	return rec, err
}

func (t *trackerPG) Create(ctx context.Context, n trackdb.NewRecord) (domain.PlacementRecord, error) {
	conn, err := t.pool.Acquire(ctx)
	if err != nil {
		return domain.PlacementRecord{}, err
	}
	defer conn.Release()

	rec, err := scanRecord(conn.QueryRow(
		ctx,
		`
		insert into "placement"
			("entity_id", "entity_type", "tier", "version", "size_bytes", "created_at", "last_access_at", "updated_at")
		values
			($1, $2, $3, 1, $4, now(), now(), now())
		returning `+recordColumns,
		n.EntityID, n.EntityType.String(), n.Tier.String(), n.SizeBytes,
	))
	if err != nil {
		if pgerr := new(pgconn.PgError); errors.As(err, &pgerr) && pgerr.Code == pgerrcode.UniqueViolation {
			return domain.PlacementRecord{}, kpgerr.Duplication{Table: "placement", Identity: n.EntityID}
		}
		return domain.PlacementRecord{}, err
	}
	return rec, nil
}

// casUpdate runs a version-guarded update in a transaction, and when the
// guard does not hit, queries the current row to tell Missing from
// StaleVersion apart.
func (t *trackerPG) casUpdate(
	ctx context.Context, entityID string, expectedVersion int64,
	update string, args ...interface{},
) (domain.PlacementRecord, error) {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return domain.PlacementRecord{}, err
	}
	defer tx.Rollback(ctx)

	rec, err := scanRecord(tx.QueryRow(ctx, update, args...))
	if err == nil {
		return rec, tx.Commit(ctx)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.PlacementRecord{}, err
	}

	err = tx.QueryRow(
		ctx, `select "version" from "placement" where "entity_id" = $1`, entityID,
	).Scan(new(int64))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PlacementRecord{}, kpgerr.Missing{Table: "placement", Identity: entityID}
	}
	if err != nil {
		return domain.PlacementRecord{}, err
	}
	return domain.PlacementRecord{}, kpgerr.StaleVersion{
		Table: "placement", Identity: entityID, Expected: expectedVersion,
	}
}

func (t *trackerPG) CompareAndSwapTier(
	ctx context.Context, entityID string, expectedVersion int64, newTier domain.Tier,
) (domain.PlacementRecord, error) {
	return t.casUpdate(
		ctx, entityID, expectedVersion,
		`
		update "placement"
		set "tier" = $3, "version" = "version" + 1, "updated_at" = now()
		where "entity_id" = $1 and "version" = $2
		returning `+recordColumns,
		entityID, expectedVersion, newTier.String(),
	)
}

func (t *trackerPG) RecordWrite(
	ctx context.Context, entityID string, expectedVersion int64, sizeBytes int64,
) (domain.PlacementRecord, error) {
	return t.casUpdate(
		ctx, entityID, expectedVersion,
		`
		update "placement"
		set "tier" = 'hot', "size_bytes" = $3, "version" = "version" + 1,
			"last_access_at" = now(), "updated_at" = now()
		where "entity_id" = $1 and "version" = $2
		returning `+recordColumns,
		entityID, expectedVersion, sizeBytes,
	)
}

func (t *trackerPG) Touch(ctx context.Context, entityID string, at time.Time) error {
	conn, err := t.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(
		ctx,
		`
		update "placement"
		set "last_access_at" = greatest("last_access_at", $2)
		where "entity_id" = $1
		`,
		entityID, at,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kpgerr.Missing{Table: "placement", Identity: entityID}
	}
	return nil
}

func (t *trackerPG) Delete(ctx context.Context, entityID string, expectedVersion int64) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(
		ctx,
		`delete from "placement" where "entity_id" = $1 and "version" = $2`,
		entityID, expectedVersion,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 0 {
		return tx.Commit(ctx)
	}

	err = tx.QueryRow(
		ctx, `select "version" from "placement" where "entity_id" = $1`, entityID,
	).Scan(new(int64))
	if errors.Is(err, pgx.ErrNoRows) {
		return kpgerr.Missing{Table: "placement", Identity: entityID}
	}
	if err != nil {
		return err
	}
	return kpgerr.StaleVersion{Table: "placement", Identity: entityID, Expected: expectedVersion}
}

func (t *trackerPG) ScanPage(ctx context.Context, afterEntityID string, limit int) ([]domain.PlacementRecord, error) {
	conn, err := t.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select `+recordColumns+` from "placement"
		where "entity_id" > $1
		order by "entity_id"
		limit $2
		`,
		afterEntityID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (t *trackerPG) ListByTier(ctx context.Context, tier domain.Tier) ([]domain.PlacementRecord, error) {
	conn, err := t.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select `+recordColumns+` from "placement"
		where "tier" = $1
		order by "last_access_at" asc, "entity_id" asc
		`,
		tier.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]domain.PlacementRecord, error) {
	recs := []domain.PlacementRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

func (t *trackerPG) Occupancy(ctx context.Context) (map[domain.Tier]domain.TierOccupancy, error) {
	conn, err := t.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select "tier", count(*), coalesce(sum("size_bytes"), 0)
		from "placement"
		group by "tier"
		`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	occ := map[domain.Tier]domain.TierOccupancy{}
	for _, tier := range domain.Tiers() {
		occ[tier] = domain.TierOccupancy{}
	}
	for rows.Next() {
		var tier string
		var o domain.TierOccupancy
		if err := rows.Scan(&tier, &o.Count, &o.Bytes); err != nil {
			return nil, err
		}
		occ[domain.Tier(tier)] = o
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return occ, nil
}
