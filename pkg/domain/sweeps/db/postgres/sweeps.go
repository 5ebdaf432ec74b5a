package postgres

import (
	"context"
	"time"

	kpool "github.com/strataml/strata/pkg/conn/db/postgres/pool"
	"github.com/strataml/strata/pkg/domain"
	sweepdb "github.com/strataml/strata/pkg/domain/sweeps/db"
)

type sweepsPG struct { // implements sweeps/db.Interface
	pool kpool.Pool
}

func New(pool kpool.Pool) sweepdb.Interface {
	return &sweepsPG{pool: pool}
}

func (s *sweepsPG) Save(ctx context.Context, r domain.SweepRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(
		ctx,
		`
		insert into "sweep_record"
			("sweep_name", "started_at", "duration_ms", "scanned", "moved", "failed", "reclaimed")
		values
			($1, $2, $3, $4, $5, $6, $7)
		`,
		r.Name.String(), r.StartedAt, r.Duration.Milliseconds(),
		r.Scanned, r.Moved, r.Failed, r.ReclaimedBytes,
	); err != nil {
		return err
	}

	if _, err := tx.Exec(
		ctx,
		`
		delete from "sweep_record"
		where "sweep_name" = $1 and "id" not in (
			select "id" from "sweep_record"
			where "sweep_name" = $1
			order by "started_at" desc, "id" desc
			limit $2
		)
		`,
		r.Name.String(), sweepdb.KeepPerName,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *sweepsPG) RecentByName(ctx context.Context, limit int) (map[domain.SweepName][]domain.SweepRecord, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select "sweep_name", "started_at", "duration_ms", "scanned", "moved", "failed", "reclaimed"
		from (
			select *, row_number() over (
				partition by "sweep_name"
				order by "started_at" desc, "id" desc
			) as "rank"
			from "sweep_record"
		) as "ranked"
		where "rank" <= $1
		order by "sweep_name", "started_at" desc
		`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := map[domain.SweepName][]domain.SweepRecord{}
	for rows.Next() {
		r := domain.SweepRecord{}
		var name string
		var durationMs int64
		if err := rows.Scan(
			&name, &r.StartedAt, &durationMs,
			&r.Scanned, &r.Moved, &r.Failed, &r.ReclaimedBytes,
		); err != nil {
			return nil, err
		}
		r.Name = domain.SweepName(name)
		r.Duration = time.Duration(durationMs) * time.Millisecond
		found[r.Name] = append(found[r.Name], r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return found, nil
}
