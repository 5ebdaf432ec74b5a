// Package postgres implements the warm tier on PostgreSQL.
//
// Payloads live as bytea rows in the "warm_payload" table, next to the
// placement table in the same database. That keeps the warm tier inside the
// infrastructure the tracker already needs, with no extra moving part.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"

	kpool "github.com/strataml/strata/pkg/conn/db/postgres/pool"
	"github.com/strataml/strata/pkg/domain"
	"github.com/strataml/strata/pkg/domain/backend"
	berr "github.com/strataml/strata/pkg/domain/errors/backenderrors"
)

type storePG struct {
	pool kpool.Pool
}

func New(pool kpool.Pool) backend.Store {
	return &storePG{pool: pool}
}

func (s *storePG) Put(ctx context.Context, entityID string, payload []byte) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return berr.Unavailable{Tier: domain.TierWarm, EntityID: entityID, Cause: err}
	}
	defer conn.Release()

	_, err = conn.Exec(
		ctx,
		`
		insert into "warm_payload" ("entity_id", "payload", "stored_at")
		values ($1, $2, now())
		on conflict ("entity_id") do update
			set "payload" = excluded."payload", "stored_at" = now()
		`,
		entityID, payload,
	)
	if err != nil {
		return berr.Unavailable{Tier: domain.TierWarm, EntityID: entityID, Cause: err}
	}
	return nil
}

func (s *storePG) Get(ctx context.Context, entityID string) ([]byte, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, berr.Unavailable{Tier: domain.TierWarm, EntityID: entityID, Cause: err}
	}
	defer conn.Release()

	var payload []byte
	err = conn.QueryRow(
		ctx,
		`select "payload" from "warm_payload" where "entity_id" = $1`,
		entityID,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, berr.Missing{Tier: domain.TierWarm, EntityID: entityID}
	}
	if err != nil {
		return nil, berr.Unavailable{Tier: domain.TierWarm, EntityID: entityID, Cause: err}
	}
	return payload, nil
}

func (s *storePG) Delete(ctx context.Context, entityID string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return berr.Unavailable{Tier: domain.TierWarm, EntityID: entityID, Cause: err}
	}
	defer conn.Release()

	_, err = conn.Exec(
		ctx, `delete from "warm_payload" where "entity_id" = $1`, entityID,
	)
	if err != nil {
		return berr.Unavailable{Tier: domain.TierWarm, EntityID: entityID, Cause: err}
	}
	return nil
}

func (s *storePG) Exists(ctx context.Context, entityID string) (bool, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return false, berr.Unavailable{Tier: domain.TierWarm, EntityID: entityID, Cause: err}
	}
	defer conn.Release()

	count := 0
	err = conn.QueryRow(
		ctx,
		`select count("entity_id") from "warm_payload" where "entity_id" = $1`,
		entityID,
	).Scan(&count)
	if err != nil {
		return false, berr.Unavailable{Tier: domain.TierWarm, EntityID: entityID, Cause: err}
	}
	return 0 < count, nil
}

func (s *storePG) Entries(ctx context.Context) ([]domain.PayloadEntry, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, berr.Unavailable{Tier: domain.TierWarm, Cause: err}
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`select "entity_id", octet_length("payload"), "stored_at" from "warm_payload"`,
	)
	if err != nil {
		return nil, berr.Unavailable{Tier: domain.TierWarm, Cause: err}
	}
	defer rows.Close()

	entries := []domain.PayloadEntry{}
	for rows.Next() {
		entry := domain.PayloadEntry{}
		if err := rows.Scan(&entry.EntityID, &entry.Size, &entry.StoredAt); err != nil {
			return nil, berr.Unavailable{Tier: domain.TierWarm, Cause: err}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, berr.Unavailable{Tier: domain.TierWarm, Cause: err}
	}
	return entries, nil
}
