package domain

// domain package contains the Domain Models and Interfaces for the Strata application.
//
// `domain/strata` package exposes the root object for the Strata application.
// Entrypoints of applications should instantiate the Strata object and use it to interact with the domain.
//
// `domain/ENTITY.go` has high-level entities (Domain Model types) and functions.
// For example, `domain/placement.go` contains the `PlacementRecord` entity.
//
// `domain/ENTITY` directory contains the "physical" representation of the domain entities,
// the RDB or the tier backing stores (Redis, object storage).
// For example, `domain/tracker/db/postgres` contains the database expression of the
// placement record described in `domain/placement.go`.
//
// `domain/ENTITY/interface.go` (or the package root file) exposes the client interface
// to handle the domain entity.
//
// # Entities
//
// Core entities in the domain are:
//
// - `placement`: one record per managed entity, stating which tier holds its payload.
// The record's version counter is the concurrency token: every tier change is a
// compare-and-swap on it, so two processes moving the same entity cannot both win.
//
// - `tracker`: the authoritative store of placement records (PostgreSQL).
//
// - `backend`: uniform adapters over the three backing stores (hot: Redis,
// warm: PostgreSQL, cold: object storage). Backends store payload bytes keyed by
// entity id and know nothing about placement records.
//
// - `policy`: pure decision rules. Given a record, its type's lifecycle policy and
// a clock, policy says which tier the entity should be in. It never touches storage.
//
// - `executor`: moves payloads between tiers with the stage/commit/finalize protocol.
// All tier transitions, on-demand and swept alike, go through it.
//
// - `gateway`: the read/write surface. Reads from cold or warm promote the entity
// back to hot before serving, writes always land hot.
//
// - `sweeps`: persisted summaries of sweep cycles run by `cmd/loops`.
// Implementation of the sweeps is in `cmd/loops/tasks/` directory.
//
// - `loop`: constants naming the recurring sweeps.
//
// - `metrics`: in-process counters and latency sketches reported on the metrics API.
//
