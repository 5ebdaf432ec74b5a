package postgres

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgconn"
	pgerrcode "github.com/jackc/pgerrcode"
	kpool "github.com/strataml/strata/pkg/conn/db/postgres/pool"
	kschema "github.com/strataml/strata/pkg/domain/schema/db"
)

// The schema repository: one directory per version, holding the .sql files
// which bring the schema up from the version before it.
//
//go:embed versions
var repository embed.FS

type pgSchema struct {
	pool kpool.Pool
	repo fs.FS
}

type Option func(*pgSchema) *pgSchema

// WithRepository reads schema versions from the given filesystem instead of
// the built-in one. For tests and out-of-tree migrations.
func WithRepository(repo fs.FS) Option {
	return func(s *pgSchema) *pgSchema {
		s.repo = repo
		return s
	}
}

func New(pool kpool.Pool, options ...Option) kschema.SchemaInterface {
	repo, err := fs.Sub(repository, "versions")
	if err != nil {
		// the embedded tree always has versions/
		panic(err)
	}
	s := &pgSchema{pool: pool, repo: repo}
	for _, opt := range options {
		s = opt(s)
	}
	return s
}

// Null is a SchemaInterface doing nothing, reporting version 0.
//
// For processes which must not migrate (the loops process leaves schema
// management to the API server).
func Null() kschema.SchemaInterface {
	return &nullSchema{}
}

type version struct {
	Version int
	Root    string
}

func (s *pgSchema) apply(ctx context.Context, conn kpool.Queryer, v version) error {
	return fs.WalkDir(s.repo, v.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".sql") {
			return nil
		}

		query, err := fs.ReadFile(s.repo, path)
		if err != nil {
			return err
		}

		if _, err := conn.Exec(ctx, string(query)); err != nil {
			return err
		}
		return nil
	})
}

func (s *pgSchema) Version(ctx context.Context) (int, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return -1, err
	}
	defer conn.Release()

	var version int
	if err := conn.QueryRow(
		ctx, `SELECT max("version") FROM "schema_version"`,
	).Scan(&version); err != nil {
		if pgerr := new(pgconn.PgError); errors.As(err, &pgerr) {
			if pgerr.Code == pgerrcode.UndefinedTable {
				return 0, nil
			}
		}
		return -1, err
	}

	return version, nil
}

func (s *pgSchema) Upgrade(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	schemaVersions, err := s.versions()
	if err != nil {
		return err
	}

	currentVersion, err := s.Version(ctx)
	if err != nil {
		return err
	}

	for _, v := range schemaVersions {
		if v.Version <= currentVersion {
			continue
		}
		if err := s.apply(ctx, tx, v); err != nil {
			return err
		}
		if _, err := tx.Exec(
			ctx, `DELETE FROM "schema_version"`,
		); err != nil {
			return err
		}
		if _, err := tx.Exec(
			ctx,
			`INSERT INTO "schema_version" ("version") VALUES ($1)`,
			v.Version,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// versions lists the schema versions in the repository,
// sorted by version number.
func (s *pgSchema) versions() ([]version, error) {
	dir, err := fs.ReadDir(s.repo, ".")
	if err != nil {
		return nil, err
	}

	schemaVersions := make([]version, 0, len(dir))
	for _, entry := range dir {
		if !entry.IsDir() {
			continue
		}

		v, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}

		schemaVersions = append(schemaVersions, version{
			Version: v,
			Root:    entry.Name(),
		})
	}

	sort.Slice(schemaVersions, func(i, j int) bool {
		return schemaVersions[i].Version < schemaVersions[j].Version
	})

	return schemaVersions, nil
}

type nullSchema struct{}

func (n *nullSchema) Upgrade(ctx context.Context) error {
	return nil
}

func (n *nullSchema) Version(ctx context.Context) (int, error) {
	return 0, nil
}
