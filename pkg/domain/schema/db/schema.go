package db

import "context"

// SchemaInterface manages the database schema.
type SchemaInterface interface {
	// Upgrade applies every schema version newer than what the database
	// holds. Safe to call on every boot; a no-op when up to date.
	Upgrade(ctx context.Context) error

	// Version returns the schema version the database is at.
	// 0 means a pristine database.
	Version(ctx context.Context) (int, error)
}
