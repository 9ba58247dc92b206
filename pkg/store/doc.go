// Package store keeps templates, the address book and the email history in
// PostgreSQL.
//
// Every account sees its own rows plus global rows (owner_id IS NULL) that an
// administrator provisioned; it can only modify its own. Template variables are
// derived from the text on every write, and at most one template per owner is
// flagged as default.
//
//	pool, _ := db.Connect(ctx, cfg.Database, log)
//	_ = db.Migrate(ctx, pool, store.Migrations(), cfg.Database.MigrationsTable, log)
//
//	s := store.New(pool, store.WithLogger(log))
//	fetcher := store.NewFetcher(s) // compose.Fetcher
//
// Queries are built with squirrel using $n placeholders.
package store
