// Package database connects to the audit-log backend.
//
// Two backends are supported:
//
//   - PostgreSQL through a pgx connection pool
//   - SQLite through modernc.org/sqlite, for development and single-node deployments
//
// # Usage
//
//	db, err := database.Open(ctx, database.Config{
//	    Type:   "sqlite",
//	    DSN:    "shareustc.db",
//	    Tables: shareustc.Tables{AuditLog: "audit_log"},
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	repo := db.GetRepo()
//
// Open runs Connect, Ping, Migrate and Validate in that order. Migrations are
// idempotent.
//
// Audit entries are listed newest first and paginated with an opaque cursor over
// (created_at, id), so rows recorded in the same instant are neither skipped nor
// repeated.
package database
