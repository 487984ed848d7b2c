// Package database provides SQLite connectivity for the power strip core.
//
// This package manages:
//   - Database connection with WAL mode and full sync on commit
//   - Forward-only schema migrations read from an fs.FS
//   - Connection lifecycle (single writer connection)
//
// The database holds the persisted characteristic values, controller
// pairings and boot session markers. Every state save is one UPSERT in its
// own implicit transaction, so a power cut leaves either the old or the new
// row, never a torn one.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql and live in
// the top-level migrations directory, which registers them at init.
package database
