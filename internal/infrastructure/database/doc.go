// Package database provides SQLite storage for Gray Logic Blink.
//
// The database holds the settings document store that user patterns and
// playback options are persisted in. Schema changes are applied from
// embedded SQL migrations at startup.
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with a
// matching .down.sql, and are registered by the migrations package.
package database
