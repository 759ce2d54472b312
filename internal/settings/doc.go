// Package settings persists the desired transmitter settings in SQLite.
//
// The current record lives in a single-row table and every accepted change
// is appended to a history table tagged with its source ("defaults",
// "mqtt", ...). A Manager ties the repository to the in-memory
// vtx.SettingsStore read by the scheduler: changes are validated, written
// to the database and only then made visible to the core.
//
// Usage:
//
//	repo := settings.NewSQLiteRepository(db.DB)
//	mgr := settings.NewManager(repo, store)
//	if err := mgr.Bootstrap(ctx, cfg.VTX.Defaults); err != nil {
//	    return err
//	}
//	err := mgr.Apply(ctx, next, settings.SourceMQTT)
package settings
