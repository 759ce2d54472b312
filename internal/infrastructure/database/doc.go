// Package database provides SQLite connectivity for the VTX control core.
//
// It manages the connection (WAL mode, busy timeout, single writer) and
// applies versioned SQL migrations supplied as an fs.FS, normally the
// embedded files of the migrations package.
//
// Usage:
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS, migrations.Dir); err != nil {
//	    return err
//	}
//
// Migrations are additive: new columns are NULLABLE or carry a DEFAULT, and
// each .up.sql has a matching .down.sql.
package database
