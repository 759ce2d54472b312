package database

import (
	"context"
	"testing"
	"testing/fstest"
	"time"
)

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"sql/20261001_090000_create_channels.up.sql": {Data: []byte(
			"CREATE TABLE test_channels (id INTEGER PRIMARY KEY, mhz INTEGER NOT NULL);")},
		"sql/20261001_090000_create_channels.down.sql": {Data: []byte(
			"DROP TABLE test_channels;")},
		"sql/20261002_090000_add_label.up.sql": {Data: []byte(
			"ALTER TABLE test_channels ADD COLUMN label TEXT;")},
		"sql/README.md":                       {Data: []byte("ignored")},
		"sql/20261003_090000_orphan.down.sql": {Data: []byte("SELECT 1;")},
	}
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name,
	).Scan(&count)
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	return count == 1
}

func TestMigrate(t *testing.T) {
	db := openTestDB(t)
	fsys := testMigrations()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx, fsys, "sql"); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if !tableExists(t, db, "test_channels") {
		t.Fatal("table test_channels not created")
	}

	applied, pending, err := db.MigrationStatus(ctx, fsys, "sql")
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 2 {
		t.Errorf("expected 2 applied migrations, got %d", len(applied))
	}
	if len(pending) != 0 {
		t.Errorf("expected 0 pending migrations, got %d", len(pending))
	}

	// Running again is idempotent.
	if err := db.Migrate(ctx, fsys, "sql"); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestMigrateDown(t *testing.T) {
	db := openTestDB(t)
	fsys := testMigrations()
	ctx := context.Background()

	if err := db.Migrate(ctx, fsys, "sql"); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	// The latest migration has no down file.
	if err := db.MigrateDown(ctx, fsys, "sql"); err == nil {
		t.Fatal("MigrateDown() expected error for missing down SQL")
	}

	// Drop the add_label migration from the filesystem view and record.
	if _, err := db.ExecContext(ctx, "DELETE FROM schema_migrations WHERE version = ?", "20261002_090000"); err != nil {
		t.Fatalf("delete record: %v", err)
	}
	if err := db.MigrateDown(ctx, fsys, "sql"); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}
	if tableExists(t, db, "test_channels") {
		t.Error("table test_channels should have been dropped")
	}

	applied, _, err := db.MigrationStatus(ctx, fsys, "sql")
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("expected 0 applied migrations after rollback, got %d", len(applied))
	}
}

func TestMigrateNoMigrations(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx, nil, "."); err != nil {
		t.Fatalf("Migrate() with nil fs error = %v", err)
	}
	if err := db.Migrate(ctx, fstest.MapFS{}, "missing"); err != nil {
		t.Fatalf("Migrate() with missing dir error = %v", err)
	}
}

func TestMigrationStatus_Pending(t *testing.T) {
	db := openTestDB(t)

	applied, pending, err := db.MigrationStatus(context.Background(), testMigrations(), "sql")
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("expected 0 applied, got %d", len(applied))
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(pending))
	}
	if pending[0].Name != "create_channels" || pending[1].Name != "add_label" {
		t.Errorf("pending order = %s, %s", pending[0].Name, pending[1].Name)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantVersion string
		wantIsUp    bool
		wantOk      bool
	}{
		{
			name:        "valid up migration",
			filename:    "20261015_120000_vtx_settings.up.sql",
			wantVersion: "20261015_120000",
			wantIsUp:    true,
			wantOk:      true,
		},
		{
			name:        "valid down migration",
			filename:    "20261015_120000_vtx_settings.down.sql",
			wantVersion: "20261015_120000",
			wantOk:      true,
		},
		{name: "not sql file", filename: "readme.txt"},
		{name: "missing direction", filename: "20261015_120000_vtx_settings.sql"},
		{name: "invalid format", filename: "invalid.up.sql"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, isUp, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOk {
				t.Errorf("ok = %v, want %v", ok, tt.wantOk)
			}
			if ok {
				if version != tt.wantVersion {
					t.Errorf("version = %v, want %v", version, tt.wantVersion)
				}
				if isUp != tt.wantIsUp {
					t.Errorf("isUp = %v, want %v", isUp, tt.wantIsUp)
				}
			}
		})
	}
}

func TestExtractMigrationName(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"20261015_120000_vtx_settings.up.sql", "vtx_settings"},
		{"20261015_120000_vtx_settings.down.sql", "vtx_settings"},
		{"20261016_080000_add_source_to_history.up.sql", "add_source_to_history"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := extractMigrationName(tt.filename); got != tt.want {
				t.Errorf("extractMigrationName(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}
