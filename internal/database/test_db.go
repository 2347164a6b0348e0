package database

import (
	"path/filepath"

	"gorm.io/gorm"
)

// OpenTestDB opens a migrated sqlite database inside dir, which is
// usually t.TempDir(). Each caller gets its own file so tests never
// share rows.
func OpenTestDB(dir string) (*gorm.DB, error) {
	db, err := Open(DriverSQLite, filepath.Join(dir, "test.db"))
	if err != nil {
		return nil, err
	}
	if err := MigrateLicenseServer(db); err != nil {
		Close(db)
		return nil, err
	}
	if err := MigratePanel(db); err != nil {
		Close(db)
		return nil, err
	}
	return db, nil
}
