package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minihost-license/internal/model"
)

func TestOpenCreatesDataDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "license.db")

	db, err := Open(DriverSQLite, path)
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, MigrateLicenseServer(db))
	_, err = os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
	assert.True(t, db.Migrator().HasTable(&model.License{}))
	assert.True(t, db.Migrator().HasTable(&model.Activation{}))
	assert.True(t, db.Migrator().HasIndex(&model.Activation{}, "idx_activation_license_machine"))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "whatever")
	assert.Error(t, err)
}

func TestOpenTestDBIsMigrated(t *testing.T) {
	db, err := OpenTestDB(t.TempDir())
	require.NoError(t, err)
	defer Close(db)

	assert.True(t, db.Migrator().HasTable(&model.Setting{}))
	assert.True(t, db.Migrator().HasTable(&model.ValidationLog{}))
	assert.True(t, db.Migrator().HasTable(&model.OperationLog{}))
}

func TestSQLiteDSNKeepsExplicitQuery(t *testing.T) {
	assert.Equal(t, "file.db?mode=ro", sqliteDSN("file.db?mode=ro"))
	assert.Contains(t, sqliteDSN("file.db"), "busy_timeout")
}
