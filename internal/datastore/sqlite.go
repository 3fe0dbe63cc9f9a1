package datastore

import (
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/classmark/classmark-go/internal/conf"
	"github.com/classmark/classmark-go/internal/errors"
)

// SQLiteStore implements DataStore for SQLite
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

// Open sets up the SQLite database connection
func (store *SQLiteStore) Open() error {
	dir, fileName := filepath.Split(store.Settings.Output.SQLite.Path)
	basePath := conf.GetBasePath(dir)
	absoluteFilePath := filepath.Join(basePath, fileName)

	db, err := gorm.Open(sqlite.Open(absoluteFilePath), &gorm.Config{
		Logger:         createGormLogger(store.Settings.Debug),
		TranslateError: true,
	})
	if err != nil {
		return errors.Newf("failed to open SQLite database: %v", err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("path", absoluteFilePath).
			Build()
	}

	store.DB = db
	return performAutoMigration(db, store.Settings.Debug, "SQLite", absoluteFilePath)
}

// Close is a no-op for SQLite, the file handle is managed by the driver.
func (store *SQLiteStore) Close() error {
	return nil
}
