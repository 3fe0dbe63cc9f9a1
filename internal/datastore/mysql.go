package datastore

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/classmark/classmark-go/internal/conf"
	"github.com/classmark/classmark-go/internal/errors"
)

// MySQLStore implements DataStore for MySQL
type MySQLStore struct {
	DataStore
	Settings *conf.Settings
}

// Open sets up the MySQL database connection
func (store *MySQLStore) Open() error {
	cfg := store.Settings.Output.MySQL
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         createGormLogger(store.Settings.Debug),
		TranslateError: true,
	})
	if err != nil {
		return errors.Newf("failed to open MySQL database: %v", err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("host", cfg.Host).
			Context("database", cfg.Database).
			Build()
	}

	store.DB = db
	return performAutoMigration(db, store.Settings.Debug, "MySQL", cfg.Host+"/"+cfg.Database)
}

// Close closes the MySQL database connection.
func (store *MySQLStore) Close() error {
	if store.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	sqlDB, err := store.DB.DB()
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get-underlying-db").
			Build()
	}
	return sqlDB.Close()
}
