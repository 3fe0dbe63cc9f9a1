package datastore

import (
	"log"
	"os"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/classmark/classmark-go/internal/errors"
)

// createGormLogger configures a GORM logger that silences record-not-found
// noise and only reports slow queries and real errors.
func createGormLogger(debug bool) gormlogger.Interface {
	level := gormlogger.Error
	if debug {
		level = gormlogger.Info
	}
	return gormlogger.New(
		log.New(os.Stderr, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// performAutoMigration runs the schema migration for all ledger tables. The
// composite unique index on attendance_records comes from the model tags
// and is what the upsert relies on.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&Student{}, &Subject{}, &AttendanceRecord{}); err != nil {
		return errors.Newf("failed to auto-migrate %s database: %v", dbType, err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("db_type", dbType).
			Build()
	}

	if debug {
		log.Printf("%s database connection initialized: %s", dbType, connectionInfo)
	}
	return nil
}
