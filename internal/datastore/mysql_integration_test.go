//go:build integration

// mysql_integration_test.go: ledger upsert behavior against a real MySQL
// server, exercising the ON DUPLICATE KEY path the production config uses.
package datastore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMySQLStore(t *testing.T) *DataStore {
	t.Helper()
	ctx := context.Background()

	container, err := tcmysql.Run(ctx, "mysql:8.0",
		tcmysql.WithDatabase("attendance_test"),
		tcmysql.WithUsername("test"),
		tcmysql.WithPassword("test"),
	)
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil
	}
	t.Cleanup(func() {
		terminateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = container.Terminate(terminateCtx)
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306")
	require.NoError(t, err)

	dsn := fmt.Sprintf("test:test@tcp(%s:%s)/attendance_test?charset=utf8mb4&parseTime=True&loc=Local",
		host, port.Port())
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&Student{}, &Subject{}, &AttendanceRecord{}))
	return &DataStore{DB: db}
}

func TestMySQLMarkUpsert(t *testing.T) {
	ds := setupMySQLStore(t)

	student, err := ds.RegisterStudent("E100", "Asha", nil)
	require.NoError(t, err)
	subject := &Subject{Code: "CS301", Name: "Algorithms"}
	require.NoError(t, ds.SaveSubject(subject))

	require.NoError(t, ds.Mark(student.ID, subject.ID, "2024-05-01", StatusPresent, SourceManual, nil))
	require.NoError(t, ds.Mark(student.ID, subject.ID, "2024-05-01", StatusAbsent, SourceManual, nil))

	var count int64
	require.NoError(t, ds.DB.Model(&AttendanceRecord{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "repeated mark must update in place on MySQL")

	var record AttendanceRecord
	require.NoError(t, ds.DB.First(&record).Error)
	assert.Equal(t, StatusAbsent, record.Status)
}

func TestMySQLDuplicateRegistrationRejected(t *testing.T) {
	ds := setupMySQLStore(t)

	_, err := ds.RegisterStudent("E200", "Esha", nil)
	require.NoError(t, err)

	_, err = ds.RegisterStudent("E200", "Imposter", nil)
	require.Error(t, err, "MySQL unique constraint must reject the duplicate")
}
