// attendance_test.go: ledger behavior tests against real SQLite databases
// (not mocks), exercising actual upsert and constraint behavior.
package datastore

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/classmark/classmark-go/internal/errors"
)

// createTestStore opens an isolated SQLite database and migrates the
// ledger schema.
func createTestStore(t *testing.T) *DataStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "classmark-test.db")
	// busy timeout keeps concurrent-writer tests from tripping on SQLITE_BUSY
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "Failed to open test database")

	require.NoError(t, db.AutoMigrate(&Student{}, &Subject{}, &AttendanceRecord{}))
	return &DataStore{DB: db}
}

func seedStudent(t *testing.T, ds *DataStore, key, name string) *Student {
	t.Helper()
	student, err := ds.RegisterStudent(key, name, nil)
	require.NoError(t, err)
	return student
}

func seedSubject(t *testing.T, ds *DataStore, code, name string) *Subject {
	t.Helper()
	subject := &Subject{Code: code, Name: name}
	require.NoError(t, ds.SaveSubject(subject))
	return subject
}

func countRecords(t *testing.T, ds *DataStore, studentID, subjectID uint, date string) int64 {
	t.Helper()
	var count int64
	err := ds.DB.Model(&AttendanceRecord{}).
		Where("student_id = ? AND subject_id = ? AND date = ?", studentID, subjectID, date).
		Count(&count).Error
	require.NoError(t, err)
	return count
}

func TestMarkManualScenario(t *testing.T) {
	t.Parallel()

	ds := createTestStore(t)
	student := seedStudent(t, ds, "E100", "Asha")
	subject := seedSubject(t, ds, "CS301", "Algorithms")

	require.NoError(t, ds.Mark(student.ID, subject.ID, "2024-05-01", StatusPresent, SourceManual, nil))
	assert.EqualValues(t, 1, countRecords(t, ds, student.ID, subject.ID, "2024-05-01"))

	var record AttendanceRecord
	require.NoError(t, ds.DB.First(&record).Error)
	assert.Equal(t, StatusPresent, record.Status)
	firstMarkedAt := record.MarkedAt

	// Second mark for the same key mutates in place
	require.NoError(t, ds.Mark(student.ID, subject.ID, "2024-05-01", StatusAbsent, SourceManual, nil))
	assert.EqualValues(t, 1, countRecords(t, ds, student.ID, subject.ID, "2024-05-01"),
		"repeated mark must not add a row")

	require.NoError(t, ds.DB.First(&record).Error)
	assert.Equal(t, StatusAbsent, record.Status, "last write wins for the day")
	assert.False(t, record.MarkedAt.Before(firstMarkedAt), "marked_at must be monotonically non-decreasing")
}

func TestMarkDifferentDaysCreateSeparateRows(t *testing.T) {
	t.Parallel()

	ds := createTestStore(t)
	student := seedStudent(t, ds, "E101", "Binod")
	subject := seedSubject(t, ds, "CS302", "Databases")

	require.NoError(t, ds.Mark(student.ID, subject.ID, "2024-05-01", StatusPresent, SourceManual, nil))
	require.NoError(t, ds.Mark(student.ID, subject.ID, "2024-05-02", StatusPresent, SourceManual, nil))

	var count int64
	require.NoError(t, ds.DB.Model(&AttendanceRecord{}).Count(&count).Error)
	assert.EqualValues(t, 2, count, "different days are different ledger rows")
}

func TestMarkOverwritesSourceAndMarkedBy(t *testing.T) {
	t.Parallel()

	ds := createTestStore(t)
	student := seedStudent(t, ds, "E102", "Chitra")
	subject := seedSubject(t, ds, "CS303", "Networks")

	operator := "op-17"
	require.NoError(t, ds.Mark(student.ID, subject.ID, "2024-05-01", StatusPresent, SourceAutomatic, nil))
	require.NoError(t, ds.Mark(student.ID, subject.ID, "2024-05-01", StatusPresent, SourceManual, &operator))

	var record AttendanceRecord
	require.NoError(t, ds.DB.First(&record).Error)
	assert.Equal(t, SourceManual, record.Source, "source reflects the latest call")
	require.NotNil(t, record.MarkedBy)
	assert.Equal(t, operator, *record.MarkedBy)
}

func TestConcurrentMarksKeepSingleRow(t *testing.T) {
	t.Parallel()

	ds := createTestStore(t)
	student := seedStudent(t, ds, "E103", "Dipa")
	subject := seedSubject(t, ds, "CS304", "Compilers")

	const writers = 8
	var wg sync.WaitGroup
	successes := make([]bool, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			status := StatusPresent
			if n%2 == 0 {
				status = StatusAbsent
			}
			if err := ds.Mark(student.ID, subject.ID, "2024-05-01", status, SourceManual, nil); err == nil {
				successes[n] = true
			}
		}(i)
	}
	wg.Wait()

	anySuccess := false
	for _, ok := range successes {
		anySuccess = anySuccess || ok
	}
	assert.True(t, anySuccess, "at least one concurrent mark must succeed")
	assert.EqualValues(t, 1, countRecords(t, ds, student.ID, subject.ID, "2024-05-01"),
		"concurrent marks for the same key must never produce two rows")
}

func TestReportFilters(t *testing.T) {
	t.Parallel()

	ds := createTestStore(t)
	asha := seedStudent(t, ds, "E100", "Asha")
	binod := seedStudent(t, ds, "E101", "Binod")
	algorithms := seedSubject(t, ds, "CS301", "Algorithms")
	databases := seedSubject(t, ds, "CS302", "Databases")

	require.NoError(t, ds.Mark(asha.ID, algorithms.ID, "2024-05-01", StatusPresent, SourceManual, nil))
	require.NoError(t, ds.Mark(asha.ID, databases.ID, "2024-05-02", StatusAbsent, SourceManual, nil))
	require.NoError(t, ds.Mark(binod.ID, algorithms.ID, "2024-05-03", StatusPresent, SourceAutomatic, nil))

	t.Run("no filters returns whole ledger", func(t *testing.T) {
		rows, err := ds.Report(ReportFilter{})
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})

	t.Run("subject filter", func(t *testing.T) {
		rows, err := ds.Report(ReportFilter{SubjectName: "Algorithms"})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		for _, row := range rows {
			assert.Equal(t, "Algorithms", row.SubjectName)
		}
	})

	t.Run("conjunction of student and date range", func(t *testing.T) {
		rows, err := ds.Report(ReportFilter{
			StudentKey: "E100",
			DateFrom:   "2024-05-01",
			DateTo:     "2024-05-01",
		})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "E100", rows[0].EnrollmentKey)
		assert.Equal(t, "2024-05-01", rows[0].Date)
	})

	t.Run("same-day date range spans students and subjects", func(t *testing.T) {
		rows, err := ds.Report(ReportFilter{DateFrom: "2024-05-02", DateTo: "2024-05-02"})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "2024-05-02", rows[0].Date)
	})

	t.Run("zero matches is a successful empty result", func(t *testing.T) {
		rows, err := ds.Report(ReportFilter{StudentKey: "E999"})
		require.NoError(t, err, "no matching rows must not be an error")
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})
}

func TestReportCarriesDisplayFields(t *testing.T) {
	t.Parallel()

	ds := createTestStore(t)
	student := seedStudent(t, ds, "E100", "Asha")
	subject := seedSubject(t, ds, "CS301", "Algorithms")
	require.NoError(t, ds.Mark(student.ID, subject.ID, "2024-05-01", StatusPresent, SourceManual, nil))

	rows, err := ds.Report(ReportFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Asha", rows[0].StudentName)
	assert.Equal(t, "CS301", rows[0].SubjectCode)
	assert.Equal(t, "Algorithms", rows[0].SubjectName)
	assert.WithinDuration(t, time.Now(), rows[0].MarkedAt, time.Minute)
}

func TestRegisterStudentDuplicateRejected(t *testing.T) {
	t.Parallel()

	ds := createTestStore(t)
	original := seedStudent(t, ds, "E200", "Esha")

	_, err := ds.RegisterStudent("E200", "Imposter", []byte{1, 2, 3})
	require.Error(t, err)
	assert.True(t, errors.IsAlreadyExists(err), "expected a conflict error, got %v", err)

	// the existing student is untouched
	kept, err := ds.ResolveStudent("E200")
	require.NoError(t, err)
	assert.Equal(t, original.ID, kept.ID)
	assert.Equal(t, "Esha", kept.Name)
	assert.Nil(t, kept.Image)
}

func TestResolveStudentNotFound(t *testing.T) {
	t.Parallel()

	ds := createTestStore(t)

	_, err := ds.ResolveStudent("E404")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err), "a lookup miss must be a not-found error, got %v", err)
	assert.False(t, errors.IsCategory(err, errors.CategoryDatabase),
		"a lookup miss must be distinguishable from a storage failure")
}

func TestResolveSubjectExactMatch(t *testing.T) {
	t.Parallel()

	ds := createTestStore(t)
	seedSubject(t, ds, "CS301", "Algorithms")

	subject, err := ds.ResolveSubject("Algorithms")
	require.NoError(t, err)
	assert.Equal(t, "CS301", subject.Code)

	_, err = ds.ResolveSubject("algorithms")
	require.Error(t, err, "subject resolution is case-sensitive")
	assert.True(t, errors.IsNotFound(err))
}

func TestGetAllSubjectsOrdered(t *testing.T) {
	t.Parallel()

	ds := createTestStore(t)
	seedSubject(t, ds, "CS302", "Databases")
	seedSubject(t, ds, "CS301", "Algorithms")

	subjects, err := ds.GetAllSubjects()
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "Algorithms", subjects[0].Name)
	assert.Equal(t, "Databases", subjects[1].Name)
}

func TestRegisterStudentStoresImage(t *testing.T) {
	t.Parallel()

	ds := createTestStore(t)
	image := []byte{0x89, 0x50, 0x4e, 0x47}

	_, err := ds.RegisterStudent("E300", "Farid", image)
	require.NoError(t, err)

	student, err := ds.ResolveStudent("E300")
	require.NoError(t, err)
	assert.Equal(t, image, student.Image)
}
