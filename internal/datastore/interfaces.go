// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/classmark/classmark-go/internal/conf"
	"github.com/classmark/classmark-go/internal/errors"
	"github.com/classmark/classmark-go/internal/observability"
)

// Interface abstracts the underlying database implementation and defines the
// operations of the identity resolver and the attendance ledger.
type Interface interface {
	Open() error
	Close() error

	// identity resolver
	ResolveStudent(enrollmentKey string) (*Student, error)
	ResolveSubject(name string) (*Subject, error)
	RegisterStudent(enrollmentKey, name string, image []byte) (*Student, error)
	GetAllSubjects() ([]Subject, error)
	SaveSubject(subject *Subject) error

	// attendance ledger
	Mark(studentID, subjectID uint, date string, status Status, source Source, markedBy *string) error
	Report(filter ReportFilter) ([]ReportRow, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new datastore instance based on the provided settings.
// SQLite takes precedence when both outputs are enabled.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			Settings: settings,
		}
	default:
		return nil
	}
}

// ResolveStudent looks up a student by exact enrollment key. A miss is a
// not-found error, distinguishable from a storage failure.
func (ds *DataStore) ResolveStudent(enrollmentKey string) (*Student, error) {
	var student Student
	err := ds.DB.Where("enrollment_key = ?", enrollmentKey).First(&student).Error
	switch {
	case err == nil:
		return &student, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, errors.Newf("student not found: %s", enrollmentKey).
			Component("datastore").
			Category(errors.CategoryNotFound).
			Context("enrollment_key", enrollmentKey).
			Build()
	default:
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "resolve-student").
			Build()
	}
}

// ResolveSubject looks up a subject by its exact display name, matching the
// stored value case-sensitively. Subjects are never auto-created.
func (ds *DataStore) ResolveSubject(name string) (*Subject, error) {
	var subject Subject
	err := ds.DB.Where("name = ?", name).First(&subject).Error
	switch {
	case err == nil:
		return &subject, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, errors.Newf("subject not found: %s", name).
			Component("datastore").
			Category(errors.CategoryNotFound).
			Context("subject_name", name).
			Build()
	default:
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "resolve-subject").
			Build()
	}
}

// RegisterStudent inserts a new student. The storage-level uniqueness
// constraint on the enrollment key is the authoritative duplicate check: a
// constraint violation surfaces as a conflict error and the existing row is
// left untouched. There is no lookup before the insert, so concurrent
// registrations of the same key cannot race past each other.
func (ds *DataStore) RegisterStudent(enrollmentKey, name string, image []byte) (*Student, error) {
	student := Student{
		EnrollmentKey: enrollmentKey,
		Name:          name,
		Image:         image,
	}
	if err := ds.DB.Create(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.Newf("student already registered: %s", enrollmentKey).
				Component("datastore").
				Category(errors.CategoryConflict).
				Context("enrollment_key", enrollmentKey).
				Build()
		}
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "register-student").
			Build()
	}
	return &student, nil
}

// GetAllSubjects returns all subjects ordered by display name.
func (ds *DataStore) GetAllSubjects() ([]Subject, error) {
	var subjects []Subject
	if err := ds.DB.Order("name").Find(&subjects).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get-all-subjects").
			Build()
	}
	return subjects, nil
}

// SaveSubject stores a subject. Subjects are reference data populated
// outside the engine; this exists for seeding and administration.
func (ds *DataStore) SaveSubject(subject *Subject) error {
	if err := ds.DB.Create(subject).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.Newf("subject already exists: %s", subject.Name).
				Component("datastore").
				Category(errors.CategoryConflict).
				Context("subject_name", subject.Name).
				Build()
		}
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "save-subject").
			Build()
	}
	return nil
}

// Mark upserts the ledger row for (studentID, subjectID, date). A first
// mark inserts the row, a repeated mark for the same key overwrites status,
// source and marked_by and refreshes marked_at, last write wins for the
// day. A failed upsert is always a reported error, never a silent success.
func (ds *DataStore) Mark(studentID, subjectID uint, date string, status Status, source Source, markedBy *string) error {
	now := time.Now()
	record := AttendanceRecord{
		StudentID: studentID,
		SubjectID: subjectID,
		Date:      date,
		Status:    status,
		Source:    source,
		MarkedBy:  markedBy,
		MarkedAt:  now,
	}

	err := ds.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "student_id"}, {Name: "subject_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]any{
			"status":    status,
			"source":    source,
			"marked_by": markedBy,
			"marked_at": now,
		}),
	}).Create(&record).Error
	if err != nil {
		observability.LedgerErrors.Inc()
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "mark").
			Context("date", date).
			Build()
	}

	observability.LedgerMarks.WithLabelValues(string(source), string(status)).Inc()
	return nil
}

// Report returns ledger rows joined with student and subject display
// fields. Filters are conjunctive and all optional; only supplied filters
// emit a predicate, and every value is passed as a bound parameter. Zero
// matching rows is a successful empty result, not an error.
func (ds *DataStore) Report(filter ReportFilter) ([]ReportRow, error) {
	query := ds.DB.Model(&AttendanceRecord{}).
		Select("attendance_records.id, students.enrollment_key, students.name AS student_name, " +
			"subjects.code AS subject_code, subjects.name AS subject_name, " +
			"attendance_records.date, attendance_records.status, attendance_records.source, " +
			"attendance_records.marked_by, attendance_records.marked_at").
		Joins("JOIN students ON students.id = attendance_records.student_id").
		Joins("JOIN subjects ON subjects.id = attendance_records.subject_id")

	if filter.StudentKey != "" {
		query = query.Where("students.enrollment_key = ?", filter.StudentKey)
	}
	if filter.SubjectName != "" {
		query = query.Where("subjects.name = ?", filter.SubjectName)
	}
	if filter.DateFrom != "" {
		query = query.Where("attendance_records.date >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		query = query.Where("attendance_records.date <= ?", filter.DateTo)
	}

	rows := make([]ReportRow, 0)
	if err := query.Scan(&rows).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "report").
			Build()
	}
	return rows, nil
}
