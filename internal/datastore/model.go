// model.go this code defines the data model for the attendance ledger
package datastore

import "time"

// Status is the attendance state recorded for a day.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

// Source tells which capture path produced a record.
type Source string

const (
	SourceManual    Source = "manual"
	SourceAutomatic Source = "automatic"
)

// DateLayout is the storage format for calendar days. Records are keyed per
// day, never per timestamp.
const DateLayout = "2006-01-02"

// Student represents an enrolled student. The enrollment key is the natural
// key and never changes once assigned.
type Student struct {
	ID            uint   `gorm:"primaryKey"`
	EnrollmentKey string `gorm:"uniqueIndex;not null"`
	Name          string
	Image         []byte // optional reference image captured at registration
	CreatedAt     time.Time
}

// Subject is read-only reference data, populated externally.
type Subject struct {
	ID   uint   `gorm:"primaryKey"`
	Code string
	Name string `gorm:"uniqueIndex;not null"`
}

// AttendanceRecord is one row of the daily ledger. The composite unique
// index enforces at most one record per (student, subject, day); a
// subsequent mark for the same key overwrites status and marked_at instead
// of adding a row.
type AttendanceRecord struct {
	ID        uint   `gorm:"primaryKey"`
	StudentID uint   `gorm:"not null;uniqueIndex:idx_attendance_day"`
	SubjectID uint   `gorm:"not null;uniqueIndex:idx_attendance_day"`
	Date      string `gorm:"not null;uniqueIndex:idx_attendance_day;index:idx_attendance_date"`
	Status    Status `gorm:"type:varchar(10);not null"`
	Source    Source `gorm:"type:varchar(10);not null"`
	MarkedBy  *string
	MarkedAt  time.Time
}

// ReportRow is the denormalized report projection, a ledger row joined with
// the student and subject display fields.
type ReportRow struct {
	ID            uint
	EnrollmentKey string
	StudentName   string
	SubjectCode   string
	SubjectName   string
	Date          string
	Status        Status
	Source        Source
	MarkedBy      *string
	MarkedAt      time.Time
}

// ReportFilter carries the optional, conjunctive report filters. Zero
// values mean "not supplied" and emit no predicate.
type ReportFilter struct {
	StudentKey  string // exact enrollment key
	SubjectName string // exact subject display name
	DateFrom    string // inclusive, DateLayout
	DateTo      string // inclusive, DateLayout
}
