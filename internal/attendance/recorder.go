// Package attendance ties capture results and operator input to the
// identity resolver and the attendance ledger.
package attendance

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/classmark/classmark-go/internal/capture"
	"github.com/classmark/classmark-go/internal/datastore"
	"github.com/classmark/classmark-go/internal/errors"
	"github.com/classmark/classmark-go/internal/logging"
)

// Store is the slice of the datastore the recorder needs. Both the opened
// production stores and a bare DataStore satisfy it.
type Store interface {
	ResolveStudent(enrollmentKey string) (*datastore.Student, error)
	ResolveSubject(name string) (*datastore.Subject, error)
	RegisterStudent(enrollmentKey, name string, image []byte) (*datastore.Student, error)
	Mark(studentID, subjectID uint, date string, status datastore.Status, source datastore.Source, markedBy *string) error
	Report(filter datastore.ReportFilter) ([]datastore.ReportRow, error)
}

// Recorder commits capture sessions and manual submissions to the ledger.
type Recorder struct {
	store Store
	log   *slog.Logger

	// now is swappable for tests
	now func() time.Time
}

// NewRecorder creates a recorder on top of an opened datastore.
func NewRecorder(store Store) *Recorder {
	return &Recorder{
		store: store,
		log:   logging.ForService("attendance"),
		now:   time.Now,
	}
}

// Result reports a committed attendance record back to the caller.
type Result struct {
	Student datastore.Student
	Subject datastore.Subject
	Date    string
	Status  datastore.Status
	Source  datastore.Source

	// Summary is set on the automatic path so callers can show the
	// detection statistics alongside the committed record.
	Summary *capture.Summary
}

func (r *Recorder) today() string {
	return r.now().Format(datastore.DateLayout)
}

// MarkManual records an operator-submitted attendance entry for today. An
// unknown enrollment key creates the student on the fly, mirroring the
// entry form's fill-or-create behavior; the subject must already exist.
func (r *Recorder) MarkManual(enrollmentKey, name, subjectName string, status datastore.Status, markedBy *string) (*Result, error) {
	student, err := r.resolveOrCreateStudent(enrollmentKey, name)
	if err != nil {
		return nil, err
	}

	subject, err := r.store.ResolveSubject(subjectName)
	if err != nil {
		return nil, err
	}

	date := r.today()
	if err := r.store.Mark(student.ID, subject.ID, date, status, datastore.SourceManual, markedBy); err != nil {
		return nil, err
	}

	r.log.Info("manual attendance marked",
		"enrollment_key", student.EnrollmentKey,
		"subject", subject.Name,
		"date", date,
		"status", status,
	)
	return &Result{
		Student: *student,
		Subject: *subject,
		Date:    date,
		Status:  status,
		Source:  datastore.SourceManual,
	}, nil
}

// resolveOrCreateStudent looks the student up and creates them when
// missing. The insert's own uniqueness failure is authoritative: losing a
// registration race downgrades to a resolve.
func (r *Recorder) resolveOrCreateStudent(enrollmentKey, name string) (*datastore.Student, error) {
	student, err := r.store.ResolveStudent(enrollmentKey)
	if err == nil {
		return student, nil
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}

	student, err = r.store.RegisterStudent(enrollmentKey, name, nil)
	if err == nil {
		return student, nil
	}
	if errors.IsAlreadyExists(err) {
		return r.store.ResolveStudent(enrollmentKey)
	}
	return nil, err
}

// ErrNoDetection is the outcome of a detection session that never saw a
// face. Nothing is persisted for such a session.
var ErrNoDetection = errors.NewStd("no faces detected during session")

// RecordDetection commits a finished detection session as a marked-present
// record for the session's student and subject. Detection proves presence
// of a face only, never identity, so the student must already exist; the
// automatic path refuses to invent one. A session with zero detections
// persists nothing and returns ErrNoDetection.
func (r *Recorder) RecordDetection(enrollmentKey, subjectName string, summary capture.Summary) (*Result, error) {
	if summary.NoDetection() {
		return nil, errors.New(fmt.Errorf("%w: %d ticks observed", ErrNoDetection, summary.TotalTicks)).
			Component("attendance").
			Category(errors.CategoryValidation).
			Context("session_id", summary.SessionID).
			Context("total_ticks", summary.TotalTicks).
			Build()
	}

	student, err := r.store.ResolveStudent(enrollmentKey)
	if err != nil {
		return nil, err
	}
	subject, err := r.store.ResolveSubject(subjectName)
	if err != nil {
		return nil, err
	}

	date := r.today()
	if err := r.store.Mark(student.ID, subject.ID, date, datastore.StatusPresent, datastore.SourceAutomatic, nil); err != nil {
		return nil, err
	}

	r.log.Info("detection session committed",
		"session_id", summary.SessionID,
		"enrollment_key", student.EnrollmentKey,
		"subject", subject.Name,
		"date", date,
		"ticks_with_detection", summary.TicksWithDetection,
		"total_ticks", summary.TotalTicks,
	)
	return &Result{
		Student: *student,
		Subject: *subject,
		Date:    date,
		Status:  datastore.StatusPresent,
		Source:  datastore.SourceAutomatic,
		Summary: &summary,
	}, nil
}

// Register enrolls a new student with an optional reference image captured
// by the registration session. Duplicate enrollment keys are rejected and
// the existing student is left untouched.
func (r *Recorder) Register(enrollmentKey, name string, image []byte) (*datastore.Student, error) {
	student, err := r.store.RegisterStudent(enrollmentKey, name, image)
	if err != nil {
		return nil, err
	}
	r.log.Info("student registered",
		"enrollment_key", student.EnrollmentKey,
		"name", student.Name,
		"has_image", len(image) > 0,
	)
	return student, nil
}

// Report returns the filtered ledger joined with display fields.
func (r *Recorder) Report(filter datastore.ReportFilter) ([]datastore.ReportRow, error) {
	return r.store.Report(filter)
}
