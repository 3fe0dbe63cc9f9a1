package mark

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/classmark/classmark-go/internal/attendance"
	"github.com/classmark/classmark-go/internal/conf"
	"github.com/classmark/classmark-go/internal/datastore"
	"github.com/classmark/classmark-go/internal/errors"
)

// Command creates the mark command, which records a manual attendance entry
// for today.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		enrollmentKey string
		name          string
		subjectName   string
		status        string
		markedBy      string
	)

	cmd := &cobra.Command{
		Use:   "mark",
		Short: "Record a manual attendance entry",
		Long:  "Mark a student present or absent for a subject today. An unknown student is enrolled on the fly, an unknown subject is rejected.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMark(settings, enrollmentKey, name, subjectName, status, markedBy)
		},
	}

	cmd.Flags().StringVar(&enrollmentKey, "enrollment", "", "Enrollment key of the student")
	cmd.Flags().StringVar(&name, "name", "", "Display name, used when the student is created")
	cmd.Flags().StringVar(&subjectName, "subject", "", "Subject the attendance is marked against")
	cmd.Flags().StringVar(&status, "status", string(datastore.StatusPresent), "Attendance status, present or absent")
	cmd.Flags().StringVar(&markedBy, "marked-by", "", "Operator recording the entry")
	_ = cmd.MarkFlagRequired("enrollment")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

func runMark(settings *conf.Settings, enrollmentKey, name, subjectName, status, markedBy string) error {
	parsed, err := parseStatus(status)
	if err != nil {
		return err
	}

	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return err
	}
	defer store.Close()

	var operator *string
	if markedBy != "" {
		operator = &markedBy
	}

	recorder := attendance.NewRecorder(store)
	result, err := recorder.MarkManual(enrollmentKey, name, subjectName, parsed, operator)
	if err != nil {
		if errors.IsNotFound(err) {
			fmt.Printf("Subject %q is not registered, nothing was recorded\n", subjectName)
		}
		return err
	}

	fmt.Printf("Marked %s (%s) %s in %s for %s\n",
		result.Student.Name, result.Student.EnrollmentKey, result.Status, result.Subject.Name, result.Date)
	return nil
}

func parseStatus(status string) (datastore.Status, error) {
	switch datastore.Status(status) {
	case datastore.StatusPresent:
		return datastore.StatusPresent, nil
	case datastore.StatusAbsent:
		return datastore.StatusAbsent, nil
	default:
		return "", errors.Newf("invalid status %q, expected present or absent", status).
			Component("mark").
			Category(errors.CategoryValidation).
			Build()
	}
}
