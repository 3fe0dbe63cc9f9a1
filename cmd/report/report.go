package report

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/classmark/classmark-go/internal/attendance"
	"github.com/classmark/classmark-go/internal/conf"
	"github.com/classmark/classmark-go/internal/datastore"
	"github.com/classmark/classmark-go/internal/errors"
)

// Command creates the report command, which queries the attendance ledger
// with optional filters and prints the matching rows.
func Command(settings *conf.Settings) *cobra.Command {
	var filter datastore.ReportFilter

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Query the attendance ledger",
		Long:  "List attendance records. Filters combine, only supplied filters narrow the result. No filters lists everything.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(settings, filter)
		},
	}

	cmd.Flags().StringVar(&filter.StudentKey, "student", "", "Filter by enrollment key")
	cmd.Flags().StringVar(&filter.SubjectName, "subject", "", "Filter by subject name")
	cmd.Flags().StringVar(&filter.DateFrom, "from", "", "Inclusive start date, YYYY-MM-DD")
	cmd.Flags().StringVar(&filter.DateTo, "to", "", "Inclusive end date, YYYY-MM-DD")

	return cmd
}

func runReport(settings *conf.Settings, filter datastore.ReportFilter) error {
	if err := validateDates(filter); err != nil {
		return err
	}

	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return err
	}
	defer store.Close()

	recorder := attendance.NewRecorder(store)
	rows, err := recorder.Report(filter)
	if err != nil {
		return err
	}

	if len(rows) == 0 {
		fmt.Println("No attendance records match the given filters")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tENROLLMENT\tSTUDENT\tSUBJECT\tSTATUS\tSOURCE\tMARKED BY")
	for i := range rows {
		row := &rows[i]
		markedBy := "-"
		if row.MarkedBy != nil {
			markedBy = *row.MarkedBy
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Date, row.EnrollmentKey, row.StudentName, row.SubjectName,
			row.Status, row.Source, markedBy)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("%d record(s)\n", len(rows))
	return nil
}

// validateDates rejects malformed date filters before they reach the store.
func validateDates(filter datastore.ReportFilter) error {
	for _, date := range []string{filter.DateFrom, filter.DateTo} {
		if date == "" {
			continue
		}
		if _, err := time.Parse(datastore.DateLayout, date); err != nil {
			return errors.Newf("invalid date %q, expected %s", date, datastore.DateLayout).
				Component("report").
				Category(errors.CategoryValidation).
				Build()
		}
	}
	return nil
}
