package subjects

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/classmark/classmark-go/internal/conf"
	"github.com/classmark/classmark-go/internal/datastore"
)

// Command creates the subjects command group for listing and adding the
// subjects attendance can be marked against.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subjects",
		Short: "Manage the subject catalog",
	}

	cmd.AddCommand(listCommand(settings), addCommand(settings))

	return cmd
}

func listCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all registered subjects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(settings)
		},
	}
}

func addCommand(settings *conf.Settings) *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Register a new subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(settings, code, args[0])
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Short code for the subject")

	return cmd
}

func runList(settings *conf.Settings) error {
	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return err
	}
	defer store.Close()

	list, err := store.GetAllSubjects()
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Println("No subjects registered")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCODE\tNAME")
	for i := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\n", list[i].ID, list[i].Code, list[i].Name)
	}
	return w.Flush()
}

func runAdd(settings *conf.Settings, code, name string) error {
	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return err
	}
	defer store.Close()

	subject := &datastore.Subject{Code: code, Name: name}
	if err := store.SaveSubject(subject); err != nil {
		return err
	}

	fmt.Printf("Registered subject %s, id %d\n", subject.Name, subject.ID)
	return nil
}
