package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/classmark/classmark-go/cmd/detect"
	"github.com/classmark/classmark-go/cmd/mark"
	"github.com/classmark/classmark-go/cmd/register"
	"github.com/classmark/classmark-go/cmd/report"
	"github.com/classmark/classmark-go/cmd/subjects"
	"github.com/classmark/classmark-go/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "classmark",
		Short: "ClassMark attendance CLI",
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
	}

	// Add sub-commands to the root command.
	subcommands := []*cobra.Command{
		detect.Command(settings),
		register.Command(settings),
		mark.Command(settings),
		report.Command(settings),
		subjects.Command(settings),
	}

	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().IntVar(&settings.Camera.DeviceIndex, "device", viper.GetInt("camera.deviceindex"), "Capture device index")
	rootCmd.PersistentFlags().BoolVar(&settings.Camera.Display, "display", viper.GetBool("camera.display"), "Show the live preview window")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
