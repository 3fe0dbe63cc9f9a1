package detect

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/classmark/classmark-go/internal/attendance"
	"github.com/classmark/classmark-go/internal/camera"
	"github.com/classmark/classmark-go/internal/capture"
	"github.com/classmark/classmark-go/internal/conf"
	"github.com/classmark/classmark-go/internal/datastore"
	"github.com/classmark/classmark-go/internal/errors"
	"github.com/classmark/classmark-go/internal/facedet"
	"github.com/classmark/classmark-go/internal/observability"
)

// Command creates the detect command, which runs a live detection session
// for one student and subject and marks attendance from the outcome.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		enrollmentKey string
		subjectName   string
		duration      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Run a live detection session and mark attendance",
		Long:  "Capture frames from the camera, detect face regions per tick and mark the student present when the session saw at least one face.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(settings, enrollmentKey, subjectName, duration)
		},
	}

	cmd.Flags().StringVar(&enrollmentKey, "enrollment", "", "Enrollment key of the student the session is for")
	cmd.Flags().StringVar(&subjectName, "subject", "", "Subject the attendance is marked against")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Optional session deadline, 0 runs until stopped")
	_ = cmd.MarkFlagRequired("enrollment")
	_ = cmd.MarkFlagRequired("subject")

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the detect command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.Detection.CascadePath, "cascade", viper.GetString("detection.cascadepath"), "Path to the Haar cascade asset")
	cmd.Flags().StringVar(&settings.Camera.StopKey, "stopkey", viper.GetString("camera.stopkey"), "Key that ends the session")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}

func runDetect(settings *conf.Settings, enrollmentKey, subjectName string, duration time.Duration) error {
	printHostBanner(settings)

	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return err
	}
	defer store.Close()

	classifier, err := facedet.New(&settings.Detection)
	if err != nil {
		return err
	}
	defer classifier.Close()

	device, err := camera.Open(settings.Camera.DeviceIndex)
	if err != nil {
		return err
	}

	var surface capture.Surface
	if settings.Camera.Display {
		preview := camera.NewPreview("ClassMark - press '"+settings.Camera.StopKey+"' to stop", settings.Camera.TickDelayMs)
		defer preview.Close()
		surface = preview
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	if settings.Telemetry.Enabled {
		observability.NewEndpoint(settings.Telemetry.Listen).Start(ctx)
	}

	summary := capture.RunDetection(ctx, device, classifier, surface, settings.Camera.StopKey[0])

	recorder := attendance.NewRecorder(store)
	result, err := recorder.RecordDetection(enrollmentKey, subjectName, summary)
	if err != nil {
		if errors.Is(err, attendance.ErrNoDetection) {
			fmt.Printf("Session %s saw no faces in %d ticks, attendance not marked\n",
				summary.SessionID, summary.TotalTicks)
			return nil
		}
		return err
	}

	fmt.Printf("Marked %s present in %s for %s (session %s, %d/%d ticks with detection, peak %d)\n",
		result.Student.Name, result.Subject.Name, result.Date,
		summary.SessionID, summary.TicksWithDetection, summary.TotalTicks, summary.PeakCount)
	return nil
}

// printHostBanner prints a short host summary at session start.
func printHostBanner(settings *conf.Settings) {
	fmt.Printf("ClassMark node %s starting detection session\n", settings.Main.Name)
	if info, err := host.Info(); err == nil {
		fmt.Printf("Host: %s (%s %s), uptime %s\n",
			info.Hostname, info.Platform, info.PlatformVersion,
			(time.Duration(info.Uptime) * time.Second).String())
	}
}
