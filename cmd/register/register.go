package register

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/classmark/classmark-go/internal/attendance"
	"github.com/classmark/classmark-go/internal/camera"
	"github.com/classmark/classmark-go/internal/capture"
	"github.com/classmark/classmark-go/internal/conf"
	"github.com/classmark/classmark-go/internal/datastore"
	"github.com/classmark/classmark-go/internal/errors"
)

// Command creates the register command, which captures a reference image
// from the camera and enrolls a new student.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		enrollmentKey string
		name          string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Capture a reference image and enroll a student",
		Long:  "Hold still in front of the camera. One frame is kept after the countdown and stored with the new student record.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(settings, enrollmentKey, name)
		},
	}

	cmd.Flags().StringVar(&enrollmentKey, "enrollment", "", "Enrollment key for the new student")
	cmd.Flags().StringVar(&name, "name", "", "Display name of the new student")
	_ = cmd.MarkFlagRequired("enrollment")
	_ = cmd.MarkFlagRequired("name")

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the register command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().IntVar(&settings.Registration.CaptureDelay, "delay", viper.GetInt("registration.capturedelay"), "Countdown in seconds before the frame is kept")
	cmd.Flags().StringVar(&settings.Registration.ImageDir, "imagedir", viper.GetString("registration.imagedir"), "Directory where reference images are saved")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}

func runRegister(settings *conf.Settings, enrollmentKey, name string) error {
	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return err
	}
	defer store.Close()

	device, err := camera.Open(settings.Camera.DeviceIndex)
	if err != nil {
		return err
	}

	var surface capture.Surface
	if settings.Camera.Display {
		preview := camera.NewPreview("ClassMark registration", settings.Camera.TickDelayMs)
		defer preview.Close()
		surface = preview
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	delay := time.Duration(settings.Registration.CaptureDelay) * time.Second
	fmt.Printf("Capturing reference image in %s, hold still\n", delay)

	image, err := capture.RunRegistration(ctx, device, surface, camera.EncodePNG, delay, settings.Camera.StopKey[0])
	if err != nil {
		if errors.IsCancellation(err) {
			fmt.Println("Registration cancelled, no student enrolled")
			return nil
		}
		return err
	}

	recorder := attendance.NewRecorder(store)
	student, err := recorder.Register(enrollmentKey, name, image)
	if err != nil {
		return err
	}

	if path, err := saveReferenceImage(settings, enrollmentKey, image); err != nil {
		fmt.Printf("warning: could not save reference image file: %v\n", err)
	} else {
		fmt.Printf("Reference image saved to %s\n", path)
	}

	fmt.Printf("Enrolled %s (%s), student id %d\n", student.Name, student.EnrollmentKey, student.ID)
	return nil
}

// saveReferenceImage writes the captured frame to the image directory as a
// PNG file named after the enrollment key.
func saveReferenceImage(settings *conf.Settings, enrollmentKey string, image []byte) (string, error) {
	dir := conf.GetBasePath(settings.Registration.ImageDir)
	path := filepath.Join(dir, enrollmentKey+".png")
	if err := os.WriteFile(path, image, 0o644); err != nil {
		return "", errors.New(err).
			Component("register").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	return path, nil
}
