package conf

import (
	"github.com/classmark/classmark-go/internal/errors"
)

// ValidateSettings checks the loaded settings for values the engine cannot
// run with. It returns the first problem found.
func ValidateSettings(settings *Settings) error {
	if err := validateCameraSettings(&settings.Camera); err != nil {
		return err
	}
	if err := validateDetectionSettings(&settings.Detection); err != nil {
		return err
	}
	if err := validateRegistrationSettings(&settings.Registration); err != nil {
		return err
	}
	if err := validateOutputSettings(&settings.Output); err != nil {
		return err
	}
	return validateTelemetrySettings(&settings.Telemetry)
}

func validateTelemetrySettings(telemetry *TelemetrySettings) error {
	if telemetry.Enabled && telemetry.Listen == "" {
		return errors.Newf("telemetry enabled but no listen address configured").
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}

func validateCameraSettings(camera *CameraSettings) error {
	if camera.DeviceIndex < 0 {
		return errors.Newf("camera device index must not be negative: %d", camera.DeviceIndex).
			Component("conf").
			Category(errors.CategoryValidation).
			Context("device_index", camera.DeviceIndex).
			Build()
	}
	if len(camera.StopKey) != 1 {
		return errors.Newf("camera stop key must be a single character: %q", camera.StopKey).
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	if camera.TickDelayMs < 1 {
		camera.TickDelayMs = 1
	}
	return nil
}

func validateDetectionSettings(detection *DetectionSettings) error {
	if detection.CascadePath == "" && detection.FallbackPath == "" {
		return errors.Newf("no cascade classifier path configured").
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	if detection.ScaleFactor <= 1.0 {
		return errors.Newf("detection scale factor must be greater than 1.0: %f", detection.ScaleFactor).
			Component("conf").
			Category(errors.CategoryValidation).
			Context("scale_factor", detection.ScaleFactor).
			Build()
	}
	if detection.MinNeighbors < 1 {
		return errors.Newf("detection min neighbors must be at least 1: %d", detection.MinNeighbors).
			Component("conf").
			Category(errors.CategoryValidation).
			Context("min_neighbors", detection.MinNeighbors).
			Build()
	}
	return nil
}

func validateRegistrationSettings(registration *RegistrationSettings) error {
	if registration.CaptureDelay < 0 {
		return errors.Newf("registration capture delay must not be negative: %d", registration.CaptureDelay).
			Component("conf").
			Category(errors.CategoryValidation).
			Context("capture_delay", registration.CaptureDelay).
			Build()
	}
	return nil
}

func validateOutputSettings(output *OutputSettings) error {
	if !output.SQLite.Enabled && !output.MySQL.Enabled {
		return errors.Newf("no ledger output enabled, enable either sqlite or mysql").
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	if output.SQLite.Enabled && output.SQLite.Path == "" {
		return errors.Newf("sqlite output enabled but no path configured").
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	if output.MySQL.Enabled {
		if output.MySQL.Host == "" || output.MySQL.Database == "" {
			return errors.Newf("mysql output enabled but host or database missing").
				Component("conf").
				Category(errors.CategoryValidation).
				Build()
		}
	}
	return nil
}
