// defaults.go default values for the configuration
package conf

import (
	"github.com/spf13/viper"
)

// setDefaultConfig sets the default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	// Main configuration
	viper.SetDefault("main.name", "ClassMark")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "classmark.log")

	// Camera configuration
	viper.SetDefault("camera.deviceindex", 0)
	viper.SetDefault("camera.display", true)
	viper.SetDefault("camera.stopkey", "p")
	viper.SetDefault("camera.tickdelayms", 1)

	// Detection configuration
	viper.SetDefault("detection.cascadepath", "assets/haarcascade_frontalface_default.xml")
	viper.SetDefault("detection.fallbackpath", "/usr/share/opencv4/haarcascades/haarcascade_frontalface_default.xml")
	viper.SetDefault("detection.scalefactor", 1.3)
	viper.SetDefault("detection.minneighbors", 5)

	// Registration configuration
	viper.SetDefault("registration.capturedelay", 3)
	viper.SetDefault("registration.imagedir", "data/images")

	// Output configuration
	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "classmark.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "root")
	viper.SetDefault("output.mysql.password", "")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")
	viper.SetDefault("output.mysql.database", "attendance_system")

	// Telemetry configuration
	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.listen", "0.0.0.0:8090")
}
