// defaults.go: default values for all configuration settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaultConfig registers the default value of every setting with viper.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	// Main
	viper.SetDefault("main.name", "ecosante")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/ecosante.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 10*1024*1024)
	viper.SetDefault("main.log.rotationday", "Sunday")

	// Database
	viper.SetDefault("database.sqlite.enabled", true)
	viper.SetDefault("database.sqlite.path", "ecosante.db")
	viper.SetDefault("database.mysql.enabled", false)
	viper.SetDefault("database.mysql.username", "ecosante")
	viper.SetDefault("database.mysql.password", "")
	viper.SetDefault("database.mysql.database", "ecosante")
	viper.SetDefault("database.mysql.host", "localhost")
	viper.SetDefault("database.mysql.port", "3306")

	// Air quality provider
	viper.SetDefault("airquality.provider", "atmo")
	viper.SetDefault("airquality.baseurl", "https://api.atmo-france.org/v1")
	viper.SetDefault("airquality.apikey", "")
	viper.SetDefault("airquality.timeout", 15*time.Second)
	viper.SetDefault("airquality.cachettl", 6*time.Hour)
	viper.SetDefault("airquality.debug", false)

	// Newsletter batch
	viper.SetDefault("newsletter.windowdays", DefaultHistoryWindowDays)
	viper.SetDefault("newsletter.workers", DefaultBatchWorkers)
	viper.SetDefault("newsletter.seed", "")

	// Delivery
	viper.SetDefault("delivery.enabled", false)
	viper.SetDefault("delivery.dryrun", false)
	viper.SetDefault("delivery.mailurls", []string{})
	viper.SetDefault("delivery.smsurls", []string{})
	viper.SetDefault("delivery.timeout", 30*time.Second)

	// Web server
	viper.SetDefault("web.enabled", true)
	viper.SetDefault("web.address", ":8080")
	viper.SetDefault("web.debug", false)
}
