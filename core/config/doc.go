// Package config provides configuration management for commscivet.
//
// It utilizes Viper for loading configuration from environment variables,
// with an optional .env file overlaid first through godotenv.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP port, API key and upload limit
//   - Database: driver (mysql, postgres, sqlite) and connection details
//   - Storage: MinIO credentials and the bucket holding exports and reports
//   - Log: Logging level and format
//   - Observations: feature table, identifier, tracked fields, export lookup
//   - Tracking: ELSUBID tables and tracked fields
//   - JobsNumber: concurrent field diff workers
//
// Defaults come from `default` struct tags. Environment keys join the
// section and field with an underscore, e.g. OBSERVATIONS_TRACKED_FIELDS.
// List values are comma separated.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Observations.Table)
package config
