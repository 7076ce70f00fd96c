package storage

// Config holds the MinIO (or S3) connection used for exports and reports.
type Config struct {
	// Endpoint is host:port, optionally with an http:// or https:// scheme.
	Endpoint  string `mapstructure:"endpoint" default:"localhost:9000"`
	AccessKey string `mapstructure:"access_key" default:"minioadmin"`
	SecretKey string `mapstructure:"secret_key" default:"minioadmin"`
	UseSSL    bool   `mapstructure:"use_ssl" default:"false"`
	// Bucket holds community science exports and archived run reports.
	Bucket string `mapstructure:"bucket" default:"commscivet"`
	Region string `mapstructure:"region" default:""`
	// TimeoutSeconds bounds dialing and waiting for response headers.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
