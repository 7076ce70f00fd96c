package server

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
	// BodyLimitMB caps uploaded exports.
	BodyLimitMB int `mapstructure:"body_limit_mb" default:"64"`
}

// HasAuth reports whether requests must carry the API key.
func (c Config) HasAuth() bool {
	return c.ApiKey != ""
}

// BodyLimit returns the request body limit in bytes, 4 MiB when unset.
func (c Config) BodyLimit() int {
	if c.BodyLimitMB <= 0 {
		return 4 * 1024 * 1024
	}
	return c.BodyLimitMB * 1024 * 1024
}
