// Package server holds the HTTP server configuration.
//
// The Config struct defines the listen port, the optional API key and the
// upload body limit. The start command reads it through core/config; HasAuth
// decides whether the auth middleware rejects requests without a key.
package server
