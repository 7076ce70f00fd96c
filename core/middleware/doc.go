// Package middleware groups the HTTP middleware of the Fiber application.
//
// # Components
//
//   - auth: checks the X-API-Key header against the configured key. An
//     empty key leaves the API open; listed paths such as /health skip it.
//   - rayid: tags every request with a ray id (a UUID unless the caller
//     sent one), stored in Locals("ray_id") and echoed in X-Ray-ID.
//
// Both are registered globally by the start command, rayid first so that
// every log line of a request carries the id.
package middleware
