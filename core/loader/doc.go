// Package loader wires feature packages into the HTTP server.
//
// A feature owns its service, handler and routes, and exposes them through
// the Feature interface. cmd/start registers observations and tracking with
// a Manager; LoadAll mounts the enabled ones on the authenticated router and
// skips the rest, so a deployment can switch a dataset off with
// OBSERVATIONS_ENABLED=false or TRACKING_ENABLED=false.
package loader
