// Package server provides the scheduling HTTP API, shared server context,
// health endpoints and the dedicated Prometheus metrics server.
//
// # Key Components
//
// ServerContext manages Google Calendar clients with lazy initialization
// and caching, one per account, and carries the metrics recorder and audit
// logger shared by the HTTP and MCP surfaces.
//
// APIServer exposes the scheduling API:
//   - POST /api/schedule: find mutual availability or book a meeting
//   - POST /api/events: list primary-calendar events in a date range
//   - POST /api/events/{id}/update and DELETE /api/events/{id}: event management
//
// Responses carry domain errors in the body rather than the status code;
// the frontend branches on the error field. Participant emails are checked
// against a configurable domain allow-list, and calendar mutations are
// refused when credentials only permit reading.
//
// HealthChecker serves /healthz, /readyz and /healthz/detailed for
// Kubernetes probes. MetricsServer serves /metrics on a separate port so
// operational metrics stay off the application listener.
package server
