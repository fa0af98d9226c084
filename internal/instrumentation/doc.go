// Package instrumentation provides comprehensive OpenTelemetry instrumentation
// for the meetfinder scheduling service.
//
// This package enables production-grade observability through:
//   - OpenTelemetry metrics for HTTP requests, availability computations, and calendar provider calls
//   - Distributed tracing for request flows and API calls
//   - Prometheus metrics export via /metrics endpoint on dedicated port
//   - OTLP export support for modern observability platforms
//
// # Metrics
//
// The package exposes the following metric categories:
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Availability Engine Metrics:
//   - availability_requests_total: Counter of availability computations by outcome
//   - availability_request_duration_seconds: Histogram of end-to-end computation durations
//   - availability_slots_found: Histogram of candidate slot counts per request
//   - participant_fetch_duration_seconds: Histogram of per-participant calendar fetch durations
//
// Calendar Provider Metrics:
//   - calendar_api_operations_total: Counter of calendar operations by operation and status
//   - calendar_api_operation_duration_seconds: Histogram of calendar operation durations
//
// Booking Metrics:
//   - bookings_total: Counter of booking attempts by result
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Tracing
//
// Distributed tracing spans are created for:
//   - HTTP request handling
//   - MCP tool invocations (tool.<name>)
//   - Calendar provider calls (calendar.<operation>)
//   - Availability computations (availability.find_slots, scheduler.schedule)
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: meetfinder)
//
// # Example Usage
//
//	// Initialize instrumentation
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
//		ServiceName:    "meetfinder",
//		ServiceVersion: "0.1.0",
//		Enabled:        true,
//	})
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	// Get metrics recorder
//	recorder := provider.Metrics()
//
//	// Record an HTTP request
//	recorder.RecordHTTPRequest(ctx, "POST", "/api/schedule", 200, time.Since(start))
//
//	// Record a calendar provider operation
//	recorder.RecordCalendarAPIOperation(ctx, "list", "success", time.Since(start))
//
//	// Record an availability computation
//	recorder.RecordAvailabilityRequest(ctx, "slots_found", 12, time.Since(start))
package instrumentation
