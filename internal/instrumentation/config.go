package instrumentation

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config controls how telemetry is collected and exported.
type Config struct {
	// ServiceName identifies this service in exported telemetry (default: meetfinder)
	ServiceName string

	// ServiceVersion is the running build version
	ServiceVersion string

	// ServiceInstanceID uniquely identifies this instance; defaults to the
	// hostname, which in Kubernetes is the pod name
	ServiceInstanceID string

	// K8sNamespace is the Kubernetes namespace the service runs in
	K8sNamespace string

	// K8sPodName is the name of the pod hosting the service
	K8sPodName string

	// Enabled turns instrumentation on or off (default: true).
	// INSTRUMENTATION_ENABLED=false disables both metrics and tracing
	Enabled bool

	// MetricsExporter selects how metrics leave the process.
	// One of "prometheus", "otlp", "stdout" (default: "prometheus")
	MetricsExporter string

	// TracingExporter selects how spans leave the process.
	// One of "otlp", "stdout", "none" (default: "none")
	TracingExporter string

	// OTLPEndpoint is the OTLP collector address without a protocol
	// prefix, e.g. "localhost:4318"
	OTLPEndpoint string

	// OTLPInsecure switches OTLP export to plaintext HTTP. The default is
	// TLS; plaintext is only acceptable against a local collector because
	// traces carry calendar and participant metadata
	OTLPInsecure bool

	// TraceSamplingRate is the fraction of traces sampled, 0.0 to 1.0
	// (default: 0.1)
	TraceSamplingRate float64

	// PrometheusEndpoint is the HTTP path serving Prometheus metrics
	// (default: "/metrics")
	PrometheusEndpoint string

	// DetailedLabels opts in to high-cardinality metric labels such as
	// participant domains. Keep disabled in production; the default label
	// set is bounded.
	DetailedLabels bool

	// AuditLogging configures audit logging behavior.
	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig controls the audit trail of tool invocations.
type AuditLoggingConfig struct {
	// Enabled turns the audit trail on or off (default: true). Audit
	// records can contain user identities and belong in secured storage.
	Enabled bool

	// IncludePII includes full email addresses in audit records instead of
	// anonymized identifiers. Only enable when compliance requires it and
	// the log destination is access-controlled.
	IncludePII bool

	// LogLevel is the slog level audit messages are emitted at (default:
	// "info"). Audit events are emitted regardless of the handler level.
	LogLevel string
}

// DefaultConfig builds a Config from environment variables, falling back
// to production-safe defaults.
func DefaultConfig() Config {
	config := Config{
		ServiceName:        getEnvOrDefault("OTEL_SERVICE_NAME", "meetfinder"),
		ServiceVersion:     "unknown",
		ServiceInstanceID:  getEnvOrDefault("OTEL_SERVICE_INSTANCE_ID", ""),
		K8sNamespace:       getEnvOrDefault("K8S_NAMESPACE", getEnvOrDefault("POD_NAMESPACE", "")),
		K8sPodName:         getEnvOrDefault("K8S_POD_NAME", getEnvOrDefault("HOSTNAME", "")),
		Enabled:            getEnvBoolOrDefault("INSTRUMENTATION_ENABLED", true),
		MetricsExporter:    getEnvOrDefault("METRICS_EXPORTER", ExporterPrometheus),
		TracingExporter:    getEnvOrDefault("TRACING_EXPORTER", ExporterNone),
		OTLPEndpoint:       getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:       getEnvBoolOrDefault("OTEL_EXPORTER_OTLP_INSECURE", false),
		TraceSamplingRate:  getEnvFloatOrDefault("OTEL_TRACES_SAMPLER_ARG", 0.1),
		PrometheusEndpoint: getEnvOrDefault("PROMETHEUS_ENDPOINT", "/metrics"),
		DetailedLabels:     getEnvBoolOrDefault("METRICS_DETAILED_LABELS", false),
		AuditLogging: AuditLoggingConfig{
			Enabled:    getEnvBoolOrDefault("AUDIT_LOGGING_ENABLED", true),
			IncludePII: getEnvBoolOrDefault("AUDIT_LOGGING_INCLUDE_PII", false),
			LogLevel:   getEnvOrDefault("AUDIT_LOGGING_LEVEL", "info"),
		},
	}

	return config
}

// Validate rejects configurations that could not be instantiated.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}

	validMetricsExporters := map[string]bool{ExporterPrometheus: true, ExporterOTLP: true, ExporterStdout: true}
	if c.MetricsExporter != "" && !validMetricsExporters[c.MetricsExporter] {
		return fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter)
	}

	validTracingExporters := map[string]bool{ExporterOTLP: true, ExporterStdout: true, ExporterNone: true}
	if c.TracingExporter != "" && !validTracingExporters[c.TracingExporter] {
		return fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter)
	}

	// OTLP endpoint required when using OTLP exporters
	if c.TracingExporter == ExporterOTLP && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTLP endpoint is required when using OTLP tracing exporter")
	}
	if c.MetricsExporter == ExporterOTLP && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTLP endpoint is required when using OTLP metrics exporter")
	}

	return nil
}

// getEnvOrDefault reads an environment variable, returning the default
// when unset or empty.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBoolOrDefault reads a boolean environment variable; malformed
// values fall back to the default.
func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

// getEnvFloatOrDefault reads a float environment variable; malformed
// values fall back to the default.
func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

// Constants for metric label values.
const (
	// Status values
	StatusSuccess = "success"
	StatusError   = "error"
	StatusUnknown = "unknown"

	// Booking result values
	BookingResultSuccess = "success"
	BookingResultFailure = "failure"

	// Availability outcomes
	OutcomeSlotsFound     = "slots_found"
	OutcomeNoWorkingHours = "no_working_hours"
	OutcomeNoFreeSlots    = "no_free_slots"
	OutcomeError          = "error"

	// Exporter types
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"

	// Metric recording intervals
	DefaultMetricInterval = 10 * time.Second
)
