package observability

// Config controls tracing, metrics and the global propagator.
type Config struct {
	// Enabled exports spans and metrics to an OTLP collector. Noop providers are installed otherwise.
	Enabled bool
	// OTLPEndpoint is the OTLP gRPC address, e.g. "127.0.0.1:4317" or "otel-collector:4317".
	OTLPEndpoint string
	// SamplingRatio in 0..1, 1.0 samples every trace.
	SamplingRatio float64
	ServiceName   string
	// DeploymentEnvironment is local or docker.
	DeploymentEnvironment string
	ServiceVersion        string
	// MetricInterval is the export period in seconds, 10 when zero.
	MetricInterval int
}
