package onramp

import (
	"github.com/viant/onramp/service/approval"
	"github.com/viant/onramp/service/dao/audit"
	"github.com/viant/onramp/service/dao/thread"
	"github.com/viant/onramp/service/provider"
	"github.com/viant/onramp/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the service façade.
type Option func(s *Service)

// WithConfig sets the engine configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithThreadStore sets the thread store.
func WithThreadStore(store thread.Store) Option {
	return func(s *Service) { s.threads = store }
}

// WithAuditSink sets the audit sink.
func WithAuditSink(sink audit.Sink) Option {
	return func(s *Service) { s.audits = sink }
}

// WithApprovalService sets the approval service.
func WithApprovalService(svc approval.Service) Option {
	return func(s *Service) { s.approvals = svc }
}

// WithTickets sets the ticket provider.
func WithTickets(tickets provider.Tickets) Option {
	return func(s *Service) { s.tickets = tickets }
}

// WithSecrets sets the secret provider.
func WithSecrets(secrets provider.Secrets) Option {
	return func(s *Service) { s.secrets = secrets }
}

// WithScreenshots sets the screenshot provider.
func WithScreenshots(screenshots provider.Screenshots) Option {
	return func(s *Service) { s.screenshots = screenshots }
}

// WithMailer sets the sign-off email provider.
func WithMailer(mailer provider.Email) Option {
	return func(s *Service) { s.mailer = mailer }
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path. The function is
// safe to call multiple times – the first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter. This enables
// integrations with exporters other than the built-in stdout exporter, for example OTLP, Jaeger or
// Zipkin. The function is safe to call multiple times – the first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
