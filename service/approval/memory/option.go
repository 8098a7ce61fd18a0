package memory

import (
	"github.com/viant/onramp/service/approval"
	"github.com/viant/onramp/service/dao/audit"
	"github.com/viant/onramp/service/messaging"
)

// Option customises the in-memory approval service.
type Option func(*service)

// WithAuditSink wires the sink receiving approval lifecycle audit entries.
func WithAuditSink(sink audit.Sink) Option {
	return func(s *service) { s.auditSink = sink }
}

// WithQueue replaces the default in-memory event queue.
func WithQueue(queue messaging.Queue[approval.Event]) Option {
	return func(s *service) { s.events = queue }
}
