// Package eventlog provides a publisher that records domain events to
// the structured log. Hosts that want richer integration can supply
// their own publisher instead.
package eventlog

import (
	"go.uber.org/zap"

	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/events"
)

// Publisher logs every published event at debug level
type Publisher struct {
	logger *zap.Logger
}

// NewPublisher creates a logging publisher
func NewPublisher(logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{logger: logger}
}

// Publish implements the event publisher contract
func (p *Publisher) Publish(event events.DomainEvent) {
	p.logger.Debug("domain event",
		zap.String("type", event.GetEventType()),
		zap.String("aggregate_id", event.GetAggregateID()),
		zap.Time("occurred_at", event.GetTimestamp()))
}
