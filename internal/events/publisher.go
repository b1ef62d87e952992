package events

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/juansemartinez01/API-FACTURACION/internal/rabbitmq"
	"github.com/juansemartinez01/API-FACTURACION/internal/submitter"
)

// Publisher forwards terminal submission outcomes to a RabbitMQ queue so
// downstream systems (billing dashboards, reconciliation jobs) can react
// without polling the audit log.
type Publisher struct {
	conn   *rabbitmq.Connection
	queue  string
	logger *zap.Logger
}

// NewPublisher declares the outcome queue and returns the publisher.
func NewPublisher(conn *rabbitmq.Connection, queue string, logger *zap.Logger) (*Publisher, error) {
	if err := conn.DeclareQueue(queue); err != nil {
		return nil, err
	}
	return &Publisher{
		conn:   conn,
		queue:  queue,
		logger: logger,
	}, nil
}

// PublishOutcome implements submitter.OutcomePublisher. Publishing is best
// effort: failures are logged and swallowed, the submission result already
// reached the audit log.
func (p *Publisher) PublishOutcome(outcome submitter.OutcomeEvent) {
	body, err := json.Marshal(outcome)
	if err != nil {
		p.logger.Error("Failed to marshal submission outcome",
			zap.String("log_id", outcome.LogID),
			zap.Error(err),
		)
		return
	}

	if err := p.conn.PublishMessage("", p.queue, body); err != nil {
		p.logger.Error("Failed to publish submission outcome",
			zap.String("log_id", outcome.LogID),
			zap.String("queue", p.queue),
			zap.Error(err),
		)
		return
	}

	p.logger.Debug("Submission outcome published",
		zap.String("log_id", outcome.LogID),
		zap.String("status", outcome.Status),
	)
}
