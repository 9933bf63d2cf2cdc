// Package events publishes domain events for downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// RoutingKeyTransferCompleted is the routing key of TransferEvent
const RoutingKeyTransferCompleted = "transfer.completed"

// TransferEvent is emitted after a transfer has been committed
type TransferEvent struct {
	TransactionID uuid.UUID       `json:"transactionId"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	Amount        decimal.Decimal `json:"amount"`
	SenderName    string          `json:"senderName"`
	ReceiverName  string          `json:"receiverName"`
	Timestamp     time.Time       `json:"timestamp"`
}

// LogPublisher writes events to the log. Used when no broker is configured.
type LogPublisher struct {
	logger *logrus.Logger
}

// NewLogPublisher creates a publisher that only logs
func NewLogPublisher(logger *logrus.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// PublishTransfer logs the event at debug level
func (p *LogPublisher) PublishTransfer(ctx context.Context, event TransferEvent) error {
	p.logger.WithFields(logrus.Fields{
		"routing_key":    RoutingKeyTransferCompleted,
		"transaction_id": event.TransactionID,
		"from":           event.From,
		"to":             event.To,
		"amount":         event.Amount.String(),
	}).Debug("Transfer event")
	return nil
}

// Close is a no-op
func (p *LogPublisher) Close() error {
	return nil
}
