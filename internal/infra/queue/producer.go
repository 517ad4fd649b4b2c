package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Report lifecycle event kinds carried on the queue.
const (
	EventReportReady  = "report.ready"
	EventReportFailed = "report.failed"
)

// ReportEventPayload is what the generation driver publishes when a
// report run reaches a terminal state. report.ready fans out to the lead
// ("your audit is ready"), report.failed alerts sales for manual
// follow-up.
type ReportEventPayload struct {
	Kind string `json:"kind"`

	LeadID    string `json:"lead_id"`
	LeadName  string `json:"lead_name"`
	LeadEmail string `json:"lead_email"`
	Company   string `json:"company"`

	ReportURL string `json:"report_url,omitempty"`

	Attempts int    `json:"attempts,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type RabbitMQProducer struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewProducer(conn *amqp.Connection, ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{Conn: conn, Ch: ch}
}

func (p *RabbitMQProducer) PublishReportEvent(ctx context.Context, payload ReportEventPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode report event: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publish report event: %w", err)
	}

	return nil
}
