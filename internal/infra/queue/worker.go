package queue

import (
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Notifier is the contract the worker needs from the mail layer.
type Notifier interface {
	SendReportReady(to, name, company, reportURL string) error
	SendFollowUpAlert(leadID, name, email, company, reason string, attempts int) error
}

// Worker drains the report-event queue and turns events into outbound
// notifications. Decoupled from the content store on purpose: it only
// sees what the payload carries.
type Worker struct {
	Channel  *amqp.Channel
	Notifier Notifier
	Logger   *zap.Logger
}

func NewWorker(ch *amqp.Channel, notifier Notifier, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{Channel: ch, Notifier: notifier, Logger: logger}
}

func (w *Worker) Start(queueName string) {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack, manual is safer
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		w.Logger.Fatal("register RabbitMQ consumer", zap.Error(err))
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var payload ReportEventPayload
			if err := json.Unmarshal(d.Body, &payload); err != nil {
				w.Logger.Error("malformed report event, rejecting", zap.Error(err))
				// Poison message: no requeue, let the DLQ keep it.
				d.Nack(false, false)
				continue
			}

			w.Logger.Info("report event received",
				zap.String("kind", payload.Kind),
				zap.String("leadId", payload.LeadID),
			)

			if err := w.processEvent(payload); err != nil {
				w.Logger.Error("report event processing failed",
					zap.String("kind", payload.Kind),
					zap.String("leadId", payload.LeadID),
					zap.Error(err),
				)
				d.Nack(false, false)
			} else {
				d.Ack(false)
			}
		}
	}()

	w.Logger.Info("report-event worker running", zap.String("queue", queueName))
	<-forever
}

func (w *Worker) processEvent(payload ReportEventPayload) error {
	switch payload.Kind {
	case EventReportReady:
		return w.Notifier.SendReportReady(
			payload.LeadEmail, payload.LeadName, payload.Company, payload.ReportURL)

	case EventReportFailed:
		return w.Notifier.SendFollowUpAlert(
			payload.LeadID, payload.LeadName, payload.LeadEmail,
			payload.Company, payload.Reason, payload.Attempts)

	default:
		// Unknown kind: ack it out of the queue, there is nothing useful
		// a retry would do.
		w.Logger.Warn("unknown report event kind", zap.String("kind", payload.Kind))
		return nil
	}
}
