// Package notify is the fire-and-forget boundary to the external
// notification system. The scheduling core emits status-change events;
// delivery (email, push) happens elsewhere.
package notify

import (
	"context"
	"time"

	"medcal/pkg/kafka"
	"medcal/pkg/logger"
	"medcal/pkg/model"
)

const (
	EventAppointmentRequested   = "appointment.requested"
	EventAppointmentApproved    = "appointment.approved"
	EventAppointmentRejected    = "appointment.rejected"
	EventAppointmentRescheduled = "appointment.rescheduled"
	EventAppointmentCompleted   = "appointment.completed"
	EventAppointmentCancelled   = "appointment.cancelled"
)

// Event is the payload published on every appointment status change.
type Event struct {
	AppointmentID   string                  `json:"appointment_id"`
	PatientID       string                  `json:"patient_id"`
	ProfessionalID  string                  `json:"professional_id"`
	OrganizationID  string                  `json:"organization_id,omitempty"`
	AppointmentDate string                  `json:"appointment_date"`
	AppointmentTime string                  `json:"appointment_time"`
	Status          model.AppointmentStatus `json:"status"`
	RejectionReason string                  `json:"rejection_reason,omitempty"`
	SuggestedTimes  []model.SuggestedTime   `json:"suggested_times,omitempty"`
	OccurredAt      time.Time               `json:"occurred_at"`
}

// Notifier publishes appointment events. Implementations must not block
// callers on delivery outcome; a failed publish is logged, never surfaced.
type Notifier interface {
	Notify(ctx context.Context, eventType string, event Event)
}

type kafkaNotifier struct {
	producer *kafka.Producer
	source   string
	log      *logger.Logger
}

func NewKafkaNotifier(producer *kafka.Producer, source string, log *logger.Logger) Notifier {
	return &kafkaNotifier{
		producer: producer,
		source:   source,
		log:      log,
	}
}

func (n *kafkaNotifier) Notify(ctx context.Context, eventType string, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	msg := kafka.NewMessage().
		WithKey(event.AppointmentID).
		WithValue(event).
		WithEventType(eventType).
		WithSource(n.source).
		Build()

	if err := n.producer.Publish(ctx, msg); err != nil {
		n.log.Error("Failed to publish appointment event",
			"event_type", eventType,
			"appointment_id", event.AppointmentID,
			"error", err,
		)
	}
}

type noopNotifier struct{}

// NewNoopNotifier is used when no broker is configured.
func NewNoopNotifier() Notifier {
	return noopNotifier{}
}

func (noopNotifier) Notify(context.Context, string, Event) {}
