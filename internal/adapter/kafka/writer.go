package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/tardus/office-planner/internal/config"
	"github.com/tardus/office-planner/internal/domain"
	"github.com/tardus/office-planner/internal/observability"
)

const eventTypeApplicationCreated = "application.created"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes accepted applications to a Kafka topic.
// It implements domain.ApplicationPublisher.
type Writer struct {
	writer  messageWriter
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured applications topic.
func NewWriter(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaApplicationsTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, metrics: metrics, logger: logger}
}

// PublishApplication writes one message keyed by the applicant ID.
func (w *Writer) PublishApplication(ctx context.Context, a domain.Applicant) error {
	msg, err := serializeToMessage(a)
	if err != nil {
		w.metrics.EventsPublished.WithLabelValues("error").Inc()
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		w.metrics.EventsPublished.WithLabelValues("error").Inc()
		return fmt.Errorf("publish application %d: %w", a.ID, err)
	}
	w.metrics.EventsPublished.WithLabelValues("success").Inc()
	w.logger.Debug("application event published", "applicant_id", a.ID, "office", a.OfficeLocation)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// applicationEvent is the wire form of a created application. Contact
// details beyond name and email stay in the database.
type applicationEvent struct {
	ApplicantID    int64     `json:"applicantId"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	OfficeLocation string    `json:"officeLocation"`
	ResumeFile     *string   `json:"resumeFile,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

func serializeToMessage(a domain.Applicant) (kafkago.Message, error) {
	data, err := json.Marshal(applicationEvent{
		ApplicantID:    a.ID,
		Name:           a.Name,
		Email:          a.Email,
		OfficeLocation: a.OfficeLocation,
		ResumeFile:     a.ResumeFile,
		CreatedAt:      a.CreatedAt,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize application event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.FormatInt(a.ID, 10)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(eventTypeApplicationCreated)},
			{Key: "created_at", Value: []byte(a.CreatedAt.Format(time.RFC3339))},
		},
	}, nil
}
