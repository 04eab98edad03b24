package pkg

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	EventUserCreated      = "user.created"
	EventUserArchived     = "user.archived"
	EventCommunityCreated = "community.created"
	EventCommunityUpdated = "community.updated"
	EventCommunityDeleted = "community.deleted"
	EventMemberAdded      = "community.member_added"
	EventMemberRemoved    = "community.member_removed"
)

// Event is a domain notification keyed by the aggregate it concerns.
type Event struct {
	Type        string    `json:"type"`
	AggregateID string    `json:"aggregateId"`
	ActorID     string    `json:"actorId,omitempty"`
	Data        any       `json:"data,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

func NewEvent(eventType, aggregateID, actorID string, data any) Event {
	return Event{
		Type:        eventType,
		AggregateID: aggregateID,
		ActorID:     actorID,
		Data:        data,
		OccurredAt:  time.Now().UTC(),
	}
}

type KafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func NewKafkaProducer(cfg KafkaConfig) (*KafkaProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
		Async:                  false,
		AllowAutoTopicCreation: true,
	}
	return &KafkaProducer{writer: w, topic: cfg.Topic}, nil
}

func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func (p *KafkaProducer) Send(ctx context.Context, key string, value []byte) error {
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Publish writes ev as JSON; events of one aggregate share a partition.
func (p *KafkaProducer) Publish(ctx context.Context, ev Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", ev.Type, err)
	}
	return p.Send(ctx, ev.AggregateID, value)
}

// LogPublisher is used when no broker is configured.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) Publish(ctx context.Context, ev Event) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "event.publish",
		"type", ev.Type,
		"aggregate_id", ev.AggregateID,
		"actor_id", ev.ActorID,
	)
	return nil
}
