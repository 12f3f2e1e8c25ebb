// Package events publie les événements de commande sur Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"smartshop_back_end/internal/config"
	"smartshop_back_end/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

const (
	OrderCreated       = "order_created"
	OrderStatusChanged = "order_status_changed"
	PaymentUpdated     = "payment_updated"
)

type OrderEvent struct {
	EventType     string               `json:"eventType"`
	OrderNumber   string               `json:"orderNumber"`
	OrderID       string               `json:"orderId"`
	UserID        string               `json:"userId"`
	Status        models.OrderStatus   `json:"status"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	Total         int64                `json:"total"`
	OccurredAt    time.Time            `json:"occurredAt"`
}

func NewOrderEvent(eventType string, o *models.Order, now time.Time) OrderEvent {
	return OrderEvent{
		EventType:     eventType,
		OrderNumber:   o.OrderNumber,
		OrderID:       o.ID.String(),
		UserID:        o.UserID.String(),
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		Total:         o.Total,
		OccurredAt:    now.UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}

// messageWriter est la partie de *kafka.Writer utilisée ici
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}}
}

// Publish : clé = numéro de commande, les événements d'une commande restent ordonnés
func (p *KafkaPublisher) Publish(ctx context.Context, event OrderEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(event.OrderNumber), Value: value}); err != nil {
		return fmt.Errorf("publication %s %s: %w", event.EventType, event.OrderNumber, err)
	}
	log.Debug().Str("event", event.EventType).Str("order", event.OrderNumber).Msg("📨 Événement publié")
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher quand KAFKA_BROKERS est vide
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, OrderEvent) error { return nil }
func (NoopPublisher) Close() error                              { return nil }
