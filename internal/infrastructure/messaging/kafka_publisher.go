// Package messaging publica las actividades del flujo en Kafka.
package messaging

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"github.com/climatecoin/carbon-api/internal/application/carbon"
	"github.com/climatecoin/carbon-api/internal/domain/entity"
	"github.com/climatecoin/carbon-api/pkg/config"
)

var _ carbon.ActivityPublisher = (*KafkaPublisher)(nil)

// ActivityEvent payload publicado por cada actividad.
type ActivityEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	DocumentID string    `json:"carbon_document_id"`
	UserID     string    `json:"user_id,omitempty"`
	TxnID      string    `json:"txn_id,omitempty"`
	Supply     string    `json:"supply"`
	CreatedAt  time.Time `json:"created_at"`
}

// messageWriter subconjunto de *kafka.Writer usado aquí.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publica con clave = id del documento para conservar el orden por documento.
type KafkaPublisher struct {
	w messageWriter
}

// NewKafkaPublisher devuelve nil si no hay brokers configurados.
func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil
	}
	return &KafkaPublisher{w: &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, a *entity.Activity) error {
	msg, err := toMessage(a)
	if err != nil {
		return err
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: publicar %s: %w", a.ID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

func toMessage(a *entity.Activity) (kafka.Message, error) {
	payload, err := json.Marshal(ActivityEvent{
		ID:         a.ID,
		Type:       a.Type,
		DocumentID: a.CarbonDocumentID,
		UserID:     a.UserID,
		TxnID:      a.TxnID,
		Supply:     a.Supply.String(),
		CreatedAt:  a.CreatedAt,
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka: serializar actividad: %w", err)
	}
	return kafka.Message{
		Key:   []byte(a.CarbonDocumentID),
		Value: payload,
		Time:  a.CreatedAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(a.Type)},
		},
	}, nil
}
