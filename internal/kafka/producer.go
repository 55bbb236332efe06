package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/psds-microservice/inquiry-service/internal/notify"
	"github.com/segmentio/kafka-go"
)

// InquiryEventProducer отправляет события заявок в Kafka (для подмены моком в тестах).
type InquiryEventProducer interface {
	ProduceInquiryEvent(ctx context.Context, event string, key string, payload map[string]interface{}) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer пишет события заявок в топик Kafka. Ключ сообщения: id заявки,
// поэтому события одной заявки идут по порядку внутри партиции.
type Producer struct {
	writer messageWriter
	topic  string
}

// NewProducer создаёт продюсер. Если brokers пустой или topic пустой, методы no-op.
func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 || topic == "" {
		return &Producer{}
	}
	return &Producer{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *Producer) Enabled() bool { return p.writer != nil }

func (p *Producer) ProduceInquiryEvent(ctx context.Context, event, key string, payload map[string]interface{}) error {
	if p.writer == nil {
		return nil
	}
	msg := map[string]interface{}{"event": event}
	for k, v := range payload {
		msg[k] = v
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("kafka: marshal inquiry event: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: body}); err != nil {
		return fmt.Errorf("kafka: write inquiry event: %w", err)
	}
	return nil
}

// Notify позволяет включить продюсер в notify.Fanout.
func (p *Producer) Notify(ctx context.Context, e notify.Event) error {
	return p.ProduceInquiryEvent(ctx, e.Name, e.InquiryID.String(), e.Payload())
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// ParseBrokers разбивает строку брокеров "host1:9092,host2:9092" на слайс.
func ParseBrokers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
