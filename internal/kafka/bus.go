package kafka

import (
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Bus: satu Producer per topic.
type Bus struct {
	producers map[string]*Producer
}

func NewBus(brokers []string, buf int, log *zap.Logger, topics ...string) *Bus {
	b := &Bus{producers: make(map[string]*Producer, len(topics))}
	for _, t := range topics {
		p := NewProducer(brokers, t, buf, log.With(zap.String("topic", t)))
		p.Start()
		b.producers[t] = p
	}
	return b
}

func (b *Bus) Publish(topic string, key, value []byte, headers ...kafka.Header) error {
	p, ok := b.producers[topic]
	if !ok {
		return fmt.Errorf("kafka: unknown topic %q", topic)
	}
	return p.Publish(key, value, headers...)
}

// Close flush semua producer dan menunggu sampai selesai.
func (b *Bus) Close() {
	for _, p := range b.producers {
		p.Close()
	}
	for _, p := range b.producers {
		p.WaitClosed()
	}
}

// Discard dipakai kalau KAFKA_BROKERS kosong.
type Discard struct{}

func (Discard) Publish(string, []byte, []byte, ...kafka.Header) error { return nil }
