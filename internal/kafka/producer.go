package kafka

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
)

// Producer publishes JSON events to a single topic; the routing key becomes
// the record key.
type Producer struct {
	sync  sarama.SyncProducer
	topic string
}

func NewProducer(brokers []string, topic string, cfg *sarama.Config) (*Producer, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Return.Successes = true
	cfg.Net.MaxOpenRequests = 1
	sync, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return newProducer(sync, topic), nil
}

func newProducer(sync sarama.SyncProducer, topic string) *Producer {
	return &Producer{sync: sync, topic: topic}
}

func (p *Producer) Publish(ctx context.Context, routingKey string, event any, headers map[string]string) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	var hs []sarama.RecordHeader
	for k, v := range headers {
		if v == "" {
			continue
		}
		hs = append(hs, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}
	msg := &sarama.ProducerMessage{
		Topic:   p.topic,
		Key:     sarama.StringEncoder(routingKey),
		Value:   sarama.ByteEncoder(payload),
		Headers: hs,
	}
	_, _, err = p.sync.SendMessage(msg)
	return err
}

func (p *Producer) Close() error {
	if p.sync == nil {
		return nil
	}
	return p.sync.Close()
}
