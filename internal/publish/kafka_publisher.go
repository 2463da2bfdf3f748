package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IBM/sarama"
	"github.com/Mantelijo/waveportal/internal/chain"
)

// WaveMessage is the kafka payload of a single wave.
type WaveMessage struct {
	Address   string `json:"address"`
	Timestamp int64  `json:"timestamp"`
	Message   string `json:"message"`
}

// NewKafkaPublisher creates a sync producer for the given brokers. Records
// are keyed by the lower-cased waver address so that waves of one address
// land on the same partition.
func NewKafkaPublisher(brokers []string, topic string) (*kafkaPublisher, error) {
	conf := sarama.NewConfig()
	conf.Producer.Return.Successes = true
	conf.Producer.RequiredAcks = sarama.WaitForAll
	conf.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(brokers, conf)
	if err != nil {
		return nil, fmt.Errorf("creating kafka producer: %w", err)
	}
	return newKafkaPublisher(producer, topic), nil
}

func newKafkaPublisher(producer sarama.SyncProducer, topic string) *kafkaPublisher {
	return &kafkaPublisher{
		producer: producer,
		topic:    topic,
	}
}

type kafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func (p *kafkaPublisher) Publish(ctx context.Context, record chain.WaveRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := json.Marshal(WaveMessage{
		Address:   record.Address,
		Timestamp: record.Timestamp.Unix(),
		Message:   record.Message,
	})
	if err != nil {
		return fmt.Errorf("encoding wave: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strings.ToLower(record.Address)),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return fmt.Errorf("publishing wave: %w", err)
	}

	slog.Debug("published wave",
		slog.String("topic", p.topic),
		slog.Int("partition", int(partition)),
		slog.Int64("offset", offset),
	)
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}
