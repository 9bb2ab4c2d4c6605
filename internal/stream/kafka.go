package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"sensor-analytics/internal/config"
	"sensor-analytics/pkg/models"
)

const kafkaBatch = 100

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink writes every sensor record as a JSON message keyed by device id.
type KafkaSink struct {
	writer    messageWriter
	log       *slog.Logger
	onPublish func(n int)
}

func NewKafkaSink(cfg config.KafkaConfig, log *slog.Logger) *KafkaSink {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newKafkaSink(w, log.With(slog.String("component", "kafka-sink")))
}

func newKafkaSink(w messageWriter, log *slog.Logger) *KafkaSink {
	return &KafkaSink{writer: w, log: log}
}

// OnPublish registers a callback run after each batch with its size.
func (s *KafkaSink) OnPublish(fn func(n int)) {
	s.onPublish = fn
}

// Send writes the main sensor table followed by every user's batch.
func (s *KafkaSink) Send(ctx context.Context, ds *models.Dataset) (int, error) {
	msgs := make([]kafka.Message, 0, kafkaBatch)
	sent := 0
	flush := func() error {
		if len(msgs) == 0 {
			return nil
		}
		if err := s.writer.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("write %d messages: %w", len(msgs), err)
		}
		sent += len(msgs)
		if s.onPublish != nil {
			s.onPublish(len(msgs))
		}
		msgs = msgs[:0]
		return nil
	}
	add := func(rec models.SensorRecord, username string) error {
		b, err := json.Marshal(models.NewReading(rec, username))
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{Key: []byte(rec.DeviceID), Value: b, Time: time.Now()})
		if len(msgs) == kafkaBatch {
			return flush()
		}
		return nil
	}

	for _, rec := range ds.Sensors {
		if err := add(rec, ""); err != nil {
			return sent, err
		}
	}
	for _, u := range ds.Users {
		for _, rec := range u.SensorData {
			if err := add(rec, u.Username); err != nil {
				return sent, err
			}
		}
	}
	if err := flush(); err != nil {
		return sent, err
	}
	s.log.Info("kafka export finished", "messages", sent)
	return sent, nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
