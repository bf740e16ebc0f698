package pkg

import (
	"context"
	"strconv"

	"Memoir_Community/internal/model"

	"github.com/segmentio/kafka-go"
)

// KafkaProducer 关注事件的下游投递端
type KafkaProducer struct {
	writer *kafka.Writer
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func NewKafkaProducer(cfg KafkaConfig) (*KafkaProducer, error) {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
	return &KafkaProducer{writer: w}, nil
}

func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// SendEvent 投递一条outbox事件，按follower哈希分区，同一用户的事件保序
func (p *KafkaProducer) SendEvent(ctx context.Context, ob *model.SocialOutbox) error {
	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(ob.Follower, 10)),
		Value: []byte(ob.Payload),
	}
	return p.writer.WriteMessages(ctx, msg)
}
