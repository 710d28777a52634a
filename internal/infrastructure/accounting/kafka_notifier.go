package accounting

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	apporder "github.com/pasarlink/backend/internal/application/order"
	"github.com/pasarlink/backend/internal/infrastructure/config"
)

// KafkaNotifier publishes order notifications for the accounting
// collaborator to a Kafka topic. Publishing is asynchronous; delivery
// failures are logged, never surfaced to order creation.
type KafkaNotifier struct {
	producer sarama.AsyncProducer
	topic    string
	logger   *zap.Logger
}

// NewKafkaNotifier creates a new KafkaNotifier connected to the
// configured brokers
func NewKafkaNotifier(cfg config.KafkaConfig, logger *zap.Logger) (*KafkaNotifier, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.RequiredAcks = sarama.WaitForLocal
	saramaCfg.Producer.Compression = sarama.CompressionSnappy
	saramaCfg.Producer.Flush.Frequency = 500 * time.Millisecond
	saramaCfg.Producer.Retry.Max = 5

	producer, err := sarama.NewAsyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to start kafka producer: %w", err)
	}

	n := &KafkaNotifier{producer: producer, topic: cfg.Topic, logger: logger}

	go func() {
		for err := range producer.Errors() {
			n.logger.Error("failed to deliver accounting notification",
				zap.String("topic", err.Msg.Topic),
				zap.Error(err.Err))
		}
	}()

	return n, nil
}

// NotifyOrderCreated publishes an order-created notification keyed by
// order number so redeliveries for the same order stay in partition order
func (n *KafkaNotifier) NotifyOrderCreated(ctx context.Context, notification apporder.OrderNotification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to encode accounting notification: %w", err)
	}

	select {
	case n.producer.Input() <- &sarama.ProducerMessage{
		Topic: n.topic,
		Key:   sarama.StringEncoder(notification.OrderNumber),
		Value: sarama.ByteEncoder(payload),
	}:
	case <-ctx.Done():
		return ctx.Err()
	}

	n.logger.Debug("accounting notification queued",
		zap.String("order_number", notification.OrderNumber),
		zap.String("topic", n.topic))

	return nil
}

// Close flushes pending messages and shuts the producer down
func (n *KafkaNotifier) Close() error {
	return n.producer.Close()
}

// LogNotifier is a fallback AccountingNotifier used when Kafka is
// disabled. It records the notification in the service log only.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifyOrderCreated logs the notification
func (n *LogNotifier) NotifyOrderCreated(ctx context.Context, notification apporder.OrderNotification) error {
	n.logger.Info("order created",
		zap.String("order_number", notification.OrderNumber),
		zap.String("supplier_id", notification.SupplierID),
		zap.String("total", notification.Total.String()))
	return nil
}
