package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/segmentio/kafka-go"
)

// TopicConfig defines Kafka topic configuration
type TopicConfig struct {
	Name              string
	Partitions        int
	ReplicationFactor int
	RetentionMs       int64
}

// EventsTopic returns the topic layout for knowledge analytics events.
func EventsTopic(name string) TopicConfig {
	return TopicConfig{
		Name:              name,
		Partitions:        3,
		ReplicationFactor: 1,
		RetentionMs:       604800000, // 7 days
	}
}

func (tc TopicConfig) kafkaConfig() kafka.TopicConfig {
	return kafka.TopicConfig{
		Topic:             tc.Name,
		NumPartitions:     tc.Partitions,
		ReplicationFactor: tc.ReplicationFactor,
		ConfigEntries: []kafka.ConfigEntry{
			{ConfigName: "retention.ms", ConfigValue: strconv.FormatInt(tc.RetentionMs, 10)},
			{ConfigName: "cleanup.policy", ConfigValue: "delete"},
		},
	}
}

// EnsureTopic creates the topic through the cluster controller. Creating an
// existing topic is not an error.
func EnsureTopic(ctx context.Context, broker string, topic TopicConfig) error {
	conn, err := kafka.DialContext(ctx, "tcp", broker)
	if err != nil {
		return fmt.Errorf("dial %s: %w", broker, err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("find controller: %w", err)
	}

	addr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	ctrlConn, err := kafka.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial controller %s: %w", addr, err)
	}
	defer ctrlConn.Close()

	if err := ctrlConn.CreateTopics(topic.kafkaConfig()); err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", topic.Name, err)
	}
	return nil
}
