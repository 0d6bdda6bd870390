// Package transport constructs the Kafka clients with the settings the
// pipeline's delivery guarantees depend on: manual offset commits, earliest
// reset, bounded fetch buffering, acks from all replicas on the publish side.
package transport

import (
	"fmt"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/jobsphere/ms-job/internal/config"
)

// Factories are variables so tests can substitute in-memory fakes, mirroring
// how the construction is exercised without a broker.
var (
	PublisherFactory = func(cfg kafka.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
		return kafka.NewPublisher(cfg, logger)
	}
	ConsumerGroupFactory = func(brokers []string, group string, cfg *sarama.Config) (sarama.ConsumerGroup, error) {
		return sarama.NewConsumerGroup(brokers, group, cfg)
	}
)

// NewPublisher builds the outbound Kafka publisher.
func NewPublisher(conf *config.Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.ClientID = conf.KafkaClientID
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Return.Successes = true

	pub, err := PublisherFactory(kafka.PublisherConfig{
		Brokers:               conf.KafkaBrokers,
		Marshaler:             kafka.DefaultMarshaler{},
		OverwriteSaramaConfig: saramaCfg,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating kafka publisher: %w", err)
	}
	return pub, nil
}

// NewConsumerGroup builds the consumer group for the job events topic.
//
// Offsets are committed manually by the consumer loop, never automatically;
// with no prior commit the group starts from the earliest offset. The channel
// buffer bounds how many messages are fetched ahead of the strictly
// sequential handler.
func NewConsumerGroup(conf *config.Config) (sarama.ConsumerGroup, error) {
	saramaCfg := NewConsumerConfig(conf)

	group, err := ConsumerGroupFactory(conf.KafkaBrokers, conf.KafkaConsumerGroup, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("creating kafka consumer group: %w", err)
	}
	return group, nil
}

// NewConsumerConfig returns the sarama configuration used by the consumer
// group. Exposed separately so its invariants are testable.
func NewConsumerConfig(conf *config.Config) *sarama.Config {
	saramaCfg := sarama.NewConfig()
	saramaCfg.ClientID = conf.KafkaClientID
	saramaCfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	saramaCfg.Consumer.Offsets.AutoCommit.Enable = false
	saramaCfg.Consumer.Return.Errors = true
	saramaCfg.ChannelBufferSize = conf.ConsumerMaxBatch
	return saramaCfg
}
