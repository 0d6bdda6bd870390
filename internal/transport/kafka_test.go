package transport

import (
	"testing"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobsphere/ms-job/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{"localhost:9092"},
		KafkaClientID:      "ms-job",
		KafkaConsumerGroup: "jobs-processor-group",
		JobEventsTopic:     "job-events",
		ConsumerMaxBatch:   10,
	}
}

func TestNewConsumerConfig(t *testing.T) {
	cfg := NewConsumerConfig(testConfig())

	assert.Equal(t, "ms-job", cfg.ClientID)
	assert.Equal(t, sarama.OffsetOldest, cfg.Consumer.Offsets.Initial,
		"with no prior commit the group must start from the earliest offset")
	assert.False(t, cfg.Consumer.Offsets.AutoCommit.Enable,
		"offsets are committed manually by the consumer loop")
	assert.True(t, cfg.Consumer.Return.Errors)
	assert.Equal(t, 10, cfg.ChannelBufferSize)
}

func TestNewConsumerGroupUsesFactory(t *testing.T) {
	orig := ConsumerGroupFactory
	defer func() { ConsumerGroupFactory = orig }()

	var gotBrokers []string
	var gotGroup string
	ConsumerGroupFactory = func(brokers []string, group string, cfg *sarama.Config) (sarama.ConsumerGroup, error) {
		gotBrokers = brokers
		gotGroup = group
		return nil, nil
	}

	_, err := NewConsumerGroup(testConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:9092"}, gotBrokers)
	assert.Equal(t, "jobs-processor-group", gotGroup)
}

func TestNewPublisherUsesFactory(t *testing.T) {
	orig := PublisherFactory
	defer func() { PublisherFactory = orig }()

	var gotCfg kafka.PublisherConfig
	PublisherFactory = func(cfg kafka.PublisherConfig, _ watermill.LoggerAdapter) (message.Publisher, error) {
		gotCfg = cfg
		return nil, nil
	}

	_, err := NewPublisher(testConfig(), watermill.NopLogger{})
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:9092"}, gotCfg.Brokers)
	require.NotNil(t, gotCfg.OverwriteSaramaConfig)
	assert.Equal(t, sarama.WaitForAll, gotCfg.OverwriteSaramaConfig.Producer.RequiredAcks)
	assert.True(t, gotCfg.OverwriteSaramaConfig.Producer.Return.Successes)
}
