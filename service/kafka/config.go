package kafka

import "github.com/Shopify/sarama"

// AppConfig is the in-code broker configuration; global/config overrides it
// from the environment before InitKafkaClientWith is called.
type AppConfig struct {
	Brokers                 []string
	ClientID                string
	AuditTopic              string // request lifecycle events
	PartitionsPerTopic      int32
	ReplicationFactor       int16
	ProducerRetries         int
	ProducerCompression     string // none/snappy/lz4/zstd
	KafkaVersion            sarama.KafkaVersion
	AutoCreateTopicsOnStart bool
}

// Cfg 默认配置
var Cfg = AppConfig{
	Brokers:                 []string{"127.0.0.1:9092"},
	ClientID:                "healthseva",
	AuditTopic:              "healthseva.request-audit",
	PartitionsPerTopic:      4,
	ReplicationFactor:       1,
	ProducerRetries:         5,
	ProducerCompression:     "snappy",
	KafkaVersion:            sarama.V2_1_0_0,
	AutoCreateTopicsOnStart: true,
}

// Topics lists every topic this process writes to.
func (c *AppConfig) Topics() []string {
	if c.AuditTopic == "" {
		return nil
	}
	return []string{c.AuditTopic}
}
