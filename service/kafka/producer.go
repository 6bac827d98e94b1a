package kafka

import (
	"encoding/json"
	"strings"
	"time"

	"HealthSeva/tools/errs"

	"github.com/Shopify/sarama"
	"github.com/golang/glog"
)

func BuildBaseConfigWith(appCfg *AppConfig) *sarama.Config {
	cfg := sarama.NewConfig()

	if appCfg.KafkaVersion == (sarama.KafkaVersion{}) {
		cfg.Version = sarama.V2_1_0_0
	} else {
		cfg.Version = appCfg.KafkaVersion
	}
	if appCfg.ClientID != "" {
		cfg.ClientID = appCfg.ClientID
	}

	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll

	retries := appCfg.ProducerRetries
	if retries <= 0 {
		retries = 1
	}
	cfg.Producer.Retry.Max = retries

	// the key (request id) picks the partition, so one request's events stay ordered
	cfg.Producer.Partitioner = sarama.NewHashPartitioner

	switch strings.ToLower(appCfg.ProducerCompression) {
	case "snappy":
		cfg.Producer.Compression = sarama.CompressionSnappy
	case "lz4":
		cfg.Producer.Compression = sarama.CompressionLZ4
	case "zstd":
		cfg.Producer.Compression = sarama.CompressionZSTD
	default:
		cfg.Producer.Compression = sarama.CompressionNone
	}

	cfg.Net.DialTimeout = 10 * time.Second
	cfg.Net.ReadTimeout = 30 * time.Second
	cfg.Net.WriteTimeout = 30 * time.Second
	return cfg
}

func InitKafkaClientWith(appCfg *AppConfig) (sarama.Client, error) {
	if len(appCfg.Brokers) == 0 {
		return nil, errs.ErrArgs.WrapMsg("kafka brokers is empty")
	}
	cfg := BuildBaseConfigWith(appCfg)
	if err := cfg.Validate(); err != nil {
		return nil, errs.WrapMsg(err, "sarama config validate")
	}
	c, err := sarama.NewClient(appCfg.Brokers, cfg)
	if err != nil {
		return nil, errs.ErrTransport.WrapMsg("kafka client", "err", err)
	}
	return c, nil
}

// Sender publishes JSON values to one topic through a sync producer.
type Sender struct {
	prod  sarama.SyncProducer
	topic string
}

func NewSender(prod sarama.SyncProducer, topic string) *Sender {
	return &Sender{prod: prod, topic: topic}
}

// NewSenderFromClient builds the sync producer on top of an existing client.
func NewSenderFromClient(client sarama.Client, topic string) (*Sender, error) {
	p, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		return nil, errs.ErrTransport.WrapMsg("kafka producer", "err", err)
	}
	return NewSender(p, topic), nil
}

func (s *Sender) Topic() string { return s.topic }

func (s *Sender) SendJSON(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errs.Wrap(err)
	}
	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(b),
	}
	partition, offset, err := s.prod.SendMessage(msg)
	if err != nil {
		return errs.ErrTransport.WrapMsg("kafka send", "topic", s.topic, "err", err)
	}
	glog.V(2).Infof("[Kafka] sent topic=%s key=%s partition=%d offset=%d", s.topic, key, partition, offset)
	return nil
}

func (s *Sender) Close() error {
	if s == nil || s.prod == nil {
		return nil
	}
	return s.prod.Close()
}
