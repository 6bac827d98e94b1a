package kafka

import (
	"encoding/json"
	"errors"
	"testing"

	"HealthSeva/tools/errs"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
)

func TestBuildBaseConfigWith(t *testing.T) {
	cfg := BuildBaseConfigWith(&AppConfig{ProducerCompression: "lz4", ClientID: "hs-test"})
	if cfg.Producer.Compression != sarama.CompressionLZ4 {
		t.Fatalf("compression = %v", cfg.Producer.Compression)
	}
	if cfg.Producer.Retry.Max != 1 {
		t.Fatalf("retries = %d, want floor of 1", cfg.Producer.Retry.Max)
	}
	if cfg.ClientID != "hs-test" {
		t.Fatalf("client id = %s", cfg.ClientID)
	}
	if !cfg.Producer.Return.Successes {
		t.Fatal("sync producer needs Return.Successes")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestInitKafkaClientWithNoBrokers(t *testing.T) {
	_, err := InitKafkaClientWith(&AppConfig{})
	if !errors.Is(err, errs.ErrArgs) {
		t.Fatalf("err = %v, want ErrArgs", err)
	}
}

func TestSenderSendJSON(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	prod := mocks.NewSyncProducer(t, cfg)
	prod.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var m map[string]string
		if err := json.Unmarshal(val, &m); err != nil {
			return err
		}
		if m["event"] != "created" {
			return errors.New("unexpected event " + m["event"])
		}
		return nil
	})

	s := NewSender(prod, "audit")
	if err := s.SendJSON("r1", map[string]string{"event": "created"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestSenderSendFailureIsTransport(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	prod := mocks.NewSyncProducer(t, cfg)
	prod.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	s := NewSender(prod, "audit")
	err := s.SendJSON("r1", map[string]string{"event": "created"})
	if !errors.Is(err, errs.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
	_ = s.Close()
}
