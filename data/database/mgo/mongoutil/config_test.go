package mongoutil

import (
	"context"
	"errors"
	"testing"

	"HealthSeva/tools/errs"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestValidateAndSetDefaults(t *testing.T) {
	c := &Config{Uri: "mongodb://localhost:27017", Database: "hs"}
	if err := c.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if c.MaxPoolSize != defaultMaxPoolSize || c.MaxRetry != defaultMaxRetry || c.Timeout != defaultTimeout || c.AuthSource != "admin" {
		t.Fatalf("defaults = %+v", c)
	}
	if err := (&Config{Database: "hs"}).ValidateAndSetDefaults(); !errors.Is(err, errs.ErrArgs) {
		t.Fatalf("missing uri = %v", err)
	}
	if err := (&Config{Uri: "mongodb://x"}).ValidateAndSetDefaults(); !errors.Is(err, errs.ErrArgs) {
		t.Fatalf("missing database = %v", err)
	}
}

func TestShouldRetry(t *testing.T) {
	ctx := context.Background()
	if shouldRetry(ctx, mongo.CommandError{Code: 18}) {
		t.Fatal("auth failure retried")
	}
	if !shouldRetry(ctx, errors.New("connection refused")) {
		t.Fatal("network error not retried")
	}
	done, cancel := context.WithCancel(ctx)
	cancel()
	if shouldRetry(done, errors.New("connection refused")) {
		t.Fatal("retried after cancel")
	}
}
