package mongoutil

import (
	"context"
	"errors"
	"time"

	"HealthSeva/tools/errs"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultMaxPoolSize = 100
	defaultMaxRetry    = 3
	defaultTimeout     = 5 * time.Second
)

// Config is what NewMongoDB needs; credentials given here override those in
// Uri.
type Config struct {
	Uri         string
	Database    string
	Username    string
	Password    string
	AuthSource  string
	MaxPoolSize int
	MaxRetry    int
	Timeout     time.Duration
}

func (c *Config) ValidateAndSetDefaults() error {
	if c.Uri == "" {
		return errs.ErrArgs.WrapMsg("mongo uri is required")
	}
	if c.Database == "" {
		return errs.ErrArgs.WrapMsg("mongo database is required")
	}
	if c.MaxPoolSize <= 0 {
		c.MaxPoolSize = defaultMaxPoolSize
	}
	if c.MaxRetry <= 0 {
		c.MaxRetry = defaultMaxRetry
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.AuthSource == "" {
		c.AuthSource = "admin"
	}
	return nil
}

func (c *Config) clientOptions() *options.ClientOptions {
	opts := options.Client().
		ApplyURI(c.Uri).
		SetMaxPoolSize(uint64(c.MaxPoolSize)).
		SetAppName("healthseva").
		SetServerSelectionTimeout(c.Timeout).
		SetConnectTimeout(c.Timeout)
	if c.Username != "" {
		opts.SetAuth(options.Credential{
			Username:   c.Username,
			Password:   c.Password,
			AuthSource: c.AuthSource,
		})
	}
	return opts
}

// shouldRetry is false once ctx is done and for authentication failures
// (13 Unauthorized, 18 AuthenticationFailed).
func shouldRetry(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code != 13 && cmdErr.Code != 18
	}
	return true
}
