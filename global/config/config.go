package config

import (
	"os"
	"strings"

	"HealthSeva/tools"
	"HealthSeva/tools/errs"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Load builds the configuration: in-code defaults, then the YAML file at path
// (skipped when path is empty), then HS_* environment variables.
func Load(path string) (*AppConfig, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errs.WrapMsg(err, "read config", "path", path)
		}
		if err := decodeYAML(b, &cfg); err != nil {
			return nil, errs.WrapMsg(err, "decode config", "path", path)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// decodeYAML goes through a generic map so that mapstructure can apply weak
// typing and duration strings onto out.
func decodeYAML(b []byte, out any) error {
	raw := map[string]any{}
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return err
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

func applyEnv(c *AppConfig) {
	c.ServiceName = tools.GetEnv("HS_SERVICE_NAME", c.ServiceName)
	c.InstanceID = tools.GetEnv("HS_INSTANCE_ID", c.InstanceID)
	c.Advertise = tools.GetEnv("HS_ADVERTISE", c.Advertise)
	c.HTTPPort = tools.GetEnvInt("HS_HTTP_PORT", c.HTTPPort)
	c.GRPCPort = tools.GetEnvInt("HS_GRPC_PORT", c.GRPCPort)
	c.NodeID = int64(tools.GetEnvInt("HS_NODE_ID", int(c.NodeID)))
	c.LogLevel = tools.GetEnv("LOG_LEVEL", c.LogLevel)
	c.AllowedOrigins = tools.GetEnvList("HS_ALLOWED_ORIGINS", c.AllowedOrigins)
	c.ShutdownGrace = tools.GetEnvDuration("HS_SHUTDOWN_GRACE", c.ShutdownGrace)
	c.Admins = tools.GetEnvList("HS_ADMINS", c.Admins)

	c.Store = tools.GetEnv("HS_STORE", c.Store)
	c.Mongo.Uri = tools.GetEnv("HS_MONGO_URI", c.Mongo.Uri)
	c.Mongo.Database = tools.GetEnv("HS_MONGO_DATABASE", c.Mongo.Database)
	c.Mongo.Username = tools.GetEnv("HS_MONGO_USERNAME", c.Mongo.Username)
	c.Mongo.Password = tools.GetEnv("HS_MONGO_PASSWORD", c.Mongo.Password)

	c.Redis.Enabled = tools.GetEnvBool("HS_REDIS_ENABLED", c.Redis.Enabled)
	c.Redis.Addr = tools.GetEnv("HS_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = tools.GetEnv("HS_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = tools.GetEnvInt("HS_REDIS_DB", c.Redis.DB)

	c.Nats.Enabled = tools.GetEnvBool("HS_NATS_ENABLED", c.Nats.Enabled)
	c.Nats.Servers = tools.GetEnvList("HS_NATS_SERVERS", c.Nats.Servers)
	c.Nats.User = tools.GetEnv("HS_NATS_USER", c.Nats.User)
	c.Nats.Password = tools.GetEnv("HS_NATS_PASSWORD", c.Nats.Password)

	c.Kafka.Enabled = tools.GetEnvBool("HS_KAFKA_ENABLED", c.Kafka.Enabled)
	c.Kafka.Brokers = tools.GetEnvList("HS_KAFKA_BROKERS", c.Kafka.Brokers)
	c.Kafka.AuditTopic = tools.GetEnv("HS_KAFKA_AUDIT_TOPIC", c.Kafka.AuditTopic)

	c.Nacos.Enabled = tools.GetEnvBool("HS_NACOS_ENABLED", c.Nacos.Enabled)
	c.Nacos.Host = tools.GetEnv("HS_NACOS_HOST", c.Nacos.Host)
	c.Nacos.Port = uint64(tools.GetEnvInt("HS_NACOS_PORT", int(c.Nacos.Port)))
	c.Nacos.Namespace = tools.GetEnv("HS_NACOS_NAMESPACE", c.Nacos.Namespace)
	c.Nacos.Username = tools.GetEnv("HS_NACOS_USERNAME", c.Nacos.Username)
	c.Nacos.Password = tools.GetEnv("HS_NACOS_PASSWORD", c.Nacos.Password)

	c.Consul.Addr = tools.GetEnv("CONSUL_ADDR", c.Consul.Addr)
	c.Registry = tools.GetEnv("HS_REGISTRY", c.Registry)

	c.JWT.Secret = tools.GetEnv("HS_JWT_SECRET", c.JWT.Secret)
	c.JWT.TTL = tools.GetEnvDuration("HS_JWT_TTL", c.JWT.TTL)

	c.Feed.Source = tools.GetEnv("HS_FEED_SOURCE", c.Feed.Source)
	c.Live.MaxPerUser = tools.GetEnvInt("HS_LIVE_MAX_PER_USER", c.Live.MaxPerUser)
}

func (c *AppConfig) Validate() error {
	if c.HTTPPort <= 0 {
		return errs.ErrArgs.WrapMsg("http_port must be positive", "http_port", c.HTTPPort)
	}
	if c.NodeID < 0 || c.NodeID > 1023 {
		return errs.ErrArgs.WrapMsg("node_id out of range", "node_id", c.NodeID)
	}
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errs.ErrArgs.WrapMsg("jwt secret is required (HS_JWT_SECRET)")
	}
	switch c.Registry {
	case "", RegistryNone, RegistryConsul, RegistryNacos:
	default:
		return errs.ErrArgs.WrapMsg("unknown registry", "registry", c.Registry)
	}
	switch c.Store {
	case StoreMongo, StoreMemory:
	default:
		return errs.ErrArgs.WrapMsg("unknown store", "store", c.Store)
	}
	switch c.Feed.Source {
	case FeedSourceLocal:
	case FeedSourceMongo:
		if c.Store != StoreMongo {
			return errs.ErrArgs.WrapMsg("feed source mongo requires the mongo store")
		}
	case FeedSourceNats:
		if !c.Nats.Enabled {
			return errs.ErrArgs.WrapMsg("feed source nats requires nats.enabled")
		}
	default:
		return errs.ErrArgs.WrapMsg("unknown feed source", "source", c.Feed.Source)
	}
	return nil
}

// Dynamic is the runtime-reloadable part, published as YAML in nacos.
type Dynamic struct {
	Admins   []string `mapstructure:"admins"`
	LogLevel string   `mapstructure:"log_level"`
}

func ParseDynamic(content string) (Dynamic, error) {
	var d Dynamic
	if strings.TrimSpace(content) == "" {
		return d, nil
	}
	if err := decodeYAML([]byte(content), &d); err != nil {
		return d, errs.ErrArgs.WrapMsg("dynamic config", "err", err)
	}
	return d, nil
}
