package config

import "time"

const (
	RegistryNone   = "none"
	RegistryConsul = "consul"
	RegistryNacos  = "nacos"

	FeedSourceLocal = "local" // in-process notifications only
	FeedSourceNats  = "nats"  // change events shared across instances
	FeedSourceMongo = "mongo" // change stream, needs a replica set

	StoreMongo  = "mongo"
	StoreMemory = "memory" // single process, nothing persisted
)

type AppConfig struct {
	ServiceName    string        `mapstructure:"service_name"`
	InstanceID     string        `mapstructure:"instance_id"`
	Advertise      string        `mapstructure:"advertise"` // address published to the registry
	HTTPPort       int           `mapstructure:"http_port"`
	GRPCPort       int           `mapstructure:"grpc_port"`
	NodeID         int64         `mapstructure:"node_id"` // snowflake node, 0~1023
	LogLevel       string        `mapstructure:"log_level"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ShutdownGrace  time.Duration `mapstructure:"shutdown_grace"`

	// Admins is the initial allow-list; the nacos entry replaces it at runtime.
	Admins []string `mapstructure:"admins"`

	Store    string       `mapstructure:"store"`
	Mongo    MongoConfig  `mapstructure:"mongo"`
	Redis    RedisConfig  `mapstructure:"redis"`
	Nats     NatsConfig   `mapstructure:"nats"`
	Kafka    KafkaConfig  `mapstructure:"kafka"`
	Nacos    NacosConfig  `mapstructure:"nacos"`
	Consul   ConsulConfig `mapstructure:"consul"`
	Registry string       `mapstructure:"registry"`
	JWT      JWTConfig    `mapstructure:"jwt"`
	Feed     FeedConfig   `mapstructure:"feed"`
	Live     LiveConfig   `mapstructure:"live"`
}

type MongoConfig struct {
	Uri         string        `mapstructure:"uri"`
	Database    string        `mapstructure:"database"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	MaxPoolSize int           `mapstructure:"max_pool_size"`
	ReadyWait   time.Duration `mapstructure:"ready_wait"` // how long boot waits for the first connect
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	PoolSize int           `mapstructure:"pool_size"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"` // profile cache
}

type NatsConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Servers  []string `mapstructure:"servers"`
	User     string   `mapstructure:"user"`
	Password string   `mapstructure:"password"`
	Subject  string   `mapstructure:"subject"` // request change events
}

type KafkaConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	Brokers    []string `mapstructure:"brokers"`
	AuditTopic string   `mapstructure:"audit_topic"`
}

type NacosConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      uint64 `mapstructure:"port"`
	Namespace string `mapstructure:"namespace"`
	Group     string `mapstructure:"group"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	DataID    string `mapstructure:"data_id"` // dynamic settings (admins, log level)
}

type ConsulConfig struct {
	Addr string        `mapstructure:"addr"`
	TTL  time.Duration `mapstructure:"ttl"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Alg    string        `mapstructure:"alg"`
	TTL    time.Duration `mapstructure:"ttl"`
	Issuer string        `mapstructure:"issuer"`
}

type FeedConfig struct {
	Source   string        `mapstructure:"source"`
	Debounce time.Duration `mapstructure:"debounce"` // coalescing window for refreshes
}

// LiveConfig tunes the websocket feed; zero values pick the service/live defaults.
type LiveConfig struct {
	UnauthTTL    time.Duration `mapstructure:"unauth_ttl"`
	PingInterval time.Duration `mapstructure:"ping_interval"`
	PresenceTTL  time.Duration `mapstructure:"presence_ttl"`
	MaxPerUser   int           `mapstructure:"max_per_user"`
	MaxMessage   int64         `mapstructure:"max_message"`
}

// Default is the in-code baseline every loader starts from.
func Default() AppConfig {
	return AppConfig{
		ServiceName:    "healthseva",
		InstanceID:     "healthseva-1",
		Advertise:      "127.0.0.1",
		HTTPPort:       8080,
		GRPCPort:       50051,
		NodeID:         1,
		LogLevel:       "info",
		AllowedOrigins: []string{"*"},
		ShutdownGrace:  10 * time.Second,
		Store:          StoreMongo,
		Mongo: MongoConfig{
			Uri:         "mongodb://localhost:27017",
			Database:    "healthseva",
			MaxPoolSize: 20,
			ReadyWait:   15 * time.Second,
		},
		Redis: RedisConfig{
			Addr:     "127.0.0.1:6379",
			CacheTTL: 5 * time.Minute,
		},
		Nats: NatsConfig{
			Servers: []string{"nats://127.0.0.1:4222"},
			Subject: "healthseva.requests.changed",
		},
		Kafka: KafkaConfig{
			Brokers:    []string{"127.0.0.1:9092"},
			AuditTopic: "healthseva.request-audit",
		},
		Nacos: NacosConfig{
			Host:   "127.0.0.1",
			Port:   8848,
			Group:  "DEFAULT_GROUP",
			DataID: "healthseva.yaml",
		},
		Consul:   ConsulConfig{Addr: "127.0.0.1:8500", TTL: 10 * time.Second},
		Registry: RegistryNone,
		JWT:      JWTConfig{Alg: "HS256", TTL: 24 * time.Hour, Issuer: "healthseva"},
		Feed:     FeedConfig{Source: FeedSourceLocal, Debounce: 50 * time.Millisecond},
		Live:     LiveConfig{UnauthTTL: time.Minute, PingInterval: 25 * time.Second, MaxPerUser: 5},
	}
}
