package config

import (
	"context"

	"HealthSeva/data/database/mgo/mongoutil"
	"HealthSeva/logger"
	ka "HealthSeva/service/kafka"
	mgoSrv "HealthSeva/service/mgo"
	"HealthSeva/service/nacos"
	"HealthSeva/service/natsx"
	redis "HealthSeva/service/storage/redis"
	"HealthSeva/tools/ids"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Infra carries the optional clients ConfigAll managed to bring up; a nil
// field means the dependency is disabled or unreachable.
type Infra struct {
	Redis  *goredis.Client
	Audit  *ka.Sender
	NatsUp bool
}

func (i *Infra) Close() {
	if i.Audit != nil {
		_ = i.Audit.Close()
	}
	if i.NatsUp {
		_ = natsx.StopNats()
	}
	if i.Redis != nil {
		_ = redis.CloseRedis()
	}
}

// ConfigAll brings up every backend. Mongo is started asynchronously and
// waited for up to Mongo.ReadyWait; the optional ones log and stay nil on failure.
func ConfigAll(ctx context.Context, cfg *AppConfig) *Infra {
	logger.SetLevel(cfg.LogLevel)
	ConfigIds(cfg)

	if cfg.Store == StoreMemory {
		logger.Warn("[Boot] memory store selected, nothing is persisted")
	} else if err := ConfigMgo(ctx, cfg); err != nil {
		logger.Warn("[Boot] mongo not ready yet, reads degrade to empty", zap.Error(err))
	}

	infra := &Infra{}
	if cfg.Redis.Enabled {
		cli, err := ConfigRedis(cfg)
		if err != nil {
			logger.Warn("[Boot] redis disabled", zap.Error(err))
		}
		infra.Redis = cli
	}
	if cfg.Nats.Enabled {
		if err := ConfigNats(cfg); err != nil {
			logger.Warn("[Boot] nats disabled", zap.Error(err))
		} else {
			infra.NatsUp = true
		}
	}
	if cfg.Kafka.Enabled {
		sender, err := ConfigKafka(cfg)
		if err != nil {
			logger.Warn("[Boot] kafka audit disabled", zap.Error(err))
		}
		infra.Audit = sender
	}
	return infra
}

func ConfigIds(cfg *AppConfig) {
	logger.Info("[Boot] snowflake node", zap.Int64("node", cfg.NodeID))
	ids.SetNodeID(cfg.NodeID)
}

func ConfigMgo(ctx context.Context, cfg *AppConfig) error {
	mc := &mongoutil.Config{
		Uri:         cfg.Mongo.Uri,
		Database:    cfg.Mongo.Database,
		Username:    cfg.Mongo.Username,
		Password:    cfg.Mongo.Password,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
		MaxRetry:    1, // StartAsync does its own backoff
	}
	mgoSrv.StartAsync(ctx, mc)

	wctx, cancel := context.WithTimeout(ctx, cfg.Mongo.ReadyWait)
	defer cancel()
	return mgoSrv.WaitReady(wctx, mgoSrv.Manager())
}

func ConfigRedis(cfg *AppConfig) (*goredis.Client, error) {
	err := redis.InitRedis(redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		return nil, err
	}
	return redis.GetRedis(), nil
}

func ConfigNats(cfg *AppConfig) error {
	return natsx.StartNats(natsx.NatsxConfig{
		Servers:  cfg.Nats.Servers,
		Name:     cfg.InstanceID,
		User:     cfg.Nats.User,
		Password: cfg.Nats.Password,
	})
}

func ConfigKafka(cfg *AppConfig) (*ka.Sender, error) {
	kc := ka.Cfg
	kc.Brokers = cfg.Kafka.Brokers
	kc.AuditTopic = cfg.Kafka.AuditTopic
	kc.ClientID = cfg.InstanceID

	if kc.AutoCreateTopicsOnStart {
		if err := ka.EnsureTopics(&kc); err != nil {
			logger.Warn("[Kafka] ensure topics", zap.Error(err))
		}
	}
	client, err := ka.InitKafkaClientWith(&kc)
	if err != nil {
		return nil, err
	}
	sender, err := ka.NewSenderFromClient(client, kc.AuditTopic)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return sender, nil
}

func NacosClientConfig(cfg *AppConfig) nacos.Config {
	return nacos.Config{
		Host:      cfg.Nacos.Host,
		Port:      cfg.Nacos.Port,
		Namespace: cfg.Nacos.Namespace,
		Group:     cfg.Nacos.Group,
		Username:  cfg.Nacos.Username,
		Password:  cfg.Nacos.Password,
	}
}

// WatchDynamic hands every nacos revision of Nacos.DataID to apply. Malformed
// revisions are logged and skipped.
func WatchDynamic(ctx context.Context, cfg *AppConfig, apply func(Dynamic)) error {
	_, err := nacos.StartNacosWatcher(ctx, NacosClientConfig(cfg), cfg.Nacos.DataID, func(content string) {
		d, err := ParseDynamic(content)
		if err != nil {
			logger.Error("[Nacos] bad dynamic config, keeping previous", zap.Error(err))
			return
		}
		if d.LogLevel != "" {
			logger.SetLevel(d.LogLevel)
		}
		apply(d)
	})
	return err
}
