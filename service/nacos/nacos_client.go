package nacos

import (
	"sync"

	"HealthSeva/tools/errs"

	"github.com/nacos-group/nacos-sdk-go/v2/clients"
	"github.com/nacos-group/nacos-sdk-go/v2/clients/config_client"
	"github.com/nacos-group/nacos-sdk-go/v2/clients/naming_client"
	"github.com/nacos-group/nacos-sdk-go/v2/common/constant"
	"github.com/nacos-group/nacos-sdk-go/v2/vo"
)

type Config struct {
	Host      string
	Port      uint64
	Namespace string
	Username  string
	Password  string
	Group     string
	LogDir    string
	CacheDir  string
	LogLevel  string
}

func (c Config) group() string {
	if c.Group == "" {
		return "DEFAULT_GROUP"
	}
	return c.Group
}

var (
	clientMu  sync.Mutex
	configCli config_client.IConfigClient
	namingCli naming_client.INamingClient
)

func InitNacosConfigClient(c Config) (config_client.IConfigClient, error) {
	clientMu.Lock()
	defer clientMu.Unlock()
	if configCli != nil {
		return configCli, nil
	}
	client, err := clients.NewConfigClient(vo.NacosClientParam{
		ClientConfig:  clientConfig(c),
		ServerConfigs: serverConfigs(c),
	})
	if err != nil {
		return nil, errs.ErrTransport.WrapMsg("nacos config client", "err", err)
	}
	configCli = client
	return configCli, nil
}

func InitNacosNamingClient(c Config) (naming_client.INamingClient, error) {
	clientMu.Lock()
	defer clientMu.Unlock()
	if namingCli != nil {
		return namingCli, nil
	}
	client, err := clients.NewNamingClient(vo.NacosClientParam{
		ClientConfig:  clientConfig(c),
		ServerConfigs: serverConfigs(c),
	})
	if err != nil {
		return nil, errs.ErrTransport.WrapMsg("nacos naming client", "err", err)
	}
	namingCli = client
	return namingCli, nil
}

func serverConfigs(c Config) []constant.ServerConfig {
	host, port := c.Host, c.Port
	if host == "" {
		host = "127.0.0.1"
	}
	if port == 0 {
		port = 8848
	}
	return []constant.ServerConfig{*constant.NewServerConfig(host, port)}
}

func clientConfig(c Config) *constant.ClientConfig {
	level := c.LogLevel
	if level == "" {
		level = "warn"
	}
	opts := []constant.ClientOption{
		constant.WithNamespaceId(c.Namespace),
		constant.WithTimeoutMs(5000),
		constant.WithNotLoadCacheAtStart(true),
		constant.WithLogLevel(level),
		constant.WithCacheDir(defaultStr(c.CacheDir, "nacos/cache")),
		constant.WithLogDir(defaultStr(c.LogDir, "nacos/log")),
	}
	if c.Username != "" {
		opts = append(opts, constant.WithUsername(c.Username), constant.WithPassword(c.Password))
	}
	return constant.NewClientConfig(opts...)
}

func defaultStr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
