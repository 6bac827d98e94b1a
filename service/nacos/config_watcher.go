package nacos

import (
	"context"
	"sync"

	"HealthSeva/logger"
	"HealthSeva/tools/errs"

	"github.com/nacos-group/nacos-sdk-go/v2/clients/config_client"
	"github.com/nacos-group/nacos-sdk-go/v2/vo"
	"go.uber.org/zap"
)

// ConfigSource is the part of the nacos config client the watcher needs.
type ConfigSource interface {
	GetConfig(param vo.ConfigParam) (string, error)
	ListenConfig(param vo.ConfigParam) error
	CancelListenConfig(param vo.ConfigParam) error
}

var _ ConfigSource = (config_client.IConfigClient)(nil)

// Watcher keeps the latest content of one dataId and hands every change to
// onChange. The initial content is delivered before Start returns.
type Watcher struct {
	src      ConfigSource
	dataId   string
	group    string
	onChange func(content string)

	mu      sync.RWMutex
	current string
}

func NewWatcher(src ConfigSource, dataId, group string, onChange func(string)) *Watcher {
	if group == "" {
		group = "DEFAULT_GROUP"
	}
	return &Watcher{src: src, dataId: dataId, group: group, onChange: onChange}
}

// StartNacosWatcher builds a client from c and starts a watcher for dataId.
func StartNacosWatcher(ctx context.Context, c Config, dataId string, onChange func(string)) (*Watcher, error) {
	cli, err := InitNacosConfigClient(c)
	if err != nil {
		return nil, err
	}
	w := NewWatcher(cli, dataId, c.group(), onChange)
	return w, w.Start(ctx)
}

func (w *Watcher) Start(ctx context.Context) error {
	content, err := w.src.GetConfig(vo.ConfigParam{DataId: w.dataId, Group: w.group})
	if err != nil {
		return errs.ErrTransport.WrapMsg("nacos get config", "dataId", w.dataId, "err", err)
	}
	w.update(content)

	err = w.src.ListenConfig(vo.ConfigParam{
		DataId: w.dataId,
		Group:  w.group,
		OnChange: func(namespace, group, dataId, data string) {
			logger.Info("[Nacos] config changed", zap.String("dataId", dataId), zap.Int("bytes", len(data)))
			w.update(data)
		},
	})
	if err != nil {
		return errs.ErrTransport.WrapMsg("nacos listen config", "dataId", w.dataId, "err", err)
	}

	go func() {
		<-ctx.Done()
		_ = w.src.CancelListenConfig(vo.ConfigParam{DataId: w.dataId, Group: w.group})
	}()
	return nil
}

func (w *Watcher) update(data string) {
	w.mu.Lock()
	w.current = data
	w.mu.Unlock()
	if w.onChange != nil {
		w.onChange(data)
	}
}

func (w *Watcher) Current() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}
