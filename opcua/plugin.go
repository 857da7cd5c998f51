package opcua

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nextabc-lab/edgex"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

//
// Author: 陈哈哈 yoojiachen@gmail.com
//

const (
	PluginName      = "opcua"
	PluginVersion   = "1.7.0"
	PluginInterface = "1.0"
)

const defaultTeardownTimeout = 10 * time.Second

// Options 插件参数。零值字段使用默认值。
type Options struct {
	Logger      *zap.SugaredLogger
	Dialer      Dialer
	StopTimeout time.Duration // 等待通知分发goroutine退出的最长时间
}

// Plugin 是OPC UA南向插件。每次Init创建一个独立的 *Connector 作为Handle。
type Plugin struct {
	log         *zap.SugaredLogger
	dial        Dialer
	stopTimeout time.Duration
}

var _ edgex.SouthPlugin = (*Plugin)(nil)

func NewPlugin() *Plugin {
	return NewPluginWith(Options{})
}

func NewPluginWith(opts Options) *Plugin {
	if nil == opts.Logger {
		opts.Logger = edgex.NamedLogger(PluginName)
	}
	if nil == opts.Dialer {
		opts.Dialer = DialSession
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = defaultStopTimeout
	}
	return &Plugin{
		log:         opts.Logger,
		dial:        opts.Dialer,
		stopTimeout: opts.StopTimeout,
	}
}

func (p *Plugin) Info() edgex.PluginInfo {
	return edgex.PluginInfo{
		Name:      PluginName,
		Version:   PluginVersion,
		Mode:      edgex.PluginModeAsync,
		Type:      edgex.PluginTypeSouth,
		Interface: PluginInterface,
		Config:    DefaultConfig(),
	}
}

func (p *Plugin) Init(config map[string]interface{}) (edgex.Handle, error) {
	cfg, err := ResolveConfig(config)
	if nil != err {
		p.log.Errorw("插件配置错误", "stage", "config", "error", err)
		return nil, err
	}
	return p.newConnector(cfg), nil
}

func (p *Plugin) Start(h edgex.Handle) error {
	c, err := asConnector(h)
	if nil != err {
		return err
	}
	return c.Start(context.Background())
}

func (p *Plugin) RegisterIngest(h edgex.Handle, ingest edgex.IngestFunc, ref interface{}) {
	c, err := asConnector(h)
	if nil != err {
		p.log.Errorw("注册Ingest出错", "error", err)
		return
	}
	c.RegisterIngest(ingest, ref)
}

func (p *Plugin) Shutdown(h edgex.Handle) error {
	c, err := asConnector(h)
	if nil != err {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultTeardownTimeout)
	defer cancel()
	return c.Shutdown(ctx)
}

// Reconfigure 停止旧实例，使用新配置创建并启动新实例。已注册的Ingest转移到新实例。
// 新实例启动失败时仍返回新的Handle，宿主可以对其调用Shutdown或再次Reconfigure。
func (p *Plugin) Reconfigure(h edgex.Handle, config map[string]interface{}) (edgex.Handle, error) {
	old, err := asConnector(h)
	if nil != err {
		return nil, err
	}
	p.log.Infow("重新配置插件", "url", old.cfg.URL)
	if err := p.Shutdown(old); nil != err {
		p.log.Warnw("停止旧实例出错，继续重新配置", "error", err)
	}
	nh, err := p.Init(config)
	if nil != err {
		return nil, err
	}
	c := nh.(*Connector)
	c.RegisterIngest(old.bridge.registered())
	return c, c.Start(context.Background())
}

func (p *Plugin) newConnector(cfg *Config) *Connector {
	log := p.log.With("url", cfg.URL)
	return &Connector{
		cfg:         cfg,
		log:         log,
		dial:        p.dial,
		stopTimeout: p.stopTimeout,
		bridge:      &ingestBridge{log: log},
	}
}

func asConnector(h edgex.Handle) (*Connector, error) {
	if c, ok := h.(*Connector); ok && nil != c {
		return c, nil
	}
	return nil, errors.WithMessage(ErrInvalidHandle, fmt.Sprintf("%T", h))
}

////

// Connector 是一个插件实例：一个服务端连接，一个覆盖全部配置节点的订阅。
type Connector struct {
	mu          sync.Mutex
	cfg         *Config
	log         *zap.SugaredLogger
	dial        Dialer
	stopTimeout time.Duration
	bridge      *ingestBridge

	started bool
	session Session
	sub     *Subscription
	runner  *runner
	cancel  context.CancelFunc // 订阅通知的生命周期
}

// Config 返回实例配置的副本
func (c *Connector) Config() Config {
	return *c.cfg
}

// RegisterIngest 注册宿主的数据接收函数
func (c *Connector) RegisterIngest(ingest edgex.IngestFunc, ref interface{}) {
	c.bridge.register(ingest, ref)
}

// Running 返回实例是否已启动且未停止
func (c *Connector) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// Assets 返回订阅节点对应的资产名称列表。未启动时按配置解析，配置无效时返回空列表。
func (c *Connector) Assets() []string {
	c.mu.Lock()
	var nodes []string
	if nil != c.sub {
		nodes = c.sub.Nodes()
	}
	c.mu.Unlock()
	if nil == nodes {
		nodes, _ = ParseNodeList(c.cfg.Subscriptions)
	}
	assets := make([]string, 0, len(nodes))
	for _, n := range nodes {
		assets = append(assets, AssetName(n))
	}
	return assets
}

// Start 解析订阅节点，连接服务端，创建订阅并启动通知分发。
// 失败时不保留任何连接或订阅，不重试。
func (c *Connector) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return ErrAlreadyStarted
	}
	nodes, err := ParseNodeList(c.cfg.Subscriptions)
	if nil != err {
		c.log.Errorw("订阅配置错误", "stage", "config", "error", err)
		return err
	}

	c.log.Infow("连接OPC UA服务端", "auth", authMode(c.cfg))
	session, err := c.dial(ctx, c.cfg)
	if nil != err {
		if !IsConnectionError(err) && !IsConfigError(err) {
			err = &ConnectionError{URL: c.cfg.URL, Stage: "connect", Err: err}
		}
		c.log.Errorw("连接服务端失败", "stage", "connect", "error", err)
		return err
	}

	subCtx, cancel := context.WithCancel(context.Background())
	sub, err := Subscribe(subCtx, session, nodes, c.cfg.SamplingInterval, newAdapter(c.log, c.bridge.forward))
	if nil != err {
		cancel()
		if cerr := session.Close(ctx); nil != cerr {
			c.log.Warnw("关闭连接出错", "stage", "disconnect", "error", cerr)
		}
		c.log.Errorw("创建订阅失败", "stage", "subscribe", "error", err)
		return err
	}

	c.session = session
	c.sub = sub
	c.cancel = cancel
	c.runner = startRunner(sub.Notifications(), sub.deliver, c.log)
	c.started = true
	c.log.Infow("订阅已创建", "nodes", len(nodes), "interval", c.cfg.SamplingInterval)
	return nil
}

// Shutdown 依次停止通知分发、删除订阅、断开连接。
// 每一步出错都继续执行后续步骤，错误合并为 *TeardownError 返回。未启动或已停止时不做任何操作。
func (c *Connector) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		c.log.Debug("实例未启动或已停止")
		return nil
	}
	c.started = false

	var errs error
	if err := c.runner.stop(c.stopTimeout); nil != err {
		c.log.Warnw("停止通知分发出错", "stage", "runner", "error", err)
		errs = multierr.Append(errs, errors.WithMessage(err, "runner"))
	}
	if err := c.sub.Unsubscribe(ctx); nil != err {
		c.log.Warnw("删除订阅出错", "stage", "unsubscribe", "error", err)
		errs = multierr.Append(errs, errors.WithMessage(err, "unsubscribe"))
	}
	if err := c.session.Close(ctx); nil != err {
		c.log.Warnw("断开连接出错", "stage", "disconnect", "error", err)
		errs = multierr.Append(errs, errors.WithMessage(err, "disconnect"))
	}
	c.cancel()
	c.session, c.sub, c.runner, c.cancel = nil, nil, nil, nil

	if nil != errs {
		return &TeardownError{URL: c.cfg.URL, Err: errs}
	}
	c.log.Info("实例已停止")
	return nil
}

func authMode(cfg *Config) string {
	if "" != cfg.UserName {
		return "username"
	}
	return "anonymous"
}
