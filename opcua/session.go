package opcua

import (
	"context"
	"time"

	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/monitor"
	"github.com/gopcua/opcua/ua"
	"github.com/pkg/errors"
)

//
// Author: 陈哈哈 yoojiachen@gmail.com
//

const (
	applicationURI = "urn:edgex:opcua"
	// 订阅通知通道的缓冲长度
	notifyBufferLen = 256
)

// Session 是到一个OPC UA服务端的连接
type Session interface {
	EndpointURL() string

	// Subscribe 创建一个指定采样间隔、不包含任何节点的订阅
	Subscribe(ctx context.Context, interval time.Duration) (RemoteSubscription, error)

	// Close 关闭连接。每个成功建立的连接只能关闭一次。
	Close(ctx context.Context) error
}

// RemoteSubscription 是服务端的一个订阅对象
type RemoteSubscription interface {
	AddNodes(ctx context.Context, nodes ...string) error
	RemoveNodes(ctx context.Context, nodes ...string) error

	// Unsubscribe 删除服务端订阅
	Unsubscribe(ctx context.Context) error

	// Notifications 返回数据变化通知通道
	Notifications() <-chan *monitor.DataChangeMessage
}

// Dialer 建立到服务端的连接
type Dialer func(ctx context.Context, cfg *Config) (Session, error)

// DialSession 使用gopcua客户端连接服务端。设置了用户名时使用用户名密码认证，否则匿名连接。
// 连接失败不重试，返回 *ConnectionError。
func DialSession(ctx context.Context, cfg *Config) (Session, error) {
	endpoints, err := opcua.GetEndpoints(ctx, cfg.URL)
	if nil != err {
		return nil, &ConnectionError{URL: cfg.URL, Stage: "endpoints", Err: err}
	}
	ep, err := selectEndpoint(endpoints, cfg.SecurityPolicy, cfg.SecurityMode)
	if nil != err {
		return nil, &ConnectionError{URL: cfg.URL, Stage: "endpoints", Err: err}
	}

	opts := []opcua.Option{
		opcua.ApplicationURI(applicationURI),
		opcua.AutoReconnect(true),
		opcua.ReconnectInterval(10 * time.Second),
	}
	if "" != cfg.UserName {
		opts = append(opts,
			opcua.SecurityFromEndpoint(ep, ua.UserTokenTypeUserName),
			opcua.AuthUsername(cfg.UserName, cfg.Password))
	} else {
		opts = append(opts,
			opcua.SecurityFromEndpoint(ep, ua.UserTokenTypeAnonymous),
			opcua.AuthAnonymous())
	}
	if ep.SecurityPolicyURI != ua.SecurityPolicyURINone {
		if "" == cfg.CertFile || "" == cfg.KeyFile {
			return nil, &ConfigError{Param: ParamCertFile,
				Err: errors.Errorf("security policy %s requires certFile and keyFile", cfg.SecurityPolicy)}
		}
		opts = append(opts,
			opcua.CertificateFile(cfg.CertFile),
			opcua.PrivateKeyFile(cfg.KeyFile))
	}

	// 服务端通告的地址可能是内部主机名，始终使用配置的地址
	client, err := opcua.NewClient(cfg.URL, opts...)
	if nil != err {
		return nil, &ConnectionError{URL: cfg.URL, Stage: "client", Err: err}
	}
	if err := client.Connect(ctx); nil != err {
		_ = client.Close(ctx)
		return nil, &ConnectionError{URL: cfg.URL, Stage: "connect", Err: err}
	}
	nodeMonitor, err := monitor.NewNodeMonitor(client)
	if nil != err {
		_ = client.Close(ctx)
		return nil, &ConnectionError{URL: cfg.URL, Stage: "monitor", Err: err}
	}
	return &uaSession{url: cfg.URL, client: client, monitor: nodeMonitor}, nil
}

var securityPolicyURIs = map[string]string{
	"None":           ua.SecurityPolicyURINone,
	"Basic128Rsa15":  ua.SecurityPolicyURIBasic128Rsa15,
	"Basic256":       ua.SecurityPolicyURIBasic256,
	"Basic256Sha256": ua.SecurityPolicyURIBasic256Sha256,
}

var securityModes = map[string]ua.MessageSecurityMode{
	"None":           ua.MessageSecurityModeNone,
	"Sign":           ua.MessageSecurityModeSign,
	"SignAndEncrypt": ua.MessageSecurityModeSignAndEncrypt,
}

// selectEndpoint 返回安全策略和安全模式都与配置一致的端点，不做降级
func selectEndpoint(endpoints []*ua.EndpointDescription, policy, mode string) (*ua.EndpointDescription, error) {
	targetURI, ok := securityPolicyURIs[policy]
	if !ok {
		return nil, errors.Errorf("unknown security policy %q", policy)
	}
	targetMode, ok := securityModes[mode]
	if !ok {
		return nil, errors.Errorf("unknown security mode %q", mode)
	}
	for _, ep := range endpoints {
		if nil != ep && ep.SecurityPolicyURI == targetURI && ep.SecurityMode == targetMode {
			return ep, nil
		}
	}
	return nil, errors.Errorf("no endpoint offers policy=%s mode=%s", policy, mode)
}

////

type uaSession struct {
	url     string
	client  *opcua.Client
	monitor *monitor.NodeMonitor
}

func (s *uaSession) EndpointURL() string {
	return s.url
}

// ctx 决定订阅通知分发的生命周期，须在订阅删除之后才取消。
func (s *uaSession) Subscribe(ctx context.Context, interval time.Duration) (RemoteSubscription, error) {
	ch := make(chan *monitor.DataChangeMessage, notifyBufferLen)
	sub, err := s.monitor.ChanSubscribe(ctx, &opcua.SubscriptionParameters{Interval: interval}, ch)
	if nil != err {
		return nil, err
	}
	return &uaSubscription{sub: sub, ch: ch}, nil
}

func (s *uaSession) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

type uaSubscription struct {
	sub *monitor.Subscription
	ch  chan *monitor.DataChangeMessage
}

func (s *uaSubscription) AddNodes(ctx context.Context, nodes ...string) error {
	return s.sub.AddNodes(ctx, nodes...)
}

func (s *uaSubscription) RemoveNodes(ctx context.Context, nodes ...string) error {
	return s.sub.RemoveNodes(ctx, nodes...)
}

func (s *uaSubscription) Unsubscribe(ctx context.Context) error {
	return s.sub.Unsubscribe(ctx)
}

func (s *uaSubscription) Notifications() <-chan *monitor.DataChangeMessage {
	return s.ch
}
