package opcua

import (
	"context"
	"time"

	"github.com/gopcua/opcua/monitor"
	"github.com/gopcua/opcua/ua"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

//
// Author: 陈哈哈 yoojiachen@gmail.com
//

// Sink 接收订阅节点的数据变化通知
type Sink interface {
	OnDataChange(node *ua.NodeID, value *ua.DataValue)
}

// Subscription 是覆盖全部配置节点的一个订阅
type Subscription struct {
	url    string
	remote RemoteSubscription
	nodes  []string
	sink   Sink
	closed bool
}

// Subscribe 解析节点ID，创建一个指定采样间隔的订阅，并将全部节点加入订阅。
// 任何一步失败都不会留下服务端订阅，返回 *SubscriptionError。
func Subscribe(ctx context.Context, session Session, nodeIDs []string, interval time.Duration, sink Sink) (*Subscription, error) {
	url := session.EndpointURL()
	nodes := make([]string, 0, len(nodeIDs))
	for _, id := range nodeIDs {
		if "" == id {
			return nil, &SubscriptionError{URL: url, Stage: "resolve", Err: errors.New("empty node id")}
		}
		nid, err := ua.ParseNodeID(id)
		if nil != err {
			return nil, &SubscriptionError{URL: url, NodeID: id, Stage: "resolve", Err: err}
		}
		nodes = append(nodes, nid.String())
	}

	remote, err := session.Subscribe(ctx, interval)
	if nil != err {
		return nil, &SubscriptionError{URL: url, Stage: "create", Err: err}
	}
	if len(nodes) > 0 {
		if err := remote.AddNodes(ctx, nodes...); nil != err {
			if uerr := remote.Unsubscribe(ctx); nil != uerr {
				err = multierr.Append(err, errors.WithMessage(uerr, "rollback subscription"))
			}
			return nil, &SubscriptionError{URL: url, Stage: "monitor", Err: err}
		}
	}
	return &Subscription{
		url:    url,
		remote: remote,
		nodes:  nodes,
		sink:   sink,
	}, nil
}

// Nodes 返回订阅的节点ID列表
func (s *Subscription) Nodes() []string {
	return append([]string(nil), s.nodes...)
}

// Notifications 返回服务端推送的通知通道
func (s *Subscription) Notifications() <-chan *monitor.DataChangeMessage {
	return s.remote.Notifications()
}

// Unsubscribe 移除全部节点并删除订阅。对已取消的订阅再次调用返回 ErrSubscriptionClosed。
func (s *Subscription) Unsubscribe(ctx context.Context) error {
	if s.closed {
		return ErrSubscriptionClosed
	}
	s.closed = true
	var err error
	if len(s.nodes) > 0 {
		err = multierr.Append(err, errors.WithMessage(s.remote.RemoveNodes(ctx, s.nodes...), "remove nodes"))
	}
	err = multierr.Append(err, errors.WithMessage(s.remote.Unsubscribe(ctx), "delete subscription"))
	return err
}

// 将一条通知交给Sink。通知本身携带错误时不交付，返回该错误。
func (s *Subscription) deliver(msg *monitor.DataChangeMessage) error {
	if nil == msg {
		return nil
	}
	if nil != msg.Error {
		return msg.Error
	}
	s.sink.OnDataChange(msg.NodeID, msg.DataValue)
	return nil
}
