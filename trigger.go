package edgex

import (
	"context"
	"github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

//
// Author: 陈哈哈 yoojiachen@gmail.com
//

// Trigger 触发器，用于产生事件
type Trigger interface {
	NeedLifecycle
	NeedNodeId

	// SendEventMessage 发送事件消息。指定 virtualNodeId 的数据体。等待Broker确认后返回。
	SendEventMessage(virtualNodeId string, data []byte) error

	// PublishEventMessage 发送事件消息，不等待Broker确认。发送错误只输出日志。
	PublishEventMessage(virtualNodeId string, data []byte)

	// NextSequenceId 返回流水号
	NextSequenceId() uint32

	// 发布Inspect消息
	PublishInspectMessage(node MainNode)
}

type TriggerOptions struct {
	Topic           string          // 触发器发送事件的主题
	AutoInspectFunc func() MainNode // Inspect消息生成函数
}

//// trigger

type trigger struct {
	globals    *Globals
	topic      string // Trigger产生的事件Topic
	nodeId     string // Trigger的节点ID
	sequenceId *atomic.Uint32
	// MainNode 消息生产函数
	autoInspectFunc func() MainNode
	// MQTT
	mqttRef   mqtt.Client
	mqttTopic string
	// Shutdown
	shutdownContext context.Context
	shutdownCancel  context.CancelFunc
}

func (t *trigger) NodeId() string {
	return t.nodeId
}

func (t *trigger) NextSequenceId() uint32 {
	return t.sequenceId.Inc()
}

func (t *trigger) Startup() {
	t.shutdownContext, t.shutdownCancel = context.WithCancel(context.Background())
	t.mqttTopic = topicOfEvents(t.topic)
	log.Infof("Trigger启动，事件Topic: %s", t.mqttTopic)
	// 定时发送Inspect消息
	if nil != t.autoInspectFunc {
		go mqttAsyncTickInspect(t.shutdownContext, func() {
			t.PublishInspectMessage(t.autoInspectFunc())
		})
	}
}

func (t *trigger) PublishInspectMessage(node MainNode) {
	mqttSendInspectMessage(t.mqttRef, t.nodeId, node)
}

func (t *trigger) SendEventMessage(virtualNodeId string, data []byte) error {
	t.checkReady()
	token := t.publish(virtualNodeId, data)
	if token.Wait() && nil != token.Error() {
		return errors.WithMessage(token.Error(), "发送事件消息出错")
	} else {
		return nil
	}
}

func (t *trigger) PublishEventMessage(virtualNodeId string, data []byte) {
	t.checkReady()
	token := t.publish(virtualNodeId, data)
	go func() {
		if token.Wait() && nil != token.Error() {
			log.Errorw("发送事件消息出错", "virtualNodeId", virtualNodeId, "error", token.Error())
		}
	}()
}

func (t *trigger) publish(virtualNodeId string, data []byte) mqtt.Token {
	return t.mqttRef.Publish(
		t.mqttTopic,
		t.globals.MqttQoS,
		t.globals.MqttRetained,
		NewMessageWithId(t.nodeId, virtualNodeId, data, t.NextSequenceId()).Bytes())
}

func (t *trigger) Shutdown() {
	if nil != t.shutdownCancel {
		t.shutdownCancel()
	}
}

func (t *trigger) checkReady() {
	if nil == t.shutdownContext {
		log.Panic("Trigger未启动，须调用Startup()/Shutdown()")
	}
}
