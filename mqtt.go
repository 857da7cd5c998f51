package edgex

import (
	"context"
	"encoding/json"
	"github.com/eclipse/paho.mqtt.golang"
	"time"
)

//
// Author: 陈哈哈 yoojiachen@gmail.com
//

func mqttSetOptions(opts *mqtt.ClientOptions, globals *Globals) {
	opts.AddBroker(globals.MqttBroker)
	opts.SetKeepAlive(globals.MqttKeepAlive)
	opts.SetPingTimeout(globals.MqttPingTimeout)
	opts.SetAutoReconnect(globals.MqttAutoReconnect)
	opts.SetConnectTimeout(globals.MqttConnectTimeout)
	opts.SetCleanSession(globals.MqttCleanSession)
	opts.SetMaxReconnectInterval(globals.MqttReconnectInterval)
	if "" != globals.MqttUsername && "" != globals.MqttPassword {
		opts.Username = globals.MqttUsername
		opts.Password = globals.MqttPassword
	}
}

////

func mqttSendInspectMessage(client mqtt.Client, nodeId string, node MainNode) {
	if "" == node.NodeType {
		log.Panic("必须指定NodeType类型")
	}
	node.NodeId = nodeId
	node.fillHost()
	data, err := json.Marshal(node)
	if nil != err {
		log.Error("Inspect数据序列化错误", err)
		return
	}
	// 发送Inspect消息，其中消息来源为NodeId
	token := client.Publish(
		TopicSubscribeNodesInspect,
		0,
		false,
		NewMessageWithId(nodeId, nodeId, data, 0).Bytes(),
	)
	if token.Wait() && nil != token.Error() {
		log.Error("发送Inspect消息出错", token.Error())
	}
}

// 在1分钟内每10秒上报一次Inspect消息
func mqttAsyncTickInspect(shutdown context.Context, inspectTask func()) {
	inspectTask()
	ticker := time.NewTicker(time.Second * 10)
	defer ticker.Stop()

	tick := 1
	for {
		select {
		case <-ticker.C:
			inspectTask()
			tick++
			if tick >= 6 {
				return
			}

		case <-shutdown.Done():
			return
		}
	}
}

func mqttAwaitConnection(client mqtt.Client, maxRetry int) {
	timer := time.NewTimer(time.Second)
	defer timer.Stop()
	for i := 1; i <= maxRetry; i++ {
		<-timer.C
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			if i == maxRetry {
				log.Errorf("[%d] Mqtt客户端连接失败，最大次数：%v", i, token.Error())
			} else {
				log.Debugf("[%d] Mqtt客户端尝试重新连接，失败：%v", i, token.Error())
			}
			timer.Reset(time.Second * time.Duration(i))
		} else {
			log.Info("Mqtt客户端连接成功")
			break
		}
	}
}
