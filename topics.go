package edgex

import (
	"fmt"
	"strings"
)

//
// Author: 陈哈哈 yoojiachen@gmail.com
//

const (
	prefixNodes  = "$EdgeX/nodes/"
	prefixEvents = "$EdgeX/events/"

	TopicSubscribeNodesInspect = prefixNodes + "inspect"
	TopicSubscribeNodesOffline = prefixNodes + "offline/#"
	TopicSubscribeNodesEvents  = prefixEvents + "#"
)

func topicOfEvents(topic string) string {
	checkTopic(topic)
	return prefixEvents + topic
}

func topicOfOffline(typeName, nodeId string) string {
	return fmt.Sprintf(prefixNodes+"offline/%s/%s", typeName, nodeId)
}

func checkTopic(topic string) {
	if "" == topic || strings.HasPrefix(topic, "/") || strings.ContainsAny(topic, "+#") {
		log.Panicf("Topic MUST NOT be empty, starts with '/' or contain wildcards, was: %s", topic)
	}
}

// UnwrapEdgeXTopic 去除EdgeX内部Topic前缀，返回用户Topic
func UnwrapEdgeXTopic(mqttRawTopic string) string {
	if strings.HasPrefix(mqttRawTopic, prefixEvents) {
		return mqttRawTopic[len(prefixEvents):]
	} else if strings.HasPrefix(mqttRawTopic, prefixNodes) {
		return mqttRawTopic[len(prefixNodes):]
	} else {
		return mqttRawTopic
	}
}
