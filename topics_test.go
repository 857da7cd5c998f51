package edgex

import (
	"testing"
)

func TestTopicOfEvents(t *testing.T) {
	topic := topicOfEvents("opcua/historian")
	if "$EdgeX/events/opcua/historian" != topic {
		t.Error("Events topic not match, was: ", topic)
	}
	if "opcua/historian" != UnwrapEdgeXTopic(topic) {
		t.Error("Unwrap not match, was: ", UnwrapEdgeXTopic(topic))
	}
	if "offline/TRIGGER/OPCUA" != UnwrapEdgeXTopic(topicOfOffline("TRIGGER", "OPCUA")) {
		t.Error("Unwrap offline not match")
	}
	if "plain/topic" != UnwrapEdgeXTopic("plain/topic") {
		t.Error("Non EdgeX topic should be kept")
	}
}

func TestCheckTopic_Panics(t *testing.T) {
	for _, topic := range []string{"", "/opcua", "opcua/#", "opcua/+/x"} {
		func() {
			defer func() {
				if nil == recover() {
					t.Error("Should panic on topic: ", topic)
				}
			}()
			checkTopic(topic)
		}()
	}
}
