package edgex

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"testing"
)

//
// Author: 陈哈哈 yoojiachen@gmail.com
//

func TestNewMessage(t *testing.T) {
	body := []byte(`{"asset":"ns=2;s=0:FIT-321.CV"}`)
	newMessage := NewMessageWithId("OPCUA-HISTORIAN", "ns=2;s=0:FIT-321.CV", body, 2019)

	check := func(msg Message) {
		header := msg.Header()
		if header.Magic != FrameMagic {
			t.Error("Magic not match")
		}
		if header.Version != FrameVersion {
			t.Error("Version not match")
		}
		if header.ControlVar != FrameVarData {
			t.Error("Control var not match")
		}
		if header.SequenceId != 2019 || msg.SequenceId() != 2019 {
			t.Error("SequenceId var not match, was: ", msg.SequenceId())
		}
		if "OPCUA-HISTORIAN" != msg.SourceNodeId() {
			t.Error("SourceNodeId not match, was: ", msg.SourceNodeId())
		}
		if "ns=2;s=0:FIT-321.CV" != msg.VirtualNodeId() {
			t.Error("VirtualNodeId not match, was: ", msg.VirtualNodeId())
		}
		if !bytes.Equal(body, msg.Body()) {
			t.Error("Body not match, was", hex.EncodeToString(msg.Body()))
		}
	}

	fmt.Println("Bytes: " + hex.EncodeToString(newMessage.Bytes()))
	check(newMessage)

	// Parse
	parsed, err := ParseMessage(newMessage.Bytes())
	if nil != err {
		t.Fatal(err)
	}
	check(parsed)
}

func TestParseMessage_Invalid(t *testing.T) {
	if _, err := ParseMessage([]byte{FrameMagic, FrameVersion}); nil == err {
		t.Error("Should fail on short frame")
	}
	if _, err := ParseMessage([]byte{0x00, FrameVersion, FrameVarData, 0, 0, 0, 1}); nil == err {
		t.Error("Should fail on bad magic")
	}
	// 源节点长度声明超出帧长度
	if _, err := ParseMessage([]byte{FrameMagic, FrameVersion, FrameVarData, 0, 0, 0, 1, 0x00, 0x09, 'A'}); nil == err {
		t.Error("Should fail on truncated source node id")
	}
}
