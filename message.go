package edgex

import (
	"encoding/binary"
	"github.com/pkg/errors"
)

//
// Author: 陈哈哈 yoojiachen@gmail.com
//

const (
	FrameMagic   byte = 0xED // 帧头魔数
	FrameVersion byte = 0x01 // 帧格式版本
	FrameVarData byte = 0xDA // 数据帧
	FrameVarPing byte = 0xAF // 心跳帧

	frameHeaderSize = 7
)

var frameOrder = binary.BigEndian

// Header 消息头
type Header struct {
	Magic      byte
	Version    byte
	ControlVar byte
	SequenceId uint32
}

// Message 是节点之间通过MQTT传输的消息。
// 帧格式：Header(7) | SourceNodeId(uint16+N) | VirtualNodeId(uint16+N) | Body
type Message interface {
	Header() Header
	// SequenceId 返回消息流水号
	SequenceId() uint32
	// SourceNodeId 返回消息来源节点ID
	SourceNodeId() string
	// VirtualNodeId 返回消息所属的虚拟节点ID
	VirtualNodeId() string
	// Body 返回消息体
	Body() []byte
	// Bytes 返回完整的消息帧
	Bytes() []byte
}

////

type implMessage struct {
	header        Header
	sourceNodeId  string
	virtualNodeId string
	body          []byte
}

func (m *implMessage) Header() Header {
	return m.header
}

func (m *implMessage) SequenceId() uint32 {
	return m.header.SequenceId
}

func (m *implMessage) SourceNodeId() string {
	return m.sourceNodeId
}

func (m *implMessage) VirtualNodeId() string {
	return m.virtualNodeId
}

func (m *implMessage) Body() []byte {
	return m.body
}

func (m *implMessage) Bytes() []byte {
	w := NewByteWriter(frameOrder)
	w.PutByte(m.header.Magic)
	w.PutByte(m.header.Version)
	w.PutByte(m.header.ControlVar)
	w.PutUint32(m.header.SequenceId)
	w.PutString16(m.sourceNodeId)
	w.PutString16(m.virtualNodeId)
	w.PutBytes(m.body)
	return w.Bytes()
}

// NewMessageWithId 创建指定流水号的数据消息
func NewMessageWithId(sourceNodeId, virtualNodeId string, body []byte, seqId uint32) Message {
	return &implMessage{
		header: Header{
			Magic:      FrameMagic,
			Version:    FrameVersion,
			ControlVar: FrameVarData,
			SequenceId: seqId,
		},
		sourceNodeId:  sourceNodeId,
		virtualNodeId: virtualNodeId,
		body:          body,
	}
}

// ParseMessage 从消息帧解析消息对象
func ParseMessage(frame []byte) (Message, error) {
	if len(frame) < frameHeaderSize {
		return nil, ErrShortFrame
	}
	r := WrapByteReader(frame, frameOrder)
	msg := &implMessage{}
	msg.header.Magic = r.GetByte()
	if FrameMagic != msg.header.Magic {
		return nil, errors.Errorf("invalid frame magic: %X", msg.header.Magic)
	}
	msg.header.Version = r.GetByte()
	msg.header.ControlVar = r.GetByte()
	msg.header.SequenceId = r.GetUint32()
	msg.sourceNodeId = r.GetString16()
	msg.virtualNodeId = r.GetString16()
	msg.body = r.GetRemains()
	if err := r.Err(); nil != err {
		return nil, errors.WithMessage(err, "parse message")
	}
	return msg, nil
}
