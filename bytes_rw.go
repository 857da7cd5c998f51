package edgex

import (
	"bytes"
	"encoding/binary"
	"github.com/pkg/errors"
	"unicode/utf8"
)

//
// Author: 陈哈哈 chenyongjia@parkingwang.com, yoojiachen@gmail.com
//

var ErrShortFrame = errors.New("frame too short")

type wrapper struct {
	order  binary.ByteOrder
	buffer *bytes.Buffer
}

func (r *wrapper) Reset() {
	r.buffer.Reset()
}

func (r *wrapper) Len() int {
	return r.buffer.Len()
}

////

// 字节Reader，提供从数据帧顺序读取类型数据的函数。
// 读取越界时不会Panic，而是记录错误，通过 Err() 返回第一个错误。
type ByteReader struct {
	*wrapper
	err error
}

func WrapByteReader(frame []byte, order binary.ByteOrder) *ByteReader {
	return &ByteReader{
		wrapper: &wrapper{
			order:  order,
			buffer: bytes.NewBuffer(frame),
		},
	}
}

// Err 返回读取过程中的第一个错误
func (r *ByteReader) Err() error {
	return r.err
}

func (r *ByteReader) GetByte() byte {
	b := r.GetBytesSize(1)
	return b[0]
}

func (r *ByteReader) GetBytesSize(size int) []byte {
	out := make([]byte, size)
	if nil != r.err {
		return out
	}
	if n, _ := r.buffer.Read(out); n < size {
		r.err = ErrShortFrame
		return make([]byte, size)
	}
	return out
}

// GetRemains 读取剩余全部字节
func (r *ByteReader) GetRemains() []byte {
	return r.GetBytesSize(r.buffer.Len())
}

func (r *ByteReader) GetUint16() uint16 {
	return r.order.Uint16(r.GetBytesSize(2))
}

func (r *ByteReader) GetUint32() uint32 {
	return r.order.Uint32(r.GetBytesSize(4))
}

func (r *ByteReader) GetUint64() uint64 {
	return r.order.Uint64(r.GetBytesSize(8))
}

// GetString16 读取以uint16长度为前缀的字符串
func (r *ByteReader) GetString16() string {
	size := int(r.GetUint16())
	return string(r.GetBytesSize(size))
}

////

// 字节Writer，提供向数据缓存顺序写入类型数据的函数。
type ByteWriter struct {
	*wrapper
}

func NewByteWriter(order binary.ByteOrder) *ByteWriter {
	return &ByteWriter{
		wrapper: &wrapper{
			order:  order,
			buffer: new(bytes.Buffer),
		},
	}
}

func (w *ByteWriter) PutByte(b byte) {
	w.buffer.WriteByte(b)
}

func (w *ByteWriter) PutBytes(bs []byte) {
	w.buffer.Write(bs)
}

func (w *ByteWriter) PutUint16(value uint16) {
	b := make([]byte, 2)
	w.order.PutUint16(b, value)
	w.buffer.Write(b)
}

func (w *ByteWriter) PutUint32(value uint32) {
	b := make([]byte, 4)
	w.order.PutUint32(b, value)
	w.buffer.Write(b)
}

func (w *ByteWriter) PutUint64(value uint64) {
	b := make([]byte, 8)
	w.order.PutUint64(b, value)
	w.buffer.Write(b)
}

// PutString16 写入以uint16长度为前缀的字符串。超出长度的部分在UTF-8字符边界处截断。
func (w *ByteWriter) PutString16(s string) {
	if len(s) > 0xFFFF {
		end := 0xFFFF
		for end > 0 && !utf8.RuneStart(s[end]) {
			end--
		}
		s = s[:end]
	}
	w.PutUint16(uint16(len(s)))
	w.buffer.WriteString(s)
}

func (w *ByteWriter) Bytes() []byte {
	return w.buffer.Bytes()
}
