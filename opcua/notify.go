package opcua

import (
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gopcua/opcua/ua"
	"github.com/nextabc-lab/edgex"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

//
// Author: 陈哈哈 yoojiachen@gmail.com
//

// 节点ID字符串中命名空间的起始标记
const namespaceMarker = "ns="

var parenthesesRemover = strings.NewReplacer("(", "", ")", "")

// AssetName 由节点ID的字符串形式生成资产名称：去掉 "ns=" 之前的包装内容，再去掉全部括号。
// 不包含 "ns=" 时保留完整字符串。
func AssetName(rendered string) string {
	if idx := strings.Index(rendered, namespaceMarker); idx != -1 {
		rendered = rendered[idx:]
	}
	return parenthesesRemover.Replace(rendered)
}

// NewCorrelationKey 生成Reading的唯一Key
func NewCorrelationKey() string {
	return uuid.New().String()
}

// adapter 将数据变化通知转换为Reading
type adapter struct {
	log     *zap.SugaredLogger
	forward func(edgex.Reading)
	now     func() time.Time
	newKey  func() string
}

func newAdapter(log *zap.SugaredLogger, forward func(edgex.Reading)) *adapter {
	return &adapter{
		log:     log,
		forward: forward,
		now:     time.Now,
		newKey:  NewCorrelationKey,
	}
}

func (a *adapter) OnDataChange(node *ua.NodeID, value *ua.DataValue) {
	timestamp := a.now()
	rendered := ""
	if nil != node {
		rendered = node.String()
	}
	asset := AssetName(rendered)
	v, err := DataValueOf(value)
	if nil != err {
		a.log.Warnw("丢弃数据变化通知", "stage", "notify", "node", asset, "error", err)
		return
	}
	a.forward(edgex.Reading{
		Asset:     asset,
		Timestamp: timestamp,
		Key:       a.newKey(),
		Readings:  map[string]interface{}{"value": v},
	})
}

// DataValueOf 将OPC UA数据值转换为Go标量值或标量数组
func DataValueOf(dv *ua.DataValue) (interface{}, error) {
	if nil == dv || nil == dv.Value {
		return nil, errors.New("data change without value")
	}
	val := dv.Value.Value()
	if nil == val {
		return nil, errors.New("data change with null variant")
	}
	if v, ok := scalarOf(val); ok {
		return v, nil
	}
	rv := reflect.ValueOf(val)
	if reflect.Slice == rv.Kind() {
		out := make([]interface{}, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			v, ok := scalarOf(rv.Index(i).Interface())
			if !ok {
				return nil, errors.Errorf("unsupported array element type %T", rv.Index(i).Interface())
			}
			out[i] = v
		}
		return out, nil
	}
	return nil, errors.Errorf("unsupported value type %T", val)
}

func scalarOf(val interface{}) (interface{}, bool) {
	switch tv := val.(type) {
	case bool, string, int64, uint64, float64, time.Time, []byte:
		return tv, true
	case int8:
		return int64(tv), true
	case uint8:
		return uint64(tv), true
	case int16:
		return int64(tv), true
	case uint16:
		return uint64(tv), true
	case int32:
		return int64(tv), true
	case uint32:
		return uint64(tv), true
	case float32:
		return float64(tv), true
	case ua.StatusCode:
		return uint64(tv), true
	case *ua.LocalizedText:
		if nil == tv {
			return nil, false
		}
		return tv.Text, true
	case *ua.QualifiedName:
		if nil == tv {
			return nil, false
		}
		return tv.Name, true
	case *ua.NodeID:
		if nil == tv {
			return nil, false
		}
		return tv.String(), true
	default:
		return nil, false
	}
}
