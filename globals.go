package edgex

import (
	"github.com/yoojia/go-value"
	"time"
)

//
// Author: 陈哈哈 yoojiachen@gmail.com
//

// 全局配置
type Globals struct {
	LogVerbose            bool
	MqttBroker            string
	MqttUsername          string
	MqttPassword          string
	MqttQoS               uint8
	MqttRetained          bool
	MqttKeepAlive         time.Duration
	MqttPingTimeout       time.Duration
	MqttConnectTimeout    time.Duration
	MqttReconnectInterval time.Duration
	MqttAutoReconnect     bool
	MqttCleanSession      bool
	MqttMaxRetry          int
	MqttQuitMillSec       uint
}

// DefaultGlobals 从环境变量中读取参数，未设置的使用默认值。
func DefaultGlobals() *Globals {
	return &Globals{
		LogVerbose:            EnvGetBoolean(EnvKeyLogVerbose, false),
		MqttBroker:            EnvGetString(EnvKeyMQBroker, MqttBrokerDefault),
		MqttUsername:          EnvGetString(EnvKeyMQUsername, ""),
		MqttPassword:          EnvGetString(EnvKeyMQPassword, ""),
		MqttQoS:               uint8(EnvGetInt64(EnvKeyMQQOS, 1)),
		MqttRetained:          EnvGetBoolean(EnvKeyMQRetained, false),
		MqttCleanSession:      EnvGetBoolean(EnvKeyMQCleanSession, true),
		MqttKeepAlive:         time.Second * 3,
		MqttPingTimeout:       time.Second * 1,
		MqttConnectTimeout:    EnvGetDuration(EnvKeyMQConnectTimeout, time.Second*5),
		MqttReconnectInterval: time.Second * 1,
		MqttAutoReconnect:     true,
		MqttMaxRetry:          120,
		MqttQuitMillSec:       500,
	}
}

// Merge 使用配置文件中的Globals表覆盖当前参数。未出现的参数保持不变。
func (g *Globals) Merge(globals map[string]interface{}) {
	if flag, ok := value.ToBool(globals["LogVerbose"]); ok {
		g.LogVerbose = flag
	}
	if str, ok := value.ToStringB(globals["MqttBroker"]); ok {
		g.MqttBroker = str
	}
	if str, ok := value.ToStringB(globals["MqttUsername"]); ok {
		g.MqttUsername = str
	}
	if str, ok := value.ToStringB(globals["MqttPassword"]); ok {
		g.MqttPassword = str
	}
	if iv, ok := value.ToInt64(globals["MqttQoS"]); ok {
		g.MqttQoS = uint8(iv)
	}
	if flag, ok := value.ToBool(globals["MqttRetained"]); ok {
		g.MqttRetained = flag
	}
	if du, ok := value.ToDuration(globals["MqttKeepAlive"]); ok {
		g.MqttKeepAlive = du
	}
	if du, ok := value.ToDuration(globals["MqttPingTimeout"]); ok {
		g.MqttPingTimeout = du
	}
	if du, ok := value.ToDuration(globals["MqttConnectTimeout"]); ok {
		g.MqttConnectTimeout = du
	}
	if du, ok := value.ToDuration(globals["MqttReconnectInterval"]); ok {
		g.MqttReconnectInterval = du
	}
	if flag, ok := value.ToBool(globals["MqttAutoReconnect"]); ok {
		g.MqttAutoReconnect = flag
	}
	if flag, ok := value.ToBool(globals["MqttCleanSession"]); ok {
		g.MqttCleanSession = flag
	}
	if iv, ok := value.ToInt64(globals["MqttMaxRetry"]); ok {
		g.MqttMaxRetry = int(iv)
	}
	if iv, ok := value.ToInt64(globals["MqttQuitMillSec"]); ok {
		g.MqttQuitMillSec = uint(iv)
	}
}
