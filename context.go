package edgex

import (
	"fmt"
	"github.com/BurntSushi/toml"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/yoojia/go-value"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"os"
	"os/signal"
	"syscall"
)

//
// Author: 陈哈哈 yoojiachen@gmail.com
//

// Context 是一个提供基础通讯环境和参数设置的对象。通过Context来创建Trigger组件，并为组件提供MQTT通讯能力。
type Context interface {
	NeedNodeId
	// 使用默认配置结构来初化Context
	InitialWithConfig(config map[string]interface{})

	// 初化和设置Context
	Initial(nodeId string)

	// Destroy 由组件自动调用
	destroy()

	// 返回Log对象
	Log() *zap.SugaredLogger

	// 当系统环境变量中，设置了"verbose"且为"true"时触发冗余日志输出操作。
	LogIfVerbose(fn func(log *zap.SugaredLogger))

	// LoadConfig 加载默认配置文件名的配置
	LoadConfig() map[string]interface{}

	// LoadConfigByName 加载指定文件名的配置，返回Map数据结构对象。
	LoadConfigByName(fileName string) map[string]interface{}

	// NewTrigger 创建Trigger对象，并绑定Context为Trigger节点。
	NewTrigger(opts TriggerOptions) Trigger

	// TermChan 返回监听系统中断退出信号的通道
	TermChan() <-chan os.Signal

	// HupChan 返回监听配置重载信号(SIGHUP)的通道
	HupChan() <-chan os.Signal

	// TermAwait 阻塞等待系统中断退出信号
	TermAwait() error
}

const (
	EnvKeyMQBroker         = "EDGEX_MQTT_BROKER"
	EnvKeyMQUsername       = "EDGEX_MQTT_USERNAME"
	EnvKeyMQPassword       = "EDGEX_MQTT_PASSWORD"
	EnvKeyMQQOS            = "EDGEX_MQTT_QOS"
	EnvKeyMQRetained       = "EDGEX_MQTT_RETAINED"
	EnvKeyMQCleanSession   = "EDGEX_MQTT_CLEAN_SESSION"
	EnvKeyMQConnectTimeout = "EDGEX_MQTT_CONNECT_TIMEOUT"
	EnvKeyConfig           = "EDGEX_CONFIG"
	EnvKeyLogVerbose       = "EDGEX_LOG_VERBOSE"

	MqttBrokerDefault  = "tcp://mqtt-broker.edgex.io:1883"
	MqttClientIdHeader = "EdgeX"

	DefaultConfName = "application.toml"
	DefaultConfDir  = "/etc/edgex/"
)

var (
	ErrConfigNotExist = errors.New("config not exists")
)

////

// Run 运行EdgeX节点服务
func Run(application func(ctx Context) error) {
	ctx := CreateDefaultContext()
	log.Info("启动EdgeX-App")
	defer func() {
		log.Info("停止EdgeX-App")
		ctx.destroy()
		_ = ZapLogger.Sync()
	}()
	if err := application(ctx); nil != err {
		log.Error("EdgeX-App出错: ", err)
	}
}

// CreateContext 使用指定 Globals 参数，创建Context对象。
func CreateContext(globals *Globals) Context {
	return &NodeContext{
		globals: globals,
	}
}

// CreateDefaultContext 从环境变量中读取 Globals 参数，并创建返回Context对象。
func CreateDefaultContext() Context {
	return CreateContext(DefaultGlobals())
}

//// Context实现

type NodeContext struct {
	globals    *Globals
	nodeId     string
	mqttClient mqtt.Client
}

func (c *NodeContext) InitialWithConfig(config map[string]interface{}) {
	c.nodeId = checkIdFormat("NodeId", value.ToString(config["NodeId"]))
	// Globals设置
	if globals, ok := value.ToMap(config["Globals"]); ok {
		c.globals.Merge(globals)
	}
	// MQTT Broker
	opts := mqtt.NewClientOptions()
	clientId := fmt.Sprintf("%s:%s", MqttClientIdHeader, c.nodeId)
	opts.SetClientID(clientId)
	opts.SetWill(topicOfOffline(MqttClientIdHeader, c.nodeId), "offline", 1, true)
	mqttSetOptions(opts, c.globals)
	c.mqttClient = mqtt.NewClient(opts)
	log.Info("Mqtt客户端连接Broker: ", c.globals.MqttBroker)

	// 连续重试
	mqttAwaitConnection(c.mqttClient, c.globals.MqttMaxRetry)

	if !c.mqttClient.IsConnected() {
		log.Panic("Mqtt客户端连接无法连接Broker")
	} else {
		log.Info("Mqtt客户端连接成功：" + clientId)
	}
}

func (c *NodeContext) Initial(nodeId string) {
	c.InitialWithConfig(map[string]interface{}{
		"NodeId": nodeId,
	})
}

func (c *NodeContext) NodeId() string {
	return c.nodeId
}

func (c *NodeContext) destroy() {
	if nil != c.mqttClient && c.mqttClient.IsConnected() {
		c.mqttClient.Disconnect(c.globals.MqttQuitMillSec)
	}
}

func (c *NodeContext) LoadConfig() map[string]interface{} {
	return LoadConfig()
}

func (c *NodeContext) LoadConfigByName(fileName string) map[string]interface{} {
	return LoadConfigByName(fileName)
}

func (c *NodeContext) NewTrigger(opts TriggerOptions) Trigger {
	c.checkInit()
	checkRequired(opts.Topic, "Trigger.Topic MUST be specified")
	return &trigger{
		mqttRef:         c.mqttClient,
		globals:         c.globals,
		topic:           opts.Topic,
		nodeId:          c.nodeId,
		sequenceId:      atomic.NewUint32(0),
		autoInspectFunc: opts.AutoInspectFunc,
	}
}

func (c *NodeContext) TermChan() <-chan os.Signal {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGTERM, syscall.SIGINT)
	signal.Ignore(syscall.SIGPIPE)
	return sig
}

func (c *NodeContext) HupChan() <-chan os.Signal {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP)
	return sig
}

func (c *NodeContext) TermAwait() error {
	<-c.TermChan()
	return nil
}

func (c *NodeContext) Log() *zap.SugaredLogger {
	return log
}

func (c *NodeContext) LogIfVerbose(fn func(log *zap.SugaredLogger)) {
	if c.globals.LogVerbose {
		fn(log)
	}
}

func (c *NodeContext) checkInit() {
	if nil == c.mqttClient {
		log.Panic("Context未初始化")
	}
}

////

// ReadConfigByName 读取指定文件名的配置信息。
// 配置文件加载顺序：
// 1. 当前运行目录;
// 2. 目录：/etc/edgex/;
// 3. 环境变量"EDGEX_CONFIG"指定的路径;
func ReadConfigByName(fileName string) (map[string]interface{}, error) {
	file, err := searchConfig(fileName, DefaultConfDir+fileName, os.Getenv(EnvKeyConfig))
	if nil != err {
		return nil, err
	}
	log.Info("加载配置文件：", file)
	config := make(map[string]interface{})
	if _, err := toml.DecodeFile(file, &config); nil != err {
		return nil, errors.Wrapf(err, "read config file %s", file)
	}
	return config, nil
}

// LoadConfigByName 加载指定文件名的配置信息。配置文件不存在或者格式错误时Panic。
func LoadConfigByName(fileName string) map[string]interface{} {
	config, err := ReadConfigByName(fileName)
	if nil != err {
		log.Panic("加载配置文件出错: ", err)
	}
	return config
}

// LoadConfig 加载默认文件名的配置。
func LoadConfig() map[string]interface{} {
	return LoadConfigByName(DefaultConfName)
}

func searchConfig(files ...string) (string, error) {
	for _, file := range files {
		if "" == file {
			continue
		}
		if info, err := os.Stat(file); nil == err && !info.IsDir() {
			return file, nil
		}
	}
	return "", ErrConfigNotExist
}
