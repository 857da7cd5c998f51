package edgex

import (
	"fmt"
	"github.com/pkg/errors"
	"github.com/yoojia/go-jsonx"
	"github.com/yoojia/go-value"
	"sync"
	"time"
)

//
// Author: 陈哈哈 yoojiachen@gmail.com
//

const (
	PluginModeAsync = "async"
	PluginTypeSouth = "south"

	// 节点配置文件中，插件配置所在的表名
	DefaultPluginConfigKey = "Plugin"
)

// PluginInfo 南向插件的静态描述信息
type PluginInfo struct {
	Name      string
	Version   string
	Mode      string // 执行模式：async 表示由插件回调推送数据
	Type      string // 插件类型：south
	Interface string // 插件接口版本
	Config    []ConfigItem
}

// ConfigItem 描述插件的一个配置参数，用于管理界面生成编辑表单
type ConfigItem struct {
	Name        string   `json:"-"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Default     string   `json:"default"`
	Order       string   `json:"order,omitempty"`
	DisplayName string   `json:"displayName,omitempty"`
	Readonly    bool     `json:"readonly,omitempty"`
	Options     []string `json:"options,omitempty"`
}

// Reading 是南向插件交给Ingest流程的数据记录
type Reading struct {
	Asset     string                 `json:"asset"`
	Timestamp time.Time              `json:"timestamp"`
	Key       string                 `json:"key"`
	Readings  map[string]interface{} `json:"readings"`
}

// IngestFunc 接收插件产生的Reading。ref 是注册时由宿主提供的引用对象，插件原样传回。
type IngestFunc func(ref interface{}, reading Reading)

// Handle 是插件实例的句柄，由 SouthPlugin.Init 创建，宿主不关心其内部结构。
type Handle interface{}

// SouthPlugin 南向插件接口。宿主保证对同一Handle的生命周期调用是串行的。
type SouthPlugin interface {
	// Info 返回插件静态信息和配置参数定义
	Info() PluginInfo

	// Init 使用配置文档创建插件实例
	Init(config map[string]interface{}) (Handle, error)

	// Start 启动插件实例
	Start(h Handle) error

	// Reconfigure 使用新配置重启插件实例，返回新的Handle
	Reconfigure(h Handle, config map[string]interface{}) (Handle, error)

	// RegisterIngest 注册数据接收函数，须在Start之前调用
	RegisterIngest(h Handle, ingest IngestFunc, ref interface{})

	// Shutdown 停止插件实例，释放全部资源
	Shutdown(h Handle) error
}

// SouthOptions RunSouth的参数
type SouthOptions struct {
	ConfigFile string // 配置文件名，默认为 application.toml
	ConfigKey  string // 插件配置所在的表名，默认为 Plugin
	Topic      string // 事件Topic，默认为 south/<插件名称>
	Vendor     string // Inspect消息中的品牌名称
}

// RunSouth 加载节点配置，创建Trigger并驱动南向插件运行，直到收到退出信号。
// 收到SIGHUP时重新加载配置文件，并调用插件的Reconfigure。
func RunSouth(ctx Context, plugin SouthPlugin, opts SouthOptions) error {
	if "" == opts.ConfigFile {
		opts.ConfigFile = DefaultConfName
	}
	if "" == opts.ConfigKey {
		opts.ConfigKey = DefaultPluginConfigKey
	}
	info := plugin.Info()
	if "" == opts.Topic {
		opts.Topic = "south/" + info.Name
	}

	config, err := ReadConfigByName(opts.ConfigFile)
	if nil != err {
		return errors.WithMessage(err, "load node config")
	}
	ctx.InitialWithConfig(config)

	handle, err := plugin.Init(PluginDocument(config, opts.ConfigKey))
	if nil != err {
		return errors.WithMessage(err, "init plugin")
	}
	current := &handleRef{h: handle}

	trigger := ctx.NewTrigger(TriggerOptions{
		Topic: opts.Topic,
		AutoInspectFunc: func() MainNode {
			return inspectOfPlugin(info, opts.Vendor, current.get())
		},
	})
	trigger.Startup()
	defer trigger.Shutdown()

	plugin.RegisterIngest(handle, TriggerIngest, trigger)
	if err := plugin.Start(handle); nil != err {
		if serr := plugin.Shutdown(handle); nil != serr {
			ctx.Log().Errorw("启动失败后停止插件出错", "plugin", info.Name, "error", serr)
		}
		return errors.WithMessage(err, "start plugin")
	}
	ctx.Log().Infof("南向插件已启动: %s@%s", info.Name, info.Version)

	term := ctx.TermChan()
	hup := ctx.HupChan()
	for {
		select {
		case <-term:
			ctx.Log().Infof("停止南向插件: %s", info.Name)
			return plugin.Shutdown(current.get())

		case <-hup:
			newConfig, err := ReadConfigByName(opts.ConfigFile)
			if nil != err {
				ctx.Log().Errorw("重新加载配置文件出错，保持当前配置", "file", opts.ConfigFile, "error", err)
				continue
			}
			ctx.Log().Infof("重新配置南向插件: %s", info.Name)
			newHandle, err := plugin.Reconfigure(current.get(), PluginDocument(newConfig, opts.ConfigKey))
			if nil != newHandle {
				current.set(newHandle)
			}
			if nil != err {
				ctx.Log().Errorw("重新配置南向插件出错", "plugin", info.Name, "error", err)
			}
		}
	}
}

// TriggerIngest 是使用Trigger作为宿主引用的IngestFunc：将Reading编码为JSON，以Asset作为虚拟节点ID发送事件消息。
// 发送不等待Broker确认，不阻塞插件的通知回调。
func TriggerIngest(ref interface{}, reading Reading) {
	trigger, ok := ref.(Trigger)
	if !ok {
		log.Errorw("Ingest引用对象不是Trigger", "ref", fmt.Sprintf("%T", ref))
		return
	}
	trigger.PublishEventMessage(reading.Asset, EncodeReading(reading))
}

// EncodeReading 编码Reading为JSON字节
func EncodeReading(reading Reading) []byte {
	json := jsonx.NewFatJSON()
	json.Field("asset", reading.Asset)
	json.Field("timestamp", reading.Timestamp.Format(time.RFC3339Nano))
	json.Field("key", reading.Key)
	json.Field("readings", reading.Readings)
	return json.Bytes()
}

// PluginDocument 从节点配置中取出插件的配置表。不存在时返回空Map，而非nil引用。
func PluginDocument(config map[string]interface{}, key string) map[string]interface{} {
	if doc, ok := value.ToMap(config[key]); ok {
		return doc
	}
	return make(map[string]interface{})
}

////

// 插件Handle可以提供的资产列表，用于生成Inspect消息
type needAssets interface {
	Assets() []string
}

func inspectOfPlugin(info PluginInfo, vendor string, h Handle) MainNode {
	node := MainNode{
		NodeType:     NodeTypeTrigger,
		Vendor:       vendor,
		ConnDriver:   info.Name,
		Version:      info.Version,
		VirtualNodes: make([]*VirtualNode, 0),
	}
	if assets, ok := h.(needAssets); ok {
		for _, asset := range assets.Assets() {
			node.VirtualNodes = append(node.VirtualNodes, &VirtualNode{
				VirtualId: asset,
				Desc:      info.Name + " asset",
				Virtual:   true,
			})
		}
	}
	return node
}

type handleRef struct {
	mu sync.RWMutex
	h  Handle
}

func (r *handleRef) get() Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.h
}

func (r *handleRef) set(h Handle) {
	r.mu.Lock()
	r.h = h
	r.mu.Unlock()
}
