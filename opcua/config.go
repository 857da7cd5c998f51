package opcua

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/nextabc-lab/edgex"
	"github.com/pkg/errors"
	"github.com/yoojia/go-value"
)

//
// Author: 陈哈哈 yoojiachen@gmail.com
//

// 配置参数名称
const (
	ParamPlugin           = "plugin"
	ParamURL              = "url"
	ParamUserName         = "userName"
	ParamPassword         = "password"
	ParamAssetNamePrefix  = "assetNamePrefix"
	ParamSubscriptions    = "subscriptions"
	ParamSamplingInterval = "samplingInterval"
	ParamSecurityPolicy   = "securityPolicy"
	ParamSecurityMode     = "securityMode"
	ParamCertFile         = "certFile"
	ParamKeyFile          = "keyFile"
)

const (
	defaultURL              = "opc.tcp://historian.local:9409/DvOPC"
	defaultSubscriptions    = `{ "subscriptions" : [ "ns=2;s=0:FIT-321.CV", "ns=2;s=0:TE200-07/AI1/OUT.CV", "ns=2;s=0:TE200-12/AI1/OUT.CV" ] }`
	defaultSamplingInterval = 500 * time.Millisecond
)

var defaultConfig = []edgex.ConfigItem{
	{
		Name:        ParamPlugin,
		Description: "OPC UA South Plugin",
		Type:        "string",
		Default:     PluginName,
		Readonly:    true,
	},
	{
		Name:        ParamURL,
		Description: "OPC UA server connection string (opc.tcp)",
		Type:        "string",
		Default:     defaultURL,
		Order:       "1",
		DisplayName: "Host",
	},
	{
		Name:        ParamUserName,
		Description: "User name, if needed (leave blank if unused)",
		Type:        "string",
		Default:     "",
		Order:       "2",
		DisplayName: "User Name",
	},
	{
		Name:        ParamPassword,
		Description: "Password (leave blank if unused)",
		Type:        "password",
		Default:     "",
		Order:       "3",
		DisplayName: "Password",
	},
	{
		Name:        ParamAssetNamePrefix,
		Description: "Asset name prefix (unused, asset names are the subscribed node ids)",
		Type:        "string",
		Default:     "opcua-",
		Order:       "4",
		DisplayName: "Asset Name Prefix",
		Readonly:    true,
	},
	{
		Name:        ParamSubscriptions,
		Description: "JSON list of nodes to subscribe to",
		Type:        "JSON",
		Default:     defaultSubscriptions,
		Order:       "5",
		DisplayName: "OPC UA Nodes to monitor through subscriptions",
	},
	{
		Name:        ParamSamplingInterval,
		Description: "Subscription sampling interval in milliseconds",
		Type:        "integer",
		Default:     "500",
		Order:       "6",
		DisplayName: "Sampling Interval",
	},
	{
		Name:        ParamSecurityPolicy,
		Description: "Security policy of the server endpoint",
		Type:        "enumeration",
		Default:     "None",
		Order:       "7",
		DisplayName: "Security Policy",
		Options:     []string{"None", "Basic128Rsa15", "Basic256", "Basic256Sha256"},
	},
	{
		Name:        ParamSecurityMode,
		Description: "Message security mode of the server endpoint",
		Type:        "enumeration",
		Default:     "None",
		Order:       "8",
		DisplayName: "Security Mode",
		Options:     []string{"None", "Sign", "SignAndEncrypt"},
	},
	{
		Name:        ParamCertFile,
		Description: "Client certificate file, required when security policy is not None",
		Type:        "string",
		Default:     "",
		Order:       "9",
		DisplayName: "Client Certificate",
	},
	{
		Name:        ParamKeyFile,
		Description: "Client private key file, required when security policy is not None",
		Type:        "string",
		Default:     "",
		Order:       "10",
		DisplayName: "Client Private Key",
	},
}

// DefaultConfig 返回插件配置参数定义的副本
func DefaultConfig() []edgex.ConfigItem {
	items := make([]edgex.ConfigItem, len(defaultConfig))
	copy(items, defaultConfig)
	for i := range items {
		if nil != items[i].Options {
			items[i].Options = append([]string(nil), items[i].Options...)
		}
	}
	return items
}

// Config 是解析后的插件配置。创建后不再修改，重新配置时整体替换。
type Config struct {
	URL              string
	UserName         string
	Password         string
	AssetNamePrefix  string
	Subscriptions    string // JSON文本，启动时由 ParseNodeList 解析
	SamplingInterval time.Duration
	SecurityPolicy   string
	SecurityMode     string
	CertFile         string
	KeyFile          string
}

// ResolveConfig 从宿主配置文档解析插件配置。
// 文档中的参数可以是普通值，也可以是带 value/default 字段的配置项；缺失的参数使用默认值。
func ResolveConfig(doc map[string]interface{}) (*Config, error) {
	get := func(name string) interface{} {
		return resolveItem(doc, name)
	}
	cfg := &Config{
		URL:             strings.TrimSpace(value.ToString(get(ParamURL))),
		UserName:        value.ToString(get(ParamUserName)),
		Password:        value.ToString(get(ParamPassword)),
		AssetNamePrefix: value.ToString(get(ParamAssetNamePrefix)),
		SecurityPolicy:  value.ToString(get(ParamSecurityPolicy)),
		SecurityMode:    value.ToString(get(ParamSecurityMode)),
		CertFile:        value.ToString(get(ParamCertFile)),
		KeyFile:         value.ToString(get(ParamKeyFile)),
	}
	if "" == cfg.URL {
		return nil, &ConfigError{Param: ParamURL, Err: errors.New("endpoint url is required")}
	}

	policy, err := enumOf(ParamSecurityPolicy, cfg.SecurityPolicy)
	if nil != err {
		return nil, &ConfigError{Param: ParamSecurityPolicy, Err: err}
	}
	mode, err := enumOf(ParamSecurityMode, cfg.SecurityMode)
	if nil != err {
		return nil, &ConfigError{Param: ParamSecurityMode, Err: err}
	}
	// 安全策略为None时只能使用None模式，反之亦然
	if ("None" == policy) != ("None" == mode) {
		return nil, &ConfigError{Param: ParamSecurityMode,
			Err: errors.Errorf("security mode %s does not match security policy %s", mode, policy)}
	}
	cfg.SecurityPolicy, cfg.SecurityMode = policy, mode

	subs, err := subscriptionsText(get(ParamSubscriptions))
	if nil != err {
		return nil, &ConfigError{Param: ParamSubscriptions, Err: err}
	}
	cfg.Subscriptions = subs

	interval, err := samplingInterval(get(ParamSamplingInterval))
	if nil != err {
		return nil, &ConfigError{Param: ParamSamplingInterval, Err: err}
	}
	cfg.SamplingInterval = interval
	return cfg, nil
}

// 查找参数值：配置项的 value 优先于 default，不存在时使用参数定义的默认值。
func resolveItem(doc map[string]interface{}, name string) interface{} {
	raw, found := doc[name]
	if !found || nil == raw {
		return defaultOf(name)
	}
	if item, ok := value.ToMap(raw); ok {
		if v, ok := item["value"]; ok {
			return v
		}
		if v, ok := item["default"]; ok {
			return v
		}
	}
	return raw
}

// 枚举参数不区分大小写，返回参数定义中的标准写法
func enumOf(name, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	for _, item := range defaultConfig {
		if name != item.Name {
			continue
		}
		for _, opt := range item.Options {
			if strings.EqualFold(opt, raw) {
				return opt, nil
			}
		}
		return "", errors.Errorf("%q is not one of %v", raw, item.Options)
	}
	return "", errors.Errorf("unknown enumeration %s", name)
}

func defaultOf(name string) interface{} {
	for _, item := range defaultConfig {
		if name == item.Name {
			return item.Default
		}
	}
	return nil
}

// 订阅列表保存为JSON文本。TOML配置中的表结构在这里编码为JSON，同时完成深拷贝。
func subscriptionsText(raw interface{}) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		data, err := json.Marshal(v)
		if nil != err {
			return "", errors.Wrap(err, "encode subscriptions")
		}
		return string(data), nil
	}
}

func samplingInterval(raw interface{}) (time.Duration, error) {
	var ms int64
	switch v := raw.(type) {
	case string:
		iv, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if nil != err {
			return 0, errors.Wrapf(err, "invalid sampling interval %q", v)
		}
		ms = iv
	case time.Duration:
		return v, nil
	default:
		iv, ok := value.ToInt64(v)
		if !ok {
			return 0, errors.Errorf("invalid sampling interval %v", v)
		}
		ms = iv
	}
	if ms <= 0 {
		return 0, errors.Errorf("sampling interval must be positive, was %d", ms)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// ParseNodeList 解析订阅配置：JSON对象，subscriptions 字段为节点ID字符串列表。空列表合法。
func ParseNodeList(raw string) ([]string, error) {
	var doc struct {
		Subscriptions *[]string `json:"subscriptions"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); nil != err {
		return nil, &ConfigError{Param: ParamSubscriptions, Err: errors.Wrap(err, "not a JSON subscriptions object")}
	}
	if nil == doc.Subscriptions {
		return nil, &ConfigError{Param: ParamSubscriptions, Err: errors.New(`missing "subscriptions" list`)}
	}
	nodes := make([]string, 0, len(*doc.Subscriptions))
	for _, id := range *doc.Subscriptions {
		nodes = append(nodes, strings.TrimSpace(id))
	}
	return nodes, nil
}
