package edgex

import "runtime"

//
// Author: 陈哈哈 chenyongjia@parkingwang.com, yoojiachen@gmail.com
//

const (
	NodeTypeTrigger = "TRIGGER"
)

// MainNode消息是主节点相关信息的描述
type MainNode struct {
	HostOS       string         `json:"hostOS"`     // 系统
	HostArch     string         `json:"hostArch"`   // CPU架构
	NodeType     string         `json:"nodeType"`   // 节点类型
	NodeId       string         `json:"nodeId"`     // 节点ID
	Vendor       string         `json:"vendor"`     // 所属品牌名称
	ConnDriver   string         `json:"connDriver"` // 通讯驱动名称
	Version      string         `json:"version"`    // 插件版本
	VirtualNodes []*VirtualNode `json:"nodes"`      // 虚拟设备节点列表
}

// 虚拟节点信息
type VirtualNode struct {
	VirtualId string                 `json:"virtualId"` // 虚拟节点ID；须保证在单个节点内唯一性
	Desc      string                 `json:"desc"`      // 设备描述信息
	Virtual   bool                   `json:"virtual"`   // 是否为虚拟设备，即通过代理后转换的设备
	Attrs     map[string]interface{} `json:"attrs"`     // 其它属性
}

// 补全主机信息
func (n *MainNode) fillHost() {
	if "" == n.HostOS {
		n.HostOS = runtime.GOOS
	}
	if "" == n.HostArch {
		n.HostArch = runtime.GOARCH
	}
}
