package opcua

import (
	"fmt"

	"github.com/pkg/errors"
)

//
// Author: 陈哈哈 yoojiachen@gmail.com
//

var (
	// ErrSubscriptionClosed 对已取消的订阅再次调用Unsubscribe
	ErrSubscriptionClosed = errors.New("subscription already closed")
	// ErrInvalidHandle Handle不是本插件创建的实例
	ErrInvalidHandle = errors.New("handle is not an opcua connector")
	// ErrAlreadyStarted 插件实例已经启动
	ErrAlreadyStarted = errors.New("connector already started")
)

// ConfigError 配置参数缺失或格式错误。
type ConfigError struct {
	Param string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("opcua: config %q: %v", e.Param, e.Err)
}

func (e *ConfigError) Cause() error  { return e.Err }
func (e *ConfigError) Unwrap() error { return e.Err }

// ConnectionError 服务端不可达、握手失败或认证被拒绝。
type ConnectionError struct {
	URL   string
	Stage string
	Err   error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("opcua: connect %s (%s): %v", e.URL, e.Stage, e.Err)
}

func (e *ConnectionError) Cause() error  { return e.Err }
func (e *ConnectionError) Unwrap() error { return e.Err }

// SubscriptionError 节点解析或订阅创建被拒绝。NodeID为空表示错误与单个节点无关。
type SubscriptionError struct {
	URL    string
	NodeID string
	Stage  string
	Err    error
}

func (e *SubscriptionError) Error() string {
	if "" == e.NodeID {
		return fmt.Sprintf("opcua: subscription on %s (%s): %v", e.URL, e.Stage, e.Err)
	}
	return fmt.Sprintf("opcua: subscription on %s (%s) node %q: %v", e.URL, e.Stage, e.NodeID, e.Err)
}

func (e *SubscriptionError) Cause() error  { return e.Err }
func (e *SubscriptionError) Unwrap() error { return e.Err }

// TeardownError 停止过程中一个或多个步骤出错。Err 可能是多个错误的组合(multierr)。
type TeardownError struct {
	URL string
	Err error
}

func (e *TeardownError) Error() string {
	return fmt.Sprintf("opcua: teardown %s: %v", e.URL, e.Err)
}

func (e *TeardownError) Cause() error  { return e.Err }
func (e *TeardownError) Unwrap() error { return e.Err }

func IsConfigError(err error) bool {
	var target *ConfigError
	return errors.As(err, &target)
}

func IsConnectionError(err error) bool {
	var target *ConnectionError
	return errors.As(err, &target)
}

func IsSubscriptionError(err error) bool {
	var target *SubscriptionError
	return errors.As(err, &target)
}

func IsTeardownError(err error) bool {
	var target *TeardownError
	return errors.As(err, &target)
}
