package edgex

//
// Author: 陈哈哈 yoojiachen@gmail.com
//

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ZapLoggerConfig = zap.Config{
	Level:       zap.NewAtomicLevelAt(zap.DebugLevel),
	Development: false,
	Encoding:    "console",
	EncoderConfig: zapcore.EncoderConfig{
		// Keys can be anything except the empty string.
		TimeKey:        "T",
		LevelKey:       "L",
		NameKey:        "N",
		MessageKey:     "M",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	},
	OutputPaths:      []string{"stdout"},
	ErrorOutputPaths: []string{"stderr"},
}

var ZapLogger = NewZapLogger()
var ZapSugarLogger = NewZapSugarLogger()

var log = ZapSugarLogger

func ZapLoggerConfig() zap.Config {
	return _ZapLoggerConfig
}

func NewZapLogger() *zap.Logger {
	logger, err := _ZapLoggerConfig.Build()
	if nil != err {
		// 输出目标不可用时，不输出日志也不能影响节点运行
		return zap.NewNop()
	}
	return logger
}

func NewZapSugarLogger() *zap.SugaredLogger {
	return ZapLogger.Sugar()
}

// NamedLogger 返回带组件名称的Logger
func NamedLogger(name string) *zap.SugaredLogger {
	return ZapSugarLogger.Named(name)
}
