package utils

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger 全局日志，InitLogger 之前为空操作日志
var Logger = zap.NewNop()

// InitLogger 按运行模式构建日志：release 输出 JSON，其余模式输出彩色开发日志。
// level 非空时覆盖模式的默认级别。
func InitLogger(mode, level string) error {
	var config zap.Config

	if mode == "release" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		config.Level = zap.NewAtomicLevelAt(lvl)
	}

	logger, err := config.Build(zap.Fields(zap.String("service", "maskoverlay")))
	if err != nil {
		return err
	}

	Logger = logger
	return nil
}

// Sync 刷新缓冲的日志，程序退出前调用
func Sync() {
	_ = Logger.Sync()
}
