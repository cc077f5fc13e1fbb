// Package logger 基于 zap 构建进程日志器
package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config 日志配置
type Config struct {
	Level      string `yaml:"level"`      // debug / info / warn / error
	File       string `yaml:"file"`       // 日志文件路径，空则仅输出到控制台
	Production bool   `yaml:"production"` // true 时输出 JSON 格式
}

// NewLogger 按配置构建 zap 日志器
// 文件输出目录不存在时自动创建
func NewLogger(c Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if c.Level != "" {
		var err error
		level, err = zapcore.ParseLevel(c.Level)
		if err != nil {
			return nil, err
		}
	}

	outputPaths := []string{"stdout"}
	if c.File != "" {
		if err := os.MkdirAll(filepath.Dir(c.File), 0755); err != nil {
			return nil, err
		}
		outputPaths = append(outputPaths, c.File)
	}

	var encoderConfig zapcore.EncoderConfig
	encoding := "console"
	if c.Production {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoding = "json"
	} else {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		if c.File == "" {
			// 写文件时不能带 ANSI 颜色
			encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
	}
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")

	zc := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      !c.Production,
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputPaths,
		ErrorOutputPaths: []string{"stderr"},
	}

	return zc.Build()
}
