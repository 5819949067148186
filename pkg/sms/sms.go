// Package sms 短信网关抽象。
// 验证码存储只依赖 Sender 接口，不关心短信如何送达；
// 生产环境接入真实网关时新增实现并在 NewSender 中按 provider 分发。
package sms

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fgwjs00/lndx-sub001/config"
)

// Sender 短信发送接口
// 返回非 nil error 表示发送失败，调用方不得缓存对应验证码
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

// NewSender 按配置创建 Sender 实例
func NewSender(cfg *config.SMSConfig, logger *zap.Logger) (Sender, error) {
	switch cfg.Provider {
	case "console", "":
		return NewConsoleSender(cfg.SignName, logger), nil
	case "noop":
		return NoopSender{}, nil
	default:
		return nil, fmt.Errorf("不支持的短信服务商: %q", cfg.Provider)
	}
}

// ── Console 实现（开发环境）──

// ConsoleSender 将短信内容打印到日志，不做真实发送
type ConsoleSender struct {
	signName string
	logger   *zap.Logger
}

// NewConsoleSender 创建 ConsoleSender
func NewConsoleSender(signName string, logger *zap.Logger) *ConsoleSender {
	return &ConsoleSender{signName: signName, logger: logger}
}

func (s *ConsoleSender) Send(_ context.Context, phone, message string) error {
	s.logger.Info("发送短信（console）",
		zap.String("phone", phone),
		zap.String("content", fmt.Sprintf("【%s】%s", s.signName, message)),
	)
	return nil
}

// ── Noop 实现（测试）──

// NoopSender 静默丢弃所有短信
type NoopSender struct{}

func (NoopSender) Send(context.Context, string, string) error { return nil }
