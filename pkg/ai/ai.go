// Package ai 大模型客户端的统一接口
package ai

import "context"

// AiInterface 文本对话模型
type AiInterface interface {
	Name() string
	HandleText(ctx context.Context, msg string) (string, error)
}
