// Package tencent 腾讯云机器翻译
package tencent

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/regions"
	tmt "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/tmt/v20180321"
)

var logger = log.With().Str("component", "tencent").Logger()

// TencentClient 文本翻译
type TencentClient interface {
	// TranslateText 翻译单段文本，target 为空时中文译为英文、其它译为中文
	TranslateText(ctx context.Context, text, target string) (string, error)
	// TranslateBatch 批量翻译，返回与输入等长的结果
	TranslateBatch(ctx context.Context, texts []string, target string) ([]string, error)
}

// TencentClientImpl 基于 TMT 的实现
type TencentClientImpl struct {
	tmtClient *tmt.Client
}

// NewClient 使用密钥创建客户端
func NewClient(secretID, secretKey string) (TencentClient, error) {
	credential := common.NewCredential(secretID, secretKey)

	cpf := profile.NewClientProfile()
	cpf.HttpProfile.ReqMethod = "POST"
	cpf.HttpProfile.ReqTimeout = 10

	tmtClient, err := tmt.NewClient(credential, regions.Guangzhou, cpf)
	if err != nil {
		logger.Error().Err(err).Msg("new tencent client error")
		return nil, err
	}
	return &TencentClientImpl{tmtClient: tmtClient}, nil
}

func (t *TencentClientImpl) detect(ctx context.Context, text string) (string, error) {
	request := tmt.NewLanguageDetectRequest()
	request.Text = common.StringPtr(text)
	request.ProjectId = common.Int64Ptr(0)
	response, err := t.tmtClient.LanguageDetectWithContext(ctx, request)
	if err != nil {
		return "", fmt.Errorf("failed to detect language: %w", err)
	}
	if response.Response == nil || response.Response.Lang == nil {
		return "", errors.New("language detect returned no result")
	}
	return *response.Response.Lang, nil
}

func defaultTarget(lang string) string {
	if lang == "zh" {
		return "en"
	}
	return "zh"
}

// TranslateText 翻译单段文本
func (t *TencentClientImpl) TranslateText(ctx context.Context, text, target string) (string, error) {
	out, err := t.TranslateBatch(ctx, []string{text}, target)
	if err != nil {
		return "", err
	}
	return out[0], nil
}

// TranslateBatch 批量翻译
func (t *TencentClientImpl) TranslateBatch(ctx context.Context, texts []string, target string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	lang, err := t.detect(ctx, texts[0])
	if err != nil {
		return nil, err
	}
	if target == "" {
		target = defaultTarget(lang)
	}

	request := tmt.NewTextTranslateBatchRequest()
	request.Source = common.StringPtr(lang)
	request.Target = common.StringPtr(target)
	request.ProjectId = common.Int64Ptr(0)
	request.SourceTextList = common.StringPtrs(texts)
	response, err := t.tmtClient.TextTranslateBatchWithContext(ctx, request)
	if err != nil {
		logger.Error().Err(err).Msg("failed to send request")
		return nil, err
	}
	if response.Response == nil || len(response.Response.TargetTextList) != len(texts) {
		return nil, errors.New("translate batch returned mismatched result")
	}

	out := make([]string, len(texts))
	for i, p := range response.Response.TargetTextList {
		if p != nil {
			out[i] = *p
		}
	}
	return out, nil
}
