// Package translate 为缺少翻译轨道的歌词生成翻译
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"lyrics-backend/pkg/ai"
	"lyrics-backend/pkg/lrc"
	"lyrics-backend/pkg/music"
	"lyrics-backend/pkg/tencent"
)

var logger = log.With().Str("component", "translate").Logger()

// ErrLineMismatch 模型输出的行数与输入不一致
var ErrLineMismatch = errors.New("translated line count mismatch")

// Translator 逐行翻译
type Translator interface {
	Name() string
	Translate(ctx context.Context, texts []string, targetLang string) ([]string, error)
}

// languageNames 目标语言代码对应的提示词名称
var languageNames = map[string]string{
	"zh":    "简体中文",
	"zh-TW": "繁体中文",
	"en":    "English",
	"ja":    "日本語",
	"ko":    "한국어",
	"es":    "Español",
	"fr":    "Français",
	"de":    "Deutsch",
	"pt":    "Português",
	"ru":    "Русский",
}

const promptTemplate = `You are a professional lyric translator. Translate the following lyrics into {target_lang} while keeping the meaning, tone and imagery of the original.

Requirements:
- Translate line by line and keep the original numbering
- Never combine or split lines
- Keep special symbols such as ~ and *
- Output only the translated lines in the format NN|translated line

Lyrics:
{orig_lines}`

// AITranslator 使用大模型翻译
type AITranslator struct {
	client ai.AiInterface
}

// NewAITranslator 创建大模型翻译器
func NewAITranslator(client ai.AiInterface) *AITranslator {
	return &AITranslator{client: client}
}

func (t *AITranslator) Name() string {
	return "ai:" + t.client.Name()
}

// Translate 把每行编号为 "01|text" 发送给模型，再按编号解析结果
func (t *AITranslator) Translate(ctx context.Context, texts []string, targetLang string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := t.client.HandleText(ctx, buildPrompt(texts, targetLang))
	if err != nil {
		return nil, fmt.Errorf("failed to translate with %s: %w", t.client.Name(), err)
	}
	return parseNumbered(resp, len(texts))
}

func buildPrompt(texts []string, targetLang string) string {
	name, ok := languageNames[targetLang]
	if !ok {
		name = targetLang
	}
	var lines strings.Builder
	for i, text := range texts {
		fmt.Fprintf(&lines, "%02d|%s\n", i+1, text)
	}
	r := strings.NewReplacer("{target_lang}", name, "{orig_lines}", strings.TrimRight(lines.String(), "\n"))
	return r.Replace(promptTemplate)
}

// parseNumbered 解析 "NN|text" 格式的模型输出
func parseNumbered(resp string, want int) ([]string, error) {
	resp = strings.TrimSpace(resp)
	resp = strings.TrimPrefix(resp, "```")
	resp = strings.TrimSuffix(resp, "```")

	var out []string
	for _, line := range strings.Split(resp, "\n") {
		_, text, ok := strings.Cut(line, "|")
		if !ok {
			continue
		}
		out = append(out, strings.TrimSpace(text))
	}
	if len(out) != want {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrLineMismatch, want, len(out))
	}
	return out, nil
}

// TencentTranslator 使用腾讯云机器翻译
type TencentTranslator struct {
	client tencent.TencentClient
}

// NewTencentTranslator 创建腾讯云翻译器
func NewTencentTranslator(client tencent.TencentClient) *TencentTranslator {
	return &TencentTranslator{client: client}
}

func (t *TencentTranslator) Name() string {
	return "tencent"
}

func (t *TencentTranslator) Translate(ctx context.Context, texts []string, targetLang string) ([]string, error) {
	return t.client.TranslateBatch(ctx, texts, targetLang)
}

// Lyrics 为没有翻译轨道的歌词生成翻译，已有翻译或纯音乐时原样返回
func Lyrics(ctx context.Context, tr Translator, l *music.Lyrics, targetLang string) (*music.Lyrics, error) {
	if l == nil || l.Has(music.TrackTs) || l.IsInstrumental() || !l.Has(music.TrackOrig) {
		return l, nil
	}

	orig := l.Tracks[music.TrackOrig]
	texts := lrc.Texts(orig)
	// 空行不发送给翻译服务
	var idx []int
	var nonEmpty []string
	for i, text := range texts {
		if strings.TrimSpace(text) != "" {
			idx = append(idx, i)
			nonEmpty = append(nonEmpty, text)
		}
	}
	if len(nonEmpty) == 0 {
		return l, nil
	}

	translated, err := tr.Translate(ctx, nonEmpty, targetLang)
	if err != nil {
		return l, err
	}
	if len(translated) != len(nonEmpty) {
		return l, fmt.Errorf("%w: want %d, got %d", ErrLineMismatch, len(nonEmpty), len(translated))
	}
	full := make([]string, len(texts))
	for i, j := range idx {
		full[j] = translated[i]
	}

	out := *l
	out.Tracks = make(map[music.TrackKey]*music.Track, len(l.Tracks)+1)
	for k, v := range l.Tracks {
		out.Tracks[k] = v
	}
	out.Tracks[music.TrackTs] = lrc.WithTexts(orig, full)
	logger.Debug().Str("translator", tr.Name()).Int("lines", len(nonEmpty)).Msg("Lyrics translated")
	return &out, nil
}
