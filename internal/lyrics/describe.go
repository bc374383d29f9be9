package lyrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"lyrics-backend/internal/autofetch"
	"lyrics-backend/internal/player"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxRetries = 3

// SongInfo AI 从媒体标题中提取的歌曲信息
type SongInfo struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	IsSong bool   `json:"is_song"`
}

func formatQuerySong(title string) string {
	return fmt.Sprintf(`请精确地按照以下JSON格式提取歌曲信息: {"is_song": true, "title": "歌曲标题", "artist": "演唱者"}。  输入是一个媒体标题，如果标题中包含歌曲信息，请返回符合格式的JSON；否则，返回{"is_song": false}。 请注意，"title" 和 "artist" 必须准确，否则将被视为错误，切记不要任何markdown格式，并将繁体中文转换为简体。 媒体标题是：%s`, title)
}

// parseSongInfo 解析 AI 返回的 JSON，容忍 markdown 代码块
func parseSongInfo(raw string) (SongInfo, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var info SongInfo
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &info); err != nil {
		return SongInfo{}, fmt.Errorf("failed to parse AI response: %w", err)
	}
	if info.IsSong && strings.TrimSpace(info.Title) == "" {
		return SongInfo{}, fmt.Errorf("AI response has no title: %s", raw)
	}
	return info, nil
}

// splitIdentifier 没有 AI 时按 "艺术家 - 标题" 拆分媒体标题
func splitIdentifier(identifier string) SongInfo {
	if artist, title, ok := strings.Cut(identifier, " - "); ok && strings.TrimSpace(title) != "" {
		return SongInfo{Title: strings.TrimSpace(title), Artist: strings.TrimSpace(artist), IsSong: true}
	}
	return SongInfo{Title: strings.TrimSpace(identifier), IsSong: true}
}

// describe 把播放器信息转为歌曲描述。播放器同时给出标题和艺术家时直接使用，
// 否则通过 AI 清理媒体标题，结果记录在歌曲缓存中
func (p *Provider) describe(ctx context.Context, media player.Metadata) (autofetch.SongDescription, error) {
	desc := media.Description()
	if media.Artist != "" && desc.FilePath != "" {
		// 本地文件的标签可信
		return desc, nil
	}

	identifier := media.Identifier()
	info, err := p.resolve(ctx, identifier)
	switch {
	case err == nil:
	case media.Artist != "":
		if p.aiClient != nil {
			logger.Warn().Err(err).Str("media", identifier).Msg("Failed to resolve media title, using player metadata")
		}
		return desc, nil
	default:
		if p.aiClient != nil {
			logger.Warn().Err(err).Str("media", identifier).Msg("Failed to resolve media title, splitting it")
		}
		info = splitIdentifier(media.Title)
	}
	if !info.IsSong {
		return desc, fmt.Errorf("%w: %s", ErrNotSong, identifier)
	}

	desc.Title = info.Title
	if info.Artist != "" {
		desc.Artist = info.Artist
	}
	logger.Info().Str("media", identifier).Str("title", desc.Title).Str("artist", desc.Artist).Msg("Media title resolved")
	return desc, nil
}

func (p *Provider) resolve(ctx context.Context, identifier string) (SongInfo, error) {
	if p.songCache != nil {
		if cached, ok := p.songCache.Get(identifier); ok {
			if info, err := parseSongInfo(cached); err == nil {
				return info, nil
			}
		}
	}
	if p.aiClient == nil {
		return SongInfo{}, fmt.Errorf("no AI client configured")
	}

	var raw string
	var err error
	for i := range maxRetries {
		raw, err = p.aiClient.HandleText(ctx, formatQuerySong(identifier))
		if err == nil {
			break
		}
		logger.Warn().Err(err).Int("attempt", i+1).Int("max", maxRetries).Str("ai", p.aiClient.Name()).Msg("Failed to query AI")
		select {
		case <-ctx.Done():
			return SongInfo{}, ctx.Err()
		case <-time.After(time.Second):
		}
	}
	if err != nil {
		return SongInfo{}, fmt.Errorf("failed to query %s after %d attempts: %w", p.aiClient.Name(), maxRetries, err)
	}

	info, err := parseSongInfo(raw)
	if err != nil {
		return SongInfo{}, err
	}
	if p.songCache != nil {
		if encoded, err := json.Marshal(info); err == nil {
			if err := p.songCache.Add(identifier, string(encoded)); err != nil {
				logger.Warn().Err(err).Msg("Failed to write song cache")
			}
		}
	}
	return info, nil
}
