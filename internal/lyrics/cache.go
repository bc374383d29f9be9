package lyrics

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"lyrics-backend/internal/autofetch"
	"lyrics-backend/pkg/fileutil"
)

// cacheKey 缓存文件名（不含扩展名），与歌曲描述一一对应
func cacheKey(desc autofetch.SongDescription) string {
	if strings.TrimSpace(desc.Title) == "" {
		base := filepath.Base(desc.FilePath)
		return fileutil.SanitizeFilename(strings.TrimSuffix(base, filepath.Ext(base)))
	}
	if desc.Artist == "" {
		return fileutil.SanitizeFilename(desc.Title)
	}
	return fileutil.SanitizeFilename(desc.Title + "-" + desc.Artist)
}

func (p *Provider) cachePath(key string) string {
	return filepath.Join(p.cacheDir, key+".lrc")
}

// readCache 依次读取文件缓存和 redis，redis 命中时回写文件
func (p *Provider) readCache(ctx context.Context, key string) (string, bool) {
	path := p.cachePath(key)
	if cached, err := os.ReadFile(path); err == nil {
		logger.Info().Str("path", path).Msg("Cache HIT, loading lyrics from file")
		return string(cached), true
	}
	if p.redis == nil {
		return "", false
	}

	text, ok, err := p.redis.GetLyrics(ctx, key)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Failed to read redis cache")
		return "", false
	}
	if !ok {
		return "", false
	}
	logger.Info().Str("key", key).Msg("Cache HIT, loading lyrics from redis")
	if err := fileutil.WriteFileOverwrite(path, []byte(text), 0644); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Failed to write cache file")
	}
	return text, true
}

func (p *Provider) writeCache(ctx context.Context, key, text string) {
	path := p.cachePath(key)
	logger.Info().Str("path", path).Msg("Saving new lyrics to cache file")
	if err := fileutil.WriteFileOverwrite(path, []byte(text), 0644); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("Failed to write cache file")
	}
	if p.redis != nil {
		if err := p.redis.SetLyrics(ctx, key, text); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("Failed to write redis cache")
		}
	}
}
