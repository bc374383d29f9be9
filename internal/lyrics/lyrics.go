package lyrics

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"lyrics-backend/internal/autofetch"
	"lyrics-backend/internal/config"
	"lyrics-backend/internal/player"
	"lyrics-backend/pkg/ai"
	"lyrics-backend/pkg/ai/gemini"
	"lyrics-backend/pkg/ai/openai"
	"lyrics-backend/pkg/httputil"
	"lyrics-backend/pkg/lrc"
	"lyrics-backend/pkg/music"
	musiccache "lyrics-backend/pkg/musicCache"
	"lyrics-backend/pkg/providers"
	"lyrics-backend/pkg/redis"
	"lyrics-backend/pkg/tencent"
	"lyrics-backend/pkg/translate"
)

var logger = log.With().Str("component", "lyrics").Logger()

var (
	// ErrNotSong 媒体标题不是歌曲
	ErrNotSong = errors.New("media is not a song")
	// ErrInstrumental 纯音乐且配置为跳过
	ErrInstrumental = errors.New("instrumental song")
)

// Deps Provider 依赖的组件，除 Fetcher 外为 nil 时不启用
type Deps struct {
	Fetcher    *autofetch.Fetcher
	AI         ai.AiInterface
	Translator translate.Translator
	SongCache  *musiccache.Cache
	Redis      *redis.Client
}

type Provider struct {
	cacheDir   string
	aiClient   ai.AiInterface
	songCache  *musiccache.Cache
	redis      *redis.Client
	fetcher    *autofetch.Fetcher
	fetchOpts  autofetch.FetchOptions
	translator translate.Translator
	targetLang string
	langsOrder []music.TrackKey
	skipInst   bool
}

// NewProvider 使用已创建的组件组装 Provider
func NewProvider(cfg *config.Config, deps Deps) *Provider {
	return &Provider{
		cacheDir:   cfg.App.CacheDir,
		aiClient:   deps.AI,
		songCache:  deps.SongCache,
		redis:      deps.Redis,
		fetcher:    deps.Fetcher,
		translator: deps.Translator,
		fetchOpts: autofetch.FetchOptions{
			MinScore: cfg.Fetch.MinScore,
			Sources:  cfg.Fetch.Sources,
			Timeout:  cfg.Fetch.Timeout,
		},
		targetLang: cfg.Lyrics.TargetLang,
		langsOrder: cfg.Lyrics.LangsOrder,
		skipInst:   cfg.Lyrics.SkipInstLyrics,
	}
}

// NewFetcher 根据 [fetch] 配置创建歌词源管理器和自动获取器
func NewFetcher(cfg *config.Config) (*autofetch.Fetcher, *music.Manager, error) {
	httpOpts := httputil.DefaultOptions()
	httpOpts.RequestsPerSecond = cfg.Fetch.RequestsPerSecond
	manager := providers.CreateManager(cfg.Fetch.Sources, httpOpts)
	if manager.GetProviderCount() == 0 {
		return nil, nil, fmt.Errorf("no lyrics source available in %v", cfg.Fetch.Sources)
	}
	fetcher := autofetch.New(manager,
		autofetch.WithWorkers(cfg.Fetch.Workers),
		autofetch.WithTimeout(cfg.Fetch.Timeout),
		autofetch.WithPollInterval(cfg.Fetch.PollInterval),
	)
	return fetcher, manager, nil
}

// NewProviderFromConfig 根据配置创建全部组件，可选组件创建失败时只记录警告
func NewProviderFromConfig(ctx context.Context, cfg *config.Config) (*Provider, error) {
	fetcher, manager, err := NewFetcher(cfg)
	if err != nil {
		return nil, err
	}
	deps := Deps{Fetcher: fetcher}

	if cfg.AI.APIKey != "" {
		aiClient, err := newAIClient(ctx, cfg.AI)
		if err != nil {
			logger.Warn().Err(err).Str("module", cfg.AI.ModuleName).Msg("Failed to create AI client, media titles will not be cleaned up")
		} else {
			deps.AI = aiClient
		}
	}

	songCache, err := musiccache.Open(filepath.Join(cfg.App.CacheDir, "music_cache.list"))
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to open song cache")
	} else {
		deps.SongCache = songCache
	}

	if cfg.Redis.Enabled {
		rdb, err := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect redis, using file cache only")
		} else {
			deps.Redis = rdb
		}
	}

	switch cfg.Lyrics.Translate {
	case "ai":
		if deps.AI != nil {
			deps.Translator = translate.NewAITranslator(deps.AI)
		} else {
			logger.Warn().Msg("AI translation requested but no AI client available")
		}
	case "tencent":
		client, err := tencent.NewClient(cfg.Tencent.SecretID, cfg.Tencent.SecretKey)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to create tencent translator")
		} else {
			deps.Translator = translate.NewTencentTranslator(client)
		}
	}

	logger.Info().
		Strs("sources", manager.GetProviderNames()).
		Bool("ai", deps.AI != nil).
		Bool("redis", deps.Redis != nil).
		Bool("translate", deps.Translator != nil).
		Msg("Lyrics provider ready")
	return NewProvider(cfg, deps), nil
}

func newAIClient(ctx context.Context, cfg config.AIConfig) (ai.AiInterface, error) {
	if cfg.ModuleName == "gemini" {
		return gemini.NewGemini(ctx, cfg.APIKey, "")
	}
	return openai.NewOpenAi(cfg.APIKey, cfg.ModuleName, cfg.BaseURL), nil
}

// Close 释放 redis 连接
func (p *Provider) Close() error {
	if p.redis != nil {
		return p.redis.Close()
	}
	return nil
}

// GetLyrics 获取当前播放歌曲的 LRC 歌词，优先读取缓存
func (p *Provider) GetLyrics(ctx context.Context, media player.Metadata) (string, error) {
	desc, err := p.describe(ctx, media)
	if err != nil {
		return "", err
	}

	key := cacheKey(desc)
	if text, ok := p.readCache(ctx, key); ok {
		return text, nil
	}
	logger.Info().Str("song", desc.String()).Msg("Cache MISS, fetching from sources")

	start := time.Now()
	result, err := p.fetcher.Fetch(ctx, desc, p.fetchOpts)
	if err != nil {
		return "", fmt.Errorf("failed to get lyrics for '%s': %w", desc, err)
	}
	logger.Info().
		Str("source", result.Song.Source.String()).
		Str("match", result.Song.ArtistTitle()).
		Float64("score", result.Score).
		Dur("elapsed", time.Since(start)).
		Msg("Lyrics fetched")

	l := result.Lyrics
	if l.IsInstrumental() && p.skipInst {
		return "", fmt.Errorf("%w: %s", ErrInstrumental, desc)
	}

	if p.translator != nil && !l.IsInstrumental() && !l.Has(music.TrackTs) {
		translated, err := translate.Lyrics(ctx, p.translator, l, p.targetLang)
		if err != nil {
			logger.Warn().Err(err).Str("translator", p.translator.Name()).Msg("Failed to translate lyrics, keeping original")
		} else {
			l = translated
		}
	}

	text := lrc.Format(l, p.langsOrder)
	p.writeCache(ctx, key, text)
	return text, nil
}
