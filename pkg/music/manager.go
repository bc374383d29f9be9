package music

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

var logger = log.With().Str("component", "music-manager").Logger()

// Manager 多歌词源管理器，按源分发搜索和获取歌词
type Manager struct {
	providers map[Source]MusicAPI
	order     []Source
}

var _ Searcher = (*Manager)(nil)

// NewManager 创建新的音乐API管理器，providers 的顺序即默认优先级
func NewManager(providers []MusicAPI) *Manager {
	m := &Manager{providers: make(map[Source]MusicAPI, len(providers))}
	if len(providers) == 0 {
		logger.Warn().Msg("No music providers configured")
		return m
	}

	for _, p := range providers {
		if _, dup := m.providers[p.Source()]; dup {
			logger.Warn().Str("source", p.Source().String()).Msg("Duplicate provider ignored")
			continue
		}
		m.providers[p.Source()] = p
		m.order = append(m.order, p.Source())
	}

	logger.Info().
		Int("provider_count", len(m.order)).
		Strs("providers", m.GetProviderNames()).
		Msg("Music API Manager initialized")
	return m
}

// Search 在指定源上搜索
func (m *Manager) Search(ctx context.Context, source Source, keyword string, searchType SearchType, page int) ([]SongInfo, error) {
	provider, ok := m.providers[source]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, source)
	}

	logger.Debug().
		Str("provider", provider.GetProviderName()).
		Str("keyword", keyword).
		Str("search_type", searchType.String()).
		Int("page", page).
		Msg("Searching")

	songs, err := provider.Search(ctx, keyword, searchType, page)
	if err != nil {
		logger.Warn().
			Str("provider", provider.GetProviderName()).
			Str("keyword", keyword).
			Err(err).
			Msg("Provider search failed")
		return nil, err
	}

	logger.Info().
		Str("provider", provider.GetProviderName()).
		Str("keyword", keyword).
		Int("results", len(songs)).
		Msg("Search finished")
	return songs, nil
}

// GetLyrics 由候选歌曲所属的源获取歌词
func (m *Manager) GetLyrics(ctx context.Context, info SongInfo) (*Lyrics, error) {
	provider, ok := m.providers[info.Source]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, info.Source)
	}

	lyrics, err := provider.GetLyrics(ctx, info)
	if err != nil {
		logger.Warn().
			Str("provider", provider.GetProviderName()).
			Str("song_id", info.ID).
			Str("song", info.ArtistTitle()).
			Err(err).
			Msg("Provider get lyrics failed")
		return nil, err
	}

	logger.Info().
		Str("provider", provider.GetProviderName()).
		Str("song", info.ArtistTitle()).
		Msg("Successfully got lyrics")
	return lyrics, nil
}

// GetProviderName 获取管理器名称
func (m *Manager) GetProviderName() string {
	if len(m.order) > 0 {
		return fmt.Sprintf("Manager[Primary: %s]", m.providers[m.order[0]].GetProviderName())
	}
	return "Manager[No Providers]"
}

// Sources 已注册的源，按注册顺序
func (m *Manager) Sources() []Source {
	out := make([]Source, len(m.order))
	copy(out, m.order)
	return out
}

// Has 是否注册了某个源
func (m *Manager) Has(source Source) bool {
	_, ok := m.providers[source]
	return ok
}

// GetProviderCount 获取提供商数量
func (m *Manager) GetProviderCount() int {
	return len(m.order)
}

// GetProviderNames 获取所有提供商名称
func (m *Manager) GetProviderNames() []string {
	names := make([]string, len(m.order))
	for i, source := range m.order {
		names[i] = m.providers[source].GetProviderName()
	}
	return names
}
