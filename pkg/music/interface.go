package music

import (
	"context"
)

// MusicAPI 音乐源通用接口，每个歌词源实现一份
type MusicAPI interface {
	// Search 按关键词搜索，返回候选歌曲列表
	Search(ctx context.Context, keyword string, searchType SearchType, page int) ([]SongInfo, error)

	// GetLyrics 获取候选歌曲的歌词，没有歌词时返回 ErrLyricsNotFound
	GetLyrics(ctx context.Context, info SongInfo) (*Lyrics, error)

	// Source 返回该实现对应的歌词源
	Source() Source

	// GetProviderName 获取音乐提供商名称
	GetProviderName() string
}

// Searcher 多源搜索/获取歌词的分发接口（由 Manager 实现）
type Searcher interface {
	// Search 在指定歌词源上搜索
	Search(ctx context.Context, source Source, keyword string, searchType SearchType, page int) ([]SongInfo, error)

	// GetLyrics 根据候选歌曲所属的源获取歌词
	GetLyrics(ctx context.Context, info SongInfo) (*Lyrics, error)
}
