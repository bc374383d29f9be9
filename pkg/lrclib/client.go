package lrclib

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"

	"lyrics-backend/pkg/httputil"
	"lyrics-backend/pkg/lrc"
	"lyrics-backend/pkg/music"
)

var logger = log.With().Str("component", "lrclib").Logger()

// DefaultBaseURL LRCLib API 地址
const DefaultBaseURL = "https://lrclib.net/api"

// Client LRCLib客户端
type Client struct {
	http    *httputil.Client
	baseURL string
}

var _ music.MusicAPI = (*Client)(nil)

// record LRCLib API响应结构
type record struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"` // 秒
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

// NewClient 创建新的LRCLib客户端，baseURL 为空时使用 DefaultBaseURL
func NewClient(baseURL string, opts httputil.Options) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    httputil.NewClient("lrclib", opts),
		baseURL: baseURL,
	}
}

// GetProviderName 返回提供商名称
func (c *Client) GetProviderName() string {
	return "LRCLib"
}

// Source 歌词源标识
func (c *Client) Source() music.Source {
	return music.SourceLRCLib
}

// Search 全文搜索，LRCLib 没有分页，page > 1 时返回空
func (c *Client) Search(ctx context.Context, keyword string, searchType music.SearchType, page int) ([]music.SongInfo, error) {
	if searchType != music.SearchSong {
		return nil, fmt.Errorf("%w: lrclib does not support %s search", music.ErrSearch, searchType)
	}
	if page > 1 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("q", keyword)
	searchURL := c.baseURL + "/search?" + params.Encode()

	body, err := c.http.Get(ctx, searchURL, nil)
	if err != nil {
		return nil, err
	}

	var records []record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", music.ErrSearch, err)
	}
	logger.Debug().Str("keyword", keyword).Int("results", len(records)).Msg("Search finished")

	songs := make([]music.SongInfo, 0, len(records))
	for _, r := range records {
		songs = append(songs, r.songInfo())
	}
	return songs, nil
}

func (r record) songInfo() music.SongInfo {
	info := music.SongInfo{
		ID:       strconv.FormatInt(r.ID, 10),
		Title:    r.TrackName,
		Album:    r.AlbumName,
		Duration: int64(r.Duration * 1000),
		Source:   music.SourceLRCLib,
		Language: music.LanguageOther,
	}
	if info.Title == "" {
		info.Title = r.Name
	}
	if r.ArtistName != "" {
		info.Artists = []string{r.ArtistName}
	}
	if r.Instrumental {
		info.Language = music.LanguageInstrumental
	}
	return info
}

// GetLyrics 按 id 获取歌词，优先同步歌词，没有则使用纯文本歌词
func (c *Client) GetLyrics(ctx context.Context, info music.SongInfo) (*music.Lyrics, error) {
	body, err := c.http.Get(ctx, c.baseURL+"/get/"+url.PathEscape(info.ID), nil)
	if err != nil {
		return nil, err
	}

	var r record
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if r.Instrumental {
		return music.NewInstrumentalLyrics(info), nil
	}

	text := r.SyncedLyrics
	if text == "" {
		text = r.PlainLyrics
	}
	logger.Debug().Str("song", info.ArtistTitle()).Bool("synced", r.SyncedLyrics != "").Msg("Got lyrics")
	return lrc.Build(info, map[music.TrackKey]string{music.TrackOrig: text})
}
