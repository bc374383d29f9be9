package netease

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"

	"lyrics-backend/pkg/httputil"
	"lyrics-backend/pkg/lrc"
	"lyrics-backend/pkg/music"
)

var logger = log.With().Str("component", "netease").Logger()

// DefaultBaseURL 网易云音乐 API 地址
const DefaultBaseURL = "https://music.163.com"

const pageSize = 30

// searchResponse 网易云搜索API响应
type searchResponse struct {
	Code   int `json:"code"`
	Result struct {
		Songs []struct {
			ID      int64  `json:"id"`
			Name    string `json:"name"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
			Album struct {
				Name string `json:"name"`
			} `json:"album"`
			Duration int64 `json:"duration"`
		} `json:"songs"`
	} `json:"result"`
}

// lyricResponse 网易云歌词API响应
type lyricResponse struct {
	Code        int  `json:"code"`
	NoLyric     bool `json:"nolyric"`
	Uncollected bool `json:"uncollected"`
	Lrc         struct {
		Lyric string `json:"lyric"`
	} `json:"lrc"`
	Tlyric struct {
		Lyric string `json:"lyric"`
	} `json:"tlyric"`
	Romalrc struct {
		Lyric string `json:"lyric"`
	} `json:"romalrc"`
}

// Client 网易云音乐客户端
type Client struct {
	http    *httputil.Client
	baseURL string
	cookie  string
}

var _ music.MusicAPI = (*Client)(nil)

// NewClient 创建新的网易云音乐客户端，baseURL 为空时使用 DefaultBaseURL
func NewClient(baseURL string, opts httputil.Options) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    httputil.NewClient("netease", opts),
		baseURL: baseURL,
		cookie:  os.Getenv("NETEASE_COOKIE"),
	}
}

// GetProviderName 获取提供商名称
func (c *Client) GetProviderName() string {
	return "NetEase Cloud Music"
}

// Source 歌词源标识
func (c *Client) Source() music.Source {
	return music.SourceNetEase
}

func (c *Client) header() http.Header {
	h := http.Header{}
	h.Set("Referer", "https://music.163.com/")
	// 设置Cookie
	if c.cookie != "" {
		h.Set("Cookie", c.cookie)
	}
	return h
}

// Search 搜索歌曲，目前只支持单曲搜索
func (c *Client) Search(ctx context.Context, keyword string, searchType music.SearchType, page int) ([]music.SongInfo, error) {
	if searchType != music.SearchSong {
		return nil, fmt.Errorf("%w: netease does not support %s search", music.ErrSearch, searchType)
	}
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("s", keyword)
	params.Set("type", "1")
	params.Set("limit", strconv.Itoa(pageSize))
	params.Set("offset", strconv.Itoa((page-1)*pageSize))
	searchURL := c.baseURL + "/api/search/get/web?" + params.Encode()
	logger.Debug().Str("url", searchURL).Msg("Searching")

	body, err := c.http.Get(ctx, searchURL, c.header())
	if err != nil {
		return nil, fmt.Errorf("failed to send search request: %w", err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode search response: %v", music.ErrSearch, err)
	}
	if resp.Code != 0 && resp.Code != http.StatusOK {
		return nil, fmt.Errorf("%w: netease returned code %d", music.ErrSearch, resp.Code)
	}

	songs := make([]music.SongInfo, 0, len(resp.Result.Songs))
	for _, s := range resp.Result.Songs {
		artists := make([]string, 0, len(s.Artists))
		for _, a := range s.Artists {
			artists = append(artists, a.Name)
		}
		songs = append(songs, music.SongInfo{
			ID:       strconv.FormatInt(s.ID, 10),
			Title:    s.Name,
			Artists:  artists,
			Album:    s.Album.Name,
			Duration: s.Duration,
			Source:   music.SourceNetEase,
		})
	}
	return songs, nil
}

// GetLyrics 获取歌词，包含原文、翻译和罗马音
func (c *Client) GetLyrics(ctx context.Context, info music.SongInfo) (*music.Lyrics, error) {
	params := url.Values{}
	params.Set("os", "pc")
	params.Set("id", info.ID)
	for _, k := range []string{"lv", "kv", "tv", "rv"} {
		params.Set(k, "-1")
	}
	lyricURL := c.baseURL + "/api/song/lyric?" + params.Encode()
	logger.Debug().Str("url", lyricURL).Msg("Fetching lyrics")

	body, err := c.http.Get(ctx, lyricURL, c.header())
	if err != nil {
		return nil, fmt.Errorf("failed to send lyric request: %w", err)
	}

	var resp lyricResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode lyric response: %w", err)
	}
	if resp.NoLyric || resp.Uncollected {
		return nil, fmt.Errorf("%w: %s", music.ErrLyricsNotFound, info.ArtistTitle())
	}

	return lrc.Build(info, map[music.TrackKey]string{
		music.TrackOrig: resp.Lrc.Lyric,
		music.TrackTs:   resp.Tlyric.Lyric,
		music.TrackRoma: resp.Romalrc.Lyric,
	})
}
