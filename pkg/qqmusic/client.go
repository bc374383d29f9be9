package qqmusic

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"os"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"lyrics-backend/pkg/httputil"
	"lyrics-backend/pkg/lrc"
	"lyrics-backend/pkg/music"
)

var (
	json   = jsoniter.ConfigCompatibleWithStandardLibrary
	logger = log.With().Str("component", "qqmusic").Logger()
)

// DefaultBaseURL QQ音乐 API 地址
const DefaultBaseURL = "https://c.y.qq.com"

const pageSize = 20

// searchResponse QQ音乐搜索API响应
type searchResponse struct {
	Code int `json:"code"`
	Data struct {
		Song struct {
			List []struct {
				SongID    int64  `json:"songid"`
				SongMID   string `json:"songmid"`
				SongName  string `json:"songname"`
				AlbumName string `json:"albumname"`
				Interval  int64  `json:"interval"` // 秒
				Singer    []struct {
					Name string `json:"name"`
				} `json:"singer"`
			} `json:"list"`
		} `json:"song"`
	} `json:"data"`
}

// lyricResponse QQ音乐歌词API响应
type lyricResponse struct {
	RetCode int    `json:"retcode"`
	Code    int    `json:"code"`
	Lyric   string `json:"lyric"`
	Trans   string `json:"trans"`
}

// Client QQ音乐客户端
type Client struct {
	http    *httputil.Client
	baseURL string
	cookie  string
}

var _ music.MusicAPI = (*Client)(nil)

// NewClient 创建新的QQ音乐客户端，baseURL 为空时使用 DefaultBaseURL
func NewClient(baseURL string, opts httputil.Options) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    httputil.NewClient("qqmusic", opts),
		baseURL: baseURL,
		cookie:  os.Getenv("QQMUSIC_COOKIE"),
	}
}

// GetProviderName 获取提供商名称
func (c *Client) GetProviderName() string {
	return "QQ Music"
}

// Source 歌词源标识
func (c *Client) Source() music.Source {
	return music.SourceQQMusic
}

func (c *Client) header() http.Header {
	h := http.Header{}
	h.Set("Referer", "https://y.qq.com/")
	if c.cookie != "" {
		h.Set("Cookie", c.cookie)
	}
	return h
}

// Search 搜索歌曲
func (c *Client) Search(ctx context.Context, keyword string, searchType music.SearchType, page int) ([]music.SongInfo, error) {
	if searchType != music.SearchSong {
		return nil, fmt.Errorf("%w: qqmusic does not support %s search", music.ErrSearch, searchType)
	}
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("w", keyword)
	params.Set("p", strconv.Itoa(page))
	params.Set("n", strconv.Itoa(pageSize))
	params.Set("format", "json")
	searchURL := c.baseURL + "/soso/fcgi-bin/client_search_cp?" + params.Encode()
	logger.Debug().Str("url", searchURL).Msg("Searching")

	body, err := c.http.Get(ctx, searchURL, c.header())
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(stripJSONP(body), &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode search response: %v", music.ErrSearch, err)
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("%w: qqmusic returned code %d", music.ErrSearch, resp.Code)
	}

	songs := make([]music.SongInfo, 0, len(resp.Data.Song.List))
	for _, s := range resp.Data.Song.List {
		artists := make([]string, 0, len(s.Singer))
		for _, a := range s.Singer {
			artists = append(artists, a.Name)
		}
		songs = append(songs, music.SongInfo{
			ID:       strconv.FormatInt(s.SongID, 10),
			Title:    s.SongName,
			Artists:  artists,
			Album:    s.AlbumName,
			Duration: s.Interval * 1000,
			Source:   music.SourceQQMusic,
			Extra:    map[string]string{"mid": s.SongMID},
		})
	}
	return songs, nil
}

// GetLyrics 获取歌词和翻译
func (c *Client) GetLyrics(ctx context.Context, info music.SongInfo) (*music.Lyrics, error) {
	mid := info.Extra["mid"]
	if mid == "" {
		return nil, fmt.Errorf("qqmusic song %s has no mid", info.ID)
	}
	params := url.Values{}
	params.Set("songmid", mid)
	params.Set("format", "json")
	params.Set("nobase64", "1")
	params.Set("g_tk", "5381")
	lyricURL := c.baseURL + "/lyric/fcgi-bin/fcg_query_lyric_new.fcg?" + params.Encode()

	body, err := c.http.Get(ctx, lyricURL, c.header())
	if err != nil {
		return nil, err
	}

	var resp lyricResponse
	if err := json.Unmarshal(stripJSONP(body), &resp); err != nil {
		return nil, fmt.Errorf("failed to decode lyric response: %w", err)
	}
	if resp.RetCode != 0 || resp.Code != 0 {
		// -1901 表示没有歌词
		return nil, fmt.Errorf("%w: %s (retcode %d)", music.ErrLyricsNotFound, info.ArtistTitle(), resp.RetCode)
	}

	return lrc.Build(info, map[music.TrackKey]string{
		music.TrackOrig: html.UnescapeString(resp.Lyric),
		music.TrackTs:   html.UnescapeString(resp.Trans),
	})
}

// stripJSONP 去掉 MusicJsonCallback(...) 包裹
func stripJSONP(body []byte) []byte {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] == '{' || body[0] == '[' {
		return body
	}
	start := bytes.IndexByte(body, '(')
	end := bytes.LastIndexByte(body, ')')
	if start < 0 || end <= start {
		return body
	}
	return body[start+1 : end]
}
