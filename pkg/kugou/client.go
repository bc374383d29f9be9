// Package kugou 酷狗音乐歌词源
package kugou

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"lyrics-backend/pkg/httputil"
	"lyrics-backend/pkg/lrc"
	"lyrics-backend/pkg/music"
)

var (
	json   = jsoniter.ConfigCompatibleWithStandardLibrary
	logger = log.With().Str("component", "kugou").Logger()
)

// Endpoints 酷狗三个接口的地址
type Endpoints struct {
	Search    string // 歌曲搜索
	Candidate string // 歌词候选
	Download  string // 歌词下载
}

// DefaultEndpoints 酷狗官方地址
var DefaultEndpoints = Endpoints{
	Search:    "http://mobilecdn.kugou.com",
	Candidate: "https://krcs.kugou.com",
	Download:  "https://lyrics.kugou.com",
}

// SingleHost 所有接口都使用同一个地址，用于测试
func SingleHost(base string) Endpoints {
	return Endpoints{Search: base, Candidate: base, Download: base}
}

const pageSize = 20

type searchResponse struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
	Data   struct {
		Info []struct {
			Hash       string `json:"hash"`
			SongName   string `json:"songname"`
			SingerName string `json:"singername"`
			AlbumName  string `json:"album_name"`
			AlbumID    string `json:"album_id"`
			Duration   int64  `json:"duration"` // 秒
		} `json:"info"`
	} `json:"data"`
}

type candidateResponse struct {
	Status     int `json:"status"`
	Candidates []struct {
		ID        string `json:"id"`
		AccessKey string `json:"accesskey"`
		Song      string `json:"song"`
		Singer    string `json:"singer"`
	} `json:"candidates"`
}

type downloadResponse struct {
	Status  int    `json:"status"`
	Fmt     string `json:"fmt"`
	Content string `json:"content"` // base64
}

// Client 酷狗音乐客户端
type Client struct {
	http      *httputil.Client
	endpoints Endpoints
}

var _ music.MusicAPI = (*Client)(nil)

// NewClient 创建酷狗客户端
func NewClient(endpoints Endpoints, opts httputil.Options) *Client {
	if endpoints.Search == "" {
		endpoints = DefaultEndpoints
	}
	return &Client{
		http:      httputil.NewClient("kugou", opts),
		endpoints: endpoints,
	}
}

// GetProviderName 获取提供商名称
func (c *Client) GetProviderName() string {
	return "Kugou Music"
}

// Source 歌词源标识
func (c *Client) Source() music.Source {
	return music.SourceKugou
}

// Search 搜索歌曲
func (c *Client) Search(ctx context.Context, keyword string, searchType music.SearchType, page int) ([]music.SongInfo, error) {
	if searchType != music.SearchSong {
		return nil, fmt.Errorf("%w: kugou does not support %s search", music.ErrSearch, searchType)
	}
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("format", "json")
	params.Set("keyword", keyword)
	params.Set("page", strconv.Itoa(page))
	params.Set("pagesize", strconv.Itoa(pageSize))
	params.Set("showtype", "1")
	searchURL := c.endpoints.Search + "/api/v3/search/song?" + params.Encode()
	logger.Debug().Str("url", searchURL).Msg("Searching")

	body, err := c.http.Get(ctx, searchURL, nil)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode search response: %v", music.ErrSearch, err)
	}
	if resp.Status != 1 {
		return nil, fmt.Errorf("%w: kugou returned status %d: %s", music.ErrSearch, resp.Status, resp.Error)
	}

	songs := make([]music.SongInfo, 0, len(resp.Data.Info))
	for _, s := range resp.Data.Info {
		songs = append(songs, music.SongInfo{
			ID:       s.Hash,
			Title:    s.SongName,
			Artists:  splitSingers(s.SingerName),
			Album:    s.AlbumName,
			Duration: s.Duration * 1000,
			Source:   music.SourceKugou,
			Extra:    map[string]string{"hash": s.Hash, "album_id": s.AlbumID},
		})
	}
	return songs, nil
}

// splitSingers 酷狗用 "、" 连接多个歌手
func splitSingers(s string) []string {
	var out []string
	for _, p := range strings.Split(s, "、") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GetLyrics 先查询歌词候选，再下载第一个候选的 LRC
func (c *Client) GetLyrics(ctx context.Context, info music.SongInfo) (*music.Lyrics, error) {
	params := url.Values{}
	params.Set("ver", "1")
	params.Set("man", "yes")
	params.Set("client", "mobi")
	params.Set("keyword", info.ArtistTitle())
	params.Set("duration", strconv.FormatInt(info.Duration, 10))
	params.Set("hash", info.ID)

	body, err := c.http.Get(ctx, c.endpoints.Candidate+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var cands candidateResponse
	if err := json.Unmarshal(body, &cands); err != nil {
		return nil, fmt.Errorf("failed to decode candidate response: %w", err)
	}
	if len(cands.Candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", music.ErrLyricsNotFound, info.ArtistTitle())
	}

	cand := cands.Candidates[0]
	params = url.Values{}
	params.Set("ver", "1")
	params.Set("client", "pc")
	params.Set("id", cand.ID)
	params.Set("accesskey", cand.AccessKey)
	params.Set("fmt", "lrc")
	params.Set("charset", "utf8")

	body, err = c.http.Get(ctx, c.endpoints.Download+"/download?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var dl downloadResponse
	if err := json.Unmarshal(body, &dl); err != nil {
		return nil, fmt.Errorf("failed to decode download response: %w", err)
	}
	if dl.Status != 200 || dl.Content == "" {
		return nil, fmt.Errorf("%w: %s (status %d)", music.ErrLyricsNotFound, info.ArtistTitle(), dl.Status)
	}

	text, err := base64.StdEncoding.DecodeString(dl.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode lyric content: %w", err)
	}
	return lrc.Build(info, map[music.TrackKey]string{music.TrackOrig: strings.TrimPrefix(string(text), "\ufeff")})
}
