package music

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

// Source 歌词源
type Source string

const (
	// SourceQQMusic QQ音乐
	SourceQQMusic Source = "qm"
	// SourceKugou 酷狗音乐
	SourceKugou Source = "kg"
	// SourceNetEase 网易云音乐
	SourceNetEase Source = "ne"
	// SourceLRCLib LRCLib歌词库
	SourceLRCLib Source = "lrclib"
)

// DefaultSources 默认的歌词源优先级
var DefaultSources = []Source{SourceQQMusic, SourceKugou, SourceNetEase}

func (s Source) String() string {
	return string(s)
}

// SearchType 搜索类型
type SearchType int

const (
	SearchSong SearchType = iota
	SearchAlbum
	SearchArtist
	SearchSongList
)

func (t SearchType) String() string {
	switch t {
	case SearchSong:
		return "song"
	case SearchAlbum:
		return "album"
	case SearchArtist:
		return "artist"
	case SearchSongList:
		return "songlist"
	default:
		return fmt.Sprintf("SearchType(%d)", int(t))
	}
}

// Language 歌曲语言，目前只区分纯音乐
type Language int

const (
	LanguageUnknown Language = iota
	LanguageInstrumental
	LanguageOther
)

// SongInfo 搜索返回的候选歌曲
type SongInfo struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Artists  []string          `json:"artists"`
	Album    string            `json:"album"`
	Duration int64             `json:"duration"` // 毫秒
	Source   Source            `json:"source"`
	Language Language          `json:"language"`
	Extra    map[string]string `json:"extra,omitempty"` // 源特有的字段，如 kugou hash、qq mid
}

// Artist 以 "/" 连接的艺术家
func (s SongInfo) Artist() string {
	return strings.Join(s.Artists, "/")
}

// ArtistTitle "艺术家 - 标题"
func (s SongInfo) ArtistTitle() string {
	if len(s.Artists) == 0 {
		return s.Title
	}
	return s.Artist() + " - " + s.Title
}

// Key 候选歌曲的稳定标识，用作 map 的键
func (s SongInfo) Key() string {
	h := sha1.New()
	for _, part := range []string{string(s.Source), s.ID, s.Title, s.Artist()} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SourceRange 合并后的搜索结果中某个源占据的下标区间 [Start, End)
type SourceRange struct {
	Source Source `json:"source"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
}

// SearchBatch 某个源对某个关键词的一次搜索结果
type SearchBatch struct {
	Keyword    string        `json:"keyword"`
	SearchType SearchType    `json:"search_type"`
	Page       int           `json:"page"`
	Songs      []SongInfo    `json:"songs"`
	Ranges     []SourceRange `json:"ranges"`
}

// NewSearchBatch 创建单源的搜索结果
func NewSearchBatch(source Source, keyword string, searchType SearchType, page int, songs []SongInfo) *SearchBatch {
	return &SearchBatch{
		Keyword:    keyword,
		SearchType: searchType,
		Page:       page,
		Songs:      songs,
		Ranges:     []SourceRange{{Source: source, Start: 0, End: len(songs)}},
	}
}

// WithFirst 返回把 first 放到首位的副本，其余顺序不变
func (b *SearchBatch) WithFirst(first SongInfo) *SearchBatch {
	key := first.Key()
	songs := make([]SongInfo, 0, len(b.Songs))
	songs = append(songs, first)
	for _, s := range b.Songs {
		if s.Key() != key {
			songs = append(songs, s)
		}
	}
	ranges := make([]SourceRange, len(b.Ranges))
	copy(ranges, b.Ranges)
	if len(ranges) == 1 {
		ranges[0].End = len(songs)
	}
	return &SearchBatch{
		Keyword:    b.Keyword,
		SearchType: b.SearchType,
		Page:       b.Page,
		Songs:      songs,
		Ranges:     ranges,
	}
}

// Merge 返回 b 与 other 拼接后的结果，other 的源区间偏移到 b 之后
func (b *SearchBatch) Merge(other *SearchBatch) *SearchBatch {
	merged := &SearchBatch{
		Keyword:    b.Keyword,
		SearchType: b.SearchType,
		Page:       b.Page,
		Songs:      make([]SongInfo, 0, len(b.Songs)+len(other.Songs)),
		Ranges:     make([]SourceRange, 0, len(b.Ranges)+len(other.Ranges)),
	}
	merged.Songs = append(merged.Songs, b.Songs...)
	merged.Songs = append(merged.Songs, other.Songs...)
	merged.Ranges = append(merged.Ranges, b.Ranges...)
	offset := len(b.Songs)
	for _, r := range other.Ranges {
		merged.Ranges = append(merged.Ranges, SourceRange{Source: r.Source, Start: r.Start + offset, End: r.End + offset})
	}
	return merged
}
