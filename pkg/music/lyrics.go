package music

// TrackKey 歌词轨道的语言标签
type TrackKey string

const (
	TrackOrig TrackKey = "orig" // 原文
	TrackTs   TrackKey = "ts"   // 翻译
	TrackRoma TrackKey = "roma" // 罗马音
)

// LyricsType 歌词轨道的精确度
type LyricsType int

const (
	// PlainText 无时间轴
	PlainText LyricsType = iota
	// LineByLine 逐行时间轴
	LineByLine
	// Verbatim 逐字时间轴
	Verbatim
)

func (t LyricsType) String() string {
	switch t {
	case LineByLine:
		return "line"
	case Verbatim:
		return "verbatim"
	default:
		return "plaintext"
	}
}

// Word 逐字歌词中的一个字/词
type Word struct {
	Start int64  `json:"start"` // 毫秒
	End   int64  `json:"end"`
	Text  string `json:"text"`
}

// LyricLine 一行歌词
type LyricLine struct {
	Start int64  `json:"start"` // 毫秒，-1 表示无时间
	End   int64  `json:"end"`
	Text  string `json:"text"`
	Words []Word `json:"words,omitempty"`
}

// Track 一条歌词轨道
type Track struct {
	Type  LyricsType  `json:"type"`
	Lines []LyricLine `json:"lines"`
}

// Lyrics 一次成功获取的歌词
type Lyrics struct {
	Info   SongInfo            `json:"info"`
	Tracks map[TrackKey]*Track `json:"tracks"`
	Tags   map[string]string   `json:"tags,omitempty"`
	Inst   bool                `json:"instrumental,omitempty"`
}

// NewLyrics 创建空歌词，tags 里预置标题等信息
func NewLyrics(info SongInfo) *Lyrics {
	tags := map[string]string{"ti": info.Title}
	if artist := info.Artist(); artist != "" {
		tags["ar"] = artist
	}
	if info.Album != "" {
		tags["al"] = info.Album
	}
	return &Lyrics{
		Info:   info,
		Tracks: make(map[TrackKey]*Track),
		Tags:   tags,
	}
}

// NewInstrumentalLyrics 纯音乐占位歌词
func NewInstrumentalLyrics(info SongInfo) *Lyrics {
	l := NewLyrics(info)
	l.Inst = true
	l.Tracks[TrackOrig] = &Track{
		Type:  LineByLine,
		Lines: []LyricLine{{Start: 0, End: info.Duration, Text: "纯音乐，请欣赏"}},
	}
	return l
}

// Has 是否包含非空的某条轨道
func (l *Lyrics) Has(key TrackKey) bool {
	if l == nil {
		return false
	}
	t, ok := l.Tracks[key]
	return ok && t != nil && len(t.Lines) > 0
}

// IsVerbatim 原文是否为逐字歌词
func (l *Lyrics) IsVerbatim() bool {
	return l.Has(TrackOrig) && l.Tracks[TrackOrig].Type == Verbatim
}

// IsInstrumental 是否为纯音乐占位歌词
func (l *Lyrics) IsInstrumental() bool {
	return l != nil && l.Inst
}

// Empty 没有任何可用轨道
func (l *Lyrics) Empty() bool {
	for key := range l.Tracks {
		if l.Has(key) {
			return false
		}
	}
	return true
}
