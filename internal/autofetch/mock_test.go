package autofetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lyrics-backend/pkg/music"
)

// mockSearcher 按源和关键词返回预设结果的歌词源
type mockSearcher struct {
	mu        sync.Mutex
	results   map[music.Source]map[string][]music.SongInfo
	searchErr map[music.Source]error
	lyrics    map[string]*music.Lyrics // 按歌曲 ID
	lyricsErr map[string]error
	delay     time.Duration // 每次请求的耗时，会响应 ctx 取消

	searches  []string
	fetches   []string
	cancelled int
}

var _ music.Searcher = (*mockSearcher)(nil)

func newMockSearcher() *mockSearcher {
	return &mockSearcher{
		results:   make(map[music.Source]map[string][]music.SongInfo),
		searchErr: make(map[music.Source]error),
		lyrics:    make(map[string]*music.Lyrics),
		lyricsErr: make(map[string]error),
	}
}

func (m *mockSearcher) addResults(source music.Source, keyword string, songs ...music.SongInfo) {
	if m.results[source] == nil {
		m.results[source] = make(map[string][]music.SongInfo)
	}
	m.results[source][keyword] = append(m.results[source][keyword], songs...)
}

func (m *mockSearcher) wait(ctx context.Context) error {
	if m.delay <= 0 {
		return nil
	}
	select {
	case <-time.After(m.delay):
		return nil
	case <-ctx.Done():
		m.mu.Lock()
		m.cancelled++
		m.mu.Unlock()
		return ctx.Err()
	}
}

func (m *mockSearcher) Search(ctx context.Context, source music.Source, keyword string, searchType music.SearchType, page int) ([]music.SongInfo, error) {
	m.mu.Lock()
	m.searches = append(m.searches, fmt.Sprintf("%s:%s", source, keyword))
	m.mu.Unlock()

	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	if err := m.searchErr[source]; err != nil {
		return nil, err
	}
	return m.results[source][keyword], nil
}

func (m *mockSearcher) GetLyrics(ctx context.Context, info music.SongInfo) (*music.Lyrics, error) {
	m.mu.Lock()
	m.fetches = append(m.fetches, info.ID)
	m.mu.Unlock()

	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	if err := m.lyricsErr[info.ID]; err != nil {
		return nil, err
	}
	if l, ok := m.lyrics[info.ID]; ok {
		return l, nil
	}
	return nil, music.ErrLyricsNotFound
}

func (m *mockSearcher) fetchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.fetches)
}

func (m *mockSearcher) searchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.searches)
}

func song(source music.Source, id, title, artist string, duration int64) music.SongInfo {
	s := music.SongInfo{ID: id, Title: title, Album: "", Duration: duration, Source: source}
	if artist != "" {
		s.Artists = []string{artist}
	}
	return s
}

// lyricsOf 构造带指定轨道的歌词
func lyricsOf(info music.SongInfo, verbatim bool, tracks ...music.TrackKey) *music.Lyrics {
	l := music.NewLyrics(info)
	orig := &music.Track{Type: music.LineByLine, Lines: []music.LyricLine{{Start: 0, End: 1000, Text: info.Title}}}
	if verbatim {
		orig.Type = music.Verbatim
		orig.Lines[0].Words = []music.Word{{Start: 0, End: 1000, Text: info.Title}}
	}
	l.Tracks[music.TrackOrig] = orig
	for _, key := range tracks {
		l.Tracks[key] = &music.Track{Type: music.LineByLine, Lines: []music.LyricLine{{Start: 0, End: 1000, Text: string(key)}}}
	}
	return l
}
