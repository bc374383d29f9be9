package music

import (
	"context"
	"errors"
	"testing"
)

// mockProvider 模拟音乐提供商
type mockProvider struct {
	name       string
	source     Source
	searchFail bool
	lyricsFail bool
}

func (m *mockProvider) Search(ctx context.Context, keyword string, searchType SearchType, page int) ([]SongInfo, error) {
	if m.searchFail {
		return nil, ErrSearch
	}
	return []SongInfo{{ID: "mock-song-id", Title: keyword, Source: m.source}}, nil
}

func (m *mockProvider) GetLyrics(ctx context.Context, info SongInfo) (*Lyrics, error) {
	if m.lyricsFail {
		return nil, ErrLyricsNotFound
	}
	l := NewLyrics(info)
	l.Tracks[TrackOrig] = &Track{Type: LineByLine, Lines: []LyricLine{{Start: 10000, End: -1, Text: "Test lyrics"}}}
	return l, nil
}

func (m *mockProvider) Source() Source {
	return m.source
}

func (m *mockProvider) GetProviderName() string {
	return m.name
}

// TestManagerDispatch 测试按源分发
func TestManagerDispatch(t *testing.T) {
	qq := &mockProvider{name: "QQ", source: SourceQQMusic}
	ne := &mockProvider{name: "NE", source: SourceNetEase, lyricsFail: true}
	manager := NewManager([]MusicAPI{qq, ne})

	t.Run("Search", func(t *testing.T) {
		songs, err := manager.Search(context.Background(), SourceQQMusic, "Test Song", SearchSong, 1)
		if err != nil {
			t.Fatalf("Expected success, got error: %v", err)
		}
		if len(songs) != 1 || songs[0].Source != SourceQQMusic {
			t.Errorf("Expected one QQ song, got %+v", songs)
		}
	})

	t.Run("GetLyrics", func(t *testing.T) {
		lyrics, err := manager.GetLyrics(context.Background(), SongInfo{ID: "1", Title: "Test Song", Source: SourceQQMusic})
		if err != nil {
			t.Fatalf("Expected success, got error: %v", err)
		}
		if got := lyrics.Tracks[TrackOrig].Lines[0].Text; got != "Test lyrics" {
			t.Errorf("Expected 'Test lyrics', got '%s'", got)
		}
	})

	t.Run("ProviderError", func(t *testing.T) {
		_, err := manager.GetLyrics(context.Background(), SongInfo{ID: "1", Title: "Test Song", Source: SourceNetEase})
		if !errors.Is(err, ErrLyricsNotFound) {
			t.Errorf("Expected ErrLyricsNotFound, got %v", err)
		}
	})

	t.Run("UnknownSource", func(t *testing.T) {
		_, err := manager.Search(context.Background(), SourceKugou, "Test Song", SearchSong, 1)
		if !errors.Is(err, ErrUnknownSource) {
			t.Errorf("Expected ErrUnknownSource, got %v", err)
		}
		_, err = manager.GetLyrics(context.Background(), SongInfo{Source: SourceKugou})
		if !errors.Is(err, ErrUnknownSource) {
			t.Errorf("Expected ErrUnknownSource, got %v", err)
		}
	})
}

// TestManagerProviderInfo 测试提供商信息
func TestManagerProviderInfo(t *testing.T) {
	providers := []MusicAPI{
		&mockProvider{name: "Provider1", source: SourceQQMusic},
		&mockProvider{name: "Provider2", source: SourceKugou},
		&mockProvider{name: "Duplicate", source: SourceQQMusic},
	}

	manager := NewManager(providers)

	if count := manager.GetProviderCount(); count != 2 {
		t.Errorf("Expected 2 providers, got %d", count)
	}

	names := manager.GetProviderNames()
	expectedNames := []string{"Provider1", "Provider2"}
	if len(names) != len(expectedNames) {
		t.Fatalf("Expected %d names, got %d", len(expectedNames), len(names))
	}
	for i, name := range names {
		if name != expectedNames[i] {
			t.Errorf("Expected name %s, got %s", expectedNames[i], name)
		}
	}

	if got := manager.GetProviderName(); got != "Manager[Primary: Provider1]" {
		t.Errorf("Unexpected manager name %s", got)
	}
	if !manager.Has(SourceKugou) || manager.Has(SourceNetEase) {
		t.Errorf("Unexpected sources %v", manager.Sources())
	}

	if got := NewManager(nil).GetProviderName(); got != "Manager[No Providers]" {
		t.Errorf("Unexpected empty manager name %s", got)
	}
}

func TestParseSources(t *testing.T) {
	sources, err := ParseSources([]string{"QQ", "酷狗", "qm", "netease"})
	if err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}
	want := []Source{SourceQQMusic, SourceKugou, SourceNetEase}
	if len(sources) != len(want) {
		t.Fatalf("Expected %v, got %v", want, sources)
	}
	for i := range want {
		if sources[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, sources)
		}
	}

	if _, err := ParseSources([]string{"spotify"}); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("Expected ErrUnknownSource, got %v", err)
	}
}

func TestSearchBatchMerge(t *testing.T) {
	a := NewSearchBatch(SourceQQMusic, "k", SearchSong, 1, []SongInfo{
		{ID: "1", Title: "a1", Source: SourceQQMusic},
		{ID: "2", Title: "a2", Source: SourceQQMusic},
	})
	b := NewSearchBatch(SourceNetEase, "k", SearchSong, 1, []SongInfo{
		{ID: "3", Title: "b1", Source: SourceNetEase},
	})

	first := a.WithFirst(a.Songs[1])
	if first.Songs[0].ID != "2" || first.Songs[1].ID != "1" || len(first.Songs) != 2 {
		t.Errorf("WithFirst returned %+v", first.Songs)
	}
	if a.Songs[0].ID != "1" {
		t.Error("WithFirst should not modify the original batch")
	}

	merged := first.Merge(b)
	if len(merged.Songs) != 3 || merged.Songs[2].ID != "3" {
		t.Fatalf("Merge returned %+v", merged.Songs)
	}
	want := []SourceRange{{SourceQQMusic, 0, 2}, {SourceNetEase, 2, 3}}
	for i, r := range want {
		if merged.Ranges[i] != r {
			t.Errorf("Range %d: expected %+v, got %+v", i, r, merged.Ranges[i])
		}
	}
}

func TestInstrumentalLyrics(t *testing.T) {
	l := NewInstrumentalLyrics(SongInfo{Title: "inst", Duration: 1000})
	if !l.IsInstrumental() || !l.Has(TrackOrig) || l.Empty() {
		t.Errorf("Unexpected instrumental lyrics %+v", l)
	}
	if NewLyrics(SongInfo{Title: "x"}).Empty() != true {
		t.Error("New lyrics should be empty")
	}
}
