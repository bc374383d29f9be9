package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lyrics-backend/internal/autofetch"
	"lyrics-backend/internal/config"
	"lyrics-backend/pkg/music"
)

type fakeFetcher struct {
	mu    sync.Mutex
	opts  []autofetch.FetchOptions
	descs []autofetch.SongDescription
}

func (f *fakeFetcher) Fetch(ctx context.Context, desc autofetch.SongDescription, opts autofetch.FetchOptions) (*autofetch.Result, error) {
	f.mu.Lock()
	f.opts = append(f.opts, opts)
	f.descs = append(f.descs, desc)
	f.mu.Unlock()

	if desc.Title == "missing" {
		return nil, &autofetch.LyricsNotFoundError{Desc: desc}
	}
	song := music.SongInfo{ID: "1", Title: desc.Title, Artists: []string{desc.Artist}, Source: music.SourceNetEase, Duration: 269000}
	l := music.NewLyrics(song)
	l.Tracks[music.TrackOrig] = &music.Track{Type: music.LineByLine, Lines: []music.LyricLine{{Start: 1000, End: 2000, Text: "故事的小黄花"}}}
	l.Tracks[music.TrackTs] = &music.Track{Type: music.LineByLine, Lines: []music.LyricLine{{Start: 1000, End: 2000, Text: "little yellow flower"}}}

	result := &autofetch.Result{Lyrics: l, Song: song, Score: 98.5}
	if opts.ReturnSearchContext {
		other := music.SongInfo{ID: "2", Title: desc.Title + " (Live)", Source: music.SourceQQMusic}
		result.SearchContext = music.NewSearchBatch(music.SourceNetEase, desc.Title, music.SearchSong, 1, []music.SongInfo{song}).
			Merge(music.NewSearchBatch(music.SourceQQMusic, desc.Title, music.SearchSong, 1, []music.SongInfo{other}))
	}
	return result, nil
}

func runCommand(t *testing.T, fetcher *fakeFetcher, args ...string) (string, error) {
	t.Helper()
	ctx := newCommandContext()
	ctx.newFetcher = func(*config.Config) (lyricsFetcher, error) { return fetcher, nil }
	root := newRootCommandWith(ctx)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)

	cfgPath := filepath.Join(t.TempDir(), "none.toml")
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestFetchCommand(t *testing.T) {
	t.Run("Stdout", func(t *testing.T) {
		fetcher := &fakeFetcher{}
		out, err := runCommand(t, fetcher, "fetch", "-t", "晴天", "-a", "周杰伦", "-d", "4m29s", "-s", "ne,lrclib", "--min-score", "60", "--order", "ts,orig")
		require.NoError(t, err)
		assert.Contains(t, out, "[00:01.00]little yellow flower\n[00:01.00]故事的小黄花")

		require.Len(t, fetcher.descs, 1)
		assert.Equal(t, int64(269000), fetcher.descs[0].Duration)
		assert.Equal(t, []music.Source{music.SourceNetEase, music.SourceLRCLib}, fetcher.opts[0].Sources)
		assert.Equal(t, 60.0, fetcher.opts[0].MinScore)
		assert.False(t, fetcher.opts[0].ReturnSearchContext)
	})

	t.Run("OutputFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lrc", "晴天.lrc")
		_, err := runCommand(t, &fakeFetcher{}, "fetch", "-t", "晴天", "-o", path)
		require.NoError(t, err)
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "故事的小黄花")
	})

	t.Run("Candidates", func(t *testing.T) {
		out, err := runCommand(t, &fakeFetcher{}, "fetch", "-t", "晴天", "--show-candidates")
		require.NoError(t, err)
		assert.Contains(t, out, "晴天 (Live)")
		assert.Contains(t, out, "4:29")
	})

	t.Run("JSON", func(t *testing.T) {
		out, err := runCommand(t, &fakeFetcher{}, "fetch", "-t", "晴天", "--json")
		require.NoError(t, err)
		assert.Contains(t, out, `"search_context"`)
		assert.Contains(t, out, `"score": 98.5`)
	})

	t.Run("FileArgument", func(t *testing.T) {
		fetcher := &fakeFetcher{}
		_, err := runCommand(t, fetcher, "fetch", "/music/晴天.flac")
		require.NoError(t, err)
		assert.Equal(t, "/music/晴天.flac", fetcher.descs[0].FilePath)
	})

	t.Run("BadSource", func(t *testing.T) {
		_, err := runCommand(t, &fakeFetcher{}, "fetch", "-t", "晴天", "-s", "spotify")
		assert.ErrorIs(t, err, music.ErrUnknownSource)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := runCommand(t, &fakeFetcher{}, "fetch", "-t", "missing")
		assert.ErrorIs(t, err, music.ErrLyricsNotFound)
	})
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "songs.txt")
	content := strings.Join([]string{
		"# 注释",
		"周杰伦 - 晴天",
		"",
		"七里香\t周杰伦\t七里香\t4m59s",
		"missing",
	}, "\n")
	require.NoError(t, os.WriteFile(list, []byte(content), 0644))

	outDir := filepath.Join(dir, "out")
	fetcher := &fakeFetcher{}
	out, err := runCommand(t, fetcher, "batch", list, "-o", outDir, "-j", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 songs failed")

	assert.FileExists(t, filepath.Join(outDir, "周杰伦 - 晴天.lrc"))
	assert.FileExists(t, filepath.Join(outDir, "周杰伦 - 七里香.lrc"))
	assert.Contains(t, out, "orig+ts")
	assert.Len(t, fetcher.descs, 3)

	t.Run("SkipExisting", func(t *testing.T) {
		fetcher := &fakeFetcher{}
		_, err := runCommand(t, fetcher, "batch", list, "-o", outDir, "--skip-existing")
		require.Error(t, err)
		assert.Len(t, fetcher.descs, 1, "只有失败的歌曲需要重新获取")
	})
}

func TestParseBatchLine(t *testing.T) {
	audio := filepath.Join(t.TempDir(), "track01.mp3")
	require.NoError(t, os.WriteFile(audio, nil, 0644))

	assert.Equal(t, autofetch.SongDescription{FilePath: audio}, parseBatchLine(audio))
	assert.Equal(t, autofetch.SongDescription{Title: "晴天", Artist: "周杰伦"}, parseBatchLine("周杰伦 - 晴天"))
	assert.Equal(t, autofetch.SongDescription{Title: "晴天"}, parseBatchLine("晴天"))
	assert.Equal(t,
		autofetch.SongDescription{Title: "晴天", Artist: "周杰伦", Duration: 269000},
		parseBatchLine("晴天\t周杰伦\t\t269000"))
}

func TestRunBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	descs := []autofetch.SongDescription{{Title: "a"}, {Title: "b"}}
	results, err := runBatch(ctx, descs, 1, func(ctx context.Context, desc autofetch.SongDescription) batchResult {
		time.Sleep(time.Millisecond)
		return batchResult{desc: desc}
	})
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 2)
	for i, r := range results {
		assert.Equal(t, descs[i], r.desc)
	}
}

func TestRunBatchCollectsFailures(t *testing.T) {
	descs := []autofetch.SongDescription{{Title: "a"}, {Title: "b"}, {Title: "c"}}
	results, err := runBatch(context.Background(), descs, 2, func(ctx context.Context, desc autofetch.SongDescription) batchResult {
		r := batchResult{desc: desc}
		if desc.Title == "b" {
			r.err = autofetch.ErrNotEnoughInfo
		}
		return r
	})
	require.NoError(t, err, "单首失败不应中断整个批次")
	require.Len(t, results, 3)
	assert.NoError(t, results[0].err)
	assert.ErrorIs(t, results[1].err, autofetch.ErrNotEnoughInfo)
	assert.NoError(t, results[2].err)
}
