package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lyrics-backend/internal/autofetch"
	"lyrics-backend/internal/config"
	"lyrics-backend/internal/lyrics"
	"lyrics-backend/internal/player"
)

type recorder struct {
	mu       sync.Mutex
	messages []string
}

func (r *recorder) Broadcast(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, text)
}

func (r *recorder) has(text string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m == text {
			return true
		}
	}
	return false
}

type fakeProvider struct {
	text  string
	err   error
	calls atomic.Int32
}

func (f *fakeProvider) GetLyrics(ctx context.Context, media player.Metadata) (string, error) {
	f.calls.Add(1)
	return f.text, f.err
}

func newTestApp(provider LyricsSource, media *player.Metadata, playTime *atomic.Value) (*App, *recorder) {
	rec := &recorder{}
	cfg := config.Default()
	a := &App{
		cfg:            cfg,
		broadcaster:    rec,
		lyricsProvider: provider,
		closeProvider:  func() error { return nil },
		getMetadata: func() (player.Metadata, error) {
			if media == nil {
				return player.Metadata{}, player.ErrNoMetadata
			}
			return *media, nil
		},
		getPlayTime: func() float64 { return playTime.Load().(float64) },
	}
	return a, rec
}

func TestUpdateSongInfo(t *testing.T) {
	provider := &fakeProvider{text: "[00:00.00]第一句\n[00:01.00]第二句"}
	media := &player.Metadata{Title: "晴天", Artist: "周杰伦"}
	var playTime atomic.Value
	playTime.Store(0.5)

	a, rec := newTestApp(provider, media, &playTime)
	defer a.stopLyricScheduler()

	a.updateSongInfo()
	assert.True(t, rec.has("... Searching for lyrics for 周杰伦 - 晴天 ..."))
	assert.Eventually(t, func() bool { return rec.has("第一句") }, 2*time.Second, 10*time.Millisecond)

	playTime.Store(1.2)
	assert.Eventually(t, func() bool { return rec.has("第二句") }, 2*time.Second, 10*time.Millisecond)

	// 同一首歌不重复获取
	a.updateSongInfo()
	assert.Equal(t, int32(1), provider.calls.Load())

	playTime.Store(7.0)
	assert.Eventually(t, func() bool { return rec.has("♪ 歌曲结束 ♪") }, 2*time.Second, 10*time.Millisecond)
}

func TestUpdateSongInfoNoPlayer(t *testing.T) {
	var playTime atomic.Value
	playTime.Store(0.0)
	a, rec := newTestApp(&fakeProvider{}, nil, &playTime)

	a.updateSongInfo()
	assert.True(t, rec.has("No music playing..."))
}

func TestUpdateSongInfoError(t *testing.T) {
	var playTime atomic.Value
	playTime.Store(0.0)
	provider := &fakeProvider{err: fmt.Errorf("wrap: %w", lyrics.ErrNotSong)}
	a, rec := newTestApp(provider, &player.Metadata{Title: "Podcast"}, &playTime)

	a.updateSongInfo()
	assert.Eventually(t, func() bool { return rec.has("♪ 不是歌曲 ♪") }, 2*time.Second, 10*time.Millisecond)
}

func TestPlainTextLyrics(t *testing.T) {
	var playTime atomic.Value
	playTime.Store(0.0)
	a, rec := newTestApp(&fakeProvider{}, nil, &playTime)

	a.startLyricScheduler("没有时间轴的歌词", a.getPlayTime)
	assert.True(t, rec.has("没有时间轴的歌词"))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "♪ 纯音乐 ♪", errorMessage(lyrics.ErrInstrumental))
	assert.Equal(t, "♪ 获取歌词超时 ♪", errorMessage(&autofetch.TimeoutError{Timeout: time.Second}))
	assert.Equal(t, "♪ 没有找到歌词 ♪", errorMessage(&autofetch.LyricsNotFoundError{}))
	assert.Equal(t, "♪ 歌曲信息不足 ♪", errorMessage(&autofetch.NotEnoughInfoError{}))
	assert.Equal(t, "Error getting lyrics: boom", errorMessage(errors.New("boom")))
}

func TestGetLyricIndexAtTime(t *testing.T) {
	lines := []lyrics.Line{{Time: 1}, {Time: 2}, {Time: 4}}
	cases := []struct {
		t    float64
		want int
	}{
		{0.5, -1},
		{1, 0},
		{1.9, 0},
		{2, 1},
		{3.5, 1},
		{10, 2},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, getLyricIndexAtTime(lines, c.t), "t=%v", c.t)
	}
	assert.Equal(t, -1, getLyricIndexAtTime(nil, 1))
}
