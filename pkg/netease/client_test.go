package netease

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"lyrics-backend/pkg/httputil"
	"lyrics-backend/pkg/music"
)

func testClient(url string) *Client {
	return NewClient(url, httputil.Options{Timeout: time.Second, MaxRetries: 3, RetryBackoff: 10 * time.Millisecond})
}

// TestSearchRetry 测试搜索在服务端间歇性失败时会重试
func TestSearchRetry(t *testing.T) {
	var requestCount int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requestCount, 1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if r.URL.Path != "/api/search/get/web" {
			t.Errorf("意外的请求路径: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("s"); got != "周杰伦 - 晴天" {
			t.Errorf("预期关键词为 周杰伦 - 晴天，实际为 %s", got)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"code":200,"result":{"songs":[{"id":186016,"name":"晴天","artists":[{"name":"周杰伦"}],"album":{"name":"叶惠美"},"duration":269000}]}}`))
	}))
	defer server.Close()

	songs, err := testClient(server.URL).Search(context.Background(), "周杰伦 - 晴天", music.SearchSong, 1)
	if err != nil {
		t.Fatalf("搜索失败: %v", err)
	}
	if got := atomic.LoadInt32(&requestCount); got != 3 {
		t.Errorf("预期请求次数为3，实际为%d", got)
	}
	if len(songs) != 1 {
		t.Fatalf("预期1个结果，实际为%d", len(songs))
	}

	want := music.SongInfo{
		ID:       "186016",
		Title:    "晴天",
		Artists:  []string{"周杰伦"},
		Album:    "叶惠美",
		Duration: 269000,
		Source:   music.SourceNetEase,
	}
	if songs[0].Key() != want.Key() || songs[0].Album != want.Album || songs[0].Duration != want.Duration {
		t.Errorf("搜索结果不符: %+v", songs[0])
	}
}

func TestGetLyrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("id") {
		case "1":
			w.Write([]byte(`{"code":200,"lrc":{"lyric":"[00:01.00]こんにちは\n[00:02.00]さようなら"},"tlyric":{"lyric":"[00:01.00]你好\n[00:02.00]再见"},"romalrc":{"lyric":"[00:01.00]konnichiwa"}}`))
		case "2":
			w.Write([]byte(`{"code":200,"nolyric":true}`))
		default:
			w.Write([]byte(`{"code":200,"lrc":{"lyric":""}}`))
		}
	}))
	defer server.Close()

	client := testClient(server.URL)

	t.Run("AllTracks", func(t *testing.T) {
		lyrics, err := client.GetLyrics(context.Background(), music.SongInfo{ID: "1", Title: "hello", Source: music.SourceNetEase})
		if err != nil {
			t.Fatalf("获取歌词失败: %v", err)
		}
		for _, key := range []music.TrackKey{music.TrackOrig, music.TrackTs, music.TrackRoma} {
			if !lyrics.Has(key) {
				t.Errorf("缺少 %s 轨道", key)
			}
		}
		if got := lyrics.Tracks[music.TrackTs].Lines[1].Text; got != "再见" {
			t.Errorf("翻译第二行预期为 再见，实际为 %s", got)
		}
		if lyrics.IsVerbatim() {
			t.Error("逐行歌词不应标记为逐字")
		}
	})

	t.Run("NoLyric", func(t *testing.T) {
		_, err := client.GetLyrics(context.Background(), music.SongInfo{ID: "2", Title: "inst"})
		if !errors.Is(err, music.ErrLyricsNotFound) {
			t.Errorf("预期 ErrLyricsNotFound，实际为 %v", err)
		}
	})

	t.Run("EmptyLyric", func(t *testing.T) {
		_, err := client.GetLyrics(context.Background(), music.SongInfo{ID: "3", Title: "empty"})
		if !errors.Is(err, music.ErrLyricsNotFound) {
			t.Errorf("预期 ErrLyricsNotFound，实际为 %v", err)
		}
	})
}

func TestSearchUnsupportedType(t *testing.T) {
	client := testClient("http://127.0.0.1:0")
	_, err := client.Search(context.Background(), "x", music.SearchAlbum, 1)
	if !errors.Is(err, music.ErrSearch) {
		t.Errorf("预期 ErrSearch，实际为 %v", err)
	}
}

// TestTimeout 测试超时机制
func TestTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err := testClient(server.URL).Search(ctx, "timeout", music.SearchSong, 1)
	if err == nil {
		t.Fatal("预期请求超时失败，但请求成功了")
	}
	if !music.IsNetworkError(err) {
		t.Errorf("超时应被识别为网络错误: %v", err)
	}
}
