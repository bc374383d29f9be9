package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"lyrics-backend/internal/autofetch"
	"lyrics-backend/internal/config"
	"lyrics-backend/internal/ipc"
	"lyrics-backend/internal/lyrics"
	"lyrics-backend/internal/player"
	"lyrics-backend/pkg/music"
)

const timeShit = 0.1 // s

// aiMargin 媒体标题解析和翻译额外占用的时间
const aiMargin = 20 * time.Second

// Broadcaster 歌词输出
type Broadcaster interface {
	Broadcast(text string)
}

// LyricsSource 根据播放器信息获取 LRC 歌词
type LyricsSource interface {
	GetLyrics(ctx context.Context, media player.Metadata) (string, error)
}

type App struct {
	cfg            *config.Config
	ipcServer      *ipc.Server
	broadcaster    Broadcaster
	lyricsProvider LyricsSource
	closeProvider  func() error
	getMetadata    func() (player.Metadata, error)
	getPlayTime    func() float64
	currentSong    string
	fetchCancel    context.CancelFunc
	mutex          sync.Mutex

	// 歌词调度器控制
	schedulerMutex  sync.Mutex
	schedulerCancel context.CancelFunc
	schedulerActive bool
}

// SetupLogging 设置 zerolog 的全局配置
func SetupLogging(level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func New(cfg *config.Config) *App {
	SetupLogging(cfg.App.LogLevel)

	// 创建歌词提供商
	lyricsProvider, err := lyrics.NewProviderFromConfig(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create lyrics provider")
	}

	server := ipc.NewServer(cfg.App.SocketPath, cfg.App.LyricsFile)
	return &App{
		cfg:            cfg,
		ipcServer:      server,
		broadcaster:    server,
		lyricsProvider: lyricsProvider,
		closeProvider:  lyricsProvider.Close,
		getMetadata:    player.GetMetadata,
		getPlayTime:    player.GetCurrentPlayTime,
	}
}

func (a *App) Run() {
	if err := os.MkdirAll(a.cfg.App.CacheDir, 0755); err != nil {
		log.Fatal().Err(err).Str("cache_dir", a.cfg.App.CacheDir).Msg("Failed to create cache directory")
	}
	log.Info().Str("cache_dir", a.cfg.App.CacheDir).Msg("Lyrics cache directory")

	if err := a.ipcServer.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start IPC server")
	}
	defer a.ipcServer.Close()
	defer a.closeProvider()

	ticker := time.NewTicker(a.cfg.App.CheckInterval)
	defer ticker.Stop()

	log.Info().Msg("Starting player check loop...")
	for {
		a.updateSongInfo()
		<-ticker.C
	}
}

// updateSongInfo 检测到新歌曲时取消上一次获取，在后台获取新歌词
func (a *App) updateSongInfo() {
	media, err := a.getMetadata()
	if err != nil {
		a.mutex.Lock()
		changed := a.currentSong != ""
		a.currentSong = ""
		a.mutex.Unlock()
		if changed {
			a.stopLyricScheduler()
		}
		a.broadcaster.Broadcast("No music playing...")
		return
	}

	songIdentifier := media.Identifier()
	a.mutex.Lock()
	if songIdentifier == a.currentSong {
		a.mutex.Unlock()
		return
	}
	log.Info().Msg("-----------------------------------------------------")
	log.Info().Str("song", songIdentifier).Int64("duration_ms", media.Duration).Msg("New song detected")
	a.currentSong = songIdentifier
	if a.fetchCancel != nil {
		a.fetchCancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Fetch.Timeout+aiMargin)
	a.fetchCancel = cancel
	a.mutex.Unlock()

	a.stopLyricScheduler()
	a.broadcaster.Broadcast(fmt.Sprintf("... Searching for lyrics for %s ...", songIdentifier))

	go func() {
		defer cancel()
		lyricsText, err := a.lyricsProvider.GetLyrics(ctx, media)

		a.mutex.Lock()
		stale := a.currentSong != songIdentifier
		a.mutex.Unlock()
		if stale || errors.Is(err, context.Canceled) {
			log.Debug().Str("song", songIdentifier).Msg("Song changed, dropping lyrics")
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("Failed to get lyrics")
			a.broadcaster.Broadcast(errorMessage(err))
			return
		}
		a.startLyricScheduler(lyricsText, a.getPlayTime)
	}()
}

// errorMessage 显示给用户的错误信息
func errorMessage(err error) string {
	var timeout *autofetch.TimeoutError
	switch {
	case errors.Is(err, lyrics.ErrNotSong):
		return "♪ 不是歌曲 ♪"
	case errors.Is(err, lyrics.ErrInstrumental):
		return "♪ 纯音乐 ♪"
	case errors.Is(err, autofetch.ErrNotEnoughInfo):
		return "♪ 歌曲信息不足 ♪"
	case errors.As(err, &timeout):
		return "♪ 获取歌词超时 ♪"
	case errors.Is(err, music.ErrLyricsNotFound):
		return "♪ 没有找到歌词 ♪"
	default:
		return fmt.Sprintf("Error getting lyrics: %v", err)
	}
}

func getLyricIndexAtTime(lines []lyrics.Line, t float64) int {
	if len(lines) == 0 {
		return -1
	}

	// 如果时间在第一行歌词之前，返回 -1
	if t < lines[0].Time {
		return -1
	}

	// 二分查找提高效率
	left, right := 0, len(lines)-1
	result := -1

	for left <= right {
		mid := (left + right) / 2
		if lines[mid].Time <= t {
			result = mid
			left = mid + 1
		} else {
			right = mid - 1
		}
	}

	return result
}

func (a *App) stopLyricScheduler() {
	a.schedulerMutex.Lock()
	defer a.schedulerMutex.Unlock()
	if a.schedulerCancel != nil {
		log.Info().Msg("Stopping previous lyric scheduler")
		a.schedulerCancel()
		a.schedulerCancel = nil
	}
}

func (a *App) startLyricScheduler(lrc string, getCurrentTime func() float64) {
	a.stopLyricScheduler()

	a.schedulerMutex.Lock()
	defer a.schedulerMutex.Unlock()

	lines := lyrics.ParseLRC(lrc)
	if len(lines) == 0 {
		log.Warn().Msg("No lyrics lines found, broadcasting raw text")
		a.broadcaster.Broadcast(lrc)
		return
	}

	log.Info().Int("lines_count", len(lines)).Msg("Starting lyric scheduler")

	ctx, cancel := context.WithCancel(context.Background())
	a.schedulerCancel = cancel
	a.schedulerActive = true

	go func() {
		defer func() {
			a.schedulerMutex.Lock()
			a.schedulerActive = false
			select {
			case <-ctx.Done():
				log.Debug().Msg("Cleaning up cancelled scheduler")
			default:
				// 歌曲自然结束时才清除
				log.Debug().Msg("Cleaning up finished scheduler")
				a.schedulerCancel = nil
				cancel()
			}
			a.schedulerMutex.Unlock()
			log.Info().Msg("Lyric scheduler stopped")
		}()
		a.runScheduler(ctx, lines, getCurrentTime)
	}()
}

// runScheduler 每 50ms 读取播放进度，歌词行变化时广播
func (a *App) runScheduler(ctx context.Context, lines []lyrics.Line, getCurrentTime func() float64) {
	lastIndex := -2 // 确保第一次广播

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// 每次都重新获取播放器时间，避免累积误差
			currentTime := getCurrentTime()
			if currentTime < 0 {
				log.Warn().Float64("player_time", currentTime).Msg("Invalid player time")
				continue
			}

			newIndex := getLyricIndexAtTime(lines, currentTime+timeShit)
			if newIndex != lastIndex {
				switch {
				case newIndex >= 0:
					lyric := lines[newIndex]
					timeDiff := (currentTime - lyric.Time + timeShit) * 1000
					event := log.Debug()
					if timeDiff < -100 || timeDiff > 100 {
						event = log.Warn()
					}
					event.
						Int("index", newIndex).
						Float64("player_time", currentTime).
						Float64("lyric_time", lyric.Time).
						Float64("time_diff_ms", timeDiff).
						Str("lyric", lyric.Text).
						Msg("Broadcasting lyric")
					a.broadcaster.Broadcast(lyric.Text)
				case lastIndex != -1:
					// 在第一句歌词之前
					a.broadcaster.Broadcast("♪ 即将开始... ♪")
				}
				lastIndex = newIndex
			}

			// 检查歌曲是否结束
			if currentTime > lines[len(lines)-1].Time+5.0 {
				log.Info().
					Float64("current_time", currentTime).
					Float64("last_lyric_time", lines[len(lines)-1].Time).
					Msg("Song finished")
				a.broadcaster.Broadcast("♪ 歌曲结束 ♪")
				return
			}

		case <-ctx.Done():
			log.Info().Msg("Lyric scheduler cancelled")
			return
		}
	}
}
