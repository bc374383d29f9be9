// Package autofetch 根据不完整的歌曲信息并发搜索多个歌词源，给候选打分，
// 没有歌词时尝试后续候选，最后在时间限制内选出最完整的歌词
package autofetch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"lyrics-backend/pkg/music"
)

var logger = log.With().Str("component", "autofetch").Logger()

// DefaultMinScore 候选歌曲的最低分数
const DefaultMinScore = 55

// Fetcher 自动获取歌词，可被多个 goroutine 同时使用，共享同一个请求池
type Fetcher struct {
	api          music.Searcher
	pool         *pool
	timeout      time.Duration
	pollInterval time.Duration
}

// Option Fetcher 的可选参数
type Option func(*Fetcher)

// WithWorkers 设置同时进行的请求数
func WithWorkers(n int) Option {
	return func(f *Fetcher) {
		f.pool = newPool(n)
	}
}

// WithTimeout 设置默认时间限制
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithPollInterval 设置检查完成状态的间隔
func WithPollInterval(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.pollInterval = d
		}
	}
}

// New 创建 Fetcher
func New(api music.Searcher, opts ...Option) *Fetcher {
	f := &Fetcher{
		api:          api,
		pool:         newPool(DefaultWorkers),
		timeout:      DefaultTimeout,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchOptions 单次获取的参数
type FetchOptions struct {
	MinScore            float64        // 0 使用 DefaultMinScore
	Sources             []music.Source // 按优先级排列，为空时使用 music.DefaultSources
	ReturnSearchContext bool
	Timeout             time.Duration // 0 使用 Fetcher 的默认值
}

// Result 获取结果
type Result struct {
	Lyrics *music.Lyrics  `json:"lyrics"`
	Song   music.SongInfo `json:"song"`
	Score  float64        `json:"score"`
	// SearchContext 只在 ReturnSearchContext 时填充
	SearchContext *music.SearchBatch `json:"search_context,omitempty"`
}

// Fetch 自动获取 desc 对应的歌词
func (f *Fetcher) Fetch(ctx context.Context, desc SongDescription, opts FetchOptions) (*Result, error) {
	start := time.Now()

	kw, err := desc.keywords()
	if err != nil {
		return nil, err
	}
	if opts.MinScore == 0 {
		opts.MinScore = DefaultMinScore
	}
	if len(opts.Sources) == 0 {
		opts.Sources = music.DefaultSources
	}
	if opts.Timeout <= 0 {
		opts.Timeout = f.timeout
	}

	oplog := logger.With().Str("op", uuid.NewString()).Str("song", desc.String()).Logger()
	op, err := newOperation(ctx, f, desc, kw, opts.MinScore, oplog)
	if err != nil {
		return nil, err
	}
	defer op.cancel()

	oplog.Info().
		Strs("sources", sourceNames(opts.Sources)).
		Float64("min_score", opts.MinScore).
		Str("keyword", kw.initial()).
		Msg("Auto fetch started")

	done := op.watch()
	for _, source := range opts.Sources {
		op.search(source, kw.initial())
	}
	if err := op.waitForCompletion(ctx, done, start.Add(opts.Timeout), opts.Timeout, f.pollInterval); err != nil {
		return nil, err
	}
	op.state.close()

	result, err := selectResult(desc, op.state.snapshot(), opts.Sources, opts.ReturnSearchContext)
	if err != nil {
		oplog.Info().Err(err).Dur("elapsed", time.Since(start)).Msg("Auto fetch failed")
		return nil, err
	}

	oplog.Info().
		Str("source", result.Song.Source.String()).
		Str("match", result.Song.ArtistTitle()).
		Float64("score", result.Score).
		Bool("instrumental", result.Lyrics.IsInstrumental()).
		Dur("elapsed", time.Since(start)).
		Msg("Auto fetch finished")
	return result, nil
}

func sourceNames(sources []music.Source) []string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.String()
	}
	return names
}
