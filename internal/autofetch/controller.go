package autofetch

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"lyrics-backend/internal/taskmanager"
	"lyrics-backend/pkg/music"
)

const (
	taskSearch    = "search"
	taskGetLyrics = "get_lyrics"

	// maxAttempts 每条搜索结果最多尝试获取歌词的候选数
	maxAttempts = 3
)

// operation 一次 Fetch 调用的执行上下文
type operation struct {
	ctx      context.Context
	cancel   context.CancelFunc
	api      music.Searcher
	pool     *pool
	ledger   *taskmanager.Manager
	state    *operationState
	desc     SongDescription
	keywords keywords
	minScore float64
	log      zerolog.Logger
}

func newOperation(ctx context.Context, f *Fetcher, desc SongDescription, kw keywords, minScore float64, log zerolog.Logger) (*operation, error) {
	ledger, err := taskmanager.New(map[string][]string{
		taskSearch:    {},
		taskGetLyrics: {},
	})
	if err != nil {
		return nil, err
	}
	opCtx, cancel := context.WithCancel(ctx)
	return &operation{
		ctx:      opCtx,
		cancel:   cancel,
		api:      f.api,
		pool:     f.pool,
		ledger:   ledger,
		state:    newOperationState(),
		desc:     desc,
		keywords: kw,
		minScore: minScore,
		log:      log,
	}, nil
}

// spawn 在任务管理器中登记任务并在新的 goroutine 中执行。
// run 返回前安排的后续任务已经登记，所以任务管理器不会提前报告完成
func (op *operation) spawn(taskType string, run func(ctx context.Context)) {
	id := op.ledger.AddTask(taskType)
	go func() {
		defer op.ledger.RemoveTask(taskType, id)
		run(op.ctx)
	}()
}

// collect 记录一个失败，取消之后到达的结果直接丢弃
func (op *operation) collect(source music.Source, err error) {
	if !op.state.addError(err) {
		return
	}
	op.log.Warn().Str("source", source.String()).Err(err).Msg("Auto fetch step failed")
}

// search 在一个源上搜索关键词，结果交给 onSearch
func (op *operation) search(source music.Source, keyword string) {
	op.spawn(taskSearch, func(ctx context.Context) {
		songs, err := runIO(ctx, op.pool, func(ctx context.Context) ([]music.SongInfo, error) {
			return op.api.Search(ctx, source, keyword, music.SearchSong, 1)
		})
		if err != nil {
			op.collect(source, err)
			return
		}
		op.onSearch(music.NewSearchBatch(source, keyword, music.SearchSong, 1, songs))
	})
}

func (op *operation) onSearch(batch *music.SearchBatch) {
	source := batch.Ranges[0].Source
	ranked := rankCandidates(op.desc, op.keywords, batch, op.minScore, op.log)
	op.log.Debug().
		Str("source", source.String()).
		Str("keyword", batch.Keyword).
		Int("results", len(batch.Songs)).
		Int("qualified", len(ranked)).
		Msg("Search results scored")

	if len(ranked) > 0 {
		op.fetch(ranked, batch, 0)
		return
	}
	// "艺术家 - 标题" 没有合格结果时退回只用标题搜索
	if batch.Keyword == op.keywords.artistTitle && op.keywords.title != "" {
		op.search(source, op.keywords.title)
	}
}

// fetch 获取第 index 个候选的歌词，没有歌词时尝试下一个，最多 maxAttempts 个
func (op *operation) fetch(ranked []ScoredCandidate, batch *music.SearchBatch, index int) {
	cand := ranked[index]
	var prev *music.SongInfo
	if index > 0 {
		prev = &ranked[index-1].Song
	}
	if !op.state.beginAttempt(cand, batch.WithFirst(cand.Song), prev) {
		return
	}

	op.spawn(taskGetLyrics, func(ctx context.Context) {
		lyrics, err := runIO(ctx, op.pool, func(ctx context.Context) (*music.Lyrics, error) {
			return op.api.GetLyrics(ctx, cand.Song)
		})
		if err == nil {
			if op.state.addLyrics(cand.Song, lyrics) {
				op.log.Debug().
					Str("source", cand.Song.Source.String()).
					Str("song", cand.Song.ArtistTitle()).
					Float64("score", cand.Score).
					Int("attempt", index+1).
					Msg("Got lyrics")
			}
			return
		}

		if errors.Is(err, music.ErrLyricsNotFound) && index+1 < maxAttempts && index+1 < len(ranked) {
			op.log.Debug().
				Str("source", cand.Song.Source.String()).
				Str("song", cand.Song.ArtistTitle()).
				Msg("No lyrics, trying next candidate")
			op.fetch(ranked, batch, index+1)
			return
		}
		op.collect(cand.Song.Source, err)
	})
}

// finished 搜索和歌词任务是否都已完成
func (op *operation) finished() bool {
	return op.ledger.IsFinished(taskSearch) && op.ledger.IsFinished(taskGetLyrics)
}

// abort 取消所有进行中的任务，之后到达的结果被丢弃
func (op *operation) abort() {
	op.state.close()
	op.ledger.ClearTask(taskSearch)
	op.ledger.ClearTask(taskGetLyrics)
	op.cancel()
}
