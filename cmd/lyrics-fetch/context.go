package main

import (
	"context"
	"fmt"
	"time"

	"lyrics-backend/internal/autofetch"
	"lyrics-backend/internal/config"
	"lyrics-backend/internal/lyrics"
	"lyrics-backend/pkg/music"
)

// lyricsFetcher 由 *autofetch.Fetcher 实现
type lyricsFetcher interface {
	Fetch(ctx context.Context, desc autofetch.SongDescription, opts autofetch.FetchOptions) (*autofetch.Result, error)
}

type commandContext struct {
	configPath string
	cfg        *config.Config
	fetcher    lyricsFetcher
	newFetcher func(cfg *config.Config) (lyricsFetcher, error)
}

func newCommandContext() *commandContext {
	return &commandContext{
		newFetcher: func(cfg *config.Config) (lyricsFetcher, error) {
			fetcher, _, err := lyrics.NewFetcher(cfg)
			if err != nil {
				return nil, err
			}
			return fetcher, nil
		},
	}
}

func (c *commandContext) config() *config.Config {
	if c.cfg == nil {
		if c.configPath != "" {
			c.cfg = config.LoadFile(c.configPath)
		} else {
			c.cfg = config.Load()
		}
	}
	return c.cfg
}

func (c *commandContext) getFetcher() (lyricsFetcher, error) {
	if c.fetcher == nil {
		f, err := c.newFetcher(c.config())
		if err != nil {
			return nil, err
		}
		c.fetcher = f
	}
	return c.fetcher, nil
}

// fetchFlags fetch 和 batch 共用的参数
type fetchFlags struct {
	sources  []string
	minScore float64
	timeout  time.Duration
	order    []string
}

func (f *fetchFlags) options(cfg *config.Config) (autofetch.FetchOptions, []music.TrackKey, error) {
	opts := autofetch.FetchOptions{
		MinScore: cfg.Fetch.MinScore,
		Sources:  cfg.Fetch.Sources,
		Timeout:  cfg.Fetch.Timeout,
	}
	if len(f.sources) > 0 {
		sources, err := music.ParseSources(f.sources)
		if err != nil {
			return opts, nil, err
		}
		opts.Sources = sources
	}
	if f.minScore > 0 {
		if f.minScore > 100 {
			return opts, nil, fmt.Errorf("min score must be between 0 and 100, got %v", f.minScore)
		}
		opts.MinScore = f.minScore
	}
	if f.timeout > 0 {
		opts.Timeout = f.timeout
	}

	order := cfg.Lyrics.LangsOrder
	if len(f.order) > 0 {
		parsed, err := config.ParseLangsOrder(f.order)
		if err != nil {
			return opts, nil, err
		}
		order = parsed
	}
	return opts, order, nil
}
