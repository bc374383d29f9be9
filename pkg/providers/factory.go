// Package providers 根据歌词源名称创建客户端
package providers

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"lyrics-backend/pkg/httputil"
	"lyrics-backend/pkg/kugou"
	"lyrics-backend/pkg/lrclib"
	"lyrics-backend/pkg/music"
	"lyrics-backend/pkg/netease"
	"lyrics-backend/pkg/qqmusic"
)

// CreateProvider 根据歌词源创建对应的客户端
func CreateProvider(source music.Source, opts httputil.Options) (music.MusicAPI, error) {
	switch source {
	case music.SourceQQMusic:
		return qqmusic.NewClient("", opts), nil
	case music.SourceKugou:
		return kugou.NewClient(kugou.DefaultEndpoints, opts), nil
	case music.SourceNetEase:
		return netease.NewClient("", opts), nil
	case music.SourceLRCLib:
		return lrclib.NewClient("", opts), nil
	default:
		return nil, fmt.Errorf("%w: %s", music.ErrUnknownSource, source)
	}
}

// CreateManager 按顺序创建多个源并组成管理器，创建失败的源会被跳过
func CreateManager(sources []music.Source, opts httputil.Options) *music.Manager {
	if len(sources) == 0 {
		sources = music.DefaultSources
	}
	var apis []music.MusicAPI
	for _, source := range sources {
		api, err := CreateProvider(source, opts)
		if err != nil {
			log.Warn().Str("source", source.String()).Err(err).Msg("Failed to create provider, skipping")
			continue
		}
		apis = append(apis, api)
	}
	return music.NewManager(apis)
}
