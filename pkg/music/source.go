package music

import (
	"fmt"
	"strings"
)

// ParseSource 根据名称获取歌词源，支持常用别名
func ParseSource(name string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "qm", "qqmusic", "qq", "腾讯", "qq音乐":
		return SourceQQMusic, nil
	case "kg", "kugou", "酷狗":
		return SourceKugou, nil
	case "ne", "netease", "网易云", "163":
		return SourceNetEase, nil
	case "lrclib":
		return SourceLRCLib, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownSource, name)
	}
}

// ParseSources 解析一组源名称，忽略重复
func ParseSources(names []string) ([]Source, error) {
	seen := make(map[Source]bool, len(names))
	var sources []Source
	for _, name := range names {
		s, err := ParseSource(name)
		if err != nil {
			return nil, err
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		sources = append(sources, s)
	}
	return sources, nil
}

// AllSources 所有已实现的歌词源
func AllSources() []Source {
	return []Source{SourceQQMusic, SourceKugou, SourceNetEase, SourceLRCLib}
}
