package config

import (
	"fmt"
	"strings"

	"lyrics-backend/pkg/music"
)

// ParseLangsOrder 解析轨道顺序，如 ["roma", "orig", "ts"]
func ParseLangsOrder(names []string) ([]music.TrackKey, error) {
	seen := make(map[music.TrackKey]bool, len(names))
	order := make([]music.TrackKey, 0, len(names))
	for _, name := range names {
		key := music.TrackKey(strings.ToLower(strings.TrimSpace(name)))
		switch key {
		case music.TrackOrig, music.TrackTs, music.TrackRoma:
		default:
			return nil, fmt.Errorf("unknown lyrics track %q", name)
		}
		if !seen[key] {
			seen[key] = true
			order = append(order, key)
		}
	}
	return order, nil
}
