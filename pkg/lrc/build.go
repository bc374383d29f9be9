package lrc

import (
	"fmt"
	"strings"

	"lyrics-backend/pkg/music"
)

// Build 把各轨道的 LRC 文本解析成歌词，没有原文时返回 music.ErrLyricsNotFound
func Build(info music.SongInfo, texts map[music.TrackKey]string) (*music.Lyrics, error) {
	l := music.NewLyrics(info)
	for key, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		track, tags := Parse(text)
		if len(track.Lines) == 0 || onlyEmptyLines(track) {
			continue
		}
		l.Tracks[key] = track
		if key == music.TrackOrig {
			if v, ok := tags["offset"]; ok {
				l.Tags["offset"] = v
			}
			if v, ok := tags["by"]; ok {
				l.Tags["by"] = v
			}
		}
	}
	if !l.Has(music.TrackOrig) {
		return nil, fmt.Errorf("%w: %s", music.ErrLyricsNotFound, info.ArtistTitle())
	}
	return l, nil
}

func onlyEmptyLines(t *music.Track) bool {
	for _, line := range t.Lines {
		if strings.TrimSpace(line.Text) != "" {
			return false
		}
	}
	return true
}
