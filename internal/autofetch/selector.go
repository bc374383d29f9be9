package autofetch

import (
	"sort"

	"lyrics-backend/pkg/music"
)

// scoreTolerance 与最高分相差不超过 15 分的歌词都参与比较
const scoreTolerance = 15

// tier 歌词完整度的一个等级
type tier struct {
	verbatim, ts, roma bool
}

// tiers 按优先级排列，最后兜底任意歌词
var tiers = []tier{
	{verbatim: true, ts: true, roma: true},
	{verbatim: true, ts: true},
	{ts: true, roma: true},
	{ts: true},
	{verbatim: true, roma: true},
	{verbatim: true},
	{roma: true},
}

func (t tier) match(l *music.Lyrics) bool {
	return (!t.verbatim || l.IsVerbatim()) &&
		(!t.ts || l.Has(music.TrackTs)) &&
		(!t.roma || l.Has(music.TrackRoma))
}

// selectResult 从所有获取到的歌词中选出最终结果
func selectResult(desc SongDescription, snap snapshot, sources []music.Source, withContext bool) (*Result, error) {
	if len(snap.lyrics) == 0 {
		if key, ok := instrumentalCandidate(snap); ok {
			snap.lyrics[key] = music.NewInstrumentalLyrics(snap.songs[key])
		} else {
			return nil, aggregate(desc, snap.errors)
		}
	}

	// 只保留接近最高分的结果
	var highest float64
	first := true
	for key := range snap.lyrics {
		if s := snap.scores[key]; first || s > highest {
			highest, first = s, false
		}
	}
	var keys []string
	for key := range snap.lyrics {
		if highest-snap.scores[key] <= scoreTolerance {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if si, sj := snap.scores[keys[i]], snap.scores[keys[j]]; si != sj {
			return si > sj
		}
		return keys[i] < keys[j]
	})

	chosen := keys
	for _, t := range tiers {
		var matched []string
		for _, key := range keys {
			if t.match(snap.lyrics[key]) {
				matched = append(matched, key)
			}
		}
		if len(matched) > 0 {
			chosen = matched
			break
		}
	}

	// 按源优先级返回
	for _, source := range sources {
		for _, key := range chosen {
			if snap.songs[key].Source != source {
				continue
			}
			result := &Result{
				Lyrics: snap.lyrics[key],
				Song:   snap.songs[key],
				Score:  snap.scores[key],
			}
			if withContext {
				result.SearchContext = searchContext(snap, key, sources)
			}
			return result, nil
		}
	}
	return nil, &UnknownError{Errors: snap.errors}
}

// instrumentalCandidate 没有任何歌词时，最高分且语言已知的候选若为纯音乐则返回它
func instrumentalCandidate(snap snapshot) (string, bool) {
	var keys []string
	for key, song := range snap.songs {
		if song.Language != music.LanguageUnknown {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return "", false
	}
	sort.Slice(keys, func(i, j int) bool {
		if si, sj := snap.scores[keys[i]], snap.scores[keys[j]]; si != sj {
			return si > sj
		}
		return keys[i] < keys[j]
	})
	best := keys[0]
	return best, snap.songs[best].Language == music.LanguageInstrumental
}

// searchContext 胜出候选的搜索结果在前，其余源的搜索结果按源优先级拼接在后
func searchContext(snap snapshot, winner string, sources []music.Source) *music.SearchBatch {
	priority := make(map[music.Source]int, len(sources))
	for i, s := range sources {
		priority[s] = i
	}

	var others []string
	for key := range snap.searchResults {
		if key != winner {
			others = append(others, key)
		}
	}
	sort.Slice(others, func(i, j int) bool {
		pi, pj := priority[snap.songs[others[i]].Source], priority[snap.songs[others[j]].Source]
		if pi != pj {
			return pi < pj
		}
		return others[i] < others[j]
	})

	ctx := snap.searchResults[winner]
	for _, key := range others {
		if ctx == nil {
			ctx = snap.searchResults[key]
			continue
		}
		ctx = ctx.Merge(snap.searchResults[key])
	}
	return ctx
}
