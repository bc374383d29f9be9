package autofetch

import (
	"sort"

	"github.com/rs/zerolog"

	"lyrics-backend/pkg/music"
	"lyrics-backend/pkg/similarity"
)

// durationTolerance 时长相差超过 4 秒的结果直接忽略
const durationTolerance int64 = 4000

// ScoredCandidate 打过分的候选歌曲
type ScoredCandidate struct {
	Score float64        `json:"score"`
	Song  music.SongInfo `json:"song"`
}

// rankCandidates 给一次搜索的结果打分，返回分数高于 minScore 的候选，按分数降序
func rankCandidates(desc SongDescription, kw keywords, batch *music.SearchBatch, minScore float64, log zerolog.Logger) []ScoredCandidate {
	if desc.Duration <= 0 && len(batch.Songs) > 0 {
		log.Debug().Str("keyword", batch.Keyword).Msg("Duration unknown, skipping duration check")
	}

	var ranked []ScoredCandidate
	for _, song := range batch.Songs {
		if desc.Duration > 0 && abs(desc.Duration-song.Duration) > durationTolerance {
			continue
		}

		var score float64
		if kw.fromMetadata(batch.Keyword) {
			score = metadataScore(desc, song)
		} else {
			score = fileNameScore(kw.fileName, song)
		}

		if score > minScore {
			ranked = append(ranked, ScoredCandidate{Score: score, Song: song})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked
}

// metadataScore 根据标题、艺术家、专辑计算得分
func metadataScore(desc SongDescription, song music.SongInfo) float64 {
	title := similarity.TitleScore(desc.Title, song.Title)

	var album, artist float64
	hasAlbum := desc.Album != "" && song.Album != ""
	if hasAlbum {
		album = similarity.TextDifference(similarity.Normalize(desc.Album), similarity.Normalize(song.Album)) * 100
	}
	hasArtist := desc.Artist != "" && len(song.Artists) > 0
	if hasArtist {
		artist = similarity.ArtistScore(desc.Artist, song.Artist())
	}

	var score float64
	switch {
	case hasArtist && hasAlbum:
		score = max(title*0.5+artist*0.5, title*0.5+artist*0.35+album*0.15)
	case hasArtist:
		score = title*0.5 + artist*0.5
	case hasAlbum && album > 0:
		score = max(title*0.7+album*0.3, title*0.8)
	default:
		score = title
	}

	// 标题差距过大时重罚
	if title < 30 {
		score = max(0, score-35)
	}
	return score
}

// fileNameScore 文件名与 "标题"、"艺术家 - 标题"、"标题 - 艺术家" 的最高相似度，按原文比较
func fileNameScore(fileName string, song music.SongInfo) float64 {
	artist := song.Artist()
	var best float64
	for _, candidate := range []string{
		song.Title,
		artist + " - " + song.Title,
		song.Title + " - " + artist,
	} {
		if d := similarity.TextDifference(fileName, candidate); d > best {
			best = d
		}
	}
	return best * 100
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
