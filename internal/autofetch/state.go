package autofetch

import (
	"sync"

	"lyrics-backend/pkg/music"
)

// operationState 单次 Fetch 的全部中间结果，键为 SongInfo.Key()。
// 关闭之后的写入一律丢弃
type operationState struct {
	mu            sync.Mutex
	closed        bool
	songs         map[string]music.SongInfo
	scores        map[string]float64
	searchResults map[string]*music.SearchBatch
	lyrics        map[string]*music.Lyrics
	errors        []error
}

func newOperationState() *operationState {
	return &operationState{
		songs:         make(map[string]music.SongInfo),
		scores:        make(map[string]float64),
		searchResults: make(map[string]*music.SearchBatch),
		lyrics:        make(map[string]*music.Lyrics),
	}
}

// beginAttempt 记录即将获取歌词的候选及其搜索结果，prev 为被它取代的上一个候选
func (s *operationState) beginAttempt(cand ScoredCandidate, batch *music.SearchBatch, prev *music.SongInfo) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	key := cand.Song.Key()
	s.songs[key] = cand.Song
	s.scores[key] = cand.Score
	s.searchResults[key] = batch
	if prev != nil {
		delete(s.searchResults, prev.Key())
	}
	return true
}

func (s *operationState) addLyrics(song music.SongInfo, lyrics *music.Lyrics) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.lyrics[song.Key()] = lyrics
	return true
}

func (s *operationState) addError(err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.errors = append(s.errors, err)
	return true
}

func (s *operationState) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// snapshot 选择结果时使用的只读副本
type snapshot struct {
	songs         map[string]music.SongInfo
	scores        map[string]float64
	searchResults map[string]*music.SearchBatch
	lyrics        map[string]*music.Lyrics
	errors        []error
}

func (s *operationState) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		songs:         make(map[string]music.SongInfo, len(s.songs)),
		scores:        make(map[string]float64, len(s.scores)),
		searchResults: make(map[string]*music.SearchBatch, len(s.searchResults)),
		lyrics:        make(map[string]*music.Lyrics, len(s.lyrics)),
		errors:        append([]error(nil), s.errors...),
	}
	for k, v := range s.songs {
		snap.songs[k] = v
	}
	for k, v := range s.scores {
		snap.scores[k] = v
	}
	for k, v := range s.searchResults {
		snap.searchResults[k] = v
	}
	for k, v := range s.lyrics {
		snap.lyrics[k] = v
	}
	return snap
}
