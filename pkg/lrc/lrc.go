// Package lrc 解析与生成 LRC 歌词（含增强型逐字 LRC）
package lrc

import (
	"bufio"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"lyrics-backend/pkg/music"
)

var (
	timeTagRe = regexp.MustCompile(`\[(\d{1,3}):(\d{1,2})(?:[.:](\d{1,3}))?\]`)
	wordTagRe = regexp.MustCompile(`<(\d{1,3}):(\d{1,2})(?:[.:](\d{1,3}))?>`)
	metaTagRe = regexp.MustCompile(`^\[([a-zA-Z#]+):(.*)\]$`)
)

// DefaultOrder 默认的轨道输出顺序
var DefaultOrder = []music.TrackKey{music.TrackRoma, music.TrackOrig, music.TrackTs}

// Parse 解析 LRC 文本，返回轨道和元数据标签
func Parse(text string) (*music.Track, map[string]string) {
	tags := make(map[string]string)
	track := &music.Track{Type: music.PlainText}
	var plain []string

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if m := metaTagRe.FindStringSubmatch(line); m != nil && !timeTagRe.MatchString(line) {
			tags[strings.ToLower(m[1])] = strings.TrimSpace(m[2])
			continue
		}

		stamps := timeTagRe.FindAllStringSubmatchIndex(line, -1)
		if len(stamps) == 0 || stamps[0][0] != 0 {
			plain = append(plain, line)
			continue
		}

		// 行首可能有多个时间标签，表示同一句歌词重复出现
		var starts []int64
		rest := line
		for len(rest) > 0 {
			loc := timeTagRe.FindStringSubmatchIndex(rest)
			if loc == nil || loc[0] != 0 {
				break
			}
			starts = append(starts, parseTime(rest, loc))
			rest = rest[loc[1]:]
		}

		text, words := parseWords(rest)
		if len(words) > 0 {
			track.Type = music.Verbatim
		} else if track.Type == music.PlainText {
			track.Type = music.LineByLine
		}
		for _, start := range starts {
			track.Lines = append(track.Lines, music.LyricLine{Start: start, End: -1, Text: text, Words: words})
		}
	}

	if track.Type == music.PlainText {
		for _, p := range plain {
			track.Lines = append(track.Lines, music.LyricLine{Start: -1, End: -1, Text: p})
		}
		return track, tags
	}

	sort.SliceStable(track.Lines, func(i, j int) bool { return track.Lines[i].Start < track.Lines[j].Start })
	for i := range track.Lines {
		if n := len(track.Lines[i].Words); n > 0 {
			track.Lines[i].End = track.Lines[i].Words[n-1].End
		}
		if track.Lines[i].End < 0 && i+1 < len(track.Lines) {
			track.Lines[i].End = track.Lines[i+1].Start
		}
	}
	return track, tags
}

// parseWords 解析 <mm:ss.xx>字 形式的逐字标签
func parseWords(s string) (string, []music.Word) {
	locs := wordTagRe.FindAllStringSubmatchIndex(s, -1)
	if len(locs) == 0 {
		return strings.TrimSpace(s), nil
	}

	var words []music.Word
	var text strings.Builder
	text.WriteString(s[:locs[0][0]])
	for i, loc := range locs {
		start := parseTime(s, loc)
		end := len(s)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		w := s[loc[1]:end]
		text.WriteString(w)
		if w == "" {
			// 结束标签，修正上一个字的结束时间
			if n := len(words); n > 0 {
				words[n-1].End = start
			}
			continue
		}
		if n := len(words); n > 0 && words[n-1].End < 0 {
			words[n-1].End = start
		}
		words = append(words, music.Word{Start: start, End: -1, Text: w})
	}
	if n := len(words); n > 0 && words[n-1].End < 0 {
		words[n-1].End = words[n-1].Start
	}
	return strings.TrimSpace(text.String()), words
}

func parseTime(s string, loc []int) int64 {
	min, _ := strconv.Atoi(s[loc[2]:loc[3]])
	sec, _ := strconv.Atoi(s[loc[4]:loc[5]])
	ms := 0
	if loc[6] >= 0 {
		msStr := s[loc[6]:loc[7]]
		ms, _ = strconv.Atoi(msStr)
		// 根据毫秒字符串的长度来正确处理毫秒值
		switch len(msStr) {
		case 1:
			ms *= 100
		case 2:
			ms *= 10
		}
	}
	return int64(min*60+sec)*1000 + int64(ms)
}

// FormatTime 毫秒转为 mm:ss.xx
func FormatTime(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("%02d:%02d.%02d", ms/60000, ms/1000%60, ms%1000/10)
}

// Format 把歌词按 order 中的轨道顺序合并成逐行 LRC
func Format(l *music.Lyrics, order []music.TrackKey) string {
	if l == nil {
		return ""
	}
	if len(order) == 0 {
		order = DefaultOrder
	}

	var b strings.Builder
	for _, tag := range []string{"ti", "ar", "al", "by", "offset"} {
		if v, ok := l.Tags[tag]; ok && v != "" {
			fmt.Fprintf(&b, "[%s:%s]\n", tag, v)
		}
	}

	base := baseTrack(l, order)
	if base == nil {
		return strings.TrimSpace(b.String())
	}

	if base.Type == music.PlainText {
		for _, key := range order {
			if !l.Has(key) {
				continue
			}
			for _, line := range l.Tracks[key].Lines {
				b.WriteString(line.Text)
				b.WriteByte('\n')
			}
		}
		return strings.TrimSpace(b.String())
	}

	// 其它轨道按开始时间对齐到基准轨道
	byStart := make(map[music.TrackKey]map[int64]string)
	for _, key := range order {
		if !l.Has(key) || l.Tracks[key] == base {
			continue
		}
		m := make(map[int64]string, len(l.Tracks[key].Lines))
		for _, line := range l.Tracks[key].Lines {
			m[line.Start] = line.Text
		}
		byStart[key] = m
	}

	for _, line := range base.Lines {
		stamp := FormatTime(line.Start)
		for _, key := range order {
			if !l.Has(key) {
				continue
			}
			text, ok := line.Text, l.Tracks[key] == base
			if !ok {
				text, ok = byStart[key][line.Start]
			}
			if ok && (text != "" || l.Tracks[key] == base) {
				fmt.Fprintf(&b, "[%s]%s\n", stamp, text)
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func baseTrack(l *music.Lyrics, order []music.TrackKey) *music.Track {
	if l.Has(music.TrackOrig) {
		return l.Tracks[music.TrackOrig]
	}
	for _, key := range order {
		if l.Has(key) {
			return l.Tracks[key]
		}
	}
	return nil
}

// Texts 返回轨道的纯文本行，用于翻译
func Texts(t *music.Track) []string {
	if t == nil {
		return nil
	}
	texts := make([]string, 0, len(t.Lines))
	for _, line := range t.Lines {
		texts = append(texts, line.Text)
	}
	return texts
}

// WithTexts 返回与 t 时间轴相同、文本替换为 texts 的逐行轨道
func WithTexts(t *music.Track, texts []string) *music.Track {
	out := &music.Track{Type: music.LineByLine, Lines: make([]music.LyricLine, 0, len(t.Lines))}
	if t.Type == music.PlainText {
		out.Type = music.PlainText
	}
	for i, line := range t.Lines {
		text := ""
		if i < len(texts) {
			text = texts[i]
		}
		out.Lines = append(out.Lines, music.LyricLine{Start: line.Start, End: line.End, Text: text})
	}
	return out
}
