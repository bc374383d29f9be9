package lyrics

import (
	"strings"

	"lyrics-backend/pkg/lrc"
)

// Line 调度器使用的一行歌词，同一时间的多条轨道合并为多行文本
type Line struct {
	Time float64 // 秒
	Text string
}

// ParseLRC 解析 LRC 文本，没有时间轴时返回 nil
func ParseLRC(text string) []Line {
	track, _ := lrc.Parse(text)
	var result []Line
	for _, l := range track.Lines {
		if l.Start < 0 {
			return nil
		}
		t := float64(l.Start) / 1000
		if n := len(result); n > 0 && result[n-1].Time == t {
			if l.Text != "" {
				result[n-1].Text = strings.TrimPrefix(result[n-1].Text+"\n"+l.Text, "\n")
			}
			continue
		}
		result = append(result, Line{Time: t, Text: l.Text})
	}
	return result
}
