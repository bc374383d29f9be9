package player

import (
	"errors"
	"net/url"
	"os/exec"
	"strconv"
	"strings"

	"lyrics-backend/internal/autofetch"
)

// ErrNoMetadata 播放器没有返回歌曲标题
var ErrNoMetadata = errors.New("player returned no metadata")

const metadataFormat = "{{xesam:title}}\t{{xesam:artist}}\t{{xesam:album}}\t{{mpris:length}}\t{{xesam:url}}"

// runPlayerctl 测试时替换
var runPlayerctl = func(args ...string) ([]byte, error) {
	return exec.Command("playerctl", args...).Output()
}

// Metadata 当前播放的歌曲信息
type Metadata struct {
	Title    string
	Artist   string
	Album    string
	Duration int64 // 毫秒，0 表示未知
	URL      string
}

// Identifier 歌曲标识，同一首歌在轮询之间保持不变
func (m Metadata) Identifier() string {
	if m.Artist == "" {
		return m.Title
	}
	return m.Artist + " - " + m.Title
}

// Description 转换为自动获取使用的歌曲描述，本地文件会带上路径
func (m Metadata) Description() autofetch.SongDescription {
	desc := autofetch.SongDescription{
		Title:    m.Title,
		Artist:   m.Artist,
		Album:    m.Album,
		Duration: m.Duration,
	}
	if u, err := url.Parse(m.URL); err == nil && u.Scheme == "file" {
		desc.FilePath = u.Path
	}
	return desc
}

// GetMetadata 读取当前播放的歌曲信息
func GetMetadata() (Metadata, error) {
	out, err := runPlayerctl("metadata", "--format", metadataFormat)
	if err != nil {
		return Metadata{}, err
	}
	return parseMetadata(string(out))
}

func parseMetadata(out string) (Metadata, error) {
	fields := strings.Split(strings.TrimRight(out, "\r\n"), "\t")
	for len(fields) < 5 {
		fields = append(fields, "")
	}
	m := Metadata{
		Title:  strings.TrimSpace(fields[0]),
		Artist: strings.TrimSpace(fields[1]),
		Album:  strings.TrimSpace(fields[2]),
		URL:    strings.TrimSpace(fields[4]),
	}
	// mpris:length 单位为微秒
	if us, err := strconv.ParseInt(strings.TrimSpace(fields[3]), 10, 64); err == nil && us > 0 {
		m.Duration = us / 1000
	}
	if m.Title == "" {
		return Metadata{}, ErrNoMetadata
	}
	return m, nil
}

// GetCurrentSong 返回 "艺术家 - 标题"
func GetCurrentSong() (string, error) {
	m, err := GetMetadata()
	if err != nil {
		return "", err
	}
	return m.Identifier(), nil
}

// GetCurrentPlayTime 当前播放进度（秒），失败时返回 0
func GetCurrentPlayTime() float64 {
	out, err := runPlayerctl("position")
	if err != nil {
		return 0
	}
	s := strings.TrimSpace(string(out))
	seconds, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return seconds
}
