package autofetch

import (
	"path/filepath"
	"strings"
)

// SongDescription 用于搜索的歌曲描述，至少需要标题或文件路径
type SongDescription struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	Duration int64  `json:"duration"` // 毫秒，0 表示未知
	FilePath string `json:"file_path"`
}

// ArtistTitle "艺术家 - 标题"，没有艺术家时只返回标题
func (d SongDescription) ArtistTitle() string {
	if d.Artist == "" {
		return d.Title
	}
	return d.Artist + " - " + d.Title
}

func (d SongDescription) String() string {
	if strings.TrimSpace(d.Title) == "" {
		return d.FilePath
	}
	return d.ArtistTitle()
}

// keywords 按优先级排列的搜索关键词
type keywords struct {
	artistTitle string
	title       string
	fileName    string
}

// keywords 生成搜索关键词：有标题时使用 "艺术家 - 标题" 和标题，否则使用文件名
func (d SongDescription) keywords() (keywords, error) {
	var kw keywords
	switch {
	case strings.TrimSpace(d.Title) != "":
		if d.Artist != "" {
			kw.artistTitle = d.ArtistTitle()
		}
		kw.title = d.Title
	case d.FilePath != "":
		base := filepath.Base(d.FilePath)
		kw.fileName = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if kw.title == "" && kw.fileName == "" {
		return kw, &NotEnoughInfoError{Desc: d}
	}
	return kw, nil
}

// initial 第一轮搜索使用的关键词
func (k keywords) initial() string {
	switch {
	case k.artistTitle != "":
		return k.artistTitle
	case k.title != "":
		return k.title
	default:
		return k.fileName
	}
}

// fromMetadata 关键词是否来自标题/艺术家，而不是文件名
func (k keywords) fromMetadata(keyword string) bool {
	return keyword != "" && (keyword == k.artistTitle || keyword == k.title)
}
