package autofetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lyrics-backend/pkg/music"
)

// ErrNotEnoughInfo 歌曲描述既没有标题也没有文件路径
var ErrNotEnoughInfo = errors.New("not enough information to search")

// NotEnoughInfoError 在开始任何搜索之前返回
type NotEnoughInfoError struct {
	Desc SongDescription
}

func (e *NotEnoughInfoError) Error() string {
	return fmt.Sprintf("%v: %+v", ErrNotEnoughInfo, e.Desc)
}

func (e *NotEnoughInfoError) Is(target error) bool {
	return target == ErrNotEnoughInfo
}

// LyricsNotFoundError 所有歌词源都没有找到符合要求的歌曲
type LyricsNotFoundError struct {
	Desc SongDescription
}

func (e *LyricsNotFoundError) Error() string {
	return fmt.Sprintf("no matching song found for %q", e.Desc.String())
}

func (e *LyricsNotFoundError) Unwrap() error {
	return music.ErrLyricsNotFound
}

// NetworkError 所有失败都是网络或 HTTP 错误
type NetworkError struct {
	Errors []error
}

func (e *NetworkError) Error() string {
	return "network error: " + joinErrors(e.Errors)
}

func (e *NetworkError) Unwrap() []error {
	return e.Errors
}

func (e *NetworkError) Is(target error) bool {
	return target == music.ErrNetwork
}

// UnknownError 其它错误组合，保留全部错误用于诊断
type UnknownError struct {
	Errors []error
}

func (e *UnknownError) Error() string {
	if len(e.Errors) == 0 {
		return "unknown error while fetching lyrics"
	}
	return "unknown error while fetching lyrics: " + joinErrors(e.Errors)
}

func (e *UnknownError) Unwrap() []error {
	return e.Errors
}

// TimeoutError 超过时间限制
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("auto fetch timed out after %s", e.Timeout)
}

func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

func joinErrors(errs []error) string {
	parts := make([]string, 0, len(errs))
	for _, err := range errs {
		parts = append(parts, err.Error())
	}
	return strings.Join(parts, "; ")
}

// aggregate 没有拿到任何歌词时，根据收集到的错误决定返回的错误
func aggregate(desc SongDescription, errs []error) error {
	notFound, network := true, len(errs) > 0
	for _, err := range errs {
		if !errors.Is(err, music.ErrLyricsNotFound) {
			notFound = false
		}
		if !music.IsNetworkError(err) {
			network = false
		}
	}
	switch {
	case notFound:
		return &LyricsNotFoundError{Desc: desc}
	case network:
		return &NetworkError{Errors: errs}
	default:
		return &UnknownError{Errors: errs}
	}
}
