// Package musiccache 记录播放器标题到歌曲信息的解析结果，避免重复调用 AI
package musiccache

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	kvFormat = "%s => %s"
	kvSep    = " => "
)

// Cache 追加写入的键值文件，每行 "key => value"
type Cache struct {
	path    string
	mu      sync.Mutex
	entries map[string]string
}

// Open 读取缓存文件，文件不存在时创建
func Open(path string) (*Cache, error) {
	c := &Cache{path: path, entries: make(map[string]string)}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache file %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), kvSep)
		if !ok || key == "" {
			continue
		}
		// 后写入的覆盖先写入的
		c.entries[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cache file %s: %w", path, err)
	}
	return c, nil
}

// Add 记录一条解析结果，已存在相同内容时不写文件
func (c *Cache) Add(key, value string) error {
	key = sanitize(key)
	value = sanitize(value)

	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.entries[key]; ok && old == value {
		return nil
	}

	f, err := os.OpenFile(c.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open cache file %s: %w", c.path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, kvFormat+"\n", key, value); err != nil {
		return fmt.Errorf("failed to append cache file %s: %w", c.path, err)
	}
	c.entries[key] = value
	return nil
}

// Get 查找解析结果
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[sanitize(key)]
	return v, ok
}

// Len 缓存条目数
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// sanitize 去掉换行，保证一条记录一行
func sanitize(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(strings.TrimSpace(s))
}
