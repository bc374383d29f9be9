package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"

	"lyrics-backend/internal/autofetch"
	"lyrics-backend/pkg/music"
)

var logger = log.With().Str("component", "config").Logger()

const (
	DefaultSocketPath    = "/tmp/lyrics_app.sock"
	DefaultLyricsFile    = "/tmp/lyrics"
	DefaultCheckInterval = 5 * time.Second
	DefaultRedisTTL      = 7 * 24 * time.Hour
	DefaultTargetLang    = "zh"
)

func getDefaultCacheDir() string {
	// 优先使用 XDG_CACHE_HOME 环境变量
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, "lyrics")
	}

	// 否则使用用户主目录下的 .cache
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// 如果获取不到用户主目录，回退到当前目录
		return "lyrics_cache"
	}

	return filepath.Join(homeDir, ".cache", "lyrics")
}

// TomlConfig TOML配置文件结构
type TomlConfig struct {
	App struct {
		SocketPath    string `toml:"socket_path"`
		CheckInterval string `toml:"check_interval"`
		CacheDir      string `toml:"cache_dir"`
		LyricsFile    string `toml:"lyrics_file"`
		LogLevel      string `toml:"log_level"`
	} `toml:"app"`

	AI struct {
		ModuleName string `toml:"module_name"`
		APIKey     string `toml:"api_key"`
		BaseURL    string `toml:"base_url"` // for OpenAI
	} `toml:"ai"`

	Redis struct {
		Enabled  bool   `toml:"enabled"`
		Addr     string `toml:"addr"`
		Password string `toml:"password"`
		DB       int    `toml:"db"`
		TTL      string `toml:"ttl"`
	} `toml:"redis"`

	Fetch struct {
		MinScore          float64  `toml:"min_score"`
		Sources           []string `toml:"sources"`
		Timeout           string   `toml:"timeout"`
		PollInterval      string   `toml:"poll_interval"`
		Workers           int      `toml:"workers"`
		RequestsPerSecond float64  `toml:"requests_per_second"`
	} `toml:"fetch"`

	Lyrics struct {
		LangsOrder     []string `toml:"langs_order"`
		Translate      string   `toml:"translate"`
		TargetLang     string   `toml:"target_lang"`
		SkipInstLyrics bool     `toml:"skip_inst_lyrics"`
	} `toml:"lyrics"`

	Tencent struct {
		SecretID  string `toml:"secret_id"`
		SecretKey string `toml:"secret_key"`
	} `toml:"tencent"`
}

// AppConfig 应用配置
type AppConfig struct {
	SocketPath    string
	CheckInterval time.Duration
	CacheDir      string
	LyricsFile    string
	LogLevel      string
}

// AIConfig AI配置
type AIConfig struct {
	ModuleName string
	APIKey     string
	BaseURL    string
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// FetchConfig 自动获取歌词的参数
type FetchConfig struct {
	MinScore          float64
	Sources           []music.Source
	Timeout           time.Duration
	PollInterval      time.Duration
	Workers           int
	RequestsPerSecond float64
}

// LyricsConfig 歌词输出配置
type LyricsConfig struct {
	LangsOrder     []music.TrackKey
	Translate      string // "", "ai" 或 "tencent"
	TargetLang     string
	SkipInstLyrics bool
}

// TencentConfig 腾讯云机器翻译配置
type TencentConfig struct {
	SecretID  string
	SecretKey string
}

// Config 主配置结构
type Config struct {
	App     AppConfig
	AI      AIConfig
	Redis   RedisConfig
	Fetch   FetchConfig
	Lyrics  LyricsConfig
	Tencent TencentConfig
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		App: AppConfig{
			SocketPath:    DefaultSocketPath,
			CheckInterval: DefaultCheckInterval,
			CacheDir:      getDefaultCacheDir(),
			LyricsFile:    DefaultLyricsFile,
			LogLevel:      "info",
		},
		AI: AIConfig{
			ModuleName: "gemini",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			TTL:  DefaultRedisTTL,
		},
		Fetch: FetchConfig{
			MinScore:     autofetch.DefaultMinScore,
			Sources:      music.DefaultSources,
			Timeout:      autofetch.DefaultTimeout,
			PollInterval: autofetch.DefaultPollInterval,
			Workers:      autofetch.DefaultWorkers,
		},
		Lyrics: LyricsConfig{
			LangsOrder: []music.TrackKey{music.TrackRoma, music.TrackOrig, music.TrackTs},
			TargetLang: DefaultTargetLang,
		},
	}
}

// getConfigPath 获取配置文件路径
func getConfigPath() string {
	// 优先使用 XDG_CONFIG_HOME 环境变量
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "lyrics", "config.toml")
	}

	// 否则使用用户主目录下的 .config
	homeDir, err := os.UserHomeDir()
	if err != nil {
		logger.Warn().Err(err).Msg("Cannot get user home directory")
		return "config.toml" // 回退到当前目录
	}

	return filepath.Join(homeDir, ".config", "lyrics", "config.toml")
}

// loadTomlConfig 加载TOML配置文件
func loadTomlConfig(configPath string) (*TomlConfig, error) {
	// 检查配置文件是否存在
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		logger.Info().Str("path", configPath).Msg("Config file not found, using defaults")
		return &TomlConfig{}, nil
	}

	var config TomlConfig
	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		return nil, err
	}

	logger.Info().Str("path", configPath).Msg("Loaded config")
	return &config, nil
}

// Load 从默认路径加载配置
func Load() *Config {
	return LoadFile(getConfigPath())
}

// LoadFile 从指定路径加载配置，出错时使用默认值
func LoadFile(configPath string) *Config {
	tomlConfig, err := loadTomlConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load config file, using default configuration")
		tomlConfig = &TomlConfig{}
	}

	config := Default()
	config.apply(tomlConfig)

	// 检查必要的配置
	if config.AI.APIKey == "" {
		logger.Warn().
			Str("path", configPath).
			Msg("No AI API key configured, media titles will be matched without AI cleanup and ai translation is disabled")
	}

	return config
}

func parseDuration(field, value string, target *time.Duration) {
	if value == "" {
		return
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		logger.Warn().Str("field", field).Str("value", value).Msg("Invalid duration format, using default")
		return
	}
	*target = d
}

// apply 用 TOML 中的非零值覆盖默认值
func (c *Config) apply(t *TomlConfig) {
	// App
	if t.App.SocketPath != "" {
		c.App.SocketPath = t.App.SocketPath
	}
	parseDuration("app.check_interval", t.App.CheckInterval, &c.App.CheckInterval)
	if t.App.CacheDir != "" {
		c.App.CacheDir = t.App.CacheDir
	}
	if t.App.LyricsFile != "" {
		c.App.LyricsFile = t.App.LyricsFile
	}
	if t.App.LogLevel != "" {
		c.App.LogLevel = t.App.LogLevel
	}

	// AI
	if t.AI.ModuleName != "" {
		c.AI.ModuleName = t.AI.ModuleName
	}
	if t.AI.BaseURL != "" {
		c.AI.BaseURL = t.AI.BaseURL
	}
	if t.AI.APIKey != "" {
		c.AI.APIKey = t.AI.APIKey
	}

	// Redis
	c.Redis.Enabled = t.Redis.Enabled
	if t.Redis.Addr != "" {
		c.Redis.Addr = t.Redis.Addr
	}
	if t.Redis.Password != "" {
		c.Redis.Password = t.Redis.Password
	}
	if t.Redis.DB != 0 {
		c.Redis.DB = t.Redis.DB
	}
	parseDuration("redis.ttl", t.Redis.TTL, &c.Redis.TTL)

	// Fetch
	if t.Fetch.MinScore > 0 {
		c.Fetch.MinScore = t.Fetch.MinScore
	}
	if len(t.Fetch.Sources) > 0 {
		if sources, err := music.ParseSources(t.Fetch.Sources); err != nil {
			logger.Warn().Err(err).Strs("sources", t.Fetch.Sources).Msg("Invalid fetch.sources, using default")
		} else {
			c.Fetch.Sources = sources
		}
	}
	parseDuration("fetch.timeout", t.Fetch.Timeout, &c.Fetch.Timeout)
	parseDuration("fetch.poll_interval", t.Fetch.PollInterval, &c.Fetch.PollInterval)
	if t.Fetch.Workers > 0 {
		c.Fetch.Workers = t.Fetch.Workers
	}
	if t.Fetch.RequestsPerSecond > 0 {
		c.Fetch.RequestsPerSecond = t.Fetch.RequestsPerSecond
	}

	// Lyrics
	if len(t.Lyrics.LangsOrder) > 0 {
		if order, err := ParseLangsOrder(t.Lyrics.LangsOrder); err != nil {
			logger.Warn().Err(err).Strs("langs_order", t.Lyrics.LangsOrder).Msg("Invalid lyrics.langs_order, using default")
		} else {
			c.Lyrics.LangsOrder = order
		}
	}
	switch mode := strings.ToLower(t.Lyrics.Translate); mode {
	case "", "ai", "tencent":
		c.Lyrics.Translate = mode
	default:
		logger.Warn().Str("translate", t.Lyrics.Translate).Msg("Unknown lyrics.translate, translation disabled")
	}
	if t.Lyrics.TargetLang != "" {
		c.Lyrics.TargetLang = t.Lyrics.TargetLang
	}
	c.Lyrics.SkipInstLyrics = t.Lyrics.SkipInstLyrics

	// Tencent
	c.Tencent.SecretID = t.Tencent.SecretID
	c.Tencent.SecretKey = t.Tencent.SecretKey
}
