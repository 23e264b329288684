// Package config provides configuration management for the PDF translator.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/types"
)

const (
	// DefaultConfigFileName is the default configuration file name
	DefaultConfigFileName = "pdf-translator-config.json"
	// EnvOpenAIAPIKey is the environment variable name for the OpenAI API key
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	// EnvDeepSeekAPIKey is the fallback environment variable for the API key
	EnvDeepSeekAPIKey = "DEEPSEEK_API_KEY"
	// EnvOpenAIBaseURL is the environment variable name for the API base URL
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"
	// EnvOpenAIModel is the environment variable name for the model
	EnvOpenAIModel = "OPENAI_MODEL"
	// DefaultBaseURL is the default OpenAI API base URL
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultModel is the default model to use for translation
	DefaultModel = "gpt-4o-mini"
	// DefaultMaxTokens caps the completion size per API call
	DefaultMaxTokens = 4000
	// DefaultTemperature keeps translations close to the source
	DefaultTemperature = 0.3
	// DefaultSourceLang is the default source language
	DefaultSourceLang = "English"
	// DefaultTargetLang is the default target language
	DefaultTargetLang = "Chinese"
	// DefaultChunkSize is the maximum chunk body size in characters
	DefaultChunkSize = 2500
	// DefaultContextLen is the cross-chunk context tail length in characters
	DefaultContextLen = 200
	// DefaultMaxRetries is how many attempts a failed API call gets
	DefaultMaxRetries = 3
	// DefaultRetryDelaySec is the linear backoff base delay in seconds
	DefaultRetryDelaySec = 2.0
	// DefaultRequestIntervalSec is the fixed sleep between successive API calls
	DefaultRequestIntervalSec = 0.5
	// DefaultHeadingFontSize is the font size above which extracted text is a heading
	DefaultHeadingFontSize = 14.0
	// DefaultCacheDir is where translation cache files are stored
	DefaultCacheDir = ".cache"
)

// ConfigManager manages application configuration
type ConfigManager struct {
	configPath string
	config     *types.Config
}

// NewConfigManager creates a new ConfigManager with the specified config path.
// If configPath is empty, a config file in the current directory is preferred,
// falling back to the user's config directory.
func NewConfigManager(configPath string) (*ConfigManager, error) {
	if configPath == "" {
		if _, err := os.Stat(DefaultConfigFileName); err == nil {
			configPath = DefaultConfigFileName
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				logger.Error("failed to get user home directory", err)
				return nil, types.NewAppError(types.ErrConfig, "failed to get user home directory", err)
			}
			configPath = filepath.Join(homeDir, ".config", "pdf-translator", DefaultConfigFileName)
		}
	}

	logger.Info("ConfigManager initialized", logger.String("configPath", configPath))
	return &ConfigManager{
		configPath: configPath,
		config:     DefaultConfig(),
	}, nil
}

// DefaultConfig returns a Config with default values. API key, base URL and
// model honor the environment so a config file is optional.
func DefaultConfig() *types.Config {
	return &types.Config{
		APIKey:          apiKeyFromEnv(),
		BaseURL:         envOr(EnvOpenAIBaseURL, DefaultBaseURL),
		Model:           envOr(EnvOpenAIModel, DefaultModel),
		MaxTokens:       envInt("PDF_TRANSLATOR_MAX_TOKENS", DefaultMaxTokens),
		Temperature:     DefaultTemperature,
		SourceLang:      DefaultSourceLang,
		TargetLang:      DefaultTargetLang,
		ChunkSize:       envInt("PDF_TRANSLATOR_CHUNK_SIZE", DefaultChunkSize),
		ContextLen:      DefaultContextLen,
		MaxRetries:      DefaultMaxRetries,
		RetryDelaySec:   DefaultRetryDelaySec,
		RequestInterval: DefaultRequestIntervalSec,
		HeadingFontSize: DefaultHeadingFontSize,
		PipelineMode:    types.ModeElements,
		OutputFormat:    types.OutputMarkdown,
		CacheEnabled:    envBool("PDF_TRANSLATOR_CACHE", true),
		CacheDir:        DefaultCacheDir,
		CacheKeyMode:    types.CacheKeyContent,
		LogLevel:        envOr("PDF_TRANSLATOR_LOG_LEVEL", "info"),
		LogFile:         "pdf-translator.log",
	}
}

// Load loads configuration from the config file.
// If the file doesn't exist, it uses default values.
// Environment variables fill in the API key when the file leaves it empty.
func (m *ConfigManager) Load() error {
	logger.Debug("loading configuration", logger.String("path", m.configPath))

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("config file not found, using defaults", logger.String("path", m.configPath))
			m.config = DefaultConfig()
		} else {
			logger.Error("failed to read config file", err, logger.String("path", m.configPath))
			return types.NewAppError(types.ErrConfig, "failed to read config file", err)
		}
	} else {
		config := &types.Config{}
		if err := json.Unmarshal(data, config); err != nil {
			// Invalid JSON, use defaults
			logger.Warn("invalid config file format, using defaults", logger.String("path", m.configPath), logger.Err(err))
			m.config = DefaultConfig()
		} else {
			logger.Info("configuration loaded",
				logger.String("path", m.configPath),
				logger.Int("apiKeyLength", len(config.APIKey)),
				logger.String("baseURL", config.BaseURL),
				logger.String("model", config.Model))
			m.config = config
		}
	}

	m.applyDefaults()
	return nil
}

// applyDefaults backfills zero-valued fields so a sparse config file works.
func (m *ConfigManager) applyDefaults() {
	c := m.config
	if c.APIKey == "" {
		c.APIKey = apiKeyFromEnv()
	}
	if c.BaseURL == "" {
		c.BaseURL = envOr(EnvOpenAIBaseURL, DefaultBaseURL)
	}
	if c.Model == "" {
		c.Model = envOr(EnvOpenAIModel, DefaultModel)
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	if c.SourceLang == "" {
		c.SourceLang = DefaultSourceLang
	}
	if c.TargetLang == "" {
		c.TargetLang = DefaultTargetLang
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.ContextLen <= 0 {
		c.ContextLen = DefaultContextLen
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryDelaySec <= 0 {
		c.RetryDelaySec = DefaultRetryDelaySec
	}
	if c.RequestInterval <= 0 {
		c.RequestInterval = DefaultRequestIntervalSec
	}
	if c.HeadingFontSize <= 0 {
		c.HeadingFontSize = DefaultHeadingFontSize
	}
	if c.PipelineMode == "" {
		c.PipelineMode = types.ModeElements
	}
	if c.OutputFormat == "" {
		c.OutputFormat = types.OutputMarkdown
	}
	if c.CacheDir == "" {
		c.CacheDir = DefaultCacheDir
	}
	if c.CacheKeyMode == "" {
		c.CacheKeyMode = types.CacheKeyContent
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Save saves the current configuration to the config file.
func (m *ConfigManager) Save() error {
	logger.Debug("saving configuration", logger.String("path", m.configPath))

	dir := filepath.Dir(m.configPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error("failed to create config directory", err, logger.String("dir", dir))
			return types.NewAppError(types.ErrConfig, "failed to create config directory", err)
		}
	}

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		logger.Error("failed to marshal config", err)
		return types.NewAppError(types.ErrConfig, "failed to marshal config", err)
	}

	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		logger.Error("failed to write config file", err, logger.String("path", m.configPath))
		return types.NewAppError(types.ErrConfig, "failed to write config file", err)
	}

	logger.Info("configuration saved", logger.String("path", m.configPath))
	return nil
}

// GetConfig returns the current configuration.
func (m *ConfigManager) GetConfig() *types.Config {
	if m.config == nil {
		return DefaultConfig()
	}
	return m.config
}

// SetConfig sets the entire configuration.
func (m *ConfigManager) SetConfig(config *types.Config) {
	m.config = config
	m.applyDefaults()
}

// GetConfigPath returns the path to the config file.
func (m *ConfigManager) GetConfigPath() string {
	return m.configPath
}

// GetAPIKey returns the API key, falling back to the environment.
func (m *ConfigManager) GetAPIKey() string {
	if m.config != nil && m.config.APIKey != "" {
		return m.config.APIKey
	}
	return apiKeyFromEnv()
}

// SetAPIKey sets the API key and saves the configuration.
func (m *ConfigManager) SetAPIKey(key string) error {
	logger.Info("setting API key")
	if m.config == nil {
		m.config = DefaultConfig()
	}
	m.config.APIKey = key
	return m.Save()
}

// apiKeyFromEnv checks OPENAI_API_KEY first, then DEEPSEEK_API_KEY.
func apiKeyFromEnv() string {
	if key := os.Getenv(EnvOpenAIAPIKey); key != "" {
		return key
	}
	return os.Getenv(EnvDeepSeekAPIKey)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
