package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"pdf-translator/internal/types"
)

// clearAPIEnv blanks the environment variables DefaultConfig reads so tests
// see deterministic defaults regardless of the host environment.
func clearAPIEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvOpenAIAPIKey, EnvDeepSeekAPIKey, EnvOpenAIBaseURL, EnvOpenAIModel} {
		original := os.Getenv(key)
		os.Unsetenv(key)
		t.Cleanup(func() { os.Setenv(key, original) })
	}
}

func TestNewConfigManager(t *testing.T) {
	clearAPIEnv(t)

	t.Run("with custom path", func(t *testing.T) {
		customPath := "/tmp/test-config.json"
		cm, err := NewConfigManager(customPath)
		if err != nil {
			t.Fatalf("NewConfigManager failed: %v", err)
		}
		if cm.GetConfigPath() != customPath {
			t.Errorf("expected config path %s, got %s", customPath, cm.GetConfigPath())
		}
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		cm, err := NewConfigManager("")
		if err != nil {
			t.Fatalf("NewConfigManager failed: %v", err)
		}
		if cm.GetConfigPath() == "" {
			t.Error("expected non-empty config path")
		}
	})
}

func TestConfigManager_LoadSave(t *testing.T) {
	clearAPIEnv(t)

	tmpDir, err := os.MkdirTemp("", "config-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "test-config.json")

	t.Run("Load with non-existent file uses defaults", func(t *testing.T) {
		cm, err := NewConfigManager(configPath)
		if err != nil {
			t.Fatalf("NewConfigManager failed: %v", err)
		}

		if err := cm.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		config := cm.GetConfig()
		if config.Model != DefaultModel {
			t.Errorf("expected default model %s, got %s", DefaultModel, config.Model)
		}
		if config.ChunkSize != DefaultChunkSize {
			t.Errorf("expected default chunk size %d, got %d", DefaultChunkSize, config.ChunkSize)
		}
		if config.MaxRetries != DefaultMaxRetries {
			t.Errorf("expected default retries %d, got %d", DefaultMaxRetries, config.MaxRetries)
		}
		if config.PipelineMode != types.ModeElements {
			t.Errorf("expected elements mode, got %s", config.PipelineMode)
		}
	})

	t.Run("Save creates config file", func(t *testing.T) {
		cm, err := NewConfigManager(configPath)
		if err != nil {
			t.Fatalf("NewConfigManager failed: %v", err)
		}

		cm.SetConfig(&types.Config{
			APIKey:     "test-api-key",
			Model:      "deepseek-chat",
			TargetLang: "Japanese",
			ChunkSize:  1000,
		})

		if err := cm.Save(); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			t.Error("config file was not created")
		}
	})

	t.Run("Load reads saved config", func(t *testing.T) {
		cm, err := NewConfigManager(configPath)
		if err != nil {
			t.Fatalf("NewConfigManager failed: %v", err)
		}

		if err := cm.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		config := cm.GetConfig()
		if config.APIKey != "test-api-key" {
			t.Errorf("expected API key 'test-api-key', got '%s'", config.APIKey)
		}
		if config.Model != "deepseek-chat" {
			t.Errorf("expected model 'deepseek-chat', got '%s'", config.Model)
		}
		if config.TargetLang != "Japanese" {
			t.Errorf("expected target language 'Japanese', got '%s'", config.TargetLang)
		}
		if config.ChunkSize != 1000 {
			t.Errorf("expected chunk size 1000, got %d", config.ChunkSize)
		}
		// Unset fields are backfilled on load.
		if config.ContextLen != DefaultContextLen {
			t.Errorf("expected backfilled context length %d, got %d", DefaultContextLen, config.ContextLen)
		}
		if config.BaseURL != DefaultBaseURL {
			t.Errorf("expected backfilled base URL %s, got %s", DefaultBaseURL, config.BaseURL)
		}
	})

	t.Run("Load with invalid JSON uses defaults", func(t *testing.T) {
		invalidConfigPath := filepath.Join(tmpDir, "invalid-config.json")
		if err := os.WriteFile(invalidConfigPath, []byte("invalid json"), 0644); err != nil {
			t.Fatalf("failed to write invalid config: %v", err)
		}

		cm, err := NewConfigManager(invalidConfigPath)
		if err != nil {
			t.Fatalf("NewConfigManager failed: %v", err)
		}

		if err := cm.Load(); err != nil {
			t.Fatalf("Load should not fail with invalid JSON: %v", err)
		}

		config := cm.GetConfig()
		if config.Model != DefaultModel {
			t.Errorf("expected default model after invalid JSON, got %s", config.Model)
		}
	})
}

func TestConfigManager_GetAPIKey(t *testing.T) {
	clearAPIEnv(t)

	tmpDir, err := os.MkdirTemp("", "config-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "test-config.json")

	t.Run("returns config file value when set", func(t *testing.T) {
		cm, err := NewConfigManager(configPath)
		if err != nil {
			t.Fatalf("NewConfigManager failed: %v", err)
		}

		cm.SetConfig(&types.Config{APIKey: "config-api-key"})

		if got := cm.GetAPIKey(); got != "config-api-key" {
			t.Errorf("expected 'config-api-key', got '%s'", got)
		}
	})

	t.Run("falls back to OPENAI_API_KEY", func(t *testing.T) {
		os.Setenv(EnvOpenAIAPIKey, "env-api-key")
		defer os.Unsetenv(EnvOpenAIAPIKey)

		cm, err := NewConfigManager(configPath)
		if err != nil {
			t.Fatalf("NewConfigManager failed: %v", err)
		}
		cm.config.APIKey = ""

		if got := cm.GetAPIKey(); got != "env-api-key" {
			t.Errorf("expected 'env-api-key', got '%s'", got)
		}
	})

	t.Run("falls back to DEEPSEEK_API_KEY last", func(t *testing.T) {
		os.Setenv(EnvDeepSeekAPIKey, "deepseek-key")
		defer os.Unsetenv(EnvDeepSeekAPIKey)

		cm, err := NewConfigManager(configPath)
		if err != nil {
			t.Fatalf("NewConfigManager failed: %v", err)
		}
		cm.config.APIKey = ""

		if got := cm.GetAPIKey(); got != "deepseek-key" {
			t.Errorf("expected 'deepseek-key', got '%s'", got)
		}
	})

	t.Run("config file takes precedence over env var", func(t *testing.T) {
		os.Setenv(EnvOpenAIAPIKey, "env-api-key")
		defer os.Unsetenv(EnvOpenAIAPIKey)

		cm, err := NewConfigManager(configPath)
		if err != nil {
			t.Fatalf("NewConfigManager failed: %v", err)
		}

		cm.SetConfig(&types.Config{APIKey: "config-api-key"})

		if got := cm.GetAPIKey(); got != "config-api-key" {
			t.Errorf("expected 'config-api-key' (from config), got '%s'", got)
		}
	})
}

func TestConfigManager_SetAPIKey(t *testing.T) {
	clearAPIEnv(t)

	tmpDir, err := os.MkdirTemp("", "config-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "test-config.json")

	cm, err := NewConfigManager(configPath)
	if err != nil {
		t.Fatalf("NewConfigManager failed: %v", err)
	}

	if err := cm.SetAPIKey("new-api-key"); err != nil {
		t.Fatalf("SetAPIKey failed: %v", err)
	}

	if cm.GetAPIKey() != "new-api-key" {
		t.Errorf("expected 'new-api-key', got '%s'", cm.GetAPIKey())
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}

	var savedConfig types.Config
	if err := json.Unmarshal(data, &savedConfig); err != nil {
		t.Fatalf("failed to parse saved config: %v", err)
	}

	if savedConfig.APIKey != "new-api-key" {
		t.Errorf("expected saved API key 'new-api-key', got '%s'", savedConfig.APIKey)
	}
}

func TestConfigManager_SetConfigBackfills(t *testing.T) {
	clearAPIEnv(t)

	cm, err := NewConfigManager("/tmp/unused-config.json")
	if err != nil {
		t.Fatalf("NewConfigManager failed: %v", err)
	}

	cm.SetConfig(&types.Config{Model: "deepseek-chat"})

	config := cm.GetConfig()
	if config.Model != "deepseek-chat" {
		t.Errorf("expected configured model, got %s", config.Model)
	}
	if config.ChunkSize != DefaultChunkSize {
		t.Errorf("expected backfilled chunk size %d, got %d", DefaultChunkSize, config.ChunkSize)
	}
	if config.HeadingFontSize != DefaultHeadingFontSize {
		t.Errorf("expected backfilled heading threshold %v, got %v", DefaultHeadingFontSize, config.HeadingFontSize)
	}
	if config.CacheKeyMode != types.CacheKeyContent {
		t.Errorf("expected content cache key mode, got %s", config.CacheKeyMode)
	}
}

func TestConfigManager_SaveCreatesDirectory(t *testing.T) {
	clearAPIEnv(t)

	tmpDir, err := os.MkdirTemp("", "config-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "nested", "dir", "config.json")

	cm, err := NewConfigManager(configPath)
	if err != nil {
		t.Fatalf("NewConfigManager failed: %v", err)
	}

	if err := cm.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created in nested directory")
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Run("envOr", func(t *testing.T) {
		os.Setenv("PDF_TRANSLATOR_TEST_STR", "value")
		defer os.Unsetenv("PDF_TRANSLATOR_TEST_STR")

		if got := envOr("PDF_TRANSLATOR_TEST_STR", "fallback"); got != "value" {
			t.Errorf("envOr = %q, want value", got)
		}
		if got := envOr("PDF_TRANSLATOR_TEST_MISSING", "fallback"); got != "fallback" {
			t.Errorf("envOr = %q, want fallback", got)
		}
	})

	t.Run("envInt", func(t *testing.T) {
		os.Setenv("PDF_TRANSLATOR_TEST_INT", "1234")
		defer os.Unsetenv("PDF_TRANSLATOR_TEST_INT")

		if got := envInt("PDF_TRANSLATOR_TEST_INT", 7); got != 1234 {
			t.Errorf("envInt = %d, want 1234", got)
		}

		os.Setenv("PDF_TRANSLATOR_TEST_INT", "not-a-number")
		if got := envInt("PDF_TRANSLATOR_TEST_INT", 7); got != 7 {
			t.Errorf("envInt with bad value = %d, want fallback 7", got)
		}
	})

	t.Run("envBool", func(t *testing.T) {
		os.Setenv("PDF_TRANSLATOR_TEST_BOOL", "false")
		defer os.Unsetenv("PDF_TRANSLATOR_TEST_BOOL")

		if got := envBool("PDF_TRANSLATOR_TEST_BOOL", true); got {
			t.Error("envBool = true, want false")
		}
		if got := envBool("PDF_TRANSLATOR_TEST_MISSING", true); !got {
			t.Error("envBool = false, want fallback true")
		}
	})
}
