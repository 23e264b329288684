package pdf

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"pdf-translator/internal/types"
)

// cacheFileVersion 缓存文件格式版本
const cacheFileVersion = "1.0"

// CacheEntry 单个文档的翻译缓存条目
type CacheEntry struct {
	Translated string    `json:"translated"` // 译文全文
	CreatedAt  time.Time `json:"created_at"` // 创建时间
}

// CacheFile 缓存文件的磁盘格式
type CacheFile struct {
	Version string                `json:"version"`
	Entries map[string]CacheEntry `json:"entries"`
}

// TranslationCache 负责缓存整篇文档的翻译结果
type TranslationCache struct {
	cachePath string
	cache     map[string]CacheEntry // key -> CacheEntry
	mu        sync.RWMutex
}

// NewTranslationCache 创建新的翻译缓存实例
// 空路径表示不持久化, Get/Set 仍可在内存中使用
func NewTranslationCache(cachePath string) *TranslationCache {
	return &TranslationCache{
		cachePath: cachePath,
		cache:     make(map[string]CacheEntry),
	}
}

// ContentKey 根据提取出的文档文本计算缓存键（使用 SHA256）
// 文本相同的文档共享同一个键, 与文件位置无关
func ContentKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}

// FileKey 根据文件路径和修改时间计算缓存键
// 文件被编辑或替换后键失效
func FileKey(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", types.NewAppError(types.ErrCache, "failed to stat input file", err)
	}
	seed := path + "|" + strconv.FormatInt(info.ModTime().UnixNano(), 10)
	hash := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(hash[:]), nil
}

// Get 获取缓存的翻译
func (c *TranslationCache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.cache[key]
	if !ok {
		return "", false
	}
	return entry.Translated, true
}

// Set 设置翻译缓存
func (c *TranslationCache) Set(key, translated string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache[key] = CacheEntry{
		Translated: translated,
		CreatedAt:  time.Now(),
	}
}

// Load 从文件加载缓存
func (c *TranslationCache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// If cache path is empty, nothing to load
	if c.cachePath == "" {
		return nil
	}

	// Check if file exists
	if _, err := os.Stat(c.cachePath); os.IsNotExist(err) {
		// File doesn't exist, start with empty cache
		return nil
	}

	// Read the file
	data, err := os.ReadFile(c.cachePath)
	if err != nil {
		return types.NewAppError(types.ErrCache, "failed to read cache file", err)
	}

	// Parse the cache file
	var cacheFile CacheFile
	if err := json.Unmarshal(data, &cacheFile); err != nil {
		return types.NewAppError(types.ErrCache, "failed to parse cache file", err)
	}

	if cacheFile.Entries != nil {
		c.cache = cacheFile.Entries
	}

	return nil
}

// Save 保存缓存到文件
func (c *TranslationCache) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// If cache path is empty, nothing to save
	if c.cachePath == "" {
		return nil
	}

	// Create cache file structure
	cacheFile := CacheFile{
		Version: cacheFileVersion,
		Entries: c.cache,
	}

	// Marshal to JSON
	data, err := json.MarshalIndent(cacheFile, "", "  ")
	if err != nil {
		return types.NewAppError(types.ErrCache, "failed to marshal cache", err)
	}

	// Make sure the parent directory exists
	if dir := filepath.Dir(c.cachePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return types.NewAppError(types.ErrCache, "failed to create cache directory", err)
		}
	}

	// Write to file
	if err := os.WriteFile(c.cachePath, data, 0644); err != nil {
		return types.NewAppError(types.ErrCache, "failed to write cache file", err)
	}

	return nil
}

// Size 返回缓存中的条目数量
func (c *TranslationCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Clear 清空缓存
func (c *TranslationCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]CacheEntry)
}

// GetCachePath 返回缓存文件路径
func (c *TranslationCache) GetCachePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cachePath
}

// SetCachePath 设置缓存文件路径
func (c *TranslationCache) SetCachePath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cachePath = path
}
