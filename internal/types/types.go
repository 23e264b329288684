// Package types defines core data types and enums shared across the PDF
// translator pipeline.
package types

import "time"

// PipelineMode 处理管线模式
type PipelineMode string

const (
	// ModeElements extracts position-tagged structural elements from the PDF
	// and reassembles translations per element.
	ModeElements PipelineMode = "elements"
	// ModeFlat extracts one flat text string and re-derives the document
	// structure from the translated text.
	ModeFlat PipelineMode = "flat"
)

// OutputFormat 输出格式
type OutputFormat string

const (
	OutputMarkdown OutputFormat = "markdown"
	// OutputBoth writes the Markdown document plus an HTML rendering.
	OutputBoth OutputFormat = "both"
)

// CacheKeyMode selects how translation cache keys are derived.
type CacheKeyMode string

const (
	// CacheKeyContent keys the cache by a digest of the extracted text.
	CacheKeyContent CacheKeyMode = "content"
	// CacheKeyFile keys the cache by file path and modification time.
	CacheKeyFile CacheKeyMode = "file"
)

// Config 应用配置
type Config struct {
	APIKey      string  `json:"api_key"`
	BaseURL     string  `json:"base_url"` // OpenAI 兼容 API 的 Base URL
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`

	SourceLang string `json:"source_lang"` // 源语言，默认 English
	TargetLang string `json:"target_lang"` // 目标语言，默认 Chinese

	ChunkSize  int `json:"chunk_size"`  // 分块大小（字符数），默认 2500
	ContextLen int `json:"context_len"` // 跨块上下文长度（字符数），默认 200

	MaxRetries      int     `json:"max_retries"`         // 翻译重试次数，默认 3
	RetryDelaySec   float64 `json:"retry_delay_sec"`     // 线性退避基础延迟（秒），默认 2
	RequestInterval float64 `json:"request_interval_sec"` // 相邻请求间隔（秒），默认 0.5

	HeadingFontSize float64 `json:"heading_font_size"` // 标题字号阈值，默认 14

	PipelineMode PipelineMode `json:"pipeline_mode"`
	OutputFormat OutputFormat `json:"output_format"`

	CacheEnabled bool         `json:"cache_enabled"`
	CacheDir     string       `json:"cache_dir"`
	CacheKeyMode CacheKeyMode `json:"cache_key_mode"`

	WorkDirectory string `json:"work_directory"` // 图片等中间产物目录
	LogLevel      string `json:"log_level"`
	LogFile       string `json:"log_file"`
}

// RetryDelay returns the linear backoff base delay as a duration.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySec * float64(time.Second))
}

// RequestGap returns the fixed inter-request sleep as a duration.
func (c *Config) RequestGap() time.Duration {
	return time.Duration(c.RequestInterval * float64(time.Second))
}

// ProcessPhase 处理阶段枚举
type ProcessPhase string

const (
	PhaseIdle        ProcessPhase = "idle"
	PhaseExtracting  ProcessPhase = "extracting"
	PhaseChunking    ProcessPhase = "chunking"
	PhaseTranslating ProcessPhase = "translating"
	PhaseRendering   ProcessPhase = "rendering"
	PhaseComplete    ProcessPhase = "complete"
	PhaseError       ProcessPhase = "error"
)

// Status 处理状态
type Status struct {
	Phase    ProcessPhase `json:"phase"`
	Progress int          `json:"progress"` // 0-100
	Message  string       `json:"message"`
	Error    string       `json:"error,omitempty"`
}

// ProgressCallback receives per-step progress while a document is processed.
type ProgressCallback func(current, total int, message string)

// ProcessResult 单文件处理结果
type ProcessResult struct {
	InputPath  string        `json:"input_path"`
	OutputPath string        `json:"output_path"`
	HTMLPath   string        `json:"html_path,omitempty"`
	Success    bool          `json:"success"`
	Skipped    bool          `json:"skipped"`
	ErrMessage string        `json:"err_message,omitempty"`
	Duration   time.Duration `json:"duration"`
	Chunks     int           `json:"chunks"`
	CacheHit   bool          `json:"cache_hit"`
}

// BatchSummary 批处理汇总
type BatchSummary struct {
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Skipped   int             `json:"skipped"`
	Results   []ProcessResult `json:"results"`
	Duration  time.Duration   `json:"duration"`
}

// ErrorCode 错误代码枚举
type ErrorCode string

const (
	ErrConfig      ErrorCode = "CONFIG_ERROR"
	ErrExtraction  ErrorCode = "EXTRACTION_ERROR"
	ErrChunking    ErrorCode = "CHUNKING_ERROR"
	ErrTranslation ErrorCode = "TRANSLATION_ERROR"
	ErrCache       ErrorCode = "CACHE_ERROR"
	ErrRender      ErrorCode = "RENDER_ERROR"
	ErrIO          ErrorCode = "IO_ERROR"
)

// AppError 应用错误
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface for AppError
func (e *AppError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Unwrap returns the underlying cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new AppError with the given code, message, and optional cause
func NewAppError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAppErrorWithDetails creates a new AppError with details
func NewAppErrorWithDetails(code ErrorCode, message, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// CodeOf extracts the ErrorCode from err when it is (or wraps) an AppError.
func CodeOf(err error) (ErrorCode, bool) {
	for err != nil {
		if ae, ok := err.(*AppError); ok {
			return ae.Code, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return "", false
		}
		err = u.Unwrap()
	}
	return "", false
}
