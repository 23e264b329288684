// Package translator provides functionality for translating document text
// chunks into Chinese using an OpenAI-compatible chat model.
package translator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"pdf-translator/internal/chunker"
	"pdf-translator/internal/logger"
	"pdf-translator/internal/types"
)

const (
	// DefaultModel is the chat model used when the configuration names none.
	DefaultModel = "gpt-4o-mini"
	// DefaultTimeout is the per-request timeout for API calls.
	DefaultTimeout = 120 * time.Second
	// DefaultMaxRetries is the maximum number of attempts for a failed API call.
	DefaultMaxRetries = 3
	// DefaultRetryDelay is the base delay of the linear retry backoff.
	DefaultRetryDelay = 2 * time.Second
	// DefaultRequestGap is the pause between successive API calls.
	DefaultRequestGap = 500 * time.Millisecond
)

// ChatModel is the part of the eino chat model surface the engine depends on.
// The production implementation is eino's OpenAI chat model.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// errEmptyCompletion marks an API response that carried no usable content.
// It is transient and counts as a retryable failure.
var errEmptyCompletion = errors.New("API returned an empty completion")

// TranslationEngine 顺序翻译文本块的引擎
// Requests are strictly sequential with a fixed pause between successive API
// calls, and each failed call is retried with linear backoff.
type TranslationEngine struct {
	chatModel  ChatModel
	modelName  string
	sourceLang string
	targetLang string
	maxRetries int
	retryDelay time.Duration
	requestGap time.Duration
}

// NewTranslationEngine creates an engine backed by the OpenAI-compatible chat
// model named in the configuration.
func NewTranslationEngine(ctx context.Context, cfg *types.Config) (*TranslationEngine, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, types.NewAppError(types.ErrConfig, "OpenAI API key is not configured", nil)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultModel
	}

	chatModelConfig := &openai.ChatModelConfig{
		Model:   modelName,
		APIKey:  cfg.APIKey,
		Timeout: DefaultTimeout,
	}
	if cfg.BaseURL != "" {
		chatModelConfig.BaseURL = cfg.BaseURL
	}
	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		chatModelConfig.MaxTokens = &maxTokens
	}
	if cfg.Temperature > 0 {
		temperature := float32(cfg.Temperature)
		chatModelConfig.Temperature = &temperature
	}

	chatModel, err := openai.NewChatModel(ctx, chatModelConfig)
	if err != nil {
		return nil, types.NewAppError(types.ErrConfig, "failed to create chat model", err)
	}

	logger.Info("translation engine initialized",
		logger.String("model", modelName),
		logger.String("baseURL", cfg.BaseURL))

	engine := NewTranslationEngineWithChatModel(chatModel, cfg)
	engine.modelName = modelName
	return engine, nil
}

// NewTranslationEngineWithChatModel wraps an existing chat model. It is the
// seam used to inject fake models in tests.
func NewTranslationEngineWithChatModel(chatModel ChatModel, cfg *types.Config) *TranslationEngine {
	if cfg == nil {
		cfg = &types.Config{}
	}
	e := &TranslationEngine{
		chatModel:  chatModel,
		modelName:  cfg.Model,
		sourceLang: cfg.SourceLang,
		targetLang: cfg.TargetLang,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay(),
		requestGap: cfg.RequestGap(),
	}
	if e.sourceLang == "" {
		e.sourceLang = "English"
	}
	if e.targetLang == "" {
		e.targetLang = "Chinese"
	}
	if e.maxRetries <= 0 {
		e.maxRetries = DefaultMaxRetries
	}
	if e.retryDelay <= 0 {
		e.retryDelay = DefaultRetryDelay
	}
	if e.requestGap <= 0 {
		e.requestGap = DefaultRequestGap
	}
	return e
}

// GetModel returns the chat model name used by the engine.
func (e *TranslationEngine) GetModel() string {
	return e.modelName
}

// TestConnection sends a minimal request to verify that the API key, base URL
// and model are usable.
func (e *TranslationEngine) TestConnection(ctx context.Context) error {
	if e.chatModel == nil {
		return types.NewAppError(types.ErrConfig, "chat model is not configured", nil)
	}
	_, err := e.chatModel.Generate(ctx, []*schema.Message{
		schema.UserMessage("Reply with the single word: pong"),
	})
	if err != nil {
		return types.NewAppError(types.ErrConfig, "API connection test failed", err)
	}
	return nil
}

// TranslateText translates one chunk body. The leading context, when present,
// is shown to the model for terminology continuity but is never translated.
// Transient API failures are retried with linear backoff; after the retry
// budget is exhausted the last error is returned.
func (e *TranslationEngine) TranslateText(ctx context.Context, body, leadingContext string) (string, error) {
	if e.chatModel == nil {
		return "", types.NewAppError(types.ErrConfig, "chat model is not configured", nil)
	}
	if strings.TrimSpace(body) == "" {
		return body, nil
	}

	messages := []*schema.Message{
		schema.SystemMessage(e.systemPrompt()),
		schema.UserMessage(userPrompt(body, leadingContext)),
	}

	var lastErr error
	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		logger.Debug("translation attempt", logger.Int("attempt", attempt))
		translated, err := e.generate(ctx, messages)
		if err == nil {
			return translated, nil
		}
		if ctx.Err() != nil {
			return "", types.NewAppError(types.ErrTranslation, "操作已取消", ctx.Err())
		}

		lastErr = err
		logger.Warn("translation attempt failed", logger.Int("attempt", attempt), logger.Err(err))

		if !isRetryableError(err) {
			logger.Error("non-retryable translation error", err)
			return "", types.NewAppErrorWithDetails(types.ErrTranslation, "translation request failed", err.Error(), err)
		}

		// Don't sleep after the last attempt
		if attempt < e.maxRetries {
			delay := e.retryDelay * time.Duration(attempt)
			logger.Debug("retrying after delay", logger.String("delay", delay.String()))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", types.NewAppError(types.ErrTranslation, "操作已取消", ctx.Err())
			}
		}
	}

	logger.Error("translation failed after all retries", lastErr, logger.Int("maxRetries", e.maxRetries))
	return "", types.NewAppErrorWithDetails(
		types.ErrTranslation,
		"translation failed after multiple retries",
		fmt.Sprintf("attempted %d times", e.maxRetries),
		lastErr,
	)
}

// generate performs a single chat completion call and trims the result.
func (e *TranslationEngine) generate(ctx context.Context, messages []*schema.Message) (string, error) {
	response, err := e.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	if response == nil {
		return "", errEmptyCompletion
	}
	translated := strings.TrimSpace(response.Content)
	if translated == "" {
		return "", errEmptyCompletion
	}
	return translated, nil
}

// TranslateChunks translates chunks strictly in order and returns one
// translated string per chunk. A fixed pause separates successive API calls
// so provider rate limits are respected; no pause follows the final call.
// progress is invoked after each finished chunk. A chunk whose body is empty
// passes through untranslated. The first failed chunk aborts the document.
func (e *TranslationEngine) TranslateChunks(ctx context.Context, chunks []chunker.Chunk, progress types.ProgressCallback) ([]string, error) {
	results := make([]string, len(chunks))
	needPause := false

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, types.NewAppError(types.ErrTranslation, "操作已取消", err)
		}

		if strings.TrimSpace(chunk.Body) == "" {
			results[i] = chunk.Body
			reportChunkDone(progress, i+1, len(chunks))
			continue
		}

		if needPause {
			select {
			case <-time.After(e.requestGap):
			case <-ctx.Done():
				return nil, types.NewAppError(types.ErrTranslation, "操作已取消", ctx.Err())
			}
		}

		translated, err := e.TranslateText(ctx, chunk.Body, chunk.LeadingContext)
		needPause = true
		if err != nil {
			logger.Error("chunk translation failed", err,
				logger.Int("chunk", i+1),
				logger.Int("total", len(chunks)))
			return nil, err
		}

		results[i] = translated
		reportChunkDone(progress, i+1, len(chunks))
		logger.Debug("chunk translated",
			logger.Int("chunk", i+1),
			logger.Int("total", len(chunks)),
			logger.Int("bodyLength", len(chunk.Body)))
	}

	return results, nil
}

func reportChunkDone(progress types.ProgressCallback, current, total int) {
	if progress != nil {
		progress(current, total, fmt.Sprintf("正在翻译... (%d/%d)", current, total))
	}
}

// systemPrompt returns the instruction prompt shared by every translation call.
func (e *TranslationEngine) systemPrompt() string {
	return fmt.Sprintf(`You are a professional academic translator. Translate the %s text provided by the user into %s.

Rules:
1. Preserve ALL mathematical formulas exactly as written, including $...$ and $$...$$ notation.
2. Keep citation markers such as [1], [2,3] and (Author, 2020) unchanged.
3. Keep the paragraph structure: blank lines between paragraphs must match the source.
4. Keep figure and table references such as "Figure 3" or "Table 2" numbered as in the source; translate only the surrounding words.
5. Use precise academic terminology in %s.
6. Output ONLY the translation, with no explanations or notes.`, e.sourceLang, e.targetLang, e.targetLang)
}

// userPrompt wraps the chunk body, prefixing the leading context as reference
// material when present.
func userPrompt(body, leadingContext string) string {
	if leadingContext == "" {
		return body
	}
	return fmt.Sprintf(`Context from the preceding passage (reference only, do NOT translate):
%s

Translate the following text:
%s`, leadingContext, body)
}

// isRetryableError determines if a chat completion failure should trigger a
// retry. Rate limits, timeouts, connection failures and server-side errors
// are transient; authentication and malformed-request errors are not.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errEmptyCompletion) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "status code: 429"), strings.Contains(msg, "rate limit"):
		return true
	case strings.Contains(msg, "status code: 5"):
		// Retry on server errors, but not on client errors
		return true
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return true
	case strings.Contains(msg, "connection reset"), strings.Contains(msg, "connection refused"), strings.Contains(msg, "unexpected eof"):
		return true
	default:
		return false
	}
}
