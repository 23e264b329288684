// Package pdf provides PDF translation functionality including text extraction,
// structural element modeling, translation caching, and document reassembly.
package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"pdf-translator/internal/chunker"
	"pdf-translator/internal/logger"
	"pdf-translator/internal/markdown"
	"pdf-translator/internal/render"
	"pdf-translator/internal/textio"
	"pdf-translator/internal/types"
)

// ChunkTranslator 按顺序翻译文本块序列
// progress 在每个块完成后被调用
type ChunkTranslator interface {
	TranslateChunks(ctx context.Context, chunks []chunker.Chunk, progress types.ProgressCallback) ([]string, error)
}

// PDFTranslator 是单篇文档翻译流程的主控制器
// 流程: 提取 -> 缓存查询 -> 分块 -> 翻译 -> 重组 -> 输出
type PDFTranslator struct {
	ctx    context.Context
	cancel context.CancelFunc

	config *types.Config
	engine ChunkTranslator
	cache  *TranslationCache

	currentFile string
	status      types.Status
	mu          sync.RWMutex

	progressCallback types.ProgressCallback
}

// PDFTranslatorConfig holds configuration options for creating a PDFTranslator
type PDFTranslatorConfig struct {
	Config    *types.Config
	Engine    ChunkTranslator
	CachePath string
}

// NewPDFTranslator creates a new PDFTranslator with the given configuration
func NewPDFTranslator(cfg PDFTranslatorConfig) *PDFTranslator {
	ctx, cancel := context.WithCancel(context.Background())

	conf := cfg.Config
	if conf == nil {
		conf = &types.Config{}
	}

	cachePath := cfg.CachePath
	if cachePath == "" && conf.CacheEnabled {
		cacheDir := conf.CacheDir
		if cacheDir == "" {
			cacheDir = ".cache"
		}
		cachePath = filepath.Join(cacheDir, "translations.json")
	}

	cache := NewTranslationCache(cachePath)
	if err := cache.Load(); err != nil {
		logger.Warn("failed to load translation cache", logger.Err(err))
	}

	return &PDFTranslator{
		ctx:    ctx,
		cancel: cancel,
		config: conf,
		engine: cfg.Engine,
		cache:  cache,
		status: types.Status{Phase: types.PhaseIdle},
	}
}

// OutputPaths returns the markdown and HTML output paths for an input file.
// Both live next to the input with a "_translated" suffix.
func OutputPaths(inputPath string) (mdPath, htmlPath string) {
	dir := filepath.Dir(inputPath)
	base := filepath.Base(inputPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	mdPath = filepath.Join(dir, name+"_translated.md")
	htmlPath = filepath.Join(dir, name+"_translated.html")
	return mdPath, htmlPath
}

// imageDirFor returns the directory extracted images are written to for an
// input file.
func imageDirFor(inputPath string) string {
	dir := filepath.Dir(inputPath)
	base := filepath.Base(inputPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, name+"_images")
}

// imageDir places extracted images under the configured work directory when
// one is set, otherwise next to the input.
func (p *PDFTranslator) imageDir(inputPath string) string {
	if p.config.WorkDirectory == "" {
		return imageDirFor(inputPath)
	}
	base := filepath.Base(inputPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(p.config.WorkDirectory, name+"_images")
}

// isTextInput reports whether the input is a plain text document rather than
// a PDF.
func isTextInput(inputPath string) bool {
	switch strings.ToLower(filepath.Ext(inputPath)) {
	case ".txt", ".md":
		return true
	}
	return false
}

// TranslateDocument 翻译单篇文档并写出结果文件
func (p *PDFTranslator) TranslateDocument(inputPath string) (*types.ProcessResult, error) {
	start := time.Now()

	// Capture the context once: Cancel/Reset swap p.ctx under the mutex and
	// this document must keep observing the context it started with.
	p.mu.Lock()
	p.currentFile = inputPath
	ctx := p.ctx
	p.mu.Unlock()

	logger.Info("starting document translation", logger.String("path", inputPath))

	result := &types.ProcessResult{InputPath: inputPath}
	mdPath, htmlPath := OutputPaths(inputPath)

	// Extract
	p.setStatus(types.PhaseExtracting, 0, "正在提取文本...")

	mode := p.config.PipelineMode
	if mode == "" {
		mode = types.ModeElements
	}

	var elements []Element
	var flatText string
	var err error

	switch {
	case isTextInput(inputPath):
		// Plain text inputs have no layout to recover, so they always go
		// through the flat pipeline.
		mode = types.ModeFlat
		var raw string
		raw, err = textio.ReadFile(inputPath)
		if err != nil {
			err = types.NewAppError(types.ErrExtraction, "读取文本文件失败", err)
		} else {
			flatText = CleanExtractedText(raw)
			if flatText == "" {
				err = types.NewAppError(types.ErrExtraction, "文本文件为空", nil)
			}
		}
	case mode == types.ModeFlat:
		extractor := NewExtractor(p.config.HeadingFontSize, "")
		flatText, err = extractor.ExtractFlatText(inputPath)
	default:
		extractor := NewExtractor(p.config.HeadingFontSize, p.imageDir(inputPath))
		elements, err = extractor.ExtractElements(inputPath)
		if err == nil {
			flatText = JoinTextContent(elements)
		}
	}
	if err != nil {
		p.failStatus(err)
		return nil, err
	}

	if err := checkCancelled(ctx); err != nil {
		p.failStatus(err)
		return nil, err
	}

	// Cache lookup
	key := p.cacheKey(inputPath, flatText)
	translated, hit := p.cache.Get(key)
	if hit {
		result.CacheHit = true
		logger.Info("translation cache hit", logger.String("path", inputPath))
	} else {
		// Chunk
		p.setStatus(types.PhaseChunking, 10, "正在分块...")
		chunks := chunker.New(p.config.ChunkSize, p.config.ContextLen).Chunk(flatText)
		result.Chunks = len(chunks)
		p.reportOversizedChunks(chunks)

		// Translate
		if p.engine == nil {
			err := types.NewAppError(types.ErrTranslation, "翻译器未配置，请检查 API 设置", nil)
			p.failStatus(err)
			return nil, err
		}
		p.setStatus(types.PhaseTranslating, 15, fmt.Sprintf("正在翻译... (0/%d)", len(chunks)))

		parts, err := p.engine.TranslateChunks(ctx, chunks, func(current, total int, message string) {
			progress := 15
			if total > 0 {
				progress = 15 + current*75/total
			}
			if progress > 90 {
				progress = 90
			}
			p.setStatus(types.PhaseTranslating, progress, message)
			p.forwardProgress(current, total, message)
		})
		if err != nil {
			p.failStatus(err)
			return nil, err
		}

		translated = strings.Join(parts, "\n\n")
		p.cache.Set(key, translated)
		if err := p.cache.Save(); err != nil {
			logger.Warn("failed to save translation cache", logger.Err(err))
		}
	}

	if err := checkCancelled(ctx); err != nil {
		p.failStatus(err)
		return nil, err
	}

	// Render and write outputs
	p.setStatus(types.PhaseRendering, 90, "正在生成输出...")

	var md string
	if mode == types.ModeFlat {
		blocks := markdown.NewParser(markdown.DefaultParserConfig()).Parse(translated)
		md = render.BlocksToMarkdown(blocks)
	} else {
		translations, stats := ReassembleTranslations(elements, translated)
		if stats.Fallback > 0 || stats.Discarded > 0 {
			logger.Warn("translation did not align with all elements",
				logger.Int("applied", stats.Applied),
				logger.Int("fallback", stats.Fallback),
				logger.Int("discarded", stats.Discarded))
		}
		md = ElementsToMarkdown(elements, translations, filepath.Dir(mdPath))
	}

	if err := writeFileAtomic(mdPath, []byte(md)); err != nil {
		err = types.NewAppError(types.ErrIO, "写入 Markdown 输出失败", err)
		p.failStatus(err)
		return nil, err
	}
	result.OutputPath = mdPath

	if p.config.OutputFormat == types.OutputBoth {
		title := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
		html, err := render.HTMLPage(md, title)
		if err != nil {
			err = types.NewAppError(types.ErrRender, "生成 HTML 输出失败", err)
			p.failStatus(err)
			return nil, err
		}
		if err := writeFileAtomic(htmlPath, []byte(html)); err != nil {
			err = types.NewAppError(types.ErrIO, "写入 HTML 输出失败", err)
			p.failStatus(err)
			return nil, err
		}
		result.HTMLPath = htmlPath
	}

	p.setStatus(types.PhaseComplete, 100, "翻译完成")

	result.Success = true
	result.Duration = time.Since(start)

	logger.Info("document translation completed",
		logger.String("output", mdPath),
		logger.Bool("cacheHit", result.CacheHit),
		logger.Int("chunks", result.Chunks),
		logger.Duration("took", result.Duration))

	return result, nil
}

// reportOversizedChunks logs a chunking error for every chunk whose body
// exceeds the configured size. A sentence with no split point is emitted whole
// by the chunker, so the condition is reported but never fatal: the oversized
// chunk is submitted to translation as-is.
func (p *PDFTranslator) reportOversizedChunks(chunks []chunker.Chunk) {
	maxSize := p.config.ChunkSize
	if maxSize <= 0 {
		maxSize = chunker.DefaultMaxSize
	}
	for _, i := range oversizedChunks(chunks, maxSize) {
		chunkErr := types.NewAppErrorWithDetails(types.ErrChunking,
			"文本块超过大小限制，将整块提交翻译",
			fmt.Sprintf("chunk %d/%d: %d > %d chars", i+1, len(chunks), len(chunks[i].Body), maxSize),
			nil)
		logger.Warn("chunk exceeds configured size",
			logger.Err(chunkErr),
			logger.Int("chunk", i+1),
			logger.Int("bodyLength", len(chunks[i].Body)),
			logger.Int("maxSize", maxSize))
	}
}

// oversizedChunks returns the indices of chunks whose body exceeds maxSize.
func oversizedChunks(chunks []chunker.Chunk, maxSize int) []int {
	var indices []int
	for i, c := range chunks {
		if len(c.Body) > maxSize {
			indices = append(indices, i)
		}
	}
	return indices
}

// cacheKey derives the document cache key per the configured key mode. A file
// key that cannot be computed falls back to the content key.
func (p *PDFTranslator) cacheKey(inputPath, flatText string) string {
	if p.config.CacheKeyMode == types.CacheKeyFile {
		key, err := FileKey(inputPath)
		if err == nil {
			return key
		}
		logger.Warn("failed to compute file cache key, falling back to content key",
			logger.Err(err))
	}
	return ContentKey(flatText)
}

// checkCancelled reports a translation error when the context is done.
func checkCancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return types.NewAppError(types.ErrTranslation, "操作已取消", ctx.Err())
	default:
		return nil
	}
}

// context returns the context governing the current document.
func (p *PDFTranslator) context() context.Context {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ctx
}

// setStatus updates the tracked status. Progress is clamped to 0-100.
func (p *PDFTranslator) setStatus(phase types.ProcessPhase, progress int, message string) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Phase = phase
	p.status.Progress = progress
	p.status.Message = message
	if phase != types.PhaseError {
		p.status.Error = ""
	}
}

// failStatus records an error in the status.
func (p *PDFTranslator) failStatus(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Phase = types.PhaseError
	p.status.Message = err.Error()
	p.status.Error = err.Error()
}

// GetStatus 获取当前处理状态
func (p *PDFTranslator) GetStatus() types.Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// GetCurrentFile returns the document currently being translated.
func (p *PDFTranslator) GetCurrentFile() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currentFile
}

// SetProgressCallback sets a callback invoked after every translated chunk.
func (p *PDFTranslator) SetProgressCallback(callback types.ProgressCallback) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.progressCallback = callback
}

// forwardProgress invokes the external progress callback if one is set.
func (p *PDFTranslator) forwardProgress(current, total int, message string) {
	p.mu.RLock()
	callback := p.progressCallback
	p.mu.RUnlock()
	if callback != nil {
		callback(current, total, message)
	}
}

// Cancel 取消当前翻译
// 已完成文档的缓存会先落盘
func (p *PDFTranslator) Cancel() {
	logger.Info("cancelling translation")

	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	cancel()

	if err := p.cache.Save(); err != nil {
		logger.Warn("failed to save cache on cancel", logger.Err(err))
	}

	p.setStatus(types.PhaseIdle, 0, "翻译已取消，进度已保存")

	p.mu.Lock()
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.mu.Unlock()
}

// Reset resets the translator to its initial state.
func (p *PDFTranslator) Reset() {
	p.mu.Lock()
	p.cancel()
	p.currentFile = ""
	p.status = types.Status{Phase: types.PhaseIdle}
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.mu.Unlock()
}

// Close cleans up resources used by the translator.
func (p *PDFTranslator) Close() error {
	logger.Info("closing PDF translator")

	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	cancel()

	if err := p.cache.Save(); err != nil {
		logger.Warn("failed to save cache on close", logger.Err(err))
		return err
	}
	return nil
}

// Cache exposes the translation cache, mainly for inspection in tests and
// cache statistics in the CLI.
func (p *PDFTranslator) Cache() *TranslationCache {
	return p.cache
}

// writeFileAtomic writes data to path through a temporary file and rename, so
// readers never observe a partially written output.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
