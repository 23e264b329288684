// Package batch drives the document translation pipeline over whole
// directories of papers, one document at a time.
package batch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/pdf"
	"pdf-translator/internal/types"
)

// translatableExtensions are the input types the directory scanner accepts.
var translatableExtensions = map[string]bool{
	".pdf": true,
	".txt": true,
	".md":  true,
}

// DocumentTranslator is the single-document pipeline surface the batch
// driver depends on.
type DocumentTranslator interface {
	TranslateDocument(inputPath string) (*types.ProcessResult, error)
}

// Options 批处理选项
type Options struct {
	// Recursive descends into subdirectories while scanning.
	Recursive bool
	// SkipExisting skips inputs whose Markdown output is already on disk.
	SkipExisting bool
	// Out receives console progress lines. Defaults to os.Stdout.
	Out io.Writer
}

// Processor 按顺序翻译一个目录下的全部文档
type Processor struct {
	pipeline DocumentTranslator
	opts     Options
	out      io.Writer
}

// NewProcessor creates a batch processor around the given pipeline.
func NewProcessor(pipeline DocumentTranslator, opts Options) *Processor {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Processor{pipeline: pipeline, opts: opts, out: out}
}

// ScanDirectory collects the translatable documents under dir in sorted
// order. Files that are themselves translation outputs are filtered out.
func ScanDirectory(dir string, recursive bool) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrIO, "目录不存在，请检查路径", dir, err)
	}
	if !info.IsDir() {
		return nil, types.NewAppErrorWithDetails(types.ErrIO, "输入路径不是目录", dir, nil)
	}

	var inputs []string
	if recursive {
		walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isTranslatable(path) {
				inputs = append(inputs, path)
			}
			return nil
		})
		if walkErr != nil {
			return nil, types.NewAppError(types.ErrIO, "扫描目录失败", walkErr)
		}
	} else {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, types.NewAppError(types.ErrIO, "扫描目录失败", err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if isTranslatable(path) {
				inputs = append(inputs, path)
			}
		}
	}

	sort.Strings(inputs)
	return inputs, nil
}

// isTranslatable reports whether path is an input document rather than a
// previous translation output or an unrelated file.
func isTranslatable(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if !translatableExtensions[ext] {
		return false
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return !strings.HasSuffix(stem, "_translated")
}

// hasExistingOutput reports whether the Markdown output for input is already
// on disk.
func hasExistingOutput(input string) bool {
	mdPath, _ := pdf.OutputPaths(input)
	_, err := os.Stat(mdPath)
	return err == nil
}

// Run translates every document under dir sequentially and returns the batch
// summary. ctx is consulted between documents only: an interrupt lets the
// in-flight document finish and stops before the next one, so no partially
// written output is ever left behind. Per-document failures are recorded and
// the batch continues.
func (p *Processor) Run(ctx context.Context, dir string) (*types.BatchSummary, error) {
	inputs, err := ScanDirectory(dir, p.opts.Recursive)
	if err != nil {
		return nil, err
	}

	summary := &types.BatchSummary{Total: len(inputs)}
	start := time.Now()

	fmt.Fprintf(p.out, "Found %d documents in %s\n", len(inputs), dir)
	logger.Info("batch started", logger.String("dir", dir), logger.Int("documents", len(inputs)))

	for i, input := range inputs {
		if ctx.Err() != nil {
			fmt.Fprintf(p.out, "\nInterrupted after %d/%d documents\n", i, len(inputs))
			logger.Warn("batch interrupted",
				logger.Int("processed", i),
				logger.Int("total", len(inputs)))
			break
		}

		fmt.Fprintf(p.out, "\n[%d/%d] Processing %s...\n", i+1, len(inputs), filepath.Base(input))

		if p.opts.SkipExisting && hasExistingOutput(input) {
			mdPath, _ := pdf.OutputPaths(input)
			fmt.Fprintf(p.out, "  - Skipped (output exists: %s)\n", filepath.Base(mdPath))
			logger.Info("document skipped", logger.String("path", input))
			summary.Skipped++
			summary.Results = append(summary.Results, types.ProcessResult{
				InputPath:  input,
				OutputPath: mdPath,
				Skipped:    true,
			})
			continue
		}

		result, err := p.pipeline.TranslateDocument(input)
		if err != nil {
			fmt.Fprintf(p.out, "  ✗ Failed: %v\n", err)
			summary.Failed++
			if result == nil {
				result = &types.ProcessResult{InputPath: input}
			}
			if result.ErrMessage == "" {
				result.ErrMessage = err.Error()
			}
			summary.Results = append(summary.Results, *result)
			continue
		}

		if result.CacheHit {
			fmt.Fprintf(p.out, "  ✓ Success (cache hit): %s\n", filepath.Base(result.OutputPath))
		} else {
			fmt.Fprintf(p.out, "  ✓ Success: %s\n", filepath.Base(result.OutputPath))
		}
		summary.Succeeded++
		summary.Results = append(summary.Results, *result)
	}

	summary.Duration = time.Since(start)
	p.printSummary(summary)

	logger.Info("batch finished",
		logger.Int("succeeded", summary.Succeeded),
		logger.Int("failed", summary.Failed),
		logger.Int("skipped", summary.Skipped),
		logger.Duration("took", summary.Duration))

	return summary, nil
}

// printSummary writes the final report, repeating the cause of every failure.
func (p *Processor) printSummary(s *types.BatchSummary) {
	fmt.Fprintf(p.out, "\n=== Batch Complete ===\n")
	fmt.Fprintf(p.out, "Success: %d, Failed: %d, Skipped: %d (of %d, took %s)\n",
		s.Succeeded, s.Failed, s.Skipped, s.Total, s.Duration.Round(time.Second))
	for _, r := range s.Results {
		if !r.Success && !r.Skipped {
			fmt.Fprintf(p.out, "  ✗ %s: %s\n", filepath.Base(r.InputPath), r.ErrMessage)
		}
	}
}
