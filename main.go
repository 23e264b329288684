package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pdf-translator/internal/batch"
	"pdf-translator/internal/config"
	"pdf-translator/internal/logger"
	"pdf-translator/internal/pdf"
	"pdf-translator/internal/results"
	"pdf-translator/internal/translator"
	"pdf-translator/internal/types"
)

// Command line flags
var (
	dirFlag       = flag.String("dir", "", "Directory of documents to translate in batch (.pdf, .txt, .md)")
	fileFlag      = flag.String("file", "", "Single document to translate")
	recursiveFlag = flag.Bool("recursive", false, "Scan subdirectories in batch mode")
	forceFlag     = flag.Bool("force", false, "Retranslate documents whose output already exists")
	htmlFlag      = flag.Bool("html", false, "Also write an HTML rendering next to the Markdown")
	configFlag    = flag.String("config", "", "Path to the configuration file")
)

// printHelp displays the help information for command line usage.
func printHelp() {
	fmt.Println("PDF Translator - 将英文学术论文翻译成中文 Markdown")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  pdf-translator [选项]")
	fmt.Println()
	fmt.Println("选项:")
	fmt.Println("  --dir <PATH>       批量翻译目录下的全部文档 (.pdf/.txt/.md)")
	fmt.Println("  --file <PATH>      翻译单个文档")
	fmt.Println("  --recursive        批量模式下递归扫描子目录")
	fmt.Println("  --force            重新翻译已有输出的文档")
	fmt.Println("  --html             同时生成 HTML 输出")
	fmt.Println("  --config <PATH>    配置文件路径 (默认: pdf-translator-config.json)")
	fmt.Println("  -h, --help         显示帮助信息")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  pdf-translator --file paper.pdf")
	fmt.Println("  pdf-translator --dir ./papers")
	fmt.Println("  pdf-translator --dir ./papers --recursive --html")
	fmt.Println()
	fmt.Println("说明:")
	fmt.Println("  API 密钥从配置文件或环境变量 OPENAI_API_KEY / DEEPSEEK_API_KEY 读取。")
	fmt.Println("  翻译结果写入与输入同目录的 <名称>_translated.md。")
	fmt.Println("  批量模式下中断 (Ctrl+C) 在当前文档完成后生效，不会留下不完整的输出。")
}

func main() {
	flag.Usage = printHelp
	flag.Parse()

	// A .env next to the binary augments the process environment.
	_ = godotenv.Load()

	if *dirFlag == "" && *fileFlag == "" {
		printHelp()
		os.Exit(1)
	}
	if *dirFlag != "" && *fileFlag != "" {
		fmt.Fprintf(os.Stderr, "错误: 只能指定一个输入源 (--dir 或 --file)\n")
		os.Exit(1)
	}

	configMgr, err := config.NewConfigManager(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: 无法加载配置: %v\n", err)
		os.Exit(1)
	}
	if err := configMgr.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: 加载配置失败: %v\n", err)
		os.Exit(1)
	}
	cfg := configMgr.GetConfig()
	if *htmlFlag {
		cfg.OutputFormat = types.OutputBoth
	}

	logFile := cfg.LogFile
	if logFile == "" {
		logFile = "pdf-translator.log"
	}
	if err := logger.Init(&logger.Config{
		FilePath:   logFile,
		MaxSizeMB:  10,
		MaxBackups: 3,
		Level:      logger.ParseLevel(cfg.LogLevel),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "错误: 初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	if cfg.APIKey == "" {
		fmt.Fprintf(os.Stderr, "错误: API 密钥未配置\n")
		fmt.Fprintf(os.Stderr, "请在配置文件中设置 API 密钥: %s\n", configMgr.GetConfigPath())
		fmt.Fprintf(os.Stderr, "或设置环境变量 OPENAI_API_KEY / DEEPSEEK_API_KEY\n")
		os.Exit(1)
	}

	engine, err := translator.NewTranslationEngine(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: 初始化翻译引擎失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== PDF Translator ===")
	fmt.Printf("API Base URL: %s\n", cfg.BaseURL)
	fmt.Printf("Model: %s\n", cfg.Model)
	fmt.Printf("Pipeline: %s, Output: %s\n", cfg.PipelineMode, cfg.OutputFormat)

	pipeline := pdf.NewPDFTranslator(pdf.PDFTranslatorConfig{Config: cfg, Engine: engine})
	defer pipeline.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if *fileFlag != "" {
		// Single document: an interrupt cancels the in-flight translation.
		go func() {
			<-sigCh
			fmt.Println("\n收到中断信号，正在取消...")
			pipeline.Cancel()
		}()
		runSingle(pipeline, *fileFlag)
		return
	}

	// Batch: an interrupt stops between documents, never mid-document.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-sigCh
		fmt.Println("\n收到中断信号，当前文档完成后停止...")
		logger.Warn("interrupt received")
		cancel()
	}()
	runBatch(ctx, pipeline, *dirFlag)
}

// runSingle translates one document and prints the result summary.
func runSingle(pipeline *pdf.PDFTranslator, inputPath string) {
	fmt.Printf("\n输入文件: %s\n", inputPath)

	pipeline.SetProgressCallback(func(current, total int, message string) {
		if message != "" {
			fmt.Printf("  %s\n", message)
		}
	})

	result, err := pipeline.TranslateDocument(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\n错误: 翻译失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n=== 翻译完成 ===")
	fmt.Printf("输出文件: %s\n", result.OutputPath)
	if result.HTMLPath != "" {
		fmt.Printf("HTML 文件: %s\n", result.HTMLPath)
	}
	fmt.Printf("块数: %d\n", result.Chunks)
	if result.CacheHit {
		fmt.Println("缓存命中: 是")
	}
	fmt.Printf("耗时: %v\n", result.Duration.Round(time.Millisecond))
}

// runBatch translates every document under dir and exits non-zero when any
// document failed.
func runBatch(ctx context.Context, pipeline *pdf.PDFTranslator, dir string) {
	proc := batch.NewProcessor(pipeline, batch.Options{
		Recursive:    *recursiveFlag,
		SkipExisting: !*forceFlag,
	})

	summary, err := proc.Run(ctx, dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: 批处理失败: %v\n", err)
		os.Exit(1)
	}

	saveBatchReport(summary)

	if summary.Failed > 0 {
		os.Exit(1)
	}
}

// saveBatchReport persists the batch summary for later review. Failing to
// write the report never fails the batch.
func saveBatchReport(summary *types.BatchSummary) {
	reports, err := results.NewReportManager("")
	if err != nil {
		logger.Warn("failed to open batch report directory", logger.Err(err))
		return
	}
	path, err := reports.SaveSummary(summary)
	if err != nil {
		logger.Warn("failed to save batch report", logger.Err(err))
		return
	}
	fmt.Printf("批处理报告: %s\n", path)
}
