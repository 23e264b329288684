package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"pdf-translator/internal/config"
	"pdf-translator/internal/logger"
	"pdf-translator/internal/pdf"
	"pdf-translator/internal/translator"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: translate_single_pdf <input.pdf|input.txt|input.md>")
		os.Exit(1)
	}

	inputPath := os.Args[1]
	if _, err := os.Stat(inputPath); err != nil {
		fmt.Printf("Error: input not found: %s\n", inputPath)
		os.Exit(1)
	}

	_ = godotenv.Load()

	logger.Init(&logger.Config{
		FilePath:   "translate_single_pdf.log",
		MaxSizeMB:  10,
		MaxBackups: 3,
		Level:      logger.LevelInfo,
	})
	defer logger.Close()

	configMgr, err := config.NewConfigManager("")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if err := configMgr.Load(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	cfg := configMgr.GetConfig()

	if cfg.APIKey == "" {
		fmt.Println("Error: OpenAI API key not configured")
		fmt.Println("Set OPENAI_API_KEY environment variable or configure in pdf-translator-config.json")
		os.Exit(1)
	}

	mdPath, _ := pdf.OutputPaths(inputPath)

	fmt.Printf("Input:  %s\n", inputPath)
	fmt.Printf("Output: %s\n", mdPath)
	fmt.Printf("API:    %s\n", cfg.BaseURL)
	fmt.Printf("Model:  %s\n", cfg.Model)
	fmt.Println()

	engine, err := translator.NewTranslationEngine(context.Background(), cfg)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	pipeline := pdf.NewPDFTranslator(pdf.PDFTranslatorConfig{Config: cfg, Engine: engine})
	defer pipeline.Close()

	pipeline.SetProgressCallback(func(current, total int, message string) {
		if total > 0 {
			fmt.Printf("\r[%3d%%] %s", current*100/total, message)
		}
	})

	result, err := pipeline.TranslateDocument(inputPath)
	fmt.Println()

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n=== Translation Complete ===\n")
	fmt.Printf("Chunks:     %d\n", result.Chunks)
	fmt.Printf("Cache hit:  %v\n", result.CacheHit)
	fmt.Printf("Duration:   %v\n", result.Duration.Round(time.Millisecond))
	fmt.Printf("Output:     %s\n", result.OutputPath)
}
