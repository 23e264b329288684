package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"pdf-translator/internal/types"
)

func assertExtractionError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	code, ok := types.CodeOf(err)
	if !ok {
		t.Fatalf("Expected AppError, got %T", err)
	}
	if code != types.ErrExtraction {
		t.Errorf("Expected error code %s, got %s", types.ErrExtraction, code)
	}
}

// TestNewExtractorDefaults tests the heading threshold fallback
func TestNewExtractorDefaults(t *testing.T) {
	e := NewExtractor(0, "")
	if e.headingFontSize != DefaultHeadingFontSize {
		t.Errorf("headingFontSize = %v, want %v", e.headingFontSize, DefaultHeadingFontSize)
	}

	e = NewExtractor(18.0, "/tmp/images")
	if e.headingFontSize != 18.0 {
		t.Errorf("headingFontSize = %v, want 18.0", e.headingFontSize)
	}
	if e.imageDir != "/tmp/images" {
		t.Errorf("imageDir = %q, want %q", e.imageDir, "/tmp/images")
	}
}

// TestGetDocumentInfo_NonExistentFile tests that GetDocumentInfo returns an error for non-existent files
func TestGetDocumentInfo_NonExistentFile(t *testing.T) {
	e := NewExtractor(0, "")
	_, err := e.GetDocumentInfo("/non/existent/file.pdf")
	assertExtractionError(t, err)
}

// TestGetDocumentInfo_Directory tests that GetDocumentInfo returns an error when path is a directory
func TestGetDocumentInfo_Directory(t *testing.T) {
	e := NewExtractor(0, "")
	_, err := e.GetDocumentInfo(".")
	assertExtractionError(t, err)
}

// TestGetDocumentInfo_InvalidFile tests that GetDocumentInfo returns an error for invalid PDF files
func TestGetDocumentInfo_InvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "invalid.pdf")
	if err := os.WriteFile(tmpFile, []byte("This is not a PDF file"), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	e := NewExtractor(0, "")
	_, err := e.GetDocumentInfo(tmpFile)
	assertExtractionError(t, err)
}

// TestExtractElements_NonExistentFile tests that ExtractElements returns an error for non-existent files
func TestExtractElements_NonExistentFile(t *testing.T) {
	e := NewExtractor(0, "")
	_, err := e.ExtractElements("/non/existent/file.pdf")
	assertExtractionError(t, err)
}

// TestExtractElements_InvalidFile tests that ExtractElements returns an error for invalid PDF files
func TestExtractElements_InvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "invalid.pdf")
	if err := os.WriteFile(tmpFile, []byte("This is not a PDF file"), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	e := NewExtractor(0, "")
	_, err := e.ExtractElements(tmpFile)
	assertExtractionError(t, err)
}

// TestExtractFlatText_NonExistentFile tests that ExtractFlatText returns an error for non-existent files
func TestExtractFlatText_NonExistentFile(t *testing.T) {
	e := NewExtractor(0, "")
	_, err := e.ExtractFlatText("/non/existent/file.pdf")
	assertExtractionError(t, err)
}

// TestCleanExtractedText 清理规则：去页码行、压缩空行、NFKC 归一化
func TestCleanExtractedText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain text unchanged",
			input:    "First line.\nSecond line.",
			expected: "First line.\nSecond line.",
		},
		{
			name:     "collapse three newlines",
			input:    "Paragraph one.\n\n\nParagraph two.",
			expected: "Paragraph one.\n\nParagraph two.",
		},
		{
			name:     "collapse many blank lines",
			input:    "A\n\n\n\n\n\nB",
			expected: "A\n\nB",
		},
		{
			name:     "drop page number line",
			input:    "Text before.\n42\nText after.",
			expected: "Text before.\nText after.",
		},
		{
			name:     "keep line with digits and words",
			input:    "Chapter 42 begins here.",
			expected: "Chapter 42 begins here.",
		},
		{
			name:     "drop padded page number",
			input:    "Intro.\n  7  \nOutro.",
			expected: "Intro.\nOutro.",
		},
		{
			name:     "fullwidth page number is normalized then dropped",
			input:    "Intro.\n１２３\nOutro.",
			expected: "Intro.\nOutro.",
		},
		{
			name:     "ligature normalization",
			input:    "The ﬁrst eﬃcient method.",
			expected: "The first efficient method.",
		},
		{
			name:     "trailing whitespace trimmed",
			input:    "Line with spaces.   \nNext line.",
			expected: "Line with spaces.\nNext line.",
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    "\n\n  Body text.  \n\n",
			expected: "Body text.",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanExtractedText(tt.input)
			if got != tt.expected {
				t.Errorf("CleanExtractedText(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

// TestIsDigitsOnly tests page number line detection
func TestIsDigitsOnly(t *testing.T) {
	tests := []struct {
		line     string
		expected bool
	}{
		{"42", true},
		{"  7  ", true},
		{"1234567890", true},
		{"", false},
		{"   ", false},
		{"Page 42", false},
		{"42.", false},
		{"4 2", false},
		{"section", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := isDigitsOnly(tt.line)
			if got != tt.expected {
				t.Errorf("isDigitsOnly(%q) = %v, want %v", tt.line, got, tt.expected)
			}
		})
	}
}

// TestImagePageNumber 从 pdfcpu 的图片文件名中解析页码
func TestImagePageNumber(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		stem     string
		pageNum  int
		ok       bool
	}{
		{"simple", "paper_3_Im0.png", "paper", 3, true},
		{"two digit page", "paper_12_Im1.jpg", "paper", 12, true},
		{"stem with underscore", "my_doc_2_Im0.png", "my_doc", 2, true},
		{"no resource part", "paper_3.png", "paper", 3, true},
		{"wrong stem", "other_3_Im0.png", "paper", 0, false},
		{"non-numeric page", "paper_x_Im0.png", "paper", 0, false},
		{"zero page", "paper_0_Im0.png", "paper", 0, false},
		{"stem only", "paper", "paper", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pageNum, ok := imagePageNumber(tt.fileName, tt.stem)
			if ok != tt.ok || pageNum != tt.pageNum {
				t.Errorf("imagePageNumber(%q, %q) = (%d, %v), want (%d, %v)",
					tt.fileName, tt.stem, pageNum, ok, tt.pageNum, tt.ok)
			}
		})
	}
}

// TestIsPostScriptCode tests the PostScript code detection
func TestIsPostScriptCode(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{
			name:     "PostScript with def",
			text:     "/burl@stx null def /BU.S /burl@stx null def def",
			expected: true,
		},
		{
			name:     "PostScript with currentpoint",
			text:     "/BU.SS currentpoint /burl@",
			expected: true,
		},
		{
			name:     "PostScript with multiple operators",
			text:     "gsave newpath moveto lineto stroke grestore",
			expected: true,
		},
		{
			name:     "PostScript with @stx marker",
			text:     "some text @stx more text",
			expected: true,
		},
		{
			name:     "PostScript with many slashes",
			text:     "/Name1 /Name2 /Name3 /Name4 /Name5",
			expected: true,
		},
		{
			name:     "PostScript with null def",
			text:     "/something null def",
			expected: true,
		},
		{
			name:     "Normal English text",
			text:     "This is a normal paragraph of text.",
			expected: false,
		},
		{
			name:     "Normal Chinese text",
			text:     "这是一段正常的中文文本。",
			expected: false,
		},
		{
			name:     "Math formula",
			text:     "E = mc² where m is mass",
			expected: false,
		},
		{
			name:     "Section heading",
			text:     "1. Introduction",
			expected: false,
		},
		{
			name:     "Empty string",
			text:     "",
			expected: false,
		},
		{
			name:     "URL with slashes",
			text:     "Visit https://example.com/path/to/page for more info",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isPostScriptCode(tt.text)
			if result != tt.expected {
				t.Errorf("isPostScriptCode(%q) = %v, want %v", tt.text, result, tt.expected)
			}
		})
	}
}

// TestHasExcessiveNonPrintable tests the non-printable character detection
func TestHasExcessiveNonPrintable(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{
			name:     "Normal text",
			text:     "This is normal text.",
			expected: false,
		},
		{
			name:     "Text with newlines",
			text:     "Line 1\nLine 2\nLine 3",
			expected: false,
		},
		{
			name:     "Text with tabs",
			text:     "Column1\tColumn2\tColumn3",
			expected: false,
		},
		{
			name:     "Empty string",
			text:     "",
			expected: false,
		},
		{
			name:     "Text with control characters",
			text:     "Text\x00\x01\x02\x03\x04\x05more",
			expected: true,
		},
		{
			name:     "Chinese text",
			text:     "这是中文文本",
			expected: false,
		},
		{
			name:     "Mixed content",
			text:     "Hello 你好 World 世界",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := hasExcessiveNonPrintable(tt.text)
			if result != tt.expected {
				t.Errorf("hasExcessiveNonPrintable(%q) = %v, want %v", tt.text, result, tt.expected)
			}
		})
	}
}
