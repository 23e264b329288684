// Package pdf provides PDF translation functionality including text extraction,
// structural element modeling, translation caching, and document reassembly.
package pdf

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	_ "golang.org/x/image/tiff"
	"golang.org/x/text/unicode/norm"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/types"
)

// Default page dimensions (US letter) used when a page has no MediaBox.
const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

// collapseNewlines matches runs of three or more newlines, possibly with
// blank-line whitespace between them.
var collapseNewlines = regexp.MustCompile(`\n\s*\n\s*\n+`)

// Extractor 负责从 PDF 中提取结构元素和纯文本
type Extractor struct {
	headingFontSize float64
	imageDir        string
}

// NewExtractor creates an extractor. Text runs whose font size exceeds
// headingFontSize become heading elements; zero or negative falls back to
// DefaultHeadingFontSize. Extracted images are written under imageDir; an
// empty imageDir disables image extraction.
func NewExtractor(headingFontSize float64, imageDir string) *Extractor {
	if headingFontSize <= 0 {
		headingFontSize = DefaultHeadingFontSize
	}
	return &Extractor{
		headingFontSize: headingFontSize,
		imageDir:        imageDir,
	}
}

// GetDocumentInfo 获取 PDF 基本信息（页数、文件大小）
func (e *Extractor) GetDocumentInfo(pdfPath string) (*DocumentInfo, error) {
	fileInfo, err := os.Stat(pdfPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewAppError(types.ErrExtraction, "文件不存在，请检查路径", err)
		}
		return nil, types.NewAppError(types.ErrExtraction, "无法访问文件", err)
	}

	if fileInfo.IsDir() {
		return nil, types.NewAppError(types.ErrExtraction, "路径指向目录而非文件", nil)
	}

	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, types.NewAppError(types.ErrExtraction, "无法打开 PDF 文件", err)
	}
	defer f.Close()

	pageCount := r.NumPage()

	isTextPDF, err := e.IsTextPDF(pdfPath)
	if err != nil {
		// If we can't determine text status, default to false but don't fail
		isTextPDF = false
	}

	return &DocumentInfo{
		FilePath:  pdfPath,
		FileName:  filepath.Base(pdfPath),
		PageCount: pageCount,
		FileSize:  fileInfo.Size(),
		IsTextPDF: isTextPDF,
	}, nil
}

// IsTextPDF 检查 PDF 是否包含可提取的文本
// 扫描版 PDF 只含图像, 无法直接翻译
func (e *Extractor) IsTextPDF(pdfPath string) (bool, error) {
	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return false, types.NewAppError(types.ErrExtraction, "无法打开 PDF 文件", err)
	}
	defer f.Close()

	// Try to extract text from the first few pages. If we can extract any
	// meaningful text, it's a text PDF.
	maxPagesToCheck := 3
	if r.NumPage() < maxPagesToCheck {
		maxPagesToCheck = r.NumPage()
	}

	totalTextLength := 0
	for pageNum := 1; pageNum <= maxPagesToCheck; pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		for _, r := range content {
			if !unicode.IsSpace(r) {
				totalTextLength++
			}
		}

		if totalTextLength > 50 {
			return true, nil
		}
	}

	return totalTextLength > 0, nil
}

// ExtractElements 从 PDF 中提取结构元素（文本、图片）并按阅读顺序排序
func (e *Extractor) ExtractElements(pdfPath string) ([]Element, error) {
	if _, err := os.Stat(pdfPath); err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewAppError(types.ErrExtraction, "文件不存在，请检查路径", err)
		}
		return nil, types.NewAppError(types.ErrExtraction, "无法访问文件", err)
	}

	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, types.NewAppError(types.ErrExtraction, "无法打开 PDF 文件", err)
	}
	defer f.Close()

	var elements []Element
	pageHeights := make(map[int]float64)
	textCount := 0

	totalPages := r.NumPage()
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		if page.V.Key("Contents").Kind() == pdf.Null {
			continue
		}

		_, pageHeight := pageDimensions(page)
		pageHeights[pageNum-1] = pageHeight

		rows, err := page.GetTextByRow()
		if err != nil {
			logger.Warn("failed to get text from page",
				logger.Int("page", pageNum),
				logger.Err(err))
			continue
		}

		for _, row := range rows {
			if len(row.Content) == 0 {
				continue
			}
			el := e.rowToElement(row, pageNum-1, pageHeight)
			if el != nil {
				elements = append(elements, el)
				textCount++
			}
		}
	}

	if textCount == 0 {
		return nil, types.NewAppError(types.ErrExtraction,
			"PDF 不包含可提取的文本，可能是扫描版 PDF", nil)
	}

	if e.imageDir != "" {
		images, err := e.extractImages(pdfPath, pageHeights)
		if err != nil {
			// Image extraction is best effort; the text pipeline continues
			logger.Warn("image extraction failed", logger.Err(err))
		} else {
			elements = append(elements, images...)
		}
	}

	SortElements(elements)

	logger.Info("extracted elements from PDF",
		logger.Int("totalElements", len(elements)),
		logger.Int("textElements", textCount),
		logger.Int("totalPages", totalPages))

	return elements, nil
}

// rowToElement merges one text row into a text element. Rows that contain
// only operator garbage or non-printable noise are dropped.
func (e *Extractor) rowToElement(row *pdf.Row, pageIndex int, pageHeight float64) Element {
	var textBuilder strings.Builder
	var minX, maxX, minY, maxY float64
	var totalFontSize float64
	var lastX, lastWidth float64
	first := true
	counted := 0

	for _, text := range row.Content {
		if text.S == "" {
			continue
		}
		if isPostScriptCode(text.S) {
			continue
		}

		// Add a space when there is a visible gap between runs
		if !first && text.X > lastX+lastWidth+2 {
			textBuilder.WriteString(" ")
		}
		textBuilder.WriteString(text.S)
		lastX = text.X
		lastWidth = float64(len(text.S)) * text.FontSize * 0.5

		if first {
			minX, maxX = text.X, text.X
			minY, maxY = text.Y, text.Y
			first = false
		} else {
			if text.X < minX {
				minX = text.X
			}
			if text.X > maxX {
				maxX = text.X
			}
			if text.Y < minY {
				minY = text.Y
			}
			if text.Y > maxY {
				maxY = text.Y
			}
		}

		totalFontSize += text.FontSize
		counted++
	}

	content := strings.TrimSpace(textBuilder.String())
	if content == "" {
		return nil
	}
	if isPostScriptCode(content) || hasExcessiveNonPrintable(content) {
		return nil
	}

	avgFontSize := 10.0
	if counted > 0 && totalFontSize > 0 {
		avgFontSize = totalFontSize / float64(counted)
	}

	// ledongthuc reports Y from the bottom of the page; flip to top-origin
	// so smaller Y0 means closer to the top.
	height := avgFontSize * 1.2
	y0 := pageHeight - maxY
	width := maxX - minX + avgFontSize
	if estimated := float64(len(content)) * avgFontSize * 0.5; estimated > width {
		width = estimated
	}

	rect := Rect{
		X0: minX,
		Y0: y0,
		X1: minX + width,
		Y1: y0 + height,
	}
	return NewTextElement(pageIndex, rect, content, avgFontSize, e.headingFontSize)
}

// pageDimensions reads the page MediaBox; missing or malformed boxes fall
// back to US letter.
func pageDimensions(page pdf.Page) (width, height float64) {
	width, height = defaultPageWidth, defaultPageHeight
	mediaBox := page.V.Key("MediaBox")
	if mediaBox.Kind() == pdf.Array && mediaBox.Len() >= 4 {
		w := mediaBox.Index(2).Float64() - mediaBox.Index(0).Float64()
		h := mediaBox.Index(3).Float64() - mediaBox.Index(1).Float64()
		if w > 0 {
			width = w
		}
		if h > 0 {
			height = h
		}
	}
	return width, height
}

// extractImages pulls embedded images out with pdfcpu and turns them into
// image elements. The images' positions on the page are not recoverable from
// the extracted resources, so each image is placed below the page's text and
// keeps its extraction order.
func (e *Extractor) extractImages(pdfPath string, pageHeights map[int]float64) ([]Element, error) {
	if err := os.MkdirAll(e.imageDir, 0755); err != nil {
		return nil, types.NewAppError(types.ErrExtraction, "无法创建图片输出目录", err)
	}

	if err := api.ExtractImagesFile(pdfPath, e.imageDir, nil, nil); err != nil {
		return nil, types.NewAppError(types.ErrExtraction, "提取图片失败", err)
	}

	stem := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	matches, err := filepath.Glob(filepath.Join(e.imageDir, stem+"_*"))
	if err != nil {
		return nil, types.NewAppError(types.ErrExtraction, "无法列出提取的图片", err)
	}
	sort.Strings(matches)

	var images []Element
	perPage := make(map[int]int)
	for _, path := range matches {
		pageNum, ok := imagePageNumber(filepath.Base(path), stem)
		if !ok {
			continue
		}
		pageIndex := pageNum - 1

		pageHeight, found := pageHeights[pageIndex]
		if !found {
			pageHeight = defaultPageHeight
		}

		width, height := imageDimensions(path)

		// Keep same-page images in extraction order below the text
		offset := float64(perPage[pageIndex])
		perPage[pageIndex]++

		images = append(images, &ImageElement{
			Page:      pageIndex,
			Rect:      Rect{X0: 0, Y0: pageHeight + offset, X1: float64(width), Y1: pageHeight + offset + float64(height)},
			SourceRef: path,
			Width:     width,
			Height:    height,
		})
	}

	if len(images) > 0 {
		logger.Info("extracted images from PDF", logger.Int("count", len(images)))
	}
	return images, nil
}

// imagePageNumber parses the 1-based page number from a pdfcpu image file
// name of the form <stem>_<page>_<resource>.<ext>.
func imagePageNumber(name, stem string) (int, bool) {
	prefix := stem + "_"
	if !strings.HasPrefix(name, prefix) {
		return 0, false
	}
	rest := name[len(prefix):]
	end := strings.IndexByte(rest, '_')
	if end < 0 {
		if dot := strings.IndexByte(rest, '.'); dot >= 0 {
			end = dot
		} else {
			end = len(rest)
		}
	}
	pageNum, err := strconv.Atoi(rest[:end])
	if err != nil || pageNum < 1 {
		return 0, false
	}
	return pageNum, true
}

// imageDimensions reads the pixel size of an image file. Unknown formats
// yield zero dimensions.
func imageDimensions(path string) (width, height int) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

// ExtractFlatText 提取整篇 PDF 的纯文本（不保留元素结构）
func (e *Extractor) ExtractFlatText(pdfPath string) (string, error) {
	if _, err := os.Stat(pdfPath); err != nil {
		if os.IsNotExist(err) {
			return "", types.NewAppError(types.ErrExtraction, "文件不存在，请检查路径", err)
		}
		return "", types.NewAppError(types.ErrExtraction, "无法访问文件", err)
	}

	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return "", types.NewAppError(types.ErrExtraction, "无法打开 PDF 文件", err)
	}
	defer f.Close()

	var builder strings.Builder
	totalPages := r.NumPage()
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("failed to get text from page",
				logger.Int("page", pageNum),
				logger.Err(err))
			continue
		}
		builder.WriteString(content)
		builder.WriteString("\n\n")
	}

	text := CleanExtractedText(builder.String())
	if text == "" {
		return "", types.NewAppError(types.ErrExtraction,
			"PDF 不包含可提取的文本，可能是扫描版 PDF", nil)
	}
	return text, nil
}

// CleanExtractedText 清理提取出的纯文本
// 去掉纯数字行（页码）, 压缩连续空行, 并做 NFKC 归一化
func CleanExtractedText(text string) string {
	text = norm.NFKC.String(text)

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if isDigitsOnly(line) {
			continue
		}
		kept = append(kept, strings.TrimRight(line, " \t"))
	}

	cleaned := strings.Join(kept, "\n")
	cleaned = collapseNewlines.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}

// isDigitsOnly reports whether a line holds nothing but digits and
// whitespace, which is almost always a page number.
func isDigitsOnly(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	for _, r := range trimmed {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// isPostScriptCode checks if text looks like PostScript/PDF operator code.
// These are internal PDF commands that should not be extracted as text.
func isPostScriptCode(text string) bool {
	if len(text) == 0 {
		return false
	}

	textLower := strings.ToLower(text)

	// Pattern like "/name def" is the most reliable indicator
	if strings.Contains(text, " def ") || strings.HasSuffix(text, " def") {
		if strings.Contains(text, "/") {
			return true
		}
	}

	if strings.Contains(textLower, "null def") {
		return true
	}

	if strings.Contains(text, "@stx") || strings.Contains(text, "@etx") {
		return true
	}

	if strings.Contains(textLower, "/burl") || strings.Contains(textLower, "burl@") {
		return true
	}

	psSpecificPatterns := []string{
		"currentpoint", "gsave", "grestore", "newpath", "closepath",
		"setrgbcolor", "setgray", "setlinewidth", "showpage",
		"moveto", "lineto", "curveto", "stroke", "fill",
	}
	for _, pattern := range psSpecificPatterns {
		if strings.Contains(textLower, pattern) {
			return true
		}
	}

	// Many "/Name" tokens in a row indicate PostScript names, but URLs also
	// contain slashes so those are exempt
	if !strings.Contains(text, "://") && !strings.Contains(textLower, "http") {
		slashNameCount := 0
		for _, word := range strings.Fields(text) {
			if len(word) > 1 && word[0] == '/' {
				isName := true
				for _, c := range word[1:] {
					if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '@') {
						isName = false
						break
					}
				}
				if isName {
					slashNameCount++
				}
			}
		}
		if slashNameCount >= 3 {
			return true
		}
	}

	return false
}

// hasExcessiveNonPrintable checks if text has too many non-printable characters.
func hasExcessiveNonPrintable(text string) bool {
	if len(text) == 0 {
		return false
	}

	nonPrintableCount := 0
	for _, r := range text {
		if r < 32 && r != '\n' && r != '\r' && r != '\t' {
			nonPrintableCount++
		}
		if r >= 0x7F && r <= 0x9F {
			nonPrintableCount++
		}
	}

	ratio := float64(nonPrintableCount) / float64(len(text))
	return ratio > 0.1
}
