package pdf

import (
	"fmt"
	"path/filepath"
	"strings"

	"pdf-translator/internal/render"
)

// ElementsToMarkdown 将结构元素序列渲染为 Markdown 文档
// translations 按元素下标提供译文, 缺失的下标使用元素原文
// 页与页之间用分隔线隔开, baseDir 用于计算图片的相对路径
func ElementsToMarkdown(elements []Element, translations map[int]string, baseDir string) string {
	var parts []string
	prevPage := -1

	for i, el := range elements {
		if prevPage >= 0 && el.PageIndex() != prevPage {
			parts = append(parts, "---")
		}
		prevPage = el.PageIndex()

		switch e := el.(type) {
		case *TextElement:
			content := e.Content
			if t, ok := translations[i]; ok {
				content = t
			}
			parts = append(parts, textElementMarkdown(e, content))
		case *ImageElement:
			parts = append(parts, imageElementMarkdown(e, baseDir))
		case *TableElement:
			if table := tableElementMarkdown(e); table != "" {
				parts = append(parts, table)
			}
		}
	}

	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n") + "\n"
}

// textElementMarkdown renders one text element with the given content. A
// translation that already carries a markdown heading marker wins over the
// font-size heading flag.
func textElementMarkdown(e *TextElement, content string) string {
	content = strings.TrimSpace(render.InlineMath(content))
	if hasHeadingMarker(content) {
		return content
	}
	if e.Heading {
		return "## " + content
	}
	return content
}

// hasHeadingMarker reports whether content starts with a level 1-3 ATX
// heading marker. A bare "#" with no following space ("#1 ranked") is text,
// not a heading.
func hasHeadingMarker(content string) bool {
	for level := 1; level <= 3; level++ {
		prefix := strings.Repeat("#", level) + " "
		if strings.HasPrefix(content, prefix) {
			return true
		}
	}
	return false
}

// imageElementMarkdown renders an image reference, preferring a path relative
// to the markdown file.
func imageElementMarkdown(e *ImageElement, baseDir string) string {
	ref := e.SourceRef
	if baseDir != "" {
		if rel, err := filepath.Rel(baseDir, e.SourceRef); err == nil && !strings.HasPrefix(rel, "..") {
			ref = filepath.ToSlash(rel)
		}
	}
	alt := strings.TrimSuffix(filepath.Base(e.SourceRef), filepath.Ext(e.SourceRef))
	return fmt.Sprintf("![%s](%s)", alt, ref)
}

// tableElementMarkdown renders a GFM table. A headerless table gets an
// empty-cell header row sized to the first data row, since GFM has no
// headerless form. A table with neither header nor rows renders nothing.
func tableElementMarkdown(e *TableElement) string {
	header := e.Header
	if len(header) == 0 {
		if len(e.Rows) == 0 {
			return ""
		}
		header = make([]string, len(e.Rows[0]))
	}

	var b strings.Builder

	writeRow := func(cells []string) {
		b.WriteString("|")
		for _, cell := range cells {
			b.WriteString(" ")
			b.WriteString(escapeTableCell(cell))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}

	writeRow(header)

	b.WriteString("|")
	for range header {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")

	for _, row := range e.Rows {
		writeRow(row)
	}

	return strings.TrimRight(b.String(), "\n")
}

// escapeTableCell keeps cell content from breaking the table syntax.
func escapeTableCell(cell string) string {
	cell = strings.ReplaceAll(cell, "|", "\\|")
	cell = strings.ReplaceAll(cell, "\n", " ")
	return strings.TrimSpace(cell)
}
