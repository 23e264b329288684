// Package render turns parsed document structure into Markdown and HTML
// output files.
package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"pdf-translator/internal/markdown"
	"pdf-translator/internal/notation"
)

// inlineMath matches $...$ spans that stay on one line.
var inlineMath = regexp.MustCompile(`\$([^$\n]+)\$`)

// InlineMath 将文本中的 $...$ 数学片段渲染为 Unicode
func InlineMath(s string) string {
	return inlineMath.ReplaceAllStringFunc(s, func(m string) string {
		inner := strings.TrimSpace(m[1 : len(m)-1])
		return notation.Render(inner)
	})
}

// BlocksToMarkdown 将结构块序列渲染为 Markdown 文档
// 连续的列表项会合并成一个列表
func BlocksToMarkdown(blocks []markdown.Block) string {
	var parts []string
	var listItems []string

	flushList := func() {
		if len(listItems) > 0 {
			parts = append(parts, strings.Join(listItems, "\n"))
			listItems = nil
		}
	}

	for _, block := range blocks {
		if block.Type != markdown.BlockListItem {
			flushList()
		}

		switch block.Type {
		case markdown.BlockHeading:
			parts = append(parts, strings.Repeat("#", block.Level)+" "+InlineMath(block.Text))
		case markdown.BlockListItem:
			listItems = append(listItems, "- "+InlineMath(block.Text))
		case markdown.BlockFormula:
			rendered := notation.Render(block.Text)
			if rendered != "" {
				parts = append(parts, rendered)
			}
		case markdown.BlockFigureRef, markdown.BlockTableRef:
			parts = append(parts, "*"+InlineMath(block.Text)+"*")
		default:
			parts = append(parts, InlineMath(block.Text))
		}
	}
	flushList()

	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n") + "\n"
}

// htmlPageTemplate is the minimal page the HTML output is wrapped in. The
// font stack prefers CJK faces since the output is Chinese.
const htmlPageTemplate = `<!DOCTYPE html>
<html lang="zh">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<style>
body { max-width: 46em; margin: 2em auto; padding: 0 1em; font-family: "Noto Sans CJK SC", "PingFang SC", "Microsoft YaHei", sans-serif; line-height: 1.7; color: #222; }
img { max-width: 100%%; }
table { border-collapse: collapse; margin: 1em 0; }
th, td { border: 1px solid #999; padding: 0.3em 0.6em; }
h1, h2, h3 { line-height: 1.3; }
hr { border: none; border-top: 1px solid #ccc; margin: 2em 0; }
</style>
</head>
<body>
%s</body>
</html>
`

// HTMLPage 将 Markdown 文档转换为完整的 HTML 页面
func HTMLPage(markdownText, title string) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(markdownText), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}

	return fmt.Sprintf(htmlPageTemplate, notation.EscapeXML(title), buf.String()), nil
}
