// Package pdf provides PDF translation functionality including text extraction,
// structural element modeling, translation caching, and document reassembly.
package pdf

import (
	"fmt"
	"sort"
)

// DefaultHeadingFontSize is the font size above which a text element is
// treated as a heading.
const DefaultHeadingFontSize = 14.0

// Rect 元素在页面上的边界框
// 坐标原点在页面左上角, Y0 越小表示位置越靠近页面顶部
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 {
	return r.X1 - r.X0
}

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 {
	return r.Y1 - r.Y0
}

// Element is a positioned piece of document content. Concrete element types
// are *TextElement, *ImageElement and *TableElement.
type Element interface {
	// PageIndex returns the zero-based page the element belongs to.
	PageIndex() int
	// Bounds returns the element's bounding box in top-origin page coordinates.
	Bounds() Rect
}

// TextElement 文本元素
type TextElement struct {
	Page     int     `json:"page"`      // 页码 (从0开始)
	Rect     Rect    `json:"rect"`      // 边界框
	Content  string  `json:"content"`   // 文本内容
	FontSize float64 `json:"font_size"` // 主要字号
	Heading  bool    `json:"heading"`   // 是否为标题
}

// NewTextElement creates a text element and derives the heading flag from the
// font size. Sizes strictly greater than the threshold mark a heading; a
// threshold of zero or less falls back to DefaultHeadingFontSize.
func NewTextElement(page int, rect Rect, content string, fontSize, headingThreshold float64) *TextElement {
	if headingThreshold <= 0 {
		headingThreshold = DefaultHeadingFontSize
	}
	return &TextElement{
		Page:     page,
		Rect:     rect,
		Content:  content,
		FontSize: fontSize,
		Heading:  fontSize > headingThreshold,
	}
}

// PageIndex returns the element's page.
func (e *TextElement) PageIndex() int { return e.Page }

// Bounds returns the element's bounding box.
func (e *TextElement) Bounds() Rect { return e.Rect }

// ImageElement 图片元素
type ImageElement struct {
	Page      int    `json:"page"`       // 页码 (从0开始)
	Rect      Rect   `json:"rect"`       // 边界框
	SourceRef string `json:"source_ref"` // 提取出的图片文件路径
	Width     int    `json:"width"`      // 像素宽度
	Height    int    `json:"height"`     // 像素高度
}

// PageIndex returns the element's page.
func (e *ImageElement) PageIndex() int { return e.Page }

// Bounds returns the element's bounding box.
func (e *ImageElement) Bounds() Rect { return e.Rect }

// TableElement 表格元素
type TableElement struct {
	Page   int        `json:"page"`   // 页码 (从0开始)
	Rect   Rect       `json:"rect"`   // 边界框
	Header []string   `json:"header"` // 表头单元格
	Rows   [][]string `json:"rows"`   // 数据行
}

// PageIndex returns the element's page.
func (e *TableElement) PageIndex() int { return e.Page }

// Bounds returns the element's bounding box.
func (e *TableElement) Bounds() Rect { return e.Rect }

// Validate checks that the table is rectangular. When a header is present
// every row must carry exactly as many cells as the header; a headerless
// table only needs all rows to share one column count.
func (e *TableElement) Validate() error {
	if len(e.Header) > 0 {
		for i, row := range e.Rows {
			if len(row) != len(e.Header) {
				return fmt.Errorf("table on page %d: row %d has %d cells, header has %d",
					e.Page, i, len(row), len(e.Header))
			}
		}
		return nil
	}
	if len(e.Rows) == 0 {
		return nil
	}
	for i, row := range e.Rows[1:] {
		if len(row) != len(e.Rows[0]) {
			return fmt.Errorf("table on page %d: row %d has %d cells, row 0 has %d",
				e.Page, i+1, len(row), len(e.Rows[0]))
		}
	}
	return nil
}

// SortElements sorts elements into reading order: by page, then top to bottom,
// then left to right. The sort is stable so extraction order breaks ties.
func SortElements(elements []Element) {
	sort.SliceStable(elements, func(i, j int) bool {
		if elements[i].PageIndex() != elements[j].PageIndex() {
			return elements[i].PageIndex() < elements[j].PageIndex()
		}
		ri, rj := elements[i].Bounds(), elements[j].Bounds()
		if ri.Y0 != rj.Y0 {
			return ri.Y0 < rj.Y0
		}
		return ri.X0 < rj.X0
	})
}

// TextElements returns the text elements in order together with their indices
// into the full element slice. The indices key the translation mapping built
// during reassembly.
func TextElements(elements []Element) ([]int, []*TextElement) {
	var indices []int
	var texts []*TextElement
	for i, el := range elements {
		if te, ok := el.(*TextElement); ok {
			indices = append(indices, i)
			texts = append(texts, te)
		}
	}
	return indices, texts
}
