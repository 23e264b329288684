package pdf

import (
	"strings"
)

// paragraphJoin separates text elements in the flat document sent to the
// translator. ReassembleTranslations splits on the same separator, so the
// paragraph at position i always belongs to the i-th text element.
const paragraphJoin = "\n\n"

// ReassembleStats 重组统计
type ReassembleStats struct {
	Applied   int // 应用译文的元素数
	Fallback  int // 回退到原文的元素数
	Discarded int // 丢弃的多余译文段落数
}

// JoinTextContent flattens the text elements into one document string, in
// element order, separated by blank lines.
func JoinTextContent(elements []Element) string {
	_, texts := TextElements(elements)
	parts := make([]string, 0, len(texts))
	for _, te := range texts {
		parts = append(parts, te.Content)
	}
	return strings.Join(parts, paragraphJoin)
}

// ReassembleTranslations maps translated paragraphs onto the text elements.
// The translated document is split on blank lines and zipped onto the text
// elements in order; the result is keyed by element index, elements themselves
// are never modified. An element whose paragraph is missing or empty maps to
// its source content, so every text element has a non-empty slot. Paragraphs
// beyond the element count are dropped.
func ReassembleTranslations(elements []Element, translated string) (map[int]string, ReassembleStats) {
	var stats ReassembleStats

	indices, texts := TextElements(elements)
	translations := make(map[int]string, len(texts))

	if strings.TrimSpace(translated) == "" {
		for i, te := range texts {
			translations[indices[i]] = te.Content
		}
		stats.Fallback = len(texts)
		return translations, stats
	}

	paragraphs := strings.Split(translated, paragraphJoin)
	for i, te := range texts {
		if i < len(paragraphs) {
			paragraph := strings.TrimSpace(paragraphs[i])
			if paragraph != "" {
				translations[indices[i]] = paragraph
				stats.Applied++
				continue
			}
		}
		translations[indices[i]] = te.Content
		stats.Fallback++
	}

	if len(paragraphs) > len(texts) {
		stats.Discarded = len(paragraphs) - len(texts)
	}
	return translations, stats
}
