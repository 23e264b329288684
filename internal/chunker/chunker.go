// Package chunker splits document text into translation-sized chunks along
// paragraph boundaries, carrying a short tail of the previous chunk as
// advisory context for the next one.
package chunker

import (
	"regexp"
	"strings"
)

const (
	// DefaultMaxSize is the maximum chunk body size in characters.
	DefaultMaxSize = 2500
	// DefaultContextLen is how many trailing characters of a chunk are
	// offered to the next chunk as context.
	DefaultContextLen = 200
)

var (
	paragraphSep = regexp.MustCompile(`\n\s*\n`)
	sentenceEnd  = regexp.MustCompile(`[.!?]+\s+`)
)

// Chunk is one translation unit. LeadingContext is the tail of the previous
// chunk's body and is advisory only; it is never part of the body.
type Chunk struct {
	Body           string
	LeadingContext string
}

// Chunker splits text into chunks of at most MaxSize characters.
type Chunker struct {
	maxSize    int
	contextLen int
}

// New returns a Chunker. Non-positive arguments fall back to the defaults.
func New(maxSize, contextLen int) *Chunker {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if contextLen <= 0 {
		contextLen = DefaultContextLen
	}
	return &Chunker{maxSize: maxSize, contextLen: contextLen}
}

// Chunk splits text into translation units. Text that fits in one chunk is
// returned as-is. Otherwise paragraphs are accumulated up to the size limit;
// a paragraph too large on its own is split at sentence boundaries, and a
// single sentence exceeding the limit is emitted whole rather than broken
// mid-sentence. Joining the bodies with "\n\n" reproduces the cleaned text.
func (c *Chunker) Chunk(text string) []Chunk {
	bodies := c.split(text)

	chunks := make([]Chunk, len(bodies))
	for i, body := range bodies {
		chunks[i].Body = body
		if i > 0 {
			chunks[i].LeadingContext = c.contextTail(bodies[i-1])
		}
	}
	return chunks
}

func (c *Chunker) split(text string) []string {
	if len(text) <= c.maxSize {
		return []string{text}
	}

	var paragraphs []string
	for _, p := range paragraphSep.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}

	var bodies []string
	current := ""
	for _, para := range paragraphs {
		if len(current)+len(para)+2 <= c.maxSize {
			if current != "" {
				current += "\n\n" + para
			} else {
				current = para
			}
			continue
		}

		if current != "" {
			bodies = append(bodies, current)
		}
		if len(para) > c.maxSize {
			// The last sentence group stays open so following
			// paragraphs can still join it.
			sub := c.splitLongParagraph(para)
			bodies = append(bodies, sub[:len(sub)-1]...)
			current = sub[len(sub)-1]
		} else {
			current = para
		}
	}
	if current != "" {
		bodies = append(bodies, current)
	}
	return bodies
}

// splitLongParagraph breaks an oversized paragraph at sentence boundaries,
// keeping each terminator with its sentence. A paragraph with no boundary at
// all comes back as a single oversized piece.
func (c *Chunker) splitLongParagraph(paragraph string) []string {
	var sentences []string
	prev := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(paragraph, -1) {
		sentences = append(sentences, paragraph[prev:loc[1]])
		prev = loc[1]
	}
	if prev < len(paragraph) {
		sentences = append(sentences, paragraph[prev:])
	}

	var pieces []string
	current := ""
	for _, sentence := range sentences {
		if len(current)+len(sentence) <= c.maxSize {
			current += sentence
			continue
		}
		if current != "" {
			pieces = append(pieces, strings.TrimSpace(current))
		}
		current = sentence
	}
	if current != "" {
		pieces = append(pieces, strings.TrimSpace(current))
	}

	if len(pieces) == 0 {
		return []string{paragraph}
	}
	return pieces
}

// contextTail returns the last contextLen characters of body, prefixed with
// "..." when the body had to be truncated.
func (c *Chunker) contextTail(body string) string {
	runes := []rune(body)
	if len(runes) <= c.contextLen {
		return body
	}
	return "..." + string(runes[len(runes)-c.contextLen:])
}
