// Package markdown re-derives document structure from translated flat text.
// The language model returns lightweight Markdown; Parse turns it into a
// typed block sequence the render backends consume.
package markdown

import (
	"regexp"
	"strings"
)

// BlockType identifies what a parsed block represents.
type BlockType int

const (
	BlockParagraph BlockType = iota
	BlockHeading
	BlockListItem
	BlockFormula
	BlockFigureRef
	BlockTableRef
)

func (t BlockType) String() string {
	switch t {
	case BlockParagraph:
		return "paragraph"
	case BlockHeading:
		return "heading"
	case BlockListItem:
		return "list_item"
	case BlockFormula:
		return "formula"
	case BlockFigureRef:
		return "figure_ref"
	case BlockTableRef:
		return "table_ref"
	default:
		return "unknown"
	}
}

// Block is one structural unit of the parsed document. Level is 1-3 for
// headings and zero otherwise.
type Block struct {
	Type  BlockType
	Level int
	Text  string
}

// ParserConfig controls the markers the parser recognizes. The zero value is
// not usable; start from DefaultParserConfig.
type ParserConfig struct {
	HeadingMarker    string
	FormulaDelimiter string
	UnorderedMarkers []string
	FigureTokens     []string
	TableTokens      []string
}

// DefaultParserConfig returns the markers used by the translation pipeline:
// ATX headings, $$ formula fences, -/*/+ lists, and bilingual figure/table
// reference tokens.
func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		HeadingMarker:    "#",
		FormulaDelimiter: "$$",
		UnorderedMarkers: []string{"-", "*", "+"},
		FigureTokens:     []string{"Figure", "Fig.", "图"},
		TableTokens:      []string{"Table", "表"},
	}
}

// Parser is a single-pass line parser. It never fails: malformed markup
// degrades to paragraphs.
type Parser struct {
	cfg         ParserConfig
	orderedItem *regexp.Regexp
	figureRef   *regexp.Regexp
	tableRef    *regexp.Regexp
}

// NewParser builds a Parser from cfg. Empty config fields fall back to the
// defaults so a partially filled config stays usable.
func NewParser(cfg ParserConfig) *Parser {
	def := DefaultParserConfig()
	if cfg.HeadingMarker == "" {
		cfg.HeadingMarker = def.HeadingMarker
	}
	if cfg.FormulaDelimiter == "" {
		cfg.FormulaDelimiter = def.FormulaDelimiter
	}
	if len(cfg.UnorderedMarkers) == 0 {
		cfg.UnorderedMarkers = def.UnorderedMarkers
	}
	if len(cfg.FigureTokens) == 0 {
		cfg.FigureTokens = def.FigureTokens
	}
	if len(cfg.TableTokens) == 0 {
		cfg.TableTokens = def.TableTokens
	}
	return &Parser{
		cfg:         cfg,
		orderedItem: regexp.MustCompile(`^\d+\.\s+`),
		figureRef:   tokenPattern(cfg.FigureTokens),
		tableRef:    tokenPattern(cfg.TableTokens),
	}
}

// tokenPattern builds a case-insensitive "token + number" reference matcher.
func tokenPattern(tokens []string) *regexp.Regexp {
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = regexp.QuoteMeta(tok)
	}
	return regexp.MustCompile(`(?i)(?:` + strings.Join(quoted, "|") + `)\s*\d+`)
}

// Parse runs the line state machine over text. Rules are tried in order:
// blank lines are skipped, a line that is exactly the formula delimiter opens
// a multi-line formula (closed by the same line, tolerant of EOF), a
// single-line $$...$$ with a non-empty interior is a formula, one to three
// heading markers plus a space is a heading (more fall through), list
// markers open list items, figure and table reference lines are tagged, and
// everything else accumulates into a paragraph absorbing the following lines
// that match no other rule.
func (p *Parser) Parse(text string) []Block {
	lines := strings.Split(text, "\n")
	var blocks []Block

	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])

		if line == "" {
			i++
			continue
		}

		// Multi-line formula: $$ alone opens, $$ alone closes.
		if line == p.cfg.FormulaDelimiter {
			i++
			var parts []string
			for i < len(lines) {
				inner := strings.TrimSpace(lines[i])
				i++
				if inner == p.cfg.FormulaDelimiter {
					break
				}
				if inner != "" {
					parts = append(parts, inner)
				}
			}
			blocks = append(blocks, Block{Type: BlockFormula, Text: strings.Join(parts, " ")})
			continue
		}

		if interior, ok := p.inlineFormulaLine(line); ok {
			blocks = append(blocks, Block{Type: BlockFormula, Text: interior})
			i++
			continue
		}

		if level, rest, ok := p.headingLine(line); ok {
			blocks = append(blocks, Block{Type: BlockHeading, Level: level, Text: rest})
			i++
			continue
		}

		if item, ok := p.listItemLine(line); ok {
			blocks = append(blocks, Block{Type: BlockListItem, Text: item})
			i++
			continue
		}

		if p.figureRef.MatchString(line) {
			blocks = append(blocks, Block{Type: BlockFigureRef, Text: line})
			i++
			continue
		}

		if p.tableRef.MatchString(line) {
			blocks = append(blocks, Block{Type: BlockTableRef, Text: line})
			i++
			continue
		}

		// Paragraph: absorb following lines until a blank line or a line
		// another rule claims.
		parts := []string{line}
		i++
		for i < len(lines) {
			next := strings.TrimSpace(lines[i])
			if next == "" || p.claimed(next) {
				break
			}
			parts = append(parts, next)
			i++
		}
		blocks = append(blocks, Block{Type: BlockParagraph, Text: strings.Join(parts, " ")})
	}

	return blocks
}

// claimed reports whether a non-blank line matches any rule other than
// paragraph absorption.
func (p *Parser) claimed(line string) bool {
	if line == p.cfg.FormulaDelimiter {
		return true
	}
	if _, ok := p.inlineFormulaLine(line); ok {
		return true
	}
	if _, _, ok := p.headingLine(line); ok {
		return true
	}
	if _, ok := p.listItemLine(line); ok {
		return true
	}
	return p.figureRef.MatchString(line) || p.tableRef.MatchString(line)
}

// inlineFormulaLine matches a whole line of the form $$...$$ with a
// non-empty interior.
func (p *Parser) inlineFormulaLine(line string) (string, bool) {
	delim := p.cfg.FormulaDelimiter
	if len(line) <= 2*len(delim) {
		return "", false
	}
	if !strings.HasPrefix(line, delim) || !strings.HasSuffix(line, delim) {
		return "", false
	}
	return strings.TrimSpace(line[len(delim) : len(line)-len(delim)]), true
}

// headingLine matches one to three heading markers followed by a space.
// Deeper nesting is deliberately left to paragraph handling.
func (p *Parser) headingLine(line string) (int, string, bool) {
	for level := 3; level >= 1; level-- {
		prefix := strings.Repeat(p.cfg.HeadingMarker, level) + " "
		if strings.HasPrefix(line, prefix) {
			return level, strings.TrimSpace(line[len(prefix):]), true
		}
	}
	return 0, "", false
}

// listItemLine matches unordered markers plus space, or digits + "." + space.
// The marker is stripped from the returned text.
func (p *Parser) listItemLine(line string) (string, bool) {
	for _, marker := range p.cfg.UnorderedMarkers {
		if strings.HasPrefix(line, marker+" ") {
			return strings.TrimSpace(line[len(marker)+1:]), true
		}
	}
	if loc := p.orderedItem.FindStringIndex(line); loc != nil {
		return strings.TrimSpace(line[loc[1]:]), true
	}
	return "", false
}
