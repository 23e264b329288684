// Package notation converts LaTeX math notation into plain Unicode text for
// documents rendered without a math engine. The conversion is best-effort
// and lossy: unknown commands are dropped rather than reported, so rendering
// never fails.
package notation

import (
	"regexp"
	"strings"
)

// symbols maps LaTeX commands to Unicode glyphs. Replacement runs in slice
// order; longer commands sharing a prefix with a shorter one must come first
// (\infty and \int before \in, \notin is safe because the backslash anchors
// each match).
var symbols = []struct {
	latex string
	glyph string
}{
	// Lowercase Greek
	{`\alpha`, "α"}, {`\beta`, "β"}, {`\gamma`, "γ"}, {`\delta`, "δ"},
	{`\epsilon`, "ε"}, {`\zeta`, "ζ"}, {`\eta`, "η"}, {`\theta`, "θ"},
	{`\iota`, "ι"}, {`\kappa`, "κ"}, {`\lambda`, "λ"}, {`\mu`, "μ"},
	{`\nu`, "ν"}, {`\xi`, "ξ"}, {`\pi`, "π"}, {`\rho`, "ρ"},
	{`\sigma`, "σ"}, {`\tau`, "τ"}, {`\upsilon`, "υ"}, {`\phi`, "φ"},
	{`\chi`, "χ"}, {`\psi`, "ψ"}, {`\omega`, "ω"},
	// Uppercase Greek
	{`\Gamma`, "Γ"}, {`\Delta`, "Δ"}, {`\Theta`, "Θ"}, {`\Lambda`, "Λ"},
	{`\Xi`, "Ξ"}, {`\Pi`, "Π"}, {`\Sigma`, "Σ"}, {`\Phi`, "Φ"},
	{`\Psi`, "Ψ"}, {`\Omega`, "Ω"},
	// Operators
	{`\nabla`, "∇"}, {`\partial`, "∂"}, {`\infty`, "∞"}, {`\sum`, "∑"},
	{`\prod`, "∏"}, {`\int`, "∫"}, {`\pm`, "±"}, {`\mp`, "∓"},
	{`\times`, "×"}, {`\div`, "÷"}, {`\cdot`, "·"}, {`\circ`, "∘"},
	// Relations
	{`\leq`, "≤"}, {`\geq`, "≥"}, {`\neq`, "≠"}, {`\approx`, "≈"},
	{`\equiv`, "≡"}, {`\sim`, "∼"}, {`\propto`, "∝"}, {`\in`, "∈"},
	{`\notin`, "∉"}, {`\subset`, "⊂"}, {`\supset`, "⊃"},
	// Arrows
	{`\rightarrow`, "→"}, {`\leftarrow`, "←"}, {`\Rightarrow`, "⇒"},
	{`\Leftarrow`, "⇐"}, {`\leftrightarrow`, "↔"}, {`\Leftrightarrow`, "⇔"},
	// Number sets
	{`\mathbb{R}`, "ℝ"}, {`\mathbb{N}`, "ℕ"}, {`\mathbb{Z}`, "ℤ"},
	{`\mathbb{Q}`, "ℚ"}, {`\mathbb{C}`, "ℂ"}, {`\mathbb{E}`, "𝔼"},
	// Miscellaneous
	{`\sqrt`, "√"}, {`\emptyset`, "∅"}, {`\forall`, "∀"},
	{`\exists`, "∃"}, {`\neg`, "¬"}, {`\wedge`, "∧"}, {`\vee`, "∨"},
}

var (
	subscriptBraces   = regexp.MustCompile(`_\{([^}]+)\}`)
	superscriptBraces = regexp.MustCompile(`\^\{([^}]+)\}`)
	fraction          = regexp.MustCompile(`\\frac\{([^}]+)\}\{([^}]+)\}`)
	leftDelim         = regexp.MustCompile(`\\left([(\[{])`)
	rightDelim        = regexp.MustCompile(`\\right([)\]}])`)
	textWrapper       = regexp.MustCompile(`\\(?:text|mathbf|mathrm)\{([^}]*)\}`)
	bareCommand       = regexp.MustCompile(`\\[a-zA-Z]+`)
)

var spacing = strings.NewReplacer(
	`\,`, " ",
	`\;`, " ",
	`\qquad`, "    ",
	`\quad`, "  ",
)

// Render converts raw LaTeX math source into readable Unicode text. The
// output is stable: rendering an already-rendered string changes nothing.
func Render(raw string) string {
	s := raw
	for _, sym := range symbols {
		s = strings.ReplaceAll(s, sym.latex, sym.glyph)
	}
	s = subscriptBraces.ReplaceAllString(s, "_$1")
	s = superscriptBraces.ReplaceAllString(s, "^$1")
	s = fraction.ReplaceAllString(s, "($1)/($2)")
	s = leftDelim.ReplaceAllString(s, "$1")
	s = rightDelim.ReplaceAllString(s, "$1")
	s = textWrapper.ReplaceAllString(s, "$1")
	s = spacing.Replace(s)
	s = bareCommand.ReplaceAllString(s, "")
	return s
}

// EscapeXML escapes &, < and > for embedding rendered notation in markup.
// Render never calls this; escaping is the embedding caller's decision.
func EscapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
