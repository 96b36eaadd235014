// Package scope finds class and method boundaries in Apex-like source text.
//
// The scanner is lexical: it blanks comments and string literals, then tracks
// brace depth. It does not parse, so unusual formatting can fool the method
// heuristic. Callers depend only on the Scanner interface so a real parser can
// replace it later.
package scope

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Scanner computes the boundaries of a source text.
type Scanner interface {
	Scan(text string) Boundaries
}

// Lexical is the default brace-depth Scanner.
type Lexical struct{}

// Scan implements Scanner.
func (Lexical) Scan(text string) Boundaries {
	return Scan(text)
}

type tokKind uint8

const (
	tokIdent tokKind = iota + 1
	tokPunct
)

type tok struct {
	kind tokKind
	text string
	line int
}

func (t tok) is(p byte) bool {
	return t.kind == tokPunct && t.text[0] == p
}

// tokenize splits blanked text into identifiers and single punctuation marks.
func tokenize(text string) []tok {
	toks := make([]tok, 0, len(text)/4)
	line := 0
	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			line++
			i++
		case c == '\n':
			line++
			i++
		case c == ' ' || c == '\t' || c == '\f' || c == '\v':
			i++
		default:
			r, size := utf8.DecodeRuneInString(text[i:])
			if isIdentRune(r) {
				start := i
				for i < len(text) {
					r, size = utf8.DecodeRuneInString(text[i:])
					if !isIdentRune(r) {
						break
					}
					i += size
				}
				toks = append(toks, tok{kind: tokIdent, text: text[start:i], line: line})
				continue
			}
			if unicode.IsSpace(r) {
				i += size
				continue
			}
			toks = append(toks, tok{kind: tokPunct, text: text[i : i+size], line: line})
			i += size
		}
	}
	return toks
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// typeKeywords open a body that is never a method. Only "class" is reported.
var typeKeywords = map[string]Kind{
	"class":     KindClass,
	"interface": kindOther,
	"enum":      kindOther,
	"trigger":   kindOther,
}

// controlKeywords look like calls when followed by a parenthesised header.
var controlKeywords = map[string]struct{}{
	"if":     {},
	"for":    {},
	"while":  {},
	"switch": {},
	"catch":  {},
	"when":   {},
	"do":     {},
	"else":   {},
	"try":    {},
	"return": {},
	"new":    {},
}

type frame struct {
	kind       Kind
	enterDepth int
	index      int
}

type scanner struct {
	toks      []tok
	parens    []int
	fold      cases.Caser
	depth     int
	stack     []frame
	inMethod  int
	stmtStart int
	pending   *pendingDecl
	out       Boundaries
}

type pendingDecl struct {
	kind Kind
	line int
}

// Scan blanks text and reports class and method boundaries. Frames that never
// close end on the last line of text.
func Scan(text string) Boundaries {
	blanked := Blank(text)
	toks := tokenize(blanked)
	s := &scanner{
		toks:      toks,
		parens:    matchParens(toks),
		fold:      cases.Fold(),
		stmtStart: -1,
	}
	s.run()
	last := lastLine(blanked)
	for _, fr := range s.stack {
		if list := s.list(fr.kind); list != nil {
			(*list)[fr.index].End = last
		}
	}
	return s.out
}

func (s *scanner) run() {
	for i := 0; i < len(s.toks); i++ {
		t := s.toks[i]
		switch {
		case t.is('@'):
			i = s.skipAnnotation(i)
		case t.kind == tokIdent:
			if s.stmtStart < 0 {
				s.stmtStart = t.line
			}
			word := s.fold.String(t.text)
			if kind, ok := typeKeywords[word]; ok && !s.afterDot(i) {
				s.pending = &pendingDecl{kind: kind, line: s.stmtStart}
				continue
			}
			if brace, ok := s.methodHeader(i, word); ok {
				s.open(KindMethod, t.line)
				i = brace
			}
		case t.is('{'):
			if s.pending != nil {
				s.open(s.pending.kind, s.pending.line)
			} else {
				s.open(kindBlock, t.line)
			}
		case t.is('}'):
			s.close(t.line)
		case t.is(';'):
			s.stmtStart = -1
			s.pending = nil
		default:
			if s.stmtStart < 0 {
				s.stmtStart = t.line
			}
		}
	}
}

// methodHeader reports whether the identifier at i starts "name(...) {" and
// returns the index of the opening brace.
func (s *scanner) methodHeader(i int, word string) (int, bool) {
	if s.pending != nil || s.inMethod > 0 {
		return 0, false
	}
	if _, ok := controlKeywords[word]; ok {
		return 0, false
	}
	if i+1 >= len(s.toks) || !s.toks[i+1].is('(') {
		return 0, false
	}
	closing := s.matchParen(i + 1)
	if closing < 0 || closing+1 >= len(s.toks) || !s.toks[closing+1].is('{') {
		return 0, false
	}
	return closing + 1, true
}

// matchParen returns the index of the ')' balancing the '(' at i, or -1.
func (s *scanner) matchParen(i int) int {
	if i < 0 || i >= len(s.parens) {
		return -1
	}
	return s.parens[i]
}

// matchParens pairs every '(' with its ')' in one pass. A brace or semicolon
// ends every open group unmatched.
func matchParens(toks []tok) []int {
	match := make([]int, len(toks))
	var open []int
	for j, t := range toks {
		match[j] = -1
		switch {
		case t.is('('):
			open = append(open, j)
		case t.is(')'):
			if n := len(open); n > 0 {
				match[open[n-1]] = j
				open = open[:n-1]
			}
		case t.is('{'), t.is('}'), t.is(';'):
			open = open[:0]
		}
	}
	return match
}

// skipAnnotation consumes "@Name" and an optional argument list.
func (s *scanner) skipAnnotation(i int) int {
	if i+1 >= len(s.toks) || s.toks[i+1].kind != tokIdent {
		return i
	}
	i++
	if i+1 < len(s.toks) && s.toks[i+1].is('(') {
		if closing := s.matchParen(i + 1); closing > 0 {
			return closing
		}
	}
	return i
}

func (s *scanner) afterDot(i int) bool {
	return i > 0 && s.toks[i-1].is('.')
}

func (s *scanner) open(kind Kind, line int) {
	fr := frame{kind: kind, enterDepth: s.depth, index: -1}
	if list := s.list(kind); list != nil {
		*list = append(*list, Block{Start: line, End: -1})
		fr.index = len(*list) - 1
	}
	if kind == KindMethod {
		s.inMethod++
	}
	s.stack = append(s.stack, fr)
	s.depth++
	s.pending = nil
	s.stmtStart = -1
}

func (s *scanner) close(line int) {
	s.stmtStart = -1
	s.pending = nil
	if s.depth == 0 {
		return
	}
	s.depth--
	if len(s.stack) == 0 {
		return
	}
	top := s.stack[len(s.stack)-1]
	if top.enterDepth != s.depth {
		return
	}
	s.stack = s.stack[:len(s.stack)-1]
	if top.kind == KindMethod {
		s.inMethod--
	}
	if list := s.list(top.kind); list != nil {
		(*list)[top.index].End = line
		(*list)[top.index].Closed = true
	}
}

func (s *scanner) list(kind Kind) *[]Block {
	switch kind {
	case KindClass:
		return &s.out.Classes
	case KindMethod:
		return &s.out.Methods
	}
	return nil
}

func lastLine(text string) int {
	line := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			line++
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			line++
		}
	}
	return line
}
