package scope

import (
	"strings"
	"unicode/utf8"
)

type blankState uint8

const (
	stateCode blankState = iota
	stateLineComment
	stateBlockComment
	stateString
)

// Blank replaces every character of line comments, block comments and
// single-quoted string literals with spaces. Line terminators are kept
// verbatim, so line numbers and UTF-16 columns are unchanged: a character
// outside the BMP turns into two spaces.
//
// Inside a literal a backslash escapes the next character. An unterminated
// block comment or literal runs to the end of the text.
func Blank(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	state := stateCode
	for i := 0; i < len(text); {
		c := text[i]
		if c == '\n' || c == '\r' {
			if state == stateLineComment {
				state = stateCode
			}
			b.WriteByte(c)
			i++
			continue
		}

		switch state {
		case stateCode:
			if c == '/' && i+1 < len(text) {
				switch text[i+1] {
				case '/':
					state = stateLineComment
					b.WriteString("  ")
					i += 2
					continue
				case '*':
					state = stateBlockComment
					b.WriteString("  ")
					i += 2
					continue
				}
			}
			if c == '\'' {
				state = stateString
				b.WriteByte(' ')
				i++
				continue
			}
			b.WriteByte(c)
			i++

		case stateLineComment:
			i += blankRune(&b, text[i:])

		case stateBlockComment:
			if c == '*' && i+1 < len(text) && text[i+1] == '/' {
				b.WriteString("  ")
				i += 2
				state = stateCode
				continue
			}
			i += blankRune(&b, text[i:])

		case stateString:
			switch c {
			case '\\':
				b.WriteByte(' ')
				i++
				if i < len(text) && text[i] != '\n' && text[i] != '\r' {
					i += blankRune(&b, text[i:])
				}
			case '\'':
				state = stateCode
				b.WriteByte(' ')
				i++
			default:
				i += blankRune(&b, text[i:])
			}
		}
	}
	return b.String()
}

// blankRune writes one space per UTF-16 unit of the leading rune of s and
// returns its size in bytes.
func blankRune(b *strings.Builder, s string) int {
	r, size := utf8.DecodeRuneInString(s)
	b.WriteByte(' ')
	if r > 0xFFFF {
		b.WriteByte(' ')
	}
	return size
}
