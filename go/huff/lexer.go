// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package huff

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tkEOF tokenKind = iota
	tkDefine
	tkIdent
	tkNumber
	tkLParen
	tkRParen
	tkLBrace
	tkRBrace
	tkLBracket
	tkRBracket
	tkEquals
	tkColon
)

func (k tokenKind) String() string {
	switch k {
	case tkEOF:
		return "end of input"
	case tkDefine:
		return "#define"
	case tkIdent:
		return "identifier"
	case tkNumber:
		return "number"
	case tkLParen:
		return "'('"
	case tkRParen:
		return "')'"
	case tkLBrace:
		return "'{'"
	case tkRBrace:
		return "'}'"
	case tkLBracket:
		return "'['"
	case tkRBracket:
		return "']'"
	case tkEquals:
		return "'='"
	case tkColon:
		return "':'"
	default:
		return fmt.Sprintf("token(%d)", int(k))
	}
}

// Position locates a token in the source, 1-based.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

type token struct {
	kind tokenKind
	text string
	pos  Position
}

// tokenize splits the source into tokens, dropping white space and both
// line (//) and block (/* */) comments.
func tokenize(source string) ([]token, error) {
	var tokens []token
	line, column := 1, 1
	advance := func(n int) {
		for _, c := range source[:n] {
			if c == '\n' {
				line++
				column = 1
			} else {
				column++
			}
		}
		source = source[n:]
	}

	for len(source) > 0 {
		pos := Position{Line: line, Column: column}
		c := source[0]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			advance(1)
		case strings.HasPrefix(source, "//"):
			end := strings.IndexByte(source, '\n')
			if end < 0 {
				end = len(source)
			}
			advance(end)
		case strings.HasPrefix(source, "/*"):
			end := strings.Index(source[2:], "*/")
			if end < 0 {
				return nil, &Error{Pos: pos, Msg: "unterminated block comment"}
			}
			advance(end + 4)
		case c == '#':
			n := identLength(source[1:])
			if word := source[1 : 1+n]; word != "define" {
				return nil, &Error{Pos: pos, Msg: fmt.Sprintf("unknown directive #%s", word)}
			}
			tokens = append(tokens, token{kind: tkDefine, text: "#define", pos: pos})
			advance(1 + n)
		case isDigit(c):
			n := identLength(source)
			tokens = append(tokens, token{kind: tkNumber, text: source[:n], pos: pos})
			advance(n)
		case isIdentStart(c):
			n := identLength(source)
			tokens = append(tokens, token{kind: tkIdent, text: source[:n], pos: pos})
			advance(n)
		default:
			kind, ok := punctuation[c]
			if !ok {
				return nil, &Error{Pos: pos, Msg: fmt.Sprintf("unexpected character %q", c)}
			}
			tokens = append(tokens, token{kind: kind, text: string(c), pos: pos})
			advance(1)
		}
	}
	return append(tokens, token{kind: tkEOF, pos: Position{Line: line, Column: column}}), nil
}

var punctuation = map[byte]tokenKind{
	'(': tkLParen,
	')': tkRParen,
	'{': tkLBrace,
	'}': tkRBrace,
	'[': tkLBracket,
	']': tkRBracket,
	'=': tkEquals,
	':': tkColon,
}

func identLength(s string) int {
	n := 0
	for n < len(s) && (isIdentStart(s[n]) || isDigit(s[n])) {
		n++
	}
	return n
}

func isIdentStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
