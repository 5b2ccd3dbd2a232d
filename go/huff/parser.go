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
	"math/big"
	"strconv"
	"strings"

	geth "github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"
)

// Parse parses the given macro assembly source.
func Parse(source string) (*Program, error) {
	tokens, err := tokenize(source)
	if err != nil {
		return nil, err
	}
	p := &parser{
		tokens: tokens,
		program: &Program{
			macros:    map[string]*Macro{},
			constants: map[string]*uint256.Int{},
		},
	}
	for p.peek().kind != tkEOF {
		if err := p.parseDefinition(); err != nil {
			return nil, err
		}
	}
	return p.program, nil
}

type parser struct {
	tokens  []token
	next    int
	program *Program
}

func (p *parser) peek() token {
	return p.tokens[p.next]
}

// peekAt looks ahead n tokens, sticking to the trailing EOF token.
func (p *parser) peekAt(n int) token {
	return p.tokens[min(p.next+n, len(p.tokens)-1)]
}

func (p *parser) consume() token {
	res := p.tokens[p.next]
	if res.kind != tkEOF {
		p.next++
	}
	return res
}

func (p *parser) expect(kind tokenKind) (token, error) {
	tok := p.consume()
	if tok.kind != kind {
		return tok, unexpected(tok, kind.String())
	}
	return tok, nil
}

func (p *parser) expectKeyword(keyword string) error {
	tok := p.consume()
	if tok.kind != tkIdent || tok.text != keyword {
		return unexpected(tok, fmt.Sprintf("'%s'", keyword))
	}
	return nil
}

func unexpected(tok token, want string) error {
	got := tok.kind.String()
	if tok.kind == tkIdent || tok.kind == tkNumber {
		got = fmt.Sprintf("%s %q", got, tok.text)
	}
	return &Error{Pos: tok.pos, Msg: fmt.Sprintf("expected %s, got %s", want, got)}
}

func (p *parser) parseDefinition() error {
	if _, err := p.expect(tkDefine); err != nil {
		return err
	}
	kind, err := p.expect(tkIdent)
	if err != nil {
		return err
	}
	switch kind.text {
	case "constant":
		return p.parseConstant()
	case "macro":
		return p.parseMacro()
	default:
		return unexpected(kind, "'constant' or 'macro'")
	}
}

// parseConstant parses `NAME = <number>`.
func (p *parser) parseConstant() error {
	name, err := p.expect(tkIdent)
	if err != nil {
		return err
	}
	if _, err := p.expect(tkEquals); err != nil {
		return err
	}
	number, err := p.expect(tkNumber)
	if err != nil {
		return err
	}
	value, err := parseNumber(number)
	if err != nil {
		return err
	}
	if _, found := p.program.constants[name.text]; found {
		return &Error{Pos: name.pos, Msg: fmt.Sprintf("constant %s redefined", name.text)}
	}
	p.program.constants[name.text] = value
	return nil
}

// parseMacro parses `NAME = takes(n) returns(m) { body }`.
func (p *parser) parseMacro() error {
	name, err := p.expect(tkIdent)
	if err != nil {
		return err
	}
	if _, found := p.program.macros[name.text]; found {
		return &Error{Pos: name.pos, Msg: fmt.Sprintf("macro %s redefined", name.text)}
	}
	if _, err := p.expect(tkEquals); err != nil {
		return err
	}
	takes, err := p.parseArity("takes")
	if err != nil {
		return err
	}
	returns, err := p.parseArity("returns")
	if err != nil {
		return err
	}
	if _, err := p.expect(tkLBrace); err != nil {
		return err
	}

	macro := &Macro{
		Name:    name.text,
		Takes:   takes,
		Returns: returns,
		Pos:     name.pos,
	}
	for p.peek().kind != tkRBrace {
		statement, err := p.parseStatement()
		if err != nil {
			return err
		}
		macro.Body = append(macro.Body, statement)
	}
	p.consume()

	p.program.macros[macro.Name] = macro
	return nil
}

func (p *parser) parseArity(keyword string) (int, error) {
	if err := p.expectKeyword(keyword); err != nil {
		return 0, err
	}
	if _, err := p.expect(tkLParen); err != nil {
		return 0, err
	}
	number, err := p.expect(tkNumber)
	if err != nil {
		return 0, err
	}
	value, err := parseNumber(number)
	if err != nil {
		return 0, err
	}
	if !value.IsUint64() || value.Uint64() > 1024 {
		return 0, &Error{Pos: number.pos, Msg: fmt.Sprintf("%s(%s) exceeds the stack limit", keyword, number.text)}
	}
	if _, err := p.expect(tkRParen); err != nil {
		return 0, err
	}
	return int(value.Uint64()), nil
}

func (p *parser) parseStatement() (Statement, error) {
	tok := p.consume()
	switch tok.kind {
	case tkNumber:
		value, err := parseNumber(tok)
		if err != nil {
			return Statement{}, err
		}
		return Statement{Kind: LiteralStatement, Value: value, Pos: tok.pos}, nil

	case tkLBracket:
		name, err := p.expect(tkIdent)
		if err != nil {
			return Statement{}, err
		}
		if _, err := p.expect(tkRBracket); err != nil {
			return Statement{}, err
		}
		return Statement{Kind: ConstantStatement, Name: name.text, Pos: tok.pos}, nil

	case tkIdent:
		switch p.peek().kind {
		case tkColon:
			p.consume()
			return Statement{Kind: LabelStatement, Name: tok.text, Pos: tok.pos}, nil
		case tkLParen:
			if p.peekAt(1).kind != tkRParen {
				return Statement{}, &Error{Pos: p.peekAt(1).pos, Msg: "macro arguments are not supported"}
			}
			p.consume()
			p.consume()
			return Statement{Kind: MacroCallStatement, Name: tok.text, Pos: tok.pos}, nil
		}
		op, isOp, err := lookupOpCode(tok)
		if err != nil {
			return Statement{}, err
		}
		if isOp {
			return Statement{Kind: OpStatement, Op: op, Pos: tok.pos}, nil
		}
		return Statement{Kind: LabelRefStatement, Name: tok.text, Pos: tok.pos}, nil

	case tkEOF:
		return Statement{}, &Error{Pos: tok.pos, Msg: "unterminated macro body"}
	}
	return Statement{}, unexpected(tok, "statement")
}

// opCodeAliases maps legacy mnemonics to their current names.
var opCodeAliases = map[string]string{
	"SHA3":    "KECCAK256",
	"SUICIDE": "SELFDESTRUCT",
}

// lookupOpCode resolves an identifier to an opcode. Identifiers not naming
// an opcode are label references. Explicit PUSH1..PUSH32 mnemonics are
// rejected since their immediate data is produced from literals.
func lookupOpCode(tok token) (geth.OpCode, bool, error) {
	name := strings.ToUpper(tok.text)
	if alias, found := opCodeAliases[name]; found {
		name = alias
	}
	op := geth.StringToOp(name)
	if op == geth.STOP && name != "STOP" {
		return 0, false, nil
	}
	if geth.PUSH1 <= op && op <= geth.PUSH32 {
		return 0, false, &Error{Pos: tok.pos, Msg: fmt.Sprintf("explicit %s is not supported, use a literal", tok.text)}
	}
	return op, true, nil
}

func parseNumber(tok token) (*uint256.Int, error) {
	text := tok.text
	base := 10
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		text = text[2:]
		base = 16
	}
	parsed, ok := new(big.Int).SetString(text, base)
	if !ok || text == "" {
		return nil, &Error{Pos: tok.pos, Msg: fmt.Sprintf("invalid number %s", strconv.Quote(tok.text))}
	}
	value, overflow := uint256.FromBig(parsed)
	if overflow {
		return nil, &Error{Pos: tok.pos, Msg: fmt.Sprintf("number %s exceeds 256 bits", tok.text)}
	}
	return value, nil
}
