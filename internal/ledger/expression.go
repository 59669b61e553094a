package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// maxExprDepth bounds parenthesis nesting.
const maxExprDepth = 32

// ParseAmount evaluates user input for a transaction amount. The input is
// either a plain number ("1250.50") or an arithmetic expression over numbers
// using only + - * / ( ) and '.', e.g. "(120 + 80) * 3". The result must be
// strictly positive.
func ParseAmount(input string) (decimal.Decimal, error) {
	v, err := EvaluateExpression(input)
	if err != nil {
		return decimal.Zero, invalid("amount", err)
	}
	if !v.IsPositive() {
		return decimal.Zero, invalid("amount", ErrInvalidAmount)
	}
	return v, nil
}

// ParseBalance is ParseAmount without the sign restriction. An empty input
// is zero.
func ParseBalance(input string) (decimal.Decimal, error) {
	if strings.TrimSpace(input) == "" {
		return decimal.Zero, nil
	}
	v, err := EvaluateExpression(input)
	if err != nil {
		return decimal.Zero, invalid("opening balance", err)
	}
	return v, nil
}

// EvaluateExpression evaluates an arithmetic expression with the usual
// precedence (* / bind tighter than + -). Any character outside digits,
// '.', whitespace and + - * / ( ) is rejected before parsing starts.
func EvaluateExpression(expr string) (decimal.Decimal, error) {
	for i, ch := range expr {
		if !allowedExprChar(ch) {
			return decimal.Zero, fmt.Errorf("%w: unexpected character %q at position %d", ErrInvalidExpression, ch, i)
		}
	}

	p := &exprParser{input: expr}
	if p.isAtEnd() {
		return decimal.Zero, fmt.Errorf("%w: empty input", ErrInvalidExpression)
	}

	result, err := p.parseExpr(0)
	if err != nil {
		return decimal.Zero, err
	}
	if !p.isAtEnd() {
		return decimal.Zero, fmt.Errorf("%w: unexpected %q at position %d", ErrInvalidExpression, p.peek(), p.pos)
	}
	return result, nil
}

func allowedExprChar(ch rune) bool {
	switch {
	case ch >= '0' && ch <= '9':
		return true
	case ch == '.' || ch == ' ' || ch == '\t':
		return true
	case ch == '+' || ch == '-' || ch == '*' || ch == '/':
		return true
	case ch == '(' || ch == ')':
		return true
	}
	return false
}

type exprParser struct {
	input string
	pos   int
	depth int
}

func (p *exprParser) skipWhitespace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *exprParser) isAtEnd() bool {
	p.skipWhitespace()
	return p.pos >= len(p.input)
}

func (p *exprParser) peek() byte {
	p.skipWhitespace()
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *exprParser) advance() byte {
	ch := p.peek()
	if ch != 0 {
		p.pos++
	}
	return ch
}

func (p *exprParser) parseNumber() (decimal.Decimal, error) {
	p.skipWhitespace()
	start := p.pos
	foundDigit, foundDot := false, false

	for p.pos < len(p.input) {
		ch := p.input[p.pos]
		if ch >= '0' && ch <= '9' {
			foundDigit = true
		} else if ch == '.' && !foundDot {
			foundDot = true
		} else {
			break
		}
		p.pos++
	}

	if !foundDigit {
		return decimal.Zero, fmt.Errorf("%w: expected number at position %d", ErrInvalidExpression, start)
	}
	num, err := decimal.NewFromString(p.input[start:p.pos])
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}
	return num, nil
}

// parsePrimary handles a number, a parenthesized expression or a run of
// unary minus signs.
func (p *exprParser) parsePrimary() (decimal.Decimal, error) {
	switch p.peek() {
	case '(':
		p.advance()
		p.depth++
		if p.depth > maxExprDepth {
			return decimal.Zero, fmt.Errorf("%w: nesting too deep", ErrInvalidExpression)
		}
		v, err := p.parseExpr(0)
		if err != nil {
			return decimal.Zero, err
		}
		if p.peek() != ')' {
			return decimal.Zero, fmt.Errorf("%w: expected ')' at position %d", ErrInvalidExpression, p.pos)
		}
		p.advance()
		p.depth--
		return v, nil
	case '-':
		neg := false
		for p.peek() == '-' {
			p.advance()
			neg = !neg
		}
		v, err := p.parsePrimary()
		if err != nil {
			return decimal.Zero, err
		}
		if neg {
			v = v.Neg()
		}
		return v, nil
	}
	return p.parseNumber()
}

// parseExpr is a Pratt loop over binary operators.
func (p *exprParser) parseExpr(minPrec int) (decimal.Decimal, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return decimal.Zero, err
	}

	for {
		op := p.peek()
		if !isOperator(op) {
			break
		}
		prec := precedence(op)
		if prec < minPrec {
			break
		}
		p.advance()

		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return decimal.Zero, err
		}
		if left, err = applyOp(left, op, right); err != nil {
			return decimal.Zero, err
		}
	}
	return left, nil
}

func isOperator(ch byte) bool {
	return ch == '+' || ch == '-' || ch == '*' || ch == '/'
}

func precedence(op byte) int {
	switch op {
	case '+', '-':
		return 1
	case '*', '/':
		return 2
	}
	return 0
}

func applyOp(left decimal.Decimal, op byte, right decimal.Decimal) (decimal.Decimal, error) {
	switch op {
	case '+':
		return left.Add(right), nil
	case '-':
		return left.Sub(right), nil
	case '*':
		return left.Mul(right), nil
	case '/':
		if right.IsZero() {
			return decimal.Zero, fmt.Errorf("%w: division by zero", ErrInvalidExpression)
		}
		return left.Div(right), nil
	}
	return decimal.Zero, fmt.Errorf("%w: unknown operator %c", ErrInvalidExpression, op)
}
