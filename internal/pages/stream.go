// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pages

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// kerningSpace is the TJ adjustment (in thousandths of a text space unit)
// below which a gap is read as a word break.
const kerningSpace = -200

// lineEpsilon is the baseline movement below which text stays on one line.
const lineEpsilon = 0.01

type operandKind int

const (
	opNumber operandKind = iota
	opString
	opArray
	opOther
)

type operand struct {
	kind  operandKind
	num   float64
	str   []byte
	array []operand
}

// textWriter accumulates page text, breaking lines when the baseline moves.
type textWriter struct {
	b       strings.Builder
	lineY   float64
	leading float64
	lastY   float64
	haveY   bool
	newLine bool
	decoder *charmap.Charmap
}

func (w *textWriter) show(s []byte) {
	if len(s) == 0 {
		return
	}
	if w.b.Len() > 0 && (w.newLine || (w.haveY && math.Abs(w.lineY-w.lastY) > lineEpsilon)) {
		w.b.WriteByte('\n')
	}
	w.newLine = false
	w.lastY, w.haveY = w.lineY, true
	w.b.WriteString(decodeWinAnsi(w.decoder, s))
}

func (w *textWriter) nextLine() {
	w.lineY -= w.leading
	w.newLine = true
}

// streamText extracts text from a decoded page content stream.
func streamText(data []byte) string {
	w := &textWriter{decoder: charmap.Windows1252}
	lx := &lexer{data: data}
	var stack []operand

	for {
		tok, ok := lx.next()
		if !ok {
			break
		}
		if tok.op == "" {
			stack = append(stack, tok.operand)
			continue
		}
		apply(w, tok.op, stack)
		if tok.op == "ID" {
			lx.skipInlineImage()
		}
		stack = stack[:0]
	}
	return w.b.String()
}

func apply(w *textWriter, op string, args []operand) {
	num := func(i int) float64 {
		if i < 0 || i >= len(args) || args[i].kind != opNumber {
			return 0
		}
		return args[i].num
	}
	last := func() (operand, bool) {
		if len(args) == 0 {
			return operand{}, false
		}
		return args[len(args)-1], true
	}

	switch op {
	case "BT":
		w.lineY = 0
	case "TL":
		w.leading = num(len(args) - 1)
	case "Td":
		w.lineY += num(len(args) - 1)
	case "TD":
		ty := num(len(args) - 1)
		w.leading = -ty
		w.lineY += ty
	case "Tm":
		w.lineY = num(len(args) - 1)
	case "T*":
		w.nextLine()
	case "Tj":
		if a, ok := last(); ok && a.kind == opString {
			w.show(a.str)
		}
	case "'", "\"":
		w.nextLine()
		if a, ok := last(); ok && a.kind == opString {
			w.show(a.str)
		}
	case "TJ":
		a, ok := last()
		if !ok || a.kind != opArray {
			return
		}
		var line []byte
		for _, el := range a.array {
			switch el.kind {
			case opString:
				line = append(line, el.str...)
			case opNumber:
				if el.num < kerningSpace && len(line) > 0 && line[len(line)-1] != ' ' {
					line = append(line, ' ')
				}
			}
		}
		w.show(line)
	}
}

// decodeWinAnsi maps bytes through Windows-1252, the encoding of standard
// PDF fonts; ASCII passes through unchanged.
func decodeWinAnsi(cm *charmap.Charmap, s []byte) string {
	ascii := true
	for _, c := range s {
		if c >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(s)
	}
	out, err := cm.NewDecoder().Bytes(s)
	if err != nil {
		return string(s)
	}
	return string(out)
}

// token is either an operator (op != "") or an operand.
type token struct {
	op      string
	operand operand
}

// lexer tokenizes a PDF content stream.
type lexer struct {
	data []byte
	pos  int
}

func isSpace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelim(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		switch {
		case isSpace(c):
			l.pos++
		case c == '%':
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *lexer) next() (token, bool) {
	l.skipSpace()
	if l.pos >= len(l.data) {
		return token{}, false
	}
	c := l.data[l.pos]
	switch {
	case c == '(':
		l.pos++
		return token{operand: operand{kind: opString, str: l.literal()}}, true
	case c == '<' && l.peek(1) == '<', c == '>' && l.peek(1) == '>':
		l.pos += 2
		return token{operand: operand{kind: opOther}}, true
	case c == '<':
		l.pos++
		return token{operand: operand{kind: opString, str: l.hex()}}, true
	case c == '[':
		l.pos++
		return token{operand: operand{kind: opArray, array: l.array()}}, true
	case c == '/':
		l.pos++
		l.regular()
		return token{operand: operand{kind: opOther}}, true
	case isDelim(c):
		l.pos++
		return token{operand: operand{kind: opOther}}, true
	}

	word := l.regular()
	if n, err := strconv.ParseFloat(word, 64); err == nil {
		return token{operand: operand{kind: opNumber, num: n}}, true
	}
	return token{op: word}, true
}

func (l *lexer) peek(off int) byte {
	if l.pos+off < len(l.data) {
		return l.data[l.pos+off]
	}
	return 0
}

// regular reads a run of regular characters.
func (l *lexer) regular() string {
	start := l.pos
	for l.pos < len(l.data) && !isSpace(l.data[l.pos]) && !isDelim(l.data[l.pos]) {
		l.pos++
	}
	if l.pos == start && l.pos < len(l.data) {
		l.pos++
	}
	return string(l.data[start:l.pos])
}

// literal reads a literal string body after its opening parenthesis.
func (l *lexer) literal() []byte {
	var out []byte
	depth := 1
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		switch c {
		case '(':
			depth++
			out = append(out, c)
		case ')':
			depth--
			if depth == 0 {
				return out
			}
			out = append(out, c)
		case '\\':
			if l.pos >= len(l.data) {
				return out
			}
			e := l.data[l.pos]
			l.pos++
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\r':
				if l.pos < len(l.data) && l.data[l.pos] == '\n' {
					l.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && l.pos < len(l.data) && l.data[l.pos] >= '0' && l.data[l.pos] <= '7'; i++ {
						v = v*8 + int(l.data[l.pos]-'0')
						l.pos++
					}
					out = append(out, byte(v))
				} else {
					out = append(out, e)
				}
			}
		default:
			out = append(out, c)
		}
	}
	return out
}

// hex reads a hex string body after its opening angle bracket.
func (l *lexer) hex() []byte {
	var digits []byte
	for l.pos < len(l.data) && l.data[l.pos] != '>' {
		if c := l.data[l.pos]; !isSpace(c) {
			digits = append(digits, c)
		}
		l.pos++
	}
	l.pos++
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, 0, len(digits)/2)
	for i := 0; i < len(digits); i += 2 {
		v, err := strconv.ParseUint(string(digits[i:i+2]), 16, 8)
		if err != nil {
			continue
		}
		out = append(out, byte(v))
	}
	return out
}

// array reads array elements after the opening bracket.
func (l *lexer) array() []operand {
	var out []operand
	for {
		l.skipSpace()
		if l.pos >= len(l.data) {
			return out
		}
		if l.data[l.pos] == ']' {
			l.pos++
			return out
		}
		tok, ok := l.next()
		if !ok {
			return out
		}
		if tok.op == "" {
			out = append(out, tok.operand)
		}
	}
}

// skipInlineImage moves past inline image data up to and including the
// EI operator.
func (l *lexer) skipInlineImage() {
	if l.pos < len(l.data) && isSpace(l.data[l.pos]) {
		l.pos++
	}
	for i := l.pos; i+2 <= len(l.data); i++ {
		if !bytes.HasPrefix(l.data[i:], []byte("EI")) {
			continue
		}
		before := i == 0 || isSpace(l.data[i-1])
		after := i+2 == len(l.data) || isSpace(l.data[i+2]) || isDelim(l.data[i+2])
		if before && after {
			l.pos = i + 2
			return
		}
	}
	l.pos = len(l.data)
}
