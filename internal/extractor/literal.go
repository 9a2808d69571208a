package extractor

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Parsed literal values: string, number, bool, nil, identifier, []any, object.
type (
	number     string
	identifier string
	object     map[string]any
)

// literalParser reads the JavaScript literal subset used for catalog data:
// objects with bare or quoted keys, arrays, strings in any quote style,
// numbers, true/false/null, bare identifiers, comments and trailing commas.
type literalParser struct {
	src string
	pos int
}

func (p *literalParser) eof() bool { return p.pos >= len(p.src) }

func (p *literalParser) errorf(msg string) error {
	return &SyntaxError{Offset: p.pos, Msg: msg}
}

func (p *literalParser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			p.pos++
			continue
		case '/':
			if next, ok := skipLiteral(p.src, p.pos); ok {
				p.pos = next
				continue
			}
		}
		return
	}
}

func (p *literalParser) value() (any, error) {
	p.skipSpace()
	if p.eof() {
		return nil, p.errorf("unexpected end of input")
	}
	switch c := p.src[p.pos]; {
	case c == '{':
		return p.object()
	case c == '[':
		return p.array()
	case c == '"' || c == '\'' || c == '`':
		return p.str()
	case c == '-' || c == '+' || c == '.' || isDigit(c):
		return p.number()
	case isIdentStart(c):
		return p.ident()
	default:
		return nil, p.errorf("unexpected character " + strconv.QuoteRune(rune(c)))
	}
}

func (p *literalParser) object() (any, error) {
	p.pos++ // {
	obj := object{}
	for {
		p.skipSpace()
		if p.eof() {
			return nil, p.errorf("unterminated object")
		}
		if p.src[p.pos] == '}' {
			p.pos++
			return obj, nil
		}
		key, err := p.key()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.eof() || p.src[p.pos] != ':' {
			return nil, p.errorf("expected ':' after key " + strconv.Quote(key))
		}
		p.pos++
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		obj[key] = v
		if err := p.separator('}'); err != nil {
			return nil, err
		}
	}
}

func (p *literalParser) key() (string, error) {
	c := p.src[p.pos]
	switch {
	case c == '"' || c == '\'' || c == '`':
		v, err := p.str()
		if err != nil {
			return "", err
		}
		return v.(string), nil
	case isDigit(c):
		v, err := p.number()
		if err != nil {
			return "", err
		}
		return string(v.(number)), nil
	case isIdentStart(c):
		start := p.pos
		for !p.eof() && isIdentPart(p.src[p.pos]) {
			p.pos++
		}
		return p.src[start:p.pos], nil
	}
	return "", p.errorf("expected object key")
}

func (p *literalParser) array() (any, error) {
	p.pos++ // [
	list := []any{}
	for {
		p.skipSpace()
		if p.eof() {
			return nil, p.errorf("unterminated array")
		}
		if p.src[p.pos] == ']' {
			p.pos++
			return list, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		list = append(list, v)
		if err := p.separator(']'); err != nil {
			return nil, err
		}
	}
}

// separator consumes a ',' or leaves the closing delimiter in place.
func (p *literalParser) separator(closing byte) error {
	p.skipSpace()
	if p.eof() {
		return p.errorf("unexpected end of input")
	}
	switch p.src[p.pos] {
	case ',':
		p.pos++
		return nil
	case closing:
		return nil
	}
	return p.errorf("expected ',' or " + strconv.QuoteRune(rune(closing)))
}

// elementEnd checks that a top-level element is followed by ',' or the end
// of the block, without consuming anything.
func (p *literalParser) elementEnd() error {
	p.skipSpace()
	if p.eof() || p.src[p.pos] == ',' {
		return nil
	}
	return p.errorf("expected ',' after array element")
}

func (p *literalParser) str() (any, error) {
	quote := p.src[p.pos]
	p.pos++
	var sb strings.Builder
	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return sb.String(), nil
		case c == '\\':
			if err := p.escape(&sb); err != nil {
				return nil, err
			}
		case quote == '`' && c == '$' && strings.HasPrefix(p.src[p.pos:], "${"):
			return nil, p.errorf("template substitution is not a literal")
		case (c == '\n' || c == '\r') && quote != '`':
			return nil, p.errorf("newline in string literal")
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
	return nil, p.errorf("unterminated string")
}

func (p *literalParser) escape(sb *strings.Builder) error {
	p.pos++ // backslash
	if p.eof() {
		return p.errorf("unterminated escape")
	}
	c := p.src[p.pos]
	p.pos++
	switch c {
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'v':
		sb.WriteByte('\v')
	case '0':
		sb.WriteByte(0)
	case '\n':
		// line continuation
	case 'u':
		r, err := p.unicodeEscape()
		if err != nil {
			return err
		}
		sb.WriteRune(r)
	case 'x':
		if p.pos+2 > len(p.src) {
			return p.errorf("short \\x escape")
		}
		n, err := strconv.ParseUint(p.src[p.pos:p.pos+2], 16, 8)
		if err != nil {
			return p.errorf("bad \\x escape")
		}
		p.pos += 2
		sb.WriteRune(rune(n))
	default:
		sb.WriteByte(c)
	}
	return nil
}

func (p *literalParser) unicodeEscape() (rune, error) {
	if !p.eof() && p.src[p.pos] == '{' {
		end := strings.IndexByte(p.src[p.pos:], '}')
		if end < 0 {
			return 0, p.errorf("unterminated \\u{} escape")
		}
		n, err := strconv.ParseUint(p.src[p.pos+1:p.pos+end], 16, 32)
		if err != nil || !utf8.ValidRune(rune(n)) {
			return 0, p.errorf("bad \\u{} escape")
		}
		p.pos += end + 1
		return rune(n), nil
	}
	if p.pos+4 > len(p.src) {
		return 0, p.errorf("short \\u escape")
	}
	n, err := strconv.ParseUint(p.src[p.pos:p.pos+4], 16, 16)
	if err != nil {
		return 0, p.errorf("bad \\u escape")
	}
	p.pos += 4
	r := rune(n)
	// surrogate pair
	if r >= 0xD800 && r < 0xDC00 && strings.HasPrefix(p.src[p.pos:], `\u`) && p.pos+6 <= len(p.src) {
		if lo, err := strconv.ParseUint(p.src[p.pos+2:p.pos+6], 16, 16); err == nil && lo >= 0xDC00 && lo < 0xE000 {
			p.pos += 6
			return (r-0xD800)<<10 + (rune(lo) - 0xDC00) + 0x10000, nil
		}
	}
	return r, nil
}

func (p *literalParser) number() (any, error) {
	start := p.pos
	if c := p.src[p.pos]; c == '-' || c == '+' {
		p.pos++
	}
	for !p.eof() {
		c := p.src[p.pos]
		if isDigit(c) || c == '.' || c == '_' || c == 'e' || c == 'E' || c == 'x' || c == 'X' ||
			(c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') {
			p.pos++
			continue
		}
		if (c == '-' || c == '+') && (p.src[p.pos-1] == 'e' || p.src[p.pos-1] == 'E') {
			p.pos++
			continue
		}
		break
	}
	text := strings.ReplaceAll(p.src[start:p.pos], "_", "")
	if _, err := strconv.ParseFloat(text, 64); err != nil {
		if _, err := strconv.ParseInt(text, 0, 64); err != nil {
			p.pos = start
			return nil, p.errorf("bad number " + strconv.Quote(text))
		}
	}
	return number(text), nil
}

func (p *literalParser) ident() (any, error) {
	start := p.pos
	for !p.eof() && (isIdentPart(p.src[p.pos]) || p.src[p.pos] == '.') {
		p.pos++
	}
	switch name := p.src[start:p.pos]; name {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null", "undefined":
		return nil, nil
	default:
		p.skipSpace()
		if !p.eof() && (p.src[p.pos] == '(' || p.src[p.pos] == '=') {
			return nil, p.errorf("expression is not a literal")
		}
		return identifier(name), nil
	}
}

// resync moves to the next ',' at nesting depth zero, or to the end.
func (p *literalParser) resync(from int) {
	depth := 0
	for i := from; i < len(p.src); {
		if next, ok := skipLiteral(p.src, i); ok {
			i = next
			continue
		}
		switch p.src[i] {
		case '[', '{', '(':
			depth++
		case ']', '}', ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				p.pos = i
				return
			}
		}
		i++
	}
	p.pos = len(p.src)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= utf8.RuneSelf
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }
