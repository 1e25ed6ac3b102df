package step

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokKeyword
	tokRef
	tokInteger
	tokReal
	tokString
	tokEnum
	tokBinary
	tokDollar
	tokStar
	tokLParen
	tokRParen
	tokComma
	tokEquals
	tokSemi
)

var tokenNames = map[tokenKind]string{
	tokEOF:     "end of file",
	tokKeyword: "keyword",
	tokRef:     "instance reference",
	tokInteger: "integer",
	tokReal:    "real",
	tokString:  "string",
	tokEnum:    "enumeration",
	tokBinary:  "binary",
	tokDollar:  "'$'",
	tokStar:    "'*'",
	tokLParen:  "'('",
	tokRParen:  "')'",
	tokComma:   "','",
	tokEquals:  "'='",
	tokSemi:    "';'",
}

func (k tokenKind) String() string { return tokenNames[k] }

type token struct {
	kind tokenKind
	text string // keyword, enum name, decoded string, binary digits, number literal
	line int
	col  int
}

type lexer struct {
	src  []byte
	pos  int
	line int
	col  int
}

func newLexer(src []byte) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

func (l *lexer) errorf(line, col int, format string, args ...any) error {
	return newSyntaxError(line, col, format, args...)
}

func (l *lexer) peekByte(off int) byte {
	if l.pos+off < len(l.src) {
		return l.src[l.pos+off]
	}
	return 0
}

func (l *lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

// skipSpace skips whitespace and /* */ comments.
func (l *lexer) skipSpace() error {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance()
		case c == '/' && l.peekByte(1) == '*':
			line, col := l.line, l.col
			l.advance()
			l.advance()
			for {
				if l.pos >= len(l.src) {
					return l.errorf(line, col, "unterminated comment")
				}
				if l.src[l.pos] == '*' && l.peekByte(1) == '/' {
					l.advance()
					l.advance()
					break
				}
				l.advance()
			}
		default:
			return nil
		}
	}
	return nil
}

func (l *lexer) next() (token, error) {
	if err := l.skipSpace(); err != nil {
		return token{}, err
	}
	line, col := l.line, l.col
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, line: line, col: col}, nil
	}
	c := l.src[l.pos]
	simple := func(k tokenKind) (token, error) {
		l.advance()
		return token{kind: k, text: string(c), line: line, col: col}, nil
	}
	switch {
	case c == '(':
		return simple(tokLParen)
	case c == ')':
		return simple(tokRParen)
	case c == ',':
		return simple(tokComma)
	case c == '=':
		return simple(tokEquals)
	case c == ';':
		return simple(tokSemi)
	case c == '$':
		return simple(tokDollar)
	case c == '*':
		return simple(tokStar)
	case c == '#':
		l.advance()
		start := l.pos
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.advance()
		}
		if start == l.pos {
			return token{}, l.errorf(line, col, "expected digits after '#'")
		}
		return token{kind: tokRef, text: string(l.src[start:l.pos]), line: line, col: col}, nil
	case c == '\'':
		s, err := l.lexString()
		if err != nil {
			return token{}, err
		}
		return token{kind: tokString, text: s, line: line, col: col}, nil
	case c == '"':
		l.advance()
		start := l.pos
		for l.pos < len(l.src) && l.src[l.pos] != '"' {
			if !isHex(l.src[l.pos]) {
				return token{}, l.errorf(l.line, l.col, "invalid binary digit %q", l.src[l.pos])
			}
			l.advance()
		}
		if l.pos >= len(l.src) {
			return token{}, l.errorf(line, col, "unterminated binary")
		}
		text := string(l.src[start:l.pos])
		l.advance()
		return token{kind: tokBinary, text: text, line: line, col: col}, nil
	case c == '.' && isEnumStart(l.peekByte(1)):
		l.advance()
		start := l.pos
		for l.pos < len(l.src) && (isAlnum(l.src[l.pos]) || l.src[l.pos] == '_') {
			l.advance()
		}
		if l.pos >= len(l.src) || l.src[l.pos] != '.' {
			return token{}, l.errorf(line, col, "unterminated enumeration")
		}
		text := string(l.src[start:l.pos])
		l.advance()
		return token{kind: tokEnum, text: text, line: line, col: col}, nil
	case isDigit(c) || ((c == '-' || c == '+') && isDigit(l.peekByte(1))):
		return l.lexNumber(line, col)
	case isAlpha(c) || c == '_' || c == '!':
		start := l.pos
		l.advance()
		for l.pos < len(l.src) && (isAlnum(l.src[l.pos]) || l.src[l.pos] == '_' || l.src[l.pos] == '-') {
			l.advance()
		}
		return token{kind: tokKeyword, text: string(l.src[start:l.pos]), line: line, col: col}, nil
	}
	return token{}, l.errorf(line, col, "unexpected character %q", c)
}

func (l *lexer) lexNumber(line, col int) (token, error) {
	start := l.pos
	isReal := false
	if c := l.src[l.pos]; c == '-' || c == '+' {
		l.advance()
	}
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.advance()
	}
	if l.pos < len(l.src) && l.src[l.pos] == '.' {
		isReal = true
		l.advance()
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.advance()
		}
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'E' || l.src[l.pos] == 'e') {
		isReal = true
		l.advance()
		if l.pos < len(l.src) && (l.src[l.pos] == '-' || l.src[l.pos] == '+') {
			l.advance()
		}
		digits := l.pos
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.advance()
		}
		if digits == l.pos {
			return token{}, l.errorf(line, col, "malformed exponent in %q", string(l.src[start:l.pos]))
		}
	}
	text := string(l.src[start:l.pos])
	if isReal {
		return token{kind: tokReal, text: text, line: line, col: col}, nil
	}
	return token{kind: tokInteger, text: text, line: line, col: col}, nil
}

// lexString reads a quoted string and decodes its control directives.
func (l *lexer) lexString() (string, error) {
	line, col := l.line, l.col
	l.advance()
	var raw strings.Builder
	for {
		if l.pos >= len(l.src) {
			return "", l.errorf(line, col, "unterminated string")
		}
		c := l.advance()
		if c == '\'' {
			if l.peekByte(0) == '\'' {
				l.advance()
				raw.WriteByte('\'')
				continue
			}
			break
		}
		raw.WriteByte(c)
	}
	s, err := decodeString(raw.String())
	if err != nil {
		return "", l.errorf(line, col, "%v", err)
	}
	return s, nil
}

// decodeString expands the \X\, \X2\, \X4\, \S\ and \\ directives. Code page
// switches (\P?\) are accepted and ignored.
func decodeString(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			i++
			continue
		}
		rest := s[i:]
		switch {
		case strings.HasPrefix(rest, `\\`):
			b.WriteByte('\\')
			i += 2
		case strings.HasPrefix(rest, `\X2\`), strings.HasPrefix(rest, `\X4\`):
			width := 4
			if rest[2] == '4' {
				width = 8
			}
			end := strings.Index(rest[4:], `\X0\`)
			if end < 0 {
				return "", errUnterminatedDirective(rest)
			}
			hex := rest[4 : 4+end]
			if len(hex)%width != 0 {
				return "", errBadDirective(rest)
			}
			var units []uint16
			for j := 0; j < len(hex); j += width {
				n, err := strconv.ParseUint(hex[j:j+width], 16, 32)
				if err != nil {
					return "", errBadDirective(rest)
				}
				if width == 8 {
					b.WriteRune(rune(n))
					continue
				}
				units = append(units, uint16(n))
			}
			if len(units) > 0 {
				b.WriteString(decodeUTF16(units))
			}
			i += 4 + end + 4
		case strings.HasPrefix(rest, `\X\`) && len(rest) >= 5:
			n, err := strconv.ParseUint(rest[3:5], 16, 8)
			if err != nil {
				return "", errBadDirective(rest)
			}
			b.WriteRune(rune(n))
			i += 5
		case strings.HasPrefix(rest, `\S\`) && len(rest) >= 4:
			b.WriteRune(rune(rest[3]) + 128)
			i += 4
		case len(rest) >= 4 && rest[1] == 'P' && rest[3] == '\\':
			i += 4
		default:
			b.WriteByte('\\')
			i++
		}
	}
	return b.String(), nil
}

func decodeUTF16(units []uint16) string {
	var b strings.Builder
	for i := 0; i < len(units); i++ {
		u := rune(units[i])
		if u >= 0xD800 && u < 0xDC00 && i+1 < len(units) {
			lo := rune(units[i+1])
			if lo >= 0xDC00 && lo < 0xE000 {
				b.WriteRune((u-0xD800)<<10 + (lo - 0xDC00) + 0x10000)
				i++
				continue
			}
		}
		if u >= 0xD800 && u < 0xE000 {
			b.WriteRune(utf8.RuneError)
			continue
		}
		b.WriteRune(u)
	}
	return b.String()
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isAlnum(c byte) bool { return isAlpha(c) || isDigit(c) }
func isEnumStart(c byte) bool { return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '_' }
func isHex(c byte) bool {
	return isDigit(c) || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}
