package step

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// File is a parsed exchange file.
type File struct {
	Header    Header
	Instances []Instance // in file order

	index map[int64]int
}

// Lookup returns the instance with the given id.
func (f *File) Lookup(id int64) (Instance, bool) {
	i, ok := f.index[id]
	if !ok {
		return Instance{}, false
	}
	return f.Instances[i], true
}

// Len returns the number of instances in the DATA section(s).
func (f *File) Len() int { return len(f.Instances) }

// Open reads and parses the file at path.
func Open(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("step: open %s: %w", path, err)
	}
	return ParseBytes(data)
}

// Parse reads r to the end and parses it.
func Parse(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("step: read: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes parses an exchange file held in memory.
func ParseBytes(data []byte) (*File, error) {
	p := &parser{lex: newLexer(data)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseFile()
}

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) errorf(format string, args ...any) error {
	return newSyntaxError(p.tok.line, p.tok.col, format, args...)
}

func (p *parser) expect(k tokenKind) (token, error) {
	t := p.tok
	if t.kind != k {
		return t, p.errorf("expected %s, found %s", k, describe(t))
	}
	return t, p.advance()
}

func (p *parser) expectKeyword(kw string) error {
	if p.tok.kind != tokKeyword || !strings.EqualFold(p.tok.text, kw) {
		return p.errorf("expected %s, found %s", kw, describe(p.tok))
	}
	return p.advance()
}

func (p *parser) atKeyword(kw string) bool {
	return p.tok.kind == tokKeyword && strings.EqualFold(p.tok.text, kw)
}

func describe(t token) string {
	switch t.kind {
	case tokKeyword, tokInteger, tokReal:
		return fmt.Sprintf("%s %q", t.kind, t.text)
	case tokRef:
		return "#" + t.text
	default:
		return t.kind.String()
	}
}

// parseFile handles:
//
//	ISO-10303-21; HEADER; ... ENDSEC; DATA; ... ENDSEC; END-ISO-10303-21;
//
// Multiple DATA sections are merged.
func (p *parser) parseFile() (*File, error) {
	f := &File{index: make(map[int64]int)}
	if err := p.expectKeyword("ISO-10303-21"); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemi); err != nil {
		return nil, err
	}
	if err := p.parseHeader(&f.Header); err != nil {
		return nil, err
	}
	for p.atKeyword("DATA") {
		if err := p.parseData(f); err != nil {
			return nil, err
		}
	}
	if err := p.expectKeyword("END-ISO-10303-21"); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemi); err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf("unexpected %s after END-ISO-10303-21", describe(p.tok))
	}
	return f, nil
}

func (p *parser) parseHeader(h *Header) error {
	if err := p.expectKeyword("HEADER"); err != nil {
		return err
	}
	if _, err := p.expect(tokSemi); err != nil {
		return err
	}
	for !p.atKeyword("ENDSEC") {
		kw, err := p.expect(tokKeyword)
		if err != nil {
			return err
		}
		params, err := p.parseParams()
		if err != nil {
			return err
		}
		if _, err := p.expect(tokSemi); err != nil {
			return err
		}
		h.apply(kw.text, params)
	}
	if err := p.advance(); err != nil {
		return err
	}
	_, err := p.expect(tokSemi)
	return err
}

func (p *parser) parseData(f *File) error {
	if err := p.advance(); err != nil {
		return err
	}
	// DATA sections in later editions may carry a name and schema list.
	if p.tok.kind == tokLParen {
		if _, err := p.parseParams(); err != nil {
			return err
		}
	}
	if _, err := p.expect(tokSemi); err != nil {
		return err
	}
	for !p.atKeyword("ENDSEC") {
		inst, err := p.parseInstance()
		if err != nil {
			return err
		}
		if _, dup := f.index[inst.ID]; dup {
			return fmt.Errorf("%w: #%d (line %d)", ErrDuplicateID, inst.ID, inst.Line)
		}
		f.index[inst.ID] = len(f.Instances)
		f.Instances = append(f.Instances, inst)
	}
	if err := p.advance(); err != nil {
		return err
	}
	_, err := p.expect(tokSemi)
	return err
}

func (p *parser) parseInstance() (Instance, error) {
	ref, err := p.expect(tokRef)
	if err != nil {
		return Instance{}, err
	}
	id, err := strconv.ParseInt(ref.text, 10, 64)
	if err != nil {
		return Instance{}, newSyntaxError(ref.line, ref.col, "instance id #%s out of range", ref.text)
	}
	if _, err := p.expect(tokEquals); err != nil {
		return Instance{}, err
	}
	inst := Instance{ID: id, Line: ref.line}

	switch p.tok.kind {
	case tokKeyword:
		kw := p.tok
		if err := p.advance(); err != nil {
			return Instance{}, err
		}
		params, err := p.parseParams()
		if err != nil {
			return Instance{}, err
		}
		inst.Type = strings.ToUpper(kw.text)
		inst.Params = params
	case tokLParen:
		// Complex instance: (PARTIAL_A(...) PARTIAL_B(...)). The first
		// partial names the type, parameters are concatenated.
		if err := p.advance(); err != nil {
			return Instance{}, err
		}
		for p.tok.kind != tokRParen {
			kw, err := p.expect(tokKeyword)
			if err != nil {
				return Instance{}, err
			}
			params, err := p.parseParams()
			if err != nil {
				return Instance{}, err
			}
			if inst.Type == "" {
				inst.Type = strings.ToUpper(kw.text)
			}
			inst.Params = append(inst.Params, params...)
		}
		if inst.Type == "" {
			return Instance{}, p.errorf("empty complex instance #%d", id)
		}
		if err := p.advance(); err != nil {
			return Instance{}, err
		}
	default:
		return Instance{}, p.errorf("expected entity name, found %s", describe(p.tok))
	}

	if _, err := p.expect(tokSemi); err != nil {
		return Instance{}, err
	}
	return inst, nil
}

// parseParams parses a parenthesised, comma separated parameter list.
func (p *parser) parseParams() ([]Value, error) {
	if _, err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	var out []Value
	if p.tok.kind == tokRParen {
		return out, p.advance()
	}
	for {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		switch p.tok.kind {
		case tokComma:
			if err := p.advance(); err != nil {
				return nil, err
			}
		case tokRParen:
			return out, p.advance()
		default:
			return nil, p.errorf("expected ',' or ')', found %s", describe(p.tok))
		}
	}
}

func (p *parser) parseValue() (Value, error) {
	t := p.tok
	switch t.kind {
	case tokDollar:
		return Null(), p.advance()
	case tokStar:
		return Value{Kind: KindDerived}, p.advance()
	case tokInteger:
		n, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return Value{}, newSyntaxError(t.line, t.col, "integer %s out of range", t.text)
		}
		return Integer(n), p.advance()
	case tokReal:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return Value{}, newSyntaxError(t.line, t.col, "malformed real %s", t.text)
		}
		return Real(f), p.advance()
	case tokString:
		return String(t.text), p.advance()
	case tokEnum:
		return Enum(strings.ToUpper(t.text)), p.advance()
	case tokBinary:
		return Value{Kind: KindBinary, Str: t.text}, p.advance()
	case tokRef:
		id, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return Value{}, newSyntaxError(t.line, t.col, "reference #%s out of range", t.text)
		}
		return Ref(id), p.advance()
	case tokLParen:
		items, err := p.parseParams()
		if err != nil {
			return Value{}, err
		}
		return List(items...), nil
	case tokKeyword:
		if err := p.advance(); err != nil {
			return Value{}, err
		}
		params, err := p.parseParams()
		if err != nil {
			return Value{}, err
		}
		return Typed(strings.ToUpper(t.text), params...), nil
	}
	return Value{}, p.errorf("unexpected %s in parameter list", describe(t))
}
