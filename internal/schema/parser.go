package schema

import (
	"strings"

	"github.com/nodeforge/treegen/errs"
)

// Parser is a hand-written recursive-descent parser over a Lexer, the
// idiomatic Go rendering of the original's table-driven LALR parser: Go's
// own toolchain favors recursive descent over a regular lexer for exactly
// this kind of grammar (go/parser).
type Parser struct {
	lex  *Lexer
	file string
	tok  Token
	pend []Token // tokens advance returns before reading the lexer; no parser method fills it
}

// Parse lexes and parses src (attributed to file) into a raw File AST.
func Parse(file, src string) (*File, error) {
	p := &Parser{lex: NewLexer(file, src), file: file}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseFile()
}

func (p *Parser) advance() error {
	if len(p.pend) > 0 {
		p.tok = p.pend[0]
		p.pend = p.pend[1:]
		return nil
	}
	t, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *Parser) errorf(pos Pos, format string, args ...any) error {
	return errs.NewSchemaError(pos.File, pos.Line, format, args...)
}

func (p *Parser) expect(kind TokenKind) (Token, error) {
	if p.tok.Kind != kind {
		return Token{}, p.errorf(p.tok.Pos, "expected %s, found %s", kind, p.tok.Kind)
	}
	t := p.tok
	err := p.advance()
	return t, err
}

// collectDocs consumes any run of TokDoc tokens at the current position,
// concatenating their text with newlines (§4.7 "kept, concatenated,
// trimmed"), and returns once the current token is not a doc comment.
func (p *Parser) collectDocs() (string, error) {
	var lines []string
	for p.tok.Kind == TokDoc {
		lines = append(lines, p.tok.Text)
		if err := p.advance(); err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

func (p *Parser) parseFile() (*File, error) {
	f := &File{}
	for p.tok.Kind != TokEOF {
		doc, err := p.collectDocs()
		if err != nil {
			return nil, err
		}
		switch p.tok.Kind {
		case TokEOF:
			if doc != "" {
				return nil, p.errorf(p.tok.Pos, "dangling doc comment at end of file")
			}
		case TokKwSource:
			if err := p.advance(); err != nil {
				return nil, err
			}
			s, err := p.expect(TokString)
			if err != nil {
				return nil, err
			}
			f.Source = s.Text
			if _, err := p.expect(TokSemicolon); err != nil {
				return nil, err
			}
		case TokKwHeader:
			if err := p.advance(); err != nil {
				return nil, err
			}
			s, err := p.expect(TokString)
			if err != nil {
				return nil, err
			}
			f.Header = s.Text
			if _, err := p.expect(TokSemicolon); err != nil {
				return nil, err
			}
		case TokKwPython:
			if err := p.advance(); err != nil {
				return nil, err
			}
			s, err := p.expect(TokString)
			if err != nil {
				return nil, err
			}
			f.Python = s.Text
			if _, err := p.expect(TokSemicolon); err != nil {
				return nil, err
			}
		case TokKwNamespace:
			if err := p.advance(); err != nil {
				return nil, err
			}
			ns, err := p.parseDottedName()
			if err != nil {
				return nil, err
			}
			f.Namespace = ns
			if _, err := p.expect(TokSemicolon); err != nil {
				return nil, err
			}
		case TokKwInclude:
			if err := p.advance(); err != nil {
				return nil, err
			}
			s, err := p.expect(TokString)
			if err != nil {
				return nil, err
			}
			f.Includes = append(f.Includes, s.Text)
			if _, err := p.expect(TokSemicolon); err != nil {
				return nil, err
			}
		case TokKwSupport:
			if err := p.advance(); err != nil {
				return nil, err
			}
			s, err := p.expect(TokString)
			if err != nil {
				return nil, err
			}
			f.Support = s.Text
			if _, err := p.expect(TokSemicolon); err != nil {
				return nil, err
			}
		case TokKwInitialize:
			if err := p.advance(); err != nil {
				return nil, err
			}
			s, err := p.expect(TokString)
			if err != nil {
				return nil, err
			}
			f.Initialize = s.Text
			if _, err := p.expect(TokSemicolon); err != nil {
				return nil, err
			}
		case TokKwLocation:
			if err := p.advance(); err != nil {
				return nil, err
			}
			s, err := p.expect(TokString)
			if err != nil {
				return nil, err
			}
			f.Location = s.Text
			if _, err := p.expect(TokSemicolon); err != nil {
				return nil, err
			}
		case TokKwPrimitive:
			pf, err := p.parsePrimitiveDirective()
			if err != nil {
				return nil, err
			}
			f.Primitives = append(f.Primitives, pf)
		case TokKwNode:
			n, err := p.parseNode(doc, Pos{})
			if err != nil {
				return nil, err
			}
			f.Nodes = append(f.Nodes, n)
		default:
			return nil, p.errorf(p.tok.Pos, "unexpected %s at top level", p.tok.Kind)
		}
	}
	return f, nil
}

func (p *Parser) parseDottedName() (string, error) {
	first, err := p.expect(TokIdent)
	if err != nil {
		return "", err
	}
	parts := []string{first.Text}
	for p.tok.Kind == TokColonColon || p.tok.Kind == TokDot {
		if err := p.advance(); err != nil {
			return "", err
		}
		next, err := p.expect(TokIdent)
		if err != nil {
			return "", err
		}
		parts = append(parts, next.Text)
	}
	return strings.Join(parts, "."), nil
}

func (p *Parser) parsePrimitiveDirective() (PrimitiveFunc, error) {
	pos := p.tok.Pos
	if err := p.advance(); err != nil {
		return PrimitiveFunc{}, err
	}
	name, err := p.expect(TokIdent)
	if err != nil {
		return PrimitiveFunc{}, err
	}
	pf := PrimitiveFunc{TypeName: name.Text, Pos: pos}
	for p.tok.Kind == TokKwSer || p.tok.Kind == TokKwDes {
		isSer := p.tok.Kind == TokKwSer
		if err := p.advance(); err != nil {
			return PrimitiveFunc{}, err
		}
		fn, err := p.expect(TokString)
		if err != nil {
			return PrimitiveFunc{}, err
		}
		if isSer {
			pf.Ser = fn.Text
		} else {
			pf.Des = fn.Text
		}
	}
	if _, err := p.expect(TokSemicolon); err != nil {
		return PrimitiveFunc{}, err
	}
	return pf, nil
}

// parseNode parses one `node name { ... }` block, including any nested
// (derived) blocks, given the doc comment already collected for it.
func (p *Parser) parseNode(doc string, parentPos Pos) (*NodeDecl, error) {
	pos := p.tok.Pos
	if err := p.advance(); err != nil { // consume 'node'
		return nil, err
	}
	name, err := p.expect(TokIdent)
	if err != nil {
		return nil, err
	}
	n := &NodeDecl{Name: name.Text, Doc: doc, Pos: pos, ParentPos: parentPos}

	if p.tok.Kind == TokKwError {
		n.IsError = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(TokLBrace); err != nil {
		return nil, err
	}
	for p.tok.Kind != TokRBrace {
		fieldDoc, err := p.collectDocs()
		if err != nil {
			return nil, err
		}
		switch p.tok.Kind {
		case TokKwReorder:
			if len(n.Reorder) != 0 {
				return nil, p.errorf(p.tok.Pos, "duplicate reorder() directive")
			}
			order, err := p.parseReorder()
			if err != nil {
				return nil, err
			}
			n.Reorder = order
		case TokKwNode:
			child, err := p.parseNode(fieldDoc, pos)
			if err != nil {
				return nil, err
			}
			n.Derived = append(n.Derived, child)
		case TokIdent:
			field, err := p.parseField(fieldDoc)
			if err != nil {
				return nil, err
			}
			n.Fields = append(n.Fields, field)
		default:
			return nil, p.errorf(p.tok.Pos, "unexpected %s inside node %q", p.tok.Kind, n.Name)
		}
	}
	if _, err := p.expect(TokRBrace); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *Parser) parseReorder() ([]string, error) {
	if err := p.advance(); err != nil { // consume 'reorder'
		return nil, err
	}
	if _, err := p.expect(TokLParen); err != nil {
		return nil, err
	}
	var names []string
	for p.tok.Kind != TokRParen {
		if len(names) > 0 {
			if _, err := p.expect(TokComma); err != nil {
				return nil, err
			}
		}
		id, err := p.expect(TokIdent)
		if err != nil {
			return nil, err
		}
		names = append(names, id.Text)
	}
	if _, err := p.expect(TokRParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokSemicolon); err != nil {
		return nil, err
	}
	return names, nil
}

// parseField parses `name: Kind<Target>;` or the bare-primitive form
// `name: Target;`, plus the optional leading `ext` marker accepted (and
// ignored beyond documentation) on a bare primitive type name.
func (p *Parser) parseField(doc string) (FieldDecl, error) {
	pos := p.tok.Pos
	name, err := p.expect(TokIdent)
	if err != nil {
		return FieldDecl{}, err
	}
	if _, err := p.expect(TokColon); err != nil {
		return FieldDecl{}, err
	}

	field := FieldDecl{Name: name.Text, Doc: doc, Pos: pos}

	if p.tok.Kind == TokKwExt {
		if err := p.advance(); err != nil {
			return FieldDecl{}, err
		}
	}

	if kind, ok := edgeKeywords[p.tok.Kind]; ok {
		if err := p.advance(); err != nil {
			return FieldDecl{}, err
		}
		if _, err := p.expect(TokLAngle); err != nil {
			return FieldDecl{}, err
		}
		target, err := p.parseDottedName()
		if err != nil {
			return FieldDecl{}, err
		}
		if _, err := p.expect(TokRAngle); err != nil {
			return FieldDecl{}, err
		}
		field.Kind = kind
		field.Target = target
	} else {
		target, err := p.parseDottedName()
		if err != nil {
			return FieldDecl{}, err
		}
		field.Kind = EdgeNone
		field.Target = target
	}

	if _, err := p.expect(TokSemicolon); err != nil {
		return FieldDecl{}, err
	}
	return field, nil
}
