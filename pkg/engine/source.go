package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/shadegraph/pkg/graph"
)

// keywordPrefix marks the string literals preprocessSource makes of
// :keyword tokens.
const keywordPrefix = "__kw_"

// preprocessSource rewrites a graph program into something zygomys reads:
//
//   - :name becomes the string "__kw_name", so keywords never collide with
//     user definitions of the same name.
//   - camera-pos becomes camera_pos. zygomys reads a hyphen inside an
//     identifier as subtraction.
//   - ; comments become // comments.
//
// String literals, in double quotes or backticks, pass through untouched.
func preprocessSource(source string) string {
	s := scanner{src: source}
	s.out.Grow(len(source) + len(source)/4)
	for !s.done() {
		switch c := s.src[s.pos]; {
		case c == '"':
			s.quoted('"', true)
		case c == '`':
			s.quoted('`', false)
		case c == ';':
			s.comment()
		case c == ':' && s.peek() == '=':
			s.copy(2)
		case c == ':' && isLetter(s.peek()):
			s.keyword()
		case c == '-' && s.pos > 0 && isIdentChar(s.src[s.pos-1]) && isLetter(s.peek()):
			s.out.WriteByte('_')
			s.pos++
		default:
			s.copy(1)
		}
	}
	return s.out.String()
}

type scanner struct {
	src string
	pos int
	out strings.Builder
}

func (s *scanner) done() bool { return s.pos >= len(s.src) }

// peek returns the byte after the current one, or 0 at the end.
func (s *scanner) peek() byte {
	if s.pos+1 < len(s.src) {
		return s.src[s.pos+1]
	}
	return 0
}

func (s *scanner) copy(n int) {
	end := min(s.pos+n, len(s.src))
	s.out.WriteString(s.src[s.pos:end])
	s.pos = end
}

// quoted copies a literal opened at the current byte up to and including its
// closing quote.
func (s *scanner) quoted(q byte, escapes bool) {
	s.copy(1)
	for !s.done() && s.src[s.pos] != q {
		if escapes && s.src[s.pos] == '\\' {
			s.copy(2)
			continue
		}
		s.copy(1)
	}
	s.copy(1)
}

func (s *scanner) comment() {
	s.out.WriteString("//")
	for !s.done() && s.src[s.pos] == ';' {
		s.pos++
	}
	end := strings.IndexByte(s.src[s.pos:], '\n')
	if end < 0 {
		end = len(s.src) - s.pos
	}
	s.copy(end)
}

func (s *scanner) keyword() {
	start := s.pos + 1
	end := start
	for end < len(s.src) && isKeywordChar(s.src[end]) {
		end++
	}
	fmt.Fprintf(&s.out, "%q", keywordPrefix+s.src[start:end])
	s.pos = end
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isIdentChar(c byte) bool { return isLetter(c) || isDigit(c) || c == '_' }

func isKeywordChar(c byte) bool { return isIdentChar(c) || c == '-' }

// keyword reports whether s is a preprocessed keyword and returns its name.
func keyword(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, keywordPrefix) {
		return "", false
	}
	return strings.TrimPrefix(str.S, keywordPrefix), true
}

// callArgs is a builtin's argument list split into positional and keyword
// arguments.
type callArgs struct {
	positional []zygo.Sexp
	named      map[string]zygo.Sexp
}

// splitArgs separates keyword arguments from positional ones. A keyword at
// the end of the list takes the value nil.
func splitArgs(args []zygo.Sexp) callArgs {
	ca := callArgs{named: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := keyword(args[i])
		if !ok {
			ca.positional = append(ca.positional, args[i])
			continue
		}
		ca.named[name] = zygo.SexpNull
		if i+1 < len(args) {
			i++
			ca.named[name] = args[i]
		}
	}
	return ca
}

func asNumber(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func asString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
	}
	return str.S, nil
}

// asName accepts a keyword or a plain string.
func asName(s zygo.Sexp) (string, error) {
	if name, ok := keyword(s); ok {
		return name, nil
	}
	str, err := asString(s)
	if err != nil {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return str, nil
}

func asNode(s zygo.Sexp) (graph.NodeID, error) {
	ref, ok := s.(*sexpNodeRef)
	if !ok {
		return "", fmt.Errorf("expected node reference, got %T (%s)", s, s.SexpString(nil))
	}
	return ref.id, nil
}
