// ABOUTME: Delete predicate construction and parsing
// ABOUTME: Supports the key="value" AND ... grammar accepted by the delete API

package flux

import (
	"fmt"
	"strings"
)

// Term is a single comparison of a tag (or _measurement) against a value.
type Term struct {
	Key   string
	Value string
	Not   bool
}

// Equals builds a key="value" term.
func Equals(key, value string) Term {
	return Term{Key: key, Value: value}
}

func (t Term) String() string {
	op := "="
	if t.Not {
		op = "!="
	}
	return t.Key + op + quotePredicateValue(t.Value)
}

// Predicate is a conjunction of terms. The empty predicate matches every point.
type Predicate struct {
	Terms []Term
}

// And builds a predicate from terms.
func And(terms ...Term) Predicate {
	return Predicate{Terms: terms}
}

func (p Predicate) String() string {
	parts := make([]string, len(p.Terms))
	for i, t := range p.Terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " AND ")
}

// Matches reports whether a point with the given measurement and tags is selected.
func (p Predicate) Matches(measurement string, tags map[string]string) bool {
	for _, t := range p.Terms {
		var got string
		var ok bool
		if t.Key == "_measurement" {
			got, ok = measurement, true
		} else {
			got, ok = tags[t.Key]
		}
		equal := ok && got == t.Value
		if equal == t.Not {
			return false
		}
	}
	return true
}

func quotePredicateValue(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

// ParsePredicate parses delete predicate text such as
// `_measurement="Animal_position" AND Animal="rex"`.
func ParsePredicate(s string) (Predicate, error) {
	p := &predicateParser{src: s}
	var pred Predicate

	p.skipSpace()
	if p.done() {
		return pred, nil
	}

	for {
		term, err := p.term()
		if err != nil {
			return Predicate{}, err
		}
		pred.Terms = append(pred.Terms, term)

		p.skipSpace()
		if p.done() {
			return pred, nil
		}
		if !p.keyword("AND") {
			return Predicate{}, fmt.Errorf("predicate: expected AND at offset %d", p.pos)
		}
	}
}

type predicateParser struct {
	src string
	pos int
}

func (p *predicateParser) done() bool { return p.pos >= len(p.src) }

func (p *predicateParser) skipSpace() {
	for !p.done() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n' || p.src[p.pos] == '\r') {
		p.pos++
	}
}

func (p *predicateParser) keyword(word string) bool {
	end := p.pos + len(word)
	if end > len(p.src) || !strings.EqualFold(p.src[p.pos:end], word) {
		return false
	}
	if end < len(p.src) && isKeyByte(p.src[end]) {
		return false
	}
	p.pos = end
	return true
}

func (p *predicateParser) term() (Term, error) {
	p.skipSpace()
	start := p.pos
	for !p.done() && isKeyByte(p.src[p.pos]) {
		p.pos++
	}
	if start == p.pos {
		return Term{}, fmt.Errorf("predicate: expected tag key at offset %d", p.pos)
	}
	t := Term{Key: p.src[start:p.pos]}

	p.skipSpace()
	switch {
	case strings.HasPrefix(p.src[p.pos:], "!="):
		t.Not = true
		p.pos += 2
	case strings.HasPrefix(p.src[p.pos:], "="):
		p.pos++
	default:
		return Term{}, fmt.Errorf("predicate: expected = or != after %q", t.Key)
	}

	p.skipSpace()
	v, err := p.quoted()
	if err != nil {
		return Term{}, err
	}
	t.Value = v
	return t, nil
}

func (p *predicateParser) quoted() (string, error) {
	if p.done() || p.src[p.pos] != '"' {
		return "", fmt.Errorf("predicate: expected quoted value at offset %d", p.pos)
	}
	p.pos++

	var b strings.Builder
	for !p.done() {
		c := p.src[p.pos]
		switch c {
		case '\\':
			if p.pos+1 >= len(p.src) {
				return "", fmt.Errorf("predicate: dangling escape at offset %d", p.pos)
			}
			b.WriteByte(p.src[p.pos+1])
			p.pos += 2
		case '"':
			p.pos++
			return b.String(), nil
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", fmt.Errorf("predicate: unterminated string")
}

func isKeyByte(c byte) bool {
	return c == '_' || c == '-' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
