package svgico

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Stylesheet is a parsed user stylesheet.
// Only simple selectors are honoured: the universal selector, element names,
// #id, .class and their compounds. Rules using combinators, attribute
// selectors or pseudo classes are skipped.
type Stylesheet struct {
	rules []rule
}

type declaration struct {
	property  string
	value     string
	important bool
}

type selector struct {
	tag     string
	id      string
	classes []string
}

type rule struct {
	sel   selector
	decls []declaration
	order int
}

// specificity follows the CSS (a, b, c) ordering packed into one integer.
func (s selector) specificity() int {
	n := len(s.classes) * 10
	if s.id != "" {
		n += 100
	}
	if s.tag != "" {
		n++
	}
	return n
}

func (s selector) matches(tag, id string, classes []string) bool {
	if s.tag != "" && s.tag != tag {
		return false
	}
	if s.id != "" && s.id != id {
		return false
	}
	for _, c := range s.classes {
		found := false
		for _, ec := range classes {
			if ec == c {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ParseStylesheet parses CSS source.
func ParseStylesheet(r io.Reader) (*Stylesheet, error) {
	p := css.NewParser(parse.NewInput(r), false)

	var (
		sheet     = &Stylesheet{}
		selectors []selector
		decls     []declaration
		inRuleset bool
		atDepth   int
	)

	flush := func() {
		if len(decls) > 0 {
			for _, sel := range selectors {
				sheet.rules = append(sheet.rules, rule{sel: sel, decls: decls, order: len(sheet.rules)})
			}
		}
		selectors, decls = nil, nil
	}

	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			// Invalid constructs are dropped, the parser resumes after them.
			if p.HasParseError() {
				continue
			}
			if err := p.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("parsing stylesheet: %w", err)
			}
			return sheet, nil
		case css.BeginAtRuleGrammar:
			atDepth++
		case css.EndAtRuleGrammar:
			if atDepth > 0 {
				atDepth--
			}
		case css.BeginRulesetGrammar:
			if atDepth == 0 {
				selectors = parseSelectors(p.Values())
				inRuleset = true
			}
		case css.DeclarationGrammar:
			if atDepth == 0 && inRuleset {
				decls = append(decls, newDeclaration(string(data), p.Values()))
			}
		case css.EndRulesetGrammar:
			if atDepth == 0 {
				flush()
				inRuleset = false
			}
		}
	}
}

func newDeclaration(property string, values []css.Token) declaration {
	var b strings.Builder
	for _, v := range values {
		b.Write(v.Data)
	}
	value := strings.TrimSpace(b.String())

	d := declaration{property: strings.ToLower(strings.TrimSpace(property))}
	compact := strings.ToLower(strings.ReplaceAll(value, " ", ""))
	if strings.HasSuffix(compact, "!important") {
		d.important = true
		value = strings.TrimSpace(value[:strings.LastIndex(value, "!")])
	}
	d.value = value
	return d
}

// parseSelectors splits a comma separated selector list and drops every
// selector which is not a compound of simple selectors.
func parseSelectors(tokens []css.Token) []selector {
	var (
		sels  []selector
		group []css.Token
	)
	for _, t := range append(tokens, css.Token{TokenType: css.CommaToken}) {
		if t.TokenType != css.CommaToken {
			group = append(group, t)
			continue
		}
		if sel, ok := parseCompound(trimWhitespace(group)); ok {
			sels = append(sels, sel)
		}
		group = nil
	}
	return sels
}

func trimWhitespace(tokens []css.Token) []css.Token {
	for len(tokens) > 0 && tokens[0].TokenType == css.WhitespaceToken {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && tokens[len(tokens)-1].TokenType == css.WhitespaceToken {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

func parseCompound(tokens []css.Token) (selector, bool) {
	var sel selector
	if len(tokens) == 0 {
		return sel, false
	}
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		switch {
		case t.TokenType == css.IdentToken && i == 0:
			sel.tag = strings.ToLower(string(t.Data))
		case t.TokenType == css.DelimToken && string(t.Data) == "*" && i == 0:
		case t.TokenType == css.HashToken:
			sel.id = strings.TrimPrefix(string(t.Data), "#")
		case t.TokenType == css.DelimToken && string(t.Data) == ".":
			if i+1 >= len(tokens) || tokens[i+1].TokenType != css.IdentToken {
				return sel, false
			}
			i++
			sel.classes = append(sel.classes, string(tokens[i].Data))
		default:
			return sel, false
		}
	}
	return sel, true
}

// cascade returns the declarations applying to an element, ordered by
// ascending precedence. Important declarations outrank normal ones.
func (s *Stylesheet) cascade(tag, id string, classes []string) []declaration {
	if s == nil {
		return nil
	}

	var matched []rule
	for _, r := range s.rules {
		if r.sel.matches(tag, id, classes) {
			matched = append(matched, r)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		si, sj := matched[i].sel.specificity(), matched[j].sel.specificity()
		if si != sj {
			return si < sj
		}
		return matched[i].order < matched[j].order
	})

	var (
		order  []string
		byProp = make(map[string]declaration)
	)
	for _, r := range matched {
		for _, d := range r.decls {
			prev, ok := byProp[d.property]
			if !ok {
				order = append(order, d.property)
			} else if prev.important && !d.important {
				continue
			}
			byProp[d.property] = d
		}
	}

	res := make([]declaration, 0, len(order))
	for _, p := range order {
		res = append(res, byProp[p])
	}
	return res
}

// parseStyleAttr splits an inline style attribute into its declarations.
func parseStyleAttr(style string) []declaration {
	var decls []declaration
	for _, part := range strings.Split(style, ";") {
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			continue
		}
		prop := strings.ToLower(strings.TrimSpace(kv[0]))
		if prop == "" {
			continue
		}
		decls = append(decls, declaration{property: prop, value: strings.TrimSpace(kv[1])})
	}
	return decls
}

func formatStyleAttr(decls []declaration) string {
	var b bytes.Buffer
	for i, d := range decls {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(d.property)
		b.WriteByte(':')
		b.WriteString(d.value)
	}
	return b.String()
}
