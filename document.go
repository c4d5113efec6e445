package svgico

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

var errNotSVG = errors.New("not an SVG document: missing <svg> root element")

// prepareDocument validates that src is a well formed SVG document and
// applies the user stylesheet to it. The document is re-serialized from the
// raw token stream so that namespace prefixes are kept untouched.
func prepareDocument(src []byte, sheet *Stylesheet) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(src))
	dec.CharsetReader = charset.NewReaderLabel

	var (
		out   bytes.Buffer
		stack []xml.Name
		root  bool
	)
	out.Grow(len(src))

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed SVG document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 {
				if root {
					return nil, errors.New("malformed SVG document: multiple root elements")
				}
				if t.Name.Local != "svg" {
					return nil, errNotSVG
				}
				root = true
			}
			stack = append(stack, t.Name)
			if sheet != nil {
				t = applyStylesheet(sheet, t)
			}
			writeStart(&out, t)
		case xml.EndElement:
			if len(stack) == 0 || stack[len(stack)-1] != t.Name {
				return nil, fmt.Errorf("malformed SVG document: unexpected closing tag </%s>", qualified(t.Name))
			}
			stack = stack[:len(stack)-1]
			out.WriteString("</")
			out.WriteString(qualified(t.Name))
			out.WriteByte('>')
		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, errNotSVG
				}
				continue
			}
			if err := xml.EscapeText(&out, t); err != nil {
				return nil, err
			}
		case xml.Comment:
			out.WriteString("<!--")
			out.Write(t)
			out.WriteString("-->")
		case xml.ProcInst:
			// The encoding was resolved by the decoder; the output is UTF-8.
			if t.Target == "xml" {
				continue
			}
			out.WriteString("<?")
			out.WriteString(t.Target)
			if len(t.Inst) > 0 {
				out.WriteByte(' ')
				out.Write(t.Inst)
			}
			out.WriteString("?>")
		case xml.Directive:
			out.WriteString("<!")
			out.Write(t)
			out.WriteByte('>')
		}
	}

	if !root {
		return nil, errNotSVG
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("malformed SVG document: unclosed element <%s>", qualified(stack[len(stack)-1]))
	}
	return out.Bytes(), nil
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func writeStart(w *bytes.Buffer, t xml.StartElement) {
	w.WriteByte('<')
	w.WriteString(qualified(t.Name))
	for _, a := range t.Attr {
		w.WriteByte(' ')
		w.WriteString(qualified(a.Name))
		w.WriteString(`="`)
		xml.EscapeText(w, []byte(a.Value))
		w.WriteByte('"')
	}
	w.WriteByte('>')
}

// applyStylesheet merges the matching user declarations into the style
// attribute of the element. A normal user declaration never overrides a
// property set by the document itself, an important one always does.
func applyStylesheet(sheet *Stylesheet, t xml.StartElement) xml.StartElement {
	var (
		id      string
		classes []string
		style   []declaration
		styleAt = -1
	)
	for i, a := range t.Attr {
		if a.Name.Space != "" {
			continue
		}
		switch a.Name.Local {
		case "id":
			id = a.Value
		case "class":
			classes = strings.Fields(a.Value)
		case "style":
			style = parseStyleAttr(a.Value)
			styleAt = i
		}
	}

	decls := sheet.cascade(strings.ToLower(t.Name.Local), id, classes)
	if len(decls) == 0 {
		return t
	}

	attrs := make([]xml.Attr, 0, len(t.Attr)+1)
	for _, a := range t.Attr {
		attrs = append(attrs, a)
	}

	for _, d := range decls {
		attrIdx := -1
		for i, a := range attrs {
			if a.Name.Space == "" && a.Name.Local == d.property {
				attrIdx = i
				break
			}
		}
		styleIdx := -1
		for i, s := range style {
			if s.property == d.property {
				styleIdx = i
				break
			}
		}

		if !d.important {
			if attrIdx >= 0 || styleIdx >= 0 {
				continue
			}
			style = append(style, declaration{property: d.property, value: d.value})
			continue
		}

		if attrIdx >= 0 {
			attrs = append(attrs[:attrIdx], attrs[attrIdx+1:]...)
			if styleAt > attrIdx {
				styleAt--
			}
		}
		if styleIdx >= 0 {
			style[styleIdx].value = d.value
		} else {
			style = append(style, declaration{property: d.property, value: d.value})
		}
	}

	styleAttr := xml.Attr{Name: xml.Name{Local: "style"}, Value: formatStyleAttr(style)}
	if styleAt >= 0 {
		attrs[styleAt] = styleAttr
	} else {
		attrs = append(attrs, styleAttr)
	}
	t.Attr = attrs
	return t
}
