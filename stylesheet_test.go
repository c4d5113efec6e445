package svgico

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseStylesheet(t *testing.T, css string) *Stylesheet {
	t.Helper()
	sheet, err := ParseStylesheet(strings.NewReader(css))
	require.NoError(t, err)
	return sheet
}

func TestStylesheet_Selectors(t *testing.T) {
	sheet := mustParseStylesheet(t, `
		@media print { rect { fill: gray } }
		rect, circle.a { fill: red; stroke: blue }
		#logo { fill: green }
		g > rect { fill: yellow }
		a:hover { fill: pink }
		*.b.c { opacity: 0.5 }
	`)

	tests := []struct {
		name    string
		tag, id string
		classes []string
		want    []declaration
	}{
		{
			name: "tag",
			tag:  "rect",
			want: []declaration{{property: "fill", value: "red"}, {property: "stroke", value: "blue"}},
		},
		{
			name: "tag without class",
			tag:  "circle",
		},
		{
			name:    "compound",
			tag:     "circle",
			classes: []string{"x", "a"},
			want:    []declaration{{property: "fill", value: "red"}, {property: "stroke", value: "blue"}},
		},
		{
			name: "id wins over tag",
			tag:  "rect",
			id:   "logo",
			want: []declaration{{property: "fill", value: "green"}, {property: "stroke", value: "blue"}},
		},
		{
			name:    "universal with classes",
			tag:     "path",
			classes: []string{"c", "b"},
			want:    []declaration{{property: "opacity", value: "0.5"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sheet.cascade(tt.tag, tt.id, tt.classes)
			if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(declaration{})); diff != "" {
				t.Errorf("cascade mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStylesheet_Cascade(t *testing.T) {
	sheet := mustParseStylesheet(t, `
		.a { fill: red !important }
		#b { fill: blue }
		rect { stroke: black }
		rect { stroke: white }
	`)

	got := sheet.cascade("rect", "b", []string{"a"})
	want := []declaration{
		{property: "stroke", value: "white"},
		{property: "fill", value: "red", important: true},
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(declaration{})); diff != "" {
		t.Errorf("cascade mismatch (-want +got):\n%s", diff)
	}

	var nilSheet *Stylesheet
	assert.Empty(t, nilSheet.cascade("rect", "", nil))
}

func TestStylesheet_StyleAttr(t *testing.T) {
	decls := parseStyleAttr(" Fill : red ; ;stroke:url(#a);bad")
	assert.Equal(t, []declaration{
		{property: "fill", value: "red"},
		{property: "stroke", value: "url(#a)"},
	}, decls)
	assert.Equal(t, "fill:red;stroke:url(#a)", formatStyleAttr(decls))
}

func TestDocument_ApplyStylesheet(t *testing.T) {
	sheet := mustParseStylesheet(t, `
		rect { fill: blue; stroke: black }
		.keep { stroke-width: 3 !important }
	`)

	src := `<?xml version="1.0" encoding="UTF-8"?>
<!-- logo -->
<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink">
<rect fill="red" style="stroke-width:1"/>
<rect class="keep" stroke-width="2"/>
<use xlink:href="#a"/>
</svg>`

	doc, err := prepareDocument([]byte(src), sheet)
	require.NoError(t, err)

	out := string(doc)
	assert.NotContains(t, out, "<?xml")
	assert.Contains(t, out, "<!-- logo -->")
	assert.Contains(t, out, `<rect fill="red" style="stroke-width:1;stroke:black">`)
	assert.Contains(t, out, `<rect class="keep" style="fill:blue;stroke:black;stroke-width:3">`)
	assert.Contains(t, out, `<use xlink:href="#a">`)
}

func TestDocument_Malformed(t *testing.T) {
	tests := map[string]string{
		"not xml":       "this is not a vector image",
		"wrong root":    "<html><body/></html>",
		"unclosed":      "<svg><g></svg>",
		"two roots":     "<svg></svg><svg></svg>",
		"empty":         "",
		"trailing text": "<svg></svg> text",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := prepareDocument([]byte(src), nil)
			assert.Error(t, err)
		})
	}
}
