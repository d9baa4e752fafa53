package xmlpath

import (
	"strings"

	"github.com/antchfx/xmlquery"
)

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", `"`, "&quot;")
)

// String serializes the document. Whitespace and attribute order are kept
// as parsed; elements without children are written self-closing. An XML
// declaration is only written when the parsed payload had one.
func (d *Document) String() string {
	var b strings.Builder
	for n := d.doc.FirstChild; n != nil; n = n.NextSibling {
		if !d.declared && n.Type == xmlquery.DeclarationNode && n.Data == "xml" {
			continue
		}
		writeNode(&b, n)
	}
	return b.String()
}

func writeNode(b *strings.Builder, n *xmlquery.Node) {
	switch n.Type {
	case xmlquery.DeclarationNode:
		b.WriteString("<?" + n.Data)
		writeAttrs(b, n.Attr)
		b.WriteString("?>")
	case xmlquery.CommentNode:
		b.WriteString("<!--" + n.Data + "-->")
	case xmlquery.CharDataNode:
		b.WriteString("<![CDATA[" + n.Data + "]]>")
	case xmlquery.TextNode:
		b.WriteString(textEscaper.Replace(n.Data))
	case xmlquery.ElementNode:
		name := qualifiedName(n.Prefix, n.Data)
		b.WriteString("<" + name)
		writeAttrs(b, n.Attr)
		if n.FirstChild == nil {
			b.WriteString("/>")
			return
		}
		b.WriteString(">")
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeNode(b, c)
		}
		b.WriteString("</" + name + ">")
	}
}

func writeAttrs(b *strings.Builder, attrs []xmlquery.Attr) {
	for _, a := range attrs {
		b.WriteString(" " + qualifiedName(a.Name.Space, a.Name.Local) + `="` + attrEscaper.Replace(a.Value) + `"`)
	}
}
