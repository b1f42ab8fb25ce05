// Package wxml reverses the compiled template representation emitted by the
// wxapkg build toolchain: nested arrays pushed onto a runtime buffer by
// generated code, reassembled into a tag/attribute/child tree and
// serialised back to markup.
package wxml

import "strings"

// Attr is a single attribute, kept in encountered order. Boolean marks an
// attribute whose source token was the unquoted literal true: it renders as
// a bare key with no value, distinct from the quoted string "true".
type Attr struct {
	Key     string
	Value   string
	Boolean bool
}

// Node is a restored markup element. Children holds either *Node or string
// (text) values; order is preserved exactly as decoded.
type Node struct {
	Tag      string
	Attrs    []Attr
	Children []any
}

var selfClosingTags = map[string]bool{
	"image":   true,
	"input":   true,
	"import":  true,
	"include": true,
	"wxs":     true,
}

// Render pretty-prints the node with a 2-space indent, matching the
// conventions of the restored-source tree: self-closing tags for the
// {image,input,import,include,wxs} set when childless, single-line
// rendering for a lone short text child, and order-preserving attributes.
func (n *Node) Render(indent int) string {
	var b strings.Builder
	n.render(&b, indent)
	return b.String()
}

func (n *Node) render(b *strings.Builder, indent int) {
	prefix := strings.Repeat("  ", indent)
	attrsStr := n.renderAttrs()

	if len(n.Children) == 0 {
		if selfClosingTags[n.Tag] {
			b.WriteString(prefix)
			b.WriteString("<")
			b.WriteString(n.Tag)
			b.WriteString(attrsStr)
			b.WriteString(" />\n")
			return
		}
		b.WriteString(prefix)
		b.WriteString("<")
		b.WriteString(n.Tag)
		b.WriteString(attrsStr)
		b.WriteString("></")
		b.WriteString(n.Tag)
		b.WriteString(">\n")
		return
	}

	if len(n.Children) == 1 {
		if text, ok := n.Children[0].(string); ok {
			trimmed := strings.TrimSpace(text)
			if !strings.Contains(trimmed, "\n") && len(trimmed) < 60 {
				b.WriteString(prefix)
				b.WriteString("<")
				b.WriteString(n.Tag)
				b.WriteString(attrsStr)
				b.WriteString(">")
				b.WriteString(trimmed)
				b.WriteString("</")
				b.WriteString(n.Tag)
				b.WriteString(">\n")
				return
			}
		}
	}

	b.WriteString(prefix)
	b.WriteString("<")
	b.WriteString(n.Tag)
	b.WriteString(attrsStr)
	b.WriteString(">\n")
	for _, child := range n.Children {
		switch c := child.(type) {
		case *Node:
			c.render(b, indent+1)
		case string:
			trimmed := strings.TrimSpace(c)
			if trimmed != "" {
				b.WriteString(strings.Repeat("  ", indent+1))
				b.WriteString(trimmed)
				b.WriteString("\n")
			}
		}
	}
	b.WriteString(prefix)
	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteString(">\n")
}

func (n *Node) renderAttrs() string {
	var b strings.Builder
	for _, a := range n.Attrs {
		b.WriteString(" ")
		b.WriteString(a.Key)
		if !a.Boolean {
			b.WriteString(`="`)
			b.WriteString(a.Value)
			b.WriteString(`"`)
		}
	}
	return b.String()
}
