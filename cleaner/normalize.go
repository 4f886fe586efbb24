// Package cleaner turns fetched or rendered markup into the representations
// returned to callers: prettified markup and a cleaned readable outline.
package cleaner

import (
	"strings"

	"golang.org/x/net/html"
)

// indent is written once per tree depth.
const indent = " "

// voidElements never have children or a closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "keygen": true, "link": true,
	"meta": true, "param": true, "source": true, "track": true, "wbr": true,
}

// rawTextElements hold text that must be written unescaped.
var rawTextElements = map[string]bool{
	"script": true, "style": true, "xmp": true, "iframe": true,
	"noembed": true, "noframes": true, "plaintext": true, "noscript": true,
}

// Normalize parses rawMarkup leniently and serializes the resulting tree
// one node per line, indented by depth. Whitespace-only text is dropped and
// other text is trimmed, so the same tree always yields the same bytes.
//
// Normalize never fails: malformed or non-HTML input is repaired by the
// parser into a document with the usual html/head/body skeleton.
func Normalize(rawMarkup string) string {
	doc, err := html.Parse(strings.NewReader(rawMarkup))
	if err != nil {
		// html.Parse only fails on reader errors, which a strings.Reader
		// does not produce.
		doc = &html.Node{Type: html.DocumentNode}
	}
	var b strings.Builder
	writeNode(&b, doc, 0)
	return b.String()
}

func writeNode(b *strings.Builder, n *html.Node, depth int) {
	switch n.Type {
	case html.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeNode(b, c, depth)
		}

	case html.DoctypeNode:
		writeLine(b, depth, "<!DOCTYPE "+n.Data+">")

	case html.CommentNode:
		writeLine(b, depth, "<!--"+n.Data+"-->")

	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text == "" {
			return
		}
		if n.Parent != nil && n.Parent.Type == html.ElementNode && rawTextElements[n.Parent.Data] {
			writeLine(b, depth, text)
			return
		}
		writeLine(b, depth, html.EscapeString(text))

	case html.ElementNode:
		name := elementName(n)
		writeLine(b, depth, "<"+name+attributes(n)+">")
		if voidElements[n.Data] && n.Namespace == "" {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeNode(b, c, depth+1)
		}
		writeLine(b, depth, "</"+name+">")
	}
}

func writeLine(b *strings.Builder, depth int, s string) {
	b.WriteString(strings.Repeat(indent, depth))
	b.WriteString(s)
	b.WriteByte('\n')
}

func elementName(n *html.Node) string {
	if n.Namespace != "" && n.Namespace != "svg" && n.Namespace != "math" {
		return n.Namespace + ":" + n.Data
	}
	return n.Data
}

// attributes renders attributes in source order.
func attributes(n *html.Node) string {
	if len(n.Attr) == 0 {
		return ""
	}
	var b strings.Builder
	for _, a := range n.Attr {
		b.WriteByte(' ')
		if a.Namespace != "" {
			b.WriteString(a.Namespace)
			b.WriteByte(':')
		}
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(a.Val))
		b.WriteByte('"')
	}
	return b.String()
}
