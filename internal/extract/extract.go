package extract

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Document is the readable content pulled from one HTML page.
type Document struct {
	Title string
	Text  string
}

// skipped elements never contribute text.
var skipped = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"nav":      true,
	"footer":   true,
	"aside":    true,
	"iframe":   true,
	"form":     true,
	"button":   true,
	"svg":      true,
}

// FromHTML extracts readable plain text from an HTML page. It prefers
// <main> or <article> over <body>, skips navigation and consent boilerplate,
// inserts newlines at block boundaries, and collapses whitespace runs.
func FromHTML(input []byte) Document {
	root, err := html.Parse(bytes.NewReader(input))
	if err != nil || root == nil {
		return Document{}
	}
	doc := Document{Title: strings.TrimSpace(pageTitle(root))}

	content := firstElement(root, "main")
	if content == nil {
		content = firstElement(root, "article")
	}
	if content == nil {
		content = firstElement(root, "body")
	}
	if content == nil {
		return doc
	}
	var b strings.Builder
	walk(&b, content)
	doc.Text = normalize(b.String())
	return doc
}

func pageTitle(root *html.Node) string {
	t := firstElement(root, "title")
	if t == nil || t.FirstChild == nil {
		return ""
	}
	return t.FirstChild.Data
}

func firstElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, tag) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := firstElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func walk(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		name := strings.ToLower(n.Data)
		if skipped[name] || isConsentBoilerplate(n) {
			return
		}
		if isBlock(name) {
			b.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(b, c)
		}
		if isBlock(name) {
			b.WriteString("\n")
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(b, c)
	}
}

func isBlock(name string) bool {
	switch name {
	case "p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "ul", "ol",
		"pre", "blockquote", "table", "tr", "br", "hr", "div", "section":
		return true
	}
	return false
}

// isConsentBoilerplate flags cookie/consent banner containers by their id or
// class markers.
func isConsentBoilerplate(n *html.Node) bool {
	for _, attr := range n.Attr {
		key := strings.ToLower(attr.Key)
		if key != "id" && key != "class" && key != "role" && !strings.HasPrefix(key, "data-") {
			continue
		}
		val := strings.ToLower(attr.Val)
		for _, marker := range []string{"cookie", "consent", "gdpr"} {
			if strings.Contains(val, marker) {
				return true
			}
		}
	}
	return false
}

// normalize collapses whitespace runs inside lines and blank-line runs
// between them.
func normalize(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		out = append(out, strings.Join(fields, " "))
	}
	return strings.Join(out, "\n")
}
