package dom

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Find returns the first node under root (root included) in document order
// for which match reports true.
func Find(root *html.Node, match func(*html.Node) bool) *html.Node {
	if root == nil {
		return nil
	}
	if match(root) {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if n := Find(c, match); n != nil {
			return n
		}
	}
	return nil
}

// FindAll returns every node under root (root included) matching match.
func FindAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// ByAttr matches elements whose attribute key equals val.
func ByAttr(key, val string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		v, ok := Attr(n, key)
		return ok && v == val
	}
}

// HasAttr matches elements carrying attribute key.
func HasAttr(key string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		_, ok := Attr(n, key)
		return ok
	}
}

// ByTag matches elements with the given tag name.
func ByTag(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag
	}
}

// Attr returns the value of an element attribute.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil || n.Type != html.ElementNode {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces an element attribute.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// NewElement creates a detached element.
func NewElement(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

// ParseFragment parses markup as the children of an element like context.
// A nil context parses as the content of a <div>.
func ParseFragment(markup string, context *html.Node) ([]*html.Node, error) {
	if context == nil {
		context = NewElement("div")
	}
	return html.ParseFragment(strings.NewReader(markup), &html.Node{
		Type:     html.ElementNode,
		Data:     context.Data,
		DataAtom: context.DataAtom,
	})
}

// ReplaceChildren removes all children of parent and appends children.
func ReplaceChildren(parent *html.Node, children ...*html.Node) {
	for c := parent.FirstChild; c != nil; {
		next := c.NextSibling
		parent.RemoveChild(c)
		c = next
	}
	AppendChildren(parent, children...)
}

// AppendChildren appends children to parent, detaching them first.
func AppendChildren(parent *html.Node, children ...*html.Node) {
	for _, c := range children {
		Detach(c)
		parent.AppendChild(c)
	}
}

// PrependChild inserts child as the first child of parent.
func PrependChild(parent, child *html.Node) {
	Detach(child)
	if parent.FirstChild == nil {
		parent.AppendChild(child)
		return
	}
	parent.InsertBefore(child, parent.FirstChild)
}

// Detach removes n from its parent. Detached nodes are left alone.
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// OuterHTML serializes n including its own tag.
func OuterHTML(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// InnerHTML serializes the children of n.
func InnerHTML(n *html.Node) (string, error) {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// Text concatenates the text nodes under n.
func Text(n *html.Node) string {
	var sb strings.Builder
	for _, t := range FindAll(n, func(n *html.Node) bool { return n.Type == html.TextNode }) {
		sb.WriteString(t.Data)
	}
	return sb.String()
}

// SetText replaces the children of n with a single text node.
func SetText(n *html.Node, text string) {
	ReplaceChildren(n, &html.Node{Type: html.TextNode, Data: text})
}
