// Package dom is a small document model over golang.org/x/net/html.
//
// It holds the live document a client session renders into, and the fresh
// documents the server renders layouts into. Elements produced by server
// rendering carry a data-view-uid attribute so the client can rebind views to
// the existing markup instead of regenerating it.
//
// A Document is not safe for concurrent mutation; callers serialize writes.
// The server-view index is the exception and has its own lock.
package dom

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attribute names shared by the renderers and the client runtime.
const (
	IdentityAttribute  = "data-view-uid"
	SlotAttribute      = "data-slot"
	EphemeralAttribute = "data-ephemeral"
)

// ErrNoDocumentElement is returned when parsed markup has no <html> element.
var ErrNoDocumentElement = errors.New("dom: document has no <html> element")

const blankDocument = `<!DOCTYPE html><html><head><title></title></head><body></body></html>`

// Document wraps a parsed HTML document node.
type Document struct {
	root *html.Node

	mu    sync.Mutex
	views map[string]*html.Node
}

// New returns a blank document with an empty head and body.
func New() *Document {
	doc, err := ParseString(blankDocument)
	if err != nil {
		panic("dom: blank document failed to parse: " + err.Error())
	}
	return doc
}

// Parse reads a full HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	doc := &Document{root: root, views: make(map[string]*html.Node)}
	if doc.DocumentElement() == nil {
		return nil, ErrNoDocumentElement
	}
	return doc, nil
}

// ParseString is Parse for in-memory markup.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Node returns the underlying document node.
func (d *Document) Node() *html.Node {
	return d.root
}

// DocumentElement returns the <html> element.
func (d *Document) DocumentElement() *html.Node {
	return Find(d.root, isElement(atom.Html))
}

// Head returns the <head> element. The HTML parser always synthesizes one.
func (d *Document) Head() *html.Node {
	return Find(d.root, isElement(atom.Head))
}

// Body returns the <body> element.
func (d *Document) Body() *html.Node {
	return Find(d.root, isElement(atom.Body))
}

// Title returns the text of the <title> element.
func (d *Document) Title() string {
	if t := Find(d.root, isElement(atom.Title)); t != nil {
		return Text(t)
	}
	return ""
}

// SetTitle sets the text of the <title> element, creating it when missing.
func (d *Document) SetTitle(title string) {
	t := Find(d.root, isElement(atom.Title))
	if t == nil {
		head := d.Head()
		if head == nil {
			return
		}
		t = NewElement("title")
		head.AppendChild(t)
	}
	SetText(t, title)
}

// ElementByID returns the first element whose id attribute equals id.
func (d *Document) ElementByID(id string) *html.Node {
	return Find(d.root, ByAttr("id", id))
}

// IndexServerViews records every element carrying an identity attribute so
// views can later claim them with TakeServerView. It returns the number of
// elements indexed.
func (d *Document) IndexServerViews() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.views = make(map[string]*html.Node)
	for _, n := range FindAll(d.root, HasAttr(IdentityAttribute)) {
		uid, _ := Attr(n, IdentityAttribute)
		d.views[uid] = n
	}
	return len(d.views)
}

// TakeServerView returns the indexed element for uid and removes it from the
// index, so each server element is claimed at most once.
func (d *Document) TakeServerView(uid string) *html.Node {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := d.views[uid]
	delete(d.views, uid)
	return n
}

// ResetServerViews empties the identity index.
func (d *Document) ResetServerViews() {
	d.mu.Lock()
	d.views = make(map[string]*html.Node)
	d.mu.Unlock()
}

// HTML serializes the whole document, doctype included.
func (d *Document) HTML() (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func isElement(a atom.Atom) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == a
	}
}
