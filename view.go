package hxnav

import (
	"bytes"
	"context"
	"fmt"

	"github.com/a-h/templ"
	"golang.org/x/net/html"

	"github.com/pthm/hxnav/lib/dom"
)

// ViewHooks are optional lifecycle callbacks.
type ViewHooks struct {
	BeforeRender func()
	AfterRender  func()
	OnEnterDOM   func()
	OnClose      func()
}

// ViewOption configures a ViewBase.
type ViewOption func(*ViewBase)

// WithTagName sets the root element tag. The default is "div".
func WithTagName(tag string) ViewOption {
	return func(v *ViewBase) {
		v.tagName = tag
	}
}

// WithHooks sets the lifecycle hooks.
func WithHooks(h ViewHooks) ViewOption {
	return func(v *ViewBase) {
		v.hooks = h
	}
}

// WithTemplateFunc builds the template at render time instead of at
// construction, so it can read state set after NewView.
func WithTemplateFunc(fn func() templ.Component) ViewOption {
	return func(v *ViewBase) {
		v.tmplFn = fn
	}
}

// ViewBase is the standard View implementation.
//
// A view renders its templ component into a root element tagged with its
// uid. Child views live in named slots: the element in the parent's markup
// carrying data-slot="<name>". Each slot holds one child.
//
// ViewBase is not safe for concurrent use.
type ViewBase struct {
	name    string
	tagName string
	tmpl    templ.Component
	tmplFn  func() templ.Component
	hooks   ViewHooks

	uid      string
	el       *html.Node
	doc      *dom.Document
	rendered bool
	attached bool
	closed   bool
	inDOM    bool

	children []*childView
	created  int
}

type childView struct {
	slot string
	view View
	n    int
}

// NewView creates a view rendering tmpl. A nil template renders an empty
// root element.
func NewView(name string, tmpl templ.Component, opts ...ViewOption) *ViewBase {
	v := &ViewBase{
		name:    name,
		tagName: "div",
		tmpl:    tmpl,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Name returns the name given to NewView.
func (v *ViewBase) Name() string { return v.name }

// UID returns the view identity.
func (v *ViewBase) UID() string { return v.uid }

// SetUID sets the view identity. It is written to the root element on the
// next render.
func (v *ViewBase) SetUID(uid string) {
	v.uid = uid
	if v.el != nil && !v.attached {
		dom.SetAttr(v.el, dom.IdentityAttribute, uid)
	}
}

// Element returns the root element, or nil before render and after close.
func (v *ViewBase) Element() *html.Node { return v.el }

// HasBeenRendered reports whether Render completed.
func (v *ViewBase) HasBeenRendered() bool { return v.rendered }

// IsAttached reports whether the view is bound to pre-existing markup.
func (v *ViewBase) IsAttached() bool { return v.attached }

// IsClosed reports whether Close ran.
func (v *ViewBase) IsClosed() bool { return v.closed }

// IsInDOM reports whether EnterDOM ran.
func (v *ViewBase) IsInDOM() bool { return v.inDOM }

// Reattach looks for server-rendered markup with this view's uid in doc and
// binds to it. Each server element can be claimed once.
func (v *ViewBase) Reattach(doc *dom.Document) {
	v.doc = doc
	if v.attached || doc == nil || v.uid == "" {
		return
	}
	if el := doc.TakeServerView(v.uid); el != nil {
		v.el = el
		v.attached = true
	}
}

// Render executes the template into a fresh root element, or keeps the bound
// element for an attached view, and then renders pending child views.
func (v *ViewBase) Render(ctx context.Context) error {
	if v.closed {
		return fmt.Errorf("hxnav: render of closed view %q", v.name)
	}
	if v.rendered {
		return nil
	}

	if v.hooks.BeforeRender != nil {
		v.hooks.BeforeRender()
	}

	if !v.attached {
		el, err := v.renderTemplate(ctx)
		if err != nil {
			return err
		}
		v.el = el
	}

	if err := v.renderChildren(ctx); err != nil {
		return err
	}

	v.rendered = true

	if v.hooks.AfterRender != nil {
		v.hooks.AfterRender()
	}
	return nil
}

func (v *ViewBase) template() templ.Component {
	if v.tmplFn != nil {
		return v.tmplFn()
	}
	return v.tmpl
}

func (v *ViewBase) renderTemplate(ctx context.Context) (*html.Node, error) {
	el := dom.NewElement(v.tagName)
	if v.uid != "" {
		dom.SetAttr(el, dom.IdentityAttribute, v.uid)
	}

	tmpl := v.template()
	if tmpl == nil {
		return el, nil
	}

	var buf bytes.Buffer
	if err := tmpl.Render(ctx, &buf); err != nil {
		return nil, fmt.Errorf("hxnav: render %s: %w", v.name, err)
	}
	nodes, err := dom.ParseFragment(buf.String(), el)
	if err != nil {
		return nil, fmt.Errorf("hxnav: parse %s: %w", v.name, err)
	}
	dom.AppendChildren(el, nodes...)
	return el, nil
}

func (v *ViewBase) renderChildren(ctx context.Context) error {
	for _, c := range v.children {
		if err := v.renderChild(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (v *ViewBase) renderChild(ctx context.Context, c *childView) error {
	if c.view.HasBeenRendered() || c.view.IsClosed() {
		return nil
	}
	if c.view.UID() == "" {
		c.view.SetUID(fmt.Sprintf("%s_%d", v.uid, c.n))
	}
	if v.doc != nil {
		c.view.Reattach(v.doc)
	}
	if err := c.view.Render(ctx); err != nil {
		return err
	}
	if c.view.IsAttached() {
		return nil
	}
	return v.insert(c)
}

func (v *ViewBase) insert(c *childView) error {
	slot := findSlot(v.el, c.slot)
	if slot == nil {
		return fmt.Errorf("%w: %q in %s", ErrNoSlot, c.slot, v.name)
	}
	dom.ReplaceChildren(slot, c.view.Element())
	return nil
}

// findSlot finds a slot element owned by root, without descending into
// nested views.
func findSlot(root *html.Node, name string) *html.Node {
	if root == nil {
		return nil
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if v, ok := dom.Attr(c, dom.SlotAttribute); ok && v == name {
			return c
		}
		if _, nested := dom.Attr(c, dom.IdentityAttribute); nested {
			continue
		}
		if n := findSlot(c, name); n != nil {
			return n
		}
	}
	return nil
}

// CreateChildView places child in slot, closing any view already there.
// The child is rendered with the parent; use ReplaceChildView once the
// parent has been rendered.
func (v *ViewBase) CreateChildView(slot string, child View) View {
	v.place(slot, child)
	return child
}

// ReplaceChildView places child in slot, closing any view already there,
// and renders it into the slot immediately if the parent is rendered.
func (v *ViewBase) ReplaceChildView(ctx context.Context, slot string, child View) error {
	c := v.place(slot, child)
	if !v.rendered {
		return nil
	}
	if c.view.UID() == "" {
		c.view.SetUID(fmt.Sprintf("%s_%d", v.uid, c.n))
	}
	if err := c.view.Render(ctx); err != nil {
		return err
	}
	return v.insert(c)
}

// adoptChild records an already rendered child without inserting it.
func (v *ViewBase) adoptChild(slot string, child View) {
	v.place(slot, child)
}

func (v *ViewBase) place(slot string, child View) *childView {
	c := &childView{slot: slot, view: child, n: v.created}
	v.created++

	for i, existing := range v.children {
		if existing.slot != slot {
			continue
		}
		if existing.view != child {
			existing.view.Close()
		}
		v.children[i] = c
		return c
	}
	v.children = append(v.children, c)
	return c
}

// CloseChildView closes and forgets the child in slot.
func (v *ViewBase) CloseChildView(slot string) {
	for i, c := range v.children {
		if c.slot == slot {
			c.view.Close()
			v.children = append(v.children[:i], v.children[i+1:]...)
			return
		}
	}
}

// ChildView returns the child in slot, or nil.
func (v *ViewBase) ChildView(slot string) View {
	for _, c := range v.children {
		if c.slot == slot {
			return c.view
		}
	}
	return nil
}

// EnterDOM runs the OnEnterDOM hook and then enters every child. Views
// already in the DOM are skipped.
func (v *ViewBase) EnterDOM() {
	if v.closed || v.inDOM {
		return
	}
	v.inDOM = true
	if v.hooks.OnEnterDOM != nil {
		v.hooks.OnEnterDOM()
	}
	for _, c := range v.children {
		c.view.EnterDOM()
	}
}

// Close closes children in reverse creation order, runs OnClose, and
// removes the root element from the document.
func (v *ViewBase) Close() {
	v.close(true)
}

func (v *ViewBase) close(detach bool) {
	if v.closed {
		return
	}
	v.closed = true

	for i := len(v.children) - 1; i >= 0; i-- {
		v.children[i].view.Close()
	}
	v.children = nil

	if v.hooks.OnClose != nil {
		v.hooks.OnClose()
	}

	if detach && v.el != nil && v.el.Parent != nil {
		dom.Detach(v.el)
	}
	v.el = nil
	v.doc = nil
	v.inDOM = false
}
