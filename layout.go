package hxnav

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/pthm/hxnav/lib/dom"
)

// ContentSlot is the slot a layout renders its content view into.
const ContentSlot = "content"

// layoutUID is the identity of every layout; content uids derive from it.
const layoutUID = "0"

// ErrLayoutNotRendered is returned by AsHTML before the layout has a document.
var ErrLayoutNotRendered = errors.New("hxnav: layout has no document")

// Layout is the page-level root view. It owns the document shell (title, head
// tags) and a single content slot, and is reused across navigations that
// target the same LayoutKind.
type Layout interface {
	View

	Kind() *LayoutKind
	IsSameTypeAs(kind *LayoutKind) bool
	IsSameAs(other Layout) bool

	SetEnvironmentConfig(cfg EnvironmentConfig)
	EnvironmentConfig() EnvironmentConfig

	// FetchData loads layout-level data. It runs at most once per kind
	// while navigations keep targeting that kind.
	FetchData(ctx context.Context) (any, error)
	// HydrateData receives the result of FetchData, possibly fetched by
	// another instance of the same kind.
	HydrateData(data any)
	// BackToNormal resets transient visual state such as scroll position or
	// open overlays.
	BackToNormal()

	SetTitle(title string)
	SetMetaTags(tags ...Tag)

	SetContent(ctx context.Context, v View) error
	SetContentToAttachedView(v View)
	ClearContent()
	Content() View

	GenerateChildUID(requestID int) string
	SetExtraRenderInstructions(fn func(Layout))

	Document() *dom.Document
	AsHTML() (string, error)
}

// LayoutKind identifies a type of layout. Two layouts are the same type
// exactly when they share a *LayoutKind.
type LayoutKind struct {
	name    string
	factory func(*LayoutKind) Layout
}

// DefineLayout registers a layout type. The factory receives the kind so it
// can pass it to NewLayout:
//
//	var BlogLayout = hxnav.DefineLayout("blog", func(k *hxnav.LayoutKind) hxnav.Layout {
//	    return hxnav.NewLayout(k, blogShell(), hxnav.WithDefaultTitle("Blog"))
//	})
func DefineLayout(name string, factory func(kind *LayoutKind) Layout) *LayoutKind {
	return &LayoutKind{name: name, factory: factory}
}

// Name returns the name given to DefineLayout.
func (k *LayoutKind) Name() string { return k.name }

// New instantiates a layout of this kind.
func (k *LayoutKind) New() Layout {
	l := k.factory(k)
	if l == nil {
		panic(fmt.Sprintf("hxnav: layout factory for %q returned nil", k.name))
	}
	return l
}

// DefaultLayout is used by routers that do not name a layout. It renders a
// bare document whose body is the content slot.
var DefaultLayout = DefineLayout("default", func(k *LayoutKind) Layout {
	return NewLayout(k, templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<!DOCTYPE html><html><head><title></title></head><body><div data-slot="content"></div></body></html>`)
		return err
	}))
})

// LayoutOption configures a LayoutBase.
type LayoutOption func(*LayoutBase)

// WithDefaultTitle sets the title used when a view provides none.
func WithDefaultTitle(title string) LayoutOption {
	return func(l *LayoutBase) {
		l.defaultTitle = title
	}
}

// WithDataFetcher sets the FetchData implementation.
func WithDataFetcher(fn func(ctx context.Context, cfg EnvironmentConfig) (any, error)) LayoutOption {
	return func(l *LayoutBase) {
		l.fetch = fn
	}
}

// WithDataHydrater is called with fetched layout data before the layout
// renders.
func WithDataHydrater(fn func(data any)) LayoutOption {
	return func(l *LayoutBase) {
		l.hydrate = fn
	}
}

// WithBackToNormal sets the BackToNormal implementation.
func WithBackToNormal(fn func()) LayoutOption {
	return func(l *LayoutBase) {
		l.backToNormal = fn
	}
}

// WithClientMetaTags makes client navigations update head tags from the
// rendered view. Without it only the server sets them.
func WithClientMetaTags() LayoutOption {
	return func(l *LayoutBase) {
		l.clientMetaTags = true
	}
}

// WithViewOptions applies view options (hooks, template func) to the layout.
func WithViewOptions(opts ...ViewOption) LayoutOption {
	return func(l *LayoutBase) {
		for _, opt := range opts {
			opt(l.ViewBase)
		}
	}
}

// LayoutBase is the standard Layout implementation.
//
// On the server the template renders a full HTML document. On the client the
// layout is bound to the live document with Reattach and never re-templates.
type LayoutBase struct {
	*ViewBase

	kind           *LayoutKind
	defaultTitle   string
	fetch          func(ctx context.Context, cfg EnvironmentConfig) (any, error)
	hydrate        func(data any)
	backToNormal   func()
	clientMetaTags bool

	env          EnvironmentConfig
	data         any
	pendingTitle *string
	pendingTags  []Tag
	tagsPending  bool
	extra        func(Layout)
	childUIDs    int
}

// NewLayout creates a layout of kind rendering tmpl as its document.
func NewLayout(kind *LayoutKind, tmpl templ.Component, opts ...LayoutOption) *LayoutBase {
	l := &LayoutBase{
		ViewBase: NewView(kind.Name(), tmpl, WithTagName("html")),
		kind:     kind,
	}
	l.uid = layoutUID
	l.attached = true
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Kind returns the layout type.
func (l *LayoutBase) Kind() *LayoutKind { return l.kind }

// IsSameTypeAs reports whether the layout is of kind.
func (l *LayoutBase) IsSameTypeAs(kind *LayoutKind) bool { return l.kind == kind }

// IsSameAs reports whether other is a layout of the same kind.
func (l *LayoutBase) IsSameAs(other Layout) bool {
	return other != nil && other.Kind() == l.kind
}

// ClientMetaTags reports whether client renders update head tags.
func (l *LayoutBase) ClientMetaTags() bool { return l.clientMetaTags }

func (l *LayoutBase) SetEnvironmentConfig(cfg EnvironmentConfig) { l.env = cfg }

func (l *LayoutBase) EnvironmentConfig() EnvironmentConfig { return l.env }

// FetchData runs the configured fetcher, or returns nil data.
func (l *LayoutBase) FetchData(ctx context.Context) (any, error) {
	if l.fetch == nil {
		return nil, nil
	}
	return l.fetch(ctx, l.env)
}

// HydrateData stores data and passes it to the configured hydrater.
func (l *LayoutBase) HydrateData(data any) {
	l.data = data
	if l.hydrate != nil {
		l.hydrate(data)
	}
}

// Data returns the last hydrated layout data.
func (l *LayoutBase) Data() any { return l.data }

func (l *LayoutBase) BackToNormal() {
	if l.backToNormal != nil {
		l.backToNormal()
	}
}

// Reattach binds the layout to doc, the live client document.
func (l *LayoutBase) Reattach(doc *dom.Document) {
	if doc == nil {
		return
	}
	l.doc = doc
	l.el = doc.DocumentElement()
}

// IsAttached is always true: a layout owns the document it renders into.
func (l *LayoutBase) IsAttached() bool { return true }

// Render builds the document on the server, or adopts the bound document on
// the client, then applies pending head changes and renders pending child
// views.
func (l *LayoutBase) Render(ctx context.Context) error {
	if l.closed {
		return fmt.Errorf("hxnav: render of closed layout %q", l.name)
	}
	if l.rendered {
		return nil
	}

	if l.hooks.BeforeRender != nil {
		l.hooks.BeforeRender()
	}

	serverSide := l.doc == nil
	if serverSide {
		doc, err := l.renderDocument(ctx)
		if err != nil {
			return err
		}
		l.doc = doc
		l.el = doc.DocumentElement()
	}

	l.applyPending()

	if serverSide && l.extra != nil {
		l.extra(l)
	}

	if err := l.renderChildren(ctx); err != nil {
		return err
	}

	l.rendered = true

	if l.hooks.AfterRender != nil {
		l.hooks.AfterRender()
	}
	return nil
}

func (l *LayoutBase) renderDocument(ctx context.Context) (*dom.Document, error) {
	tmpl := l.template()
	if tmpl == nil {
		return dom.New(), nil
	}

	var buf bytes.Buffer
	if err := tmpl.Render(ctx, &buf); err != nil {
		return nil, fmt.Errorf("hxnav: render layout %s: %w", l.name, err)
	}
	doc, err := dom.Parse(&buf)
	if err != nil {
		return nil, fmt.Errorf("hxnav: parse layout %s: %w", l.name, err)
	}
	return doc, nil
}

func (l *LayoutBase) applyPending() {
	if l.pendingTitle != nil {
		l.doc.SetTitle(*l.pendingTitle)
		l.pendingTitle = nil
	}
	if l.tagsPending {
		l.applyTags(l.pendingTags)
		l.pendingTags = nil
		l.tagsPending = false
	}
}

// SetTitle sets the document title. An empty title means the default title.
func (l *LayoutBase) SetTitle(title string) {
	if title == "" {
		title = l.defaultTitle
	}
	if l.doc == nil {
		l.pendingTitle = &title
		return
	}
	l.doc.SetTitle(title)
}

// SetMetaTags removes previously set tags from <head> and appends tags.
func (l *LayoutBase) SetMetaTags(tags ...Tag) {
	if l.doc == nil {
		l.pendingTags = tags
		l.tagsPending = true
		return
	}
	l.applyTags(tags)
}

func (l *LayoutBase) applyTags(tags []Tag) {
	head := l.doc.Head()
	if head == nil {
		return
	}
	for _, n := range dom.FindAll(head, dom.ByAttr(dom.EphemeralAttribute, "true")) {
		dom.Detach(n)
	}
	for _, tag := range tags {
		if tag == nil {
			continue
		}
		nodes, err := dom.ParseFragment(tag.HTML(), head)
		if err != nil {
			continue
		}
		dom.AppendChildren(head, nodes...)
	}
}

// SetContent replaces the content view, rendering v into the content slot.
func (l *LayoutBase) SetContent(ctx context.Context, v View) error {
	return l.ReplaceChildView(ctx, ContentSlot, v)
}

// SetContentToAttachedView records v, already present in the document, as
// the content view.
func (l *LayoutBase) SetContentToAttachedView(v View) {
	l.adoptChild(ContentSlot, v)
}

// ClearContent closes the content view.
func (l *LayoutBase) ClearContent() {
	l.CloseChildView(ContentSlot)
}

// Content returns the content view, or nil.
func (l *LayoutBase) Content() View {
	return l.ChildView(ContentSlot)
}

// GenerateChildUID returns "<requestID>|<layout uid>_<n>" where n counts the
// uids generated by this layout.
func (l *LayoutBase) GenerateChildUID(requestID int) string {
	uid := fmt.Sprintf("%d|%s_%d", requestID, l.uid, l.childUIDs)
	l.childUIDs++
	return uid
}

// SetExtraRenderInstructions registers a callback run after the server
// renders the document.
func (l *LayoutBase) SetExtraRenderInstructions(fn func(Layout)) {
	l.extra = fn
}

// Document returns the document the layout renders into.
func (l *LayoutBase) Document() *dom.Document { return l.doc }

// AsHTML serializes the document, doctype included.
func (l *LayoutBase) AsHTML() (string, error) {
	if l.doc == nil {
		return "", ErrLayoutNotRendered
	}
	return l.doc.HTML()
}

// Close closes the content view. The document itself is left in place.
func (l *LayoutBase) Close() {
	l.close(false)
}
