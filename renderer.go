package hxnav

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/pthm/hxnav/lib/dom"
)

// Element ids and types of the scripts the server appends to <body>.
const (
	EnvScriptID     = "hxnav-env"
	StateScriptID   = "hxnav-state"
	StateScriptMIME = "application/x-hxnav-state"
)

// Renderer puts a view into a layout for navigation requestID.
type Renderer interface {
	Render(ctx context.Context, layout Layout, view View, requestID int) error
}

// ClientRenderer renders into the live client document.
//
// The view's uid is derived from requestID and the layout's uid counter, so
// the first client navigation produces the same uid the server gave the
// view ("1|0_0") and the view binds to the server markup instead of
// re-rendering it.
type ClientRenderer struct{}

var _ Renderer = ClientRenderer{}

// Render reattaches the view (always, so it can claim server markup), then
// either keeps the attached markup or renders and swaps the content slot,
// updates the head and signals EnterDOM.
func (ClientRenderer) Render(ctx context.Context, layout Layout, view View, requestID int) error {
	view.SetUID(layout.GenerateChildUID(requestID))
	view.Reattach(layout.Document())

	if view.IsAttached() {
		if err := view.Render(ctx); err != nil {
			return err
		}
		layout.SetContentToAttachedView(view)
	} else if err := layout.SetContent(ctx, view); err != nil {
		return err
	}

	applyHead(layout, view, true)
	view.EnterDOM()
	return nil
}

// applyHead copies the view's title and, on the server or for layouts that
// opt in on the client, its meta tags to the layout. Views that are not
// Titled leave the title set by the handler through the delegate.
func applyHead(layout Layout, view View, client bool) {
	if t, ok := view.(Titled); ok {
		layout.SetTitle(t.Title())
	}

	if client {
		cm, ok := layout.(interface{ ClientMetaTags() bool })
		if !ok || !cm.ClientMetaTags() {
			return
		}
	}

	var tags []Tag
	if mt, ok := view.(MetaTagged); ok {
		tags = mt.MetaTags()
	}
	layout.SetMetaTags(tags...)
}

// ServerRenderOptions carry the per-request inputs of a server render.
type ServerRenderOptions struct {
	EnvironmentConfig EnvironmentConfig
	// ClientAppURL is loaded by a script tag at the end of <body>.
	ClientAppURL string
	// Request supplies protocol and host for the <base> tag.
	Request *Request
	// State is the encoded bootstrap payload, if any.
	State string
	// OnRender runs against the layout after its template renders.
	OnRender func(Layout)
}

// ServerRenderer renders a fresh layout and view into a complete HTML page.
type ServerRenderer struct{}

// Render produces the page and closes the layout.
func (ServerRenderer) Render(ctx context.Context, layout Layout, view View, opts ServerRenderOptions) (string, error) {
	defer layout.Close()

	applyHead(layout, view, false)
	layout.SetEnvironmentConfig(opts.EnvironmentConfig)
	if opts.OnRender != nil {
		layout.SetExtraRenderInstructions(opts.OnRender)
	}

	if err := layout.Render(ctx); err != nil {
		return "", err
	}

	view.SetUID(layout.GenerateChildUID(serverRequestID))
	if err := layout.SetContent(ctx, view); err != nil {
		return "", err
	}

	doc := layout.Document()
	if err := appendStartScripts(doc, opts); err != nil {
		return "", err
	}
	insertBaseTag(doc, opts.EnvironmentConfig.AppRoot(), opts.Request)

	return layout.AsHTML()
}

func appendStartScripts(doc *dom.Document, opts ServerRenderOptions) error {
	body := doc.Body()
	if body == nil {
		return nil
	}

	env, err := marshalEnvironment(opts.EnvironmentConfig)
	if err != nil {
		return err
	}

	envScript := dom.NewElement("script",
		html.Attribute{Key: "id", Val: EnvScriptID},
		html.Attribute{Key: "type", Val: "application/json"},
	)
	dom.SetText(envScript, env)
	body.AppendChild(envScript)

	if opts.State != "" {
		stateScript := dom.NewElement("script",
			html.Attribute{Key: "id", Val: StateScriptID},
			html.Attribute{Key: "type", Val: StateScriptMIME},
		)
		dom.SetText(stateScript, opts.State)
		body.AppendChild(stateScript)
	}

	if opts.ClientAppURL != "" {
		body.AppendChild(dom.NewElement("script",
			html.Attribute{Key: "src", Val: opts.ClientAppURL},
			html.Attribute{Key: "defer", Val: ""},
		))
	}
	return nil
}

// marshalEnvironment encodes the config as JSON that is safe inside a
// <script> element.
func marshalEnvironment(env EnvironmentConfig) (string, error) {
	if env == nil {
		env = EnvironmentConfig{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(env); err != nil {
		return "", err
	}
	return escapeClosingScript(strings.TrimSpace(buf.String())), nil
}

func escapeClosingScript(s string) string {
	return strings.ReplaceAll(s, "</script", `<\/script`)
}

// insertBaseTag replaces any <base> with one pointing at the app root, as
// the first element of <head>.
func insertBaseTag(doc *dom.Document, appRoot string, req *Request) {
	head := doc.Head()
	if head == nil || req == nil {
		return
	}
	for _, b := range dom.FindAll(head, dom.ByTag("base")) {
		dom.Detach(b)
	}

	u := url.URL{Scheme: req.Protocol, Host: req.Host, Path: appRoot + "/"}
	dom.PrependChild(head, dom.NewElement("base", html.Attribute{Key: "href", Val: u.String()}))
}
