package hxnav

import "sync"

// LayoutDelegate is the layout as seen by a route handler. Mutations are
// buffered and only reach the layout once the navigation is confirmed to be
// the latest; a superseded handler's mutations are dropped.
//
// After the navigation commits, commands apply immediately.
//
// LayoutDelegate is safe for concurrent use.
type LayoutDelegate struct {
	mu        sync.Mutex
	layout    Layout
	recording bool
	discarded bool
	commands  []func(Layout)
}

func newLayoutDelegate(l Layout) *LayoutDelegate {
	return &LayoutDelegate{layout: l, recording: true}
}

// SetTitle records a title change.
func (d *LayoutDelegate) SetTitle(title string) {
	d.Do(func(l Layout) { l.SetTitle(title) })
}

// SetMetaTags records a head tag change.
func (d *LayoutDelegate) SetMetaTags(tags ...Tag) {
	d.Do(func(l Layout) { l.SetMetaTags(tags...) })
}

// Do records an arbitrary layout command.
func (d *LayoutDelegate) Do(fn func(Layout)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case d.discarded:
	case d.recording:
		d.commands = append(d.commands, fn)
	default:
		fn(d.layout)
	}
}

// DoAs records a command for layout-specific methods. It returns false,
// recording nothing, when the layout is not an L.
//
//	hxnav.DoAs(nav.Layout, func(l *BlogLayout) { l.HighlightTab("archive") })
func DoAs[L Layout](d *LayoutDelegate, fn func(L)) bool {
	if _, ok := d.layout.(L); !ok {
		return false
	}
	d.Do(func(l Layout) { fn(l.(L)) })
	return true
}

// EnvironmentConfig returns the layout's environment config.
func (d *LayoutDelegate) EnvironmentConfig() EnvironmentConfig {
	return d.layout.EnvironmentConfig()
}

// Kind returns the layout type.
func (d *LayoutDelegate) Kind() *LayoutKind {
	return d.layout.Kind()
}

// ReplayInstructions applies buffered commands in order and clears the
// buffer.
func (d *LayoutDelegate) ReplayInstructions() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.discarded {
		return
	}
	for _, fn := range d.commands {
		fn(d.layout)
	}
	d.commands = nil
}

// StopRecording makes later commands apply immediately.
func (d *LayoutDelegate) StopRecording() {
	d.mu.Lock()
	d.recording = false
	d.mu.Unlock()
}

// Discard drops buffered commands and ignores later ones.
func (d *LayoutDelegate) Discard() {
	d.mu.Lock()
	d.discarded = true
	d.commands = nil
	d.mu.Unlock()
}

// Pending returns the number of buffered commands.
func (d *LayoutDelegate) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.commands)
}
