package preview

import (
	"bytes"
	"errors"
	"log"
	"time"

	"go-markdown-preview/internal/contracts"
	"go-markdown-preview/internal/render"
)

var errGone = errors.New("already disconnected")

type fakeSub struct {
	released  bool
	onRelease func()
}

func (s *fakeSub) Unsubscribe() error {
	if s.released {
		return errGone
	}
	s.released = true
	if s.onRelease != nil {
		s.onRelease()
	}
	return nil
}

type fakeDoc struct {
	id      contracts.DocumentID
	name    string
	text    string
	dir     string
	ctype   string
	nameErr error

	subscribes   int
	unsubscribes int
	live         int
	onText       func()
	onSelection  func()
}

func (d *fakeDoc) ID() contracts.DocumentID { return d.id }

func (d *fakeDoc) Name() (string, error) { return d.name, d.nameErr }

func (d *fakeDoc) Text() (string, error) { return d.text, nil }

func (d *fakeDoc) LocationDirectoryURI() (string, error) { return d.dir, nil }

func (d *fakeDoc) DeclaredContentType() (string, error) { return d.ctype, nil }

func (d *fakeDoc) Subscribe(onText, onSelection func()) (contracts.Subscription, error) {
	d.subscribes++
	d.live++
	d.onText = onText
	d.onSelection = onSelection
	return &fakeSub{onRelease: func() {
		d.unsubscribes++
		d.live--
		d.onText = nil
		d.onSelection = nil
	}}, nil
}

type fakeSource struct {
	active contracts.Document
	err    error
}

func (s *fakeSource) ActiveDocument() (contracts.Document, error) {
	return s.active, s.err
}

type fakeWindow struct {
	active, opened, closed []func()
	failOpened             bool
	subs                   []*fakeSub
}

func (w *fakeWindow) add(list *[]func(), fn func()) (contracts.Subscription, error) {
	*list = append(*list, fn)
	sub := &fakeSub{}
	w.subs = append(w.subs, sub)
	return sub, nil
}

func (w *fakeWindow) OnActiveDocumentChanged(fn func()) (contracts.Subscription, error) {
	return w.add(&w.active, fn)
}

func (w *fakeWindow) OnDocumentOpened(fn func()) (contracts.Subscription, error) {
	if w.failOpened {
		return nil, errors.New("no such signal")
	}
	return w.add(&w.opened, fn)
}

func (w *fakeWindow) OnDocumentClosed(fn func()) (contracts.Subscription, error) {
	return w.add(&w.closed, fn)
}

func (w *fakeWindow) fireActive() {
	for _, fn := range w.active {
		fn()
	}
}

func (w *fakeWindow) allReleased() bool {
	for _, s := range w.subs {
		if !s.released {
			return false
		}
	}
	return true
}

type fakeContainer struct {
	mounted bool
	visible bool

	mounts   int
	unmounts int
	hides    int
	mountErr error

	listeners []func(bool)
	subs      []*fakeSub
}

func (c *fakeContainer) MountSurface() error {
	if c.mountErr != nil {
		return c.mountErr
	}
	c.mounts++
	c.mounted = true
	return nil
}

func (c *fakeContainer) UnmountSurface() error {
	c.unmounts++
	c.mounted = false
	return nil
}

func (c *fakeContainer) IsSurfaceMounted() bool { return c.mounted }

func (c *fakeContainer) IsContainerVisible() bool { return c.visible }

func (c *fakeContainer) SetContainerVisible(visible bool) error {
	c.visible = visible
	if !visible {
		c.hides++
		c.mounted = false
	}
	return nil
}

func (c *fakeContainer) OnVisibilityChanged(fn func(bool)) (contracts.Subscription, error) {
	c.listeners = append(c.listeners, fn)
	sub := &fakeSub{}
	c.subs = append(c.subs, sub)
	return sub, nil
}

// toggle simulates the user showing or hiding the panel.
func (c *fakeContainer) toggle(visible bool) {
	_ = c.SetContainerVisible(visible)
	for _, fn := range c.listeners {
		fn(visible)
	}
}

type renderCall struct {
	HTML string
	Base string
}

type fakeSink struct {
	calls []renderCall
	err   error
	panic bool
}

func (s *fakeSink) Render(html, base string) error {
	if s.panic {
		panic("view destroyed")
	}
	s.calls = append(s.calls, renderCall{HTML: html, Base: base})
	return s.err
}

type fakeTheme struct{ dark bool }

func (t *fakeTheme) PrefersDark() bool { return t.dark }

type manualTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	wasPending := !t.stopped && !t.fired
	t.stopped = true
	return wasPending
}

// manualScheduler records timers and fires them only on request.
type manualScheduler struct {
	timers []*manualTimer
}

func (s *manualScheduler) AfterFunc(d time.Duration, fn func()) contracts.Timer {
	t := &manualTimer{delay: d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (s *manualScheduler) pending() int {
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// fire runs every timer that is still pending.
func (s *manualScheduler) fire() {
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			t.fn()
		}
	}
}

// fireAll runs every timer, including stopped ones, as a loop would if a
// callback was queued before Stop was called.
func (s *manualScheduler) fireAll() {
	for _, t := range s.timers {
		if !t.fired {
			t.fired = true
			t.fn()
		}
	}
}

type harness struct {
	source    *fakeSource
	window    *fakeWindow
	container *fakeContainer
	sink      *fakeSink
	theme     *fakeTheme
	sched     *manualScheduler
	logs      *bytes.Buffer
	sync      *Synchronizer
}

func newHarness(active contracts.Document, visible bool) *harness {
	h := &harness{
		source:    &fakeSource{active: active},
		window:    &fakeWindow{},
		container: &fakeContainer{visible: visible},
		sink:      &fakeSink{},
		theme:     &fakeTheme{},
		sched:     &manualScheduler{},
		logs:      &bytes.Buffer{},
	}
	sheets := render.DefaultStylesheets()
	s, err := New(Collaborators{
		Documents: h.source,
		Window:    h.window,
		Container: h.container,
		Sink:      h.sink,
		Theme:     h.theme,
		Scheduler: h.sched,
	}, Options{
		Converter:   render.NewChain(nil, render.Fallback{}),
		Stylesheets: &sheets,
		Logger:      log.New(h.logs, "", 0),
	})
	if err != nil {
		panic(err)
	}
	h.sync = s
	return h
}

func mdDoc(id string, text string) *fakeDoc {
	return &fakeDoc{id: contracts.DocumentID(id), name: id + ".md", text: text, dir: "file:///notes/"}
}

func plainDoc(id string) *fakeDoc {
	return &fakeDoc{id: contracts.DocumentID(id), name: id + ".go", text: "package main"}
}
