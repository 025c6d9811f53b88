// Package preview keeps a rendered HTML preview in step with the active
// Markdown document.
//
// A Synchronizer is not safe for concurrent use. Every method, and every
// callback it registers with the host, must run on the host's event loop.
package preview

import (
	"fmt"
	"log"
	"time"

	"go-markdown-preview/internal/contracts"
	"go-markdown-preview/internal/render"
)

// DefaultDebounce is the quiet period after the last edit before rendering.
const DefaultDebounce = 250 * time.Millisecond

// BlankBaseURI is used when the active document has no location.
const BlankBaseURI = "about:blank"

// Converter produces an HTML fragment from markdown. It must not fail.
type Converter interface {
	Fragment(source string) string
}

// Collaborators are the host objects the synchronizer drives.
type Collaborators struct {
	Documents contracts.DocumentSource
	Window    contracts.WindowEvents
	Container contracts.ContainerHost
	Sink      contracts.RenderSink
	Theme     contracts.ThemePreference
	Scheduler contracts.Scheduler
}

// Options tune rendering. Zero values select defaults.
type Options struct {
	Extensions  []string
	Debounce    time.Duration
	Converter   Converter
	Stylesheets *render.Stylesheets
	Logger      *log.Logger
}

// previewState is everything the synchronizer mutates between activation
// and deactivation.
type previewState struct {
	connected    contracts.DocumentID
	docSub       contracts.Subscription
	pending      contracts.Timer
	pendingSeq   uint64
	attached     bool
	panelVisible bool
	handlers     []contracts.Subscription
}

// State is a read-only snapshot of the synchronizer.
type State struct {
	Active            bool
	ConnectedDocument contracts.DocumentID
	Subscribed        bool
	RenderPending     bool
	Attached          bool
	PanelVisible      bool
}

// Synchronizer decides when to render, what to render and whether the
// preview surface should be mounted.
type Synchronizer struct {
	c          Collaborators
	classifier Classifier
	delay      time.Duration
	conv       Converter
	sheets     render.Stylesheets
	logger     *log.Logger

	// seq increments on every schedule and cancel so that a timer callback
	// already queued on the loop can detect it was superseded.
	seq   uint64
	state *previewState
}

// New builds an inactive synchronizer.
func New(c Collaborators, opts Options) (*Synchronizer, error) {
	switch {
	case c.Documents == nil:
		return nil, fmt.Errorf("preview: missing document source")
	case c.Window == nil:
		return nil, fmt.Errorf("preview: missing window events")
	case c.Container == nil:
		return nil, fmt.Errorf("preview: missing container host")
	case c.Sink == nil:
		return nil, fmt.Errorf("preview: missing render sink")
	case c.Theme == nil:
		return nil, fmt.Errorf("preview: missing theme preference")
	case c.Scheduler == nil:
		return nil, fmt.Errorf("preview: missing scheduler")
	}

	s := &Synchronizer{
		c:          c,
		classifier: NewClassifier(opts.Extensions),
		delay:      opts.Debounce,
		conv:       opts.Converter,
		logger:     opts.Logger,
	}
	if s.delay <= 0 {
		s.delay = DefaultDebounce
	}
	if s.conv == nil {
		s.conv = render.NewChain(opts.Logger, render.NewGoldmark())
	}
	if opts.Stylesheets != nil {
		s.sheets = *opts.Stylesheets
	} else {
		s.sheets = render.DefaultStylesheets()
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s, nil
}

// Activate creates the preview state, registers for window and container
// events and makes an initial render attempt. If a registration fails the
// partial state is torn down and the error returned, so a later Activate
// starts clean.
func (s *Synchronizer) Activate() error {
	if s.state != nil {
		return nil
	}
	st := &previewState{}
	s.state = st

	st.panelVisible = s.containerVisible()
	st.attached = s.surfaceMounted()

	registrations := []struct {
		name string
		fn   func() (contracts.Subscription, error)
	}{
		{"active document", func() (contracts.Subscription, error) {
			return s.c.Window.OnActiveDocumentChanged(s.OnActiveDocumentChanged)
		}},
		{"document opened", func() (contracts.Subscription, error) {
			return s.c.Window.OnDocumentOpened(s.OnDocumentSetChanged)
		}},
		{"document closed", func() (contracts.Subscription, error) {
			return s.c.Window.OnDocumentClosed(s.OnDocumentSetChanged)
		}},
		{"container visibility", func() (contracts.Subscription, error) {
			return s.c.Container.OnVisibilityChanged(s.OnContainerVisibilityChanged)
		}},
	}
	for _, r := range registrations {
		sub, err := r.fn()
		if err != nil {
			s.Deactivate()
			return fmt.Errorf("preview: subscribe to %s: %w", r.name, err)
		}
		st.handlers = append(st.handlers, sub)
	}

	s.reconnectDocument()
	s.Reevaluate()
	return nil
}

// Deactivate cancels the pending render, drops the document subscription,
// unmounts the surface and releases handler registrations, in that order.
// It is safe to call at any time, any number of times.
func (s *Synchronizer) Deactivate() {
	st := s.state
	if st == nil {
		return
	}

	s.cancelPendingRender()
	s.disconnectDocument()
	if s.surfaceMounted() {
		s.guard("unmount surface", s.c.Container.UnmountSurface)
	}
	for _, sub := range st.handlers {
		if sub != nil {
			s.guard("release handler", sub.Unsubscribe)
		}
	}
	s.state = nil
}

// Active reports whether Activate has been called without a matching Deactivate.
func (s *Synchronizer) Active() bool {
	return s.state != nil
}

// Snapshot returns a copy of the current state.
func (s *Synchronizer) Snapshot() State {
	st := s.state
	if st == nil {
		return State{}
	}
	return State{
		Active:            true,
		ConnectedDocument: st.connected,
		Subscribed:        st.docSub != nil,
		RenderPending:     st.pending != nil,
		Attached:          st.attached,
		PanelVisible:      st.panelVisible,
	}
}

// OnActiveDocumentChanged follows a focus change to another document.
func (s *Synchronizer) OnActiveDocumentChanged() {
	if s.state == nil {
		return
	}
	s.reconnectDocument()
	s.Reevaluate()
}

// OnDocumentSetChanged handles a document being opened or closed; the
// active slot may have shifted even when focus events did not fire.
func (s *Synchronizer) OnDocumentSetChanged() {
	s.OnActiveDocumentChanged()
}

// OnContainerVisibilityChanged records the new visibility and re-evaluates.
func (s *Synchronizer) OnContainerVisibilityChanged(visible bool) {
	if s.state == nil {
		return
	}
	s.state.panelVisible = visible
	s.Reevaluate()
}

// OnBufferChanged restarts the debounce timer. Rendering happens when the
// timer fires, using the document as it is then.
func (s *Synchronizer) OnBufferChanged() {
	st := s.state
	if st == nil {
		return
	}

	s.cancelPendingRender()
	s.seq++
	seq := s.seq
	st.pendingSeq = seq
	st.pending = s.c.Scheduler.AfterFunc(s.delay, func() {
		s.renderTimerFired(seq)
	})
}

func (s *Synchronizer) renderTimerFired(seq uint64) {
	st := s.state
	if st == nil || st.pending == nil || st.pendingSeq != seq {
		return
	}
	st.pending = nil
	s.RenderNow()
}

// Reevaluate applies the visibility policy to the current host state.
func (s *Synchronizer) Reevaluate() {
	st := s.state
	if st == nil {
		return
	}

	candidate := s.classifier.IsCandidate(s.activeDocument())
	st.panelVisible = s.containerVisible()
	st.attached = s.surfaceMounted()

	switch Decide(candidate, st.panelVisible, st.attached) {
	case EffectHide:
		s.guard("hide container", func() error {
			return s.c.Container.SetContainerVisible(false)
		})
		st.panelVisible = s.containerVisible()
		st.attached = s.surfaceMounted()
	case EffectMountAndRender:
		s.guard("mount surface", s.c.Container.MountSurface)
		st.attached = s.surfaceMounted()
		s.RenderNow()
	case EffectRender:
		s.RenderNow()
	}
}

// RenderNow renders the active document into the sink if the surface is
// mounted, the container is visible and the document is still a candidate.
// Otherwise it does nothing.
func (s *Synchronizer) RenderNow() {
	st := s.state
	if st == nil {
		return
	}
	if !s.surfaceMounted() || !s.containerVisible() {
		return
	}
	doc := s.activeDocument()
	if !s.classifier.IsCandidate(doc) {
		return
	}

	var text string
	if !s.guard("read document", func() (err error) {
		text, err = doc.Text()
		return err
	}) {
		return
	}

	var baseURI string
	if !s.guard("resolve location", func() (err error) {
		baseURI, err = doc.LocationDirectoryURI()
		return err
	}) || baseURI == "" {
		baseURI = BlankBaseURI
	}

	page := render.Page(s.conv.Fragment(text), s.sheets.For(s.c.Theme.PrefersDark()))
	s.guard("render", func() error {
		return s.c.Sink.Render(page, baseURI)
	})

	s.cancelPendingRender()
}

// reconnectDocument moves the buffer subscription to the active document,
// or drops it when that document is not a candidate.
func (s *Synchronizer) reconnectDocument() {
	st := s.state
	s.disconnectDocument()

	doc := s.activeDocument()
	if doc == nil || !s.classifier.IsCandidate(doc) {
		return
	}

	var sub contracts.Subscription
	if !s.guard("subscribe document", func() (err error) {
		sub, err = doc.Subscribe(s.OnBufferChanged, s.OnBufferChanged)
		return err
	}) || sub == nil {
		return
	}
	st.docSub = sub
	st.connected = doc.ID()
}

func (s *Synchronizer) disconnectDocument() {
	st := s.state
	if st.docSub != nil {
		s.guard("unsubscribe document", st.docSub.Unsubscribe)
	}
	st.docSub = nil
	st.connected = ""
}

func (s *Synchronizer) cancelPendingRender() {
	st := s.state
	if st.pending != nil {
		st.pending.Stop()
		st.pending = nil
	}
	s.seq++
}

func (s *Synchronizer) surfaceMounted() (mounted bool) {
	s.guard("query surface", func() error {
		mounted = s.c.Container.IsSurfaceMounted()
		return nil
	})
	return mounted
}

func (s *Synchronizer) containerVisible() (visible bool) {
	s.guard("query container", func() error {
		visible = s.c.Container.IsContainerVisible()
		return nil
	})
	return visible
}

func (s *Synchronizer) activeDocument() contracts.Document {
	var doc contracts.Document
	if !s.guard("active document", func() (err error) {
		doc, err = s.c.Documents.ActiveDocument()
		return err
	}) {
		return nil
	}
	return doc
}

// guard runs a call into the host, logging and discarding any error or
// panic. It reports whether the call succeeded.
func (s *Synchronizer) guard(op string, fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("preview: %s: recovered: %v", op, r)
			ok = false
		}
	}()
	if err := fn(); err != nil {
		s.logger.Printf("preview: %s: %v", op, err)
		return false
	}
	return true
}
