package host

import (
	"bytes"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/neovim/go-client/nvim"

	"go-markdown-preview/internal/contracts"
)

// API is the subset of *nvim.Nvim the adapter uses.
type API interface {
	CurrentBuffer() (nvim.Buffer, error)
	BufferName(buffer nvim.Buffer) (string, error)
	BufferLines(buffer nvim.Buffer, start int, end int, strict bool) ([][]byte, error)
	BufferOption(buffer nvim.Buffer, name string, result interface{}) error
	Option(name string, result interface{}) error
}

// Poster queues work on the event loop.
type Poster interface {
	Post(fn func()) bool
}

type bufferCallbacks struct {
	onText      func()
	onSelection func()
}

// Editor adapts Neovim buffers and autocmds to the preview contracts.
// Autocmd entry points may be called from any goroutine; everything else
// runs on the loop.
type Editor struct {
	api  API
	loop Poster

	active registry[func()]
	opened registry[func()]
	closed registry[func()]

	buffers map[nvim.Buffer]*registry[bufferCallbacks]
}

func NewEditor(api API, loop Poster) *Editor {
	return &Editor{
		api:     api,
		loop:    loop,
		buffers: make(map[nvim.Buffer]*registry[bufferCallbacks]),
	}
}

// ActiveDocument returns the current buffer.
func (e *Editor) ActiveDocument() (contracts.Document, error) {
	buf, err := e.api.CurrentBuffer()
	if err != nil {
		return nil, err
	}
	return &bufferDocument{editor: e, buf: buf}, nil
}

func (e *Editor) OnActiveDocumentChanged(fn func()) (contracts.Subscription, error) {
	return e.active.add(fn), nil
}

func (e *Editor) OnDocumentOpened(fn func()) (contracts.Subscription, error) {
	return e.opened.add(fn), nil
}

func (e *Editor) OnDocumentClosed(fn func()) (contracts.Subscription, error) {
	return e.closed.add(fn), nil
}

// PrefersDark reports whether 'background' is dark.
func (e *Editor) PrefersDark() bool {
	var bg string
	if err := e.api.Option("background", &bg); err != nil {
		return false
	}
	return bg == "dark"
}

// BufEnter handles the BufEnter autocmd.
func (e *Editor) BufEnter() {
	e.loop.Post(func() { fire(e.active.snapshot()) })
}

// BufAdd handles the BufAdd autocmd.
func (e *Editor) BufAdd() {
	e.loop.Post(func() { fire(e.opened.snapshot()) })
}

// BufDelete handles the BufDelete autocmd. Subscriptions to the deleted
// buffer are dropped before listeners run.
func (e *Editor) BufDelete(buf nvim.Buffer) {
	e.loop.Post(func() {
		if subs, ok := e.buffers[buf]; ok {
			subs.clear()
			delete(e.buffers, buf)
		}
		fire(e.closed.snapshot())
	})
}

// TextChanged handles TextChanged and TextChangedI for buf.
func (e *Editor) TextChanged(buf nvim.Buffer) {
	e.loop.Post(func() { e.dispatch(buf, func(cb bufferCallbacks) func() { return cb.onText }) })
}

// CursorMoved handles CursorMoved and CursorMovedI for buf.
func (e *Editor) CursorMoved(buf nvim.Buffer) {
	e.loop.Post(func() { e.dispatch(buf, func(cb bufferCallbacks) func() { return cb.onSelection }) })
}

func (e *Editor) dispatch(buf nvim.Buffer, pick func(bufferCallbacks) func()) {
	subs, ok := e.buffers[buf]
	if !ok {
		return
	}
	for _, cb := range subs.snapshot() {
		if fn := pick(cb); fn != nil {
			fn()
		}
	}
}

func (e *Editor) subscribe(buf nvim.Buffer, cb bufferCallbacks) contracts.Subscription {
	subs, ok := e.buffers[buf]
	if !ok {
		subs = &registry[bufferCallbacks]{}
		e.buffers[buf] = subs
	}
	return subs.add(cb)
}

func fire(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}

// bufferDocument is a Neovim buffer seen as a contracts.Document.
type bufferDocument struct {
	editor *Editor
	buf    nvim.Buffer
}

func (d *bufferDocument) ID() contracts.DocumentID {
	return contracts.DocumentID(fmt.Sprintf("buf:%d", int(d.buf)))
}

func (d *bufferDocument) Name() (string, error) {
	return d.editor.api.BufferName(d.buf)
}

func (d *bufferDocument) Text() (string, error) {
	lines, err := d.editor.api.BufferLines(d.buf, 0, -1, true)
	if err != nil {
		return "", err
	}
	return string(bytes.Join(lines, []byte("\n"))), nil
}

func (d *bufferDocument) LocationDirectoryURI() (string, error) {
	name, err := d.Name()
	if err != nil {
		return "", err
	}
	return DirectoryURI(name), nil
}

func (d *bufferDocument) DeclaredContentType() (string, error) {
	var ft string
	if err := d.editor.api.BufferOption(d.buf, "filetype", &ft); err != nil {
		return "", err
	}
	return ContentType(ft), nil
}

func (d *bufferDocument) Subscribe(onTextChanged, onSelectionChanged func()) (contracts.Subscription, error) {
	return d.editor.subscribe(d.buf, bufferCallbacks{onText: onTextChanged, onSelection: onSelectionChanged}), nil
}

// DirectoryURI returns the file:// URI of the directory holding an
// absolute buffer name, or "" for unnamed and relative buffers.
func DirectoryURI(name string) string {
	if name == "" || !filepath.IsAbs(name) {
		return ""
	}
	dir := filepath.ToSlash(filepath.Dir(name))
	if dir != "/" {
		dir += "/"
	}
	return (&url.URL{Scheme: "file", Path: dir}).String()
}

// ContentType maps a filetype to a declared content type.
func ContentType(filetype string) string {
	if filetype == "" {
		return ""
	}
	return "text/x-" + filetype
}
