// Package httpserver delivers rendered preview pages to the browser.
package httpserver

import (
	"context"
	"encoding/base64"
	"errors"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go-markdown-preview/internal/contracts"
	"go-markdown-preview/internal/render"

	"github.com/gorilla/websocket"
)

// ErrNotStarted is returned by Render when the server is not running.
var ErrNotStarted = errors.New("preview server not started")

// writeWait bounds each websocket write so a stalled browser cannot block
// the run loop, and Render behind it.
var writeWait = 5 * time.Second

type renderPayload struct {
	html string
	base string
}

// session holds the channels of one Start/Stop cycle.
type session struct {
	updates    chan renderPayload
	snapshots  chan chan contracts.RenderMessage
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	stop       chan struct{}
	done       chan struct{}
}

func newSession() *session {
	return &session{
		updates:    make(chan renderPayload, 8),
		snapshots:  make(chan chan contracts.RenderMessage),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// PreviewServer serves the latest rendered page over HTTP and pushes new
// pages to the connected browser over a WebSocket. It implements
// contracts.RenderSink.
type PreviewServer struct {
	addr string

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	sess     *session

	upgrader websocket.Upgrader
}

// NewPreviewServer creates an HTTP/WebSocket preview server bound to addr.
// The upgrader keeps gorilla's same-origin check: only the page the server
// itself serves may open the live socket.
func NewPreviewServer(addr string) *PreviewServer {
	return &PreviewServer{addr: addr}
}

// URL returns the browser URL for the preview server.
func (m *PreviewServer) URL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listener != nil {
		return "http://" + m.listener.Addr().String()
	}
	return "http://" + m.addr
}

// Running reports whether Start has succeeded without a matching Stop.
func (m *PreviewServer) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess != nil
}

// Start binds the listener and begins serving. Starting a running server is a no-op.
func (m *PreviewServer) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess != nil {
		return nil
	}

	ln, err := net.Listen("tcp", m.addr)
	if err != nil {
		return err
	}

	sess := newSession()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		m.handleIndex(sess, w, r)
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		m.handleWS(sess, w, r)
	})
	mux.HandleFunc(render.AssetPrefix, m.handleAsset)

	m.listener = ln
	m.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	m.sess = sess

	go m.runLoop(sess)
	go func(srv *http.Server) {
		_ = srv.Serve(ln)
	}(m.server)
	return nil
}

// Render publishes a new page. baseURI is the document directory as a
// file:// URI; any other value leaves relative links unresolved.
func (m *PreviewServer) Render(html string, baseURI string) error {
	m.mu.Lock()
	sess := m.sess
	m.mu.Unlock()
	if sess == nil {
		return ErrNotStarted
	}

	select {
	case sess.updates <- renderPayload{html: html, base: BaseHref(baseURI)}:
		return nil
	case <-sess.done:
		return ErrNotStarted
	}
}

// Stop gracefully shuts down the HTTP server and run loop.
func (m *PreviewServer) Stop() error {
	m.mu.Lock()
	if m.sess == nil {
		m.mu.Unlock()
		return nil
	}
	srv, sess := m.server, m.sess
	m.server = nil
	m.listener = nil
	m.sess = nil
	m.mu.Unlock()

	close(sess.stop)
	<-sess.done

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// BaseHref maps a file:// directory URI to the asset path that serves it.
// Other URIs yield "".
func BaseHref(baseURI string) string {
	u, err := url.Parse(baseURI)
	if err != nil || u.Scheme != "file" || u.Path == "" {
		return ""
	}
	dir := filepath.Clean(filepath.FromSlash(u.Path))
	return render.AssetPrefix + base64.RawURLEncoding.EncodeToString([]byte(dir)) + "/"
}

// handleIndex serves the latest page with the live client injected.
func (m *PreviewServer) handleIndex(sess *session, w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	reply := make(chan contracts.RenderMessage, 1)
	select {
	case sess.snapshots <- reply:
	case <-sess.done:
		http.Error(w, "preview stopped", http.StatusServiceUnavailable)
		return
	case <-r.Context().Done():
		return
	}
	latest := <-reply

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(injectLiveClient(latest.HTML, latest.Base)))
}

// handleWS upgrades the connection and forwards it to the loop.
func (m *PreviewServer) handleWS(sess *session, w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	select {
	case sess.register <- conn:
	case <-sess.done:
		_ = conn.Close()
		return
	}
	defer func() {
		select {
		case sess.unregister <- conn:
		case <-sess.done:
		}
	}()

	// Block here until the connection closes / errors out
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// handleAsset serves local files. Two forms are accepted:
// /@mdfs/<id> where id encodes an absolute file path, and
// /@mdfs/<id>/<rel> where id encodes a directory and rel stays inside it.
func (m *PreviewServer) handleAsset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	assetPath, ok := resolveAsset(strings.TrimPrefix(r.URL.Path, render.AssetPrefix))
	if !ok {
		http.NotFound(w, r)
		return
	}

	info, err := os.Stat(assetPath)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, assetPath)
}

// resolveAsset decodes an asset path into a filesystem path.
func resolveAsset(rest string) (string, bool) {
	id, rel, _ := strings.Cut(rest, "/")
	if id == "" {
		return "", false
	}

	decoded, err := base64.RawURLEncoding.DecodeString(id)
	if err != nil {
		return "", false
	}
	root := filepath.Clean(string(decoded))
	if root == "." || !filepath.IsAbs(root) {
		return "", false
	}
	if rel == "" {
		return root, true
	}

	// Cleaning against "/" drops any leading "..", keeping the result under root.
	return filepath.Join(root, filepath.FromSlash(path.Clean("/"+rel))), true
}

// runLoop serializes state updates and websocket writes on a single goroutine.
func (m *PreviewServer) runLoop(sess *session) {
	defer close(sess.done)

	var conn *websocket.Conn
	lastRender := contracts.RenderMessage{Type: contracts.MessageTypeRender}

	for {
		select {
		case update := <-sess.updates:
			lastRender.Rev++
			lastRender.HTML = update.html
			lastRender.Base = update.base

			if conn != nil && !writeJSON(conn, lastRender) {
				conn = nil
			}

		case reply := <-sess.snapshots:
			reply <- lastRender

		case c := <-sess.register:
			if conn != nil {
				_ = conn.Close()
			}
			conn = c

			if lastRender.Rev > 0 && !writeJSON(conn, lastRender) {
				conn = nil
			}

		case c := <-sess.unregister:
			if conn == c {
				_ = conn.Close()
				conn = nil
			}

		case <-sess.stop:
			if conn != nil {
				if writeJSON(conn, contracts.DetachMessage{Type: contracts.MessageTypeDetach}) {
					_ = conn.Close()
				}
			}
			return
		}
	}
}

// writeJSON writes a JSON message and reports whether the connection is usable.
func writeJSON(conn *websocket.Conn, v any) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(v); err != nil {
		_ = conn.Close()
		return false
	}
	return true
}
