package app

import (
	"fmt"
	"log"

	"go-markdown-preview/internal/config"
	"go-markdown-preview/internal/contracts"
	"go-markdown-preview/internal/preview"
	"go-markdown-preview/internal/render"
	httptransport "go-markdown-preview/internal/transport/http"
)

// Host is the editor side of the preview: everything except the render sink.
type Host struct {
	Documents contracts.DocumentSource
	Window    contracts.WindowEvents
	Container contracts.ContainerHost
	Theme     contracts.ThemePreference
	Scheduler contracts.Scheduler
}

// LivePreview is a coordinator between the editor host, markdown rendering
// and HTTP delivery.
type LivePreview struct {
	server *httptransport.PreviewServer
	sync   *preview.Synchronizer
}

// NewServer builds the preview server for cfg. The host adapter mounts and
// unmounts it; LivePreview renders into it.
func NewServer(cfg *config.Config) *httptransport.PreviewServer {
	return httptransport.NewPreviewServer(cfg.Addr)
}

// NewLivePreview wires a synchronizer between host and server.
func NewLivePreview(cfg *config.Config, host Host, server *httptransport.PreviewServer, logger *log.Logger) (*LivePreview, error) {
	engine, err := render.NewEngine(render.EngineOptions{
		Engine:   cfg.Renderer.Engine,
		Sanitize: cfg.Renderer.Sanitize,
		Mermaid:  cfg.Renderer.Mermaid,
	})
	if err != nil {
		return nil, err
	}
	sheets := render.NewStylesheets(cfg.Renderer.LightStyle, cfg.Renderer.DarkStyle)

	theme := host.Theme
	switch cfg.Theme {
	case config.ThemeLight:
		theme = fixedTheme(false)
	case config.ThemeDark:
		theme = fixedTheme(true)
	}

	sync, err := preview.New(preview.Collaborators{
		Documents: host.Documents,
		Window:    host.Window,
		Container: host.Container,
		Sink:      server,
		Theme:     theme,
		Scheduler: host.Scheduler,
	}, preview.Options{
		Extensions:  cfg.Extensions,
		Debounce:    cfg.Debounce(),
		Converter:   render.NewChain(logger, engine),
		Stylesheets: &sheets,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build synchronizer: %w", err)
	}

	return &LivePreview{server: server, sync: sync}, nil
}

// Synchronizer exposes the preview policy so the host can route events to it.
func (s *LivePreview) Synchronizer() *preview.Synchronizer {
	return s.sync
}

// Start activates the synchronizer.
func (s *LivePreview) Start() error {
	return s.sync.Activate()
}

// Stop deactivates the synchronizer and makes sure the server is down.
func (s *LivePreview) Stop() error {
	s.sync.Deactivate()
	return s.server.Stop()
}

type fixedTheme bool

func (t fixedTheme) PrefersDark() bool { return bool(t) }
