package host

import (
	"go-markdown-preview/internal/contracts"
)

// Surface is the preview surface the panel mounts.
type Surface interface {
	Start() error
	Stop() error
	Running() bool
	URL() string
}

// Panel is the browser preview seen as a container region. The user shows
// and hides it with commands; hiding it also takes the surface down.
type Panel struct {
	surface  Surface
	loop     Poster
	announce func(url string)

	visible   bool
	listeners registry[func(bool)]
}

// NewPanel creates a hidden panel. announce is called with the preview URL
// each time the surface is mounted.
func NewPanel(surface Surface, loop Poster, announce func(url string)) *Panel {
	return &Panel{surface: surface, loop: loop, announce: announce}
}

// MountSurface starts the preview server and announces its URL.
func (p *Panel) MountSurface() error {
	if err := p.surface.Start(); err != nil {
		return err
	}
	if p.announce != nil {
		p.announce(p.surface.URL())
	}
	return nil
}

func (p *Panel) UnmountSurface() error {
	return p.surface.Stop()
}

func (p *Panel) IsSurfaceMounted() bool {
	return p.surface.Running()
}

func (p *Panel) IsContainerVisible() bool {
	return p.visible
}

// SetContainerVisible changes visibility and notifies listeners on a later
// loop turn. Hiding unmounts the surface.
func (p *Panel) SetContainerVisible(visible bool) error {
	if p.visible == visible {
		return nil
	}
	p.visible = visible

	var err error
	if !visible && p.surface.Running() {
		err = p.surface.Stop()
	}

	p.loop.Post(func() {
		for _, fn := range p.listeners.snapshot() {
			fn(visible)
		}
	})
	return err
}

func (p *Panel) OnVisibilityChanged(fn func(bool)) (contracts.Subscription, error) {
	return p.listeners.add(fn), nil
}
