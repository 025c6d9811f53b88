package host

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/neovim/go-client/nvim"
	"github.com/neovim/go-client/nvim/plugin"
	"github.com/sanity-io/litter"

	"go-markdown-preview/internal/app"
	"go-markdown-preview/internal/config"
	"go-markdown-preview/internal/loop"
)

const (
	logPrefix     = "[go-markdown-preview] "
	autocmdGroup  = "GoMarkdownPreview"
	bufferArgEval = "expand('<abuf>')"
)

// Messenger is the subset of *nvim.Nvim the commands print through.
type Messenger interface {
	Command(cmd string) error
	WriteOut(str string) error
}

// Commands is a state container for Neovim command and autocmd handlers.
// Handlers only post work to the loop; the synchronizer runs there.
type Commands struct {
	out     Messenger
	cfg     *config.Config
	logger  *log.Logger
	loop    *loop.Loop
	editor  *Editor
	panel   *Panel
	preview *app.LivePreview
}

func NewCommands(v *nvim.Nvim, cfg *config.Config, logger *log.Logger) (*Commands, error) {
	return newCommands(v, v, cfg, logger)
}

func newCommands(api API, out Messenger, cfg *config.Config, logger *log.Logger) (*Commands, error) {
	l := loop.New()
	c := &Commands{out: out, cfg: cfg, logger: logger, loop: l}

	server := app.NewServer(cfg)
	c.editor = NewEditor(api, l)
	c.panel = NewPanel(server, l, c.announce)

	lp, err := app.NewLivePreview(cfg, app.Host{
		Documents: c.editor,
		Window:    c.editor,
		Container: c.panel,
		Theme:     c.editor,
		Scheduler: l,
	}, server, logger)
	if err != nil {
		l.Stop()
		return nil, err
	}
	c.preview = lp
	return c, nil
}

// Register registers Neovim command and autocmd handlers.
func Register(p *plugin.Plugin) error {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("%sconfig: %v; using defaults", logPrefix, err)
		cfg = config.Default()
	}

	logger, err := newLogger(cfg.LogFile)
	if err != nil {
		return err
	}

	commands, err := NewCommands(p.Nvim, cfg, logger)
	if err != nil {
		return err
	}

	p.Handle("poll", func() (string, error) {
		return "ok", nil
	})

	p.HandleCommand(&plugin.CommandOptions{Name: "MarkdownPreviewStart"}, commands.Start)
	p.HandleCommand(&plugin.CommandOptions{Name: "MarkdownPreviewStop"}, commands.Stop)
	p.HandleCommand(&plugin.CommandOptions{Name: "MarkdownPreviewToggle"}, commands.Toggle)
	p.HandleCommand(&plugin.CommandOptions{Name: "MarkdownPreviewOpen"}, commands.Open)
	p.HandleCommand(&plugin.CommandOptions{Name: "MarkdownPreviewClose"}, commands.Close)
	p.HandleCommand(&plugin.CommandOptions{Name: "MarkdownPreviewDebug"}, commands.Debug)
	p.HandleCommand(&plugin.CommandOptions{Name: "MarkdownPreviewWriteConfig"}, commands.WriteConfig)

	autocmd := func(event string, eval string, fn interface{}) {
		p.HandleAutocmd(&plugin.AutocmdOptions{
			Event:   event,
			Group:   autocmdGroup,
			Pattern: "*",
			Eval:    eval,
		}, fn)
	}
	autocmd("BufEnter", "", commands.editor.BufEnter)
	autocmd("BufAdd", "", commands.editor.BufAdd)
	autocmd("BufDelete", bufferArgEval, commands.bufDelete)
	autocmd("TextChanged", bufferArgEval, commands.textChanged)
	autocmd("TextChangedI", bufferArgEval, commands.textChanged)
	autocmd("CursorMoved", bufferArgEval, commands.cursorMoved)
	autocmd("CursorMovedI", bufferArgEval, commands.cursorMoved)
	autocmd("VimLeavePre", "", commands.shutdown)

	return nil
}

// Start activates the preview and shows the panel.
func (c *Commands) Start(v *nvim.Nvim) error {
	c.loop.Post(func() {
		if err := c.preview.Start(); err != nil {
			c.logger.Printf("start: %v", err)
			c.echo("start failed: " + err.Error())
			return
		}
		c.setVisible(true)
	})
	return nil
}

// Stop deactivates the preview. The panel keeps its visibility for the next Start.
func (c *Commands) Stop(v *nvim.Nvim) error {
	c.loop.Post(func() {
		if err := c.preview.Stop(); err != nil {
			c.logger.Printf("stop: %v", err)
		}
	})
	return nil
}

func (c *Commands) Toggle(v *nvim.Nvim) error {
	c.loop.Post(func() { c.setVisible(!c.panel.IsContainerVisible()) })
	return nil
}

func (c *Commands) Open(v *nvim.Nvim) error {
	c.loop.Post(func() { c.setVisible(true) })
	return nil
}

func (c *Commands) Close(v *nvim.Nvim) error {
	c.loop.Post(func() { c.setVisible(false) })
	return nil
}

// Debug prints the synchronizer state.
func (c *Commands) Debug(v *nvim.Nvim) error {
	c.loop.Post(func() {
		state := c.preview.Synchronizer().Snapshot()
		if err := c.out.WriteOut(litter.Sdump(state) + "\n"); err != nil {
			c.logger.Printf("debug: %v", err)
		}
	})
	return nil
}

// WriteConfig saves the configuration in effect to the config path.
func (c *Commands) WriteConfig(v *nvim.Nvim) error {
	path, err := config.Path()
	if err != nil {
		return err
	}
	if err := config.SaveFile(path, c.cfg); err != nil {
		return err
	}
	c.loop.Post(func() { c.echo("wrote " + path) })
	return nil
}

func (c *Commands) setVisible(visible bool) {
	if !c.preview.Synchronizer().Active() {
		c.echo("not started, run :MarkdownPreviewStart")
		return
	}
	if err := c.panel.SetContainerVisible(visible); err != nil {
		c.logger.Printf("set visible %v: %v", visible, err)
	}
}

func (c *Commands) bufDelete(abuf string) {
	if buf, ok := parseBuffer(abuf); ok {
		c.editor.BufDelete(buf)
	}
}

func (c *Commands) textChanged(abuf string) {
	if buf, ok := parseBuffer(abuf); ok {
		c.editor.TextChanged(buf)
	}
}

func (c *Commands) cursorMoved(abuf string) {
	if buf, ok := parseBuffer(abuf); ok {
		c.editor.CursorMoved(buf)
	}
}

func (c *Commands) shutdown() {
	c.loop.Do(func() {
		if err := c.preview.Stop(); err != nil {
			c.logger.Printf("shutdown: %v", err)
		}
	})
	c.loop.Stop()
}

// announce runs on the loop when the surface is mounted.
func (c *Commands) announce(url string) {
	c.echo("preview: " + url)
}

func (c *Commands) echo(msg string) {
	if err := c.out.Command(fmt.Sprintf(`echom "%s%s"`, logPrefix, escapeVimString(msg))); err != nil {
		c.logger.Printf("echo: %v", err)
	}
}

func parseBuffer(abuf string) (nvim.Buffer, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(abuf))
	if err != nil || n <= 0 {
		return 0, false
	}
	return nvim.Buffer(n), true
}

func escapeVimString(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

func newLogger(path string) (*log.Logger, error) {
	if path == "" {
		return log.New(os.Stderr, logPrefix, log.LstdFlags), nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return log.New(f, logPrefix, log.LstdFlags), nil
}
