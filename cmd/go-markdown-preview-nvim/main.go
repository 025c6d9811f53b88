package main

import (
	"log"

	"github.com/neovim/go-client/nvim/plugin"

	"go-markdown-preview/internal/host"
)

// plugin.Main owns the msgpack connection to Neovim; Register adds the
// commands and autocmds before the handshake completes.
func main() {
	plugin.Main(func(p *plugin.Plugin) error {
		log.Println("[go-markdown-preview] registering handlers")
		return host.Register(p)
	})
}
