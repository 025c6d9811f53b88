package contracts

const (
	// MessageTypeRender replaces the browser page with freshly rendered HTML.
	MessageTypeRender = "render"
	// MessageTypeDetach tells the browser the preview surface was unmounted.
	MessageTypeDetach = "detach"
)

// RenderMessage carries a rendered page and revision metadata to the browser.
type RenderMessage struct {
	Type string `json:"type"`
	HTML string `json:"html"`
	// Base is the href the browser should resolve relative links against.
	Base string `json:"base"`
	Rev  uint64 `json:"rev"`
}

// DetachMessage is sent to connected browsers when the server stops.
type DetachMessage struct {
	Type string `json:"type"`
}
