package contracts

import "time"

// DocumentID identifies a document for the lifetime of the host session.
type DocumentID string

// Subscription is a disposable registration with the host.
type Subscription interface {
	// Unsubscribe detaches the registration. Calling it on a registration the
	// host already tore down returns an error.
	Unsubscribe() error
}

// Document is a read-only view of a host document.
type Document interface {
	ID() DocumentID
	// Name returns the document's file name, or "" for an unsaved buffer.
	Name() (string, error)
	Text() (string, error)
	// LocationDirectoryURI returns the URI of the directory holding the
	// document, or "" when the document has no location.
	LocationDirectoryURI() (string, error)
	DeclaredContentType() (string, error)
	// Subscribe registers callbacks for text edits and cursor/selection moves.
	Subscribe(onTextChanged, onSelectionChanged func()) (Subscription, error)
}

// DocumentSource reports the document that currently has focus.
type DocumentSource interface {
	// ActiveDocument returns nil when no document is active.
	ActiveDocument() (Document, error)
}

// ContainerHost owns the region the preview surface is mounted into.
type ContainerHost interface {
	MountSurface() error
	UnmountSurface() error
	IsSurfaceMounted() bool
	IsContainerVisible() bool
	// SetContainerVisible shows or hides the region. Hiding detaches the
	// surface as a side effect.
	SetContainerVisible(visible bool) error
	OnVisibilityChanged(fn func(visible bool)) (Subscription, error)
}

// WindowEvents reports changes to the window's set of documents.
type WindowEvents interface {
	OnActiveDocumentChanged(fn func()) (Subscription, error)
	OnDocumentOpened(fn func()) (Subscription, error)
	OnDocumentClosed(fn func()) (Subscription, error)
}

// RenderSink displays a rendered HTML page.
type RenderSink interface {
	Render(html string, baseURI string) error
}

// ThemePreference reports the host's light/dark preference.
type ThemePreference interface {
	PrefersDark() bool
}

// Timer is a pending single-shot callback.
type Timer interface {
	// Stop prevents the callback from being scheduled and reports whether
	// it was still pending.
	Stop() bool
}

// Scheduler defers callbacks onto the host's event loop.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}
