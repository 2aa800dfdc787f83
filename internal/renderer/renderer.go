package renderer

import "context"

// Package renderer wraps the headless-browser collaborator used for
// JavaScript-heavy pages: the episode listing and the resolver's rendered
// fallback.

// CapturedResponse is one network response observed while a page loaded,
// in capture order.
type CapturedResponse struct {
	URL      string
	Status   int
	MimeType string
}

// RenderedPage is the outcome of a render: final DOM HTML plus every
// network response captured during navigation.
type RenderedPage struct {
	HTML      string
	Responses []CapturedResponse
}

// Renderer renders a URL after JavaScript execution. waitSelector is a
// soft wait: a timeout waiting for it is logged and the page is returned
// anyway.
type Renderer interface {
	Render(ctx context.Context, url, waitSelector string) (*RenderedPage, error)
}
