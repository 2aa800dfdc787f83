package renderer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/clipcast-hq/clipcast-archiver/internal/logger"
)

// RodRenderer renders pages in a headless Chromium via rod. Each call
// launches its own browser; rendering is the expensive last resort, so a
// persistent browser is not worth keeping around.
type RodRenderer struct {
	navTimeout      time.Duration
	selectorTimeout time.Duration
	log             logger.Logger
}

// NewRodRenderer builds a renderer with the given navigation and
// selector-wait timeouts.
func NewRodRenderer(navTimeout, selectorTimeout time.Duration, log logger.Logger) *RodRenderer {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &RodRenderer{
		navTimeout:      navTimeout,
		selectorTimeout: selectorTimeout,
		log:             log,
	}
}

// Render navigates to url, waits for load (and optionally waitSelector),
// and returns the final HTML along with every network response seen.
func (r *RodRenderer) Render(ctx context.Context, url, waitSelector string) (*RenderedPage, error) {
	controlURL, err := launcher.New().
		NoSandbox(true).
		Headless(true).
		Set("disable-gpu", "").
		Set("disable-dev-shm-usage", "").
		Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}

	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		return nil, fmt.Errorf("enable network capture: %w", err)
	}

	var mu sync.Mutex
	var responses []CapturedResponse
	go page.EachEvent(func(e *proto.NetworkResponseReceived) {
		if e.Response == nil {
			return
		}
		mu.Lock()
		responses = append(responses, CapturedResponse{
			URL:      e.Response.URL,
			Status:   e.Response.Status,
			MimeType: e.Response.MIMEType,
		})
		mu.Unlock()
	})()

	navPage := page.Timeout(r.navTimeout)
	if err := navPage.Navigate(url); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := navPage.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load %s: %w", url, err)
	}

	if waitSelector != "" {
		if _, err := page.Timeout(r.selectorTimeout).Element(waitSelector); err != nil {
			r.log.WarnObj("selector wait timed out, continuing", "render_wait", map[string]any{
				"url":      url,
				"selector": waitSelector,
			})
		}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("read rendered html: %w", err)
	}

	mu.Lock()
	captured := append([]CapturedResponse(nil), responses...)
	mu.Unlock()

	return &RenderedPage{HTML: html, Responses: captured}, nil
}

var _ Renderer = (*RodRenderer)(nil)
