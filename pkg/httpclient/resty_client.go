package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient creates a new RestyClient with the specified timeout and
// a fixed browser-like User-Agent applied to every request.
func NewRestyClient(timeout time.Duration, userAgent string) *RestyClient {
	return &RestyClient{client: newRestyBaseClient(timeout, userAgent)}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout, "")
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration, userAgent string) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	if userAgent != "" {
		c.SetHeader("User-Agent", userAgent)
	}
	return c
}

// Get performs an HTTP GET request with the specified context, URL, and headers.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	req := r.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// Download streams the response body for url into dest. On any failure the
// partially written file is removed so a later run starts clean.
func (r *RestyClient) Download(ctx context.Context, url, dest string) error {
	resp, err := r.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return fmt.Errorf("download request: %w", err)
	}
	raw := resp.RawBody()
	defer raw.Close()

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("download status %d for %s", resp.StatusCode(), url)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create download target: %w", err)
	}

	if _, err := io.Copy(out, raw); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("stream download body: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return fmt.Errorf("flush download target: %w", err)
	}
	return nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte    { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }
