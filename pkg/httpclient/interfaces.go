package httpclient

import "context"

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

// Downloader streams a URL to a local file. Implementations must remove any
// partially written file before returning an error.
type Downloader interface {
	Download(ctx context.Context, url, dest string) error
}
