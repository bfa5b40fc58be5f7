package source

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/fruitsalade/dfm/pkg/retry"
)

// HTTPSource fetches a document over HTTP(S) with retries.
type HTTPSource struct {
	url         string
	httpClient  *http.Client
	retryConfig retry.Config
	authToken   string
}

// NewHTTP creates an HTTP source for url.
func NewHTTP(url string, opts Options) *HTTPSource {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = retry.DefaultConfig()
	}

	return &HTTPSource{
		url: url,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		retryConfig: opts.Retry,
		authToken:   opts.AuthToken,
	}
}

func (s *HTTPSource) Location() string { return s.url }

func (s *HTTPSource) Type() string { return TypeHTTP }

// Fetch downloads the document. Network errors and 5xx responses are
// retried; other non-200 statuses fail immediately.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	return retry.DoWithResult(ctx, s.retryConfig, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/xml, text/xml;q=0.9, */*;q=0.1")
		req.Header.Set("Accept-Encoding", "gzip")
		if s.authToken != "" {
			req.Header.Set("Authorization", "Bearer "+s.authToken)
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, retry.Retryable(fmt.Errorf("fetch %s: %w", s.url, err))
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("fetch %s: %w", s.url, ErrNotFound)
		case resp.StatusCode >= 500:
			return nil, retry.Retryable(fmt.Errorf("fetch %s: server error: %d", s.url, resp.StatusCode))
		default:
			return nil, fmt.Errorf("fetch %s: server returned %d", s.url, resp.StatusCode)
		}

		var reader io.Reader = resp.Body
		if resp.Header.Get("Content-Encoding") == "gzip" {
			gr, err := gzip.NewReader(resp.Body)
			if err != nil {
				return nil, fmt.Errorf("fetch %s: gzip: %w", s.url, err)
			}
			defer gr.Close()
			reader = gr
		}

		data, err := io.ReadAll(io.LimitReader(reader, maxDocumentSize+1))
		if err != nil {
			return nil, retry.Retryable(fmt.Errorf("read %s: %w", s.url, err))
		}
		if len(data) > maxDocumentSize {
			return nil, fmt.Errorf("fetch %s: document exceeds %d bytes", s.url, maxDocumentSize)
		}
		return data, nil
	})
}
