package proxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// DefaultMaxContentBytes is the largest body the relay will serve.
const DefaultMaxContentBytes int64 = 10_000_000

type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewFetcher returns a Fetcher over a shared client. A non-positive maxBytes
// selects DefaultMaxContentBytes.
func NewFetcher(client *http.Client, maxBytes int64) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxContentBytes
	}
	return &Fetcher{
		client:   client,
		maxBytes: maxBytes,
	}
}

func (f *Fetcher) MaxBytes() int64 {
	return f.maxBytes
}

// Fetch performs a single GET for target and returns the body.
//
// The body is read as one chunk of at most MaxBytes. If anything is still
// left on the stream after that chunk the response is rejected with
// ErrTooLarge; reaching end-of-stream exactly at the ceiling is fine.
func (f *Fetcher) Fetch(ctx context.Context, target *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamStatusError{StatusCode: resp.StatusCode}
	}

	// One extra byte tells "exactly at the ceiling" apart from "more follows".
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadBody, err)
	}

	if int64(len(body)) > f.maxBytes {
		return nil, ErrTooLarge
	}
	if len(body) == 0 {
		return nil, ErrEmptyContent
	}

	return body, nil
}
