package proxy

import (
	"net/http"
	"time"
)

// ClientOptions configures the shared outbound client.
type ClientOptions struct {
	Timeout         time.Duration
	FollowRedirects bool
}

// NewHTTPClient builds the single client shared by every /display request.
// Unless FollowRedirects is set, a 3xx reply is handed back to the caller
// as-is and later rejected as a non-2xx status.
func NewHTTPClient(opts ClientOptions) *http.Client {
	client := &http.Client{
		Timeout: opts.Timeout,
	}
	if !opts.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client
}
