package enhance

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HTTPProber checks reachability with a HEAD request, following redirects.
type HTTPProber struct {
	client    *http.Client
	userAgent string
}

// NewHTTPProber creates a prober. A zero timeout means 5s.
func NewHTTPProber(timeout time.Duration, userAgent string) *HTTPProber {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProber{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Accessible reports whether url answers HEAD with 200 OK after redirects. Any transport failure counts as inaccessible.
func (p *HTTPProber) Accessible(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		zap.L().Debug("enhance: probe failed", zap.String("url", url), zap.Error(err))
		return false
	}
	_ = resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
