package custody

import (
	"context"
	"net/http"
	"time"
)

// Availability probe for the status endpoint. Timeouts stay short so a dead
// custody service cannot stall status requests.

// IsServiceAvailable returns true if the configured custody service responds.
// Always false when no external service is configured.
func IsServiceAvailable(ctx context.Context, config Config) bool {
	if !config.HasService() {
		return false
	}
	return probeURL(ctx, config.BaseURL+"/api/health")
}

func probeURL(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}

	client := &http.Client{
		Timeout: 2 * time.Second,
	}

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 500
}
