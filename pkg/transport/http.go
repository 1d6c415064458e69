package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/leadline-ai/leadline/pkg/logger"
)

const defaultHTTPTimeout = 60 * time.Second

// HTTPTransport calls a remote engine over plain HTTP. Endpoints map to
// POST {base}/agent/{endpoint} with a JSON body.
type HTTPTransport struct {
	baseURL    *url.URL
	authToken  string
	httpClient *http.Client
}

// NewHTTPTransport creates a transport for the given engine base URL.
func NewHTTPTransport(base, authToken string) (*HTTPTransport, error) {
	parsed, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid engine base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid engine base URL %q", base)
	}
	return &HTTPTransport{
		baseURL:    parsed,
		authToken:  authToken,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}, nil
}

func (t *HTTPTransport) Invoke(ctx context.Context, endpoint string, payload []byte) ([]byte, error) {
	target := *t.baseURL
	target.Path = strings.TrimRight(target.Path, "/") + "/agent/" + endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building engine request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if t.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+t.authToken)
	}

	started := time.Now()
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("engine call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading engine response: %w", err)
	}

	logger.DebugCF("transport", "Engine call completed", map[string]any{
		"endpoint":    endpoint,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(started).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			Code:    resp.StatusCode,
			Message: strings.TrimSpace(string(body)),
		}
	}
	return body, nil
}
