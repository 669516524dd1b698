package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/seesound/backend/pkg/logger"
)

// ErrNotConfigured is returned before any network call when no subscription
// key is present.
var ErrNotConfigured = errors.New("speech service not configured")

// Client relays short-lived tokens from the cloud speech token endpoint.
// Tokens are never cached: every IssueToken call is one fresh round trip.
type Client struct {
	key        string
	region     string
	endpoint   string
	httpClient *http.Client
}

type Token struct {
	Token  string `json:"token"`
	Region string `json:"region"`
}

func NewClient(key, region string) *Client {
	return &Client{
		key:      key,
		region:   region,
		endpoint: fmt.Sprintf("https://%s.api.cognitive.microsoft.com/sts/v1.0/issueToken", region),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) Enabled() bool {
	return c.key != ""
}

func (c *Client) Region() string {
	return c.region
}

// IssueToken exchanges the subscription key for a short-lived token. Upstream
// failures are surfaced verbatim (status and body) with no retry.
func (c *Client) IssueToken(ctx context.Context) (*Token, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token fetch failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		logger.Warn("Speech token fetch failed",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, fmt.Errorf("token fetch failed: %d - %s", resp.StatusCode, string(body))
	}

	logger.Debug("Speech token issued", zap.String("region", c.region), zap.Int("token_length", len(body)))

	return &Token{Token: string(body), Region: c.region}, nil
}
