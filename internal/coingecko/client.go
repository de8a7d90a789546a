package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrCoinNotFound indicates the upstream service has no such coin.
var ErrCoinNotFound = errors.New("coingecko: coin not found")

// ErrUpstream indicates a transport failure or upstream server error.
// Callers surface it as a retryable upstream error, never as corruption.
var ErrUpstream = errors.New("coingecko: upstream error")

// Options parameterise the CoinGecko client.
type Options struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	UserAgent string
}

// Client fetches coin metadata from the CoinGecko API.
type Client struct {
	opts    Options
	client  *http.Client
	baseURL string
}

// NewClient constructs a CoinGecko client.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}

	return &Client{
		opts:    opts,
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// CoinDetails carries the enrichment data stored on a new alert.
type CoinDetails struct {
	ID              string
	Symbol          string
	Name            string
	Image           string
	ContractAddress string
}

// ListedCoin is one catalog entry from the coins list endpoint.
type ListedCoin struct {
	ID        string            `json:"id"`
	Symbol    string            `json:"symbol"`
	Name      string            `json:"name"`
	Platforms map[string]string `json:"platforms"`
}

type detailPlatform struct {
	ContractAddress string `json:"contract_address"`
}

type coinResponse struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Image  struct {
		Thumb string `json:"thumb"`
	} `json:"image"`
	DetailPlatforms map[string]detailPlatform `json:"detail_platforms"`
}

// FetchCoin retrieves metadata for one coin by its canonical identifier.
func (c *Client) FetchCoin(ctx context.Context, coinID string) (CoinDetails, error) {
	coinID = strings.TrimSpace(coinID)
	if coinID == "" {
		return CoinDetails{}, fmt.Errorf("coingecko: empty coin id")
	}

	payload, errGet := c.get(ctx, "/coins/"+coinID)
	if errGet != nil {
		return CoinDetails{}, errGet
	}

	var res coinResponse
	if errUnmarshal := json.Unmarshal(payload, &res); errUnmarshal != nil {
		return CoinDetails{}, fmt.Errorf("%w: decode coin: %v", ErrUpstream, errUnmarshal)
	}

	details := CoinDetails{
		ID:     res.ID,
		Symbol: res.Symbol,
		Name:   res.Name,
		Image:  res.Image.Thumb,
	}
	for _, platform := range res.DetailPlatforms {
		if addr := strings.TrimSpace(platform.ContractAddress); addr != "" {
			details.ContractAddress = addr
			break
		}
	}
	return details, nil
}

// ListCoins retrieves the coin catalog with platform contract addresses.
func (c *Client) ListCoins(ctx context.Context) ([]ListedCoin, error) {
	payload, errGet := c.get(ctx, "/coins/list?include_platform=true")
	if errGet != nil {
		return nil, errGet
	}

	var coins []ListedCoin
	if errUnmarshal := json.Unmarshal(payload, &coins); errUnmarshal != nil {
		return nil, fmt.Errorf("%w: decode coin list: %v", ErrUpstream, errUnmarshal)
	}
	return coins, nil
}

// get performs one API request and returns the response payload.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, errReq := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if errReq != nil {
		return nil, errReq
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "coinalerts/1.0")
	}
	if key := strings.TrimSpace(c.opts.APIKey); key != "" {
		req.Header.Set("x-cg-demo-api-key", key)
	}

	resp, errDo := c.client.Do(req)
	if errDo != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, errDo)
	}
	defer resp.Body.Close()

	payload, errRead := io.ReadAll(resp.Body)
	if errRead != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstream, errRead)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return payload, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrCoinNotFound
	default:
		return nil, parseHTTPError(resp.StatusCode, payload)
	}
}

type errorResponse struct {
	Error  string `json:"error"`
	Status struct {
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
}

// parseHTTPError converts a non-200 response into an upstream error.
func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if errUnmarshal := json.Unmarshal(payload, &apiErr); errUnmarshal == nil {
		if apiErr.Error != "" {
			return fmt.Errorf("%w: api error (%d): %s", ErrUpstream, status, apiErr.Error)
		}
		if apiErr.Status.ErrorMessage != "" {
			return fmt.Errorf("%w: api error (%d): %s", ErrUpstream, status, apiErr.Status.ErrorMessage)
		}
	}
	if len(payload) > 0 {
		return fmt.Errorf("%w: api error (%d): %s", ErrUpstream, status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("%w: api error (%d)", ErrUpstream, status)
}
